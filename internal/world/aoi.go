package world

import (
	"math"
	"sort"

	"github.com/l1jgo/skirmish/internal/core/ecs"
)

// CellGrid buckets entity ids into square cells of world space so radius
// queries only scan nearby cells. Accessed only from the game loop goroutine.
type CellGrid struct {
	size  float64
	cells map[cellKey]map[ecs.EntityID]struct{}
	where map[ecs.EntityID]cellKey
}

type cellKey struct {
	cx, cy int32
}

// NewCellGrid creates a grid with the given cell edge length in world units.
func NewCellGrid(cellSize float64) *CellGrid {
	if cellSize <= 0 {
		cellSize = 64
	}
	return &CellGrid{
		size:  cellSize,
		cells: make(map[cellKey]map[ecs.EntityID]struct{}),
		where: make(map[ecs.EntityID]cellKey),
	}
}

func (g *CellGrid) key(x, y float64) cellKey {
	return cellKey{cx: int32(math.Floor(x / g.size)), cy: int32(math.Floor(y / g.size))}
}

// Put places or moves an entity.
func (g *CellGrid) Put(id ecs.EntityID, x, y float64) {
	k := g.key(x, y)
	if old, ok := g.where[id]; ok {
		if old == k {
			return
		}
		g.removeFrom(id, old)
	}
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
	g.where[id] = k
}

// Remove takes an entity out of the grid.
func (g *CellGrid) Remove(id ecs.EntityID) {
	if k, ok := g.where[id]; ok {
		g.removeFrom(id, k)
		delete(g.where, id)
	}
}

func (g *CellGrid) removeFrom(id ecs.EntityID, k cellKey) {
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Nearby returns the ids in every cell touched by the circle (x, y, r) in
// ascending id order. Caller does fine-grained distance filtering.
func (g *CellGrid) Nearby(x, y, r float64) []ecs.EntityID {
	lo := g.key(x-r, y-r)
	hi := g.key(x+r, y+r)
	var result []ecs.EntityID
	for cx := lo.cx; cx <= hi.cx; cx++ {
		for cy := lo.cy; cy <= hi.cy; cy++ {
			for id := range g.cells[cellKey{cx: cx, cy: cy}] {
				result = append(result, id)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Len returns the number of tracked entities.
func (g *CellGrid) Len() int { return len(g.where) }
