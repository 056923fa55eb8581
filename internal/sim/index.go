package sim

import (
	"math"

	"github.com/l1jgo/skirmish/internal/core/ecs"
	"github.com/l1jgo/skirmish/internal/team"
	"github.com/l1jgo/skirmish/internal/unit"
	"github.com/l1jgo/skirmish/internal/world"
)

// Index answers the unit package's spatial queries from the tile grid and
// the cell grid of unit positions.
type Index struct {
	grid  *world.Grid
	units *ecs.Store[unit.Unit]
	cells *world.CellGrid
}

var _ unit.Indexer = (*Index)(nil)

func newIndex(g *world.Grid, units *ecs.Store[unit.Unit], cells *world.CellGrid) *Index {
	return &Index{grid: g, units: units, cells: cells}
}

func (ix *Index) TileAt(x, y float64) *world.Tile { return ix.grid.TileAt(x, y) }
func (ix *Index) Spawns() []world.Point           { return ix.grid.Spawns() }

func (ix *Index) Bounds() (float64, float64) {
	return float64(ix.grid.Width() * world.TileSize), float64(ix.grid.Height() * world.TileSize)
}

func (ix *Index) Unit(id ecs.EntityID) *unit.Unit {
	u, ok := ix.units.Get(id)
	if !ok || !u.IsAdded() {
		return nil
	}
	return u
}

// Move re-buckets a unit after it moved.
func (ix *Index) Move(u *unit.Unit) { ix.cells.Put(u.ID, u.X, u.Y) }

// candidates returns the units whose cells touch the circle, in id order.
// An unbounded radius scans the whole store.
func (ix *Index) candidates(x, y, r float64, fn func(*unit.Unit)) {
	if math.IsInf(r, 1) || r > 1<<20 {
		ix.units.Each(func(_ ecs.EntityID, u *unit.Unit) {
			if u.IsValid() {
				fn(u)
			}
		})
		return
	}
	for _, id := range ix.cells.Nearby(x, y, r) {
		if u, ok := ix.units.Get(id); ok && u.IsValid() {
			fn(u)
		}
	}
}

func (ix *Index) closest(x, y, r float64, pred func(*unit.Unit) bool) *unit.Unit {
	var best *unit.Unit
	bd := r
	ix.candidates(x, y, r, func(u *unit.Unit) {
		if !pred(u) {
			return
		}
		if d := math.Hypot(u.X-x, u.Y-y); d <= bd {
			best, bd = u, d
		}
	})
	return best
}

func (ix *Index) ClosestTarget(t team.ID, x, y, r float64) *unit.Unit {
	return ix.closest(x, y, r, func(u *unit.Unit) bool { return !team.IsAlly(t, u.Team) })
}

func (ix *Index) ClosestDamagedAlly(t team.ID, x, y, r float64) *unit.Unit {
	return ix.closest(x, y, r, func(u *unit.Unit) bool { return team.IsAlly(t, u.Team) && u.Damaged() })
}

// ClosestBuilding scans buildings in placement order; ties keep the first.
func (ix *Index) ClosestBuilding(x, y, r float64, pred func(*world.Building) bool) *world.Building {
	var best *world.Building
	bd := r
	for _, b := range ix.grid.Buildings() {
		if pred != nil && !pred(b) {
			continue
		}
		if d := math.Hypot(b.X()-x, b.Y()-y); d <= bd {
			best, bd = b, d
		}
	}
	return best
}

func (ix *Index) EachWithin(x, y, r float64, fn func(*unit.Unit)) {
	ix.candidates(x, y, r, func(u *unit.Unit) {
		if math.Hypot(u.X-x, u.Y-y) <= r {
			fn(u)
		}
	})
}

// UnitCount counts live units within size of (x, y) that satisfy pred.
func (ix *Index) UnitCount(x, y, size float64, pred func(*unit.Unit) bool) int {
	n := 0
	ix.EachWithin(x, y, size, func(u *unit.Unit) {
		if pred == nil || pred(u) {
			n++
		}
	})
	return n
}
