package world

import (
	"math"
	"sort"

	"github.com/l1jgo/skirmish/internal/content"
)

// TileSize is the edge length of one tile in world units.
const TileSize = 8

// Conv converts a world coordinate to logical tile units.
func Conv(v float64) float64 { return v / TileSize }

// ToTile converts a world coordinate to the index of the tile containing it.
func ToTile(v float64) int { return int(math.Round(v / TileSize)) }

// Building is a block instance placed on a tile.
type Building struct {
	ID     int32
	Team   uint8
	Block  *content.Block
	TileX  int
	TileY  int
	Health float64
	Items  map[*content.Item]int

	// OnUnit is the block behavior invoked while a grounded unit stands on
	// the building. Nil for blocks that do not care.
	OnUnit func(b *Building, unitID uint64)
}

func (b *Building) X() float64 { return float64(b.TileX * TileSize) }
func (b *Building) Y() float64 { return float64(b.TileY * TileSize) }

// UnitOn notifies the building that a unit stands on it this tick.
func (b *Building) UnitOn(unitID uint64) {
	if b.OnUnit != nil {
		b.OnUnit(b, unitID)
	}
}

// Has reports whether the building stores at least one of item.
func (b *Building) Has(item *content.Item) bool {
	return b.Items[item] > 0
}

// RemoveItem takes up to n of item and returns how many were removed.
func (b *Building) RemoveItem(item *content.Item, n int) int {
	have := b.Items[item]
	if n > have {
		n = have
	}
	if n <= 0 {
		return 0
	}
	if have-n == 0 {
		delete(b.Items, item)
	} else {
		b.Items[item] = have - n
	}
	return n
}

// AddItem stores n of item.
func (b *Building) AddItem(item *content.Item, n int) {
	if b.Items == nil {
		b.Items = make(map[*content.Item]int)
	}
	b.Items[item] += n
}

// Tile is one cell of the map.
type Tile struct {
	X, Y  int
	Floor *content.Floor
	Block *content.Block
	Build *Building
}

func (t *Tile) WorldX() float64 { return float64(t.X * TileSize) }
func (t *Tile) WorldY() float64 { return float64(t.Y * TileSize) }

// Solid reports whether ground units are blocked by the tile.
func (t *Tile) Solid() bool {
	return (t.Floor != nil && t.Floor.Solid) || (t.Block != nil && t.Block.Solid)
}

// Point is a tile coordinate.
type Point struct {
	X, Y int
}

// Grid is the tile map plus spawn points. It is the static half of the world
// indexer; unit queries are answered by the simulation on top of it.
type Grid struct {
	width, height int
	tiles         []Tile
	spawns        []Point
	buildings     []*Building
	nextBuild     int32
	placements    []Placement
	waves         []Wave
}

// Placement is a unit present when the map loads. X and Y are tiles.
type Placement struct {
	Kind string `yaml:"kind"`
	Team uint8  `yaml:"team"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
	// Core marks units a core produced; they despawn without a player.
	Core bool `yaml:"core"`
}

// Wave spawns Count units of Kind at every spawn point each Every ticks.
type Wave struct {
	Kind  string `yaml:"kind"`
	Count int    `yaml:"count"`
	Every int    `yaml:"every"`
}

// NewGrid creates a width×height map covered with floor.
func NewGrid(width, height int, floor *content.Floor) *Grid {
	g := &Grid{width: width, height: height, tiles: make([]Tile, width*height)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.tiles[y*width+x] = Tile{X: x, Y: y, Floor: floor}
		}
	}
	return g
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Tile returns the tile at tile coordinates, or nil outside the map.
func (g *Grid) Tile(x, y int) *Tile {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return nil
	}
	return &g.tiles[y*g.width+x]
}

// TileAt returns the tile under a world position, or nil outside the map.
func (g *Grid) TileAt(wx, wy float64) *Tile {
	return g.Tile(ToTile(wx), ToTile(wy))
}

// SetFloor replaces the floor of a tile.
func (g *Grid) SetFloor(x, y int, f *content.Floor) {
	if t := g.Tile(x, y); t != nil {
		t.Floor = f
	}
}

// SetBlock places a block. Blocks with health become buildings owned by team.
func (g *Grid) SetBlock(x, y int, b *content.Block, team uint8) *Building {
	t := g.Tile(x, y)
	if t == nil {
		return nil
	}
	if t.Build != nil {
		g.removeBuilding(t.Build)
		t.Build = nil
	}
	t.Block = b
	if b == nil || (b.Health <= 0 && !b.Core) {
		return nil
	}
	g.nextBuild++
	build := &Building{ID: g.nextBuild, Team: team, Block: b, TileX: x, TileY: y, Health: b.Health}
	t.Build = build
	g.buildings = append(g.buildings, build)
	return build
}

func (g *Grid) removeBuilding(b *Building) {
	for i, o := range g.buildings {
		if o == b {
			g.buildings = append(g.buildings[:i], g.buildings[i+1:]...)
			return
		}
	}
}

// Buildings returns all buildings in placement order.
func (g *Grid) Buildings() []*Building { return g.buildings }

// Building finds a building by id.
func (g *Grid) Building(id int32) *Building {
	i := sort.Search(len(g.buildings), func(i int) bool { return g.buildings[i].ID >= id })
	if i < len(g.buildings) && g.buildings[i].ID == id {
		return g.buildings[i]
	}
	return nil
}

// AddSpawn registers an enemy spawn point.
func (g *Grid) AddSpawn(x, y int) {
	g.spawns = append(g.spawns, Point{X: x, Y: y})
}

// Spawns returns the enemy spawn points.
func (g *Grid) Spawns() []Point { return g.spawns }

// HasSpawns reports whether any spawn point exists.
func (g *Grid) HasSpawns() bool { return len(g.spawns) > 0 }

// Placements returns the units the map starts with.
func (g *Grid) Placements() []Placement { return g.placements }

// Waves returns the periodic enemy waves.
func (g *Grid) Waves() []Wave { return g.waves }
