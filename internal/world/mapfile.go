package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/skirmish/internal/content"
)

type mapFile struct {
	Width        int         `yaml:"width"`
	Height       int         `yaml:"height"`
	DefaultFloor string      `yaml:"default_floor"`
	Floors       []floorRect `yaml:"floors"`
	Blocks       []blockSpec `yaml:"blocks"`
	Spawns       []Point     `yaml:"spawns"`
	Units        []Placement `yaml:"units"`
	Waves        []Wave      `yaml:"waves"`
}

type floorRect struct {
	X     int    `yaml:"x"`
	Y     int    `yaml:"y"`
	W     int    `yaml:"w"`
	H     int    `yaml:"h"`
	Floor string `yaml:"floor"`
}

type blockSpec struct {
	X     int            `yaml:"x"`
	Y     int            `yaml:"y"`
	Block string         `yaml:"block"`
	Team  uint8          `yaml:"team"`
	Items map[string]int `yaml:"items"`
}

// LoadMap reads a YAML map description.
func LoadMap(path string, cat *content.Catalog) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	g, err := ParseMap(data, cat)
	if err != nil {
		return nil, fmt.Errorf("parse map %s: %w", path, err)
	}
	return g, nil
}

// ParseMap builds a grid from YAML, resolving floor/block/item names.
func ParseMap(data []byte, cat *content.Catalog) (*Grid, error) {
	var f mapFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("map size %dx%d", f.Width, f.Height)
	}
	def := cat.Floor(f.DefaultFloor)
	if def == nil {
		return nil, fmt.Errorf("unknown default floor %q", f.DefaultFloor)
	}
	g := NewGrid(f.Width, f.Height, def)
	for _, r := range f.Floors {
		fl := cat.Floor(r.Floor)
		if fl == nil {
			return nil, fmt.Errorf("unknown floor %q", r.Floor)
		}
		w, h := max(r.W, 1), max(r.H, 1)
		for y := r.Y; y < r.Y+h; y++ {
			for x := r.X; x < r.X+w; x++ {
				g.SetFloor(x, y, fl)
			}
		}
	}
	for _, b := range f.Blocks {
		bl := cat.Block(b.Block)
		if bl == nil {
			return nil, fmt.Errorf("unknown block %q", b.Block)
		}
		if g.Tile(b.X, b.Y) == nil {
			return nil, fmt.Errorf("block %s at %d,%d is outside the map", b.Block, b.X, b.Y)
		}
		build := g.SetBlock(b.X, b.Y, bl, b.Team)
		for name, n := range b.Items {
			it := cat.Item(name)
			if it == nil {
				return nil, fmt.Errorf("unknown item %q", name)
			}
			if build != nil {
				build.AddItem(it, n)
			}
		}
	}
	for _, s := range f.Spawns {
		g.AddSpawn(s.X, s.Y)
	}
	for _, u := range f.Units {
		if cat.Unit(u.Kind) == nil {
			return nil, fmt.Errorf("unknown unit kind %q", u.Kind)
		}
		if g.Tile(u.X, u.Y) == nil {
			return nil, fmt.Errorf("unit %s at %d,%d is outside the map", u.Kind, u.X, u.Y)
		}
	}
	for _, w := range f.Waves {
		if cat.Unit(w.Kind) == nil {
			return nil, fmt.Errorf("unknown wave kind %q", w.Kind)
		}
		if w.Every <= 0 || w.Count <= 0 {
			return nil, fmt.Errorf("wave %s needs positive count and every", w.Kind)
		}
	}
	g.placements = f.Units
	g.waves = f.Waves
	return g, nil
}
