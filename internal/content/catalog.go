package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Items    []*Item         `yaml:"items"`
	Statuses []*StatusEffect `yaml:"statuses"`
	Bullets  []*Bullet       `yaml:"bullets"`
	Floors   []*Floor        `yaml:"floors"`
	Blocks   []*Block        `yaml:"blocks"`
	Units    []*UnitType     `yaml:"units"`
}

// Catalog holds every content definition indexed by name and by numeric id.
// Ids are assigned in declaration order per content type, so a catalog file
// that only appends entries keeps persisted ids stable.
type Catalog struct {
	items    []*Item
	statuses []*StatusEffect
	floors   []*Floor
	blocks   []*Block
	units    []*UnitType

	itemsByName    map[string]*Item
	statusesByName map[string]*StatusEffect
	bulletsByName  map[string]*Bullet
	floorsByName   map[string]*Floor
	blocksByName   map[string]*Block
	unitsByName    map[string]*UnitType
}

// Load reads a content catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse content %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog, fills defaults and resolves cross references.
// A dangling reference is an error: content must be self-consistent.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	c := &Catalog{
		items:          f.Items,
		statuses:       f.Statuses,
		floors:         f.Floors,
		blocks:         f.Blocks,
		units:          f.Units,
		itemsByName:    make(map[string]*Item, len(f.Items)),
		statusesByName: make(map[string]*StatusEffect, len(f.Statuses)),
		bulletsByName:  make(map[string]*Bullet, len(f.Bullets)),
		floorsByName:   make(map[string]*Floor, len(f.Floors)),
		blocksByName:   make(map[string]*Block, len(f.Blocks)),
		unitsByName:    make(map[string]*UnitType, len(f.Units)),
	}
	for i, it := range f.Items {
		if err := unique(c.itemsByName, it.Name, "item"); err != nil {
			return nil, err
		}
		it.ID = int16(i)
		c.itemsByName[it.Name] = it
	}
	for i, s := range f.Statuses {
		if err := unique(c.statusesByName, s.Name, "status"); err != nil {
			return nil, err
		}
		s.ID = int16(i)
		s.applyDefaults()
		c.statusesByName[s.Name] = s
	}
	for _, b := range f.Bullets {
		if err := unique(c.bulletsByName, b.Name, "bullet"); err != nil {
			return nil, err
		}
		c.bulletsByName[b.Name] = b
	}
	for i, fl := range f.Floors {
		if err := unique(c.floorsByName, fl.Name, "floor"); err != nil {
			return nil, err
		}
		fl.ID = int16(i)
		fl.applyDefaults()
		c.floorsByName[fl.Name] = fl
	}
	for i, b := range f.Blocks {
		if err := unique(c.blocksByName, b.Name, "block"); err != nil {
			return nil, err
		}
		b.ID = int16(i)
		c.blocksByName[b.Name] = b
	}
	for i, u := range f.Units {
		if err := unique(c.unitsByName, u.Name, "unit"); err != nil {
			return nil, err
		}
		u.ID = int16(i)
		c.unitsByName[u.Name] = u
	}
	for _, u := range f.Units {
		if err := c.resolveUnit(u); err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.Name, err)
		}
	}
	return c, nil
}

func unique[T any](m map[string]T, name, what string) error {
	if name == "" {
		return fmt.Errorf("%s without a name", what)
	}
	if _, dup := m[name]; dup {
		return fmt.Errorf("duplicate %s %q", what, name)
	}
	return nil
}

func (c *Catalog) resolveUnit(u *UnitType) error {
	var err error
	if u.Capabilities, err = ParseCapabilities(u.CapabilityNames); err != nil {
		return err
	}
	enabled := u.EnvEnabledNames
	if len(enabled) == 0 {
		enabled = []string{"terrestrial"}
	}
	if u.EnvEnabled, err = ParseEnv(enabled); err != nil {
		return err
	}
	if u.EnvRequired, err = ParseEnv(u.EnvRequiredNames); err != nil {
		return err
	}
	if u.EnvDisabled, err = ParseEnv(u.EnvDisabledNames); err != nil {
		return err
	}
	for _, w := range u.Weapons {
		b, ok := c.bulletsByName[w.BulletName]
		if !ok {
			return fmt.Errorf("weapon %s: unknown bullet %q", w.Name, w.BulletName)
		}
		w.Bullet = b
	}
	for i := range u.Abilities {
		a := &u.Abilities[i]
		switch a.Kind {
		case AbilityRegen, AbilityShieldRegen:
		case AbilityStatusField:
			s, ok := c.statusesByName[a.StatusName]
			if !ok {
				return fmt.Errorf("ability %s: unknown status %q", a.Kind, a.StatusName)
			}
			a.Status = s
		case AbilitySpawnDeath:
			if _, ok := c.unitsByName[a.SpawnKind]; !ok {
				return fmt.Errorf("ability %s: unknown unit %q", a.Kind, a.SpawnKind)
			}
		default:
			return fmt.Errorf("unknown ability kind %q", a.Kind)
		}
	}
	switch u.Ammo.Kind {
	case "", AmmoNone:
	case AmmoItem:
		it, ok := c.itemsByName[u.Ammo.ItemName]
		if !ok {
			return fmt.Errorf("ammo: unknown item %q", u.Ammo.ItemName)
		}
		u.Ammo.Item = it
	default:
		return fmt.Errorf("unknown ammo kind %q", u.Ammo.Kind)
	}
	u.Immunities = make(map[*StatusEffect]bool, len(u.ImmunityNames))
	for _, n := range u.ImmunityNames {
		s, ok := c.statusesByName[n]
		if !ok {
			return fmt.Errorf("unknown immunity %q", n)
		}
		u.Immunities[s] = true
	}
	u.applyDefaults()
	return nil
}

func (c *Catalog) Unit(name string) *UnitType { return c.unitsByName[name] }

// UnitByID returns nil when id is outside the catalog.
func (c *Catalog) UnitByID(id int16) *UnitType {
	if id < 0 || int(id) >= len(c.units) {
		return nil
	}
	return c.units[id]
}

func (c *Catalog) Units() []*UnitType { return c.units }

func (c *Catalog) Item(name string) *Item { return c.itemsByName[name] }

func (c *Catalog) ItemByID(id int16) *Item {
	if id < 0 || int(id) >= len(c.items) {
		return nil
	}
	return c.items[id]
}

func (c *Catalog) Status(name string) *StatusEffect { return c.statusesByName[name] }

func (c *Catalog) StatusByID(id int16) *StatusEffect {
	if id < 0 || int(id) >= len(c.statuses) {
		return nil
	}
	return c.statuses[id]
}

func (c *Catalog) Bullet(name string) *Bullet { return c.bulletsByName[name] }

func (c *Catalog) Floor(name string) *Floor { return c.floorsByName[name] }

func (c *Catalog) Block(name string) *Block { return c.blocksByName[name] }

// Count returns the number of loaded unit kinds.
func (c *Catalog) Count() int {
	return len(c.units)
}
