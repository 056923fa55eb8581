package unit

import (
	"fmt"
	"sync"

	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/net/packet"
	"github.com/l1jgo/skirmish/internal/team"
	"github.com/l1jgo/skirmish/internal/world"
)

// The capability contracts a unit exposes. A kind opts into them through
// content.Capability; *Unit satisfies all of them and callers check Has
// before relying on an optional one.

type Healthc interface {
	Health() float64
	MaxHealth() float64
	Heal(amount float64)
	Damage(ctx *Context, amount float64)
	Kill(ctx *Context)
	IsDead() bool
}

type Physicsc interface {
	Position() (x, y float64)
	Velocity() (vx, vy float64)
	Impulse(dx, dy float64)
	DragCoefficient() float64
}

type Teamc interface {
	TeamID() team.ID
	IsAlly(other Teamc) bool
}

type Itemsc interface {
	Stack() Stack
	ItemCapacity() int
	AcceptsItem(item *content.Item) bool
	AddItem(item *content.Item, amount int) int
}

type Rotc interface {
	Facing() float64
	LookAt(ctx *Context, angle float64)
}

type Weaponsc interface {
	WeaponMounts() []*WeaponMount
	Aim(x, y float64)
	ControlWeapons(rotate, shoot bool)
	IsShooting() bool
}

type Boundedc interface {
	Bounds() float64
}

type Shieldc interface {
	ShieldAmount() float64
}

type Syncc interface {
	WriteSync(w *packet.Writer)
	ReadSync(ctx *Context, r *packet.Reader)
}

type Senseable interface {
	Sense(ctx *Context, s Sensor) float64
	SenseObject(s Sensor) any
}

type Minerc interface {
	Mining() bool
	MiningTile() *world.Tile
}

type Builderc interface {
	ActivelyBuilding() bool
}

type Commanderc interface {
	Command(ctx *Context, members []*Unit)
	ClearCommand(ctx *Context)
	IsCommanding() bool
}

type Payloadc interface {
	PayloadList() []Payload
}

var (
	_ Healthc    = (*Unit)(nil)
	_ Physicsc   = (*Unit)(nil)
	_ Teamc      = (*Unit)(nil)
	_ Itemsc     = (*Unit)(nil)
	_ Rotc       = (*Unit)(nil)
	_ Weaponsc   = (*Unit)(nil)
	_ Boundedc   = (*Unit)(nil)
	_ Shieldc    = (*Unit)(nil)
	_ Syncc      = (*Unit)(nil)
	_ Senseable  = (*Unit)(nil)
	_ Minerc     = (*Unit)(nil)
	_ Builderc   = (*Unit)(nil)
	_ Commanderc = (*Unit)(nil)
	_ Payloadc   = (*Unit)(nil)
)

// Path cost classes.
const (
	PathGround = iota
	PathLegs
	PathNaval
	PathFlying
)

// Behaviors is a unit's dispatch table for the behaviors a kind may replace.
// Each entry is resolved independently: an override replaces the default
// outright, and among several overrides the last one listed wins.
type Behaviors struct {
	CanDrown  func(u *Unit) bool
	CanShoot  func(u *Unit) bool
	CanPassOn func(u *Unit, t *world.Tile) bool
	Bounds    func(u *Unit) float64
	PathType  func(u *Unit) int
	Landed    func(ctx *Context, u *Unit)
}

// DefaultBehaviors returns the central implementations.
func DefaultBehaviors() Behaviors {
	return Behaviors{
		CanDrown: func(u *Unit) bool {
			return u.IsGrounded() && !u.Hovering && u.Type.Drowns()
		},
		CanShoot: func(u *Unit) bool {
			// cannot shoot while boosting
			return !u.Disarmed && !(u.Type.CanBoost && u.IsFlying())
		},
		CanPassOn: func(u *Unit, t *world.Tile) bool {
			return u.IsFlying() || !t.Solid()
		},
		Bounds: func(u *Unit) float64 {
			return u.HitSize * 2
		},
		PathType: func(*Unit) int { return PathGround },
		Landed: func(ctx *Context, u *Unit) {
			if u.Type.LandShake > 0 {
				ctx.Effects.Shake(u.Type.LandShake, u.Type.LandShake, u.X, u.Y)
			}
		},
	}
}

// merge copies every non-nil entry of o over b.
func (b *Behaviors) merge(o Behaviors) {
	if o.CanDrown != nil {
		b.CanDrown = o.CanDrown
	}
	if o.CanShoot != nil {
		b.CanShoot = o.CanShoot
	}
	if o.CanPassOn != nil {
		b.CanPassOn = o.CanPassOn
	}
	if o.Bounds != nil {
		b.Bounds = o.Bounds
	}
	if o.PathType != nil {
		b.PathType = o.PathType
	}
	if o.Landed != nil {
		b.Landed = o.Landed
	}
}

var (
	presetsMu sync.RWMutex
	presets   = map[string]Behaviors{
		"flying": {
			CanDrown:  func(*Unit) bool { return false },
			CanPassOn: func(*Unit, *world.Tile) bool { return true },
			PathType:  func(*Unit) int { return PathFlying },
		},
		"naval": {
			CanDrown: func(*Unit) bool { return false },
			CanPassOn: func(u *Unit, t *world.Tile) bool {
				return u.IsFlying() || (t.Floor != nil && t.Floor.IsDeep && !t.Solid())
			},
			PathType: func(*Unit) int { return PathNaval },
		},
		"legged": {
			CanDrown: func(*Unit) bool { return false },
			CanPassOn: func(_ *Unit, t *world.Tile) bool {
				return t.Floor == nil || !t.Floor.Solid
			},
			PathType: func(*Unit) int { return PathLegs },
		},
		"hover": {
			CanDrown: func(*Unit) bool { return false },
		},
	}
)

// RegisterPreset adds or replaces a named override set that kinds can list
// under "overrides".
func RegisterPreset(name string, b Behaviors) {
	presetsMu.Lock()
	defer presetsMu.Unlock()
	presets[name] = b
}

// ResolveBehaviors builds the dispatch table for a kind.
func ResolveBehaviors(t *content.UnitType) (*Behaviors, error) {
	b := DefaultBehaviors()
	presetsMu.RLock()
	defer presetsMu.RUnlock()
	for _, name := range t.Overrides {
		o, ok := presets[name]
		if !ok {
			return nil, fmt.Errorf("unit %s: unknown override %q", t.Name, name)
		}
		b.merge(o)
	}
	return &b, nil
}

// ValidateOverrides checks every kind in the catalog resolves.
func ValidateOverrides(cat *content.Catalog) error {
	for _, t := range cat.Units() {
		if _, err := ResolveBehaviors(t); err != nil {
			return err
		}
	}
	return nil
}
