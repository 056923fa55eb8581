// Package unit implements the simulated unit: its capability set, the
// per-tick update loop, the death pipeline and the controllers that steer it.
package unit

import (
	"math"

	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/core/ecs"
	"github.com/l1jgo/skirmish/internal/team"
	"github.com/l1jgo/skirmish/internal/world"
)

const (
	// resupplyInterval is the minimum number of time units between ammo
	// resupply requests.
	resupplyInterval = 10
	// warpDst is how far outside the map a unit may drift before being
	// pulled back.
	warpDst = 30
	// minArmorDamage is the fraction of a hit that always gets through armor.
	minArmorDamage = 0.1
	// buildingRange is the reach of a builder.
	buildingRange = 220
	maxWrecks     = 3
)

// Stack is the single item stack a unit carries.
type Stack struct {
	Item   *content.Item
	Amount int
}

// Empty reports whether the stack holds nothing.
func (s Stack) Empty() bool { return s.Item == nil || s.Amount <= 0 }

// BuildPlan is a pending construction request of a builder unit.
type BuildPlan struct {
	X, Y  int
	Block *content.Block
}

// Payload is something a payload carrier holds.
type Payload interface {
	Content() any
}

// UnitPayload is a carried unit.
type UnitPayload struct{ Unit *Unit }

func (p UnitPayload) Content() any { return p.Unit.Type }

// BlockPayload is a carried block.
type BlockPayload struct{ Block *content.Block }

func (p BlockPayload) Content() any { return p.Block }

// Unit is a single simulated actor. All fields are touched from the game
// loop goroutine only.
type Unit struct {
	ID   ecs.EntityID
	Team team.ID
	Type *content.UnitType

	X, Y             float64
	VelX, VelY       float64
	Rotation         float64
	Elevation        float64
	Drag             float64
	DragMultiplier   float64
	SpeedMultiplier  float64
	DamageMultiplier float64
	HealthMultiplier float64
	ReloadMultiplier float64
	Armor            float64
	HitSize          float64
	Shield           float64
	Ammo             float64
	Flag             float64

	Mounts    []*WeaponMount
	Abilities []Ability
	MineTile  *world.Tile
	Plan      *BuildPlan
	Payloads  []Payload

	SpawnedByCore bool
	Hovering      bool
	Disarmed      bool
	// Boosting is the controller's request to lift off; only kinds that can
	// boost act on it.
	Boosting bool

	health    float64
	maxHealth float64
	dead      bool
	stack     Stack
	statuses  []StatusEntry

	controller        Controller
	behaviors         *Behaviors
	controlling       []*Unit
	minFormationSpeed float64

	added     bool
	counted   bool
	wasPlayer bool
	wasHealed bool
	wasFlying bool

	// one-shot guards so a removal or death call is issued once per unit
	deathIssued   bool
	destroyIssued bool
	removeIssued  bool
	destroying    bool

	resupplyTime float64
	healTime     float64
	hitTime      float64
}

// New creates an unattached unit of kind t for team tm. The unit is not
// counted until Add.
func New(ctx *Context, id ecs.EntityID, t *content.UnitType, tm team.ID) *Unit {
	u := &Unit{ID: id, Team: tm}
	u.SetType(ctx, t)
	u.health = u.maxHealth
	u.Ammo = t.AmmoCapacity
	u.resupplyTime = ctx.Rand.Float64() * resupplyInterval
	return u
}

// SetType switches the unit to kind t, resetting kind-derived state.
func (u *Unit) SetType(ctx *Context, t *content.UnitType) {
	u.Type = t
	u.maxHealth = t.Health
	u.Drag = t.Drag
	u.Armor = t.Armor
	u.HitSize = t.HitSize
	u.Hovering = t.Hovering
	u.DragMultiplier = 1
	u.SpeedMultiplier = 1
	u.DamageMultiplier = 1
	u.HealthMultiplier = 1
	u.ReloadMultiplier = 1
	if t.Flying {
		u.Elevation = 1
	}
	b, err := ResolveBehaviors(t)
	if err != nil {
		if ctx.Log != nil {
			ctx.Log.Warn(err.Error())
		}
		def := DefaultBehaviors()
		b = &def
	}
	u.behaviors = b
	u.setupWeapons()
	u.setupAbilities()
	if u.controller == nil || !u.controller.IsValid() {
		u.SetController(ctx, ctx.Controllers.Create(t))
	}
}

// Health returns the current health. Negative while a dead unit falls.
func (u *Unit) Health() float64 { return u.health }

// MaxHealth returns the maximum health.
func (u *Unit) MaxHealth() float64 { return u.maxHealth }

// SetHealth sets health directly, bypassing armor and shields.
func (u *Unit) SetHealth(v float64) { u.health = v }

func (u *Unit) IsDead() bool { return u.dead }

// IsAdded reports whether the unit is registered with a session.
func (u *Unit) IsAdded() bool { return u.added }

// IsValid reports whether the unit is alive and in the simulation.
func (u *Unit) IsValid() bool { return !u.dead && u.added }

func (u *Unit) Position() (float64, float64) { return u.X, u.Y }
func (u *Unit) Velocity() (float64, float64) { return u.VelX, u.VelY }

// Impulse adds to the velocity.
func (u *Unit) Impulse(dx, dy float64) {
	u.VelX += dx
	u.VelY += dy
}

func (u *Unit) DragCoefficient() float64 { return u.Drag }

func (u *Unit) TeamID() team.ID { return u.Team }

func (u *Unit) IsAlly(other Teamc) bool { return team.IsAlly(u.Team, other.TeamID()) }

func (u *Unit) Facing() float64 { return u.Rotation }

func (u *Unit) ShieldAmount() float64 { return u.Shield }

func (u *Unit) Bounds() float64 { return u.behaviors.Bounds(u) }

func (u *Unit) PathType() int { return u.behaviors.PathType(u) }

// CanPass reports whether the unit may occupy tile (tx, ty).
func (u *Unit) CanPass(ctx *Context, x, y float64) bool {
	t := ctx.World.TileAt(x, y)
	return t != nil && u.behaviors.CanPassOn(u, t)
}

func (u *Unit) CanDrown() bool { return u.behaviors.CanDrown(u) }

func (u *Unit) CanShoot() bool { return u.behaviors.CanShoot(u) }

// IsGrounded reports whether the unit is on the ground.
func (u *Unit) IsGrounded() bool { return u.Elevation < 0.001 }

// IsFlying reports whether the unit is high enough to pass over buildings.
func (u *Unit) IsFlying() bool { return u.Elevation >= 0.09 }

// CanLand reports whether a boosting unit could set down where it is.
func (u *Unit) CanLand(ctx *Context) bool {
	t := ctx.World.TileAt(u.X, u.Y)
	return t != nil && !t.Solid() && !(t.Floor != nil && t.Floor.IsDeep && u.Type.Drowns() && !u.Hovering)
}

// Range is the kind's maximum weapon range.
func (u *Unit) Range() float64 { return u.Type.MaxRange }

// PhysicSize is the collider diameter.
func (u *Unit) PhysicSize() float64 { return u.HitSize * 0.7 }

// ClipSize is the visible extent used for culling.
func (u *Unit) ClipSize() float64 {
	if u.IsBuilding() {
		return math.Max(u.HitSize*2, buildingRange*2)
	}
	return u.HitSize * 2
}

// InRange reports whether (x, y) is within weapon range.
func (u *Unit) InRange(x, y float64) bool {
	return dst(u.X, u.Y, x, y) <= u.Range()
}

// TileOn returns the tile under the unit, or nil off the map.
func (u *Unit) TileOn(ctx *Context) *world.Tile { return ctx.World.TileAt(u.X, u.Y) }

// FloorOn returns the floor under the unit, or nil off the map.
func (u *Unit) FloorOn(ctx *Context) *content.Floor {
	if t := u.TileOn(ctx); t != nil {
		return t.Floor
	}
	return nil
}

// Building returns the building under a grounded unit.
func (u *Unit) Building(ctx *Context) *world.Building {
	if !u.IsGrounded() {
		return nil
	}
	if t := u.TileOn(ctx); t != nil {
		return t.Build
	}
	return nil
}

// Stack returns the carried item stack.
func (u *Unit) Stack() Stack { return u.stack }

func (u *Unit) ItemCapacity() int { return u.Type.ItemCapacity }

// HasItem reports whether the unit carries anything.
func (u *Unit) HasItem() bool { return !u.stack.Empty() }

// AcceptsItem reports whether at least one of item fits.
func (u *Unit) AcceptsItem(item *content.Item) bool {
	if item == nil {
		return false
	}
	if u.stack.Empty() {
		return u.ItemCapacity() > 0
	}
	return u.stack.Item == item && u.stack.Amount < u.ItemCapacity()
}

// AddItem adds up to amount of item and returns how many were taken.
func (u *Unit) AddItem(item *content.Item, amount int) int {
	if !u.AcceptsItem(item) || amount <= 0 {
		return 0
	}
	if u.stack.Empty() {
		u.stack = Stack{Item: item}
	}
	n := min(amount, u.ItemCapacity()-u.stack.Amount)
	u.stack.Amount += n
	return n
}

// ClearItem drops the carried stack.
func (u *Unit) ClearItem() { u.stack = Stack{} }

func (u *Unit) Mining() bool { return u.MineTile != nil && !u.IsBuilding() }

func (u *Unit) MiningTile() *world.Tile { return u.MineTile }

// IsBuilding reports whether the unit holds a build plan.
func (u *Unit) IsBuilding() bool { return u.Plan != nil }

// ActivelyBuilding reports whether the held plan is in reach.
func (u *Unit) ActivelyBuilding() bool {
	if u.Plan == nil {
		return false
	}
	px, py := float64(u.Plan.X*world.TileSize), float64(u.Plan.Y*world.TileSize)
	return dst(u.X, u.Y, px, py) <= buildingRange
}

func (u *Unit) PayloadList() []Payload { return u.Payloads }
