package unit

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/core/ecs"
	"github.com/l1jgo/skirmish/internal/core/event"
	"github.com/l1jgo/skirmish/internal/rules"
	"github.com/l1jgo/skirmish/internal/team"
	"github.com/l1jgo/skirmish/internal/world"
)

// Indexer answers spatial questions about the world and the units in it.
type Indexer interface {
	TileAt(x, y float64) *world.Tile
	Spawns() []world.Point
	// Bounds is the world size in world units.
	Bounds() (w, h float64)
	Unit(id ecs.EntityID) *Unit
	// ClosestTarget returns the nearest live hostile unit within r.
	ClosestTarget(t team.ID, x, y, r float64) *Unit
	// ClosestDamagedAlly returns the nearest live ally below max health within r.
	ClosestDamagedAlly(t team.ID, x, y, r float64) *Unit
	// ClosestBuilding returns the nearest building within r that satisfies
	// pred.
	ClosestBuilding(x, y, r float64, pred func(*world.Building) bool) *world.Building
	// EachWithin visits live units within r of (x, y) in id order.
	EachWithin(x, y, r float64, fn func(*Unit))
}

// Registrar is told when a unit leaves the simulation.
type Registrar interface {
	Unregister(u *Unit)
}

// Effects receives purely cosmetic output. Rendering and audio live behind it.
type Effects interface {
	Effect(name string, x, y, rotation, data float64)
	Shake(intensity, duration, x, y float64)
	Scorch(x, y float64, size int)
	Sound(name string, x, y, volume float64)
	Decal(region string, x, y, rotation float64)
}

// Explosion parameterises a dynamic explosion.
type Explosion struct {
	X, Y          float64
	Flammability  float64
	Explosiveness float64
	Power         float64
	Radius        float64
	Damage        bool
	Fire          bool
	Team          team.ID
	Effect        string
}

// Combat applies damaging side effects to the world.
type Combat interface {
	DynamicExplosion(e Explosion)
	AreaDamage(t team.ID, x, y, radius, damage float64, air, ground bool)
	CreateBullet(owner *Unit, b *content.Bullet, x, y, angle float64)
}

// Hooks runs a kind's scripted per-tick hook.
type Hooks interface {
	RunUnitHook(ctx *Context, name string, u *Unit)
}

// Context is the simulation session threaded through the update loop and the
// death pipeline. One is built per session; nothing in this package reaches
// for global state.
type Context struct {
	Rules       *rules.Rules
	Content     *content.Catalog
	Teams       *team.Registry
	World       Indexer
	Units       Registrar
	Calls       *call.Queue
	Bus         *event.Bus
	Effects     Effects
	Combat      Combat
	Hooks       Hooks
	Controllers *ControllerFactory
	Rand        *rand.Rand
	Log         *zap.Logger

	// Delta is the elapsed time of this tick in time units (1 = 1/60 s).
	Delta float64
	// Authority is true only on the host that owns the world.
	Authority bool
	// Headless skips decals and other purely visual work.
	Headless bool
}

// Issue enqueues a remote invocation. Replicas never issue; the call is
// dropped and false returned.
func (c *Context) Issue(cl call.Call) bool {
	if !c.Authority || c.Calls == nil {
		return false
	}
	c.Calls.Issue(cl)
	return true
}

// Chance rolls a per-tick probability scaled by Delta.
func (c *Context) Chance(p float64) bool {
	return c.Rand.Float64() < p*c.Delta
}

// Range returns a uniform value in [-r, r].
func (c *Context) Range(r float64) float64 {
	return (c.Rand.Float64()*2 - 1) * r
}

// NopEffects discards every effect.
type NopEffects struct{}

func (NopEffects) Effect(string, float64, float64, float64, float64) {}
func (NopEffects) Shake(float64, float64, float64, float64)          {}
func (NopEffects) Scorch(float64, float64, int)                      {}
func (NopEffects) Sound(string, float64, float64, float64)           {}
func (NopEffects) Decal(string, float64, float64, float64)           {}
