package unit

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/core/ecs"
	"github.com/l1jgo/skirmish/internal/core/event"
	"github.com/l1jgo/skirmish/internal/rules"
	"github.com/l1jgo/skirmish/internal/team"
	"github.com/l1jgo/skirmish/internal/world"
)

const testContent = `
items:
  - name: copper
  - name: blast
    explosiveness: 1.0
    flammability: 0.4
    charge: 0.2
statuses:
  - name: burning
    damage: 0.1
  - name: slow
    speed_multiplier: 0.5
floors:
  - name: stone
  - name: deep-water
    deep: true
    speed_multiplier: 0.2
blocks:
  - name: core
    core: true
    health: 1000
    unit_cap_modifier: 8
  - name: wall
    solid: true
    health: 100
bullets:
  - name: basic
    damage: 9
    speed: 2.5
    lifetime: 60
  - name: crawler-blast
    damage: 0
    splash_damage: 70
    splash_radius: 24
    speed: 1
    lifetime: 1
    kill_shooter: true
units:
  - name: dagger
    speed: 0.5
    health: 100
    hit_size: 8
    item_capacity: 60
    ammo: {kind: item, item: copper}
    weapons:
      - name: gun
        reload: 13
        bullet: basic
  - name: flare
    flying: true
    speed: 2.7
    health: 70
    hit_size: 9
    overrides: [flying]
  - name: crawler
    speed: 1
    health: 190
    hit_size: 8
    wreck_regions: [crawler-wreck0, crawler-wreck1, crawler-wreck2, crawler-wreck3, crawler-wreck4]
    weapons:
      - name: crawler-weapon
        reload: 24
        shoot_on_death: true
        bullet: crawler-blast
`

type fakeWorld struct {
	grid  *world.Grid
	units map[ecs.EntityID]*Unit
}

func (w *fakeWorld) TileAt(x, y float64) *world.Tile { return w.grid.TileAt(x, y) }
func (w *fakeWorld) Spawns() []world.Point           { return w.grid.Spawns() }
func (w *fakeWorld) Unit(id ecs.EntityID) *Unit      { return w.units[id] }

func (w *fakeWorld) Bounds() (float64, float64) {
	return float64(w.grid.Width() * world.TileSize), float64(w.grid.Height() * world.TileSize)
}

func (w *fakeWorld) sorted() []*Unit {
	out := make([]*Unit, 0, len(w.units))
	for _, u := range w.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *fakeWorld) ClosestTarget(t team.ID, x, y, r float64) *Unit {
	var best *Unit
	bd := r
	for _, u := range w.sorted() {
		if u.Team == t || !u.IsValid() {
			continue
		}
		if d := dst(x, y, u.X, u.Y); d <= bd {
			best, bd = u, d
		}
	}
	return best
}

func (w *fakeWorld) ClosestDamagedAlly(t team.ID, x, y, r float64) *Unit {
	var best *Unit
	bd := r
	for _, u := range w.sorted() {
		if u.Team != t || !u.IsValid() || !u.Damaged() {
			continue
		}
		if d := dst(x, y, u.X, u.Y); d <= bd {
			best, bd = u, d
		}
	}
	return best
}

func (w *fakeWorld) ClosestBuilding(x, y, r float64, pred func(*world.Building) bool) *world.Building {
	var best *world.Building
	bd := r
	for _, b := range w.grid.Buildings() {
		if !pred(b) {
			continue
		}
		if d := dst(x, y, b.X(), b.Y()); d <= bd {
			best, bd = b, d
		}
	}
	return best
}

func (w *fakeWorld) EachWithin(x, y, r float64, fn func(*Unit)) {
	for _, u := range w.sorted() {
		if u.IsValid() && dst(x, y, u.X, u.Y) <= r {
			fn(u)
		}
	}
}

func (w *fakeWorld) Unregister(u *Unit) { delete(w.units, u.ID) }

type fakeCombat struct {
	explosions []Explosion
	areas      int
	bullets    int
}

func (c *fakeCombat) DynamicExplosion(e Explosion) { c.explosions = append(c.explosions, e) }
func (c *fakeCombat) AreaDamage(team.ID, float64, float64, float64, float64, bool, bool) {
	c.areas++
}
func (c *fakeCombat) CreateBullet(*Unit, *content.Bullet, float64, float64, float64) {
	c.bullets++
}

type countingEffects struct {
	NopEffects
	effects int
	sounds  int
	decals  []string
}

func (e *countingEffects) Effect(string, float64, float64, float64, float64) { e.effects++ }
func (e *countingEffects) Sound(string, float64, float64, float64)           { e.sounds++ }
func (e *countingEffects) Decal(region string, _, _, _ float64)              { e.decals = append(e.decals, region) }

type harness struct {
	ctx     *Context
	cat     *content.Catalog
	world   *fakeWorld
	combat  *fakeCombat
	effects *countingEffects
	pool    *ecs.EntityPool
}

func newHarness(t *testing.T, authority bool) *harness {
	t.Helper()
	cat, err := content.Parse([]byte(testContent))
	require.NoError(t, err)
	r := rules.Default()
	fw := &fakeWorld{
		grid:  world.NewGrid(20, 20, cat.Floor("stone")),
		units: make(map[ecs.EntityID]*Unit),
	}
	h := &harness{
		cat:     cat,
		world:   fw,
		combat:  &fakeCombat{},
		effects: &countingEffects{},
		pool:    ecs.NewEntityPool(),
	}
	h.ctx = &Context{
		Rules:       r,
		Content:     cat,
		Teams:       team.NewRegistry(r),
		World:       fw,
		Units:       fw,
		Calls:       call.NewQueue(),
		Bus:         event.NewBus(),
		Effects:     h.effects,
		Combat:      h.combat,
		Controllers: NewControllerFactory(nil),
		Rand:        rand.New(rand.NewSource(1)),
		Log:         zap.NewNop(),
		Delta:       1,
		Authority:   authority,
		Headless:    true,
	}
	return h
}

// spawn creates and registers a unit of kind at (x, y).
func (h *harness) spawn(t *testing.T, kind string, tm team.ID, x, y float64) *Unit {
	t.Helper()
	k := h.cat.Unit(kind)
	require.NotNil(t, k, kind)
	u := New(h.ctx, h.pool.Create(), k, tm)
	u.X, u.Y = x, y
	h.world.units[u.ID] = u
	u.Add(h.ctx)
	return u
}

// dispatch delivers every event emitted so far.
func (h *harness) dispatch() {
	h.ctx.Bus.SwapBuffers()
	h.ctx.Bus.DispatchAll()
}

func ops(calls []call.Call) []call.Opcode {
	out := make([]call.Opcode, len(calls))
	for i, c := range calls {
		out[i] = c.Op()
	}
	return out
}

func isNaN(v float64) bool { return math.IsNaN(v) }
