package unit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/content"
	"github.com/l1jgo/skirmish/internal/core/event"
	"github.com/l1jgo/skirmish/internal/net/packet"
)

func TestGroundUnitDiesAndIsDestroyedOnce(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "dagger", 1, 40, 40)
	require.Equal(t, 1, h.ctx.Teams.CountType(1, u.Type))

	var destroyed int
	event.Subscribe(h.ctx.Bus, func(event.UnitDestroyed) { destroyed++ })

	u.SetHealth(10)
	u.Damage(h.ctx, 15)
	assert.InDelta(t, -5, u.Health(), 1e-9)
	assert.False(t, u.IsDead(), "death is applied through a call")

	calls := h.ctx.Calls.Drain()
	require.Equal(t, []call.Opcode{call.OpUnitDeath}, ops(calls))

	// a second hit must not request death again
	u.Damage(h.ctx, 5)
	assert.Zero(t, h.ctx.Calls.Len())

	u.Killed(h.ctx)
	assert.True(t, u.IsDead())
	assert.False(t, u.IsAdded())
	assert.Equal(t, 0, h.ctx.Teams.CountType(1, u.Type))

	u.Destroy(h.ctx)
	u.Remove(h.ctx)
	h.dispatch()
	assert.Equal(t, 1, destroyed)
	assert.Len(t, h.combat.explosions, 1)
	assert.Equal(t, 0, h.ctx.Teams.CountType(1, u.Type))
}

func TestFlyingUnitFallsBeforeDestroy(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "flare", 1, 80, 80)
	u.Killed(h.ctx)
	require.True(t, u.IsDead())
	require.True(t, u.IsAdded(), "flying units fall first")

	var destroys int
	for i := 0; i < 200 && destroys == 0; i++ {
		u.Update(h.ctx)
		for _, c := range h.ctx.Calls.Drain() {
			if c.Op() == call.OpUnitDestroy {
				destroys++
			}
		}
	}
	require.Equal(t, 1, destroys)
	assert.True(t, u.IsGrounded())

	// the request is not repeated while waiting to be applied
	u.Update(h.ctx)
	assert.Zero(t, h.ctx.Calls.Len())

	u.Destroy(h.ctx)
	assert.Equal(t, 1, h.combat.areas, "crash damage")
	assert.Equal(t, 0, h.ctx.Teams.CountType(1, u.Type))
}

func TestDeadUnitHealthNeverRises(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "flare", 1, 80, 80)
	u.SetHealth(-3)
	u.Killed(h.ctx)

	u.Heal(50)
	assert.Equal(t, -3.0, u.Health())

	w := packet.NewWriter()
	snapshot := *u
	snapshot.health = 70
	snapshot.WriteSync(w)
	u.ReadSync(h.ctx, packet.NewReader(w.Bytes()))
	assert.Equal(t, -3.0, u.Health())

	for i := 0; i < 10; i++ {
		u.Update(h.ctx)
		assert.LessOrEqual(t, u.Health(), -3.0)
	}
}

func TestHealthStaysBelowMax(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "dagger", 1, 40, 40)
	u.SetHealth(90)
	u.Heal(500)
	assert.Equal(t, u.MaxHealth(), u.Health())
	u.SetHealth(u.MaxHealth() * 3)
	u.Update(h.ctx)
	assert.LessOrEqual(t, u.Health(), u.MaxHealth())
}

func TestNotableDestruction(t *testing.T) {
	cases := []struct {
		name  string
		local bool
		want  int
	}{
		{"local player", true, 1},
		{"remote player", false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, true)
			u := h.spawn(t, "dagger", 1, 40, 40)
			u.SetController(h.ctx, NewPlayer("p", tc.local))
			require.Equal(t, 40, u.AddItem(h.cat.Item("blast"), 40))

			assert.InDelta(t, 63.2, u.Blast().Explosiveness, 1e-9)

			var triggers int
			event.Subscribe(h.ctx.Bus, func(ev event.Trigger) {
				if ev.Kind == event.TriggerSuicideBomb {
					triggers++
				}
			})
			u.Killed(h.ctx)
			u.Destroy(h.ctx)
			h.dispatch()
			assert.Equal(t, tc.want, triggers)
			require.Len(t, h.combat.explosions, 1)
			assert.InDelta(t, 63.2, h.combat.explosions[0].Explosiveness, 1e-9)
		})
	}
}

func TestCoreSpawnedDeathIsCosmetic(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "flare", 1, 80, 80)
	u.SpawnedByCore = true
	u.Killed(h.ctx)
	u.Destroy(h.ctx)
	assert.Empty(t, h.combat.explosions)
	assert.Zero(t, h.combat.areas)
	assert.Positive(t, h.effects.effects)
}

func TestBlastMonotonicInAmount(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "dagger", 1, 40, 40)
	blast := h.cat.Item("blast")
	prev := u.Blast()
	for n := 1; n <= u.ItemCapacity(); n++ {
		u.ClearItem()
		u.AddItem(blast, n)
		b := u.Blast()
		assert.GreaterOrEqual(t, b.Power, prev.Power)
		assert.GreaterOrEqual(t, b.Flammability, prev.Flammability)
		assert.GreaterOrEqual(t, b.Explosiveness, prev.Explosiveness)
		prev = b
	}
	assert.Equal(t, 2.0, DeathBlast{Explosiveness: 2}.Explosiveness)
}

func TestUnitCapRollsBackOverflow(t *testing.T) {
	h := newHarness(t, true)
	h.ctx.Rules.UnitCap = 5
	kind := h.cat.Unit("dagger")
	var units []*Unit
	for i := 0; i < 5; i++ {
		units = append(units, h.spawn(t, "dagger", 1, 40, 40))
	}
	require.Zero(t, h.ctx.Calls.Len())
	sixth := h.spawn(t, "dagger", 1, 40, 40)

	calls := h.ctx.Calls.Drain()
	require.Len(t, calls, 1)
	assert.Equal(t, call.UnitCapDeath{UnitID: sixth.ID}, calls[0])
	assert.Equal(t, 5, h.ctx.Teams.CountType(1, kind))

	sixth.CapDeath(h.ctx)
	assert.Equal(t, 5, h.ctx.Teams.CountType(1, kind))
	assert.False(t, sixth.IsAdded())

	units[0].Killed(h.ctx)
	assert.Equal(t, 4, h.ctx.Teams.CountType(1, kind))
}

func TestUnitCapExemptions(t *testing.T) {
	h := newHarness(t, true)
	h.ctx.Rules.UnitCap = 0
	h.spawn(t, "dagger", 2, 0, 0) // wave team
	assert.Zero(t, h.ctx.Calls.Len())

	h.ctx.Rules.Editor = true
	h.spawn(t, "dagger", 1, 0, 0)
	assert.Zero(t, h.ctx.Calls.Len())
	h.ctx.Rules.Editor = false

	k := h.cat.Unit("dagger")
	u := New(h.ctx, h.pool.Create(), k, 1)
	u.SpawnedByCore = true
	u.Add(h.ctx)
	assert.Zero(t, h.ctx.Calls.Len())
}

func TestUnsupportedEnvironmentDespawnsOnce(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "dagger", 1, 40, 40)
	h.ctx.Rules.Environment = content.EnvSpace

	u.Update(h.ctx)
	u.Update(h.ctx)
	assert.Equal(t, []call.Opcode{call.OpUnitCapDeath}, ops(h.ctx.Calls.Drain()))
	assert.Equal(t, 0, h.ctx.Teams.CountType(1, u.Type))

	u.CapDeath(h.ctx)
	assert.Equal(t, 0, h.ctx.Teams.CountType(1, u.Type))
}

func TestResupplyInterval(t *testing.T) {
	h := newHarness(t, true)
	h.ctx.Rules.UnitAmmo = true
	core := h.world.grid.SetBlock(5, 5, h.cat.Block("core"), 1)
	core.AddItem(h.cat.Item("copper"), 1000)
	u := h.spawn(t, "dagger", 1, 40, 40)
	u.Ammo = 0

	var at []int
	for tick := 0; tick < 200; tick++ {
		u.Update(h.ctx)
		for _, c := range h.ctx.Calls.Drain() {
			if c.Op() == call.OpTransferAmmo {
				at = append(at, tick)
			}
		}
	}
	require.Greater(t, len(at), 5)
	for i := 1; i < len(at); i++ {
		assert.GreaterOrEqual(t, at[i]-at[i-1], 10)
	}
}

func TestTransferAmmo(t *testing.T) {
	h := newHarness(t, true)
	copper := h.cat.Item("copper")
	core := h.world.grid.SetBlock(5, 5, h.cat.Block("core"), 1)
	core.AddItem(copper, 1)
	u := h.spawn(t, "dagger", 1, 40, 40)
	u.Ammo = 0

	u.ApplyTransferAmmo(core, copper, 1, 10)
	assert.Equal(t, 10.0, u.Ammo)
	u.ApplyTransferAmmo(core, copper, 1, 10)
	assert.Equal(t, 10.0, u.Ammo, "core is empty")
}

type countingController struct {
	aiBase
	updates int
}

func (c *countingController) Name() string            { return "counting" }
func (c *countingController) UpdateUnit(ctx *Context) { c.updates++ }

func TestReplicaNeverIssuesOrDecides(t *testing.T) {
	h := newHarness(t, false)
	h.ctx.Rules.UnitCap = 0
	h.ctx.Rules.UnitAmmo = true
	core := h.world.grid.SetBlock(5, 5, h.cat.Block("core"), 1)
	core.AddItem(h.cat.Item("copper"), 100)

	u := h.spawn(t, "dagger", 1, 40, 40)
	f := h.spawn(t, "flare", 1, 80, 80)
	ctrl := &countingController{}
	u.SetController(h.ctx, ctrl)
	u.SpawnedByCore = true
	h.ctx.Rules.Environment = content.EnvSpace

	u.Damage(h.ctx, 1000)
	f.SetHealth(0)
	for i := 0; i < 300; i++ {
		u.Update(h.ctx)
		f.Update(h.ctx)
	}
	assert.Zero(t, h.ctx.Calls.Len())
	assert.Zero(t, h.ctx.Calls.Issued())
	assert.Zero(t, ctrl.updates)
	assert.Equal(t, 1, h.ctx.Teams.CountType(1, u.Type), "replicas only count")
}

func TestInvalidControllerSelfHeals(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "dagger", 1, 40, 40)
	p := NewPlayer("p", false)
	u.SetController(h.ctx, p)
	assert.Equal(t, u, p.Unit())
	assert.True(t, u.IsPlayer())

	p.Disconnect()
	u.Update(h.ctx)
	require.NotNil(t, u.Controller())
	assert.IsType(t, &GroundAI{}, u.Controller())
	assert.Equal(t, u, u.Controller().Unit())
}

func TestFormationSpeedAndRelease(t *testing.T) {
	h := newHarness(t, true)
	leader := h.spawn(t, "flare", 1, 80, 80)
	slow := h.spawn(t, "dagger", 1, 60, 60)
	other := h.spawn(t, "dagger", 3, 60, 60)

	leader.Command(h.ctx, []*Unit{leader, slow, other})
	require.True(t, leader.IsCommanding())
	assert.Len(t, leader.Controlling(), 1)
	assert.InDelta(t, 0.5*0.98*leader.floorSpeedMultiplier(h.ctx), leader.Speed(h.ctx), 1e-9)
	assert.Equal(t, float64(CtrlCodeFormation), slow.Sense(h.ctx, SensorControlled))
	assert.Equal(t, 1.0, slow.Sense(h.ctx, SensorCommanded))
	assert.Equal(t, leader, slow.SenseObject(SensorController))

	leader.Killed(h.ctx)
	leader.Destroy(h.ctx)
	assert.IsType(t, &GroundAI{}, slow.Controller())
}

func TestStatusEffects(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "dagger", 1, 40, 40)
	slow := h.cat.Status("slow")
	burning := h.cat.Status("burning")

	base := u.Speed(h.ctx)
	u.ApplyStatus(slow, 5)
	u.ApplyStatus(slow, 2)
	u.ApplyStatus(burning, 3)
	u.Update(h.ctx)
	assert.InDelta(t, base*0.5, u.Speed(h.ctx), 1e-9)
	assert.Less(t, u.Health(), u.MaxHealth())
	for i := 0; i < 5; i++ {
		u.Update(h.ctx)
	}
	assert.False(t, u.HasStatus(slow))
	assert.InDelta(t, base, u.Speed(h.ctx), 1e-9)
}

func TestArmorAndShield(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "dagger", 1, 40, 40)
	u.Armor = 5
	u.Damage(h.ctx, 20)
	assert.InDelta(t, 85, u.Health(), 1e-9)
	u.Damage(h.ctx, 2)
	assert.InDelta(t, 84.8, u.Health(), 1e-9, "armor never blocks everything")

	u.Armor = 0
	u.Shield = 10
	u.Damage(h.ctx, 15)
	assert.Zero(t, u.Shield)
	assert.InDelta(t, 79.8, u.Health(), 1e-9)
}

func TestBehaviorOverrides(t *testing.T) {
	h := newHarness(t, true)
	flare := h.spawn(t, "flare", 1, 80, 80)
	dagger := h.spawn(t, "dagger", 1, 40, 40)
	assert.False(t, flare.CanDrown())
	assert.True(t, dagger.CanDrown())
	assert.Equal(t, PathFlying, flare.PathType())
	assert.Equal(t, 18.0, flare.Bounds())

	RegisterPreset("test-drowns", Behaviors{CanDrown: func(*Unit) bool { return true }})
	k := *h.cat.Unit("dagger")
	k.Overrides = []string{"naval", "test-drowns"}
	b, err := ResolveBehaviors(&k)
	require.NoError(t, err)
	assert.True(t, b.CanDrown(dagger), "last override wins")
	assert.Equal(t, PathNaval, b.PathType(dagger))

	k.Overrides = []string{"test-drowns", "naval"}
	b, err = ResolveBehaviors(&k)
	require.NoError(t, err)
	assert.False(t, b.CanDrown(dagger))

	k.Overrides = []string{"nope"}
	_, err = ResolveBehaviors(&k)
	assert.Error(t, err)
	assert.NoError(t, ValidateOverrides(h.cat))
}

func TestSensors(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "dagger", 1, 40, 48)
	u.AddItem(h.cat.Item("copper"), 7)

	assert.Equal(t, 7.0, u.Sense(h.ctx, SensorTotalItems))
	assert.Equal(t, 5.0, u.Sense(h.ctx, SensorX))
	assert.Equal(t, 6.0, u.Sense(h.ctx, SensorY))
	assert.Equal(t, 1.0, u.Sense(h.ctx, SensorTeam))
	assert.Equal(t, -1.0, u.Sense(h.ctx, SensorMineX))
	assert.Equal(t, 1.0, u.Sense(h.ctx, SensorSize))
	assert.Zero(t, u.Sense(h.ctx, SensorPayloadCount))
	assert.True(t, isNaN(u.Sense(h.ctx, Sensor(200))))
	assert.True(t, isNaN(u.Sense(h.ctx, SensorType)))

	u.Ammo = 3
	h.ctx.Rules.UnitAmmo = false
	assert.Equal(t, u.Type.AmmoCapacity, u.Sense(h.ctx, SensorAmmo))
	h.ctx.Rules.UnitAmmo = true
	assert.Equal(t, 3.0, u.Sense(h.ctx, SensorAmmo))

	assert.Zero(t, u.Sense(h.ctx, SensorControlled))
	u.SetController(h.ctx, NewPlayer("alice", false))
	assert.Equal(t, float64(CtrlCodePlayer), u.Sense(h.ctx, SensorControlled))
	assert.Equal(t, "alice", u.SenseObject(SensorName))
	assert.Equal(t, "alice", u.ControllerName())
	assert.Equal(t, u, u.SenseObject(SensorController))

	assert.Equal(t, u.Type, u.SenseObject(SensorType))
	assert.Equal(t, h.cat.Item("copper"), u.SenseObject(SensorFirstItem))
	assert.Nil(t, u.SenseObject(SensorPayloadType))
	assert.Equal(t, NoSensed, u.SenseObject(SensorHealth))
	assert.Equal(t, 7.0, u.SenseContent(h.cat.Item("copper")))
	assert.True(t, isNaN(u.SenseContent(h.cat.Item("blast"))))

	s, ok := ParseSensor("maxHealth")
	require.True(t, ok)
	assert.Equal(t, SensorMaxHealth, s)
	assert.Equal(t, "maxHealth", s.String())
}

func TestWriteReadRoundTrip(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "dagger", 1, 40, 48)
	u.AddItem(h.cat.Item("blast"), 12)
	u.Ammo = 33
	u.Shield = 4
	u.Flag = 9
	u.SetHealth(55)
	u.ApplyStatus(h.cat.Status("slow"), 100)
	u.Mounts[0].Reload = 6

	w := packet.NewWriter()
	u.Write(w)
	got, err := Read(h.ctx, packet.NewReader(w.Bytes()), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Type, got.Type)
	assert.Equal(t, u.Stack(), got.Stack())
	assert.Equal(t, 55.0, got.Health())
	assert.Equal(t, 33.0, got.Ammo)
	assert.Equal(t, 9.0, got.Flag)
	assert.Equal(t, 6.0, got.Mounts[0].Reload)
	assert.True(t, got.HasStatus(h.cat.Status("slow")))
	assert.IsType(t, &GroundAI{}, got.Controller())
	assert.False(t, got.IsAdded())
}

func TestReadDropsUnknownItem(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "dagger", 1, 40, 48)
	u.AddItem(h.cat.Item("blast"), 12)
	u.Ammo = 20
	w := packet.NewWriter()
	u.Write(w)

	// the same content set without the "blast" item
	trimmed := newHarness(t, true)
	cat, err := content.Parse([]byte(`
items:
  - name: copper
bullets:
  - name: basic
units:
  - name: dagger
    weapons:
      - name: gun
        reload: 13
        bullet: basic
`))
	require.NoError(t, err)
	trimmed.ctx.Content = cat

	got, err := Read(trimmed.ctx, packet.NewReader(w.Bytes()), u.ID)
	require.NoError(t, err)
	assert.True(t, got.Stack().Empty())
	assert.Equal(t, 20.0, got.Ammo)
}

func TestReadOlderVersion(t *testing.T) {
	h := newHarness(t, true)
	kind := h.cat.Unit("flare")
	w := packet.NewWriter()
	w.WriteC(1)
	w.WriteH(uint16(kind.ID))
	w.WriteC(1)
	w.WriteF64(16)
	w.WriteF64(24)
	w.WriteF64(90)
	w.WriteF64(7) // out of range elevation
	w.WriteF64(1e6)
	w.WriteF64(-4)
	w.WriteH(0xffff)
	w.WriteD(0)

	got, err := Read(h.ctx, packet.NewReader(w.Bytes()), 3)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Elevation)
	assert.Equal(t, got.MaxHealth(), got.Health())
	assert.Zero(t, got.Ammo)
	assert.Zero(t, got.Shield)
}

func TestReadErrors(t *testing.T) {
	h := newHarness(t, true)
	_, err := Read(h.ctx, packet.NewReader([]byte{9}), 1)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Read(h.ctx, packet.NewReader([]byte{Version, 1}), 1)
	assert.ErrorIs(t, err, ErrCorrupt)

	w := packet.NewWriter()
	u := h.spawn(t, "dagger", 1, 0, 0)
	u.Write(w)
	b := w.Bytes()
	b[1], b[2] = 0x7f, 0x00
	_, err = Read(h.ctx, packet.NewReader(b), 1)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestSyncRoundTrip(t *testing.T) {
	h := newHarness(t, true)
	src := h.spawn(t, "dagger", 1, 40, 48)
	src.VelX, src.VelY = 1.5, -0.5
	src.AddItem(h.cat.Item("copper"), 3)
	src.Aim(100, 120)
	src.ControlWeapons(true, true)

	replica := h.spawn(t, "dagger", 1, 0, 0)
	w := packet.NewWriter()
	src.WriteSync(w)
	replica.ReadSync(h.ctx, packet.NewReader(w.Bytes()))
	assert.Equal(t, src.X, replica.X)
	assert.Equal(t, src.VelY, replica.VelY)
	assert.Equal(t, src.Stack(), replica.Stack())
	assert.True(t, replica.IsShooting())
	x, y := replica.AimPoint()
	assert.Equal(t, [2]float64{100, 120}, [2]float64{x, y})
}

func TestSpawnZoneRepulsion(t *testing.T) {
	h := newHarness(t, true)
	h.ctx.Rules.DropZoneRadius = 40
	h.world.grid.AddSpawn(10, 10)
	near := h.spawn(t, "dagger", 1, 90, 80)
	wave := h.spawn(t, "dagger", h.ctx.Rules.WaveTeam, 90, 80)
	near.SetController(h.ctx, NewIdleAI())
	wave.SetController(h.ctx, NewIdleAI())

	near.Update(h.ctx)
	wave.Update(h.ctx)
	assert.Greater(t, near.X, 90.0, "pushed away from the spawn")
	assert.Equal(t, 90.0, wave.X)
}

func TestBlockedTileKills(t *testing.T) {
	h := newHarness(t, true)
	h.world.grid.SetBlock(5, 5, h.cat.Block("wall"), 0)
	u := h.spawn(t, "dagger", 1, 40, 40)
	u.Update(h.ctx)
	assert.Contains(t, ops(h.ctx.Calls.Drain()), call.OpUnitDeath)
}

func TestCoreSpawnedUnitDespawnsWithoutPlayer(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "dagger", 1, 40, 40)
	u.SpawnedByCore = true
	u.SetController(h.ctx, NewPlayer("p", false))
	u.Update(h.ctx)
	assert.Zero(t, h.ctx.Calls.Len())

	u.ResetController(h.ctx)
	u.Update(h.ctx)
	u.Update(h.ctx)
	assert.Equal(t, []call.Opcode{call.OpUnitDespawn}, ops(h.ctx.Calls.Drain()))
	u.Despawn(h.ctx)
	assert.False(t, u.IsAdded())
	assert.Empty(t, h.combat.explosions)
}

func TestMovement(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "flare", 1, 80, 80)
	u.SetController(h.ctx, NewIdleAI())
	for i := 0; i < 30; i++ {
		u.MovePref(h.ctx, u.Speed(h.ctx), 0)
		u.Update(h.ctx)
	}
	assert.Greater(t, u.X, 80.0)
	assert.InDelta(t, 80, u.Y, 1e-9)
	assert.LessOrEqual(t, math.Hypot(u.VelX, u.VelY), u.Speed(h.ctx)+1e-9)

	assert.Equal(t, 10.0, moveToward(0, 90, 10))
	assert.Equal(t, 350.0, moveToward(0, 270, 10))
	assert.Equal(t, 90.0, angleDist(10, 100))
}

func TestShootOnDeath(t *testing.T) {
	cases := []struct {
		name     string
		shooting bool
		bullets  int
	}{
		{"idle weapon fires", false, 1},
		{"weapon already firing is skipped", true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, true)
			u := h.spawn(t, "crawler", 1, 40, 40)
			require.Len(t, u.Mounts, 1)
			u.Mounts[0].Shoot = tc.shooting

			u.Killed(h.ctx)
			assert.False(t, u.IsAdded())
			assert.Equal(t, tc.bullets, h.combat.bullets)
			assert.Zero(t, h.ctx.Calls.Len(), "a dead shooter is not killed again")
		})
	}
}

func TestWreckDecals(t *testing.T) {
	cases := []struct {
		name     string
		headless bool
		decals   []string
	}{
		{"headless skips decals", true, nil},
		{"decals capped", false, []string{"crawler-wreck0", "crawler-wreck1", "crawler-wreck2"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, true)
			h.ctx.Headless = tc.headless
			u := h.spawn(t, "crawler", 1, 40, 40)
			require.Greater(t, len(u.Type.WreckRegions), maxWrecks)

			u.Killed(h.ctx)
			assert.Equal(t, tc.decals, h.effects.decals)
		})
	}
}

func TestSpawnZoneRepulsionDisabled(t *testing.T) {
	h := newHarness(t, true)
	h.ctx.Rules.DropZoneRadius = 40
	h.ctx.Rules.DropZonesBlockUnits = false
	h.world.grid.AddSpawn(10, 10)
	u := h.spawn(t, "dagger", 1, 90, 80)
	u.SetController(h.ctx, NewIdleAI())

	u.Update(h.ctx)
	assert.Equal(t, 90.0, u.X)
	assert.Zero(t, u.VelX)
}

func TestHealPulseAndHitFlash(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "dagger", 1, 40, 40)
	u.SetController(h.ctx, NewIdleAI())
	for i := 0; i < 25; i++ {
		u.Update(h.ctx)
	}
	assert.Zero(t, u.HealPulse())
	assert.Zero(t, u.HitFlash())

	u.SetHealth(50)
	u.Heal(10)
	u.Update(h.ctx)
	assert.InDelta(t, 0.95, u.HealPulse(), 1e-9)
	for i := 0; i < 19; i++ {
		u.Update(h.ctx)
	}
	assert.InDelta(t, 0, u.HealPulse(), 1e-9)

	u.Damage(h.ctx, 5)
	assert.Equal(t, 1.0, u.HitFlash())
	u.Update(h.ctx)
	assert.InDelta(t, 8.0/9, u.HitFlash(), 1e-9)
	for i := 0; i < 9; i++ {
		u.Update(h.ctx)
	}
	assert.Zero(t, u.HitFlash())
}

func TestDeadUnitReportsNoControl(t *testing.T) {
	h := newHarness(t, true)
	u := h.spawn(t, "flare", 1, 80, 80)
	u.SetController(h.ctx, NewPlayer("p", false))
	assert.Equal(t, float64(CtrlCodePlayer), u.Sense(h.ctx, SensorControlled))

	u.Killed(h.ctx)
	require.True(t, u.IsAdded(), "still falling")
	assert.Zero(t, u.Sense(h.ctx, SensorControlled))
}

func TestControllerChangeLeavesFormation(t *testing.T) {
	h := newHarness(t, true)
	leader := h.spawn(t, "flare", 1, 80, 80)
	a := h.spawn(t, "dagger", 1, 60, 60)
	b := h.spawn(t, "dagger", 1, 70, 60)
	c := h.spawn(t, "dagger", 1, 80, 60)

	leader.Command(h.ctx, []*Unit{a, b, c})
	require.Len(t, leader.Controlling(), 3)

	b.SetController(h.ctx, NewIdleAI())
	assert.Equal(t, []*Unit{a, c}, leader.Controlling())

	leader.ClearCommand(h.ctx)
	assert.False(t, leader.IsCommanding())
	assert.IsType(t, &GroundAI{}, a.Controller())
	assert.IsType(t, &IdleAI{}, b.Controller())
	assert.IsType(t, &GroundAI{}, c.Controller())
}
