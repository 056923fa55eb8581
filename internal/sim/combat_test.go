package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/unit"
)

// place spawns kind on the host and applies it at once.
func place(t *testing.T, s *Session, kind string, tm uint8, x, y float64) *unit.Unit {
	t.Helper()
	require.NoError(t, s.Spawn(kind, tm, x, y, 0, false))
	var id call.Spawn
	for _, c := range s.Context().Calls.Drain() {
		out, ok := s.Apply(c).(call.Spawn)
		require.True(t, ok)
		id = out
	}
	u := s.Unit(id.UnitID)
	require.NotNil(t, u)
	return u
}

func TestFalloff(t *testing.T) {
	assert.InDelta(t, 1.0, falloff(0, 30), 1e-9)
	assert.InDelta(t, 0.7, falloff(15, 30), 1e-9)
	assert.InDelta(t, 0.4, falloff(30, 30), 1e-9)
	assert.InDelta(t, 0.4, falloff(45, 30), 1e-9)
}

func TestAreaDamageSkipsAlliesAndFiltersAir(t *testing.T) {
	s := newTestSession(t, true)
	center := place(t, s, "dummy", 2, 200, 100)
	half := place(t, s, "dummy", 2, 215, 100)
	far := place(t, s, "dummy", 2, 260, 100)
	ally := place(t, s, "dummy", 1, 200, 110)
	flyer := place(t, s, "flare", 2, 195, 100)

	s.combat.AreaDamage(1, 200, 100, 30, 20, false, true)

	assert.InDelta(t, 80, center.Health(), 1e-9)
	assert.InDelta(t, 86, half.Health(), 1e-9)
	assert.InDelta(t, 100, far.Health(), 1e-9)
	assert.InDelta(t, 100, ally.Health(), 1e-9)
	assert.InDelta(t, 70, flyer.Health(), 1e-9)

	s.combat.AreaDamage(1, 200, 100, 30, 20, true, false)
	assert.InDelta(t, 52, flyer.Health(), 1e-9)
	assert.InDelta(t, 80, center.Health(), 1e-9)
}

func TestDynamicExplosionWaves(t *testing.T) {
	s := newTestSession(t, true)
	target := place(t, s, "dummy", 2, 200, 100)

	s.combat.DynamicExplosion(unit.Explosion{X: 200, Y: 100, Explosiveness: 22, Radius: 8, Team: 1})
	assert.InDelta(t, 100, target.Health(), 1e-9, "cosmetic only without damage")

	// two waves of explosiveness/2 each at the centre
	s.combat.DynamicExplosion(unit.Explosion{X: 200, Y: 100, Explosiveness: 22, Radius: 8, Team: 1, Damage: true})
	assert.InDelta(t, 78, target.Health(), 1e-9)
}

func TestBulletHitsFirstHostile(t *testing.T) {
	s := newTestSession(t, true)
	owner := place(t, s, "dagger", 1, 100, 100)
	friend := place(t, s, "dummy", 1, 120, 100)
	target := place(t, s, "dummy", 2, 140, 100)

	s.combat.CreateBullet(owner, s.opts.Content.Bullet("basic"), 100, 100, 0)
	require.Len(t, s.combat.Bullets(), 1)
	for i := 0; i < 30; i++ {
		s.combat.UpdateBullets(1)
	}

	assert.Empty(t, s.combat.Bullets())
	assert.InDelta(t, 100, friend.Health(), 1e-9)
	assert.InDelta(t, 91, target.Health(), 1e-9)
}

func TestBulletExpires(t *testing.T) {
	s := newTestSession(t, true)
	owner := place(t, s, "dagger", 1, 100, 100)
	s.combat.CreateBullet(owner, s.opts.Content.Bullet("basic"), 100, 100, 90)
	for i := 0; i < 59; i++ {
		s.combat.UpdateBullets(1)
	}
	assert.Len(t, s.combat.Bullets(), 1)
	s.combat.UpdateBullets(1)
	assert.Empty(t, s.combat.Bullets())
}

func TestBuildingsOnlyTakeDamageOnHost(t *testing.T) {
	for _, authority := range []bool{true, false} {
		s := newTestSession(t, authority)
		wall := s.Grid().Tile(50, 20).Build
		require.NotNil(t, wall)

		s.combat.CreateBullet(nil, s.opts.Content.Bullet("basic"), 380, 160, 0)
		for i := 0; i < 20; i++ {
			s.combat.UpdateBullets(1)
		}
		assert.Empty(t, s.combat.Bullets())
		if authority {
			assert.InDelta(t, 31, wall.Health, 1e-9)
		} else {
			assert.InDelta(t, 40, wall.Health, 1e-9)
		}
	}
}

func TestDestroyedCoreLowersCap(t *testing.T) {
	s := newTestSession(t, true)
	core := s.Grid().Tile(4, 20).Build
	require.NotNil(t, core)
	before := s.Teams().Cap(1)

	s.combat.damageBuilding(core, core.Health+1)

	assert.Equal(t, before-4, s.Teams().Cap(1))
	assert.Nil(t, s.Grid().Tile(4, 20).Build)
}
