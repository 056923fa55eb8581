package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/core/event"
	coresys "github.com/l1jgo/skirmish/internal/core/system"
	"github.com/l1jgo/skirmish/internal/sim"
	"github.com/l1jgo/skirmish/internal/unit"
)

const tick = time.Second / 60

func newTestRunner(sess *sim.Session) *coresys.Runner {
	r := coresys.NewRunner()
	r.Register(NewApplySystem(sess))
	r.Register(NewEventDispatchSystem(sess.Bus()))
	r.Register(NewUnitSystem(sess))
	r.Register(NewWaveSystem(sess, zap.NewNop()))
	r.Register(NewBulletSystem(sess))
	r.Register(NewSyncSystem(sess, nil))
	r.Register(NewCleanupSystem(sess))
	return r
}

func teamCount(sess *sim.Session, tm uint8) int {
	n := 0
	sess.Units(func(u *unit.Unit) {
		if u.Team == tm {
			n++
		}
	})
	return n
}

func TestWaveSpawnsAtEverySpawnPoint(t *testing.T) {
	sess := newTestSession(t, true)
	r := newTestRunner(sess)

	var spawned int
	event.Subscribe(sess.Bus(), func(event.UnitCreated) { spawned++ })

	for i := 0; i < 5; i++ {
		r.Tick(tick)
	}
	assert.Zero(t, sess.Count(), "wave requested on the fifth tick, applied on the sixth")

	r.Tick(tick)
	assert.Equal(t, 4, sess.Count())
	assert.Equal(t, 4, teamCount(sess, sess.Context().Rules.WaveTeam))

	for i := 0; i < 5; i++ {
		r.Tick(tick)
	}
	assert.Equal(t, 8, sess.Count())
	assert.Equal(t, 8, spawned)
}

func TestWaveIdleOnReplica(t *testing.T) {
	sess := newTestSession(t, false)
	r := newTestRunner(sess)
	for i := 0; i < 20; i++ {
		r.Tick(tick)
	}
	assert.Zero(t, sess.Count())
	assert.Zero(t, sess.Tick())
}

func TestDelta(t *testing.T) {
	assert.InDelta(t, 1, Delta(tick), 1e-9)
	assert.InDelta(t, 3, Delta(50*time.Millisecond), 1e-9)
}
