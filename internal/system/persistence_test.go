package system

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/core/event"
	"github.com/l1jgo/skirmish/internal/persist"
)

type savedSnapshot struct {
	tick  uint64
	units int
	raw   []byte
}

type fakeSnapshots struct{ saved []savedSnapshot }

func (f *fakeSnapshots) Save(_ context.Context, tick uint64, units int, raw []byte) error {
	f.saved = append(f.saved, savedSnapshot{tick: tick, units: units, raw: raw})
	return nil
}

type pruningSnapshots struct {
	fakeSnapshots
	keeps []int
}

func (f *pruningSnapshots) Prune(_ context.Context, keep int) (int64, error) {
	f.keeps = append(f.keeps, keep)
	if n := len(f.saved) - keep; n > 0 {
		f.saved = f.saved[n:]
		return int64(n), nil
	}
	return 0, nil
}

type fakeEventLog struct {
	fail     bool
	appended []persist.UnitEvent
}

func (f *fakeEventLog) Append(_ context.Context, events []persist.UnitEvent) error {
	if f.fail {
		return errors.New("connection refused")
	}
	f.appended = append(f.appended, events...)
	return nil
}

func dispatch(bus *event.Bus) {
	bus.SwapBuffers()
	bus.DispatchAll()
}

func TestPersistenceSavesOnInterval(t *testing.T) {
	sess := newTestSession(t, true)
	snaps := &fakeSnapshots{}
	s := NewPersistenceSystem(sess, snaps, nil, zap.NewNop(), 3)

	s.Update(tick)
	s.Update(tick)
	assert.Empty(t, snaps.saved)
	s.Update(tick)
	require.Len(t, snaps.saved, 1)
	assert.Zero(t, snaps.saved[0].units)
	assert.NotEmpty(t, snaps.saved[0].raw)

	for i := 0; i < 3; i++ {
		s.Update(tick)
	}
	assert.Len(t, snaps.saved, 2)
}

func TestPersistencePrunesAfterSave(t *testing.T) {
	sess := newTestSession(t, true)
	snaps := &pruningSnapshots{}
	s := NewPersistenceSystem(sess, snaps, nil, zap.NewNop(), 1)

	s.Save()
	assert.Empty(t, snaps.keeps, "no retention configured")

	s.SetRetention(2)
	for i := 0; i < 4; i++ {
		s.Update(tick)
	}
	assert.Len(t, snaps.saved, 2)
	assert.Equal(t, []int{2, 2, 2, 2}, snaps.keeps)
}

func TestPersistenceKeepsEventsUntilFlushed(t *testing.T) {
	sess := newTestSession(t, true)
	log := &fakeEventLog{fail: true}
	s := NewPersistenceSystem(sess, nil, log, zap.NewNop(), 100)

	event.Emit(sess.Bus(), event.UnitDestroyed{UnitID: 4, Team: 2, Kind: "dagger", X: 16, Y: 24})
	event.Emit(sess.Bus(), event.Trigger{Kind: event.TriggerSuicideBomb, UnitID: 5})
	event.Emit(sess.Bus(), event.UnitCreated{UnitID: 6, Team: 1, Kind: "dagger"})
	dispatch(sess.Bus())
	assert.Equal(t, 2, s.Pending())

	s.Save()
	assert.Equal(t, 2, s.Pending())
	assert.Empty(t, log.appended)

	log.fail = false
	s.Save()
	assert.Zero(t, s.Pending())
	require.Len(t, log.appended, 2)
	assert.Equal(t, "destroyed", log.appended[0].Kind)
	assert.Equal(t, uint64(4), log.appended[0].UnitID)
	assert.Equal(t, "dagger", log.appended[0].UnitKind)
	assert.Equal(t, "notable", log.appended[1].Kind)
}

func TestPersistenceWithoutEventLog(t *testing.T) {
	sess := newTestSession(t, true)
	s := NewPersistenceSystem(sess, &fakeSnapshots{}, nil, zap.NewNop(), 10)
	event.Emit(sess.Bus(), event.UnitDestroyed{UnitID: 1})
	dispatch(sess.Bus())
	assert.Zero(t, s.Pending())
}
