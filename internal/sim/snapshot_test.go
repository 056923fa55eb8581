package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/skirmish/internal/core/ecs"
	"github.com/l1jgo/skirmish/internal/unit"
)

func TestSnapshotRestore(t *testing.T) {
	host := newTestSession(t, true)
	require.NoError(t, host.Populate())
	run(host, nil, 20)

	data, count := host.Snapshot()
	require.Equal(t, host.Count(), count)

	restored := newTestSession(t, true)
	loaded, err := restored.Restore(data)
	require.NoError(t, err)
	assert.Equal(t, count, loaded)
	assert.Equal(t, host.Tick(), restored.Tick())
	assert.Equal(t, host.Digest(), restored.Digest())

	host.Units(func(u *unit.Unit) {
		r := restored.Unit(u.ID)
		require.NotNil(t, r)
		assert.Equal(t, u.Type, r.Type)
		assert.InDelta(t, u.X, r.X, 1e-9)
		assert.InDelta(t, u.Health(), r.Health(), 1e-9)
	})

	// new ids never collide with restored ones
	require.NoError(t, restored.Spawn("dummy", 1, 60, 60, 0, false))
	restored.ApplyPending()
	assert.Equal(t, count+1, restored.Count())
	seen := map[ecs.EntityID]bool{}
	restored.Units(func(u *unit.Unit) {
		assert.False(t, seen[u.ID])
		seen[u.ID] = true
	})
}

func TestRestoreRejectsBadInput(t *testing.T) {
	host := newTestSession(t, true)
	require.NoError(t, host.Populate())
	run(host, nil, 1)
	data, _ := host.Snapshot()

	_, err := host.Restore(data)
	require.Error(t, err, "session already has units")

	empty := newTestSession(t, true)
	_, err = empty.Restore([]byte{0, 0, 1})
	require.ErrorIs(t, err, unit.ErrCorrupt)

	empty = newTestSession(t, true)
	loaded, err := empty.Restore(data[:len(data)-3])
	require.ErrorIs(t, err, unit.ErrCorrupt)
	assert.Less(t, loaded, host.Count())
}
