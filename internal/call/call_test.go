package call

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEveryOpcode(t *testing.T) {
	var digest [32]byte
	for i := range digest {
		digest[i] = byte(i * 7)
	}
	calls := []Call{
		Spawn{UnitID: 42, Kind: 3, Team: 2, X: 12.5, Y: -4, Rotation: 270, SpawnedByCore: true},
		UnitDeath{UnitID: 1},
		UnitDestroy{UnitID: 2},
		UnitCapDeath{UnitID: 3},
		UnitDespawn{UnitID: 4},
		TransferAmmo{UnitID: 5, BuildingID: 9, Item: 1, Amount: 3, Ammo: 30},
		UnitControl{UnitID: 6, Player: "anuke"},
		UnitControl{UnitID: 6},
		UnitSync{UnitID: 7, Data: []byte{1, 2, 3, 4}},
		Checkpoint{Tick: 600, Digest: digest},
	}
	for _, c := range calls {
		t.Run(c.Op().String(), func(t *testing.T) {
			frame := Encode(c)
			require.Equal(t, byte(c.Op()), frame[0])
			got, err := Decode(frame)
			require.NoError(t, err)
			assert.Equal(t, c, got)
		})
	}
}

func TestDecodeRejectsUnknownOpcode(t *testing.T) {
	_, err := Decode([]byte{0xee, 0, 0})
	require.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestDecodeTruncated(t *testing.T) {
	frame := Encode(Spawn{UnitID: 42, Kind: 1, X: 1, Y: 2})
	_, err := Decode(frame[:len(frame)-5])
	require.Error(t, err)
}

func TestQueueKeepsIssueOrder(t *testing.T) {
	q := NewQueue()
	q.Issue(UnitDeath{UnitID: 1})
	q.Issue(UnitDestroy{UnitID: 1})
	q.Issue(UnitDeath{UnitID: 2})
	require.Equal(t, 3, q.Len())

	got := q.Drain()
	require.Equal(t, []Call{UnitDeath{UnitID: 1}, UnitDestroy{UnitID: 1}, UnitDeath{UnitID: 2}}, got)
	assert.Zero(t, q.Len())
	assert.Nil(t, q.Drain())
	assert.EqualValues(t, 3, q.Issued())
}

func TestQueueIssueDuringDrainLandsNextTime(t *testing.T) {
	q := NewQueue()
	q.Issue(UnitDeath{UnitID: 1})
	for range q.Drain() {
		q.Issue(UnitDestroy{UnitID: 1})
	}
	assert.Equal(t, []Call{UnitDestroy{UnitID: 1}}, q.Drain())
}
