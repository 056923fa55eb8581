package sim

import (
	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/net/packet"
	"github.com/l1jgo/skirmish/internal/unit"
)

// UpdateUnits runs the update loop of every registered unit in id order and
// re-buckets the ones still registered. delta is in time units (1 = 1/60 s).
func (s *Session) UpdateUnits(delta float64) {
	if !s.Stepping() {
		return
	}
	s.ctx.Delta = delta
	s.Units(func(u *unit.Unit) {
		u.Update(s.ctx)
		if u.IsAdded() {
			s.index.Move(u)
		}
	})
}

// UpdateBullets advances projectiles.
func (s *Session) UpdateBullets() {
	if !s.Stepping() {
		return
	}
	s.combat.UpdateBullets(s.ctx.Delta)
}

// EndTick flushes removed units and advances the tick counter. It returns
// false when a replica had nothing to step.
func (s *Session) EndTick() bool {
	s.world.FlushDestroyQueue()
	if !s.Stepping() {
		return false
	}
	if s.active != nil {
		s.tick = s.active.cp.Tick
	}
	s.tick++
	s.active = nil
	return true
}

// JoinFrames replays the current population for an observer that connects
// mid-session: a spawn per unit under its existing id, the death of units
// still falling, player control, then a sync of its physical state. The
// frames land in the observer's next batch ahead of that tick's calls.
func (s *Session) JoinFrames() [][]byte {
	var frames [][]byte
	s.Units(func(u *unit.Unit) {
		frames = append(frames, call.Encode(call.Spawn{
			UnitID:        u.ID,
			Kind:          u.Type.ID,
			Team:          u.Team,
			X:             u.X,
			Y:             u.Y,
			Rotation:      u.Rotation,
			SpawnedByCore: u.SpawnedByCore,
		}))
		if u.IsDead() {
			frames = append(frames, call.Encode(call.UnitDeath{UnitID: u.ID}))
		}
		if p, ok := u.Controller().(*unit.Player); ok {
			frames = append(frames, call.Encode(call.UnitControl{UnitID: u.ID, Player: p.PlayerName}))
		}
		w := packet.NewWriter()
		u.WriteSync(w)
		frames = append(frames, call.Encode(call.UnitSync{UnitID: u.ID, Data: w.Bytes()}))
	})
	return frames
}
