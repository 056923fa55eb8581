package sim

import (
	"encoding/hex"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/core/event"
	"github.com/l1jgo/skirmish/internal/net/packet"
	"github.com/l1jgo/skirmish/internal/unit"
)

// Digest hashes the call-driven state of every registered unit in id order.
// Host and replicas agree on it whenever they applied the same calls, so it
// only covers what calls decide: identity, team, death and carried stack.
// Physics is corrected by sync frames and left out.
func (s *Session) Digest() [32]byte {
	w := packet.NewWriter()
	w.WriteD(int32(s.Count()))
	s.Units(func(u *unit.Unit) {
		u.WriteIdentity(w)
	})
	return blake2b.Sum256(w.Bytes())
}

func (s *Session) digestDue() bool {
	return s.tick%uint64(s.opts.DigestInterval) == 0
}

func (s *Session) syncDue() bool {
	return s.tick%uint64(s.opts.SyncInterval) == 0 || s.digestDue()
}

// Replicate runs the replication half of post-update. The host publishes
// sync frames on sync ticks and closes every tick with a checkpoint carrying
// the digest on digest ticks. A replica applies the batch's syncs and
// verifies the checkpoint.
func (s *Session) Replicate() {
	if s.opts.Authority {
		if s.syncDue() {
			s.Units(func(u *unit.Unit) {
				w := packet.NewWriter()
				u.WriteSync(w)
				s.broadcast(call.UnitSync{UnitID: u.ID, Data: w.Bytes()})
			})
		}
		cp := call.Checkpoint{Tick: s.tick}
		if s.digestDue() {
			cp.Digest = s.Digest()
		}
		s.broadcast(cp)
		return
	}
	if s.active == nil {
		return
	}
	for _, sy := range s.active.syncs {
		s.Apply(sy)
	}
	s.verify(s.active.cp)
}

func (s *Session) verify(cp call.Checkpoint) {
	if cp.Digest == ([32]byte{}) {
		return
	}
	local := s.Digest()
	if local == cp.Digest {
		return
	}
	s.mismatches++
	l, e := hex.EncodeToString(local[:]), hex.EncodeToString(cp.Digest[:])
	s.log.Warn("digest mismatch",
		zap.Uint64("tick", cp.Tick),
		zap.String("local", l),
		zap.String("expected", e))
	event.Emit(s.bus, event.DigestMismatch{Tick: cp.Tick, Local: l, Expected: e})
}
