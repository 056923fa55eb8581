package system

import (
	"time"

	coresys "github.com/l1jgo/skirmish/internal/core/system"
	"github.com/l1jgo/skirmish/internal/net"
	"github.com/l1jgo/skirmish/internal/sim"
)

// SyncSystem publishes sync frames and the tick checkpoint on the host, then
// flushes every observer's output; on a replica it applies the received
// syncs and verifies the digest. Phase 4 (PostUpdate), after bullets.
type SyncSystem struct {
	sess  *sim.Session
	store *net.SessionStore // nil on a replica
}

func NewSyncSystem(sess *sim.Session, store *net.SessionStore) *SyncSystem {
	return &SyncSystem{sess: sess, store: store}
}

func (s *SyncSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *SyncSystem) Update(_ time.Duration) {
	s.sess.Replicate()
	if s.store != nil {
		s.store.ForEach(func(o *net.Session) {
			o.FlushOutput()
		})
	}
}
