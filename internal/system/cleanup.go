package system

import (
	"time"

	coresys "github.com/l1jgo/skirmish/internal/core/system"
	"github.com/l1jgo/skirmish/internal/sim"
)

// CleanupSystem flushes the deferred entity destruction queue and closes the
// tick. Phase 6 (Cleanup).
type CleanupSystem struct {
	sess *sim.Session
}

func NewCleanupSystem(sess *sim.Session) *CleanupSystem {
	return &CleanupSystem{sess: sess}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.sess.EndTick()
}
