package system

import (
	"time"

	coresys "github.com/l1jgo/skirmish/internal/core/system"
	"github.com/l1jgo/skirmish/internal/sim"
)

// ApplySystem applies remote invocations: on the host the calls issued last
// tick, on a replica the next batch received from the host. Phase 1 (Apply).
type ApplySystem struct {
	sess *sim.Session
}

func NewApplySystem(sess *sim.Session) *ApplySystem {
	return &ApplySystem{sess: sess}
}

func (s *ApplySystem) Phase() coresys.Phase { return coresys.PhaseApply }

func (s *ApplySystem) Update(_ time.Duration) {
	s.sess.ApplyPending()
}
