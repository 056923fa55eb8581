package system

import (
	"time"

	coresys "github.com/l1jgo/skirmish/internal/core/system"
	"github.com/l1jgo/skirmish/internal/sim"
)

// ticksPerSecond converts wall time into simulation time units.
const ticksPerSecond = 60

// UnitSystem runs the per-unit update loop. Phase 3 (Update).
type UnitSystem struct {
	sess *sim.Session
}

func NewUnitSystem(sess *sim.Session) *UnitSystem {
	return &UnitSystem{sess: sess}
}

func (s *UnitSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *UnitSystem) Update(dt time.Duration) {
	s.sess.UpdateUnits(Delta(dt))
}

// Delta is the elapsed time of a tick in simulation time units.
func Delta(dt time.Duration) float64 {
	return dt.Seconds() * ticksPerSecond
}
