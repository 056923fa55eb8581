package system

import (
	"time"

	coresys "github.com/l1jgo/skirmish/internal/core/system"
	"github.com/l1jgo/skirmish/internal/sim"
)

// BulletSystem moves projectiles and resolves hits. Phase 4 (PostUpdate),
// ahead of replication.
type BulletSystem struct {
	sess *sim.Session
}

func NewBulletSystem(sess *sim.Session) *BulletSystem {
	return &BulletSystem{sess: sess}
}

func (s *BulletSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *BulletSystem) Update(_ time.Duration) {
	s.sess.UpdateBullets()
}
