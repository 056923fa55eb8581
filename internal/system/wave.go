package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/skirmish/internal/core/system"
	"github.com/l1jgo/skirmish/internal/sim"
	"github.com/l1jgo/skirmish/internal/world"
)

// waveSpread scatters wave units around their spawn point, in world units.
const waveSpread = 12

// WaveSystem counts down each map wave and requests its units at every spawn
// point for the wave team. Host only. Phase 3 (Update).
type WaveSystem struct {
	sess   *sim.Session
	timers []int
	log    *zap.Logger
}

func NewWaveSystem(sess *sim.Session, log *zap.Logger) *WaveSystem {
	waves := sess.Grid().Waves()
	timers := make([]int, len(waves))
	for i, w := range waves {
		timers[i] = w.Every
	}
	return &WaveSystem{sess: sess, timers: timers, log: log}
}

func (s *WaveSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *WaveSystem) Update(_ time.Duration) {
	if !s.sess.Authority() {
		return
	}
	waves := s.sess.Grid().Waves()
	for i := range s.timers {
		s.timers[i]--
		if s.timers[i] > 0 {
			continue
		}
		s.timers[i] = waves[i].Every
		s.spawnWave(waves[i])
	}
}

func (s *WaveSystem) spawnWave(w world.Wave) {
	ctx := s.sess.Context()
	tm := ctx.Rules.WaveTeam
	n := 0
	for _, sp := range s.sess.Grid().Spawns() {
		x, y := float64(sp.X*world.TileSize), float64(sp.Y*world.TileSize)
		for i := 0; i < w.Count; i++ {
			if err := s.sess.Spawn(w.Kind, tm, x+ctx.Range(waveSpread), y+ctx.Range(waveSpread), 0, false); err != nil {
				s.log.Warn("wave spawn failed", zap.String("kind", w.Kind), zap.Error(err))
				return
			}
			n++
		}
	}
	s.log.Info("wave spawned", zap.String("kind", w.Kind), zap.Int("units", n), zap.Uint8("team", tm))
}
