package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/core/event"
	coresys "github.com/l1jgo/skirmish/internal/core/system"
	"github.com/l1jgo/skirmish/internal/persist"
	"github.com/l1jgo/skirmish/internal/sim"
)

// SnapshotStore persists raw session snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, tick uint64, units int, raw []byte) error
}

// SnapshotPruner drops all but the newest keep snapshots.
type SnapshotPruner interface {
	Prune(ctx context.Context, keep int) (int64, error)
}

// EventLog appends unit events in one batch.
type EventLog interface {
	Append(ctx context.Context, events []persist.UnitEvent) error
}

// PersistenceSystem periodically snapshots the session and flushes the unit
// event log. Events are collected from the bus as they are dispatched. A
// failed flush keeps the batch for the next attempt. Phase 5 (Persist).
type PersistenceSystem struct {
	sess      *sim.Session
	snapshots SnapshotStore
	events    EventLog
	log       *zap.Logger
	pending   []persist.UnitEvent
	tickCount int
	interval  int // save every N ticks
	keep      int // snapshots retained after each save, 0 keeps all
}

func NewPersistenceSystem(sess *sim.Session, snapshots SnapshotStore, events EventLog, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	s := &PersistenceSystem{
		sess:      sess,
		snapshots: snapshots,
		events:    events,
		log:       log,
		interval:  intervalTicks,
	}
	if events == nil {
		return s
	}
	event.Subscribe(sess.Bus(), func(e event.UnitDestroyed) {
		s.pending = append(s.pending, persist.UnitEvent{
			Tick:     sess.Tick(),
			Kind:     "destroyed",
			UnitID:   uint64(e.UnitID),
			UnitKind: e.Kind,
			Team:     e.Team,
			X:        e.X,
			Y:        e.Y,
		})
	})
	event.Subscribe(sess.Bus(), func(e event.Trigger) {
		if e.Kind != event.TriggerSuicideBomb {
			return
		}
		s.pending = append(s.pending, persist.UnitEvent{
			Tick:   sess.Tick(),
			Kind:   "notable",
			UnitID: uint64(e.UnitID),
		})
	})
	return s
}

// SetRetention prunes older snapshots after every save when the store
// supports it.
func (s *PersistenceSystem) SetRetention(keep int) { s.keep = keep }

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Save()
}

// Pending returns the number of events waiting for the next flush.
func (s *PersistenceSystem) Pending() int { return len(s.pending) }

// Save snapshots the session and flushes pending events now. Also called on
// graceful shutdown.
func (s *PersistenceSystem) Save() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.snapshots != nil {
		raw, units := s.sess.Snapshot()
		if err := s.snapshots.Save(ctx, s.sess.Tick(), units, raw); err != nil {
			s.log.Error("snapshot save failed", zap.Uint64("tick", s.sess.Tick()), zap.Error(err))
		} else {
			s.log.Debug("snapshot saved", zap.Uint64("tick", s.sess.Tick()), zap.Int("units", units), zap.Int("bytes", len(raw)))
			s.prune(ctx)
		}
	}

	if s.events != nil && len(s.pending) > 0 {
		if err := s.events.Append(ctx, s.pending); err != nil {
			s.log.Error("event log flush failed", zap.Int("events", len(s.pending)), zap.Error(err))
			return
		}
		s.pending = s.pending[:0]
	}
}

func (s *PersistenceSystem) prune(ctx context.Context) {
	p, ok := s.snapshots.(SnapshotPruner)
	if !ok || s.keep <= 0 {
		return
	}
	n, err := p.Prune(ctx, s.keep)
	if err != nil {
		s.log.Warn("snapshot prune failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Debug("snapshots pruned", zap.Int64("removed", n), zap.Int("kept", s.keep))
	}
}
