package sim

import (
	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/call"
	"github.com/l1jgo/skirmish/internal/net/packet"
	"github.com/l1jgo/skirmish/internal/unit"
)

// Receive buffers one decoded frame from the host. A checkpoint closes the
// batch of the host tick it names; the batch becomes ready to step.
func (s *Session) Receive(c call.Call) {
	switch c := c.(type) {
	case call.Checkpoint:
		s.current.cp = c
		s.ready = append(s.ready, s.current)
		s.current = batch{}
	case call.UnitSync:
		s.current.syncs = append(s.current.syncs, c)
	default:
		s.current.calls = append(s.current.calls, c)
	}
}

// Ready returns how many complete host ticks a replica can step.
func (s *Session) Ready() int { return len(s.ready) }

// ApplyPending runs the apply phase. The host applies what it issued during
// the previous tick and forwards each call; a replica applies the calls of
// the next ready batch.
func (s *Session) ApplyPending() {
	if s.opts.Authority {
		for _, c := range s.ctx.Calls.Drain() {
			if c = s.Apply(c); c != nil {
				s.broadcast(c)
			}
		}
		return
	}
	if len(s.ready) == 0 {
		s.active = nil
		return
	}
	b := s.ready[0]
	s.ready = s.ready[1:]
	s.active = &b
	for _, c := range b.calls {
		s.Apply(c)
	}
}

// Stepping reports whether this tick has work: always on the host, and on a
// replica only while a received batch is being stepped.
func (s *Session) Stepping() bool {
	return s.opts.Authority || s.active != nil
}

// Apply executes one remote invocation. It returns the call as it should be
// forwarded, with host-assigned ids filled in, or nil when it was dropped.
func (s *Session) Apply(c call.Call) call.Call {
	ctx := s.ctx
	switch c := c.(type) {
	case call.Spawn:
		return s.applySpawn(c)
	case call.UnitDeath:
		if u := s.Unit(c.UnitID); u != nil {
			u.Killed(ctx)
		}
	case call.UnitDestroy:
		if u := s.Unit(c.UnitID); u != nil {
			u.Destroy(ctx)
		}
	case call.UnitCapDeath:
		if u := s.Unit(c.UnitID); u != nil {
			s.log.Warn("unit force-destroyed",
				zap.Uint64("unit", uint64(u.ID)),
				zap.String("kind", u.Type.Name),
				zap.Uint8("team", u.Team))
			u.CapDeath(ctx)
		}
	case call.UnitDespawn:
		if u := s.Unit(c.UnitID); u != nil {
			u.Despawn(ctx)
		}
	case call.TransferAmmo:
		u := s.Unit(c.UnitID)
		b := s.opts.Grid.Building(c.BuildingID)
		item := s.opts.Content.ItemByID(c.Item)
		if u == nil || b == nil || item == nil {
			return nil
		}
		u.ApplyTransferAmmo(b, item, int(c.Amount), c.Ammo)
	case call.UnitControl:
		u := s.Unit(c.UnitID)
		if u == nil {
			return nil
		}
		s.applyControl(u, c.Player)
	case call.UnitSync:
		if u := s.Unit(c.UnitID); u != nil {
			u.ReadSync(ctx, packet.NewReader(c.Data))
		}
	case call.Checkpoint:
		return nil
	}
	return c
}

func (s *Session) applySpawn(c call.Spawn) call.Call {
	t := s.opts.Content.UnitByID(c.Kind)
	if t == nil {
		s.log.Warn("spawn of unknown kind dropped", zap.Int16("kind", c.Kind))
		return nil
	}
	if c.UnitID == 0 {
		if !s.opts.Authority {
			return nil
		}
		c.UnitID = s.world.CreateEntity()
	} else if !s.world.Pool().Claim(c.UnitID) {
		s.log.Warn("spawn id already live", zap.Uint64("unit", uint64(c.UnitID)))
		return nil
	}
	u := unit.New(s.ctx, c.UnitID, t, c.Team)
	u.X, u.Y, u.Rotation = c.X, c.Y, c.Rotation
	u.SpawnedByCore = c.SpawnedByCore
	s.register(u)
	return c
}

func (s *Session) applyControl(u *unit.Unit, name string) {
	if prev, ok := u.Controller().(*unit.Player); ok && prev.Unit() == u {
		if prev.PlayerName == name {
			return
		}
		delete(s.players, prev.PlayerName)
	}
	if name == "" {
		u.ResetController(s.ctx)
		return
	}
	p := s.player(name)
	if old := p.Unit(); old != nil && old != u && old.IsAdded() {
		old.ResetController(s.ctx)
	}
	u.SetController(s.ctx, p)
}
