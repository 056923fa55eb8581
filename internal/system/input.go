package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/call"
	coresys "github.com/l1jgo/skirmish/internal/core/system"
	"github.com/l1jgo/skirmish/internal/net"
	"github.com/l1jgo/skirmish/internal/sim"
)

// HostInputSystem admits and retires observer sessions. A session that joins
// mid-game is first sent the current population. Observers are read-only;
// anything they send is discarded. Phase 0 (Input).
type HostInputSystem struct {
	netServer  *net.Server
	store      *net.SessionStore
	sess       *sim.Session
	maxPerTick int
	log        *zap.Logger
}

func NewHostInputSystem(netServer *net.Server, store *net.SessionStore, sess *sim.Session, maxPerTick int, log *zap.Logger) *HostInputSystem {
	return &HostInputSystem{
		netServer:  netServer,
		store:      store,
		sess:       sess,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *HostInputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *HostInputSystem) Update(_ time.Duration) {
	for {
		select {
		case o := <-s.netServer.NewSessions():
			frames := s.sess.JoinFrames()
			for _, f := range frames {
				o.Send(f)
			}
			s.store.Add(o)
			s.log.Info("observer joined",
				zap.Uint64("session", o.ID),
				zap.Int("units", s.sess.Count()),
				zap.Int("frames", len(frames)))
		default:
			goto doneNew
		}
	}
doneNew:

	for {
		select {
		case id := <-s.netServer.DeadSessions():
			s.store.Remove(id)
		default:
			goto doneDead
		}
	}
doneDead:

	for id, o := range s.store.Raw() {
		if o.IsClosed() {
			s.log.Info("observer left", zap.Uint64("session", id))
			s.netServer.NotifyDead(id)
			s.store.Remove(id)
			continue
		}
		for i := 0; i < s.maxPerTick; i++ {
			select {
			case <-o.InQueue:
			default:
				goto nextSession
			}
		}
	nextSession:
	}
}

// ReplicaInputSystem decodes the host's frames into the session's batches.
// A frame that fails to decode is logged and skipped. Phase 0 (Input).
type ReplicaInputSystem struct {
	conn *net.Session
	sess *sim.Session
	log  *zap.Logger
}

func NewReplicaInputSystem(conn *net.Session, sess *sim.Session, log *zap.Logger) *ReplicaInputSystem {
	return &ReplicaInputSystem{conn: conn, sess: sess, log: log}
}

func (s *ReplicaInputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ReplicaInputSystem) Update(_ time.Duration) {
	for {
		select {
		case frame := <-s.conn.InQueue:
			c, err := call.Decode(frame)
			if err != nil {
				s.log.Warn("bad frame from host", zap.Error(err))
				continue
			}
			s.sess.Receive(c)
		default:
			return
		}
	}
}
