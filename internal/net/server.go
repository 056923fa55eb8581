package net

import (
	"fmt"
	"net"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Server accepts observer connections and creates Sessions.
// New/dead sessions are communicated to the game loop via channels.
type Server struct {
	listener net.Listener
	name     string
	nextID   atomic.Uint64
	newConns chan *Session
	deadCh   chan uint64 // ids of sessions that went away
	opts     SessionOptions
	log      *zap.Logger
	closeCh  chan struct{}
}

func NewServer(bindAddr, name string, opts SessionOptions, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		listener: ln,
		name:     name,
		newConns: make(chan *Session, 64),
		deadCh:   make(chan uint64, 64),
		opts:     opts,
		log:      log.Named("net"),
		closeCh:  make(chan struct{}),
	}
	return s, nil
}

// AcceptLoop runs in its own goroutine. It accepts connections, sends the
// hello frame and pushes the sessions onto the newConns channel.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return // server shutting down
			default:
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		id := s.nextID.Add(1)
		sess := NewSession(conn, id, s.opts, s.log)
		if err := sess.Start(helloFrame(s.name)); err != nil {
			continue
		}

		s.log.Info("observer connected", zap.Uint64("session", id), zap.String("ip", sess.IP))

		select {
		case s.newConns <- sess:
		default:
			s.log.Warn("connection queue full, rejecting observer")
			sess.Close()
		}
	}
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// NotifyDead reports a dead session id to the game loop.
func (s *Server) NotifyDead(sessionID uint64) {
	select {
	case s.deadCh <- sessionID:
	default:
	}
}

// DeadSessions returns the channel of dead session ids.
func (s *Server) DeadSessions() <-chan uint64 {
	return s.deadCh
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// SessionStore holds the live observer sessions. Game loop goroutine only.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session)}
}

func (st *SessionStore) Add(s *Session)           { st.sessions[s.ID] = s }
func (st *SessionStore) Remove(id uint64)         { delete(st.sessions, id) }
func (st *SessionStore) Get(id uint64) *Session   { return st.sessions[id] }
func (st *SessionStore) Len() int                 { return len(st.sessions) }
func (st *SessionStore) Raw() map[uint64]*Session { return st.sessions }

// ForEach visits sessions in id order.
func (st *SessionStore) ForEach(fn func(*Session)) {
	ids := make([]uint64, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(st.sessions[id])
	}
}

// Broadcast buffers a frame on every open session.
func (st *SessionStore) Broadcast(frame []byte) {
	for _, s := range st.sessions {
		s.Send(frame)
	}
}

// Dial connects an observer to a host and completes the handshake. It
// returns the session, already started, and the host's name.
func Dial(addr string, opts SessionOptions, log *zap.Logger) (*Session, string, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, "", fmt.Errorf("dial %s: %w", addr, err)
	}
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	frame, err := ReadFrame(conn)
	if err != nil {
		conn.Close()
		return nil, "", fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	name, err := parseHello(frame)
	if err != nil {
		conn.Close()
		return nil, "", err
	}
	conn.SetReadDeadline(time.Time{})
	sess := NewSession(conn, 0, opts, log.Named("net"))
	if err := sess.Start(nil); err != nil {
		return nil, "", err
	}
	return sess, name, nil
}
