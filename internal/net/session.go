package net

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/skirmish/internal/net/packet"
)

// ProtocolVersion is bumped whenever the frame or call layout changes.
const ProtocolVersion = 1

// helloMagic opens the first frame a host sends to an observer.
const helloMagic = 0x4b53

// ErrHandshake is returned by Dial when the host's hello frame is missing or
// speaks another protocol version.
var ErrHandshake = errors.New("net: handshake failed")

// Session is one observer connection. Network I/O runs in dedicated
// goroutines; the game loop only touches InQueue, Send and FlushOutput.
type Session struct {
	ID   uint64
	conn net.Conn

	InQueue  chan []byte // game loop reads frames from here
	OutQueue chan []byte // writer goroutine reads from here

	IP string

	outBuf [][]byte // buffered frames, flushed once per tick (game loop only)

	writeTimeout time.Duration
	readTimeout  time.Duration

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

// SessionOptions sizes the queues and I/O deadlines of a session.
type SessionOptions struct {
	InQueueSize  int
	OutQueueSize int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration // 0 disables the read deadline
}

func NewSession(conn net.Conn, id uint64, opts SessionOptions, log *zap.Logger) *Session {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &Session{
		ID:           id,
		conn:         conn,
		InQueue:      make(chan []byte, max(opts.InQueueSize, 1)),
		OutQueue:     make(chan []byte, max(opts.OutQueueSize, 1)),
		IP:           conn.RemoteAddr().String(),
		writeTimeout: opts.WriteTimeout,
		readTimeout:  opts.ReadTimeout,
		closeCh:      make(chan struct{}),
		log:          log.With(zap.Uint64("session", id)),
	}
}

// helloFrame is [H magic][C version][S server name].
func helloFrame(name string) []byte {
	w := packet.NewWriter()
	w.WriteH(helloMagic)
	w.WriteC(ProtocolVersion)
	w.WriteS(name)
	return w.Bytes()
}

func parseHello(frame []byte) (string, error) {
	r := packet.NewReader(frame)
	magic, version := r.ReadH(), r.ReadC()
	name := r.ReadS()
	if err := r.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if magic != helloMagic {
		return "", fmt.Errorf("%w: bad magic %#x", ErrHandshake, magic)
	}
	if version != ProtocolVersion {
		return "", fmt.Errorf("%w: protocol %d, want %d", ErrHandshake, version, ProtocolVersion)
	}
	return name, nil
}

// Start launches the reader and writer goroutines. A non-nil hello is
// written first, synchronously.
func (s *Session) Start(hello []byte) error {
	if hello != nil {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err := WriteFrame(s.conn, hello); err != nil {
			s.log.Error("hello frame failed", zap.Error(err))
			s.Close()
			return err
		}
	}
	go s.readLoop()
	go s.writeLoop()
	return nil
}

// Send buffers a frame. Nothing reaches TCP until FlushOutput.
// Game loop goroutine only.
func (s *Session) Send(data []byte) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, data)
}

// FlushOutput drains the output buffer to OutQueue for the writer goroutine.
// A session whose queue is full is disconnected.
func (s *Session) FlushOutput() {
	for _, data := range s.outBuf {
		select {
		case s.OutQueue <- data:
		default:
			s.log.Warn("output queue full, dropping slow observer")
			s.Close()
			s.outBuf = s.outBuf[:0]
			return
		}
	}
	s.outBuf = s.outBuf[:0]
}

// Close shuts the session down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done is closed when the session shuts down.
func (s *Session) Done() <-chan struct{} { return s.closeCh }

func (s *Session) readLoop() {
	defer s.Close()

	for {
		if s.readTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		payload, err := ReadFrame(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		// Frames are ordered; block rather than drop.
		select {
		case s.InQueue <- payload:
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := WriteFrame(s.conn, data); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
