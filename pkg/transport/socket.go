package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/walletlens/walletlens-sdk-go/pkg/event"
	"go.uber.org/zap"
)

// ErrSocketClosed is returned by Send after Close has been called.
var ErrSocketClosed = errors.New("socket transport closed")

// Conn is the subset of *websocket.Conn the transport uses, extracted so
// tests can substitute an in-memory connection.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// DialFunc establishes a websocket connection to the collector.
type DialFunc func(ctx context.Context) (Conn, error)

// Socket emits events fire-and-forget over a websocket. Send only queues;
// a single writer goroutine owns the connection, dials lazily, buffers while
// the channel is not ready, and flushes queued events in arrival order once
// connected. Write failures requeue the event and drop the connection.
type Socket struct {
	url         string
	dial        DialFunc
	retry       time.Duration
	dialTimeout time.Duration
	flushWait   time.Duration

	mu     sync.Mutex
	queue  []event.Event
	closed bool

	notify   chan struct{}
	done     chan struct{}
	finished chan struct{}
}

// SocketOption configures the socket transport.
type SocketOption func(*Socket)

// WithDialFunc replaces the websocket dialer (used by tests and custom TLS setups).
func WithDialFunc(dial DialFunc) SocketOption {
	return func(s *Socket) { s.dial = dial }
}

// WithRetryInterval sets the pause between reconnect attempts (default 1s).
func WithRetryInterval(d time.Duration) SocketOption {
	return func(s *Socket) { s.retry = d }
}

// WithDialTimeout bounds each dial attempt (default 5s).
func WithDialTimeout(d time.Duration) SocketOption {
	return func(s *Socket) { s.dialTimeout = d }
}

// WithFlushWait bounds how long Close waits for the final drain (default 3s).
func WithFlushWait(d time.Duration) SocketOption {
	return func(s *Socket) { s.flushWait = d }
}

// NewSocket constructs a socket transport for the given ws:// or wss:// URL
// and starts its writer goroutine. The connection is established lazily on the
// first Send.
func NewSocket(url string, opts ...SocketOption) *Socket {
	s := &Socket{
		url:         url,
		retry:       time.Second,
		dialTimeout: 5 * time.Second,
		flushWait:   3 * time.Second,
		notify:      make(chan struct{}, 1),
		done:        make(chan struct{}),
		finished:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dial == nil {
		s.dial = s.dialWebsocket
	}
	go s.writeLoop()
	return s
}

func (s *Socket) dialWebsocket(ctx context.Context) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Send queues the event for emission and returns immediately. The only error
// condition is a closed transport; delivery problems are handled by the writer.
func (s *Socket) Send(_ context.Context, ev event.Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSocketClosed
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pending reports how many events are buffered awaiting emission.
func (s *Socket) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close stops accepting events, attempts a final best-effort drain, and waits
// for the writer goroutine up to the configured flush wait.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	select {
	case <-s.finished:
		return nil
	case <-time.After(s.flushWait):
		return fmt.Errorf("socket flush timed out after %v", s.flushWait)
	}
}

func (s *Socket) writeLoop() {
	var conn Conn
	defer func() {
		if conn != nil {
			conn.Close()
		}
		close(s.finished)
	}()

	for {
		select {
		case <-s.done:
			s.drain(&conn, true)
			return
		case <-s.notify:
			if !s.drain(&conn, false) {
				s.drain(&conn, true)
				return
			}
		}
	}
}

// drain delivers queued events in arrival order. In normal mode it retries
// dial and write failures until the queue empties, returning false if Close
// fires mid-drain. In final mode it makes a single best-effort pass with no
// retry sleeps.
func (s *Socket) drain(conn *Conn, final bool) bool {
	for {
		ev, ok := s.peek()
		if !ok {
			return true
		}

		if *conn == nil {
			ctx, cancel := context.WithTimeout(context.Background(), s.dialTimeout)
			c, err := s.dial(ctx)
			cancel()
			if err != nil {
				zap.L().Debug("collector socket dial failed",
					zap.String("url", s.url), zap.Error(err))
				if final {
					return true
				}
				if !s.pause() {
					return false
				}
				continue
			}
			*conn = c
		}

		if err := (*conn).WriteJSON(ev); err != nil {
			zap.L().Warn("socket write failed, requeueing event",
				zap.String("event", ev.Name), zap.Error(err))
			(*conn).Close()
			*conn = nil
			if final {
				return true
			}
			if !s.pause() {
				return false
			}
			continue
		}
		s.pop()
	}
}

// pause waits out the retry interval, returning false if Close fired.
func (s *Socket) pause() bool {
	select {
	case <-s.done:
		return false
	case <-time.After(s.retry):
		return true
	}
}

func (s *Socket) peek() (event.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return event.Event{}, false
	}
	return s.queue[0], true
}

func (s *Socket) pop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) > 0 {
		s.queue = s.queue[1:]
	}
}
