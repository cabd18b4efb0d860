// Package feed provides a websocket-backed live view onto internal/notify's
// event Bus: each upgraded HTTP connection becomes a Subscriber that
// receives every Event broadcast for its organization as JSON frames.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/adityaaa08012006/decivue-sub004/internal/notify"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The live feed is read by browser dashboards on arbitrary origins in
	// the standard profile's ingress setup; authentication happens before
	// the upgrade via the request's bearer token, not via Origin checks.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Subscriber adapts one websocket connection to notify.Subscriber.
type Subscriber struct {
	id     string
	orgID  string
	ctx    context.Context
	cancel context.CancelFunc
	conn   *websocket.Conn
	send   chan notify.Event
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

func newSubscriber(conn *websocket.Conn, orgID string, logger *slog.Logger) *Subscriber {
	ctx, cancel := context.WithCancel(context.Background())
	return &Subscriber{
		id:     uuid.New().String(),
		orgID:  orgID,
		ctx:    ctx,
		cancel: cancel,
		conn:   conn,
		send:   make(chan notify.Event, sendBufferSize),
		logger: logger,
	}
}

// ID returns the subscriber's unique identifier.
func (s *Subscriber) ID() string { return s.id }

// OrgID returns the organization this subscriber is scoped to.
func (s *Subscriber) OrgID() string { return s.orgID }

// Context is cancelled once the connection closes.
func (s *Subscriber) Context() context.Context { return s.ctx }

// Send queues event for delivery on the write pump. Returns
// notify.ErrSubscriberClosed if the send buffer is full (a slow reader).
func (s *Subscriber) Send(event notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return notify.ErrSubscriberClosed
	}

	select {
	case s.send <- event:
		return nil
	default:
		return notify.ErrSubscriberClosed
	}
}

// Close cancels the subscriber context and closes the websocket connection.
// Safe to call more than once or concurrently with Send.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	close(s.send)
	return s.conn.Close()
}

func (s *Subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				s.logger.Warn("failed to marshal event", "error", err)
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.ctx.Done():
			return
		}
	}
}

// readPump discards inbound frames (the feed is broadcast-only) but is
// required to process control frames (pong, close) per gorilla/websocket's
// connection-handling contract.
func (s *Subscriber) readPump(bus notify.Bus) {
	defer func() {
		bus.Unsubscribe(s)
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Handler upgrades HTTP requests to websocket connections and registers
// each as a Subscriber on bus, scoped to the organization resolved by
// orgID (typically extracted from the request's authenticated identity
// upstream of this handler).
func Handler(bus notify.Bus, logger *slog.Logger, orgID func(r *http.Request) string) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		org := ""
		if orgID != nil {
			org = orgID(r)
		}

		sub := newSubscriber(conn, org, logger)
		if err := bus.Subscribe(sub); err != nil {
			logger.Warn("failed to subscribe", "error", err)
			conn.Close()
			return
		}

		go sub.writePump()
		sub.readPump(bus)
	}
}

var _ notify.Subscriber = (*Subscriber)(nil)
