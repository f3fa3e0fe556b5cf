// Package notify fans portal events out to live admin subscribers over
// websockets.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/infra/observability"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultBuffer = 16
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
)

// Subscription receives encoded events until it is cancelled or the hub
// drops it for falling behind. C is closed in both cases.
type Subscription struct {
	C   <-chan []byte
	hub *Hub
	ch  chan []byte
}

// Cancel detaches the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.hub.remove(s.ch)
}

// Hub is the in-process event bus behind GET /v1/admin/live. It implements
// port.EventPublisher.
type Hub struct {
	mu       sync.Mutex
	clients  map[chan []byte]struct{}
	buffer   int
	upgrader websocket.Upgrader
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewHub creates a hub. buffer bounds how many events a subscriber may lag
// behind before it is dropped; zero selects a default.
func NewHub(buffer int, allowedOrigins []string, metrics *observability.Metrics, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		clients: make(map[chan []byte]struct{}),
		buffer:  buffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		metrics: metrics,
		logger:  logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan []byte, h.buffer)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetLiveSubscribers(n)
	return &Subscription{C: ch, hub: h, ch: ch}
}

func (h *Hub) remove(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, ch)
	close(ch)
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetLiveSubscribers(n)
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish encodes e and offers it to every subscriber without blocking.
// Subscribers whose buffer is full are dropped.
func (h *Hub) Publish(_ context.Context, e domain.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("encode event", zap.String("type", e.Type), zap.Error(err))
		return
	}
	h.metrics.IncrEvent(e.Type)

	h.mu.Lock()
	dropped := 0
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
			delete(h.clients, ch)
			close(ch)
			dropped++
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	if dropped > 0 {
		h.logger.Warn("dropped slow live subscribers", zap.Int("dropped", dropped), zap.String("type", e.Type))
		h.metrics.SetLiveSubscribers(n)
	}
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
	h.metrics.SetLiveSubscribers(0)
}

// ServeWS upgrades the request and streams events until the peer goes away
// or the subscription is dropped. Callers authenticate before calling.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	sub := h.Subscribe()
	h.logger.Info("live subscriber connected", zap.String("remote_addr", r.RemoteAddr))

	done := make(chan struct{})
	go h.readPump(conn, done)
	h.writePump(conn, sub, done)

	sub.Cancel()
	conn.Close()
	h.logger.Info("live subscriber disconnected", zap.String("remote_addr", r.RemoteAddr))
}

// readPump discards client messages and keeps the read deadline fresh.
func (h *Hub) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("live subscriber read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, sub *Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber dropped"))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
