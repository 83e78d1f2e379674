package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ridepulse/internal/contracts"
	"ridepulse/internal/logger"
	"ridepulse/internal/metrics"
	"ridepulse/internal/ports"

	"github.com/gorilla/websocket"
)

const registryWriteTimeout = 5 * time.Second

// partyConn pairs a socket with its writer lock so frames from the push
// path and the ping loop never interleave.
type partyConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (pc *partyConn) writeFrame(payload []byte) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	_ = pc.conn.SetWriteDeadline(time.Now().Add(registryWriteTimeout))
	return pc.conn.WriteMessage(websocket.TextMessage, payload)
}

// Registry tracks which parties currently hold a live socket. A party has
// at most one connection: a later register for the same party closes the
// earlier socket.
type Registry struct {
	logger *logger.Logger

	mu      sync.RWMutex
	parties map[string]*partyConn
}

var _ ports.Notifier = (*Registry)(nil)

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		logger:  log,
		parties: make(map[string]*partyConn),
	}
}

// Register installs conn as the party's connection and returns the handle
// used for writes. Any previous connection for the same party is closed.
func (r *Registry) Register(partyID string, conn *websocket.Conn) *partyConn {
	pc := &partyConn{conn: conn}

	r.mu.Lock()
	old := r.parties[partyID]
	r.parties[partyID] = pc
	r.mu.Unlock()

	if old != nil {
		_ = old.conn.Close()
		r.logger.Info(context.Background(), "ws_replaced", "Replaced existing connection for party",
			map[string]any{"party_id": partyID})
	} else {
		metrics.ConnectedParties.Inc()
	}

	return pc
}

// Unregister removes the party's connection, but only if it is still the
// one being torn down. A reconnect that already replaced it stays.
func (r *Registry) Unregister(partyID string, pc *partyConn) {
	r.mu.Lock()
	current, ok := r.parties[partyID]
	if ok && current == pc {
		delete(r.parties, partyID)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if ok {
		metrics.ConnectedParties.Dec()
	}
}

// IsConnected reports whether the party currently holds a live socket.
func (r *Registry) IsConnected(partyID string) bool {
	r.mu.RLock()
	_, ok := r.parties[partyID]
	r.mu.RUnlock()
	return ok
}

// Connected returns the number of parties with a live socket.
func (r *Registry) Connected() int {
	r.mu.RLock()
	n := len(r.parties)
	r.mu.RUnlock()
	return n
}

// Notify pushes a single event frame to one party. Delivery is
// best-effort: an unconnected party or a failed write yields false and
// nothing else.
func (r *Registry) Notify(partyID, event string, data any) bool {
	r.mu.RLock()
	pc, ok := r.parties[partyID]
	r.mu.RUnlock()

	if !ok {
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		return false
	}

	payload, err := json.Marshal(contracts.WSFrame{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		r.logger.Error(context.Background(), "ws_encode_failed", "Failed to encode outbound frame", err,
			map[string]any{"party_id": partyID, "event": event})
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		return false
	}

	if err := pc.writeFrame(payload); err != nil {
		r.logger.Error(context.Background(), "ws_push_failed", "Failed to push frame to party", err,
			map[string]any{"party_id": partyID, "event": event})
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		return false
	}

	metrics.NotificationsTotal.WithLabelValues("delivered").Inc()
	return true
}

// Broadcast pushes the same event frame to every listed party and returns
// how many frames were actually delivered.
func (r *Registry) Broadcast(partyIDs []string, event string, data any) int {
	delivered := 0
	for _, id := range partyIDs {
		if r.Notify(id, event, data) {
			delivered++
		}
	}
	return delivered
}
