package ws

import (
	"net/http"
	"time"

	"ridepulse/internal/jwt"
	"ridepulse/internal/logger"
	"ridepulse/internal/ports"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second
	readIdleTimeout  = 60 * time.Second
	authDeadline     = 10 * time.Second
	pingInterval     = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Gateway upgrades party connections, authenticates the first frame, and
// feeds inbound messages to the locator and trip services. Outbound pushes
// go through the Registry.
type Gateway struct {
	logger   *logger.Logger
	jwtMgr   *jwt.Manager
	registry *Registry
	locator  ports.LocatorService
	trips    ports.TripService
}

func NewGateway(log *logger.Logger, jwtMgr *jwt.Manager, registry *Registry, locator ports.LocatorService, trips ports.TripService) *Gateway {
	return &Gateway{
		logger:   log,
		jwtMgr:   jwtMgr,
		registry: registry,
		locator:  locator,
		trips:    trips,
	}
}

// ConnectRider handles WebSocket connections from riders with JWT auth.
func (gw *Gateway) ConnectRider(w http.ResponseWriter, r *http.Request) {
	gw.connect(w, r, "rider_id", jwt.RoleRider)
}

// ConnectDriver handles WebSocket connections from drivers with JWT auth.
func (gw *Gateway) ConnectDriver(w http.ResponseWriter, r *http.Request) {
	gw.connect(w, r, "driver_id", jwt.RoleDriver)
}

func (gw *Gateway) connect(w http.ResponseWriter, r *http.Request, pathParam string, role jwt.Role) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		gw.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20) // 1 MiB
	if err := conn.SetReadDeadline(time.Now().Add(authDeadline)); err != nil {
		gw.logger.Error(r.Context(), "ws_set_deadline_failed", "Failed to set initial read deadline", err, nil)
		gw.sendAuthError(conn, "internal server error")
		return
	}

	msgType, firstFrame, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			gw.logger.Error(r.Context(), "ws_auth_timeout", "Client disconnected before authentication", err, nil)
		} else {
			gw.logger.Error(r.Context(), "ws_auth_read_failed", "Failed to read auth message", err, nil)
		}
		gw.sendAuthError(conn, "authentication timeout: please send auth message within 10 seconds")
		return
	}

	if msgType != websocket.TextMessage {
		gw.logger.Error(r.Context(), "ws_auth_invalid_format", "Auth message must be text format", nil, nil)
		gw.sendAuthError(conn, "auth message must be in text format")
		return
	}

	res, err := jwt.ValidateWSAuth(firstFrame, gw.jwtMgr, role)
	if err != nil {
		gw.logger.Error(r.Context(), "ws_auth_failed", "Invalid auth message or token", err, nil)
		gw.sendAuthError(conn, "authentication failed: invalid token")
		return
	}

	// the path param, when present, must match the token subject
	if pathID := r.PathValue(pathParam); pathID != "" && pathID != res.Claims.Subject {
		gw.logger.Error(r.Context(), "ws_auth_failed", "Party ID mismatch", nil, map[string]any{
			"path_id":       pathID,
			"token_subject": res.Claims.Subject,
		})
		gw.sendAuthError(conn, "party ID mismatch")
		return
	}
	partyID := res.Claims.Subject

	if err := gw.sendAuthSuccess(conn, partyID); err != nil {
		gw.logger.Error(r.Context(), "ws_auth_success_failed", "Failed to send auth success message", err, nil)
		return
	}

	gw.logger.Info(r.Context(), "ws_connected", "Party WebSocket connected",
		map[string]any{"party_id": partyID, "role": string(role)})

	_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	})

	// register for outbound pushes; a reconnect replaces this registration
	pc := gw.registry.Register(partyID, conn)
	defer gw.registry.Unregister(partyID, pc)

	// ping loop shares the per-connection writer lock with the push path;
	// done unblocks it when the read loop returns
	done := make(chan struct{})
	defer close(done)
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				pc.mu.Lock()
				_ = conn.SetWriteDeadline(time.Now().Add(ctrlTimeout))
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
				pc.mu.Unlock()
				if err != nil {
					// close the socket to unblock the reader; goroutine exits
					_ = conn.Close()
					gw.logger.Error(r.Context(), "ws_ping_failed", "Failed to send ping", err,
						map[string]any{"party_id": partyID})
					return
				}
			}
		}
	}()

	gw.readLoop(r, pc, partyID, role)
}
