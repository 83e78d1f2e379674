package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// writeClose sends a close control frame with the given code and reason.
func (gw *Gateway) writeClose(pc *partyConn, code int, reason string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	_ = pc.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = pc.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
}

// Auth frames are written before the connection is registered, so there is
// a single writer and no lock is needed.

func (gw *Gateway) sendAuthError(conn *websocket.Conn, message string) error {
	payload, err := json.Marshal(map[string]any{
		"type":    "auth_error",
		"error":   message,
		"success": false,
	})
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (gw *Gateway) sendAuthSuccess(conn *websocket.Conn, partyID string) error {
	payload, err := json.Marshal(map[string]any{
		"type":      "auth_success",
		"message":   "Authentication successful",
		"success":   true,
		"party_id":  partyID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}
