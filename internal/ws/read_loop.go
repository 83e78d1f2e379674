package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"ridepulse/internal/contracts"
	"ridepulse/internal/domain/geo"
	"ridepulse/internal/jwt"
	"ridepulse/internal/ports"

	"github.com/gorilla/websocket"
)

// readLoop routes inbound messages until the connection closes.
func (gw *Gateway) readLoop(r *http.Request, pc *partyConn, partyID string, role jwt.Role) {
	conn := pc.conn

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				gw.logger.Error(r.Context(), "ws_unexpected_close", "Connection closed unexpectedly", err,
					map[string]any{"party_id": partyID})
				gw.writeClose(pc, websocket.CloseInternalServerErr, "internal error")
			} else {
				gw.logger.Info(r.Context(), "ws_connection_closed", "Connection closed normally",
					map[string]any{"party_id": partyID})
				gw.writeClose(pc, websocket.CloseNormalClosure, "bye")
			}
			return
		}

		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(payload, &head); err != nil {
			_ = pc.writeFrame([]byte(`{"type":"error","error":"bad json"}`))
			continue
		}

		switch head.Type {
		case contracts.MsgTypeLocationUpdate:
			if role != jwt.RoleDriver {
				_ = pc.writeFrame([]byte(`{"type":"error","error":"location updates are driver-only"}`))
				continue
			}
			gw.handleLocationUpdate(r, pc, partyID, payload)

		case contracts.MsgTypeAvailability:
			if role != jwt.RoleDriver {
				_ = pc.writeFrame([]byte(`{"type":"error","error":"availability is driver-only"}`))
				continue
			}
			gw.handleAvailability(r, pc, partyID, payload)

		case contracts.MsgTypeChat:
			gw.handleChat(r, pc, partyID, payload)

		default:
			_ = pc.writeFrame([]byte(`{"type":"error","error":"unknown message type"}`))
		}
	}
}

func (gw *Gateway) handleLocationUpdate(r *http.Request, pc *partyConn, driverID string, payload []byte) {
	var msg contracts.WSLocationUpdate
	if err := json.Unmarshal(payload, &msg); err != nil {
		_ = pc.writeFrame([]byte(`{"type":"error","error":"bad location_update payload"}`))
		return
	}

	position, err := geo.NewPoint(msg.Latitude, msg.Longitude)
	if err != nil {
		gw.logger.Error(r.Context(), "ws_validation_error", "Invalid driver position", err,
			map[string]any{"driver_id": driverID})
		_ = pc.writeFrame([]byte(`{"type":"error","error":"invalid coordinates"}`))
		return
	}

	if err := gw.locator.UpsertPosition(r.Context(), driverID, position); err != nil {
		gw.logger.Error(r.Context(), "location_update_failed", "Failed to store driver position", err,
			map[string]any{"driver_id": driverID})
		_ = pc.writeFrame([]byte(`{"type":"error","error":"failed to store position"}`))
		return
	}

	_ = pc.writeFrame([]byte(`{"type":"location_ack","status":"ok"}`))
}

func (gw *Gateway) handleAvailability(r *http.Request, pc *partyConn, driverID string, payload []byte) {
	var msg contracts.WSAvailabilityUpdate
	if err := json.Unmarshal(payload, &msg); err != nil {
		_ = pc.writeFrame([]byte(`{"type":"error","error":"bad availability payload"}`))
		return
	}

	if err := gw.locator.SetAvailability(r.Context(), driverID, msg.Available); err != nil {
		gw.logger.Error(r.Context(), "availability_update_failed", "Failed to update driver availability", err,
			map[string]any{"driver_id": driverID, "available": msg.Available})
		_ = pc.writeFrame([]byte(`{"type":"error","error":"failed to update availability"}`))
		return
	}

	_ = pc.writeFrame([]byte(`{"type":"availability_ack","status":"ok"}`))
}

func (gw *Gateway) handleChat(r *http.Request, pc *partyConn, partyID string, payload []byte) {
	var msg contracts.WSChatMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		_ = pc.writeFrame([]byte(`{"type":"error","error":"bad chat payload"}`))
		return
	}

	_, err := gw.trips.SendMessage(r.Context(), ports.SendMessageInput{
		TripID:   msg.TripID,
		SenderID: partyID,
		Text:     msg.Text,
	})
	if err != nil {
		gw.logger.Error(r.Context(), "chat_send_failed", "Failed to relay chat message", err,
			map[string]any{"party_id": partyID, "trip_id": msg.TripID})
		_ = pc.writeFrame([]byte(`{"type":"error","error":"failed to send message"}`))
		return
	}

	_ = pc.writeFrame([]byte(`{"type":"chat_ack","status":"ok"}`))
}
