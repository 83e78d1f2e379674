package httpapi

import (
	"net/http"
	"strconv"

	"ridepulse/internal/ports"
)

const defaultMessageLimit = 50

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (handler *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sendMessageRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	senderID, ok := handler.subject(ctx, w, r, "")
	if !ok {
		return
	}

	view, err := handler.trips.SendMessage(ctx, ports.SendMessageInput{
		TripID:   r.PathValue("trip_id"),
		SenderID: senderID,
		Text:     req.Text,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusCreated, view)
}

func (handler *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	partyID, ok := handler.subject(ctx, w, r, "")
	if !ok {
		return
	}

	limit := defaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	views, err := handler.trips.ListMessages(ctx, r.PathValue("trip_id"), partyID, limit)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	type listResponse struct {
		Messages []ports.MessageView `json:"messages"`
	}
	handler.jsonResponse(ctx, w, http.StatusOK, listResponse{Messages: views})
}
