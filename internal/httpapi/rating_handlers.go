package httpapi

import (
	"net/http"

	"ridepulse/internal/ports"
)

type submitRatingRequest struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment,omitempty"`
}

func (handler *Handler) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitRatingRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	raterID, ok := handler.subject(ctx, w, r, "")
	if !ok {
		return
	}

	result, err := handler.ratings.Submit(ctx, ports.SubmitRatingInput{
		TripID:  r.PathValue("trip_id"),
		RaterID: raterID,
		Stars:   req.Stars,
		Comment: req.Comment,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusCreated, result)
}
