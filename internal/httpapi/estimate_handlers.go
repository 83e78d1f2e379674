package httpapi

import (
	"net/http"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/ports"
)

type estimateRequest struct {
	OriginLat      float64 `json:"origin_lat"`
	OriginLng      float64 `json:"origin_lng"`
	DestinationLat float64 `json:"destination_lat"`
	DestinationLng float64 `json:"destination_lng"`
}

func (handler *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req estimateRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	origin, err := geo.NewPoint(req.OriginLat, req.OriginLng)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "origin: "+err.Error(), err)
		return
	}
	destination, err := geo.NewPoint(req.DestinationLat, req.DestinationLng)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "destination: "+err.Error(), err)
		return
	}

	result, err := handler.fares.Estimate(ctx, ports.EstimateInput{
		Origin:      origin,
		Destination: destination,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, result)
}
