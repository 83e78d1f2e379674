package httpapi

import (
	"net/http"
	"strings"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/ports"
)

type createTripRequest struct {
	RiderID            string  `json:"rider_id,omitempty"`
	OriginLat          float64 `json:"origin_lat"`
	OriginLng          float64 `json:"origin_lng"`
	DestinationLat     float64 `json:"destination_lat,omitempty"`
	DestinationLng     float64 `json:"destination_lng,omitempty"`
	DestinationAddress string  `json:"destination_address,omitempty"`
	VehicleClass       string  `json:"vehicle_class"`
}

func (handler *Handler) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createTripRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	riderID, ok := handler.subject(ctx, w, r, req.RiderID)
	if !ok {
		return
	}

	origin, err := geo.NewPoint(req.OriginLat, req.OriginLng)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "origin: "+err.Error(), err)
		return
	}

	var destination geo.Point
	if req.DestinationLat != 0 || req.DestinationLng != 0 {
		destination, err = geo.NewPoint(req.DestinationLat, req.DestinationLng)
		if err != nil {
			handler.httpError(ctx, w, http.StatusBadRequest, "destination: "+err.Error(), err)
			return
		}
	} else if strings.TrimSpace(req.DestinationAddress) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "destination coordinates or address required", nil)
		return
	}

	class, err := trip.ParseVehicleClass(req.VehicleClass)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}

	result, err := handler.trips.Create(ctx, ports.CreateTripInput{
		RiderID:            riderID,
		Origin:             origin,
		Destination:        destination,
		DestinationAddress: req.DestinationAddress,
		Class:              class,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusCreated, result)
}

func (handler *Handler) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	partyID, ok := handler.subject(ctx, w, r, "")
	if !ok {
		return
	}

	view, err := handler.trips.Get(ctx, r.PathValue("trip_id"), partyID)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, view)
}

type acceptTripRequest struct {
	DriverID string `json:"driver_id,omitempty"`
}

func (handler *Handler) handleAcceptTrip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req acceptTripRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	driverID, ok := handler.subject(ctx, w, r, req.DriverID)
	if !ok {
		return
	}

	result, err := handler.trips.Accept(ctx, ports.AcceptTripInput{
		TripID:   r.PathValue("trip_id"),
		DriverID: driverID,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, result)
}

type verifyTripRequest struct {
	DriverID string `json:"driver_id,omitempty"`
	Code     string `json:"verification_code"`
}

func (handler *Handler) handleVerifyTrip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyTripRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	driverID, ok := handler.subject(ctx, w, r, req.DriverID)
	if !ok {
		return
	}

	result, err := handler.trips.Verify(ctx, ports.VerifyTripInput{
		TripID:   r.PathValue("trip_id"),
		DriverID: driverID,
		Code:     req.Code,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, result)
}

type completeTripRequest struct {
	DriverID string `json:"driver_id,omitempty"`
}

func (handler *Handler) handleCompleteTrip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req completeTripRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	driverID, ok := handler.subject(ctx, w, r, req.DriverID)
	if !ok {
		return
	}

	result, err := handler.trips.Complete(ctx, ports.CompleteTripInput{
		TripID:   r.PathValue("trip_id"),
		DriverID: driverID,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, result)
}

type cancelTripRequest struct {
	RiderID string `json:"rider_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func (handler *Handler) handleCancelTrip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req cancelTripRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	riderID, ok := handler.subject(ctx, w, r, req.RiderID)
	if !ok {
		return
	}

	result, err := handler.trips.Cancel(ctx, ports.CancelTripInput{
		TripID:  r.PathValue("trip_id"),
		RiderID: riderID,
		Reason:  req.Reason,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, result)
}
