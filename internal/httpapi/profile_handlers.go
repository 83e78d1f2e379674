package httpapi

import (
	"errors"
	"net/http"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/domain/profile"
	"ridepulse/internal/domain/trip"
)

type registerRiderRequest struct {
	RiderID string `json:"rider_id"`
	Name    string `json:"name"`
}

func (handler *Handler) handleRegisterRider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRiderRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	rider, err := profile.NewRider(req.RiderID, req.Name)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}
	if err := handler.riders.Create(ctx, rider); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	type response struct {
		RiderID string `json:"rider_id"`
		Name    string `json:"name"`
	}
	handler.jsonResponse(ctx, w, http.StatusCreated, response{RiderID: rider.ID, Name: rider.Name})
}

type registerDriverRequest struct {
	DriverID     string `json:"driver_id"`
	Name         string `json:"name"`
	VehicleClass string `json:"vehicle_class"`
}

func (handler *Handler) handleRegisterDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerDriverRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	class, err := trip.ParseVehicleClass(req.VehicleClass)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}
	driver, err := profile.NewDriver(req.DriverID, req.Name, class)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}
	if err := handler.drivers.Create(ctx, driver); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	type response struct {
		DriverID     string `json:"driver_id"`
		Name         string `json:"name"`
		VehicleClass string `json:"vehicle_class"`
	}
	handler.jsonResponse(ctx, w, http.StatusCreated, response{
		DriverID:     driver.ID,
		Name:         driver.Name,
		VehicleClass: string(driver.Class),
	})
}

type driverLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// handleDriverLocation is the HTTP fallback for drivers without a live
// WebSocket; the gateway's location_update frame is the primary path.
func (handler *Handler) handleDriverLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req driverLocationRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	driverID, ok := handler.subject(ctx, w, r, "")
	if !ok {
		return
	}
	if r.PathValue("driver_id") != driverID {
		handler.httpError(ctx, w, http.StatusForbidden, "driver id does not match token subject", errors.New("party/token mismatch"))
		return
	}

	position, err := geo.NewPoint(req.Latitude, req.Longitude)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}
	if err := handler.locator.UpsertPosition(ctx, driverID, position); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, nil)
}

type driverAvailabilityRequest struct {
	Available bool `json:"available"`
}

func (handler *Handler) handleDriverAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req driverAvailabilityRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	driverID, ok := handler.subject(ctx, w, r, "")
	if !ok {
		return
	}
	if r.PathValue("driver_id") != driverID {
		handler.httpError(ctx, w, http.StatusForbidden, "driver id does not match token subject", errors.New("party/token mismatch"))
		return
	}

	if err := handler.locator.SetAvailability(ctx, driverID, req.Available); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	type response struct {
		DriverID  string `json:"driver_id"`
		Available bool   `json:"available"`
	}
	handler.jsonResponse(ctx, w, http.StatusOK, response{DriverID: driverID, Available: req.Available})
}
