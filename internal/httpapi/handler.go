package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/jwt"
	"ridepulse/internal/logger"
	"ridepulse/internal/ports"
	"ridepulse/internal/routing"
	"ridepulse/internal/ws"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler adapts HTTP requests to the engine's services.
type Handler struct {
	logger  *logger.Logger
	auth    *jwt.Manager
	trips   ports.TripService
	fares   ports.FareService
	ratings ports.RatingService
	locator ports.LocatorService
	admin   ports.AdminService
	gateway *ws.Gateway
	riders  ports.RiderRepository
	drivers ports.DriverRepository
	health  func(ctx context.Context) map[string]string
}

// NewHandler wires an HTTP handler around the engine's services.
func NewHandler(
	log *logger.Logger,
	auth *jwt.Manager,
	trips ports.TripService,
	fares ports.FareService,
	ratings ports.RatingService,
	locator ports.LocatorService,
	adminSvc ports.AdminService,
	gateway *ws.Gateway,
	riders ports.RiderRepository,
	drivers ports.DriverRepository,
	health func(ctx context.Context) map[string]string,
) *Handler {
	return &Handler{
		logger:  log,
		auth:    auth,
		trips:   trips,
		fares:   fares,
		ratings: ratings,
		locator: locator,
		admin:   adminSvc,
		gateway: gateway,
		riders:  riders,
		drivers: drivers,
		health:  health,
	}
}

// RegisterRoutes mounts all endpoints on the provided mux.
func (handler *Handler) RegisterRoutes(mux *http.ServeMux) {
	rider := jwt.AuthMiddlewareFunc(handler.auth, jwt.RoleRider)
	driver := jwt.AuthMiddlewareFunc(handler.auth, jwt.RoleDriver)
	party := jwt.AuthMiddlewareFunc(handler.auth, jwt.RoleRider, jwt.RoleDriver)
	admin := jwt.AuthMiddlewareFunc(handler.auth, jwt.RoleAdmin)

	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, handler.instrument(pattern, h))
	}

	route("POST /trips", rider(handler.handleCreateTrip))
	route("GET /trips/{trip_id}", party(handler.handleGetTrip))
	route("POST /trips/{trip_id}/accept", driver(handler.handleAcceptTrip))
	route("POST /trips/{trip_id}/verify", driver(handler.handleVerifyTrip))
	route("POST /trips/{trip_id}/complete", driver(handler.handleCompleteTrip))
	route("POST /trips/{trip_id}/cancel", rider(handler.handleCancelTrip))
	route("POST /trips/{trip_id}/ratings", party(handler.handleSubmitRating))
	route("POST /trips/{trip_id}/messages", party(handler.handleSendMessage))
	route("GET /trips/{trip_id}/messages", party(handler.handleListMessages))

	route("POST /estimates", handler.handleEstimate)

	route("POST /riders", handler.handleRegisterRider)
	route("POST /drivers", handler.handleRegisterDriver)
	route("POST /drivers/{driver_id}/location", driver(handler.handleDriverLocation))
	route("POST /drivers/{driver_id}/availability", driver(handler.handleDriverAvailability))

	route("GET /admin/overview", admin(handler.handleOverview))
	route("GET /admin/trips/active", admin(handler.handleActiveTrips))

	// WebSocket endpoints are not instrumented (the recorder cannot hijack)
	// and authenticate through their first frame rather than a header.
	mux.HandleFunc("GET /ws/rider/{rider_id}", handler.gateway.ConnectRider)
	mux.HandleFunc("GET /ws/driver/{driver_id}", handler.gateway.ConnectDriver)

	route("POST /tokens", handler.handleCreateToken)
	route("GET /healthz", handler.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// ----- shared helpers -----

func (handler *Handler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *Handler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// serviceError maps a domain error to the right HTTP refusal.
func (handler *Handler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	var ite *trip.InvalidTransitionError

	switch {
	case errors.Is(err, trip.ErrNotFound):
		handler.httpError(ctx, w, http.StatusNotFound, "trip not found", err)
	case errors.Is(err, trip.ErrUnauthorized):
		handler.httpError(ctx, w, http.StatusForbidden, "not a participant of this trip", err)
	case errors.Is(err, trip.ErrAlreadyTaken):
		handler.httpError(ctx, w, http.StatusConflict, "trip already taken by another driver", err)
	case errors.Is(err, trip.ErrAlreadyRated):
		handler.httpError(ctx, w, http.StatusConflict, "trip already rated by this side", err)
	case errors.Is(err, trip.ErrNotCompleted):
		handler.httpError(ctx, w, http.StatusConflict, "trip is not completed", err)
	case errors.Is(err, trip.ErrInvalidCode):
		handler.httpError(ctx, w, http.StatusUnprocessableEntity, "verification code mismatch", err)
	case errors.As(err, &ite):
		handler.httpError(ctx, w, http.StatusConflict, ite.Error(), err)
	case errors.Is(err, routing.ErrRouteUnavailable):
		handler.httpError(ctx, w, http.StatusBadGateway, "route could not be resolved", err)
	case errors.Is(err, routing.ErrAddressUnresolved):
		handler.httpError(ctx, w, http.StatusUnprocessableEntity, "destination address could not be resolved", err)
	case errors.Is(err, trip.ErrInput):
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, geo.ErrInvalidLatitude), errors.Is(err, geo.ErrInvalidLongitude):
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, "internal error", err)
	}
}

// decodeJSON enforces content type, size limit and strict field matching.
func (handler *Handler) decodeJSON(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return false
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return false
	}
	return true
}

// subject verifies that the acting party in the body, when present, matches
// the token subject, and returns the subject.
func (handler *Handler) subject(ctx context.Context, w http.ResponseWriter, r *http.Request, bodyID string) (string, bool) {
	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return "", false
	}
	sub := strings.TrimSpace(claims.Subject)
	if bodyID != "" && bodyID != sub {
		handler.httpError(ctx, w, http.StatusForbidden, "party id does not match token subject", errors.New("party/token mismatch"))
		return "", false
	}
	return sub, true
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *Handler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
