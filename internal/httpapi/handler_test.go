package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/domain/profile"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/jwt"
	"ridepulse/internal/logger"
	"ridepulse/internal/ports"
	"ridepulse/internal/routing"
	"ridepulse/internal/ws"
)

// ----- stub services -----

type stubTrips struct {
	err        error
	lastCreate ports.CreateTripInput
	lastAccept ports.AcceptTripInput
}

func (s *stubTrips) Create(_ context.Context, in ports.CreateTripInput) (ports.CreateTripResult, error) {
	s.lastCreate = in
	if s.err != nil {
		return ports.CreateTripResult{}, s.err
	}
	return ports.CreateTripResult{TripID: "trip-1", Status: string(trip.StatusPending), FareAmount: 1770}, nil
}

func (s *stubTrips) Get(context.Context, string, string) (ports.TripView, error) {
	if s.err != nil {
		return ports.TripView{}, s.err
	}
	return ports.TripView{TripID: "trip-1", Status: string(trip.StatusPending)}, nil
}

func (s *stubTrips) Accept(_ context.Context, in ports.AcceptTripInput) (ports.AcceptTripResult, error) {
	s.lastAccept = in
	if s.err != nil {
		return ports.AcceptTripResult{}, s.err
	}
	return ports.AcceptTripResult{TripID: in.TripID, Status: string(trip.StatusAccepted), AcceptedAt: time.Now()}, nil
}

func (s *stubTrips) Verify(_ context.Context, in ports.VerifyTripInput) (ports.VerifyTripResult, error) {
	if s.err != nil {
		return ports.VerifyTripResult{}, s.err
	}
	return ports.VerifyTripResult{TripID: in.TripID, Status: string(trip.StatusOngoing)}, nil
}

func (s *stubTrips) Complete(_ context.Context, in ports.CompleteTripInput) (ports.CompleteTripResult, error) {
	if s.err != nil {
		return ports.CompleteTripResult{}, s.err
	}
	return ports.CompleteTripResult{TripID: in.TripID, Status: string(trip.StatusCompleted)}, nil
}

func (s *stubTrips) Cancel(_ context.Context, in ports.CancelTripInput) (ports.CancelTripResult, error) {
	if s.err != nil {
		return ports.CancelTripResult{}, s.err
	}
	return ports.CancelTripResult{TripID: in.TripID, Status: string(trip.StatusCancelled)}, nil
}

func (s *stubTrips) SendMessage(_ context.Context, in ports.SendMessageInput) (ports.MessageView, error) {
	if s.err != nil {
		return ports.MessageView{}, s.err
	}
	return ports.MessageView{MessageID: "msg-1", SenderID: in.SenderID, Text: in.Text}, nil
}

func (s *stubTrips) ListMessages(context.Context, string, string, int) ([]ports.MessageView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []ports.MessageView{}, nil
}

type stubFares struct{ err error }

func (s *stubFares) Estimate(context.Context, ports.EstimateInput) (ports.EstimateResult, error) {
	if s.err != nil {
		return ports.EstimateResult{}, s.err
	}
	return ports.EstimateResult{DistanceKm: 5.2, DurationMinutes: 15, Fares: []ports.ClassFare{
		{Class: "ECONOMY", Fare: 1770},
	}}, nil
}

type stubRatings struct{ err error }

func (s *stubRatings) Submit(_ context.Context, in ports.SubmitRatingInput) (ports.SubmitRatingResult, error) {
	if s.err != nil {
		return ports.SubmitRatingResult{}, s.err
	}
	return ports.SubmitRatingResult{TripID: in.TripID, Stars: in.Stars, NewAverage: 4.3, NewCount: 4}, nil
}

type stubLocator struct{ err error }

func (s *stubLocator) FindCandidates(context.Context, ports.FindCandidatesInput) ([]ports.Candidate, error) {
	return nil, s.err
}
func (s *stubLocator) UpsertPosition(context.Context, string, geo.Point) error { return s.err }
func (s *stubLocator) SetAvailability(context.Context, string, bool) error     { return s.err }

type stubAdmin struct{ err error }

func (s *stubAdmin) Overview(context.Context) (ports.OverviewResult, error) {
	if s.err != nil {
		return ports.OverviewResult{}, s.err
	}
	return ports.OverviewResult{Timestamp: time.Now(), TripsByStatus: map[string]int{"PENDING": 2}}, nil
}

func (s *stubAdmin) ActiveTrips(context.Context, string, string) (ports.ActiveTripsResult, error) {
	if s.err != nil {
		return ports.ActiveTripsResult{}, s.err
	}
	return ports.ActiveTripsResult{Trips: []ports.ActiveTripRow{}, Page: 1, PageSize: 10}, nil
}

type stubRiders struct{ err error }

func (s *stubRiders) Create(context.Context, *profile.Rider) error { return s.err }
func (s *stubRiders) GetByID(context.Context, string) (*profile.Rider, error) {
	return nil, s.err
}
func (s *stubRiders) AbsorbRating(context.Context, string, int) (profile.RatingAggregate, error) {
	return profile.RatingAggregate{}, s.err
}

// ----- harness -----

type apiEnv struct {
	server *httptest.Server
	auth   *jwt.Manager
	trips  *stubTrips
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	log := logger.New("test")
	auth := jwt.NewManager("test-secret", time.Hour)
	trips := &stubTrips{}
	locator := &stubLocator{}
	registry := ws.NewRegistry(log)
	gateway := ws.NewGateway(log, auth, registry, locator, trips)

	handler := NewHandler(
		log, auth, trips,
		&stubFares{}, &stubRatings{}, locator, &stubAdmin{},
		gateway, &stubRiders{}, nil,
		func(context.Context) map[string]string {
			return map[string]string{"postgres": "ok", "redis": "ok", "rabbitmq": "ok"}
		},
	)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &apiEnv{server: server, auth: auth, trips: trips}
}

func (env *apiEnv) token(t *testing.T, subject string, role jwt.Role) string {
	t.Helper()
	token, _, err := env.auth.IssuePartyToken(subject, role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (env *apiEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, env.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// ----- tests -----

func TestCreateTripHappyPath(t *testing.T) {
	env := newAPIEnv(t)
	token := env.token(t, "rider-1", jwt.RoleRider)

	resp := env.do(t, http.MethodPost, "/trips", token, map[string]any{
		"origin_lat":      43.238949,
		"origin_lng":      76.889709,
		"destination_lat": 43.262654,
		"destination_lng": 76.928640,
		"vehicle_class":   "economy",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var out ports.CreateTripResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TripID != "trip-1" {
		t.Errorf("trip_id = %q", out.TripID)
	}
	if env.trips.lastCreate.RiderID != "rider-1" {
		t.Errorf("rider from token = %q, want rider-1", env.trips.lastCreate.RiderID)
	}
	if env.trips.lastCreate.Class != trip.ClassEconomy {
		t.Errorf("class = %q", env.trips.lastCreate.Class)
	}
}

func TestCreateTripRequiresRiderRole(t *testing.T) {
	env := newAPIEnv(t)
	token := env.token(t, "driver-1", jwt.RoleDriver)

	resp := env.do(t, http.MethodPost, "/trips", token, map[string]any{
		"origin_lat": 1.0, "origin_lng": 1.0, "destination_lat": 2.0, "destination_lng": 2.0,
		"vehicle_class": "ECONOMY",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestCreateTripRejectsMissingToken(t *testing.T) {
	env := newAPIEnv(t)

	resp := env.do(t, http.MethodPost, "/trips", "", map[string]any{
		"origin_lat": 1.0, "origin_lng": 1.0, "destination_lat": 2.0, "destination_lng": 2.0,
		"vehicle_class": "ECONOMY",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestCreateTripRejectsBodySubjectMismatch(t *testing.T) {
	env := newAPIEnv(t)
	token := env.token(t, "rider-1", jwt.RoleRider)

	resp := env.do(t, http.MethodPost, "/trips", token, map[string]any{
		"rider_id":   "rider-2",
		"origin_lat": 1.0, "origin_lng": 1.0, "destination_lat": 2.0, "destination_lng": 2.0,
		"vehicle_class": "ECONOMY",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestCreateTripRejectsUnknownField(t *testing.T) {
	env := newAPIEnv(t)
	token := env.token(t, "rider-1", jwt.RoleRider)

	resp := env.do(t, http.MethodPost, "/trips", token, map[string]any{
		"origin_lat": 1.0, "origin_lng": 1.0, "destination_lat": 2.0, "destination_lng": 2.0,
		"vehicle_class": "ECONOMY", "bogus": true,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateTripRequiresJSONContentType(t *testing.T) {
	env := newAPIEnv(t)
	token := env.token(t, "rider-1", jwt.RoleRider)

	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/trips", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", resp.StatusCode)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not_found", fmt.Errorf("%w: trip", trip.ErrNotFound), http.StatusNotFound},
		{"unauthorized", trip.ErrUnauthorized, http.StatusForbidden},
		{"already_taken", trip.ErrAlreadyTaken, http.StatusConflict},
		{"invalid_code", trip.ErrInvalidCode, http.StatusUnprocessableEntity},
		{"invalid_transition", &trip.InvalidTransitionError{Current: trip.StatusOngoing, Attempted: trip.StatusCancelled}, http.StatusConflict},
		{"route_unavailable", routing.ErrRouteUnavailable, http.StatusBadGateway},
		{"bad_input", fmt.Errorf("%w: class", trip.ErrInput), http.StatusBadRequest},
		{"storage", trip.ErrStorage, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newAPIEnv(t)
			env.trips.err = tc.err
			token := env.token(t, "driver-1", jwt.RoleDriver)

			resp := env.do(t, http.MethodPost, "/trips/trip-1/accept", token, map[string]any{})
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}

			var body struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Error == "" {
				t.Error("error body is empty")
			}
		})
	}
}

func TestAcceptUsesTokenSubject(t *testing.T) {
	env := newAPIEnv(t)
	token := env.token(t, "driver-7", jwt.RoleDriver)

	resp := env.do(t, http.MethodPost, "/trips/trip-1/accept", token, map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if env.trips.lastAccept.DriverID != "driver-7" {
		t.Errorf("driver from token = %q, want driver-7", env.trips.lastAccept.DriverID)
	}
	if env.trips.lastAccept.TripID != "trip-1" {
		t.Errorf("trip id = %q, want trip-1", env.trips.lastAccept.TripID)
	}
}

func TestEstimateIsOpen(t *testing.T) {
	env := newAPIEnv(t)

	resp := env.do(t, http.MethodPost, "/estimates", "", map[string]any{
		"origin_lat": 43.238949, "origin_lng": 76.889709,
		"destination_lat": 43.262654, "destination_lng": 76.928640,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out ports.EstimateResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.DistanceKm != 5.2 || len(out.Fares) != 1 {
		t.Errorf("unexpected estimate: %+v", out)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	env := newAPIEnv(t)

	rider := env.token(t, "rider-1", jwt.RoleRider)
	resp := env.do(t, http.MethodGet, "/admin/overview", rider, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("rider status = %d, want 403", resp.StatusCode)
	}

	admin := env.token(t, "ops-1", jwt.RoleAdmin)
	resp = env.do(t, http.MethodGet, "/admin/overview", admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", resp.StatusCode)
	}
}

func TestTokenMint(t *testing.T) {
	env := newAPIEnv(t)

	resp := env.do(t, http.MethodPost, "/tokens", "", map[string]any{
		"subject": "rider-9", "role": "rider",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Role != "RIDER" {
		t.Errorf("role = %q, want RIDER", out.Role)
	}

	// minted token must pass the middleware
	getResp := env.do(t, http.MethodGet, "/trips/trip-1", out.Token, nil)
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get with minted token = %d, want 200", getResp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	resp := env.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "ok" || out.Checks["postgres"] != "ok" {
		t.Errorf("unexpected health: %+v", out)
	}
}
