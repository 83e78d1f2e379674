package ports

import (
	"context"
	"time"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/domain/trip"
)

// ----- DTOs for Trip Service -----

// CreateTripInput is the validated input required to create a trip.
type CreateTripInput struct {
	RiderID            string
	Origin             geo.Point
	Destination        geo.Point
	DestinationAddress string // optional, geocoded when Destination is zero
	Class              trip.VehicleClass
}

// CreateTripResult is returned by TripService.Create().
type CreateTripResult struct {
	TripID            string  `json:"trip_id"`
	TripNumber        string  `json:"trip_number"`
	Status            string  `json:"status"`
	FareAmount        float64 `json:"fare_amount"`
	DistanceKm        float64 `json:"distance_km"`
	DurationMinutes   int     `json:"duration_minutes"`
	CandidatesOffered int     `json:"candidates_offered"`
}

// AcceptTripInput is the validated input for POST /trips/{trip_id}/accept.
type AcceptTripInput struct {
	TripID   string
	DriverID string
}

// AcceptTripResult matches the API response for a won acceptance.
type AcceptTripResult struct {
	TripID     string    `json:"trip_id"`
	Status     string    `json:"status"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// VerifyTripInput is the validated input for POST /trips/{trip_id}/verify.
type VerifyTripInput struct {
	TripID   string
	DriverID string
	Code     string
}

// VerifyTripResult matches the API response for a verified start.
type VerifyTripResult struct {
	TripID    string    `json:"trip_id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// CompleteTripInput is the validated input for POST /trips/{trip_id}/complete.
type CompleteTripInput struct {
	TripID   string
	DriverID string
}

// CompleteTripResult matches the API response for a completed trip.
type CompleteTripResult struct {
	TripID      string    `json:"trip_id"`
	Status      string    `json:"status"`
	CompletedAt time.Time `json:"completed_at"`
	FareAmount  float64   `json:"fare_amount"`
}

// CancelTripInput is the validated input for POST /trips/{trip_id}/cancel.
type CancelTripInput struct {
	TripID  string
	RiderID string
	Reason  string
}

// CancelTripResult matches the API response for a cancelled trip.
type CancelTripResult struct {
	TripID      string    `json:"trip_id"`
	Status      string    `json:"status"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// TripView is a party-scoped projection of a trip. VerificationCode is only
// populated for the rider while the trip is accepted.
type TripView struct {
	TripID           string    `json:"trip_id"`
	TripNumber       string    `json:"trip_number"`
	Status           string    `json:"status"`
	RiderID          string    `json:"rider_id"`
	DriverID         string    `json:"driver_id,omitempty"`
	Class            string    `json:"vehicle_class"`
	Origin           geo.Point `json:"origin"`
	Destination      geo.Point `json:"destination"`
	DistanceKm       float64   `json:"distance_km"`
	DurationMinutes  int       `json:"duration_minutes"`
	FareAmount       float64   `json:"fare_amount"`
	VerificationCode string    `json:"verification_code,omitempty"`
	RequestedAt      time.Time `json:"requested_at"`
}

// SendMessageInput is the validated input for POST /trips/{trip_id}/messages.
type SendMessageInput struct {
	TripID   string
	SenderID string
	Text     string
}

// MessageView is one chat entry in API responses.
type MessageView struct {
	MessageID string    `json:"message_id"`
	SenderID  string    `json:"sender_id"`
	Side      string    `json:"side"`
	Text      string    `json:"text"`
	SentAt    time.Time `json:"sent_at"`
}

// ----- Trip Service Interface -----

// TripService exposes the trip lifecycle boundary.
type TripService interface {
	Create(ctx context.Context, in CreateTripInput) (CreateTripResult, error)
	Get(ctx context.Context, tripID, partyID string) (TripView, error)
	Accept(ctx context.Context, in AcceptTripInput) (AcceptTripResult, error)
	Verify(ctx context.Context, in VerifyTripInput) (VerifyTripResult, error)
	Complete(ctx context.Context, in CompleteTripInput) (CompleteTripResult, error)
	Cancel(ctx context.Context, in CancelTripInput) (CancelTripResult, error)
	SendMessage(ctx context.Context, in SendMessageInput) (MessageView, error)
	ListMessages(ctx context.Context, tripID, partyID string, limit int) ([]MessageView, error)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Fare Estimation -----

// EstimateInput is the validated input for POST /estimates.
type EstimateInput struct {
	Origin      geo.Point
	Destination geo.Point
}

// ClassFare is the fare for one vehicle class, in whole currency units.
type ClassFare struct {
	Class string  `json:"vehicle_class"`
	Fare  float64 `json:"fare"`
}

// EstimateResult matches the API response for a fare estimate.
type EstimateResult struct {
	DistanceKm      float64     `json:"distance_km"`
	DurationMinutes int         `json:"duration_minutes"`
	Fares           []ClassFare `json:"fares"`
}

// FareService exposes the fare estimation boundary.
type FareService interface {
	Estimate(ctx context.Context, in EstimateInput) (EstimateResult, error)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Rating Aggregation -----

// SubmitRatingInput is the validated input for POST /trips/{trip_id}/ratings.
type SubmitRatingInput struct {
	TripID  string
	RaterID string
	Stars   int
	Comment string
}

// SubmitRatingResult matches the API response for a stored rating.
type SubmitRatingResult struct {
	TripID     string  `json:"trip_id"`
	RatedID    string  `json:"rated_id"`
	Stars      int     `json:"stars"`
	NewAverage float64 `json:"new_average"`
	NewCount   int     `json:"new_count"`
}

// RatingService exposes the rating boundary.
type RatingService interface {
	Submit(ctx context.Context, in SubmitRatingInput) (SubmitRatingResult, error)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for the Candidate Locator -----

// FindCandidatesInput parameterizes a radius search.
type FindCandidatesInput struct {
	Origin   geo.Point
	RadiusKm float64
	Class    trip.VehicleClass
	Limit    int
}

// Candidate is one located driver, nearest first.
type Candidate struct {
	DriverID   string  `json:"driver_id"`
	DistanceKm float64 `json:"distance_km"`
}

// LocatorService exposes the geospatial lookup boundary.
type LocatorService interface {
	FindCandidates(ctx context.Context, in FindCandidatesInput) ([]Candidate, error)
	UpsertPosition(ctx context.Context, driverID string, position geo.Point) error
	SetAvailability(ctx context.Context, driverID string, available bool) error
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Admin Overview -----

// OverviewResult is the top-level response DTO for GET /admin/overview.
type OverviewResult struct {
	Timestamp        time.Time      `json:"timestamp"`
	TripsByStatus    map[string]int `json:"trips_by_status"`
	AvailableDrivers int            `json:"available_drivers"`
	BusyDrivers      int            `json:"busy_drivers"`
	ConnectedParties int            `json:"connected_parties"`
	RecentEvents     []EventView    `json:"recent_events"`
}

// EventView is one trip event entry in admin responses.
type EventView struct {
	TripID    string         `json:"trip_id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

// ActiveTripsResult is the top-level response DTO for GET /admin/trips/active.
type ActiveTripsResult struct {
	Trips      []ActiveTripRow `json:"trips"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
}

// AdminService exposes monitoring operations.
type AdminService interface {
	Overview(ctx context.Context) (OverviewResult, error)
	ActiveTrips(ctx context.Context, page, pageSize string) (ActiveTripsResult, error)
}

// ---------------------------------------------------------------------------------------------------------------

// Notifier is the real-time fan-out boundary. Delivery is best-effort and
// at-most-once: a party without a live connection is silently skipped.
type Notifier interface {
	Notify(partyID string, event string, data any) bool
	Broadcast(partyIDs []string, event string, data any) int
	IsConnected(partyID string) bool
}

// Route is a resolved route between two points.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// RoutingClient resolves driving routes through an external provider.
type RoutingClient interface {
	ResolveRoute(ctx context.Context, origin, destination geo.Point) (Route, error)
}

// GeocodingClient resolves a street address to coordinates.
type GeocodingClient interface {
	ResolveCoordinates(ctx context.Context, address string) (geo.Point, error)
}

// EventPublisher pushes lifecycle messages onto the durable event backbone.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}
