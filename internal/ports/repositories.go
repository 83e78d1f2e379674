package ports

import (
	"context"
	"time"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/domain/profile"
	"ridepulse/internal/domain/trip"
)

// TripRepository defines the methods for managing trip data. The
// *If* methods are conditional single-row updates: they report false when the
// guard did not hold, without mutating anything. That report is the only
// arbiter under concurrency; callers reload the row to classify the refusal.
type TripRepository interface {
	Create(ctx context.Context, t *trip.Trip) error
	GetByID(ctx context.Context, id string) (*trip.Trip, error)

	// AcceptIfPending sets accepted + driver only if the trip is still
	// pending with no driver. Exactly one caller can win.
	AcceptIfPending(ctx context.Context, tripID, driverID string, acceptedAt time.Time) (bool, error)

	// StartIfCodeMatches moves accepted -> ongoing only when driver and
	// verification code both match the stored row.
	StartIfCodeMatches(ctx context.Context, tripID, driverID, code string, startedAt time.Time) (bool, error)

	// CompleteIfOngoing moves ongoing -> completed for the assigned driver.
	CompleteIfOngoing(ctx context.Context, tripID, driverID string, completedAt time.Time) (bool, error)

	// CancelIfOpen moves pending|accepted -> cancelled for the owning rider.
	CancelIfOpen(ctx context.Context, tripID, riderID, reason string, cancelledAt time.Time) (bool, error)

	// RecordRatingOnce stores the rating on the rater's side only if that
	// side is still empty and the trip is completed.
	RecordRatingOnce(ctx context.Context, tripID string, side trip.Side, rating *trip.Rating) (bool, error)

	CountByStatus(ctx context.Context) (map[trip.Status]int, error)
	ActiveRows(ctx context.Context, offset, limit int) ([]ActiveTripRow, error)
}

// TripEventRepository manages the append-only trip event log.
type TripEventRepository interface {
	Append(ctx context.Context, e *trip.Event) error
	ListForTrip(ctx context.Context, tripID string, limit int) ([]*trip.Event, error)
	Recent(ctx context.Context, limit int) ([]*trip.Event, error)
}

// MessageRepository manages the append-only per-trip chat log.
type MessageRepository interface {
	Append(ctx context.Context, m *trip.Message) error
	ListForTrip(ctx context.Context, tripID string, limit int) ([]*trip.Message, error)
}

// DriverRepository defines the methods for managing driver profiles.
type DriverRepository interface {
	Create(ctx context.Context, d *profile.Driver) error
	GetByID(ctx context.Context, driverID string) (*profile.Driver, error)
	SetAvailability(ctx context.Context, driverID string, status profile.Availability) error
	SavePosition(ctx context.Context, driverID string, position geo.Point, at time.Time) error

	// AbsorbRating folds one vote into the stored aggregate in a single
	// atomic statement and returns the new aggregate.
	AbsorbRating(ctx context.Context, driverID string, stars int) (profile.RatingAggregate, error)

	IncrementTripsCompleted(ctx context.Context, driverID string) error
	CountByAvailability(ctx context.Context, status profile.Availability) (int, error)
}

// RiderRepository defines the methods for managing rider profiles.
type RiderRepository interface {
	Create(ctx context.Context, r *profile.Rider) error
	GetByID(ctx context.Context, riderID string) (*profile.Rider, error)
	AbsorbRating(ctx context.Context, riderID string, stars int) (profile.RatingAggregate, error)
}

// CandidateHit is one driver returned by a radius search, nearest first.
type CandidateHit struct {
	DriverID   string
	DistanceKm float64
}

// GeoIndex is the geospatial driver index. Backed by Redis GEO in production.
type GeoIndex interface {
	UpsertDriver(ctx context.Context, driverID string, class trip.VehicleClass, position geo.Point) error
	RemoveDriver(ctx context.Context, driverID string, class trip.VehicleClass) error

	// SearchWithin returns drivers of the class within radiusKm of origin,
	// boundary inclusive, nearest first. An empty result is normal.
	SearchWithin(ctx context.Context, origin geo.Point, radiusKm float64, class trip.VehicleClass, limit int) ([]CandidateHit, error)

	// RecordOffers remembers which drivers were offered a trip so a later
	// cancellation can reach the same set.
	RecordOffers(ctx context.Context, tripID string, driverIDs []string, ttl time.Duration) error
	OfferedDrivers(ctx context.Context, tripID string) ([]string, error)
}

// ActiveTripRow is a single non-terminal trip row for the admin listing.
type ActiveTripRow struct {
	TripID     string     `json:"trip_id"`
	TripNumber string     `json:"trip_number"`
	Status     string     `json:"status"`
	RiderID    string     `json:"rider_id"`
	DriverID   string     `json:"driver_id,omitempty"`
	Class      string     `json:"vehicle_class"`
	FareAmount float64    `json:"fare_amount"`
	RequestedAt time.Time `json:"requested_at"`
}
