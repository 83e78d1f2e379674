package profile

import (
	"errors"
	"strings"
	"time"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/domain/trip"
)

// RatingAggregate is a running average over all ratings a party has received.
// Average is kept with one decimal of precision.
type RatingAggregate struct {
	Average float64
	Count   int
}

// Driver is the domain entity corresponding to the `drivers` table.
type Driver struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	Name  string
	Class trip.VehicleClass

	// Operational state
	Availability Availability
	LastPosition *geo.Point
	LastSeenAt   *time.Time

	// KPIs
	Rating     RatingAggregate
	TotalTrips int
}

// Rider is the domain entity corresponding to the `riders` table.
type Rider struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	Name   string
	Rating RatingAggregate
}

var (
	ErrIDRequired   = errors.New("profile id is required")
	ErrNameRequired = errors.New("profile name is required")
)

// NewDriver creates a driver profile, offline by default with a fresh
// 5.0-over-0 aggregate the first real rating will replace.
func NewDriver(id, name string, class trip.VehicleClass) (*Driver, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, ErrIDRequired
	}
	if name = strings.TrimSpace(name); name == "" {
		return nil, ErrNameRequired
	}
	if !class.Valid() {
		return nil, trip.ErrInvalidVehicleClass
	}

	now := time.Now().UTC()
	return &Driver{
		ID:           id,
		CreatedAt:    now,
		UpdatedAt:    now,
		Name:         name,
		Class:        class,
		Availability: AvailabilityOffline,
		Rating:       RatingAggregate{Average: 5.0, Count: 0},
	}, nil
}

// NewRider creates a rider profile.
func NewRider(id, name string) (*Rider, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, ErrIDRequired
	}
	if name = strings.TrimSpace(name); name == "" {
		return nil, ErrNameRequired
	}

	now := time.Now().UTC()
	return &Rider{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Name:      name,
		Rating:    RatingAggregate{Average: 5.0, Count: 0},
	}, nil
}

// Absorb folds one more vote into the aggregate. With Count 0 the seeded
// average carries zero weight, so the first vote replaces it outright.
func (agg *RatingAggregate) Absorb(stars int) {
	agg.Average, agg.Count = trip.NextAverage(agg.Average, agg.Count, stars)
}
