package lifecycle

import (
	"context"
	"fmt"

	"ridepulse/internal/domain/trip"
	"ridepulse/internal/logger"
	"ridepulse/internal/ports"
)

// tripService drives the trip state machine and fans lifecycle events out
// to the connected parties and the message broker.
type tripService struct {
	logger   *logger.Logger
	trips    ports.TripRepository
	events   ports.TripEventRepository
	messages ports.MessageRepository
	drivers  ports.DriverRepository
	riders   ports.RiderRepository
	geoIndex ports.GeoIndex
	locator  ports.LocatorService
	routing  ports.RoutingClient
	geocoder ports.GeocodingClient
	notifier ports.Notifier
	pub      ports.EventPublisher
}

// Deps bundles everything the trip service needs.
type Deps struct {
	Logger   *logger.Logger
	Trips    ports.TripRepository
	Events   ports.TripEventRepository
	Messages ports.MessageRepository
	Drivers  ports.DriverRepository
	Riders   ports.RiderRepository
	GeoIndex ports.GeoIndex
	Locator  ports.LocatorService
	Routing  ports.RoutingClient
	Geocoder ports.GeocodingClient
	Notifier ports.Notifier
	Pub      ports.EventPublisher
}

// NewTripService creates the trip lifecycle service with the provided dependencies.
func NewTripService(deps Deps) ports.TripService {
	return &tripService{
		logger:   deps.Logger,
		trips:    deps.Trips,
		events:   deps.Events,
		messages: deps.Messages,
		drivers:  deps.Drivers,
		riders:   deps.Riders,
		geoIndex: deps.GeoIndex,
		locator:  deps.Locator,
		routing:  deps.Routing,
		geocoder: deps.Geocoder,
		notifier: deps.Notifier,
		pub:      deps.Pub,
	}
}

// Get returns a party-scoped projection of the trip. The verification code
// is included only for the rider while the trip is accepted.
func (service *tripService) Get(ctx context.Context, tripID, partyID string) (ports.TripView, error) {
	t, err := service.loadTrip(ctx, tripID)
	if err != nil {
		return ports.TripView{}, err
	}

	side, ok := t.ParticipantSide(partyID)
	if !ok {
		return ports.TripView{}, trip.ErrUnauthorized
	}

	return tripView(t, side), nil
}

// loadTrip fetches a trip and maps a missing row to ErrNotFound.
func (service *tripService) loadTrip(ctx context.Context, tripID string) (*trip.Trip, error) {
	if tripID == "" {
		return nil, fmt.Errorf("%w: trip id is required", trip.ErrInput)
	}
	t, err := service.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, trip.ErrNotFound
	}
	return t, nil
}

// tripView builds the projection for one side of the trip.
func tripView(t *trip.Trip, side trip.Side) ports.TripView {
	view := ports.TripView{
		TripID:          t.ID,
		TripNumber:      t.TripNumber,
		Status:          t.Status.String(),
		RiderID:         t.RiderID,
		Class:           t.Class.String(),
		Origin:          t.Origin,
		Destination:     t.Destination,
		DistanceKm:      t.DistanceKm,
		DurationMinutes: t.DurationMin,
		FareAmount:      t.FareAmount,
		RequestedAt:     t.RequestedAt,
	}
	if t.DriverID != nil {
		view.DriverID = *t.DriverID
	}
	if t.CodeVisibleTo(side) {
		view.VerificationCode = t.VerificationCode
	}
	return view
}
