package lifecycle

import (
	"context"
	"fmt"

	"ridepulse/internal/contracts"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/fare"
	"ridepulse/internal/locator"
	"ridepulse/internal/metrics"
	"ridepulse/internal/ports"
)

// Create builds a pending trip with a fixed fare snapshot, then offers it
// to the nearest available drivers of the requested class.
func (service *tripService) Create(ctx context.Context, in ports.CreateTripInput) (ports.CreateTripResult, error) {
	correlationID := generateCorrelationID()

	if in.RiderID == "" {
		return ports.CreateTripResult{}, trip.ErrRiderRequired
	}
	if !in.Class.Valid() {
		return ports.CreateTripResult{}, trip.ErrInvalidVehicleClass
	}
	if err := in.Origin.Validate(); err != nil {
		return ports.CreateTripResult{}, fmt.Errorf("%w: origin: %v", trip.ErrInput, err)
	}

	destination := in.Destination
	if destination.IsZero() && in.DestinationAddress != "" {
		resolved, err := service.geocoder.ResolveCoordinates(ctx, in.DestinationAddress)
		if err != nil {
			service.logger.Error(ctx, "geocode_failed", "Failed to resolve destination address", err, map[string]any{
				"rider_id": in.RiderID, "request_id": correlationID,
			})
			return ports.CreateTripResult{}, err
		}
		destination = resolved
	}
	if err := destination.Validate(); err != nil {
		return ports.CreateTripResult{}, fmt.Errorf("%w: destination: %v", trip.ErrInput, err)
	}

	rider, err := service.riders.GetByID(ctx, in.RiderID)
	if err != nil {
		return ports.CreateTripResult{}, err
	}
	if rider == nil {
		return ports.CreateTripResult{}, trip.ErrNotFound
	}

	// fare snapshot: one routing call fixes distance, duration and price
	// for the whole trip lifetime
	route, err := service.routing.ResolveRoute(ctx, in.Origin, destination)
	if err != nil {
		service.logger.Error(ctx, "route_resolve_failed", "Failed to resolve route for trip", err, map[string]any{
			"rider_id": in.RiderID, "request_id": correlationID,
		})
		return ports.CreateTripResult{}, err
	}
	distanceKm := route.DistanceMeters / 1000.0
	durationMin := fare.DurationMinutes(route.DurationSeconds)
	fareAmount := fare.Compute(in.Class, distanceKm, fare.Minutes(route.DurationSeconds))

	t, err := trip.NewTrip(
		generateTripNumber(),
		in.RiderID,
		in.Class,
		in.Origin,
		destination,
		distanceKm,
		durationMin,
		fareAmount,
		generateVerificationCode(),
	)
	if err != nil {
		return ports.CreateTripResult{}, err
	}

	if err := service.trips.Create(ctx, t); err != nil {
		service.logger.Error(ctx, "trip_create_failed", "Failed to create trip", err, map[string]any{
			"rider_id": in.RiderID, "trip_number": t.TripNumber, "request_id": correlationID,
		})
		return ports.CreateTripResult{}, err
	}
	metrics.TripsCreatedTotal.Inc()

	service.appendEvent(ctx, t.ID, trip.EventTripRequested, map[string]any{
		"rider_id":      t.RiderID,
		"vehicle_class": t.Class.String(),
		"fare_amount":   t.FareAmount,
		"distance_km":   t.DistanceKm,
	})

	offered := service.offerToCandidates(ctx, t, correlationID)

	service.publishStatus(ctx, t, correlationID)

	service.logger.Info(ctx, "trip_created", "Trip created and offered to candidates", map[string]any{
		"trip_id": t.ID, "trip_number": t.TripNumber, "candidates": offered, "request_id": correlationID,
	})

	return ports.CreateTripResult{
		TripID:            t.ID,
		TripNumber:        t.TripNumber,
		Status:            t.Status.String(),
		FareAmount:        t.FareAmount,
		DistanceKm:        t.DistanceKm,
		DurationMinutes:   t.DurationMin,
		CandidatesOffered: offered,
	}, nil
}

// offerToCandidates pushes a new-trip-offer frame to every located driver
// and remembers the offered set for later cancellation fan-out. Offer
// delivery is best-effort and never fails trip creation.
func (service *tripService) offerToCandidates(ctx context.Context, t *trip.Trip, correlationID string) int {
	candidates, err := service.locator.FindCandidates(ctx, ports.FindCandidatesInput{
		Origin:   t.Origin,
		RadiusKm: locator.DefaultRadiusKm,
		Class:    t.Class,
		Limit:    locator.DefaultLimit,
	})
	if err != nil {
		service.logger.Error(ctx, "candidate_search_failed", "Failed to locate candidate drivers", err, map[string]any{
			"trip_id": t.ID, "request_id": correlationID,
		})
		return 0
	}
	if len(candidates) == 0 {
		service.logger.Info(ctx, "no_candidates", "No available drivers in range", map[string]any{
			"trip_id": t.ID, "class": t.Class.String(),
		})
		return 0
	}

	driverIDs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		driverIDs = append(driverIDs, c.DriverID)
	}

	if err := service.geoIndex.RecordOffers(ctx, t.ID, driverIDs, offersTTL); err != nil {
		service.logger.Error(ctx, "record_offers_failed", "Failed to remember offered drivers", err, map[string]any{
			"trip_id": t.ID,
		})
	}

	delivered := 0
	for _, c := range candidates {
		data := contracts.TripOfferData{
			TripID:           t.ID,
			TripNumber:       t.TripNumber,
			Origin:           contracts.GeoPoint{Lat: t.Origin.Latitude, Lng: t.Origin.Longitude},
			Destination:      contracts.GeoPoint{Lat: t.Destination.Latitude, Lng: t.Destination.Longitude},
			FareAmount:       t.FareAmount,
			DistanceKm:       t.DistanceKm,
			DurationMinutes:  t.DurationMin,
			PickupDistanceKm: c.DistanceKm,
			Envelope:         envelope(correlationID),
		}
		if service.notifier.Notify(c.DriverID, contracts.EventNewTripOffer, data) {
			delivered++
		}
	}

	return len(candidates)
}
