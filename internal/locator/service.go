package locator

import (
	"context"
	"fmt"
	"time"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/domain/profile"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/logger"
	"ridepulse/internal/ports"
)

const (
	// DefaultRadiusKm bounds a candidate search when the caller has no opinion.
	DefaultRadiusKm = 5.0
	// DefaultLimit caps how many candidates one trip is offered to.
	DefaultLimit = 10
)

// Service validates searches and keeps the geo index in step with driver
// availability.
type Service struct {
	index   ports.GeoIndex
	drivers ports.DriverRepository
	log     *logger.Logger
}

var _ ports.LocatorService = (*Service)(nil)

func NewService(index ports.GeoIndex, drivers ports.DriverRepository, log *logger.Logger) *Service {
	return &Service{index: index, drivers: drivers, log: log}
}

// FindCandidates returns available drivers of the class within the radius,
// nearest first. No candidates is a normal outcome, not an error.
func (s *Service) FindCandidates(ctx context.Context, in ports.FindCandidatesInput) ([]ports.Candidate, error) {
	if err := in.Origin.Validate(); err != nil {
		return nil, fmt.Errorf("%w: origin: %v", trip.ErrInput, err)
	}
	if in.RadiusKm <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", trip.ErrInput)
	}
	if !in.Class.Valid() {
		return nil, trip.ErrInvalidVehicleClass
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	hits, err := s.index.SearchWithin(ctx, in.Origin, in.RadiusKm, in.Class, limit)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}

	candidates := make([]ports.Candidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, ports.Candidate{DriverID: h.DriverID, DistanceKm: h.DistanceKm})
	}

	s.log.Debug(ctx, "candidates_located", "radius search finished", map[string]any{
		"class": in.Class.String(), "radius_km": in.RadiusKm, "found": len(candidates),
	})
	return candidates, nil
}

// UpsertPosition records a driver position in Postgres and, while the driver
// is available, in the geo index.
func (s *Service) UpsertPosition(ctx context.Context, driverID string, position geo.Point) error {
	if err := position.Validate(); err != nil {
		return fmt.Errorf("%w: position: %v", trip.ErrInput, err)
	}

	d, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return fmt.Errorf("load driver %s: %w", driverID, err)
	}
	if d == nil {
		return trip.ErrNotFound
	}

	if err := s.drivers.SavePosition(ctx, driverID, position, time.Now().UTC()); err != nil {
		return fmt.Errorf("save position: %w", err)
	}

	if d.Availability == profile.AvailabilityAvailable {
		if err := s.index.UpsertDriver(ctx, driverID, d.Class, position); err != nil {
			return fmt.Errorf("index position: %w", err)
		}
	}
	return nil
}

// SetAvailability flips a driver between available and offline, adding or
// removing them from the searchable index.
func (s *Service) SetAvailability(ctx context.Context, driverID string, available bool) error {
	d, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return fmt.Errorf("load driver %s: %w", driverID, err)
	}
	if d == nil {
		return trip.ErrNotFound
	}

	status := profile.AvailabilityOffline
	if available {
		status = profile.AvailabilityAvailable
	}
	if err := s.drivers.SetAvailability(ctx, driverID, status); err != nil {
		return fmt.Errorf("set availability: %w", err)
	}

	if available {
		if d.LastPosition == nil {
			// searchable as soon as the first location update arrives
			s.log.Debug(ctx, "driver_without_position", "driver went online before any location update", map[string]any{"driver_id": driverID})
			return nil
		}
		if err := s.index.UpsertDriver(ctx, driverID, d.Class, *d.LastPosition); err != nil {
			return fmt.Errorf("index driver: %w", err)
		}
		return nil
	}

	if err := s.index.RemoveDriver(ctx, driverID, d.Class); err != nil {
		return fmt.Errorf("deindex driver: %w", err)
	}
	return nil
}
