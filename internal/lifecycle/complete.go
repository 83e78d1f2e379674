package lifecycle

import (
	"context"
	"fmt"
	"time"

	"ridepulse/internal/contracts"
	"ridepulse/internal/domain/profile"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/metrics"
	"ridepulse/internal/ports"
)

// Complete moves ongoing -> completed and returns the assigned driver to
// the searchable pool.
func (service *tripService) Complete(ctx context.Context, in ports.CompleteTripInput) (ports.CompleteTripResult, error) {
	correlationID := generateCorrelationID()

	if in.DriverID == "" {
		return ports.CompleteTripResult{}, trip.ErrDriverRequired
	}

	completedAt := time.Now().UTC()
	done, err := service.trips.CompleteIfOngoing(ctx, in.TripID, in.DriverID, completedAt)
	if err != nil {
		return ports.CompleteTripResult{}, err
	}
	if !done {
		return ports.CompleteTripResult{}, service.classifyCompleteMiss(ctx, in.TripID, in.DriverID)
	}
	metrics.TripsByTerminalStatus.WithLabelValues(trip.StatusCompleted.String()).Inc()

	t, err := service.loadTrip(ctx, in.TripID)
	if err != nil {
		return ports.CompleteTripResult{}, err
	}

	service.returnDriverToPool(ctx, in.DriverID)

	service.appendEvent(ctx, t.ID, trip.EventTripCompleted, map[string]any{
		"driver_id":   in.DriverID,
		"fare_amount": t.FareAmount,
	})

	statusData := contracts.TripStatusData{
		TripID:   t.ID,
		Status:   t.Status.String(),
		Envelope: envelope(correlationID),
	}
	service.notifier.Notify(t.RiderID, contracts.EventTripCompleted, statusData)
	service.notifier.Notify(in.DriverID, contracts.EventTripCompleted, statusData)

	service.publishStatus(ctx, t, correlationID)

	service.logger.Info(ctx, "trip_completed", "Trip completed", map[string]any{
		"trip_id": t.ID, "driver_id": in.DriverID, "fare_amount": t.FareAmount, "request_id": correlationID,
	})

	return ports.CompleteTripResult{
		TripID:      t.ID,
		Status:      t.Status.String(),
		CompletedAt: completedAt,
		FareAmount:  t.FareAmount,
	}, nil
}

// returnDriverToPool flips the driver back to available, bumps their trip
// counter and re-indexes their last known position.
func (service *tripService) returnDriverToPool(ctx context.Context, driverID string) {
	if err := service.drivers.IncrementTripsCompleted(ctx, driverID); err != nil {
		service.logger.Error(ctx, "trip_counter_failed", "Failed to bump driver trip counter", err, map[string]any{
			"driver_id": driverID,
		})
	}
	if err := service.drivers.SetAvailability(ctx, driverID, profile.AvailabilityAvailable); err != nil {
		service.logger.Error(ctx, "driver_available_failed", "Failed to mark driver available", err, map[string]any{
			"driver_id": driverID,
		})
		return
	}

	d, err := service.drivers.GetByID(ctx, driverID)
	if err != nil || d == nil || d.LastPosition == nil {
		return
	}
	if err := service.geoIndex.UpsertDriver(ctx, driverID, d.Class, *d.LastPosition); err != nil {
		service.logger.Error(ctx, "reindex_failed", "Failed to re-index driver", err, map[string]any{
			"driver_id": driverID,
		})
	}
}

func (service *tripService) classifyCompleteMiss(ctx context.Context, tripID, driverID string) error {
	t, err := service.loadTrip(ctx, tripID)
	if err != nil {
		return err
	}
	if err := t.Complete(driverID); err != nil {
		return err
	}
	return fmt.Errorf("%w: complete trip %s: concurrent update", trip.ErrStorage, tripID)
}
