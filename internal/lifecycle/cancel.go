package lifecycle

import (
	"context"
	"fmt"
	"time"

	"ridepulse/internal/contracts"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/metrics"
	"ridepulse/internal/ports"
)

// Cancel moves pending|accepted -> cancelled for the owning rider. An
// ongoing or finished trip refuses the cancellation.
func (service *tripService) Cancel(ctx context.Context, in ports.CancelTripInput) (ports.CancelTripResult, error) {
	correlationID := generateCorrelationID()

	if in.RiderID == "" {
		return ports.CancelTripResult{}, trip.ErrRiderRequired
	}

	// remember the pre-cancel state: a pending trip notifies the offered
	// drivers, an accepted one notifies the assigned driver
	before, err := service.loadTrip(ctx, in.TripID)
	if err != nil {
		return ports.CancelTripResult{}, err
	}

	cancelledAt := time.Now().UTC()
	done, err := service.trips.CancelIfOpen(ctx, in.TripID, in.RiderID, in.Reason, cancelledAt)
	if err != nil {
		return ports.CancelTripResult{}, err
	}
	if !done {
		return ports.CancelTripResult{}, service.classifyCancelMiss(ctx, in.TripID, in.RiderID, in.Reason)
	}
	metrics.TripsByTerminalStatus.WithLabelValues(trip.StatusCancelled.String()).Inc()

	t, err := service.loadTrip(ctx, in.TripID)
	if err != nil {
		return ports.CancelTripResult{}, err
	}

	service.appendEvent(ctx, t.ID, trip.EventTripCancelled, map[string]any{
		"rider_id": in.RiderID,
		"reason":   in.Reason,
	})

	service.notifyCancellation(ctx, before, in.Reason, correlationID)

	service.publishStatus(ctx, t, correlationID)

	service.logger.Info(ctx, "trip_cancelled", "Trip cancelled by rider", map[string]any{
		"trip_id": t.ID, "rider_id": in.RiderID, "was": before.Status.String(), "request_id": correlationID,
	})

	return ports.CancelTripResult{
		TripID:      t.ID,
		Status:      t.Status.String(),
		CancelledAt: cancelledAt,
	}, nil
}

// notifyCancellation fans the trip-cancelled frame out to whoever was
// involved before the cancel landed.
func (service *tripService) notifyCancellation(ctx context.Context, before *trip.Trip, reason, correlationID string) {
	data := contracts.TripStatusData{
		TripID:   before.ID,
		Status:   trip.StatusCancelled.String(),
		Reason:   reason,
		Envelope: envelope(correlationID),
	}

	if before.Status == trip.StatusAccepted && before.DriverID != nil {
		service.notifier.Notify(*before.DriverID, contracts.EventTripCancelled, data)
		return
	}

	// pending: withdraw the offer from every driver it went to
	offered, err := service.geoIndex.OfferedDrivers(ctx, before.ID)
	if err != nil {
		service.logger.Error(ctx, "offered_lookup_failed", "Failed to load offered drivers", err, map[string]any{
			"trip_id": before.ID,
		})
		return
	}
	service.notifier.Broadcast(offered, contracts.EventTripCancelled, data)
}

func (service *tripService) classifyCancelMiss(ctx context.Context, tripID, riderID, reason string) error {
	t, err := service.loadTrip(ctx, tripID)
	if err != nil {
		return err
	}
	if err := t.Cancel(riderID, reason); err != nil {
		return err
	}
	return fmt.Errorf("%w: cancel trip %s: concurrent update", trip.ErrStorage, tripID)
}
