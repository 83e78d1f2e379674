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

// Accept claims a pending trip for a driver. The claim is a conditional
// single-row update, so exactly one of any number of concurrent acceptors
// wins; every other one gets ErrAlreadyTaken.
func (service *tripService) Accept(ctx context.Context, in ports.AcceptTripInput) (ports.AcceptTripResult, error) {
	correlationID := generateCorrelationID()

	if in.DriverID == "" {
		return ports.AcceptTripResult{}, trip.ErrDriverRequired
	}

	driver, err := service.drivers.GetByID(ctx, in.DriverID)
	if err != nil {
		return ports.AcceptTripResult{}, err
	}
	if driver == nil {
		return ports.AcceptTripResult{}, trip.ErrNotFound
	}

	acceptedAt := time.Now().UTC()
	won, err := service.trips.AcceptIfPending(ctx, in.TripID, in.DriverID, acceptedAt)
	if err != nil {
		metrics.AcceptsTotal.WithLabelValues("rejected").Inc()
		return ports.AcceptTripResult{}, err
	}
	if !won {
		metrics.AcceptsTotal.WithLabelValues("lost").Inc()
		return ports.AcceptTripResult{}, service.classifyAcceptMiss(ctx, in.TripID, in.DriverID)
	}
	metrics.AcceptsTotal.WithLabelValues("won").Inc()

	t, err := service.loadTrip(ctx, in.TripID)
	if err != nil {
		return ports.AcceptTripResult{}, err
	}

	// the assigned driver leaves the searchable pool until completion
	if err := service.drivers.SetAvailability(ctx, in.DriverID, profile.AvailabilityBusy); err != nil {
		service.logger.Error(ctx, "driver_busy_failed", "Failed to mark driver busy", err, map[string]any{
			"driver_id": in.DriverID, "trip_id": t.ID,
		})
	}
	if err := service.geoIndex.RemoveDriver(ctx, in.DriverID, driver.Class); err != nil {
		service.logger.Error(ctx, "deindex_failed", "Failed to remove driver from geo index", err, map[string]any{
			"driver_id": in.DriverID,
		})
	}

	service.appendEvent(ctx, t.ID, trip.EventTripAccepted, map[string]any{
		"driver_id": in.DriverID,
	})

	// the rider's copy of trip-accepted carries the verification code they
	// will read out at pickup
	service.notifier.Notify(t.RiderID, contracts.EventTripAccepted, contracts.TripStatusData{
		TripID:           t.ID,
		Status:           t.Status.String(),
		Driver:           service.driverBrief(ctx, in.DriverID),
		VerificationCode: t.VerificationCode,
		Envelope:         envelope(correlationID),
	})

	service.publishStatus(ctx, t, correlationID)

	service.logger.Info(ctx, "trip_accepted", "Trip accepted by driver", map[string]any{
		"trip_id": t.ID, "driver_id": in.DriverID, "request_id": correlationID,
	})

	return ports.AcceptTripResult{
		TripID:     t.ID,
		Status:     t.Status.String(),
		AcceptedAt: acceptedAt,
	}, nil
}

// classifyAcceptMiss reloads the row a refused acceptor raced on and maps
// its current state to the right refusal.
func (service *tripService) classifyAcceptMiss(ctx context.Context, tripID, driverID string) error {
	t, err := service.loadTrip(ctx, tripID)
	if err != nil {
		return err
	}
	if err := t.Accept(driverID); err != nil {
		return err
	}
	// the row changed again between the refused update and the reload
	return fmt.Errorf("%w: accept trip %s: concurrent update", trip.ErrStorage, tripID)
}
