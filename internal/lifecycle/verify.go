package lifecycle

import (
	"context"
	"fmt"
	"time"

	"ridepulse/internal/contracts"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/ports"
)

// Verify checks the rider's start code and moves accepted -> ongoing. A
// wrong code refuses the start and leaves the trip exactly as it was.
func (service *tripService) Verify(ctx context.Context, in ports.VerifyTripInput) (ports.VerifyTripResult, error) {
	correlationID := generateCorrelationID()

	if in.DriverID == "" {
		return ports.VerifyTripResult{}, trip.ErrDriverRequired
	}
	if in.Code == "" {
		return ports.VerifyTripResult{}, fmt.Errorf("%w: verification code is required", trip.ErrInput)
	}

	startedAt := time.Now().UTC()
	started, err := service.trips.StartIfCodeMatches(ctx, in.TripID, in.DriverID, in.Code, startedAt)
	if err != nil {
		return ports.VerifyTripResult{}, err
	}
	if !started {
		return ports.VerifyTripResult{}, service.classifyStartMiss(ctx, in.TripID, in.DriverID, in.Code)
	}

	t, err := service.loadTrip(ctx, in.TripID)
	if err != nil {
		return ports.VerifyTripResult{}, err
	}

	service.appendEvent(ctx, t.ID, trip.EventTripStarted, map[string]any{
		"driver_id": in.DriverID,
	})

	service.notifier.Notify(t.RiderID, contracts.EventTripStarted, contracts.TripStatusData{
		TripID:   t.ID,
		Status:   t.Status.String(),
		Envelope: envelope(correlationID),
	})

	service.publishStatus(ctx, t, correlationID)

	service.logger.Info(ctx, "trip_started", "Trip started after code verification", map[string]any{
		"trip_id": t.ID, "driver_id": in.DriverID, "request_id": correlationID,
	})

	return ports.VerifyTripResult{
		TripID:    t.ID,
		Status:    t.Status.String(),
		StartedAt: startedAt,
	}, nil
}

// classifyStartMiss reloads the row after a refused start and maps its
// state to the right refusal: wrong driver, wrong phase, or wrong code.
func (service *tripService) classifyStartMiss(ctx context.Context, tripID, driverID, code string) error {
	t, err := service.loadTrip(ctx, tripID)
	if err != nil {
		return err
	}
	if err := t.Start(driverID, code); err != nil {
		return err
	}
	return fmt.Errorf("%w: start trip %s: concurrent update", trip.ErrStorage, tripID)
}
