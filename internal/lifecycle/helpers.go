package lifecycle

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"ridepulse/internal/contracts"
	"ridepulse/internal/domain/trip"
)

// offersTTL bounds how long the offered-driver set of a pending trip is
// kept around for cancellation fan-out.
const offersTTL = 24 * time.Hour

// generateTripNumber returns an ID like: TRIP_YYYYMMDD_HHMMSS_XXX
// where XXX is a millisecond fragment to reduce collisions.
func generateTripNumber() string {
	now := time.Now().UTC()
	return fmt.Sprintf("TRIP_%04d%02d%02d_%02d%02d%02d_%03d",
		now.Year(), int(now.Month()), now.Day(),
		now.Hour(), now.Minute(), now.Second(),
		now.Nanosecond()/1e6, // ms
	)
}

// generateCorrelationID creates a simple correlation ID for tracing requests.
func generateCorrelationID() string {
	var b [3]byte // 6 hex chars
	_, _ = rand.Read(b[:])
	ts := time.Now().UTC().Format("20060102T150405")
	return "req_" + ts + "_" + hex.EncodeToString(b[:])
}

// generateVerificationCode returns a 6-digit start code, zero-padded.
func generateVerificationCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// crypto/rand failing is a broken host; fall back to the clock
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1_000_000)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// envelope stamps the cross-cutting headers on outbound messages.
func envelope(correlationID string) contracts.Envelope {
	return contracts.Envelope{
		CorrelationID: correlationID,
		Producer:      "trip-engine",
		SentAt:        time.Now().UTC(),
	}
}

// publishStatus sends a lifecycle message under trip.status.{status}. The
// broker is an audit backbone here, so failures are logged and swallowed.
func (service *tripService) publishStatus(ctx context.Context, t *trip.Trip, correlationID string) {
	msg := contracts.TripStatusMessage{
		TripID:     t.ID,
		TripNumber: t.TripNumber,
		Status:     t.Status.String(),
		Timestamp:  time.Now().UTC(),
		RiderID:    t.RiderID,
		Envelope:   envelope(correlationID),
	}
	if t.DriverID != nil {
		msg.DriverID = *t.DriverID
	}
	if t.Status.Terminal() {
		fare := t.FareAmount
		msg.FareAmount = &fare
	}

	routingKey := contracts.RouteTripStatusPrefix + strings.ToLower(t.Status.String())
	if err := service.pub.Publish(ctx, routingKey, msg); err != nil {
		service.logger.Error(ctx, "trip_status_publish_failed", "Failed to publish trip status", err, map[string]any{
			"trip_id": t.ID, "routing_key": routingKey, "request_id": correlationID,
		})
		return
	}

	service.logger.Info(ctx, "trip_status_published", "Published trip status to RabbitMQ", map[string]any{
		"trip_id": t.ID, "routing_key": routingKey,
	})
}

// appendEvent records an audit entry in the trip event log. Append failures
// do not fail the operation that produced the event.
func (service *tripService) appendEvent(ctx context.Context, tripID string, eventType trip.EventType, data map[string]any) {
	e, err := trip.NewEvent(tripID, eventType, data)
	if err != nil {
		service.logger.Error(ctx, "trip_event_build_failed", "Failed to build trip event", err, map[string]any{
			"trip_id": tripID, "event_type": eventType.String(),
		})
		return
	}
	if err := service.events.Append(ctx, e); err != nil {
		service.logger.Error(ctx, "trip_event_append_failed", "Failed to append trip event", err, map[string]any{
			"trip_id": tripID, "event_type": eventType.String(),
		})
	}
}

// driverBrief builds the driver summary attached to rider notifications.
func (service *tripService) driverBrief(ctx context.Context, driverID string) *contracts.DriverBrief {
	d, err := service.drivers.GetByID(ctx, driverID)
	if err != nil || d == nil {
		return &contracts.DriverBrief{DriverID: driverID}
	}
	return &contracts.DriverBrief{
		DriverID: d.ID,
		Name:     d.Name,
		Rating:   d.Rating.Average,
		Class:    d.Class.String(),
	}
}
