package rating

import (
	"context"
	"fmt"

	"ridepulse/internal/contracts"
	"ridepulse/internal/domain/profile"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/logger"
	"ridepulse/internal/metrics"
	"ridepulse/internal/ports"
)

// Service stores per-trip ratings and folds them into the counterparty's
// running aggregate.
type Service struct {
	logger   *logger.Logger
	trips    ports.TripRepository
	drivers  ports.DriverRepository
	riders   ports.RiderRepository
	events   ports.TripEventRepository
	notifier ports.Notifier
	pub      ports.EventPublisher
}

var _ ports.RatingService = (*Service)(nil)

func NewService(
	log *logger.Logger,
	trips ports.TripRepository,
	drivers ports.DriverRepository,
	riders ports.RiderRepository,
	events ports.TripEventRepository,
	notifier ports.Notifier,
	pub ports.EventPublisher,
) *Service {
	return &Service{
		logger:   log,
		trips:    trips,
		drivers:  drivers,
		riders:   riders,
		events:   events,
		notifier: notifier,
		pub:      pub,
	}
}

// Submit records a rating for the rater's side of a completed trip. Each
// side rates once; the write and the eligibility check are one conditional
// update, so a double submission never reaches the aggregate.
func (service *Service) Submit(ctx context.Context, in ports.SubmitRatingInput) (ports.SubmitRatingResult, error) {
	if in.TripID == "" {
		return ports.SubmitRatingResult{}, fmt.Errorf("%w: trip id is required", trip.ErrInput)
	}
	if in.RaterID == "" {
		return ports.SubmitRatingResult{}, fmt.Errorf("%w: rater id is required", trip.ErrInput)
	}

	rating, err := trip.NewRating(in.Stars, in.Comment)
	if err != nil {
		return ports.SubmitRatingResult{}, err
	}

	t, err := service.trips.GetByID(ctx, in.TripID)
	if err != nil {
		return ports.SubmitRatingResult{}, err
	}
	if t == nil {
		return ports.SubmitRatingResult{}, trip.ErrNotFound
	}

	// classify eligibility on a copy; the conditional update below is the
	// arbiter under concurrency
	side, err := t.RateBy(in.RaterID, rating)
	if err != nil {
		return ports.SubmitRatingResult{}, err
	}

	stored, err := service.trips.RecordRatingOnce(ctx, in.TripID, side, rating)
	if err != nil {
		return ports.SubmitRatingResult{}, err
	}
	if !stored {
		// the row changed between the check and the write: the only guard
		// left to lose against is the write-once one
		return ports.SubmitRatingResult{}, trip.ErrAlreadyRated
	}
	metrics.RatingsSubmittedTotal.Inc()

	ratedID := t.Counterparty(side)
	agg, err := service.absorb(ctx, side, ratedID, in.Stars)
	if err != nil {
		service.logger.Error(ctx, "aggregate_update_failed", "Rating stored but aggregate update failed", err, map[string]any{
			"trip_id": in.TripID, "rated_id": ratedID,
		})
		return ports.SubmitRatingResult{}, err
	}

	service.appendEvent(ctx, in.TripID, side, in.Stars, agg.Average)

	// tell the rated party their average moved
	service.notifier.Notify(ratedID, contracts.EventRatingReceived, contracts.RatingReceivedData{
		TripID:     in.TripID,
		Stars:      in.Stars,
		NewAverage: agg.Average,
	})

	if err := service.pub.Publish(ctx, contracts.RouteTripRatingKey, map[string]any{
		"trip_id":     in.TripID,
		"rated_id":    ratedID,
		"stars":       in.Stars,
		"new_average": agg.Average,
		"new_count":   agg.Count,
	}); err != nil {
		service.logger.Error(ctx, "rating_publish_failed", "Failed to publish rating message", err, map[string]any{
			"trip_id": in.TripID,
		})
	}

	service.logger.Info(ctx, "rating_recorded", "Rating stored and aggregate updated", map[string]any{
		"trip_id": in.TripID, "rated_id": ratedID, "stars": in.Stars, "new_average": agg.Average,
	})

	return ports.SubmitRatingResult{
		TripID:     in.TripID,
		RatedID:    ratedID,
		Stars:      in.Stars,
		NewAverage: agg.Average,
		NewCount:   agg.Count,
	}, nil
}

// absorb folds the vote into whichever profile sits on the rated side.
func (service *Service) absorb(ctx context.Context, raterSide trip.Side, ratedID string, stars int) (profile.RatingAggregate, error) {
	if raterSide == trip.SideRider {
		return service.drivers.AbsorbRating(ctx, ratedID, stars)
	}
	return service.riders.AbsorbRating(ctx, ratedID, stars)
}

func (service *Service) appendEvent(ctx context.Context, tripID string, side trip.Side, stars int, newAverage float64) {
	e, err := trip.NewEvent(tripID, trip.EventRatingSubmitted, map[string]any{
		"side":        side.String(),
		"stars":       stars,
		"new_average": newAverage,
	})
	if err != nil {
		service.logger.Error(ctx, "trip_event_build_failed", "Failed to build rating event", err, map[string]any{
			"trip_id": tripID,
		})
		return
	}
	if err := service.events.Append(ctx, e); err != nil {
		service.logger.Error(ctx, "trip_event_append_failed", "Failed to append rating event", err, map[string]any{
			"trip_id": tripID,
		})
	}
}
