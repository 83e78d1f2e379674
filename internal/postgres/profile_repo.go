package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/domain/profile"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/ports"
)

// DriverRepo persists driver profiles using pgx and plain SQL.
type DriverRepo struct {
	pool *pgxpool.Pool
}

// NewDriverRepo constructs a new DriverRepo.
func NewDriverRepo(pool *pgxpool.Pool) ports.DriverRepository {
	return &DriverRepo{pool: pool}
}

// Create inserts a new driver profile.
func (repo *DriverRepo) Create(ctx context.Context, d *profile.Driver) error {
	err := repo.pool.QueryRow(ctx, `
		INSERT INTO drivers (id, name, vehicle_class, availability, rating_avg, rating_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`,
		d.ID, d.Name, d.Class.String(), d.Availability.String(), d.Rating.Average, d.Rating.Count,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert driver: %w", trip.ErrStorage, err)
	}
	return nil
}

// GetByID fetches a driver profile. A missing row yields (nil, nil).
func (repo *DriverRepo) GetByID(ctx context.Context, driverID string) (*profile.Driver, error) {
	var d profile.Driver
	var class, availability string
	var lat, lng *float64

	err := repo.pool.QueryRow(ctx, `
		SELECT id, created_at, updated_at, name, vehicle_class, availability,
		       last_lat, last_lng, last_seen_at, rating_avg, rating_count, total_trips
		FROM drivers
		WHERE id = $1
	`, driverID).Scan(
		&d.ID, &d.CreatedAt, &d.UpdatedAt, &d.Name, &class, &availability,
		&lat, &lng, &d.LastSeenAt, &d.Rating.Average, &d.Rating.Count, &d.TotalTrips,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: select driver: %w", trip.ErrStorage, err)
	}

	d.Class = trip.VehicleClass(class)
	d.Availability = profile.Availability(availability)
	if lat != nil && lng != nil {
		d.LastPosition = &geo.Point{Latitude: *lat, Longitude: *lng}
	}
	return &d, nil
}

// SetAvailability updates the operational state.
func (repo *DriverRepo) SetAvailability(ctx context.Context, driverID string, status profile.Availability) error {
	tag, err := repo.pool.Exec(ctx, `
		UPDATE drivers SET availability = $2, updated_at = now() WHERE id = $1
	`, driverID, status.String())
	if err != nil {
		return fmt.Errorf("%w: update availability: %w", trip.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return trip.ErrNotFound
	}
	return nil
}

// SavePosition stamps the last known position.
func (repo *DriverRepo) SavePosition(ctx context.Context, driverID string, position geo.Point, at time.Time) error {
	tag, err := repo.pool.Exec(ctx, `
		UPDATE drivers
		SET last_lat = $2, last_lng = $3, last_seen_at = $4, updated_at = now()
		WHERE id = $1
	`, driverID, position.Latitude, position.Longitude, at)
	if err != nil {
		return fmt.Errorf("%w: save position: %w", trip.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return trip.ErrNotFound
	}
	return nil
}

// AbsorbRating folds one vote into the aggregate in a single UPDATE, so two
// concurrent votes both land and neither recomputation is lost.
func (repo *DriverRepo) AbsorbRating(ctx context.Context, driverID string, stars int) (profile.RatingAggregate, error) {
	var agg profile.RatingAggregate
	err := repo.pool.QueryRow(ctx, `
		UPDATE drivers
		SET rating_avg = round(((rating_avg * rating_count + $2)::numeric / (rating_count + 1)), 1),
		    rating_count = rating_count + 1,
		    updated_at = now()
		WHERE id = $1
		RETURNING rating_avg, rating_count
	`, driverID, stars).Scan(&agg.Average, &agg.Count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return profile.RatingAggregate{}, trip.ErrNotFound
		}
		return profile.RatingAggregate{}, fmt.Errorf("%w: absorb driver rating: %w", trip.ErrStorage, err)
	}
	return agg, nil
}

// IncrementTripsCompleted bumps the completed-trip counter.
func (repo *DriverRepo) IncrementTripsCompleted(ctx context.Context, driverID string) error {
	_, err := repo.pool.Exec(ctx, `
		UPDATE drivers SET total_trips = total_trips + 1, updated_at = now() WHERE id = $1
	`, driverID)
	if err != nil {
		return fmt.Errorf("%w: increment trips: %w", trip.ErrStorage, err)
	}
	return nil
}

// CountByAvailability counts drivers in a given operational state.
func (repo *DriverRepo) CountByAvailability(ctx context.Context, status profile.Availability) (int, error) {
	var n int
	err := repo.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM drivers WHERE availability = $1
	`, status.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count drivers: %w", trip.ErrStorage, err)
	}
	return n, nil
}

// RiderRepo persists rider profiles using pgx and plain SQL.
type RiderRepo struct {
	pool *pgxpool.Pool
}

// NewRiderRepo constructs a new RiderRepo.
func NewRiderRepo(pool *pgxpool.Pool) ports.RiderRepository {
	return &RiderRepo{pool: pool}
}

// Create inserts a new rider profile.
func (repo *RiderRepo) Create(ctx context.Context, r *profile.Rider) error {
	err := repo.pool.QueryRow(ctx, `
		INSERT INTO riders (id, name, rating_avg, rating_count)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, r.ID, r.Name, r.Rating.Average, r.Rating.Count).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert rider: %w", trip.ErrStorage, err)
	}
	return nil
}

// GetByID fetches a rider profile. A missing row yields (nil, nil).
func (repo *RiderRepo) GetByID(ctx context.Context, riderID string) (*profile.Rider, error) {
	var r profile.Rider
	err := repo.pool.QueryRow(ctx, `
		SELECT id, created_at, updated_at, name, rating_avg, rating_count
		FROM riders
		WHERE id = $1
	`, riderID).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt, &r.Name, &r.Rating.Average, &r.Rating.Count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: select rider: %w", trip.ErrStorage, err)
	}
	return &r, nil
}

// AbsorbRating mirrors DriverRepo.AbsorbRating for the rider side.
func (repo *RiderRepo) AbsorbRating(ctx context.Context, riderID string, stars int) (profile.RatingAggregate, error) {
	var agg profile.RatingAggregate
	err := repo.pool.QueryRow(ctx, `
		UPDATE riders
		SET rating_avg = round(((rating_avg * rating_count + $2)::numeric / (rating_count + 1)), 1),
		    rating_count = rating_count + 1,
		    updated_at = now()
		WHERE id = $1
		RETURNING rating_avg, rating_count
	`, riderID, stars).Scan(&agg.Average, &agg.Count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return profile.RatingAggregate{}, trip.ErrNotFound
		}
		return profile.RatingAggregate{}, fmt.Errorf("%w: absorb rider rating: %w", trip.ErrStorage, err)
	}
	return agg, nil
}
