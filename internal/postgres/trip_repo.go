package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridepulse/internal/domain/trip"
	"ridepulse/internal/ports"
)

// TripRepo persists trips using pgx and plain SQL. Every state change is a
// single conditional UPDATE; RowsAffected decides who won under concurrency,
// so no row locks or explicit transactions are needed here.
type TripRepo struct {
	pool *pgxpool.Pool
}

// NewTripRepo constructs a new TripRepo.
func NewTripRepo(pool *pgxpool.Pool) ports.TripRepository {
	return &TripRepo{pool: pool}
}

const tripColumns = `
	id, created_at, updated_at, trip_number, rider_id, driver_id,
	vehicle_class, status, origin_lat, origin_lng, destination_lat, destination_lng,
	distance_km, duration_min, fare_amount, verification_code,
	requested_at, accepted_at, started_at, completed_at, cancelled_at, cancellation_reason,
	by_rider_stars, by_rider_comment, by_rider_rated_at,
	by_driver_stars, by_driver_comment, by_driver_rated_at`

// Create inserts a new trip row in pending state.
func (repo *TripRepo) Create(ctx context.Context, t *trip.Trip) error {
	err := repo.pool.QueryRow(ctx, `
		INSERT INTO trips (
			trip_number, rider_id, vehicle_class, status,
			origin_lat, origin_lng, destination_lat, destination_lng,
			distance_km, duration_min, fare_amount, verification_code
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at, requested_at
	`,
		t.TripNumber,
		t.RiderID,
		t.Class.String(),
		t.Status.String(), // "pending"
		t.Origin.Latitude,
		t.Origin.Longitude,
		t.Destination.Latitude,
		t.Destination.Longitude,
		t.DistanceKm,
		t.DurationMin,
		t.FareAmount,
		t.VerificationCode,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.RequestedAt)
	if err != nil {
		return fmt.Errorf("%w: insert trip: %w", trip.ErrStorage, err)
	}
	return nil
}

// GetByID fetches a trip by primary key. A missing row yields (nil, nil).
func (repo *TripRepo) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	row := repo.pool.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
	t, err := scanTrip(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: select trip: %w", trip.ErrStorage, err)
	}
	return t, nil
}

// AcceptIfPending is the accept race arbiter: the row moves to accepted only
// if it is still pending with no driver. Exactly one concurrent caller sees
// true.
func (repo *TripRepo) AcceptIfPending(ctx context.Context, tripID, driverID string, acceptedAt time.Time) (bool, error) {
	tag, err := repo.pool.Exec(ctx, `
		UPDATE trips
		SET status = 'accepted',
		    driver_id = $2,
		    accepted_at = $3,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'pending'
		  AND driver_id IS NULL
	`, tripID, driverID, acceptedAt)
	if err != nil {
		return false, fmt.Errorf("%w: accept trip: %w", trip.ErrStorage, err)
	}
	return tag.RowsAffected() == 1, nil
}

// StartIfCodeMatches moves accepted -> ongoing only when the assigned driver
// presents the stored verification code. A mismatch changes nothing.
func (repo *TripRepo) StartIfCodeMatches(ctx context.Context, tripID, driverID, code string, startedAt time.Time) (bool, error) {
	tag, err := repo.pool.Exec(ctx, `
		UPDATE trips
		SET status = 'ongoing',
		    started_at = $4,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'accepted'
		  AND driver_id = $2
		  AND verification_code = $3
	`, tripID, driverID, code, startedAt)
	if err != nil {
		return false, fmt.Errorf("%w: start trip: %w", trip.ErrStorage, err)
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteIfOngoing moves ongoing -> completed for the assigned driver.
func (repo *TripRepo) CompleteIfOngoing(ctx context.Context, tripID, driverID string, completedAt time.Time) (bool, error) {
	tag, err := repo.pool.Exec(ctx, `
		UPDATE trips
		SET status = 'completed',
		    completed_at = $3,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'ongoing'
		  AND driver_id = $2
	`, tripID, driverID, completedAt)
	if err != nil {
		return false, fmt.Errorf("%w: complete trip: %w", trip.ErrStorage, err)
	}
	return tag.RowsAffected() == 1, nil
}

// CancelIfOpen moves pending|accepted -> cancelled for the owning rider.
func (repo *TripRepo) CancelIfOpen(ctx context.Context, tripID, riderID, reason string, cancelledAt time.Time) (bool, error) {
	tag, err := repo.pool.Exec(ctx, `
		UPDATE trips
		SET status = 'cancelled',
		    cancellation_reason = NULLIF($3, ''),
		    cancelled_at = $4,
		    updated_at = now()
		WHERE id = $1
		  AND rider_id = $2
		  AND status IN ('pending', 'accepted')
	`, tripID, riderID, reason, cancelledAt)
	if err != nil {
		return false, fmt.Errorf("%w: cancel trip: %w", trip.ErrStorage, err)
	}
	return tag.RowsAffected() == 1, nil
}

// RecordRatingOnce writes a side's rating only if that side is still empty
// and the trip is completed. The second write from the same side loses.
func (repo *TripRepo) RecordRatingOnce(ctx context.Context, tripID string, side trip.Side, rating *trip.Rating) (bool, error) {
	var query string
	switch side {
	case trip.SideRider:
		query = `
			UPDATE trips
			SET by_rider_stars = $2,
			    by_rider_comment = $3,
			    by_rider_rated_at = $4,
			    updated_at = now()
			WHERE id = $1
			  AND status = 'completed'
			  AND by_rider_stars IS NULL`
	case trip.SideDriver:
		query = `
			UPDATE trips
			SET by_driver_stars = $2,
			    by_driver_comment = $3,
			    by_driver_rated_at = $4,
			    updated_at = now()
			WHERE id = $1
			  AND status = 'completed'
			  AND by_driver_stars IS NULL`
	default:
		return false, fmt.Errorf("unknown trip side %q", side)
	}

	tag, err := repo.pool.Exec(ctx, query, tripID, rating.Stars, rating.Comment, rating.RatedAt)
	if err != nil {
		return false, fmt.Errorf("%w: record rating: %w", trip.ErrStorage, err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountByStatus returns trip counts grouped by status.
func (repo *TripRepo) CountByStatus(ctx context.Context) (map[trip.Status]int, error) {
	rows, err := repo.pool.Query(ctx, `SELECT status, COUNT(*) FROM trips GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%w: count trips: %w", trip.ErrStorage, err)
	}
	defer rows.Close()

	out := make(map[trip.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("%w: scan count: %w", trip.ErrStorage, err)
		}
		out[trip.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows error: %w", trip.ErrStorage, err)
	}
	return out, nil
}

// ActiveRows lists non-terminal trips, newest first.
func (repo *TripRepo) ActiveRows(ctx context.Context, offset, limit int) ([]ports.ActiveTripRow, error) {
	rows, err := repo.pool.Query(ctx, `
		SELECT id, trip_number, status, rider_id, driver_id, vehicle_class, fare_amount, requested_at
		FROM trips
		WHERE status IN ('pending', 'accepted', 'ongoing')
		ORDER BY requested_at DESC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query active trips: %w", trip.ErrStorage, err)
	}
	defer rows.Close()

	var out []ports.ActiveTripRow
	for rows.Next() {
		var r ports.ActiveTripRow
		var driverID *string
		if err := rows.Scan(&r.TripID, &r.TripNumber, &r.Status, &r.RiderID, &driverID, &r.Class, &r.FareAmount, &r.RequestedAt); err != nil {
			return nil, fmt.Errorf("%w: scan active trip: %w", trip.ErrStorage, err)
		}
		if driverID != nil {
			r.DriverID = *driverID
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows error: %w", trip.ErrStorage, err)
	}
	return out, nil
}

// --- helpers ---

// scanTrip maps a full trip row onto the domain entity.
func scanTrip(row pgx.Row) (*trip.Trip, error) {
	var t trip.Trip
	var class, status string
	var riderStars, driverStars *int
	var riderComment, driverComment *string
	var riderRatedAt, driverRatedAt *time.Time

	err := row.Scan(
		&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.TripNumber, &t.RiderID, &t.DriverID,
		&class, &status, &t.Origin.Latitude, &t.Origin.Longitude, &t.Destination.Latitude, &t.Destination.Longitude,
		&t.DistanceKm, &t.DurationMin, &t.FareAmount, &t.VerificationCode,
		&t.RequestedAt, &t.AcceptedAt, &t.StartedAt, &t.CompletedAt, &t.CancelledAt, &t.CancellationReason,
		&riderStars, &riderComment, &riderRatedAt,
		&driverStars, &driverComment, &driverRatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Class = trip.VehicleClass(class)
	t.Status = trip.Status(status)
	if riderStars != nil {
		t.ByRider = &trip.Rating{Stars: *riderStars, Comment: riderComment, RatedAt: *riderRatedAt}
	}
	if driverStars != nil {
		t.ByDriver = &trip.Rating{Stars: *driverStars, Comment: driverComment, RatedAt: *driverRatedAt}
	}
	return &t, nil
}
