package trip

import (
	"strings"
	"time"

	"ridepulse/internal/domain/geo"
)

// Trip is the domain entity corresponding to the `trips` table.
type Trip struct {
	// Identity & audit
	ID         string
	TripNumber string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Actors
	RiderID  string
	DriverID *string // nil until accepted

	// Core state
	Class  VehicleClass
	Status Status

	// Route snapshot, fixed at creation
	Origin      geo.Point
	Destination geo.Point
	DistanceKm  float64
	DurationMin int
	FareAmount  float64

	// Start verification. Generated at creation, checked at accepted -> ongoing.
	VerificationCode string

	// Lifecycle timestamps
	RequestedAt time.Time
	AcceptedAt  *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time

	CancellationReason *string

	// Ratings left by each side, nil until submitted. Write-once.
	ByRider  *Rating
	ByDriver *Rating
}

// NewTrip creates a trip in pending state with a fare snapshot and a
// verification code already assigned.
func NewTrip(tripNumber, riderID string, class VehicleClass, origin, destination geo.Point, distanceKm float64, durationMin int, fareAmount float64, verificationCode string) (*Trip, error) {
	if riderID = strings.TrimSpace(riderID); riderID == "" {
		return nil, ErrRiderRequired
	}
	if !class.Valid() {
		return nil, ErrInvalidVehicleClass
	}
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if err := destination.Validate(); err != nil {
		return nil, err
	}
	if origin == destination {
		return nil, ErrSamePoints
	}

	now := time.Now().UTC()
	return &Trip{
		TripNumber:       tripNumber,
		CreatedAt:        now,
		UpdatedAt:        now,
		RiderID:          riderID,
		Class:            class,
		Status:           StatusPending,
		Origin:           origin,
		Destination:      destination,
		DistanceKm:       distanceKm,
		DurationMin:      durationMin,
		FareAmount:       fareAmount,
		VerificationCode: verificationCode,
		RequestedAt:      now,
	}, nil
}

// Accept assigns the driver and moves pending -> accepted. A trip that is no
// longer pending yields ErrAlreadyTaken when another driver holds it, or a
// transition error otherwise.
func (t *Trip) Accept(driverID string) error {
	if strings.TrimSpace(driverID) == "" {
		return ErrDriverRequired
	}
	if t.Status != StatusPending {
		if t.DriverID != nil && *t.DriverID != driverID {
			return ErrAlreadyTaken
		}
		return NewInvalidTransition(t.Status, StatusAccepted)
	}

	now := time.Now().UTC()
	t.DriverID = &driverID
	t.AcceptedAt = &now
	t.setStatus(StatusAccepted)
	return nil
}

// Start moves accepted -> ongoing after checking the verification code
// presented by the assigned driver. A mismatch leaves the trip untouched.
func (t *Trip) Start(driverID, code string) error {
	if t.DriverID == nil || *t.DriverID != driverID {
		return ErrUnauthorized
	}
	if t.Status != StatusAccepted {
		return NewInvalidTransition(t.Status, StatusOngoing)
	}
	if code != t.VerificationCode {
		return ErrInvalidCode
	}

	now := time.Now().UTC()
	t.StartedAt = &now
	t.setStatus(StatusOngoing)
	return nil
}

// Complete moves ongoing -> completed, requested by the assigned driver.
func (t *Trip) Complete(driverID string) error {
	if t.DriverID == nil || *t.DriverID != driverID {
		return ErrUnauthorized
	}
	if t.Status != StatusOngoing {
		return NewInvalidTransition(t.Status, StatusCompleted)
	}

	now := time.Now().UTC()
	t.CompletedAt = &now
	t.setStatus(StatusCompleted)
	return nil
}

// Cancel moves pending|accepted -> cancelled, requested by the rider.
func (t *Trip) Cancel(riderID, reason string) error {
	if t.RiderID != riderID {
		return ErrUnauthorized
	}
	if !t.Status.CanTransitionTo(StatusCancelled) {
		return NewInvalidTransition(t.Status, StatusCancelled)
	}

	now := time.Now().UTC()
	t.CancelledAt = &now
	if rs := strings.TrimSpace(reason); rs != "" {
		t.CancellationReason = &rs
	}
	t.setStatus(StatusCancelled)
	return nil
}

// ParticipantSide reports which side of the trip the given party is on.
func (t *Trip) ParticipantSide(partyID string) (Side, bool) {
	if partyID == t.RiderID {
		return SideRider, true
	}
	if t.DriverID != nil && *t.DriverID == partyID {
		return SideDriver, true
	}
	return "", false
}

// Counterparty returns the party on the other side of the trip from side.
func (t *Trip) Counterparty(side Side) string {
	if side == SideRider {
		if t.DriverID == nil {
			return ""
		}
		return *t.DriverID
	}
	return t.RiderID
}

// CodeVisibleTo reports whether the verification code belongs in a projection
// built for the given party. Riders see it only while the trip is accepted;
// it stays on the server for the whole lifetime.
func (t *Trip) CodeVisibleTo(side Side) bool {
	return side == SideRider && t.Status == StatusAccepted
}

// ----- internal helpers -----

func (t *Trip) setStatus(status Status) {
	t.Status = status
	t.touch()
}

func (t *Trip) touch() {
	t.UpdatedAt = time.Now().UTC()
}
