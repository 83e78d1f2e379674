package trip

import (
	"errors"
	"fmt"
)

// Classification roots. Callers branch on these with errors.Is; the more
// specific sentinels below wrap them so a handler never has to match strings.
var (
	ErrInput    = errors.New("invalid input")
	ErrNotFound = errors.New("trip not found")
	ErrStorage  = errors.New("storage failure")
)

var (
	ErrRiderRequired   = fmt.Errorf("%w: rider id is required", ErrInput)
	ErrDriverRequired  = fmt.Errorf("%w: driver id is required", ErrInput)
	ErrSamePoints      = fmt.Errorf("%w: origin and destination are identical", ErrInput)
	ErrStarsOutOfRange = fmt.Errorf("%w: stars must be between 1 and 5", ErrInput)
	ErrEmptyMessage    = fmt.Errorf("%w: message text is required", ErrInput)
	ErrCommentTooLong  = fmt.Errorf("%w: comment exceeds %d characters", ErrInput, MaxCommentLength)

	// ErrAlreadyTaken is returned to every acceptor that loses the race for a
	// pending trip.
	ErrAlreadyTaken = errors.New("trip already taken by another driver")

	// ErrInvalidCode is returned when the start verification code does not
	// match. The trip state is left untouched.
	ErrInvalidCode = errors.New("verification code mismatch")

	// ErrUnauthorized is returned when the acting party is not a participant
	// of the trip, or acts in a role the operation does not allow.
	ErrUnauthorized = errors.New("actor is not a participant of this trip")

	// ErrAlreadyRated is returned when a side tries to rate the same trip twice.
	ErrAlreadyRated = errors.New("trip already rated by this side")

	// ErrNotCompleted is returned when a rating is submitted for a trip that
	// has not reached the completed state.
	ErrNotCompleted = errors.New("trip is not completed")
)

// InvalidTransitionError reports a lifecycle move the state machine forbids.
type InvalidTransitionError struct {
	Current   Status
	Attempted Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.Current, e.Attempted)
}

// NewInvalidTransition builds an InvalidTransitionError for the given pair.
func NewInvalidTransition(current, attempted Status) error {
	return &InvalidTransitionError{Current: current, Attempted: attempted}
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
