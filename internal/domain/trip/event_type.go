package trip

import (
	"errors"
	"strings"
)

// EventType classifies entries of the `trip_events` log.
type EventType string

const (
	EventTripRequested   EventType = "TRIP_REQUESTED"
	EventTripAccepted    EventType = "TRIP_ACCEPTED"
	EventTripStarted     EventType = "TRIP_STARTED"
	EventTripCompleted   EventType = "TRIP_COMPLETED"
	EventTripCancelled   EventType = "TRIP_CANCELLED"
	EventRatingSubmitted EventType = "RATING_SUBMITTED"
	EventMessageSent     EventType = "MESSAGE_SENT"
)

var ErrInvalidEventType = errors.New("invalid trip event type")

// ParseEventType normalizes (uppercases+trims) and validates an event type string.
func ParseEventType(input string) (EventType, error) {
	eventType := EventType(strings.ToUpper(strings.TrimSpace(input)))
	if eventType.Valid() {
		return eventType, nil
	}
	return "", ErrInvalidEventType
}

// Valid reports whether eventType is one of the allowed event type constants.
func (eventType EventType) Valid() bool {
	switch eventType {
	case EventTripRequested,
		EventTripAccepted,
		EventTripStarted,
		EventTripCompleted,
		EventTripCancelled,
		EventRatingSubmitted,
		EventMessageSent:
		return true
	default:
		return false
	}
}

// String returns the string representation of the EventType.
func (eventType EventType) String() string {
	return string(eventType)
}
