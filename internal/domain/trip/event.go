package trip

import (
	"encoding/json"
	"errors"
	"maps"
	"strings"
	"time"
)

// Event is one row of the append-only `trip_events` log.
type Event struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time

	// Foreign keys
	TripID string

	// Core payload
	Type EventType
	Data map[string]any
}

var (
	ErrTripIDRequired = errors.New("trip id is required")
	ErrEventDataNil   = errors.New("event data must not be nil")
)

// NewEvent constructs a new log entry for the given trip.
func NewEvent(tripID string, eventType EventType, eventData map[string]any) (*Event, error) {
	if tripID = strings.TrimSpace(tripID); tripID == "" {
		return nil, ErrTripIDRequired
	}
	if !eventType.Valid() {
		return nil, ErrInvalidEventType
	}
	if eventData == nil {
		return nil, ErrEventDataNil
	}

	return &Event{
		TripID:    tripID,
		Type:      eventType,
		Data:      cloneMap(eventData),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DataJSON returns event.Data encoded as JSON.
func (event *Event) DataJSON() ([]byte, error) {
	if event.Data == nil {
		return nil, ErrEventDataNil
	}
	return json.Marshal(event.Data)
}

// cloneMap makes a shallow defensive copy of a map[string]any.
func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	maps.Copy(dst, src)
	return dst
}
