package contracts

import "time"

// TripStatusMessage is published on every lifecycle change.
// Routing key: "trip.status.{status}" on ExchangeTripTopic.
type TripStatusMessage struct {
	TripID     string    `json:"trip_id"`
	TripNumber string    `json:"trip_number,omitempty"`
	Status     string    `json:"status"` // pending|accepted|ongoing|completed|cancelled
	Timestamp  time.Time `json:"timestamp"`
	RiderID    string    `json:"rider_id,omitempty"`
	DriverID   string    `json:"driver_id,omitempty"`
	FareAmount *float64  `json:"fare_amount,omitempty"`
	Envelope
}

// WSFrame is the uniform shape of every frame pushed to a party.
type WSFrame struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// TripOfferData is the payload of "new-trip-offer" frames sent to candidate
// drivers.
type TripOfferData struct {
	TripID           string   `json:"trip_id"`
	TripNumber       string   `json:"trip_number,omitempty"`
	Origin           GeoPoint `json:"origin"`
	Destination      GeoPoint `json:"destination"`
	FareAmount       float64  `json:"fare_amount"`
	DistanceKm       float64  `json:"distance_km"`
	DurationMinutes  int      `json:"duration_minutes"`
	PickupDistanceKm float64  `json:"pickup_distance_km,omitempty"`
	Envelope
}

// TripStatusData is the payload of trip-accepted / trip-started /
// trip-completed / trip-cancelled frames.
type TripStatusData struct {
	TripID           string       `json:"trip_id"`
	Status           string       `json:"status"`
	Driver           *DriverBrief `json:"driver,omitempty"`
	VerificationCode string       `json:"verification_code,omitempty"` // rider copy of trip-accepted only
	Reason           string       `json:"reason,omitempty"`
	Envelope
}

// RatingReceivedData is the payload of "rating-received" frames sent to the
// rated party.
type RatingReceivedData struct {
	TripID     string  `json:"trip_id"`
	Stars      int     `json:"stars"`
	NewAverage float64 `json:"new_average"`
	Envelope
}

// ChatMessageData is the payload of "chat-message" frames relayed to the
// counterparty.
type ChatMessageData struct {
	TripID   string    `json:"trip_id"`
	SenderID string    `json:"sender_id"`
	Side     string    `json:"side"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
	Envelope
}

// WSLocationUpdate is the inbound "location_update" message from drivers.
type WSLocationUpdate struct {
	Type      string  `json:"type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WSAvailabilityUpdate is the inbound "availability" message from drivers.
type WSAvailabilityUpdate struct {
	Type      string `json:"type"`
	Available bool   `json:"available"`
}

// WSChatMessage is the inbound "chat" message from either party.
type WSChatMessage struct {
	Type   string `json:"type"`
	TripID string `json:"trip_id"`
	Text   string `json:"text"`
}
