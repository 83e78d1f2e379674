package contracts

import "time"

// Envelope adds cross-cutting headers all messages may carry.
type Envelope struct {
	CorrelationID string    `json:"correlation_id,omitempty"` // Correlation for tracing across consumers
	Producer      string    `json:"producer,omitempty"`       // Producer name, e.g. "trip-engine"
	SentAt        time.Time `json:"sent_at,omitempty"`        // ISO-8601 send time (UTC)
}

type GeoPoint struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

type DriverBrief struct {
	DriverID string  `json:"driver_id"`
	Name     string  `json:"name,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
	Class    string  `json:"vehicle_class,omitempty"`
}
