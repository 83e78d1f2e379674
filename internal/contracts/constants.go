package contracts

// Exchanges
const (
	ExchangeTripTopic = "trip_topic"
)

// Queues
const (
	QueueTripStatus = "trip_status"
	QueueTripAudit  = "trip_audit"
)

// Routing patterns
const (
	RouteTripStatusPrefix = "trip.status." // {status}
	RouteTripRatingKey    = "trip.rating"
)

// WebSocket event names. These are the wire-level names both parties see.
const (
	EventNewTripOffer   = "new-trip-offer"
	EventTripAccepted   = "trip-accepted"
	EventTripStarted    = "trip-started"
	EventTripCompleted  = "trip-completed"
	EventTripCancelled  = "trip-cancelled"
	EventRatingReceived = "rating-received"
	EventChatMessage    = "chat-message"
)

// Inbound WebSocket message types.
const (
	MsgTypeLocationUpdate = "location_update"
	MsgTypeAvailability   = "availability"
	MsgTypeChat           = "chat"
)
