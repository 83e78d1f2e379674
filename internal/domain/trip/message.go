package trip

import (
	"strings"
	"time"
)

// Message is one entry of the append-only per-trip chat log.
type Message struct {
	ID       string
	TripID   string
	SenderID string
	Side     Side
	Text     string
	SentAt   time.Time
}

// NewMessage validates and builds a chat entry for the given trip.
func (t *Trip) NewMessage(senderID, text string) (*Message, error) {
	side, ok := t.ParticipantSide(senderID)
	if !ok {
		return nil, ErrUnauthorized
	}
	if text = strings.TrimSpace(text); text == "" {
		return nil, ErrEmptyMessage
	}
	return &Message{
		TripID:   t.ID,
		SenderID: senderID,
		Side:     side,
		Text:     text,
		SentAt:   time.Now().UTC(),
	}, nil
}
