package lifecycle

import (
	"context"

	"ridepulse/internal/contracts"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/ports"
)

// SendMessage appends a chat entry to the trip and relays it to the
// counterparty's live connection when there is one.
func (service *tripService) SendMessage(ctx context.Context, in ports.SendMessageInput) (ports.MessageView, error) {
	t, err := service.loadTrip(ctx, in.TripID)
	if err != nil {
		return ports.MessageView{}, err
	}

	m, err := t.NewMessage(in.SenderID, in.Text)
	if err != nil {
		return ports.MessageView{}, err
	}

	if err := service.messages.Append(ctx, m); err != nil {
		return ports.MessageView{}, err
	}

	service.appendEvent(ctx, t.ID, trip.EventMessageSent, map[string]any{
		"sender_id": in.SenderID,
		"side":      m.Side.String(),
	})

	// best-effort relay; the counterparty catches up over HTTP otherwise
	if other := t.Counterparty(m.Side); other != "" {
		service.notifier.Notify(other, contracts.EventChatMessage, contracts.ChatMessageData{
			TripID:   t.ID,
			SenderID: m.SenderID,
			Side:     m.Side.String(),
			Text:     m.Text,
			SentAt:   m.SentAt,
		})
	}

	return messageView(m), nil
}

// ListMessages returns the trip's chat log for one of its participants.
func (service *tripService) ListMessages(ctx context.Context, tripID, partyID string, limit int) ([]ports.MessageView, error) {
	t, err := service.loadTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if _, ok := t.ParticipantSide(partyID); !ok {
		return nil, trip.ErrUnauthorized
	}

	msgs, err := service.messages.ListForTrip(ctx, tripID, limit)
	if err != nil {
		return nil, err
	}

	views := make([]ports.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView(m))
	}
	return views, nil
}

func messageView(m *trip.Message) ports.MessageView {
	return ports.MessageView{
		MessageID: m.ID,
		SenderID:  m.SenderID,
		Side:      m.Side.String(),
		Text:      m.Text,
		SentAt:    m.SentAt,
	}
}
