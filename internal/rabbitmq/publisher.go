package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ridepulse/internal/contracts"
	"ridepulse/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventPublisher publishes trip events to the trip topic exchange.
type EventPublisher struct {
	Client *Client
}

var _ ports.EventPublisher = (*EventPublisher)(nil)

func NewEventPublisher(client *Client) *EventPublisher {
	return &EventPublisher{Client: client}
}

// Publish marshals body as JSON and sends it to the trip topic exchange
// under the given routing key.
func (publisher *EventPublisher) Publish(ctx context.Context, routingKey string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal message: %w", err)
	}
	return publisher.Client.publishMessage(ctx, contracts.ExchangeTripTopic, routingKey, payload)
}

// publishMessage publishes a persistent JSON message and waits for the
// broker confirm.
func (client *Client) publishMessage(ctx context.Context, exchange, routingKey string, body []byte) error {
	client.mu.RLock()
	ch := client.pubChan
	conn := client.conn
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return errors.New("rabbitmq: connection is not open")
	}
	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: publish channel is not open")
	}

	client.pubMu.Lock()
	defer client.pubMu.Unlock()
	confirms := client.pubConfirms

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := ch.PublishWithContext(ctx, exchange, routingKey, true /* mandatory */, false, /* immediate */
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	); err != nil {
		return err
	}

	select {
	case c := <-confirms:
		if !c.Ack {
			return fmt.Errorf("rabbitmq: publish not acknowledged")
		}
	case <-ctx.Done():
		// keep the confirm stream aligned: consume exactly one confirm
		// even though the caller gets a timeout
		select {
		case c := <-confirms:
			if !c.Ack {
				return fmt.Errorf("rabbitmq: publish not acknowledged after timeout")
			}
		case <-time.After(2 * time.Second):
		}

		return ctx.Err()
	}

	return nil
}
