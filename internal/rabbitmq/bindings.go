package rabbitmq

import (
	"fmt"

	"ridepulse/internal/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(contracts.ExchangeTripTopic, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", contracts.ExchangeTripTopic, err)
	}

	queues := []string{
		contracts.QueueTripStatus,
		contracts.QueueTripAudit,
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	bindings := []struct {
		queue      string
		routingKey string
	}{
		{contracts.QueueTripStatus, contracts.RouteTripStatusPrefix + "*"},
		{contracts.QueueTripAudit, contracts.RouteTripStatusPrefix + "*"},
		{contracts.QueueTripAudit, contracts.RouteTripRatingKey},
	}

	for _, b := range bindings {
		if err := ch.QueueBind(b.queue, b.routingKey, contracts.ExchangeTripTopic, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, contracts.ExchangeTripTopic, err)
		}
	}

	return nil
}
