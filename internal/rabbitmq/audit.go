package rabbitmq

import (
	"context"
	"encoding/json"

	"ridepulse/internal/contracts"
	"ridepulse/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RunAuditLog consumes the audit queue and writes every trip event to the
// structured log. It blocks until ctx is cancelled.
func RunAuditLog(ctx context.Context, client *Client, log *logger.Logger, prefetch int) error {
	return client.Consume(ctx, contracts.QueueTripAudit, "trip-audit", prefetch, func(ctx context.Context, d amqp.Delivery) error {
		var env contracts.Envelope
		if err := json.Unmarshal(d.Body, &env); err != nil {
			log.Error(ctx, "audit_decode_failed", "Failed to decode audit message", err, map[string]any{
				"routingKey": d.RoutingKey,
				"size":       len(d.Body),
			})
			return err
		}

		log.Info(ctx, "trip_audit", "Trip event observed", map[string]any{
			"routingKey":    d.RoutingKey,
			"correlationId": env.CorrelationID,
			"payload":       json.RawMessage(d.Body),
		})
		return nil
	})
}
