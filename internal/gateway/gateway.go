package gateway

import (
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/metrics"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/models"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/rabbitmq"
)

// Publisher is the slice of the queue connection the gateway needs.
type Publisher interface {
	Publish(queue string, body []byte, headers amqp.Table, expiration string) error
}

// Gateway accepts a verified event submission and hands it to the
// durable queue. Acceptance means durably scheduled, not processed: the
// call returns as soon as the publish is confirmed and never blocks on
// downstream processing. The eventId rides the dedupe header so a
// replayed client request does not create two queue entries; a
// duplicate absorbed by the queue is deliberately not an error to the
// caller.
type Gateway struct {
	publisher Publisher
	queue     string
	logger    *zap.Logger
}

func New(publisher Publisher, queue string, logger *zap.Logger) *Gateway {
	return &Gateway{
		publisher: publisher,
		queue:     queue,
		logger:    logger,
	}
}

// Enqueue publishes the submission to the processing queue.
func (g *Gateway) Enqueue(submission *models.EventSubmission) error {
	body, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("failed to marshal event submission: %w", err)
	}

	headers := amqp.Table{
		rabbitmq.DeduplicationHeader: submission.EventID,
		rabbitmq.AttemptHeader:       int32(1),
	}

	if err := g.publisher.Publish(g.queue, body, headers, ""); err != nil {
		return fmt.Errorf("failed to enqueue event %s: %w", submission.EventID, err)
	}

	metrics.EventsAccepted.Inc()
	g.logger.Info("Event enqueued",
		zap.String("event_id", submission.EventID),
		zap.String("shipment_id", submission.ShipmentID),
		zap.String("type", submission.Type),
	)

	return nil
}
