package processor

import (
	"encoding/json"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/metrics"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/models"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/rabbitmq"
)

const (
	baseRetryDelay = time.Second
	maxRetryDelay  = 5 * time.Minute
)

// backoffDelay returns the exponential delay before the given attempt:
// 1s before attempt 2, 2s before attempt 3, 4s before attempt 4, ...
// capped at maxRetryDelay.
func backoffDelay(attempt int) time.Duration {
	if attempt <= 2 {
		return baseRetryDelay
	}
	delay := baseRetryDelay << (attempt - 2)
	if delay > maxRetryDelay || delay <= 0 {
		return maxRetryDelay
	}
	return delay
}

// attemptFromHeaders reads the attempt counter off the delivery.
// A missing or malformed header counts as the first attempt.
func attemptFromHeaders(headers amqp.Table) int {
	if headers == nil {
		return 1
	}
	switch v := headers[rabbitmq.AttemptHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 1
}

// scheduleRetry parks the submission on the retry queue with a
// per-message TTL equal to the backoff delay; expiry dead-letters it
// back into the processing queue for the next attempt.
func (p *Processor) scheduleRetry(sub *models.EventSubmission, attempt int, cause error) error {
	next := attempt + 1
	delay := backoffDelay(next)

	body, err := json.Marshal(sub)
	if err != nil {
		return err
	}

	headers := amqp.Table{
		rabbitmq.AttemptHeader: int32(next),
	}
	expiration := strconv.FormatInt(delay.Milliseconds(), 10)

	if err := p.publisher.Publish(p.cfg.RetryQueue, body, headers, expiration); err != nil {
		return err
	}

	metrics.EventsRetried.Inc()
	p.logger.Info("Event scheduled for retry",
		zap.String("event_id", sub.EventID),
		zap.Int("next_attempt", next),
		zap.Int("max_attempts", p.cfg.MaxAttempts),
		zap.Duration("delay", delay),
		zap.Error(cause),
	)
	return nil
}

// deadLetter retains the exhausted job for inspection and emits the
// operator alert; the core does not auto-escalate further.
func (p *Processor) deadLetter(sub *models.EventSubmission, attempt int, cause error) {
	body, err := json.Marshal(sub)
	if err == nil {
		headers := amqp.Table{
			rabbitmq.AttemptHeader: int32(attempt),
		}
		if perr := p.publisher.Publish(p.cfg.DeadLetterQueue, body, headers, ""); perr != nil {
			p.logger.Error("Failed to publish to dead-letter queue",
				zap.String("event_id", sub.EventID),
				zap.Error(perr),
			)
		}
	}

	metrics.EventsDeadLettered.Inc()
	p.logger.Error("ALERT: event retry budget exhausted",
		zap.String("event_id", sub.EventID),
		zap.String("shipment_id", sub.ShipmentID),
		zap.Int("attempts", attempt),
		zap.NamedError("terminal_error", cause),
	)
}
