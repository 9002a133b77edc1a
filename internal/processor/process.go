package processor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/metrics"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/models"
)

// Process runs the idempotent processing state machine for one queued
// event. A nil return means the delivery is settled: routed, skipped as
// a duplicate, or terminally rejected by the shipment gate. A non-nil
// return means a transient failure the retry machinery should
// reschedule with backoff.
func (p *Processor) Process(ctx context.Context, sub *models.EventSubmission) error {
	// Durable idempotency check: another attempt may already have
	// completed this event.
	existing, err := p.events.FindByEventID(sub.EventID)
	if err != nil {
		return err
	}
	if existing != nil && existing.Status == models.EventStatusProcessed {
		metrics.DuplicatesSuppressed.WithLabelValues("status").Inc()
		p.logger.Info("Event already processed, skipping",
			zap.String("event_id", sub.EventID),
		)
		return nil
	}

	// Advisory lock: denial means another holder is mid-flight and
	// owns completion, so this delivery ends as a no-op success.
	token, ok, err := p.locks.Acquire(ctx, sub.EventID, sub.ShipmentID)
	if err != nil {
		return err
	}
	if !ok {
		metrics.DuplicatesSuppressed.WithLabelValues("lock").Inc()
		p.logger.Info("Duplicate event skipped (lock held)",
			zap.String("event_id", sub.EventID),
			zap.String("shipment_id", sub.ShipmentID),
		)
		return nil
	}

	succeeded := false
	defer func() {
		// On success the lock is left to expire by TTL: the durable
		// PROCESSED row is the authoritative guard, and releasing early
		// would open a window for a concurrent duplicate to re-enter
		// before the status write is visible. Every other exit releases
		// with the held token so a retry can reacquire immediately.
		if succeeded {
			return
		}
		if rerr := p.locks.Release(ctx, sub.EventID, sub.ShipmentID, token); rerr != nil {
			p.logger.Error("Failed to release event lock",
				zap.String("event_id", sub.EventID),
				zap.String("shipment_id", sub.ShipmentID),
				zap.Error(rerr),
			)
		}
	}()

	// Persist PENDING before any side effect; the upsert keeps the
	// first row on redelivery.
	if err := p.events.Save(sub.ToEvent()); err != nil {
		return p.fail(sub, err)
	}
	if err := p.events.IncrementAttempts(sub.EventID); err != nil {
		return p.fail(sub, err)
	}

	shipment, err := p.shipments.EnsureActive(sub.ShipmentID, sub.MerchantID)
	if err != nil {
		return p.fail(sub, err)
	}

	if shipment.Status != models.ShipmentStatusActive {
		// Permanent business rejection, not a transient fault: record
		// FAILED and finish without retry.
		p.logger.Warn("Shipment not active, skipping routing",
			zap.String("event_id", sub.EventID),
			zap.String("shipment_id", sub.ShipmentID),
			zap.String("shipment_status", string(shipment.Status)),
		)
		reason := fmt.Sprintf("shipment %s is %s", sub.ShipmentID, shipment.Status)
		if uerr := p.events.MarkFailed(sub.EventID, reason); uerr != nil {
			// The rejection itself could not be recorded; let the
			// queue retry so the outcome becomes durable.
			return uerr
		}
		metrics.EventsFailed.WithLabelValues("gate").Inc()
		return nil
	}

	request, err := p.buildRoutingRequest(sub)
	if err != nil {
		return p.fail(sub, err)
	}

	result, err := p.router.Route(ctx, request)
	if err != nil {
		metrics.RoutingCalls.WithLabelValues("error").Inc()
		return p.fail(sub, err)
	}
	metrics.RoutingCalls.WithLabelValues("success").Inc()

	if err := p.events.MarkProcessed(sub.EventID, result.RouteID); err != nil {
		return p.fail(sub, err)
	}

	succeeded = true
	metrics.EventsProcessed.Inc()
	p.logger.Info("Event routed",
		zap.String("event_id", sub.EventID),
		zap.String("route_id", result.RouteID),
	)
	return nil
}

// fail records the failure for observability and resurfaces the cause
// so the queue substrate schedules a retry. The status write is
// best-effort: its own failure must not mask the triggering error.
func (p *Processor) fail(sub *models.EventSubmission, cause error) error {
	if uerr := p.events.MarkFailed(sub.EventID, cause.Error()); uerr != nil {
		p.logger.Error("Failed to update event status to FAILED",
			zap.String("event_id", sub.EventID),
			zap.Error(uerr),
		)
	}
	metrics.EventsFailed.WithLabelValues("transient").Inc()
	p.logger.Error("Failed to process event",
		zap.String("event_id", sub.EventID),
		zap.Error(cause),
	)
	return cause
}
