package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/config"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/models"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/rabbitmq"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/routing"
)

// EventStore is the durable status record the processor relies on for
// exactly-once-effective semantics.
type EventStore interface {
	Save(event *models.Event) error
	FindByEventID(eventID string) (*models.Event, error)
	MarkProcessed(eventID, routeID string) error
	MarkFailed(eventID, reason string) error
	IncrementAttempts(eventID string) error
}

// ShipmentStore resolves the gating shipment, creating an ACTIVE stub
// for first-seen shipment ids.
type ShipmentStore interface {
	EnsureActive(shipmentID, merchantID string) (*models.Shipment, error)
}

// Locker is the distributed duplicate-suppression primitive.
type Locker interface {
	Acquire(ctx context.Context, eventID, shipmentID string) (token string, ok bool, err error)
	Release(ctx context.Context, eventID, shipmentID, token string) error
}

// Router calls the downstream routing dependency.
type Router interface {
	Route(ctx context.Context, request *routing.Request) (*routing.Result, error)
}

// Publisher republishes jobs for retry and dead-lettering.
type Publisher interface {
	Publish(queue string, body []byte, headers amqp.Table, expiration string) error
}

// Processor consumes queued events with bounded concurrency and drives
// each one through lock, status check, persist, gate, route and
// finalize. Multiple processor instances may run concurrently; all
// shared mutable state goes through the lock service and the stores,
// never through in-process memory.
type Processor struct {
	cfg         *config.WorkerConfig
	conn        *rabbitmq.Connection
	publisher   Publisher
	events      EventStore
	shipments   ShipmentStore
	locks       Locker
	router      Router
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	consumerTag string
	started     bool
}

// New creates a processor ready to Start.
func New(
	cfg *config.WorkerConfig,
	conn *rabbitmq.Connection,
	events EventStore,
	shipments ShipmentStore,
	locks Locker,
	router Router,
	logger *zap.Logger,
) *Processor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		cfg:         cfg,
		conn:        conn,
		publisher:   conn,
		events:      events,
		shipments:   shipments,
		locks:       locks,
		router:      router,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		consumerTag: fmt.Sprintf("event-processor-%d", time.Now().Unix()),
	}
}

// Start sets the prefetch to the pool size and begins consuming.
func (p *Processor) Start() error {
	if p.cfg.ProcessQueue == "" {
		return fmt.Errorf("process queue is required")
	}

	messages, err := p.startConsuming()
	if err != nil {
		return err
	}

	p.started = true
	go p.runPool(messages)

	p.logger.Info("Processor started and consuming messages",
		zap.String("process_queue", p.cfg.ProcessQueue),
		zap.String("consumer_tag", p.consumerTag),
		zap.Int("concurrency", p.cfg.Concurrency),
	)
	return nil
}

func (p *Processor) startConsuming() (<-chan amqp.Delivery, error) {
	// Prefetch bounds in-flight deliveries to the worker pool size
	if err := p.conn.SetQoS(p.cfg.Concurrency); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	messages, err := p.conn.ConsumeMessages(p.cfg.ProcessQueue, p.consumerTag)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming from queue %s: %w", p.cfg.ProcessQueue, err)
	}

	return messages, nil
}

// Stop gracefully stops the processor
func (p *Processor) Stop() error {
	p.logger.Info("Stopping processor",
		zap.String("consumer_tag", p.consumerTag),
	)
	p.started = false
	p.cancel()

	if err := p.conn.CancelConsumer(p.consumerTag); err != nil {
		p.logger.Error("Failed to cancel consumer",
			zap.String("consumer_tag", p.consumerTag),
			zap.Error(err),
		)
	}

	p.logger.Info("Processor stopped")
	return nil
}

// runPool fans the shared delivery channel out to a fixed pool of
// workers. When the channel closes underneath us (connection loss) it
// waits for the connection manager to recover and restarts consuming.
func (p *Processor) runPool(messages <-chan amqp.Delivery) {
	done := make(chan struct{})
	for i := 0; i < p.cfg.Concurrency; i++ {
		go func() {
			for msg := range messages {
				p.handleDelivery(msg)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < p.cfg.Concurrency; i++ {
		<-done
	}

	select {
	case <-p.ctx.Done():
		return
	default:
	}

	p.logger.Warn("Message channel closed, attempting to restart consumer...",
		zap.String("process_queue", p.cfg.ProcessQueue),
	)

	for p.started {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		time.Sleep(2 * time.Second)

		if !p.conn.IsHealthy() {
			continue
		}

		restarted, err := p.startConsuming()
		if err != nil {
			p.logger.Error("Failed to restart consuming after channel close, will retry",
				zap.String("process_queue", p.cfg.ProcessQueue),
				zap.Error(err),
			)
			time.Sleep(5 * time.Second)
			continue
		}

		p.logger.Info("Successfully restarted consumer after channel close",
			zap.String("process_queue", p.cfg.ProcessQueue),
		)
		go p.runPool(restarted)
		return
	}
}

// handleDelivery decodes one queue entry, runs the processing state
// machine and translates its outcome into ack/retry/dead-letter.
func (p *Processor) handleDelivery(msg amqp.Delivery) {
	var sub models.EventSubmission
	if err := json.Unmarshal(msg.Body, &sub); err != nil {
		p.logger.Error("Failed to unmarshal event submission, rejecting",
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err),
		)
		p.reject(msg, false)
		return
	}

	attempt := attemptFromHeaders(msg.Headers)

	err := p.Process(p.ctx, &sub)
	if err == nil {
		p.ack(msg)
		return
	}

	if attempt >= p.cfg.MaxAttempts {
		p.deadLetter(&sub, attempt, err)
		p.ack(msg)
		return
	}

	if rerr := p.scheduleRetry(&sub, attempt, err); rerr != nil {
		p.logger.Error("Failed to schedule retry, requeueing delivery",
			zap.String("event_id", sub.EventID),
			zap.Error(rerr),
		)
		// Fall back to broker redelivery so the attempt is not lost
		p.reject(msg, true)
		return
	}
	p.ack(msg)
}

func (p *Processor) ack(msg amqp.Delivery) {
	if err := msg.Ack(false); err != nil {
		p.logger.Error("Failed to ack message",
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err),
		)
	}
}

func (p *Processor) reject(msg amqp.Delivery, requeue bool) {
	if err := msg.Nack(false, requeue); err != nil {
		p.logger.Error("Failed to nack message",
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err),
		)
	}
}
