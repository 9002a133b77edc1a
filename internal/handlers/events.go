package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/metrics"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/models"
)

// Enqueuer hands an accepted submission to the durable queue.
type Enqueuer interface {
	Enqueue(submission *models.EventSubmission) error
}

// EventFinder looks up the durable record of an event.
type EventFinder interface {
	FindByEventID(eventID string) (*models.Event, error)
}

// EventsHandler handles event ingestion and status lookup
type EventsHandler struct {
	Gateway Enqueuer
	Events  EventFinder
	Logger  *zap.Logger
}

// NewEventsHandler creates a new events handler with dependencies
func NewEventsHandler(gateway Enqueuer, events EventFinder, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		Gateway: gateway,
		Events:  events,
		Logger:  logger,
	}
}

// ReceiveEvent handles POST /api/v1/events-gateway. The signature
// middleware has already authenticated the raw body by the time this
// runs. 202 means durably scheduled, never processed.
func (h *EventsHandler) ReceiveEvent(c *fiber.Ctx) error {
	metrics.EventsReceived.Inc()

	var submission models.EventSubmission
	if err := c.BodyParser(&submission); err != nil {
		metrics.EventsRejected.WithLabelValues("schema").Inc()
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "malformed event submission",
		})
	}

	if err := submission.Validate(); err != nil {
		metrics.EventsRejected.WithLabelValues("schema").Inc()
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.Gateway.Enqueue(&submission); err != nil {
		h.Logger.Error("Failed to enqueue event",
			zap.String("event_id", submission.EventID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to accept event",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "accepted",
	})
}

// EventStatusResponse is the read model for GET /events-gateway/:eventId
type EventStatusResponse struct {
	EventID      string  `json:"event_id"`
	ShipmentID   string  `json:"shipment_id"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	AttemptCount int     `json:"attempt_count"`
	RouteID      *string `json:"route_id"`
	LastError    *string `json:"last_error"`
	CreatedAt    string  `json:"created_at"`
	ProcessedAt  *string `json:"processed_at"`
}

// GetEvent handles GET /api/v1/events-gateway/:eventId
func (h *EventsHandler) GetEvent(c *fiber.Ctx) error {
	eventID := c.Params("eventId")
	if eventID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "eventId path parameter is required",
		})
	}

	event, err := h.Events.FindByEventID(eventID)
	if err != nil {
		h.Logger.Error("Failed to query event",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch event",
		})
	}
	if event == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "event not found",
		})
	}

	response := EventStatusResponse{
		EventID:      event.EventID,
		ShipmentID:   event.ShipmentID,
		Type:         string(event.Type),
		Status:       string(event.Status),
		AttemptCount: event.AttemptCount,
		RouteID:      event.RouteID,
		LastError:    event.LastError,
		CreatedAt:    event.CreatedAt.UTC().Format(time.RFC3339),
	}
	if event.ProcessedAt != nil {
		processedAt := event.ProcessedAt.UTC().Format(time.RFC3339)
		response.ProcessedAt = &processedAt
	}

	return c.JSON(response)
}
