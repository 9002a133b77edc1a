package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/handlers"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/signature"
)

// SetupRoutes configures all application routes with dependencies.
// Signature verification applies only to the ingestion endpoint: it
// must see the raw request bytes, and read-only endpoints carry no
// signed payload.
func SetupRoutes(
	app *fiber.App,
	eventsHandler *handlers.EventsHandler,
	healthHandler *handlers.HealthHandler,
	verifier *signature.Verifier,
	logger *zap.Logger,
) {
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")
	{
		api.Post("/events-gateway", signature.Middleware(verifier, logger), eventsHandler.ReceiveEvent)
		api.Get("/events-gateway/:eventId", eventsHandler.GetEvent)
	}
}
