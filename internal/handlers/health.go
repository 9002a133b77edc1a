package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/database"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/rabbitmq"
)

// HealthHandler reports the health of the service's collaborators
type HealthHandler struct {
	DB    *gorm.DB
	RMQ   *rabbitmq.Connection
	Redis *redis.Client
}

func NewHealthHandler(db *gorm.DB, rmq *rabbitmq.Connection, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		DB:    db,
		RMQ:   rmq,
		Redis: redisClient,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthCheck handles the health check endpoint
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	status := "healthy"

	if err := database.HealthCheck(ctx, h.DB); err != nil {
		services["database"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		services["database"] = "healthy"
	}

	if h.RMQ == nil || !h.RMQ.IsHealthy() {
		services["rabbitmq"] = "unhealthy: connection closed"
		status = "unhealthy"
	} else {
		services["rabbitmq"] = "healthy"
	}

	if h.Redis == nil {
		services["redis"] = "unhealthy: client not initialized"
		status = "unhealthy"
	} else if err := h.Redis.Ping(ctx).Err(); err != nil {
		services["redis"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		services["redis"] = "healthy"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	}

	if status == "unhealthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}
