package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/config"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/database"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/gateway"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/handlers"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/lock"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/logger"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/metrics"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/processor"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/rabbitmq"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/routes"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/routing"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/signature"
	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/store"
)

func main() {
	if err := logger.Init(os.Getenv("LOG_LEVEL")); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()
	log := logger.Logger

	// Load configuration; misconfiguration is fatal here, never per-request
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	verifier, err := signature.NewVerifier(cfg.Gateway.SignatureSecret)
	if err != nil {
		logger.Fatal("Failed to initialize signature verifier", zap.Error(err))
	}

	// Connect to PostgreSQL and apply migrations
	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := database.RunMigrations(&cfg.Database, log); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to Redis (distributed lock backing store)
	redisClient, err := lock.NewClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Connect to RabbitMQ and declare the queue topology
	conn := rabbitmq.NewConnection(&cfg.RabbitMQ, log)
	if err := conn.Connect(); err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer conn.Close()

	if err := conn.DeclareTopology(&cfg.Worker); err != nil {
		logger.Fatal("Failed to declare queue topology", zap.Error(err))
	}

	metrics.Register()

	// Wire the processing pipeline
	events := store.NewEventStore(db)
	shipments := store.NewShipmentStore(db)
	locks := lock.NewService(redisClient, lock.DefaultTTL, log)
	router := routing.NewClient(&cfg.Routing, log)

	proc := processor.New(&cfg.Worker, conn, events, shipments, locks, router, log)
	if err := proc.Start(); err != nil {
		logger.Fatal("Failed to start processor", zap.Error(err))
	}

	gw := gateway.New(conn, cfg.Worker.ProcessQueue, log)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Events Gateway",
		ServerHeader: "Fiber",
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Signature",
	}))

	eventsHandler := handlers.NewEventsHandler(gw, events, log)
	healthHandler := handlers.NewHealthHandler(db, conn, redisClient)
	routes.SetupRoutes(app, eventsHandler, healthHandler, verifier, log)

	// Start server in a goroutine
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}

	if err := proc.Stop(); err != nil {
		logger.Error("Error stopping processor", zap.Error(err))
	}

	logger.Info("Server stopped")
}
