package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
	Worker   WorkerConfig
	Routing  RoutingConfig
	Gateway  GatewayConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RabbitMQConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	VHost    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// WorkerConfig tunes the processing pipeline: queue names, the worker
// pool size (also the AMQP prefetch), and the retry ceiling.
type WorkerConfig struct {
	ProcessQueue    string
	RetryQueue      string
	DeadLetterQueue string
	Concurrency     int
	MaxAttempts     int
}

type RoutingConfig struct {
	URL            string
	TimeoutSeconds int
}

// GatewayConfig holds the pre-shared HMAC secret. A missing secret is a
// startup error, never a per-request one.
type GatewayConfig struct {
	SignatureSecret string
}

func Load() (*Config, error) {
	var missing []string

	get := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}

	getDefault := func(key, def string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return def
	}

	getInt := func(key string, def int) int {
		val := os.Getenv(key)
		if val == "" {
			return def
		}
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			missing = append(missing, key+" (must be a positive integer)")
			return def
		}
		return n
	}

	redisDB := 0
	if val := os.Getenv("REDIS_DB"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			missing = append(missing, "REDIS_DB (must be a non-negative integer)")
		} else {
			redisDB = n
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: get("SERVER_PORT"),
			Host: get("SERVER_HOST"),
		},
		Database: DatabaseConfig{
			Host:     get("DB_HOST"),
			Port:     get("DB_PORT"),
			User:     get("DB_USER"),
			Password: get("DB_PASSWORD"),
			DBName:   get("DB_NAME"),
			SSLMode:  get("DB_SSLMODE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      os.Getenv("RABBITMQ_URL"),
			Host:     get("RABBITMQ_HOST"),
			Port:     get("RABBITMQ_PORT"),
			User:     get("RABBITMQ_USER"),
			Password: get("RABBITMQ_PASSWORD"),
			VHost:    get("RABBITMQ_VHOST"),
		},
		Redis: RedisConfig{
			Addr:     get("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Worker: WorkerConfig{
			ProcessQueue:    getDefault("QUEUE_PROCESS", "events.process"),
			RetryQueue:      getDefault("QUEUE_RETRY", "events.retry"),
			DeadLetterQueue: getDefault("QUEUE_DEAD", "events.dead"),
			Concurrency:     getInt("WORKER_CONCURRENCY", 20),
			MaxAttempts:     getInt("WORKER_MAX_ATTEMPTS", 4),
		},
		Routing: RoutingConfig{
			URL:            get("ROUTING_SERVICE_URL"),
			TimeoutSeconds: getInt("ROUTING_TIMEOUT_SECONDS", 10),
		},
		Gateway: GatewayConfig{
			SignatureSecret: get("WEBHOOK_SECRET"),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return config, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

func (c *RabbitMQConfig) ConnectionURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s%s",
		c.User, c.Password, c.Host, c.Port, c.VHost)
}
