package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/boiar/resilient-event-orchestration-gateway-task/internal/config"
)

// DefaultTTL bounds how long a crashed holder can block reprocessing.
// It must exceed worst-case processing latency (including the routing
// call's 10s timeout) with margin.
const DefaultTTL = 60 * time.Second

// releaseScript deletes the lock key only if it still holds the
// presented token. A plain DEL would let a slow holder release a lock
// that a newer holder reacquired after TTL expiry.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

// Service is the fast, advisory duplicate-suppression layer keyed by
// (eventId, shipmentId). It avoids wasted concurrent work; the durable
// event status is the source of truth for correctness. Lock state lives
// only in Redis, never in process memory, because workers run on
// separate machines.
type Service struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewClient creates a Redis client from config and verifies connectivity.
func NewClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// NewService creates a lock service. A non-positive ttl falls back to
// DefaultTTL.
func NewService(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire performs an atomic set-if-absent with expiry on the composite
// key. On success it returns a fresh opaque token identifying this
// holder. ok=false means another holder is active: treat the delivery
// as a duplicate and do not process.
func (s *Service) Acquire(ctx context.Context, eventID, shipmentID string) (string, bool, error) {
	key := lockKey(eventID, shipmentID)
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, key, token, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

// Release frees the lock only if token still owns it. Releasing with a
// stale token is a silent no-op.
func (s *Service) Release(ctx context.Context, eventID, shipmentID, token string) error {
	key := lockKey(eventID, shipmentID)

	if err := releaseScript.Run(ctx, s.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}

	return nil
}

func lockKey(eventID, shipmentID string) string {
	return fmt.Sprintf("event:lock:%s:%s", eventID, shipmentID)
}
