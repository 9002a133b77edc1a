package lock

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testClient connects to a local Redis and skips the test when none is
// reachable, so the suite stays runnable without infrastructure.
func testClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	t.Cleanup(func() { client.Close() })
	return client
}

func uniqueIDs(t *testing.T) (string, string) {
	t.Helper()
	suffix := fmt.Sprintf("%s-%d", t.Name(), time.Now().UnixNano())
	return "evt-" + suffix, "shp-" + suffix
}

func TestAcquireIsExclusive(t *testing.T) {
	svc := NewService(testClient(t), 30*time.Second, zap.NewNop())
	ctx := context.Background()
	eventID, shipmentID := uniqueIDs(t)

	token, ok, err := svc.Acquire(ctx, eventID, shipmentID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = svc.Acquire(ctx, eventID, shipmentID)
	require.NoError(t, err)
	assert.False(t, ok, "a held lock must deny a second acquirer")

	require.NoError(t, svc.Release(ctx, eventID, shipmentID, token))
}

func TestReleaseWithWrongTokenKeepsLock(t *testing.T) {
	svc := NewService(testClient(t), 30*time.Second, zap.NewNop())
	ctx := context.Background()
	eventID, shipmentID := uniqueIDs(t)

	token, ok, err := svc.Acquire(ctx, eventID, shipmentID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.Release(ctx, eventID, shipmentID, "stale-token"))

	_, ok, err = svc.Acquire(ctx, eventID, shipmentID)
	require.NoError(t, err)
	assert.False(t, ok, "a stale-token release must not free the lock")

	require.NoError(t, svc.Release(ctx, eventID, shipmentID, token))
}

func TestReleaseFreesLockForReacquisition(t *testing.T) {
	svc := NewService(testClient(t), 30*time.Second, zap.NewNop())
	ctx := context.Background()
	eventID, shipmentID := uniqueIDs(t)

	token, ok, err := svc.Acquire(ctx, eventID, shipmentID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.Release(ctx, eventID, shipmentID, token))

	second, ok, err := svc.Acquire(ctx, eventID, shipmentID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEqual(t, token, second, "each holder gets a fresh token")

	require.NoError(t, svc.Release(ctx, eventID, shipmentID, second))
}

func TestLockExpiresByTTL(t *testing.T) {
	svc := NewService(testClient(t), 100*time.Millisecond, zap.NewNop())
	ctx := context.Background()
	eventID, shipmentID := uniqueIDs(t)

	_, ok, err := svc.Acquire(ctx, eventID, shipmentID)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(200 * time.Millisecond)

	token, ok, err := svc.Acquire(ctx, eventID, shipmentID)
	require.NoError(t, err)
	assert.True(t, ok, "an expired lock must be reacquirable")

	require.NoError(t, svc.Release(ctx, eventID, shipmentID, token))
}
