package lock

import (
	"context"
	"testing"
	"time"

	"github.com/erp/stocktransfer/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisContainer(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisLocker(t *testing.T) {
	client := newRedisContainer(t)
	ctx := context.Background()

	t.Run("second caller conflicts until release", func(t *testing.T) {
		locker := NewRedisLocker(client, 5*time.Second, 100*time.Millisecond)

		release, err := locker.Acquire(ctx, "transfer:t:r1")
		require.NoError(t, err)

		_, err = locker.Acquire(ctx, "transfer:t:r1")
		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindConflict))

		require.NoError(t, release(ctx))
		again, err := locker.Acquire(ctx, "transfer:t:r1")
		require.NoError(t, err)
		require.NoError(t, again(ctx))
	})

	t.Run("expired lease releases quietly", func(t *testing.T) {
		locker := NewRedisLocker(client, 50*time.Millisecond, 0)

		release, err := locker.Acquire(ctx, "transfer:t:r2")
		require.NoError(t, err)
		time.Sleep(120 * time.Millisecond)
		assert.NoError(t, release(ctx))
	})

	t.Run("waiting caller obtains lease after holder releases", func(t *testing.T) {
		locker := NewRedisLocker(client, 5*time.Second, 2*time.Second)

		release, err := locker.Acquire(ctx, "transfer:t:r3")
		require.NoError(t, err)
		go func() {
			time.Sleep(100 * time.Millisecond)
			_ = release(ctx)
		}()

		second, err := locker.Acquire(ctx, "transfer:t:r3")
		require.NoError(t, err)
		require.NoError(t, second(ctx))
	})
}
