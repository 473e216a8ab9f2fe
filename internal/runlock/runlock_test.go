package runlock

import (
	"context"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLocalLockerRejectsConcurrentRun(t *testing.T) {
	locker := NewLocalLocker()
	key := Key("scores", 1)

	release, err := locker.Acquire(context.Background(), key)
	require.NoError(t, err)

	_, err = locker.Acquire(context.Background(), key)
	require.ErrorIs(t, err, ErrRunInProgress)

	other, err := locker.Acquire(context.Background(), Key("scores", 2))
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := locker.Acquire(context.Background(), key)
	require.NoError(t, err)
	again()
}

func TestLocalLockerHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalLocker().Acquire(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	locker := NewRedisLocker(client, time.Minute, zaptest.NewLogger(t))
	key := Key("impact", time.Now().UnixNano())

	release, err := locker.Acquire(context.Background(), key)
	require.NoError(t, err)

	_, err = locker.Acquire(context.Background(), key)
	require.ErrorIs(t, err, ErrRunInProgress)

	release()
	again, err := locker.Acquire(context.Background(), key)
	require.NoError(t, err)
	again()
}
