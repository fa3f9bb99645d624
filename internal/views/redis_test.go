package views

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"sales-saas/internal/rbac"
)

func TestInvalidate_UnreachableRedisDoesNotBlock(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	inv := NewRedisInvalidator(rdb)
	inv.timeout = 100 * time.Millisecond

	start := time.Now()
	inv.Invalidate(context.Background(), "u1")
	require.Less(t, time.Since(start), 2*time.Second)

	_, err := inv.Version(context.Background(), rbac.Principal{CallerID: "u1"})
	require.Error(t, err)
}

func TestInvalidate_NilClientIsNoop(t *testing.T) {
	inv := NewRedisInvalidator(nil)
	inv.Invalidate(context.Background(), "u1")

	n, err := inv.Version(context.Background(), rbac.Principal{CallerID: "u1"})
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = inv.Subscribe(context.Background())
	require.Error(t, err)
}

// Runs against a real Redis when REDIS_TEST_ADDR is set.
func TestRedisInvalidator_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	owner := "it-" + time.Now().Format("150405.000000")
	t.Cleanup(func() { rdb.Del(context.Background(), ownerKey(owner)) })

	inv := NewRedisInvalidator(rdb)
	stale, err := inv.Subscribe(ctx)
	require.NoError(t, err)

	before, err := inv.Version(ctx, rbac.Principal{CallerID: owner})
	require.NoError(t, err)
	require.Zero(t, before)
	globalBefore, err := inv.Version(ctx, rbac.Principal{CallerID: "admin", Privileged: true})
	require.NoError(t, err)

	inv.Invalidate(ctx, owner)

	select {
	case got := <-stale:
		require.Equal(t, owner, got)
	case <-ctx.Done():
		t.Fatalf("no stale message received")
	}

	after, err := inv.Version(ctx, rbac.Principal{CallerID: owner})
	require.NoError(t, err)
	require.Equal(t, int64(1), after)
	globalAfter, err := inv.Version(ctx, rbac.Principal{CallerID: "admin", Privileged: true})
	require.NoError(t, err)
	require.Greater(t, globalAfter, globalBefore)
}
