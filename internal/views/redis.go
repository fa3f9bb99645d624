package views

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"sales-saas/internal/rbac"
	"sales-saas/pkg/logger"
)

// StaleChannel carries the owner id whose list view went stale.
const StaleChannel = "sales_calls:stale"

const (
	ownerKeyPrefix = "sales_calls:view:owner:"
	globalKey      = "sales_calls:view:global"

	defaultTimeout = 500 * time.Millisecond
)

func ownerKey(ownerID string) string { return ownerKeyPrefix + ownerID }

// bumpScript increments both version counters and publishes in one round trip,
// so a subscriber never sees the message before the counters moved.
var bumpScript = redis.NewScript(`
-- KEYS[1] = owner version key
-- KEYS[2] = global version key
-- ARGV[1] = channel
-- ARGV[2] = owner id
local v = redis.call('INCR', KEYS[1])
redis.call('INCR', KEYS[2])
redis.call('PUBLISH', ARGV[1], ARGV[2])
return v
`)

// RedisInvalidator publishes "list view is stale" signals. It is fire and
// forget: Invalidate never fails the caller.
type RedisInvalidator struct {
	rdb     *redis.Client
	timeout time.Duration
}

func NewRedisInvalidator(rdb *redis.Client) *RedisInvalidator {
	return &RedisInvalidator{rdb: rdb, timeout: defaultTimeout}
}

func (v *RedisInvalidator) Invalidate(ctx context.Context, ownerID string) {
	if v == nil || v.rdb == nil || ownerID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.timeout)
	defer cancel()

	err := bumpScript.Run(ctx, v.rdb, []string{ownerKey(ownerID), globalKey}, StaleChannel, ownerID).Err()
	if err != nil {
		logger.From(ctx).Warn("view invalidation failed", "owner_id", ownerID, "err", err)
	}
}

// Version returns the list-view version the principal's list is derived from.
// Privileged principals read the global counter. A missing counter is 0.
func (v *RedisInvalidator) Version(ctx context.Context, p rbac.Principal) (int64, error) {
	if v == nil || v.rdb == nil {
		return 0, nil
	}
	key := globalKey
	if !p.Privileged {
		key = ownerKey(p.CallerID)
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	n, err := v.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Subscribe delivers owner ids from StaleChannel until ctx is done.
func (v *RedisInvalidator) Subscribe(ctx context.Context) (<-chan string, error) {
	if v == nil || v.rdb == nil {
		return nil, errors.New("views: redis not configured")
	}
	sub := v.rdb.Subscribe(ctx, StaleChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- m.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
