package directory

import (
	"context"
	"sync"

	"sales-saas/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// ResolveMany resolves each distinct id concurrently.
//
// Every lookup is bounded by the client's lookup timeout. A lookup that fails
// or times out leaves its id out of the result; it never fails the batch.
func (c *Client) ResolveMany(ctx context.Context, ids []string) map[string]Identity {
	out := make(map[string]Identity, len(ids))
	if len(ids) == 0 {
		return out
	}

	var mu sync.Mutex
	log := logger.From(ctx)

	g := new(errgroup.Group)
	g.SetLimit(c.fanoutLimit)

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		id := id
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(ctx, c.lookupTimeout)
			defer cancel()

			u, err := c.GetUser(lookupCtx, id)
			if err != nil {
				log.Warn("identity lookup failed", "user_id", id, "err", err)
				return nil
			}

			mu.Lock()
			out[id] = u.Identity()
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}
