package audit

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo keeps events in process for tests and local runs.
type MemoryRepo struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

// Events returns every event in append order.
func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// ListByActor returns one actor's events, newest first. The actor is the
// tenancy key, so an empty actor reads nothing.
func (r *MemoryRepo) ListByActor(_ context.Context, actorUserID string) ([]Event, error) {
	if actorUserID == "" {
		return nil, ErrInvalidEvent
	}
	r.mu.Lock()
	out := make([]Event, 0, len(r.events))
	for _, e := range r.events {
		if e.ActorUserID == actorUserID {
			out = append(out, e)
		}
	}
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
