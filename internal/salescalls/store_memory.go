package salescalls

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
// It enforces the same owner scoping as the Postgres store.
type MemoryStore struct {
	mu   sync.Mutex
	rows []memRow
	seq  int64

	// Clock is injectable for deterministic tests.
	Clock func() time.Time
}

type memRow struct {
	rec Record
	seq int64
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{Clock: time.Now} }

// Seed inserts records as-is, keeping their ids, owners and timestamps.
func (s *MemoryStore) Seed(recs ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		s.seq++
		r.Owner = nil
		s.rows = append(s.rows, memRow{rec: r, seq: s.seq})
	}
}

func (s *MemoryStore) List(ctx context.Context, q ListQuery) ([]Record, error) {
	if !q.valid() {
		return nil, ErrUnscopedQuery
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]memRow, 0, len(s.rows))
	for _, row := range s.rows {
		if !q.AllOwners && row.rec.OwnerID != q.OwnerID {
			continue
		}
		matched = append(matched, row)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.rec.CreatedAt.Equal(b.rec.CreatedAt) {
			return a.rec.CreatedAt.After(b.rec.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]Record, len(matched))
	for i, row := range matched {
		out[i] = row.rec
	}
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, f Fields) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec := applyFields(Record{ID: uuid.NewString(), OwnerID: f.OwnerID, CreatedAt: now}, f)
	rec.UpdatedAt = now

	s.seq++
	s.rows = append(s.rows, memRow{rec: rec, seq: s.seq})
	return rec, nil
}

func (s *MemoryStore) Update(ctx context.Context, id, ownerID string, f Fields) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rows {
		r := &s.rows[i].rec
		if r.ID != id || r.OwnerID != ownerID {
			continue
		}
		*r = applyFields(*r, f)
		r.UpdatedAt = s.now()
		return *r, nil
	}
	return Record{}, ErrNotFound
}

func (s *MemoryStore) Delete(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range s.rows {
		if row.rec.ID != id || row.rec.OwnerID != ownerID {
			continue
		}
		s.rows = append(s.rows[:i], s.rows[i+1:]...)
		return nil
	}
	return ErrNotFound
}

func (s *MemoryStore) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock().UTC()
}

// applyFields rewrites every mutable column. The owner is left untouched.
func applyFields(r Record, f Fields) Record {
	r.OccurredOn = f.OccurredOn
	r.OccurredAt = f.OccurredAt
	r.CustomerName = f.CustomerName
	r.DurationLabel = f.DurationLabel
	r.Sentiment = f.Sentiment
	r.Progress = f.Progress
	r.Status = f.Status
	return r
}
