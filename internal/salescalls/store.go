package salescalls

import "context"

// ListQuery selects records ordered by created_at descending.
// Exactly one of OwnerID or AllOwners must be set; stores reject anything else.
type ListQuery struct {
	OwnerID   string
	AllOwners bool
}

func (q ListQuery) valid() bool {
	if q.AllOwners {
		return q.OwnerID == ""
	}
	return q.OwnerID != ""
}

// Store is durable row storage for sales calls.
//
// Update and Delete are conditional on both id and owner and must report
// ErrNotFound when nothing matched, distinct from connectivity errors.
type Store interface {
	List(ctx context.Context, q ListQuery) ([]Record, error)
	Insert(ctx context.Context, f Fields) (Record, error)
	Update(ctx context.Context, id, ownerID string, f Fields) (Record, error)
	Delete(ctx context.Context, id, ownerID string) error
}
