package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - actor_user_id is required; it is the tenancy key for audit reads.
// - ip capture is best-effort; do not block critical flows on audit failures.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated caller causing the event.
	ActorUserID string `json:"actor_user_id" db:"actor_user_id"`

	// IPAddress should capture the original client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// RecordID is the sales call the event is about.
	RecordID string `json:"record_id,omitempty" db:"record_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeSalesCallCreated EventType = "sales_call_created"
	EventTypeSalesCallUpdated EventType = "sales_call_updated"
	EventTypeSalesCallDeleted EventType = "sales_call_deleted"
)
