package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only. No Update/Delete methods are provided.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
// Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.ActorUserID == "" || e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.IPAddress == "" {
		e.IPAddress = ClientIPFromContext(ctx)
	}
	return s.repo.Append(ctx, e)
}

// LogSalesCall records a sales-call mutation by actorUserID.
func (s *Service) LogSalesCall(ctx context.Context, t EventType, actorUserID, recordID string) error {
	var msg string
	switch t {
	case EventTypeSalesCallCreated:
		msg = "sales call created"
	case EventTypeSalesCallUpdated:
		msg = "sales call updated"
	case EventTypeSalesCallDeleted:
		msg = "sales call deleted"
	default:
		return ErrInvalidEvent
	}
	return s.Append(ctx, Event{
		Type:        t,
		ActorUserID: actorUserID,
		RecordID:    recordID,
		Message:     msg,
	})
}
