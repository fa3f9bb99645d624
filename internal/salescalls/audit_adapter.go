package salescalls

import (
	"context"
	"fmt"

	"sales-saas/internal/audit"
)

// AuditAdapter bridges the service's Auditor hook to the shared audit.Service.
type AuditAdapter struct {
	Audit *audit.Service
}

func (a AuditAdapter) SalesCallMutated(ctx context.Context, m Mutation) error {
	if a.Audit == nil {
		return nil
	}
	var t audit.EventType
	switch m.Kind {
	case MutationCreated:
		t = audit.EventTypeSalesCallCreated
	case MutationUpdated:
		t = audit.EventTypeSalesCallUpdated
	case MutationDeleted:
		t = audit.EventTypeSalesCallDeleted
	default:
		return fmt.Errorf("salescalls: unknown mutation kind %q", m.Kind)
	}
	return a.Audit.LogSalesCall(ctx, t, m.ActorID, m.RecordID)
}
