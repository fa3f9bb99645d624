package rbac

import (
	"context"
	"errors"

	"sales-saas/internal/auth"
	"sales-saas/pkg/logger"
)

// ErrUnauthenticated means no caller could be resolved from the session.
// Callers surface it as a redirect to the login surface.
var ErrUnauthenticated = errors.New("unauthenticated")

// Principal is the authorization context of one request.
//
// It is derived at the start of every service entry point and never cached:
// privilege revocation takes effect on the next request.
type Principal struct {
	CallerID   string `json:"caller_id"`
	Privileged bool   `json:"privileged"`
}

func (p Principal) Authenticated() bool { return p.CallerID != "" }

// PrivilegeSource answers whether a caller holds elevated privilege.
// The directory client implements it from the caller's private metadata.
type PrivilegeSource interface {
	IsPrivileged(ctx context.Context, callerID string) (bool, error)
}

// Deriver builds a Principal from the ambient session.
type Deriver struct {
	Privileges PrivilegeSource
}

func NewDeriver(src PrivilegeSource) *Deriver { return &Deriver{Privileges: src} }

// Derive resolves the caller and its privilege.
// A missing caller fails with ErrUnauthenticated. A failing privilege lookup
// fails closed: the caller proceeds as non-privileged.
func (d *Deriver) Derive(ctx context.Context) (Principal, error) {
	callerID, err := auth.CallerID(ctx)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}

	p := Principal{CallerID: callerID}
	if d == nil || d.Privileges == nil {
		return p, nil
	}

	ok, err := d.Privileges.IsPrivileged(ctx, callerID)
	if err != nil {
		logger.From(ctx).Warn("privilege lookup failed; treating caller as non-privileged", "caller_id", callerID, "err", err)
		return p, nil
	}
	p.Privileged = ok
	return p, nil
}
