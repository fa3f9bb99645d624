package salescalls

import (
	"context"
	"errors"
	"strings"

	"sales-saas/internal/directory"
	"sales-saas/internal/rbac"
	"sales-saas/pkg/logger"
)

// ReadFailurePolicy decides what List does when the store read fails.
type ReadFailurePolicy string

const (
	// ReadDegrade logs the failure and returns an empty list.
	ReadDegrade ReadFailurePolicy = "degrade"
	// ReadPropagate returns ErrPersistence.
	ReadPropagate ReadFailurePolicy = "propagate"
)

// IdentityResolver resolves owner ids to display identities.
// Ids that fail to resolve are absent from the result.
type IdentityResolver interface {
	ResolveMany(ctx context.Context, ids []string) map[string]directory.Identity
}

// ViewInvalidator receives the one-way "list view is stale" signal.
type ViewInvalidator interface {
	Invalidate(ctx context.Context, ownerID string)
}

// Auditor records successful mutations. Failures never fail the mutation.
type Auditor interface {
	SalesCallMutated(ctx context.Context, m Mutation) error
}

type MutationKind string

const (
	MutationCreated MutationKind = "created"
	MutationUpdated MutationKind = "updated"
	MutationDeleted MutationKind = "deleted"
)

type Mutation struct {
	Kind     MutationKind
	ActorID  string
	RecordID string
}

type Options struct {
	ReadFailurePolicy ReadFailurePolicy
	Identities        IdentityResolver
	Views             ViewInvalidator
	Audit             Auditor
}

// Service is the tenant-scoped data access layer for sales calls.
//
// Tenancy rules:
//   - every operation requires an authenticated principal
//   - List is owner-scoped unless the principal is privileged
//   - Update and Delete are owner-scoped for every principal, privileged or not
type Service struct {
	store      Store
	readPolicy ReadFailurePolicy
	identities IdentityResolver
	views      ViewInvalidator
	audit      Auditor
}

func NewService(store Store, opts Options) *Service {
	policy := opts.ReadFailurePolicy
	if policy != ReadPropagate {
		policy = ReadDegrade
	}
	return &Service{
		store:      store,
		readPolicy: policy,
		identities: opts.Identities,
		views:      opts.Views,
		audit:      opts.Audit,
	}
}

// List returns the principal's records, newest first. Privileged principals
// see every owner's records, each annotated with its owner's identity when
// the directory resolves it.
func (s *Service) List(ctx context.Context, p rbac.Principal) ([]Record, error) {
	if !p.Authenticated() {
		return nil, rbac.ErrUnauthenticated
	}

	q := ListQuery{OwnerID: p.CallerID}
	if p.Privileged {
		q = ListQuery{AllOwners: true}
	}

	recs, err := s.store.List(ctx, q)
	if err != nil {
		logger.From(ctx).Error("list sales calls failed",
			"owner_id", q.OwnerID,
			"all_owners", q.AllOwners,
			"read_failure_policy", string(s.readPolicy),
			"err", err,
		)
		if s.readPolicy == ReadPropagate {
			return nil, persistenceErr("list", err)
		}
		return []Record{}, nil
	}

	if p.Privileged && len(recs) > 0 && s.identities != nil {
		s.attachOwners(ctx, recs)
	}
	return recs, nil
}

func (s *Service) attachOwners(ctx context.Context, recs []Record) {
	ids := distinctOwners(recs)
	resolved := s.identities.ResolveMany(ctx, ids)
	if len(resolved) < len(ids) {
		logger.From(ctx).Warn("some record owners did not resolve", "owners", len(ids), "resolved", len(resolved))
	}
	for i := range recs {
		if ident, ok := resolved[recs[i].OwnerID]; ok {
			recs[i].Owner = &ident
		}
	}
}

func distinctOwners(recs []Record) []string {
	seen := make(map[string]struct{}, len(recs))
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		if _, ok := seen[r.OwnerID]; ok {
			continue
		}
		seen[r.OwnerID] = struct{}{}
		out = append(out, r.OwnerID)
	}
	return out
}

// Create persists a new record owned by the principal.
func (s *Service) Create(ctx context.Context, p rbac.Principal, in Input) (Record, error) {
	if !p.Authenticated() {
		return Record{}, rbac.ErrUnauthenticated
	}

	f := Scope(in, p.CallerID)
	if err := f.Validate(); err != nil {
		return Record{}, err
	}

	rec, err := s.store.Insert(ctx, f)
	if err != nil {
		logger.From(ctx).Error("create sales call failed", "owner_id", p.CallerID, "err", err)
		return Record{}, persistenceErr("create", err)
	}

	s.mutated(ctx, Mutation{Kind: MutationCreated, ActorID: p.CallerID, RecordID: rec.ID})
	return rec, nil
}

// Update rewrites every field of a record the principal owns.
// Privilege does not widen the scope.
func (s *Service) Update(ctx context.Context, p rbac.Principal, id string, in Input) (Record, error) {
	if !p.Authenticated() {
		return Record{}, rbac.ErrUnauthenticated
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrInvalidInput
	}

	f := Scope(in, p.CallerID)
	if err := f.Validate(); err != nil {
		return Record{}, err
	}

	rec, err := s.store.Update(ctx, id, p.CallerID, f)
	if err != nil {
		return Record{}, s.writeFailed(ctx, "update", id, p.CallerID, err)
	}

	s.mutated(ctx, Mutation{Kind: MutationUpdated, ActorID: p.CallerID, RecordID: rec.ID})
	return rec, nil
}

// Delete removes a record the principal owns.
// Privilege does not widen the scope.
func (s *Service) Delete(ctx context.Context, p rbac.Principal, id string) error {
	if !p.Authenticated() {
		return rbac.ErrUnauthenticated
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}

	if err := s.store.Delete(ctx, id, p.CallerID); err != nil {
		return s.writeFailed(ctx, "delete", id, p.CallerID, err)
	}

	s.mutated(ctx, Mutation{Kind: MutationDeleted, ActorID: p.CallerID, RecordID: id})
	return nil
}

func (s *Service) writeFailed(ctx context.Context, op, id, ownerID string, err error) error {
	if errors.Is(err, ErrNotFound) {
		logger.From(ctx).Info(op+" sales call matched no rows", "id", id, "owner_id", ownerID)
		return ErrNotFound
	}
	logger.From(ctx).Error(op+" sales call failed", "id", id, "owner_id", ownerID, "err", err)
	return persistenceErr(op, err)
}

func (s *Service) mutated(ctx context.Context, m Mutation) {
	if s.views != nil {
		s.views.Invalidate(ctx, m.ActorID)
	}
	if s.audit != nil {
		if err := s.audit.SalesCallMutated(ctx, m); err != nil {
			logger.From(ctx).Warn("audit append failed", "kind", string(m.Kind), "id", m.RecordID, "err", err)
		}
	}
}
