package salescalls

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sales-saas/internal/directory"
	"sales-saas/internal/rbac"
)

type recordingStore struct {
	Store

	mu      sync.Mutex
	queries []ListQuery
	calls   int
	listErr error
}

func (s *recordingStore) List(ctx context.Context, q ListQuery) ([]Record, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.calls++
	s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.Store.List(ctx, q)
}

func (s *recordingStore) Insert(ctx context.Context, f Fields) (Record, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.Store.Insert(ctx, f)
}

func (s *recordingStore) Update(ctx context.Context, id, ownerID string, f Fields) (Record, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.Store.Update(ctx, id, ownerID, f)
}

func (s *recordingStore) Delete(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.Store.Delete(ctx, id, ownerID)
}

type fakeResolver struct {
	known map[string]directory.Identity
	asked [][]string
}

func (r *fakeResolver) ResolveMany(_ context.Context, ids []string) map[string]directory.Identity {
	r.asked = append(r.asked, ids)
	out := map[string]directory.Identity{}
	for _, id := range ids {
		if ident, ok := r.known[id]; ok {
			out[id] = ident
		}
	}
	return out
}

type fakeViews struct{ owners []string }

func (v *fakeViews) Invalidate(_ context.Context, ownerID string) { v.owners = append(v.owners, ownerID) }

type fakeAuditor struct {
	muts []Mutation
	err  error
}

func (a *fakeAuditor) SalesCallMutated(_ context.Context, m Mutation) error {
	a.muts = append(a.muts, m)
	return a.err
}

type fixture struct {
	mem   *MemoryStore
	store *recordingStore
	res   *fakeResolver
	views *fakeViews
	audit *fakeAuditor
	svc   *Service
}

func newFixture(policy ReadFailurePolicy) *fixture {
	mem := NewMemoryStore()
	f := &fixture{
		mem:   mem,
		store: &recordingStore{Store: mem},
		res: &fakeResolver{known: map[string]directory.Identity{
			"u1": {ID: "u1", FirstName: "Ada", LastName: "Lovelace", EmailAddress: "ada@example.com"},
		}},
		views: &fakeViews{},
		audit: &fakeAuditor{},
	}
	f.svc = NewService(f.store, Options{
		ReadFailurePolicy: policy,
		Identities:        f.res,
		Views:             f.views,
		Audit:             f.audit,
	})
	return f
}

func seeded(id, owner, customer string, created time.Time) Record {
	return Record{
		ID:            id,
		OwnerID:       owner,
		OccurredOn:    "2025-05-28",
		OccurredAt:    "10:00",
		CustomerName:  customer,
		DurationLabel: "30 min",
		Sentiment:     SentimentNeutral,
		Progress:      50,
		Status:        StatusProcessing,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

var (
	member = rbac.Principal{CallerID: "u1"}
	other  = rbac.Principal{CallerID: "u2"}
	admin  = rbac.Principal{CallerID: "admin-1", Privileged: true}
)

func TestList_OwnerScopedForMembers(t *testing.T) {
	f := newFixture(ReadDegrade)
	base := time.Date(2025, 5, 28, 9, 0, 0, 0, time.UTC)
	f.mem.Seed(
		seeded("a", "u1", "Acme", base),
		seeded("b", "u2", "Globex", base.Add(time.Minute)),
		seeded("c", "u1", "Initech", base.Add(2*time.Minute)),
	)

	recs, err := f.svc.List(context.Background(), member)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "c", recs[0].ID)
	require.Equal(t, "a", recs[1].ID)
	for _, r := range recs {
		require.Equal(t, "u1", r.OwnerID)
		require.Nil(t, r.Owner)
	}
	require.Equal(t, []ListQuery{{OwnerID: "u1"}}, f.store.queries)
	require.Empty(t, f.res.asked, "non-privileged lists never touch the directory")
}

func TestList_PrivilegedSeesAllWithOwners(t *testing.T) {
	f := newFixture(ReadDegrade)
	base := time.Date(2025, 5, 28, 9, 0, 0, 0, time.UTC)
	f.mem.Seed(
		seeded("a", "u1", "Acme", base),
		seeded("b", "u2", "Globex", base.Add(time.Minute)),
		seeded("c", "u1", "Initech", base.Add(2*time.Minute)),
	)

	recs, err := f.svc.List(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, []ListQuery{{AllOwners: true}}, f.store.queries)

	require.Len(t, f.res.asked, 1)
	require.ElementsMatch(t, []string{"u1", "u2"}, f.res.asked[0])

	byID := map[string]Record{}
	for _, r := range recs {
		byID[r.ID] = r
	}
	require.NotNil(t, byID["a"].Owner)
	require.Equal(t, "Ada", byID["a"].Owner.FirstName)
	require.NotNil(t, byID["c"].Owner)
	// u2 failed to resolve: the record stays, unannotated.
	require.Nil(t, byID["b"].Owner)
}

func TestList_PrivilegedEmptySkipsDirectory(t *testing.T) {
	f := newFixture(ReadDegrade)
	recs, err := f.svc.List(context.Background(), admin)
	require.NoError(t, err)
	require.Empty(t, recs)
	require.Empty(t, f.res.asked)
}

func TestList_ReadFailurePolicies(t *testing.T) {
	boom := errors.New("connection refused")

	f := newFixture(ReadDegrade)
	f.store.listErr = boom
	recs, err := f.svc.List(context.Background(), member)
	require.NoError(t, err)
	require.NotNil(t, recs)
	require.Empty(t, recs)

	f = newFixture(ReadPropagate)
	f.store.listErr = boom
	_, err = f.svc.List(context.Background(), member)
	require.ErrorIs(t, err, ErrPersistence)
	require.ErrorIs(t, err, boom)

	f = newFixture("")
	require.Equal(t, ReadDegrade, f.svc.readPolicy)
}

func TestUnauthenticatedNeverTouchesStore(t *testing.T) {
	f := newFixture(ReadDegrade)
	anon := rbac.Principal{}
	ctx := context.Background()

	_, err := f.svc.List(ctx, anon)
	require.ErrorIs(t, err, rbac.ErrUnauthenticated)
	_, err = f.svc.Create(ctx, anon, validInput())
	require.ErrorIs(t, err, rbac.ErrUnauthenticated)
	_, err = f.svc.Update(ctx, anon, "x", validInput())
	require.ErrorIs(t, err, rbac.ErrUnauthenticated)
	require.ErrorIs(t, f.svc.Delete(ctx, anon, "x"), rbac.ErrUnauthenticated)

	require.Zero(t, f.store.calls)
	require.Empty(t, f.views.owners)
	require.Empty(t, f.audit.muts)
}

func TestCreate_IgnoresSpoofedOwner(t *testing.T) {
	f := newFixture(ReadDegrade)
	in := validInput()
	in.OwnerID = "u2"
	in.Progress = "150"

	rec, err := f.svc.Create(context.Background(), member, in)
	require.NoError(t, err)
	require.Equal(t, "u1", rec.OwnerID)
	require.Equal(t, 100, rec.Progress)
	require.NotEmpty(t, rec.ID)

	theirs, err := f.svc.List(context.Background(), other)
	require.NoError(t, err)
	require.Empty(t, theirs)

	require.Equal(t, []string{"u1"}, f.views.owners)
	require.Equal(t, []Mutation{{Kind: MutationCreated, ActorID: "u1", RecordID: rec.ID}}, f.audit.muts)
}

func TestCreate_InvalidInputHasNoSideEffects(t *testing.T) {
	f := newFixture(ReadDegrade)
	in := validInput()
	in.Sentiment = "Ecstatic"

	_, err := f.svc.Create(context.Background(), member, in)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Zero(t, f.store.calls)
	require.Empty(t, f.views.owners)
	require.Empty(t, f.audit.muts)
}

func TestCreate_AuditFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(ReadDegrade)
	f.audit.err = errors.New("audit down")

	rec, err := f.svc.Create(context.Background(), member, validInput())
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
}

func TestUpdate_RewritesOwnedRecord(t *testing.T) {
	f := newFixture(ReadDegrade)
	rec, err := f.svc.Create(context.Background(), member, validInput())
	require.NoError(t, err)

	in := validInput()
	in.CustomerName = "Acme Industries"
	in.Progress = "-3"
	in.Status = "Processing"
	in.OwnerID = "u2"

	got, err := f.svc.Update(context.Background(), member, rec.ID, in)
	require.NoError(t, err)
	require.Equal(t, rec.ID, got.ID)
	require.Equal(t, "u1", got.OwnerID)
	require.Equal(t, "Acme Industries", got.CustomerName)
	require.Equal(t, 0, got.Progress)
	require.Equal(t, StatusProcessing, got.Status)
	require.Equal(t, MutationUpdated, f.audit.muts[len(f.audit.muts)-1].Kind)
}

func TestUpdateDelete_OtherOwnersRecordNotFound(t *testing.T) {
	for _, p := range []rbac.Principal{other, admin} {
		f := newFixture(ReadDegrade)
		rec, err := f.svc.Create(context.Background(), member, validInput())
		require.NoError(t, err)
		f.views.owners, f.audit.muts = nil, nil

		_, err = f.svc.Update(context.Background(), p, rec.ID, validInput())
		require.ErrorIs(t, err, ErrNotFound, p.CallerID)
		require.ErrorIs(t, err, ErrPersistence, p.CallerID)

		err = f.svc.Delete(context.Background(), p, rec.ID)
		require.ErrorIs(t, err, ErrNotFound, p.CallerID)

		require.Empty(t, f.views.owners)
		require.Empty(t, f.audit.muts)

		mine, err := f.svc.List(context.Background(), member)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		require.Equal(t, "Acme Corp", mine[0].CustomerName)
	}
}

func TestDelete_SecondDeleteNotFound(t *testing.T) {
	f := newFixture(ReadDegrade)
	rec, err := f.svc.Create(context.Background(), member, validInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), member, rec.ID))
	require.ErrorIs(t, f.svc.Delete(context.Background(), member, rec.ID), ErrNotFound)

	recs, err := f.svc.List(context.Background(), member)
	require.NoError(t, err)
	require.Empty(t, recs)
	require.Equal(t, []string{"u1", "u1"}, f.views.owners)
}

func TestUpdateDelete_EmptyIDInvalid(t *testing.T) {
	f := newFixture(ReadDegrade)
	_, err := f.svc.Update(context.Background(), member, " ", validInput())
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, f.svc.Delete(context.Background(), member, ""), ErrInvalidInput)
	require.Zero(t, f.store.calls)
}

func TestMemoryStore_RejectsUnscopedQuery(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.List(context.Background(), ListQuery{})
	require.ErrorIs(t, err, ErrUnscopedQuery)
	_, err = s.List(context.Background(), ListQuery{OwnerID: "u1", AllOwners: true})
	require.ErrorIs(t, err, ErrUnscopedQuery)
}
