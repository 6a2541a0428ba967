package roles

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resono-hq/resono/internal/shared"
)

type memoryRoleRepo struct {
	mu          sync.Mutex
	assignments map[string]Assignment
	setErr      error
	getErr      error
}

func newMemoryRoleRepo() *memoryRoleRepo {
	return &memoryRoleRepo{assignments: make(map[string]Assignment)}
}

func (r *memoryRoleRepo) GetRole(ctx context.Context, identityID string) (Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return RoleUnassigned, r.getErr
	}
	a, ok := r.assignments[identityID]
	if !ok {
		return RoleUnassigned, shared.ErrNoAssignment
	}
	return a.Role, nil
}

func (r *memoryRoleRepo) SetRole(ctx context.Context, identityID string, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	r.assignments[identityID] = Assignment{IdentityID: identityID, Role: role, AssignedAt: time.Now().UTC()}
	return nil
}

func (r *memoryRoleRepo) ListAssignments(ctx context.Context) ([]Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Assignment, 0, len(r.assignments))
	for _, a := range r.assignments {
		out = append(out, a)
	}
	return out, nil
}

func (r *memoryRoleRepo) count(identityID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[identityID]; ok {
		return 1
	}
	return 0
}

var testSecrets = Secrets{MasterPIN: "124124", AdminPIN: "421421"}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	return NewService(repo, NewCache(nil, 0), testSecrets, slog.Default())
}

func TestVerifyAdminWithCorrectPIN(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := newTestService(t, repo)
	identity := shared.Identity{ID: "u1", Email: "u1@example.com"}

	role, err := svc.Verify(context.Background(), identity, RoleAdmin, "421421")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	got, err := svc.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, got)
	assert.Equal(t, 1, repo.count("u1"))
}

func TestVerifyMasterWithWrongPINLeavesStoreUntouched(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := newTestService(t, repo)
	identity := shared.Identity{ID: "u2"}

	_, err := svc.Verify(context.Background(), identity, RoleMaster, "wrong")
	require.Error(t, err)
	assert.Equal(t, shared.KindCredential, shared.KindOf(err))
	assert.Equal(t, 0, repo.count("u2"))

	got, err := svc.Resolve(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, RoleUnassigned, got)
}

func TestVerifyUserNeedsNoCredential(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := newTestService(t, repo)

	role, err := svc.Verify(context.Background(), shared.Identity{ID: "u3"}, RoleUser, "")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	// Any credential is accepted for the user role, including garbage.
	role, err = svc.Verify(context.Background(), shared.Identity{ID: "u3"}, RoleUser, "anything")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)
}

func TestVerifyExactMatchOnly(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := newTestService(t, repo)

	cases := []string{" 421421", "421421 ", "421421\n", "42142", "4214211", ""}
	for _, credential := range cases {
		_, err := svc.Verify(context.Background(), shared.Identity{ID: "u4"}, RoleAdmin, credential)
		require.Error(t, err, "credential %q", credential)
		assert.Equal(t, shared.KindCredential, shared.KindOf(err))
	}
}

func TestVerifyIsIdempotent(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := newTestService(t, repo)
	identity := shared.Identity{ID: "u5"}

	_, err := svc.Verify(context.Background(), identity, RoleMaster, "124124")
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), identity, RoleMaster, "124124")
	require.NoError(t, err)

	got, err := svc.Resolve(context.Background(), "u5")
	require.NoError(t, err)
	assert.Equal(t, RoleMaster, got)
	assert.Equal(t, 1, repo.count("u5"))
}

func TestVerifyLastWriterWins(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := newTestService(t, repo)
	identity := shared.Identity{ID: "u6"}

	_, err := svc.Verify(context.Background(), identity, RoleAdmin, "421421")
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), identity, RoleUser, "")
	require.NoError(t, err)

	got, err := svc.Resolve(context.Background(), "u6")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, got)
	assert.Equal(t, 1, repo.count("u6"))
}

func TestVerifyStoreFailurePropagates(t *testing.T) {
	repo := newMemoryRoleRepo()
	repo.setErr = shared.NewError(shared.KindStoreUnavailable, "store unavailable")
	svc := newTestService(t, repo)

	_, err := svc.Verify(context.Background(), shared.Identity{ID: "u7"}, RoleUser, "")
	require.Error(t, err)
	assert.Equal(t, shared.KindStoreUnavailable, shared.KindOf(err))
}

func TestResolveUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryRoleRepo()
	svc := NewService(repo, NewCache(client, time.Minute), testSecrets, slog.Default())

	_, err := svc.Verify(context.Background(), shared.Identity{ID: "u8"}, RoleAdmin, "421421")
	require.NoError(t, err)

	got, err := svc.Resolve(context.Background(), "u8")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, got)

	// Second resolve must come from the cache: break the repo to prove it.
	repo.getErr = shared.NewError(shared.KindStoreUnavailable, "down")
	got, err = svc.Resolve(context.Background(), "u8")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, got)
}

func TestVerifyInvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryRoleRepo()
	svc := NewService(repo, NewCache(client, time.Minute), testSecrets, slog.Default())
	identity := shared.Identity{ID: "u9"}

	_, err := svc.Verify(context.Background(), identity, RoleAdmin, "421421")
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), "u9")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), identity, RoleUser, "")
	require.NoError(t, err)

	got, err := svc.Resolve(context.Background(), "u9")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, got)
}
