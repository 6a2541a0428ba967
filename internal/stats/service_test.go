package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resono-hq/resono/internal/roles"
	"github.com/resono-hq/resono/internal/shared"
)

type memoryStatsRepo struct {
	mu         sync.Mutex
	counts     StatusCounts
	byCategory map[string]int
	byPriority map[string]int
	failWith   error
}

func (m *memoryStatsRepo) CountByStatus(ctx context.Context) (StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return StatusCounts{}, m.failWith
	}
	return m.counts, nil
}

func (m *memoryStatsRepo) ActiveByCategory(ctx context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.byCategory, nil
}

func (m *memoryStatsRepo) ActiveByPriority(ctx context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.byPriority, nil
}

func TestSummaryAssemblesAllAggregates(t *testing.T) {
	repo := &memoryStatsRepo{
		counts:     StatusCounts{Total: 12, Active: 9, Archived: 3},
		byCategory: map[string]int{"Events": 4, "Technical": 5},
		byPriority: map[string]int{"high": 2, "medium": 6, "low": 1},
	}
	svc := NewService(repo)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, summary.Total)
	assert.Equal(t, 9, summary.Active)
	assert.Equal(t, 3, summary.Archived)
	assert.Equal(t, 4, summary.ByCategory["Events"])
	assert.Equal(t, 6, summary.ByPriority["medium"])
}

func TestSummaryEmptyBoard(t *testing.T) {
	svc := NewService(&memoryStatsRepo{})

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.NotNil(t, summary.ByCategory)
	assert.NotNil(t, summary.ByPriority)
}

func TestSummaryPropagatesStoreFailure(t *testing.T) {
	repo := &memoryStatsRepo{failWith: shared.WrapStore("stats status counts", context.DeadlineExceeded)}
	svc := NewService(repo)

	_, err := svc.Summary(context.Background())
	require.Error(t, err)
	assert.Equal(t, shared.KindStoreUnavailable, shared.KindOf(err))
}

type singleRoleRepo struct {
	role roles.Role
}

func (r *singleRoleRepo) GetRole(ctx context.Context, identityID string) (roles.Role, error) {
	if r.role == roles.RoleUnassigned {
		return roles.RoleUnassigned, shared.ErrNoAssignment
	}
	return r.role, nil
}

func (r *singleRoleRepo) SetRole(ctx context.Context, identityID string, role roles.Role) error {
	r.role = role
	return nil
}

func (r *singleRoleRepo) ListAssignments(ctx context.Context) ([]roles.Assignment, error) {
	return nil, nil
}

func newStatsRouter(t *testing.T, repo Repository, role roles.Role) http.Handler {
	t.Helper()
	roleSvc := roles.NewService(&singleRoleRepo{role: role}, roles.NewCache(nil, 0),
		roles.Secrets{MasterPIN: "124124", AdminPIN: "421421"}, slog.Default())
	handler := NewHandler(slog.Default(), NewService(repo), roles.Middleware{Service: roleSvc, Logger: slog.Default()})
	r := chi.NewRouter()
	r.Route("/stats", handler.MountRoutes)
	return r
}

func TestSummaryEndpoint(t *testing.T) {
	repo := &memoryStatsRepo{counts: StatusCounts{Total: 2, Active: 2}}
	router := newStatsRouter(t, repo, roles.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), shared.Identity{ID: "u-1"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Active)
}

func TestSummaryEndpointDeniesUnassigned(t *testing.T) {
	router := newStatsRouter(t, &memoryStatsRepo{}, roles.RoleUnassigned)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), shared.Identity{ID: "u-1"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
