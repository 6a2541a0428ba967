package roles

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/resono-hq/resono/internal/shared"
)

// Secrets carries the fixed role PINs. Passed in explicitly at construction
// so the service never reads ambient global state.
type Secrets struct {
	MasterPIN string
	AdminPIN  string
}

// Service gates role escalation behind the fixed PINs and commits the result
// to the role store.
type Service struct {
	repo   Repository
	cache  *Cache
	secret Secrets
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, cache *Cache, secret Secrets, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, secret: secret, logger: logger}
}

// Verify checks the credential for the requested role and, when valid,
// replaces the identity's current assignment. A credential mismatch leaves
// the store untouched.
//
// The comparison is exact string equality: no trimming, no case folding.
// ConstantTimeCompare keeps the equality check timing-independent without
// changing those semantics.
func (s *Service) Verify(ctx context.Context, identity shared.Identity, requested Role, credential string) (Role, error) {
	if !credentialValid(s.secret, requested, credential) {
		return RoleUnassigned, shared.NewError(shared.KindCredential, "invalid pin")
	}
	if err := s.repo.SetRole(ctx, identity.ID, requested); err != nil {
		return RoleUnassigned, err
	}
	if err := s.cache.Invalidate(ctx, identity.ID); err != nil && s.logger != nil {
		s.logger.Warn("role cache invalidate", slog.Any("error", err))
	}
	return requested, nil
}

func credentialValid(secret Secrets, requested Role, credential string) bool {
	switch requested {
	case RoleMaster:
		return equal(credential, secret.MasterPIN)
	case RoleAdmin:
		return equal(credential, secret.AdminPIN)
	case RoleUser:
		return true
	}
	return false
}

func equal(a, b string) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Resolve returns the identity's current role, consulting the cache first.
// An identity with no assignment resolves to RoleUnassigned without error.
func (s *Service) Resolve(ctx context.Context, identityID string) (Role, error) {
	if role, ok := s.cache.Get(ctx, identityID); ok {
		return role, nil
	}
	role, err := s.repo.GetRole(ctx, identityID)
	if err != nil {
		if errors.Is(err, shared.ErrNoAssignment) {
			return RoleUnassigned, nil
		}
		return RoleUnassigned, err
	}
	if err := s.cache.Put(ctx, identityID, role); err != nil && s.logger != nil {
		s.logger.Warn("role cache put", slog.Any("error", err))
	}
	return role, nil
}

// ListAssignments returns every identity's current assignment.
func (s *Service) ListAssignments(ctx context.Context) ([]Assignment, error) {
	return s.repo.ListAssignments(ctx)
}
