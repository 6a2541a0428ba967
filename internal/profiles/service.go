package profiles

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/resono-hq/resono/internal/shared"
)

// Service handles profile business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// UpdateInput carries the caller-editable profile fields.
type UpdateInput struct {
	FullName  string
	Email     string
	AvatarURL string
}

// UpdateOwn upserts the caller's profile.
func (s *Service) UpdateOwn(ctx context.Context, id shared.Identity, in UpdateInput) (Profile, error) {
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return Profile{}, shared.FieldError("full_name", "full name is required")
	}
	return s.repo.Upsert(ctx, Profile{
		IdentityID: id.ID,
		FullName:   fullName,
		Email:      strings.TrimSpace(in.Email),
		AvatarURL:  strings.TrimSpace(in.AvatarURL),
	})
}

// GetOwn returns the caller's stored profile. An identity that never saved
// one gets a record seeded from its token claims, so the profile page always
// has something to render.
func (s *Service) GetOwn(ctx context.Context, id shared.Identity) (Profile, error) {
	p, err := s.repo.Get(ctx, id.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Profile{IdentityID: id.ID, FullName: id.Name, Email: id.Email}, nil
		}
		return Profile{}, err
	}
	return p, nil
}

// ListDirectory returns all profiles with their current roles.
func (s *Service) ListDirectory(ctx context.Context) ([]DirectoryEntry, error) {
	return s.repo.ListDirectory(ctx)
}
