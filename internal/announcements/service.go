package announcements

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/resono-hq/resono/internal/analyze"
	"github.com/resono-hq/resono/internal/shared"
)

// Analyzer produces structured metadata for a draft announcement.
type Analyzer interface {
	Analyze(ctx context.Context, title, content string) (analyze.Result, error)
}

// CreateInput carries a validated announcement draft. Summary, category, and
// priority are optional: the UI runs analysis before publishing and submits
// the results, but the service can fill them itself.
type CreateInput struct {
	Title       string
	Content     string
	Department  string
	Summary     string
	Category    string
	Priority    Priority
	Deadline    *time.Time
	Attachments []Attachment
}

// Service handles announcement business logic.
type Service struct {
	repo      Repository
	analyzer  Analyzer
	logger    *slog.Logger
	now       func() time.Time
	reanalyze func(ctx context.Context, id uuid.UUID)
}

// NewService builds Service instance.
func NewService(repo Repository, analyzer Analyzer, logger *slog.Logger) *Service {
	return &Service{repo: repo, analyzer: analyzer, logger: logger, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// WithReanalysis installs a hook invoked after a creation that had to fall
// back to local analysis, typically to enqueue a background retry.
func (s *Service) WithReanalysis(fn func(ctx context.Context, id uuid.UUID)) {
	s.reanalyze = fn
}

// Create validates and persists a new announcement authored by the given
// identity. When the caller did not supply analysis metadata the remote
// analyzer is consulted; its failure degrades to a local fallback and never
// blocks creation.
func (s *Service) Create(ctx context.Context, author shared.Identity, input CreateInput) (Announcement, error) {
	if strings.TrimSpace(input.Title) == "" {
		return Announcement{}, shared.FieldError("title", "title is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return Announcement{}, shared.FieldError("content", "content is required")
	}
	if strings.TrimSpace(input.Department) == "" {
		return Announcement{}, shared.FieldError("department", "department is required")
	}
	if input.Priority != "" && !ValidPriority(input.Priority) {
		return Announcement{}, shared.FieldError("priority", "must be one of high, medium, low")
	}
	a := Announcement{
		ID:          uuid.New(),
		AuthorID:    author.ID,
		Title:       input.Title,
		Content:     input.Content,
		Summary:     input.Summary,
		Category:    input.Category,
		Priority:    input.Priority,
		Department:  input.Department,
		Deadline:    input.Deadline,
		Status:      StatusActive,
		Attachments: input.Attachments,
		CreatedAt:   s.now().UTC(),
	}
	degraded := false
	if a.Summary == "" || a.Category == "" || a.Priority == "" {
		degraded = s.fillAnalysis(ctx, &a)
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Announcement{}, err
	}
	if degraded && s.reanalyze != nil {
		s.reanalyze(ctx, a.ID)
	}
	s.logger.Info("announcement published",
		slog.String("id", a.ID.String()),
		slog.String("author_id", a.AuthorID),
		slog.String("priority", string(a.Priority)))
	return a, nil
}

// fillAnalysis completes missing metadata, preferring the remote analyzer.
// It reports whether the result came from the local fallback.
func (s *Service) fillAnalysis(ctx context.Context, a *Announcement) bool {
	if s.analyzer != nil {
		result, err := s.analyzer.Analyze(ctx, a.Title, a.Content)
		if err == nil && ValidPriority(Priority(result.Priority)) {
			if a.Summary == "" {
				a.Summary = result.Summary
			}
			if a.Category == "" {
				a.Category = result.Category
			}
			if a.Priority == "" {
				a.Priority = Priority(result.Priority)
			}
			return false
		}
		if err != nil {
			s.logger.Warn("announcement analysis degraded", slog.Any("error", err))
		}
	}
	if a.Summary == "" {
		a.Summary = fallbackSummary(a.Content)
	}
	if a.Category == "" {
		a.Category = "General Info"
	}
	if a.Priority == "" {
		a.Priority = PriorityMedium
	}
	return true
}

// fallbackSummary takes the first two sentences of the content, capped to
// keep card views readable.
func fallbackSummary(content string) string {
	content = strings.TrimSpace(content)
	sentences := strings.SplitAfterN(content, ". ", 3)
	summary := content
	if len(sentences) >= 2 {
		summary = strings.TrimSpace(sentences[0] + sentences[1])
	}
	const maxLen = 280
	if len(summary) > maxLen {
		cut := maxLen - len("…")
		// Back up to a rune boundary so the cut never splits a multibyte
		// character.
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut] + "…"
	}
	return summary
}

// Get fetches a single announcement.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Announcement, error) {
	return s.repo.Get(ctx, id)
}

// List returns announcements matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Announcement, error) {
	return s.repo.List(ctx, filter)
}

// Archive performs the explicit admin-driven Active -> Archived transition.
func (s *Service) Archive(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Archive(ctx, id); err != nil {
		return err
	}
	s.logger.Info("announcement archived", slog.String("id", id.String()))
	return nil
}
