package stats

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Summary carries every number the dashboard renders.
type Summary struct {
	Total      int            `json:"total"`
	Active     int            `json:"active"`
	Archived   int            `json:"archived"`
	ByCategory map[string]int `json:"by_category"`
	ByPriority map[string]int `json:"by_priority"`
}

// Service computes dashboard statistics.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Summary runs the three aggregate queries concurrently and assembles the
// dashboard payload. Any failing query fails the whole summary.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.repo.CountByStatus(ctx)
		if err != nil {
			return err
		}
		out.Total = counts.Total
		out.Active = counts.Active
		out.Archived = counts.Archived
		return nil
	})

	g.Go(func() error {
		byCategory, err := s.repo.ActiveByCategory(ctx)
		if err != nil {
			return err
		}
		out.ByCategory = byCategory
		return nil
	})

	g.Go(func() error {
		byPriority, err := s.repo.ActiveByPriority(ctx)
		if err != nil {
			return err
		}
		out.ByPriority = byPriority
		return nil
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	if out.ByCategory == nil {
		out.ByCategory = map[string]int{}
	}
	if out.ByPriority == nil {
		out.ByPriority = map[string]int{}
	}
	return out, nil
}
