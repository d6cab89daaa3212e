package audit

import (
	"context"
	"fmt"

	"github.com/libroteca/libroteca/internal/shared"
)

// RepositoryPort defines the read access the service needs.
type RepositoryPort interface {
	ListActions(ctx context.Context, f ActionFilters, limit, offset int) ([]Action, error)
	ListEvents(ctx context.Context, f EventFilters, limit, offset int) ([]SecurityEventRecord, error)
}

// Service coordinates the admin-gated audit listings.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ActionsResult bundles one page of admin actions.
type ActionsResult struct {
	Rows   []Action
	Paging Paging
}

// EventsResult bundles one page of security events.
type EventsResult struct {
	Rows   []SecurityEventRecord
	Paging Paging
}

// Actions lists admin actions with filters and paging.
func (s *Service) Actions(ctx context.Context, f ActionFilters, page shared.Pagination) (ActionsResult, error) {
	if s.repo == nil {
		return ActionsResult{}, fmt.Errorf("audit: repository not configured")
	}
	// Fetch one extra row to detect a next page without a count query.
	rows, err := s.repo.ListActions(ctx, f, page.PerPage+1, page.Offset())
	if err != nil {
		return ActionsResult{}, err
	}
	hasNext := len(rows) > page.PerPage
	if hasNext {
		rows = rows[:page.PerPage]
	}
	return ActionsResult{Rows: rows, Paging: Paging{Page: page.Page, PerPage: page.PerPage, HasNext: hasNext}}, nil
}

// Events lists security events with filters and paging.
func (s *Service) Events(ctx context.Context, f EventFilters, page shared.Pagination) (EventsResult, error) {
	if s.repo == nil {
		return EventsResult{}, fmt.Errorf("audit: repository not configured")
	}
	rows, err := s.repo.ListEvents(ctx, f, page.PerPage+1, page.Offset())
	if err != nil {
		return EventsResult{}, err
	}
	hasNext := len(rows) > page.PerPage
	if hasNext {
		rows = rows[:page.PerPage]
	}
	return EventsResult{Rows: rows, Paging: Paging{Page: page.Page, PerPage: page.PerPage, HasNext: hasNext}}, nil
}

var _ RepositoryPort = (*Repository)(nil)
