package users

import (
	"context"

	"github.com/libroteca/libroteca/internal/access"
)

// RepositoryPort defines the data access the service needs.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (User, error)
	List(ctx context.Context, f Filters) ([]User, error)
	Count(ctx context.Context) (int64, error)
}

// Service handles user lookups, including principal resolution for the
// request gate.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// FindPrincipal resolves a session user id into the ephemeral per-request
// principal. Implements the gate's UserDirectory port.
func (s *Service) FindPrincipal(ctx context.Context, id int64) (access.Principal, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return access.Principal{}, err
	}
	role, _ := access.ParseRole(user.Role)
	return access.Principal{
		ID:        user.ID,
		Role:      role,
		IsActive:  user.IsActive,
		IsBlocked: user.IsBlocked,
	}, nil
}

// List returns users matching filters.
func (s *Service) List(ctx context.Context, f Filters) ([]User, error) {
	return s.repo.List(ctx, f)
}

// Count returns the number of accounts.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

var _ access.UserDirectory = (*Service)(nil)
