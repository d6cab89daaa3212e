package users

import (
	"context"
	"testing"

	"github.com/libroteca/libroteca/internal/access"
	"github.com/libroteca/libroteca/internal/shared"
)

type stubRepo struct {
	byID map[int64]User
}

func (s stubRepo) FindByID(ctx context.Context, id int64) (User, error) {
	u, ok := s.byID[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (s stubRepo) List(ctx context.Context, f Filters) ([]User, error) {
	return nil, nil
}

func (s stubRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(s.byID)), nil
}

func TestFindPrincipal(t *testing.T) {
	repo := stubRepo{byID: map[int64]User{
		7: {ID: 7, Role: "moderator", IsActive: true, IsBlocked: false},
		8: {ID: 8, Role: "reader", IsActive: false, IsBlocked: true},
	}}
	svc := NewService(repo)

	p, err := svc.FindPrincipal(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Role != access.RoleModerator || !p.IsActive || p.IsBlocked {
		t.Fatalf("principal = %+v", p)
	}
	if p.Denied() {
		t.Fatal("active unblocked principal must not be denied")
	}

	p, err = svc.FindPrincipal(context.Background(), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Denied() {
		t.Fatal("blocked inactive principal must be denied")
	}

	if _, err := svc.FindPrincipal(context.Background(), 99); err != shared.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
