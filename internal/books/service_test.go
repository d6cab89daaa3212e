package books

import (
	"context"
	"testing"

	"github.com/libroteca/libroteca/internal/shared"
)

type stubRepo struct {
	byID     map[int64]Book
	created  []Book
	gotQuery string
}

func newStubRepo(list ...Book) *stubRepo {
	s := &stubRepo{byID: make(map[int64]Book)}
	for _, b := range list {
		s.byID[b.ID] = b
	}
	return s
}

func (s *stubRepo) Create(ctx context.Context, b Book) (Book, error) {
	b.ID = int64(len(s.created) + 1)
	b.IsAvailable = true
	s.created = append(s.created, b)
	return b, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (Book, error) {
	b, ok := s.byID[id]
	if !ok {
		return Book{}, shared.ErrNotFound
	}
	return b, nil
}

func (s *stubRepo) List(ctx context.Context, f Filters) ([]Book, error) {
	s.gotQuery = f.Query
	out := make([]Book, 0, len(s.byID))
	for _, b := range s.byID {
		out = append(out, b)
	}
	return out, nil
}

func (s *stubRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(s.byID)), nil
}

func TestCreateAssignsDonor(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	book, err := svc.Create(context.Background(), 5, Book{Title: "Rayuela", Author: "Julio Cortázar"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.DonorID != 5 {
		t.Fatalf("donor = %d, want 5", book.DonorID)
	}
	if !book.IsAvailable {
		t.Fatal("new books start available")
	}
}

func TestGetUnknownBook(t *testing.T) {
	svc := NewService(newStubRepo())
	if _, err := svc.Get(context.Background(), 99); err != shared.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListFoldsQuery(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	if _, err := svc.List(context.Background(), Filters{Query: "  GARCÍA Márquez "}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.gotQuery != "garcia marquez" {
		t.Fatalf("folded query = %q, want %q", repo.gotQuery, "garcia marquez")
	}
}

func TestFold(t *testing.T) {
	cases := []struct{ in, want string }{
		{"García Márquez", "garcia marquez"},
		{"CAMÕES", "camoes"},
		{"  perec  ", "perec"},
		{"", ""},
		{"   ", ""},
		{"Böll", "boll"},
	}
	for _, tc := range cases {
		if got := Fold(tc.in); got != tc.want {
			t.Fatalf("Fold(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
