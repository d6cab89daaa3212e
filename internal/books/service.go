package books

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RepositoryPort defines data access methods for the catalogue.
type RepositoryPort interface {
	Create(ctx context.Context, b Book) (Book, error)
	FindByID(ctx context.Context, id int64) (Book, error)
	List(ctx context.Context, f Filters) ([]Book, error)
	Count(ctx context.Context) (int64, error)
}

// Service handles catalogue business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create adds a donated book owned by donorID.
func (s *Service) Create(ctx context.Context, donorID int64, b Book) (Book, error) {
	b.DonorID = donorID
	return s.repo.Create(ctx, b)
}

// Get returns one book.
func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns books matching filters. The free-text query is folded so that
// "García Márquez" and "garcia marquez" match the same rows.
func (s *Service) List(ctx context.Context, f Filters) ([]Book, error) {
	f.Query = Fold(f.Query)
	return s.repo.List(ctx, f)
}

// Count returns the catalogue size.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold strips diacritics and lowercases a search term.
func Fold(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}
	if folded, _, err := transform.String(foldTransformer, q); err == nil {
		q = folded
	}
	return strings.ToLower(q)
}

var _ RepositoryPort = (*Repository)(nil)
