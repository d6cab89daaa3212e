package requests

import (
	"context"

	"github.com/libroteca/libroteca/internal/books"
	"github.com/libroteca/libroteca/internal/shared"
)

// BookFinder is the slice of the catalogue the request service needs.
type BookFinder interface {
	Get(ctx context.Context, id int64) (books.Book, error)
}

// RepositoryPort defines data access methods for requests.
type RepositoryPort interface {
	Create(ctx context.Context, bookID, requesterID int64, message string) (Request, error)
	ListMine(ctx context.Context, requesterID int64) ([]WithBook, error)
	ListAdmin(ctx context.Context, f Filters) ([]WithBook, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// Service handles request lifecycle business logic.
type Service struct {
	repo  RepositoryPort
	books BookFinder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, bookFinder BookFinder) *Service {
	return &Service{repo: repo, books: bookFinder}
}

// ErrOwnBook is returned when a user requests a book they listed themselves.
var ErrOwnBook = shared.Validation("cannot_request_own_book")

// Create validates and records a pending request for bookID by requesterID.
func (s *Service) Create(ctx context.Context, requesterID, bookID int64, message string) (Request, error) {
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return Request{}, err
	}
	if book.DonorID == requesterID {
		return Request{}, ErrOwnBook
	}
	return s.repo.Create(ctx, bookID, requesterID, message)
}

// Mine returns the caller's requests.
func (s *Service) Mine(ctx context.Context, requesterID int64) ([]WithBook, error) {
	return s.repo.ListMine(ctx, requesterID)
}

// ListAdmin returns requests for moderation views.
func (s *Service) ListAdmin(ctx context.Context, f Filters) ([]WithBook, error) {
	return s.repo.ListAdmin(ctx, f)
}

// CountPending returns the number of pending requests.
func (s *Service) CountPending(ctx context.Context) (int64, error) {
	return s.repo.CountByStatus(ctx, StatusPending)
}

var _ RepositoryPort = (*Repository)(nil)
