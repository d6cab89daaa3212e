package books

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/libroteca/libroteca/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the catalogue.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const bookColumns = "id, title, author, COALESCE(genre, ''), COALESCE(language, ''), COALESCE(description, ''), donor_id, is_available, created_at, updated_at"

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Language, &b.Description, &b.DonorID, &b.IsAvailable, &b.CreatedAt, &b.UpdatedAt)
	if err == pgx.ErrNoRows {
		return Book{}, shared.ErrNotFound
	}
	return b, err
}

// Create inserts a new available book.
func (r *Repository) Create(ctx context.Context, b Book) (Book, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO books (title, author, genre, language, description, donor_id, is_available, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, TRUE, $7, $7)
		RETURNING `+bookColumns,
		b.Title, b.Author, b.Genre, b.Language, b.Description, b.DonorID, now,
	)
	return scanBook(row)
}

// FindByID fetches a book by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (Book, error) {
	return scanBook(r.pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
}

// List returns the catalogue, newest first.
func (r *Repository) List(ctx context.Context, f Filters) ([]Book, error) {
	var clauses []string
	var args []any
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		clauses = append(clauses, fmt.Sprintf("(unaccent(title) ILIKE unaccent($%d) OR unaccent(author) ILIKE unaccent($%d))", len(args), len(args)))
	}
	if f.IsAvailable != nil {
		args = append(args, *f.IsAvailable)
		clauses = append(clauses, fmt.Sprintf("is_available = $%d", len(args)))
	}
	if f.DonorID != nil {
		args = append(args, *f.DonorID)
		clauses = append(clauses, fmt.Sprintf("donor_id = $%d", len(args)))
	}
	query := `SELECT ` + bookColumns + ` FROM books`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT 200"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// Count returns the catalogue size.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM books`).Scan(&n)
	return n, err
}

// SetAvailabilityTx flips a book's availability inside a transaction.
func (r *Repository) SetAvailabilityTx(ctx context.Context, tx pgx.Tx, id int64, available bool) error {
	tag, err := tx.Exec(ctx, `UPDATE books SET is_available = $2, updated_at = $3 WHERE id = $1`, id, available, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// HasAcceptedRequestTx reports whether any accepted request exists for the
// book. Used to recompute availability after a transition away from accepted.
func (r *Repository) HasAcceptedRequestTx(ctx context.Context, tx pgx.Tx, bookID int64) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM book_requests WHERE book_id = $1 AND status = 'accepted')`, bookID).Scan(&exists)
	return exists, err
}
