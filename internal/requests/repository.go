package requests

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/libroteca/libroteca/internal/shared"
)

// Repository provides PostgreSQL backed persistence for book requests.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const requestColumns = "r.id, r.book_id, r.requester_id, r.status, COALESCE(r.message, ''), r.created_at, r.updated_at"

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.BookID, &req.RequesterID, &req.Status, &req.Message, &req.CreatedAt, &req.UpdatedAt)
	if err == pgx.ErrNoRows {
		return Request{}, shared.ErrNotFound
	}
	return req, err
}

// Create inserts a pending request. A live pending request by the same user
// for the same book yields shared.ErrDuplicate.
func (r *Repository) Create(ctx context.Context, bookID, requesterID int64, message string) (Request, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM book_requests
			WHERE book_id = $1 AND requester_id = $2 AND status = 'pending'
		)`, bookID, requesterID).Scan(&exists)
	if err != nil {
		return Request{}, err
	}
	if exists {
		return Request{}, shared.ErrDuplicate
	}
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO book_requests (book_id, requester_id, status, message, created_at, updated_at)
		VALUES ($1, $2, 'pending', NULLIF($3, ''), $4, $4)
		RETURNING `+strings.ReplaceAll(requestColumns, "r.", ""),
		bookID, requesterID, message, now,
	)
	return scanRequest(row)
}

const withBookQuery = `
	SELECT ` + requestColumns + `, b.id, b.title, b.author, b.donor_id, b.is_available
	FROM book_requests r
	JOIN books b ON b.id = r.book_id`

func collectWithBook(rows pgx.Rows) ([]WithBook, error) {
	defer rows.Close()
	var result []WithBook
	for rows.Next() {
		var item WithBook
		err := rows.Scan(
			&item.ID, &item.BookID, &item.RequesterID, &item.Status, &item.Message, &item.CreatedAt, &item.UpdatedAt,
			&item.Book.ID, &item.Book.Title, &item.Book.Author, &item.Book.DonorID, &item.Book.IsAvailable,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// ListMine returns the requester's requests, newest first.
func (r *Repository) ListMine(ctx context.Context, requesterID int64) ([]WithBook, error) {
	rows, err := r.pool.Query(ctx, withBookQuery+` WHERE r.requester_id = $1 ORDER BY r.created_at DESC LIMIT 200`, requesterID)
	if err != nil {
		return nil, err
	}
	return collectWithBook(rows)
}

// ListAdmin returns requests matching filters, newest first.
func (r *Repository) ListAdmin(ctx context.Context, f Filters) ([]WithBook, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if f.BookID != nil {
		args = append(args, *f.BookID)
		clauses = append(clauses, fmt.Sprintf("r.book_id = $%d", len(args)))
	}
	if f.RequesterID != nil {
		args = append(args, *f.RequesterID)
		clauses = append(clauses, fmt.Sprintf("r.requester_id = $%d", len(args)))
	}
	query := withBookQuery
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY r.created_at DESC LIMIT 200"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectWithBook(rows)
}

// CountByStatus returns the number of requests in the given status.
func (r *Repository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM book_requests WHERE status = $1`, status).Scan(&n)
	return n, err
}

// GetTx locks and returns a request inside a transaction.
func (r *Repository) GetTx(ctx context.Context, tx pgx.Tx, id int64) (Request, error) {
	return scanRequest(tx.QueryRow(ctx, `
		SELECT `+strings.ReplaceAll(requestColumns, "r.", "")+`
		FROM book_requests WHERE id = $1 FOR UPDATE`, id))
}

// UpdateStatusTx updates a request's status inside a transaction.
func (r *Repository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, status string) error {
	tag, err := tx.Exec(ctx, `UPDATE book_requests SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
