package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/libroteca/libroteca/internal/shared"
)

// Repository provides PostgreSQL backed persistence for user accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = "id, email, username, password_hash, role, is_active, is_blocked, created_at"

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive, &u.IsBlocked, &u.CreatedAt)
	if err == pgx.ErrNoRows {
		return User{}, shared.ErrNotFound
	}
	return u, err
}

// FindByID fetches a user by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// List returns users matching filters, newest first, capped at 200 rows.
func (r *Repository) List(ctx context.Context, f Filters) ([]User, error) {
	var clauses []string
	var args []any
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		clauses = append(clauses, fmt.Sprintf("(username ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
	}
	query := `SELECT ` + userColumns + ` FROM users`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC LIMIT 200"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// Count returns the total number of accounts.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// FindByIDTx fetches a user inside a transaction, locking the row.
func (r *Repository) FindByIDTx(ctx context.Context, tx pgx.Tx, id int64) (User, error) {
	return scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

// UpdateRoleTx changes a user's role inside a transaction.
func (r *Repository) UpdateRoleTx(ctx context.Context, tx pgx.Tx, id int64, role string) error {
	tag, err := tx.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateStatusTx flips the is_active flag inside a transaction.
func (r *Repository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, isActive bool) error {
	tag, err := tx.Exec(ctx, `UPDATE users SET is_active = $2 WHERE id = $1`, id, isActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateBlockTx flips the is_blocked flag inside a transaction.
func (r *Repository) UpdateBlockTx(ctx context.Context, tx pgx.Tx, id int64, isBlocked bool) error {
	tag, err := tx.Exec(ctx, `UPDATE users SET is_blocked = $2 WHERE id = $1`, id, isBlocked)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
