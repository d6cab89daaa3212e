package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed reads over both audit tables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type condBuilder struct {
	clauses []string
	args    []any
}

func (b *condBuilder) add(expr string, arg any) {
	b.args = append(b.args, arg)
	b.clauses = append(b.clauses, fmt.Sprintf(expr, len(b.args)))
}

func (b *condBuilder) where() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

// ListActions returns admin actions matching filters, newest first.
func (r *Repository) ListActions(ctx context.Context, f ActionFilters, limit, offset int) ([]Action, error) {
	var b condBuilder
	if f.AdminID != nil {
		b.add("admin_id = $%d", *f.AdminID)
	}
	if f.Action != "" {
		b.add("action = $%d", f.Action)
	}
	if f.TargetType != "" {
		b.add("target_type = $%d", f.TargetType)
	}
	if f.TargetID != nil {
		b.add("target_id = $%d", *f.TargetID)
	}
	if f.Endpoint != "" {
		b.add("endpoint = $%d", f.Endpoint)
	}
	if f.IP != "" {
		b.add("ip_address = $%d", f.IP)
	}
	if !f.From.IsZero() {
		b.add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		b.add("created_at <= $%d", f.To)
	}

	b.args = append(b.args, limit, offset)
	query := `SELECT id, admin_id, action, target_type, target_id, ip_address, COALESCE(user_agent, ''), endpoint, method, path, details, created_at FROM admin_actions` +
		b.where() +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(b.args)-1, len(b.args))

	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.ID, &a.AdminID, &a.Action, &a.TargetType, &a.TargetID, &a.IP, &a.UserAgent, &a.Endpoint, &a.Method, &a.Path, &a.Details, &a.CreatedAt); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// ListEvents returns security events matching filters, newest first.
func (r *Repository) ListEvents(ctx context.Context, f EventFilters, limit, offset int) ([]SecurityEventRecord, error) {
	var b condBuilder
	if f.UserID != nil {
		b.add("user_id = $%d", *f.UserID)
	}
	if f.EventType != "" {
		b.add("event_type = $%d", f.EventType)
	}
	if f.StatusCode != nil {
		b.add("status_code = $%d", *f.StatusCode)
	}
	if f.Endpoint != "" {
		b.add("endpoint = $%d", f.Endpoint)
	}
	if f.IP != "" {
		b.add("ip = $%d", f.IP)
	}
	if !f.From.IsZero() {
		b.add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		b.add("created_at <= $%d", f.To)
	}

	b.args = append(b.args, limit, offset)
	query := `SELECT id, created_at, event_type, status_code, endpoint, route_group, method, path, user_id, COALESCE(role, ''), ip, COALESCE(details, '') FROM security_events` +
		b.where() +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(b.args)-1, len(b.args))

	rows, err := r.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SecurityEventRecord
	for rows.Next() {
		var ev SecurityEventRecord
		if err := rows.Scan(&ev.ID, &ev.CreatedAt, &ev.EventType, &ev.StatusCode, &ev.Endpoint, &ev.Group, &ev.Method, &ev.Path, &ev.UserID, &ev.Role, &ev.IP, &ev.Details); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
