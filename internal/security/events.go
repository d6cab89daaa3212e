// Package security persists security events: denied or throttled requests,
// recorded best-effort so logging can never take down the request path.
package security

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/libroteca/libroteca/internal/shared"
)

// EventKind classifies a security event.
type EventKind string

const (
	EventDenyUnauthorized EventKind = "deny_unauthorized"
	EventDenyBlocked      EventKind = "deny_blocked"
	EventDenyForbidden    EventKind = "deny_forbidden"
	EventRateLimited      EventKind = "rate_limited"
)

// Event is one denial or throttling occurrence. Immutable once written;
// retention is an external concern.
type Event struct {
	Kind       EventKind
	StatusCode int
	Endpoint   string
	Group      string
	Method     string
	Path       string
	UserID     *int64
	Role       string
	IP         string
	Details    string
}

// Recorder appends events to security_events.
type Recorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(pool *pgxpool.Pool, logger *slog.Logger) *Recorder {
	return &Recorder{pool: pool, logger: logger}
}

// Record inserts the event. It returns the write error so the contract is
// visible at the type level, but callers deliberately discard it: a failed
// security-event write must never become a user-visible error. In test mode
// nothing is written.
func (rec *Recorder) Record(ctx context.Context, ev Event) error {
	if shared.InTestMode() {
		return nil
	}
	if rec == nil || rec.pool == nil {
		return nil
	}
	_, err := rec.pool.Exec(ctx, `
		INSERT INTO security_events
			(created_at, event_type, status_code, endpoint, route_group, method, path, user_id, role, ip, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, NULLIF($11, ''))`,
		time.Now().UTC(), string(ev.Kind), ev.StatusCode, ev.Endpoint, ev.Group,
		ev.Method, ev.Path, ev.UserID, ev.Role, ev.IP, ev.Details,
	)
	if err != nil && rec.logger != nil {
		rec.logger.Debug("security event write failed", slog.Any("error", err), slog.String("kind", string(ev.Kind)))
	}
	return err
}
