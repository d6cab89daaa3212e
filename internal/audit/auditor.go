package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/libroteca/libroteca/internal/platform/httpx"
)

// Entry is the payload for one admin-action record.
type Entry struct {
	AdminID    int64
	Action     string
	TargetType string
	TargetID   *int64
	IP         string
	UserAgent  string
	Endpoint   string
	Method     string
	Path       string
	Details    map[string]any
}

// RequestInfo captures the HTTP context an audit entry carries.
func (e *Entry) RequestInfo(r *http.Request, endpoint string) {
	e.IP = httpx.ClientIP(r)
	e.UserAgent = r.UserAgent()
	e.Endpoint = endpoint
	e.Method = r.Method
	e.Path = r.URL.Path
}

// Auditor writes admin_actions rows. Log runs on the caller's transaction so
// the audit record and the mutation it documents commit or roll back
// together; a write failure propagates and must abort the mutation.
type Auditor struct{}

// NewAuditor constructs an Auditor.
func NewAuditor() *Auditor {
	return &Auditor{}
}

// Log inserts the entry and returns the new record id.
func (a *Auditor) Log(ctx context.Context, tx pgx.Tx, entry Entry) (int64, error) {
	if entry.AdminID == 0 || entry.Action == "" || entry.TargetType == "" {
		return 0, errors.New("audit: entry requires admin_id/action/target_type")
	}
	detailsJSON, err := json.Marshal(entry.Details)
	if err != nil {
		return 0, err
	}
	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO admin_actions
			(admin_id, action, target_type, target_id, ip_address, user_agent, endpoint, method, path, details, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11)
		RETURNING id`,
		entry.AdminID, entry.Action, entry.TargetType, entry.TargetID, entry.IP,
		entry.UserAgent, entry.Endpoint, entry.Method, entry.Path, detailsJSON,
		time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
