// Package audit keeps the accountability records for privileged actions: the
// transactional admin-action log and read access to both audit tables.
package audit

import "time"

// Admin action names, dot-namespaced by target entity.
const (
	ActionUserRoleChange         = "user.role_change"
	ActionUserStatusChange       = "user.status_change"
	ActionUserBlock              = "user.block"
	ActionUserUnblock            = "user.unblock"
	ActionBookAvailabilityChange = "book.availability_change"
	ActionRequestAccept          = "request.accept"
	ActionRequestReject          = "request.reject"
	ActionRequestCancel          = "request.cancel"
)

// Action is one successful privileged mutation. Written in the same
// transaction as the mutation it documents.
type Action struct {
	ID         int64
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
	CreatedAt  time.Time
}

// SecurityEventRecord is the read-side view of one security event.
type SecurityEventRecord struct {
	ID         int64
	CreatedAt  time.Time
	EventType  string
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

// ActionFilters narrows admin-action listings.
type ActionFilters struct {
	AdminID    *int64
	Action     string
	TargetType string
	TargetID   *int64
	Endpoint   string
	IP         string
	From       time.Time
	To         time.Time
}

// EventFilters narrows security-event listings.
type EventFilters struct {
	UserID     *int64
	EventType  string
	StatusCode *int
	Endpoint   string
	IP         string
	From       time.Time
	To         time.Time
}

// Paging reports listing position and whether another page exists.
type Paging struct {
	Page    int
	PerPage int
	HasNext bool
}
