package requests

import "time"

// Request statuses. Lowercase is authoritative in storage and on the wire.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is a known request status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Request is one reader's request for a listed book.
type Request struct {
	ID          int64
	BookID      int64
	RequesterID int64
	Status      string
	Message     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookSummary is the slice of book data shown alongside a request.
type BookSummary struct {
	ID          int64
	Title       string
	Author      string
	DonorID     int64
	IsAvailable bool
}

// WithBook pairs a request with its book summary for listings.
type WithBook struct {
	Request
	Book BookSummary
}

// Filters narrows admin request listings.
type Filters struct {
	Status      string
	BookID      *int64
	RequesterID *int64
}
