package admin

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/libroteca/libroteca/internal/access"
	"github.com/libroteca/libroteca/internal/audit"
	"github.com/libroteca/libroteca/internal/platform/db"
	"github.com/libroteca/libroteca/internal/requests"
	"github.com/libroteca/libroteca/internal/shared"
	"github.com/libroteca/libroteca/internal/users"
)

// Guard failures surfaced to handlers as 400 validation codes.
var (
	ErrInvalidRole       = shared.Validation("invalid_role")
	ErrOwnRole           = shared.Validation("cannot_change_own_role")
	ErrSelfDeactivate    = shared.Validation("cannot_deactivate_self")
	ErrSelfBlock         = shared.Validation("cannot_block_self")
	ErrUnsupportedStatus = shared.Validation("invalid_status")
)

// UserStore is the transactional slice of the users repository.
type UserStore interface {
	FindByIDTx(ctx context.Context, tx pgx.Tx, id int64) (users.User, error)
	UpdateRoleTx(ctx context.Context, tx pgx.Tx, id int64, role string) error
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, isActive bool) error
	UpdateBlockTx(ctx context.Context, tx pgx.Tx, id int64, isBlocked bool) error
}

// BookStore is the transactional slice of the books repository.
type BookStore interface {
	SetAvailabilityTx(ctx context.Context, tx pgx.Tx, id int64, available bool) error
	HasAcceptedRequestTx(ctx context.Context, tx pgx.Tx, bookID int64) (bool, error)
}

// RequestStore is the transactional slice of the requests repository.
type RequestStore interface {
	GetTx(ctx context.Context, tx pgx.Tx, id int64) (requests.Request, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, status string) error
}

// ActionLogger records admin actions on the mutation's own transaction.
type ActionLogger interface {
	Log(ctx context.Context, tx pgx.Tx, entry audit.Entry) (int64, error)
}

// Service performs privileged mutations. Every mutation and its audit record
// run inside one transaction: a lost audit row aborts the mutation.
type Service struct {
	logger  *slog.Logger
	txRun   func(ctx context.Context, fn func(pgx.Tx) error) error
	users   UserStore
	books   BookStore
	reqs    RequestStore
	auditor ActionLogger
}

// NewService wires the moderation service on top of a pgx pool.
func NewService(logger *slog.Logger, pool *pgxpool.Pool, userStore UserStore, bookStore BookStore, reqStore RequestStore, auditor ActionLogger) *Service {
	return &Service{
		logger: logger,
		txRun: func(ctx context.Context, fn func(pgx.Tx) error) error {
			return db.WithTx(ctx, pool, fn)
		},
		users:   userStore,
		books:   bookStore,
		reqs:    reqStore,
		auditor: auditor,
	}
}

// SetUserRole changes a user's role and audits the transition.
func (s *Service) SetUserRole(ctx context.Context, actor access.Principal, targetID int64, newRole string, entry audit.Entry) (users.User, error) {
	if _, ok := access.ParseRole(newRole); !ok {
		return users.User{}, ErrInvalidRole
	}
	if actor.ID == targetID {
		return users.User{}, ErrOwnRole
	}

	var target users.User
	err := s.txRun(ctx, func(tx pgx.Tx) error {
		var err error
		target, err = s.users.FindByIDTx(ctx, tx, targetID)
		if err != nil {
			return err
		}
		if target.Role == string(access.RoleAdmin) && actor.Role != access.RoleAdmin {
			return shared.ErrForbidden
		}
		oldRole := target.Role
		if err := s.users.UpdateRoleTx(ctx, tx, targetID, newRole); err != nil {
			return err
		}
		entry.AdminID = actor.ID
		entry.Action = audit.ActionUserRoleChange
		entry.TargetType = "user"
		entry.TargetID = &targetID
		entry.Details = map[string]any{"old_role": oldRole, "new_role": newRole}
		if _, err := s.auditor.Log(ctx, tx, entry); err != nil {
			return err
		}
		target.Role = newRole
		return nil
	})
	if err != nil {
		return users.User{}, err
	}
	s.logger.Info("user role changed",
		slog.Int64("admin_id", actor.ID),
		slog.Int64("user_id", targetID),
		slog.String("role", newRole),
	)
	return target, nil
}

// SetUserStatus activates or deactivates an account and audits the change.
func (s *Service) SetUserStatus(ctx context.Context, actor access.Principal, targetID int64, isActive bool, entry audit.Entry) (users.User, error) {
	if actor.ID == targetID && !isActive {
		return users.User{}, ErrSelfDeactivate
	}

	var target users.User
	err := s.txRun(ctx, func(tx pgx.Tx) error {
		var err error
		target, err = s.users.FindByIDTx(ctx, tx, targetID)
		if err != nil {
			return err
		}
		if target.Role == string(access.RoleAdmin) && actor.Role != access.RoleAdmin {
			return shared.ErrForbidden
		}
		oldActive := target.IsActive
		if err := s.users.UpdateStatusTx(ctx, tx, targetID, isActive); err != nil {
			return err
		}
		entry.AdminID = actor.ID
		entry.Action = audit.ActionUserStatusChange
		entry.TargetType = "user"
		entry.TargetID = &targetID
		entry.Details = map[string]any{"old_is_active": oldActive, "new_is_active": isActive}
		if _, err := s.auditor.Log(ctx, tx, entry); err != nil {
			return err
		}
		target.IsActive = isActive
		return nil
	})
	if err != nil {
		return users.User{}, err
	}
	return target, nil
}

// SetUserBlock blocks or unblocks an account and audits the change.
func (s *Service) SetUserBlock(ctx context.Context, actor access.Principal, targetID int64, isBlocked bool, entry audit.Entry) (users.User, error) {
	if actor.ID == targetID && isBlocked {
		return users.User{}, ErrSelfBlock
	}

	var target users.User
	err := s.txRun(ctx, func(tx pgx.Tx) error {
		var err error
		target, err = s.users.FindByIDTx(ctx, tx, targetID)
		if err != nil {
			return err
		}
		if target.Role == string(access.RoleAdmin) && actor.Role != access.RoleAdmin {
			return shared.ErrForbidden
		}
		oldBlocked := target.IsBlocked
		if err := s.users.UpdateBlockTx(ctx, tx, targetID, isBlocked); err != nil {
			return err
		}
		entry.AdminID = actor.ID
		if isBlocked {
			entry.Action = audit.ActionUserBlock
		} else {
			entry.Action = audit.ActionUserUnblock
		}
		entry.TargetType = "user"
		entry.TargetID = &targetID
		entry.Details = map[string]any{"old_is_blocked": oldBlocked, "new_is_blocked": isBlocked}
		if _, err := s.auditor.Log(ctx, tx, entry); err != nil {
			return err
		}
		target.IsBlocked = isBlocked
		return nil
	})
	if err != nil {
		return users.User{}, err
	}
	return target, nil
}

// SetBookAvailability flips a book's availability and audits the change.
func (s *Service) SetBookAvailability(ctx context.Context, actor access.Principal, bookID int64, available bool, entry audit.Entry) error {
	return s.txRun(ctx, func(tx pgx.Tx) error {
		if err := s.books.SetAvailabilityTx(ctx, tx, bookID, available); err != nil {
			return err
		}
		entry.AdminID = actor.ID
		entry.Action = audit.ActionBookAvailabilityChange
		entry.TargetType = "book"
		entry.TargetID = &bookID
		entry.Details = map[string]any{"is_available": available}
		_, err := s.auditor.Log(ctx, tx, entry)
		return err
	})
}

var statusActions = map[string]string{
	requests.StatusAccepted:  audit.ActionRequestAccept,
	requests.StatusRejected:  audit.ActionRequestReject,
	requests.StatusCancelled: audit.ActionRequestCancel,
}

// SetRequestStatus transitions a request and keeps the book's availability
// consistent: an accepted request takes the book off the shelf, any other
// transition recomputes availability from the remaining accepted requests.
func (s *Service) SetRequestStatus(ctx context.Context, actor access.Principal, requestID int64, newStatus string, entry audit.Entry) (requests.Request, error) {
	action, ok := statusActions[newStatus]
	if !ok {
		return requests.Request{}, ErrUnsupportedStatus
	}

	var updated requests.Request
	err := s.txRun(ctx, func(tx pgx.Tx) error {
		req, err := s.reqs.GetTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		oldStatus := req.Status
		if err := s.reqs.UpdateStatusTx(ctx, tx, requestID, newStatus); err != nil {
			return err
		}
		if newStatus == requests.StatusAccepted {
			if err := s.books.SetAvailabilityTx(ctx, tx, req.BookID, false); err != nil {
				return err
			}
		} else {
			accepted, err := s.books.HasAcceptedRequestTx(ctx, tx, req.BookID)
			if err != nil {
				return err
			}
			if err := s.books.SetAvailabilityTx(ctx, tx, req.BookID, !accepted); err != nil {
				return err
			}
		}
		entry.AdminID = actor.ID
		entry.Action = action
		entry.TargetType = "request"
		entry.TargetID = &requestID
		entry.Details = map[string]any{"old_status": oldStatus, "new_status": newStatus, "book_id": req.BookID}
		if _, err := s.auditor.Log(ctx, tx, entry); err != nil {
			return err
		}
		req.Status = newStatus
		updated = req
		return nil
	})
	if err != nil {
		return requests.Request{}, err
	}
	s.logger.Info("request status changed",
		slog.Int64("admin_id", actor.ID),
		slog.Int64("request_id", requestID),
		slog.String("status", newStatus),
	)
	return updated, nil
}
