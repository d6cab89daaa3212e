package admin

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/libroteca/libroteca/internal/access"
	"github.com/libroteca/libroteca/internal/audit"
	"github.com/libroteca/libroteca/internal/books"
	"github.com/libroteca/libroteca/internal/platform/httpx"
	"github.com/libroteca/libroteca/internal/requests"
	"github.com/libroteca/libroteca/internal/shared"
	"github.com/libroteca/libroteca/internal/users"
)

// Handler exposes the moderation surface over HTTP. Every route behind it is
// mounted with the request gate, so the principal in context is already
// cleared for the endpoint.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	users    *users.Service
	books    *books.Service
	requests *requests.Service
	audit    *audit.Service
}

// NewHandler wires the admin handler.
func NewHandler(logger *slog.Logger, service *Service, userSvc *users.Service, bookSvc *books.Service, requestSvc *requests.Service, auditSvc *audit.Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		users:    userSvc,
		books:    bookSvc,
		requests: requestSvc,
		audit:    auditSvc,
	}
}

func principalOr401(w http.ResponseWriter, r *http.Request) (access.Principal, bool) {
	principal, ok := access.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, httpx.CodeUnauthorized)
	}
	return principal, ok
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// queryBool parses an optional boolean query parameter. ok is false when the
// parameter is present but not a boolean.
func queryBool(r *http.Request, name string) (*bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func queryInt64(r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func queryInt(r *http.Request, name string) (*int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func queryTime(r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, err == nil
}

func pagination(r *http.Request) shared.Pagination {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return shared.NewPagination(page, perPage)
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	IsBlocked bool      `json:"is_blocked"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u users.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		IsActive:  u.IsActive,
		IsBlocked: u.IsBlocked,
		CreatedAt: u.CreatedAt,
	}
}

// ListUsers handles GET /admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	active, ok := queryBool(r, "active")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}
	items, err := h.users.List(r.Context(), users.Filters{
		Query:    r.URL.Query().Get("q"),
		Role:     r.URL.Query().Get("role"),
		IsActive: active,
	})
	if err != nil {
		h.logger.Error("admin list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(items))
	for _, u := range items {
		out = append(out, toUserResponse(u))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}

type roleBody struct {
	Role string `json:"role"`
}

// UpdateUserRole handles PATCH /admin/users/{id}/role.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound)
		return
	}
	var body roleBody
	if err := httpx.DecodeJSON(r, &body); err != nil || body.Role == "" {
		httpx.Error(w, http.StatusBadRequest, "missing_fields")
		return
	}

	var entry audit.Entry
	entry.RequestInfo(r, string(access.EndpointAdminUserRole))
	updated, err := h.service.SetUserRole(r.Context(), principal, id, body.Role, entry)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(updated))
}

type statusBody struct {
	IsActive *bool `json:"is_active"`
}

// UpdateUserStatus handles PATCH /admin/users/{id}/status.
func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound)
		return
	}
	var body statusBody
	if err := httpx.DecodeJSON(r, &body); err != nil || body.IsActive == nil {
		httpx.Error(w, http.StatusBadRequest, "missing_fields")
		return
	}

	var entry audit.Entry
	entry.RequestInfo(r, string(access.EndpointAdminUserStatus))
	updated, err := h.service.SetUserStatus(r.Context(), principal, id, *body.IsActive, entry)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(updated))
}

type blockBody struct {
	IsBlocked *bool `json:"is_blocked"`
}

// UpdateUserBlock handles PATCH /admin/users/{id}/block.
func (h *Handler) UpdateUserBlock(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound)
		return
	}
	var body blockBody
	if err := httpx.DecodeJSON(r, &body); err != nil || body.IsBlocked == nil {
		httpx.Error(w, http.StatusBadRequest, "missing_fields")
		return
	}

	var entry audit.Entry
	entry.RequestInfo(r, string(access.EndpointAdminUserBlock))
	updated, err := h.service.SetUserBlock(r.Context(), principal, id, *body.IsBlocked, entry)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(updated))
}

// ListBooks handles GET /admin/books.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	available, ok := queryBool(r, "available")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}
	donorID, ok := queryInt64(r, "owner_id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}
	items, err := h.books.List(r.Context(), books.Filters{
		Query:       r.URL.Query().Get("q"),
		IsAvailable: available,
		DonorID:     donorID,
	})
	if err != nil {
		h.logger.Error("admin list books", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"books": items2books(items)})
}

type adminBookResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	DonorID     int64     `json:"donor_id"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
}

func items2books(items []books.Book) []adminBookResponse {
	out := make([]adminBookResponse, 0, len(items))
	for _, b := range items {
		out = append(out, adminBookResponse{
			ID:          b.ID,
			Title:       b.Title,
			Author:      b.Author,
			DonorID:     b.DonorID,
			IsAvailable: b.IsAvailable,
			CreatedAt:   b.CreatedAt,
		})
	}
	return out
}

type availabilityBody struct {
	IsAvailable *bool `json:"is_available"`
}

// UpdateBookAvailability handles PATCH /admin/books/{id}/availability.
func (h *Handler) UpdateBookAvailability(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound)
		return
	}
	var body availabilityBody
	if err := httpx.DecodeJSON(r, &body); err != nil || body.IsAvailable == nil {
		httpx.Error(w, http.StatusBadRequest, "missing_fields")
		return
	}

	var entry audit.Entry
	entry.RequestInfo(r, string(access.EndpointAdminBookAvailability))
	if err := h.service.SetBookAvailability(r.Context(), principal, id, *body.IsAvailable, entry); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "is_available": *body.IsAvailable})
}

// ListRequests handles GET /admin/requests.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !requests.ValidStatus(status) {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}
	bookID, ok := queryInt64(r, "book_id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}
	requesterID, ok := queryInt64(r, "requester_id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}
	items, err := h.requests.ListAdmin(r.Context(), requests.Filters{
		Status:      status,
		BookID:      bookID,
		RequesterID: requesterID,
	})
	if err != nil {
		h.logger.Error("admin list requests", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]any{
			"id":           item.ID,
			"book_id":      item.BookID,
			"requester_id": item.RequesterID,
			"status":       item.Status,
			"created_at":   item.CreatedAt,
			"book": map[string]any{
				"id":           item.Book.ID,
				"title":        item.Book.Title,
				"author":       item.Book.Author,
				"donor_id":     item.Book.DonorID,
				"is_available": item.Book.IsAvailable,
			},
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": out})
}

type requestStatusBody struct {
	Status string `json:"status"`
}

// UpdateRequestStatus handles PATCH /admin/requests/{id}/status.
func (h *Handler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound)
		return
	}
	var body requestStatusBody
	if err := httpx.DecodeJSON(r, &body); err != nil || body.Status == "" {
		httpx.Error(w, http.StatusBadRequest, "missing_fields")
		return
	}

	var entry audit.Entry
	entry.RequestInfo(r, string(access.EndpointAdminRequestStatus))
	updated, err := h.service.SetRequestStatus(r.Context(), principal, id, body.Status, entry)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id":      updated.ID,
		"book_id": updated.BookID,
		"status":  updated.Status,
	})
}

// Stats handles GET /admin/stats. Counts are independent, so they fan out.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	var userCount, bookCount, pendingCount int64

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		userCount, err = h.users.Count(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		bookCount, err = h.books.Count(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		pendingCount, err = h.requests.CountPending(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("admin stats", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users":            userCount,
		"books":            bookCount,
		"pending_requests": pendingCount,
	})
}

// AuditActions handles GET /admin/audit/actions.
func (h *Handler) AuditActions(w http.ResponseWriter, r *http.Request) {
	adminID, ok := queryInt64(r, "admin_id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}
	targetID, ok := queryInt64(r, "target_id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}
	from, ok := queryTime(r, "from")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}
	to, ok := queryTime(r, "to")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}

	result, err := h.audit.Actions(r.Context(), audit.ActionFilters{
		AdminID:    adminID,
		Action:     r.URL.Query().Get("action"),
		TargetType: r.URL.Query().Get("target_type"),
		TargetID:   targetID,
		Endpoint:   r.URL.Query().Get("endpoint"),
		IP:         r.URL.Query().Get("ip"),
		From:       from,
		To:         to,
	}, pagination(r))
	if err != nil {
		h.logger.Error("audit actions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	rows := make([]map[string]any, 0, len(result.Rows))
	for _, a := range result.Rows {
		rows = append(rows, map[string]any{
			"id":          a.ID,
			"admin_id":    a.AdminID,
			"action":      a.Action,
			"target_type": a.TargetType,
			"target_id":   a.TargetID,
			"ip":          a.IP,
			"endpoint":    a.Endpoint,
			"method":      a.Method,
			"path":        a.Path,
			"details":     a.Details,
			"created_at":  a.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"actions":  rows,
		"page":     result.Paging.Page,
		"per_page": result.Paging.PerPage,
		"has_next": result.Paging.HasNext,
	})
}

// AuditEvents handles GET /admin/audit/events.
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryInt64(r, "user_id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}
	statusCode, ok := queryInt(r, "status_code")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}
	from, ok := queryTime(r, "from")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}
	to, ok := queryTime(r, "to")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "invalid_filter")
		return
	}

	result, err := h.audit.Events(r.Context(), audit.EventFilters{
		UserID:     userID,
		EventType:  r.URL.Query().Get("event_type"),
		StatusCode: statusCode,
		Endpoint:   r.URL.Query().Get("endpoint"),
		IP:         r.URL.Query().Get("ip"),
		From:       from,
		To:         to,
	}, pagination(r))
	if err != nil {
		h.logger.Error("audit events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	rows := make([]map[string]any, 0, len(result.Rows))
	for _, e := range result.Rows {
		rows = append(rows, map[string]any{
			"id":          e.ID,
			"created_at":  e.CreatedAt,
			"event_type":  e.EventType,
			"status_code": e.StatusCode,
			"endpoint":    e.Endpoint,
			"group":       e.Group,
			"method":      e.Method,
			"path":        e.Path,
			"user_id":     e.UserID,
			"role":        e.Role,
			"ip":          e.IP,
			"details":     e.Details,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"events":   rows,
		"page":     result.Paging.Page,
		"per_page": result.Paging.PerPage,
		"has_next": result.Paging.HasNext,
	})
}
