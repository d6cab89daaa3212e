package requests

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/libroteca/libroteca/internal/access"
	"github.com/libroteca/libroteca/internal/platform/httpx"
	"github.com/libroteca/libroteca/internal/shared"
)

// Handler exposes the request lifecycle over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler wires the requests handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type createRequest struct {
	BookID  int64  `json:"book_id"`
	Message string `json:"message"`
}

type requestResponse struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"book_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type withBookResponse struct {
	requestResponse
	Book bookSummaryResponse `json:"book"`
}

type bookSummaryResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	DonorID     int64  `json:"donor_id"`
	IsAvailable bool   `json:"is_available"`
}

// Create handles POST /requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := access.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, httpx.CodeUnauthorized)
		return
	}

	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.BookID <= 0 {
		httpx.Error(w, http.StatusBadRequest, "missing_fields")
		return
	}

	created, err := h.service.Create(r.Context(), principal.ID, req.BookID, req.Message)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			httpx.Error(w, http.StatusConflict, "request_already_pending")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, requestResponse{
		ID:        created.ID,
		BookID:    created.BookID,
		Status:    created.Status,
		Message:   created.Message,
		CreatedAt: created.CreatedAt,
	})
}

// Mine handles GET /requests/mine.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	principal, ok := access.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, httpx.CodeUnauthorized)
		return
	}

	items, err := h.service.Mine(r.Context(), principal.ID)
	if err != nil {
		h.logger.Error("list my requests", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]withBookResponse, 0, len(items))
	for _, item := range items {
		out = append(out, withBookResponse{
			requestResponse: requestResponse{
				ID:        item.ID,
				BookID:    item.BookID,
				Status:    item.Status,
				Message:   item.Message,
				CreatedAt: item.CreatedAt,
			},
			Book: bookSummaryResponse{
				ID:          item.Book.ID,
				Title:       item.Book.Title,
				Author:      item.Book.Author,
				DonorID:     item.Book.DonorID,
				IsAvailable: item.Book.IsAvailable,
			},
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": out})
}
