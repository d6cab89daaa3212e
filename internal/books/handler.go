package books

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/libroteca/libroteca/internal/access"
	"github.com/libroteca/libroteca/internal/platform/httpx"
)

// Handler exposes the catalogue over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler wires the catalogue handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

type createRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Author      string `json:"author" validate:"required,max=255"`
	Genre       string `json:"genre" validate:"max=100"`
	Language    string `json:"language" validate:"max=50"`
	Description string `json:"description" validate:"max=2000"`
}

type bookResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Genre       string    `json:"genre,omitempty"`
	Language    string    `json:"language,omitempty"`
	Description string    `json:"description,omitempty"`
	DonorID     int64     `json:"donor_id"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResponse(b Book) bookResponse {
	return bookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		Language:    b.Language,
		Description: b.Description,
		DonorID:     b.DonorID,
		IsAvailable: b.IsAvailable,
		CreatedAt:   b.CreatedAt,
	}
}

// Create handles POST /books.
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
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "missing_fields")
		return
	}

	book, err := h.service.Create(r.Context(), principal.ID, Book{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Language:    req.Language,
		Description: req.Description,
	})
	if err != nil {
		h.logger.Error("create book", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(book))
}

// List handles GET /books.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), Filters{Query: r.URL.Query().Get("q")})
	if err != nil {
		h.logger.Error("list books", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]bookResponse, 0, len(items))
	for _, b := range items {
		out = append(out, toResponse(b))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"books": out})
}

// Get handles GET /books/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound)
		return
	}
	book, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(book))
}
