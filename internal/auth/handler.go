package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/libroteca/libroteca/internal/platform/httpx"
	"github.com/libroteca/libroteca/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		validator:      validator.New(),
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=80"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account and leaves the caller logged in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_json")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "missing_fields")
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			httpx.Error(w, http.StatusConflict, "user_exists")
			return
		}
		h.logger.Error("register", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal)
		return
	}

	h.bindSession(w, r, user)
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message":  "created",
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
	})
}

// Login validates credentials and binds the session to the user.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_json")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "missing_fields")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrUserBlocked) {
			httpx.Error(w, http.StatusForbidden, "user_blocked")
			return
		}
		httpx.Error(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	h.bindSession(w, r, user)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":  "ok",
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
	})
}

// Logout clears the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "logged_out"})
}

// Me reports session introspection data.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.Get(shared.SessionKeyUserID) == "" {
		httpx.JSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"id":            sess.Get(shared.SessionKeyUserID),
		"email":         sess.Get("email"),
		"username":      sess.Get("username"),
		"role":          sess.Get(shared.SessionKeyRole),
	})
}

func (h *Handler) bindSession(w http.ResponseWriter, r *http.Request, user *User) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		return
	}
	sess.Clear()
	sess.Set(shared.SessionKeyUserID, strconv.FormatInt(user.ID, 10))
	sess.Set(shared.SessionKeyRole, user.Role)
	sess.Set("email", user.Email)
	sess.Set("username", user.Username)

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, httpx.ClientIP(r), r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
}
