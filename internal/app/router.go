package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/libroteca/libroteca/internal/access"
	"github.com/libroteca/libroteca/internal/admin"
	"github.com/libroteca/libroteca/internal/auth"
	"github.com/libroteca/libroteca/internal/books"
	"github.com/libroteca/libroteca/internal/observability"
	"github.com/libroteca/libroteca/internal/platform/httpx"
	"github.com/libroteca/libroteca/internal/requests"
	"github.com/libroteca/libroteca/internal/shared"
	"github.com/libroteca/libroteca/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	Gate            *access.Gate
	AuthHandler     *auth.Handler
	BooksHandler    *books.Handler
	RequestsHandler *requests.Handler
	AdminHandler    *admin.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router. Every route passes through the request
// gate for its endpoint id; the gate decides who gets past it.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	guard := params.Gate.Guard

	r.With(guard(access.EndpointHealth)).Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.With(guard(access.EndpointIndex)).Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"name":    "libroteca",
			"env":     params.Config.AppEnv,
			"message": "book-sharing platform API",
		})
	})

	r.With(guard(access.EndpointRoutes)).Get("/routes", func(w http.ResponseWriter, req *http.Request) {
		type routeInfo struct {
			Method string `json:"method"`
			Path   string `json:"path"`
		}
		var routes []routeInfo
		_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			routes = append(routes, routeInfo{Method: method, Path: route})
			return nil
		})
		httpx.JSON(w, http.StatusOK, map[string]any{"routes": routes})
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(guard(access.EndpointAuthRegister)).Post("/register", params.AuthHandler.Register)
		r.With(guard(access.EndpointAuthLogin)).Post("/login", params.AuthHandler.Login)
		r.With(guard(access.EndpointAuthLogout)).Post("/logout", params.AuthHandler.Logout)
		r.With(guard(access.EndpointAuthMe)).Get("/me", params.AuthHandler.Me)
	})

	r.Route("/books", func(r chi.Router) {
		r.With(guard(access.EndpointBooksCreate)).Post("/", params.BooksHandler.Create)
		r.With(guard(access.EndpointBooksList)).Get("/", params.BooksHandler.List)
		r.With(guard(access.EndpointBooksGet)).Get("/{id}", params.BooksHandler.Get)
	})

	r.Route("/requests", func(r chi.Router) {
		r.With(guard(access.EndpointRequestsCreate)).Post("/", params.RequestsHandler.Create)
		r.With(guard(access.EndpointRequestsMine)).Get("/mine", params.RequestsHandler.Mine)
	})

	r.Route("/admin", func(r chi.Router) {
		r.With(guard(access.EndpointAdminUsersList)).Get("/users", params.AdminHandler.ListUsers)
		r.With(guard(access.EndpointAdminUserRole)).Patch("/users/{id}/role", params.AdminHandler.UpdateUserRole)
		r.With(guard(access.EndpointAdminUserStatus)).Patch("/users/{id}/status", params.AdminHandler.UpdateUserStatus)
		r.With(guard(access.EndpointAdminUserBlock)).Patch("/users/{id}/block", params.AdminHandler.UpdateUserBlock)
		r.With(guard(access.EndpointAdminBooksList)).Get("/books", params.AdminHandler.ListBooks)
		r.With(guard(access.EndpointAdminBookAvailability)).Patch("/books/{id}/availability", params.AdminHandler.UpdateBookAvailability)
		r.With(guard(access.EndpointAdminRequestsList)).Get("/requests", params.AdminHandler.ListRequests)
		r.With(guard(access.EndpointAdminRequestStatus)).Patch("/requests/{id}/status", params.AdminHandler.UpdateRequestStatus)
		r.With(guard(access.EndpointAdminStats)).Get("/stats", params.AdminHandler.Stats)
		r.With(guard(access.EndpointAdminAuditActions)).Get("/audit/actions", params.AdminHandler.AuditActions)
		r.With(guard(access.EndpointAdminAuditEvents)).Get("/audit/events", params.AdminHandler.AuditEvents)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.With(guard(access.EndpointStatic)).Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers cache static assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
