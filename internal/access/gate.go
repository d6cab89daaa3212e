package access

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/libroteca/libroteca/internal/platform/httpx"
	"github.com/libroteca/libroteca/internal/security"
	"github.com/libroteca/libroteca/internal/shared"
)

// Bodies are only peeked at for status-dependent endpoints; anything beyond
// this is not a legitimate transition request.
const maxPeekBody = 1 << 20

// UserDirectory resolves a session's user id to its current principal.
type UserDirectory interface {
	FindPrincipal(ctx context.Context, id int64) (Principal, error)
}

// EventRecorder is the security-event sink. Its error is intentionally
// discarded by the gate: event logging is best-effort.
type EventRecorder interface {
	Record(ctx context.Context, ev security.Event) error
}

// DenialCounter observes denial events, keyed by event kind.
type DenialCounter interface {
	CountDenial(kind string)
}

// Gate fronts every route: it resolves the principal from session state,
// applies auth-group rate limits and asks the decision engine whether the
// request may proceed. Denials are terminal and recorded as security events.
type Gate struct {
	logger  *slog.Logger
	users   UserDirectory
	engine  *Engine
	limiter Limiter
	events  EventRecorder
	denials DenialCounter
}

// NewGate wires the gate's collaborators.
func NewGate(logger *slog.Logger, users UserDirectory, engine *Engine, limiter Limiter, events EventRecorder) *Gate {
	return &Gate{logger: logger, users: users, engine: engine, limiter: limiter, events: events}
}

// SetDenialCounter attaches a metrics sink for denial events.
func (g *Gate) SetDenialCounter(c DenialCounter) {
	g.denials = c
}

// Guard returns the middleware enforcing the access pipeline for one
// endpoint. Routes declare their endpoint id at mount time; the pipeline
// itself has exactly one implementation.
func (g *Gate) Guard(id EndpointID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := RequestContext{
				Endpoint: id,
				Group:    id.Group(),
				Method:   r.Method,
				Path:     r.URL.Path,
				SourceIP: httpx.ClientIP(r),
			}

			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if IsPublic(id) {
				if rc.Group == "auth" && !shared.InTestMode() && g.limiter != nil {
					limit, window := AuthRateLimit(id)
					key := rc.SourceIP + ":" + string(id)
					if !g.limiter.Allow(w, r, key, limit, window) {
						g.record(r, security.EventRateLimited, http.StatusTooManyRequests, rc, nil, "limit="+strconv.Itoa(limit))
						httpx.Error(w, http.StatusTooManyRequests, httpx.CodeTooManyRequests)
						return
					}
				}
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := g.sessionUserID(r)
			if !ok {
				g.record(r, security.EventDenyUnauthorized, http.StatusUnauthorized, rc, nil, "no session")
				httpx.Error(w, http.StatusUnauthorized, httpx.CodeUnauthorized)
				return
			}

			principal, err := g.users.FindPrincipal(r.Context(), userID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					g.record(r, security.EventDenyUnauthorized, http.StatusUnauthorized, rc, nil, "unknown user")
					httpx.Error(w, http.StatusUnauthorized, httpx.CodeUnauthorized)
					return
				}
				if g.logger != nil {
					g.logger.Error("resolve principal", slog.Any("error", err))
				}
				httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal)
				return
			}

			if principal.Denied() {
				g.record(r, security.EventDenyBlocked, http.StatusForbidden, rc, &principal, "blocked or inactive")
				httpx.Error(w, http.StatusForbidden, httpx.CodeForbidden)
				return
			}

			if req, ok := endpointRequirements[id]; ok && req.StatusDependent {
				body, err := peekJSONBody(r)
				if err != nil {
					httpx.Error(w, http.StatusBadRequest, "invalid_json")
					return
				}
				rc.Body = body
			}

			switch g.engine.Decide(principal, rc) {
			case DecisionAllow:
				next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
			case DecisionBadRequest:
				httpx.Error(w, http.StatusBadRequest, "invalid_status")
			default:
				g.record(r, security.EventDenyForbidden, http.StatusForbidden, rc, &principal, "group="+rc.Group)
				httpx.Error(w, http.StatusForbidden, httpx.CodeForbidden)
			}
		})
	}
}

func (g *Gate) sessionUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.Get(shared.SessionKeyUserID))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if g.logger != nil {
			g.logger.Error("parse session user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}

func (g *Gate) record(r *http.Request, kind security.EventKind, status int, rc RequestContext, p *Principal, details string) {
	if g.denials != nil {
		g.denials.CountDenial(string(kind))
	}
	if g.events == nil {
		return
	}
	ev := security.Event{
		Kind:       kind,
		StatusCode: status,
		Endpoint:   string(rc.Endpoint),
		Group:      rc.Group,
		Method:     rc.Method,
		Path:       rc.Path,
		IP:         rc.SourceIP,
		Details:    details,
	}
	if p != nil {
		id := p.ID
		ev.UserID = &id
		ev.Role = string(p.Role)
	} else if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if raw := sess.Get(shared.SessionKeyUserID); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				ev.UserID = &id
			}
		}
		ev.Role = sess.Get(shared.SessionKeyRole)
	}
	// Best-effort by contract: the write error never reaches the caller.
	_ = g.events.Record(r.Context(), ev)
}

// peekJSONBody reads and restores the request body so the handler can decode
// it again after the gate has made its decision.
func peekJSONBody(r *http.Request) (map[string]any, error) {
	if r.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}
