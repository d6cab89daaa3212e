// Package access implements the request-scoped authorization pipeline: the
// permission table, the legacy rule fallback, the access decision engine and
// the request gate that fronts every route.
package access

import "context"

// Role is the closed set of account roles.
type Role string

const (
	RoleReader    Role = "reader"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleReader, RoleModerator, RoleAdmin:
		return Role(raw), true
	}
	return "", false
}

// Principal is the authenticated actor attached to a request. It is built
// per-request from session state plus the user record and discarded when the
// request ends.
type Principal struct {
	ID        int64
	Role      Role
	IsActive  bool
	IsBlocked bool
}

// Denied reports whether the principal must be rejected on every non-public
// endpoint regardless of role or permission table contents.
func (p Principal) Denied() bool {
	return p.IsBlocked || !p.IsActive
}

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal for handler use.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal resolved by the gate.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
