package access

import (
	"strings"
	"time"
)

// EndpointID identifies one routed operation. The prefix before the first dot
// is the endpoint's route group.
type EndpointID string

const (
	EndpointHealth EndpointID = "system.health"
	EndpointIndex  EndpointID = "system.index"
	EndpointRoutes EndpointID = "system.routes"
	EndpointStatic EndpointID = "ui.static"

	EndpointAuthRegister EndpointID = "auth.register"
	EndpointAuthLogin    EndpointID = "auth.login"
	EndpointAuthLogout   EndpointID = "auth.logout"
	EndpointAuthMe       EndpointID = "auth.me"

	EndpointBooksCreate EndpointID = "books.create"
	EndpointBooksList   EndpointID = "books.list"
	EndpointBooksGet    EndpointID = "books.get"

	EndpointRequestsCreate EndpointID = "requests.create"
	EndpointRequestsMine   EndpointID = "requests.mine"

	EndpointAdminUsersList        EndpointID = "admin.users.list"
	EndpointAdminUserRole         EndpointID = "admin.users.update_role"
	EndpointAdminUserStatus       EndpointID = "admin.users.update_status"
	EndpointAdminUserBlock        EndpointID = "admin.users.update_block"
	EndpointAdminBooksList        EndpointID = "admin.books.list"
	EndpointAdminBookAvailability EndpointID = "admin.books.update_availability"
	EndpointAdminRequestsList     EndpointID = "admin.requests.list"
	EndpointAdminRequestStatus    EndpointID = "admin.requests.update_status"
	EndpointAdminStats            EndpointID = "admin.stats"
	EndpointAdminAuditActions     EndpointID = "admin.audit.actions"
	EndpointAdminAuditEvents      EndpointID = "admin.audit.events"
)

// Group returns the endpoint's route group.
func (e EndpointID) Group() string {
	if i := strings.IndexByte(string(e), '.'); i > 0 {
		return string(e[:i])
	}
	return string(e)
}

// Route groups that bypass the access pipeline entirely: health/index/route
// listing, static assets and the public UI, and the whole authentication
// group. Auth endpoints remain subject to rate limiting, which is orthogonal
// to public access.
var publicGroups = map[string]struct{}{
	"system": {},
	"ui":     {},
	"auth":   {},
}

// IsPublic reports whether the endpoint is on the fixed public allow-list.
func IsPublic(e EndpointID) bool {
	_, ok := publicGroups[e.Group()]
	return ok
}

// RateWindow is the shared window for auth-group throttling.
const RateWindow = 60 * time.Second

// AuthRateLimit returns the per-endpoint hit budget for auth operations.
func AuthRateLimit(e EndpointID) (limit int, window time.Duration) {
	switch e {
	case EndpointAuthLogin:
		return 10, RateWindow
	case EndpointAuthRegister:
		return 6, RateWindow
	default:
		return 20, RateWindow
	}
}
