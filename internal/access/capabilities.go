package access

import (
	"github.com/libroteca/libroteca/internal/shared"
)

// Capability names. A capability is a fine-grained permission string checked
// against the acting principal's role.
const (
	CapUsersRead               = "users:read"
	CapUsersUpdateRole         = "users:update_role"
	CapUsersUpdateStatus       = "users:update_status"
	CapUsersUpdateBlock        = "users:update_block"
	CapBooksUpdateAvailability = "books:update_availability"
	CapRequestsAccept          = "requests:accept"
	CapRequestsReject          = "requests:reject"
	CapAuditRead               = "audit:read"

	// CapWildcard grants every capability. Only the admin role carries it.
	CapWildcard = "*"
)

// rolePermissions maps each role to its declared capability set. The sets are
// exact: no inheritance, no transitive grants. Fixed at process start.
var rolePermissions = map[Role]map[string]struct{}{
	RoleReader: {},
	RoleModerator: {
		CapUsersRead:               {},
		CapBooksUpdateAvailability: {},
		CapRequestsReject:          {},
	},
	RoleAdmin: {
		CapWildcard: {},
	},
}

// RoleHasCapability reports whether the role's set contains the capability or
// the universal wildcard.
func RoleHasCapability(role Role, capability string) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	if _, ok := perms[CapWildcard]; ok {
		return true
	}
	_, ok = perms[capability]
	return ok
}

// Requirement describes the fine-grained capability an endpoint demands.
// StatusDependent requirements resolve the capability from the target status
// value carried in the request body.
type Requirement struct {
	Capability      string
	StatusDependent bool
}

// endpointRequirements maps endpoints to their capability requirement.
// Endpoints absent from the map fall back to the legacy rule list.
var endpointRequirements = map[EndpointID]Requirement{
	EndpointAdminUsersList:        {Capability: CapUsersRead},
	EndpointAdminUserRole:         {Capability: CapUsersUpdateRole},
	EndpointAdminUserStatus:       {Capability: CapUsersUpdateStatus},
	EndpointAdminUserBlock:        {Capability: CapUsersUpdateBlock},
	EndpointAdminBookAvailability: {Capability: CapBooksUpdateAvailability},
	EndpointAdminRequestStatus:    {StatusDependent: true},
	EndpointAdminAuditActions:     {Capability: CapAuditRead},
	EndpointAdminAuditEvents:      {Capability: CapAuditRead},
}

// Request status transitions that are admin-gateable, and the capability each
// one demands.
var statusCapabilities = map[string]string{
	"accepted": CapRequestsAccept,
	"rejected": CapRequestsReject,
}

// ErrUnsupportedStatus signals a status transition outside the gateable set.
// The gate turns it into a 400 before anything is mutated.
var ErrUnsupportedStatus = shared.Validation("invalid_status")

// RequiredCapability resolves the capability an endpoint demands for the
// given request body. It returns ok=false when the endpoint carries no
// fine-grained requirement.
func RequiredCapability(endpoint EndpointID, body map[string]any) (string, bool, error) {
	req, ok := endpointRequirements[endpoint]
	if !ok {
		return "", false, nil
	}
	if !req.StatusDependent {
		return req.Capability, true, nil
	}
	status, _ := body["status"].(string)
	capability, ok := statusCapabilities[status]
	if !ok {
		return "", true, ErrUnsupportedStatus
	}
	return capability, true, nil
}
