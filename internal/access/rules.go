package access

// Rule is a coarse, role-based fallback evaluated only when the endpoint has
// no registered capability requirement. Rules are checked in declared order
// and the first match wins.
type Rule struct {
	// Group restricts the rule to one route group; empty matches any.
	Group string
	// Methods is the matched HTTP method set; "*" matches any method.
	Methods map[string]struct{}
	// Roles allowed through by this rule.
	Roles map[Role]struct{}
}

// Matches reports whether the rule applies to the group/method pair.
func (r Rule) Matches(group, method string) bool {
	if r.Group != "" && r.Group != group {
		return false
	}
	if _, any := r.Methods["*"]; any {
		return true
	}
	_, ok := r.Methods[method]
	return ok
}

// Allows reports whether the role is in the rule's allowed set. An empty role
// never matches.
func (r Rule) Allows(role Role) bool {
	if role == "" {
		return false
	}
	_, ok := r.Roles[role]
	return ok
}

func methods(list ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, m := range list {
		set[m] = struct{}{}
	}
	return set
}

func roles(list ...Role) map[Role]struct{} {
	set := make(map[Role]struct{}, len(list))
	for _, r := range list {
		set[r] = struct{}{}
	}
	return set
}

// DefaultRules is the process-wide fallback rule list. Any authenticated
// role may use the catalogue and request endpoints; moderators may read the
// admin listings that carry no fine-grained capability.
func DefaultRules() []Rule {
	return []Rule{
		{Group: "books", Methods: methods("*"), Roles: roles(RoleReader, RoleModerator, RoleAdmin)},
		{Group: "requests", Methods: methods("*"), Roles: roles(RoleReader, RoleModerator, RoleAdmin)},
		{Group: "admin", Methods: methods("GET"), Roles: roles(RoleAdmin, RoleModerator)},
	}
}
