package access

import "errors"

// Decision is the outcome of one access evaluation.
type Decision int

const (
	// DecisionAllow lets the request reach its handler.
	DecisionAllow Decision = iota
	// DecisionForbidden terminates the request with 403.
	DecisionForbidden
	// DecisionBadRequest terminates the request with 400 (unsupported
	// status transition) before anything is mutated.
	DecisionBadRequest
)

// RequestContext is the per-request view the engine evaluates. It is owned by
// the gate for the request's duration and never shared across requests.
type RequestContext struct {
	Endpoint EndpointID
	Group    string
	Method   string
	Path     string
	SourceIP string
	// Body holds the parsed JSON body, populated only for endpoints whose
	// capability requirement is status-dependent.
	Body map[string]any
}

// Engine composes the permission table and the legacy rule list into a single
// allow/deny decision. One authoritative implementation; handlers never make
// their own coarse role checks.
type Engine struct {
	rules []Rule
}

// NewEngine builds an Engine over an ordered rule list.
func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Decide evaluates the principal against the request. Blocked and inactive
// principals never reach this point; the gate filters them first.
func (e *Engine) Decide(p Principal, rc RequestContext) Decision {
	// Admin bypasses fine-grained checks entirely. Intentional hard
	// override, not an oversight.
	if p.Role == RoleAdmin {
		return DecisionAllow
	}

	capability, registered, err := RequiredCapability(rc.Endpoint, rc.Body)
	if err != nil {
		if errors.Is(err, ErrUnsupportedStatus) {
			return DecisionBadRequest
		}
		return DecisionForbidden
	}
	if registered {
		if RoleHasCapability(p.Role, capability) {
			return DecisionAllow
		}
		return DecisionForbidden
	}

	// The first rule that matches AND grants the role decides; a matching
	// rule whose role set lacks the principal is skipped, so a later rule
	// may still grant. Exhausting the list denies.
	for _, rule := range e.rules {
		if !rule.Matches(rc.Group, rc.Method) {
			continue
		}
		if rule.Allows(p.Role) {
			return DecisionAllow
		}
	}
	return DecisionForbidden
}
