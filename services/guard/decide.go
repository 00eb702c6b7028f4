package guard

// Action is what the host should do with the guarded content
type Action int

const (
	// ActionRender shows the guarded content unchanged
	ActionRender Action = iota
	// ActionLoading shows a loading indicator in place of the content
	ActionLoading
	// ActionRedirect replaces the current route with Decision.Target
	ActionRedirect
)

// String returns the action name used in logs and API responses
func (a Action) String() string {
	switch a {
	case ActionRender:
		return "render"
	case ActionLoading:
		return "loading"
	case ActionRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// MarshalText encodes the action by name
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Decision is the outcome of one evaluation
type Decision struct {
	Action Action `json:"action"`
	Target string `json:"target,omitempty"`
}

// Redirects reports whether the decision navigates away
func (d Decision) Redirects() bool {
	return d.Action == ActionRedirect
}

// Decide applies the routing policy to the observed state and the active
// route group. Rules are checked in order; the first match wins.
//
//  1. loading: no redirect, show a loading indicator
//  2. not signed in on the protected group: redirect to the login path
//  3. signed in outside the protected group and not exempt: redirect to
//     the protected default path
//  4. otherwise render
func Decide(policy Policy, state AuthState, group string) Decision {
	switch {
	case state.IsLoading():
		return Decision{Action: ActionLoading}
	case !state.IsAuthenticated() && policy.IsProtected(group):
		return Decision{Action: ActionRedirect, Target: policy.LoginPath}
	case state.IsAuthenticated() && !policy.IsProtected(group) && !policy.IsExempt(group):
		return Decision{Action: ActionRedirect, Target: policy.ProtectedDefaultPath}
	default:
		return Decision{Action: ActionRender}
	}
}
