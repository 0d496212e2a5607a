// Package gate decides, per navigation, whether a protected view may be
// shown given the current session status.
package gate

// State is the outcome of a gate decision.
type State int

const (
	// Loading means the session has not been determined yet.
	Loading State = iota
	// Authorized means the requested view renders unchanged.
	Authorized
	// Unauthorized means rendering is short-circuited with a redirect.
	Unauthorized
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// LoginRoute is the entry point unauthorized navigations are sent to.
const LoginRoute = "login"

// Status is the session information a decision is made from.
type Status struct {
	Loading  bool
	LoggedIn bool
}

// Decision is the result of Decide. Redirect is set only when State is
// Unauthorized. The original target is not kept.
type Decision struct {
	State    State
	Redirect string
}

// Decide is a pure function of st.
func Decide(st Status) Decision {
	switch {
	case st.Loading:
		return Decision{State: Loading}
	case st.LoggedIn:
		return Decision{State: Authorized}
	default:
		return Decision{State: Unauthorized, Redirect: LoginRoute}
	}
}

// Guard returns the route to actually show for a request to target: the
// target itself when authorized, LoginRoute when unauthorized, and "" while
// loading (the caller shows a waiting indicator).
func Guard(st Status, target string) string {
	d := Decide(st)
	switch d.State {
	case Authorized:
		return target
	case Unauthorized:
		return d.Redirect
	}
	return ""
}
