package navigation

import "github.com/otcheredev/hms-web/internal/models"

// State is the outcome of evaluating a protected route
type State uint8

const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthorized
	StateForbidden
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthorized:
		return "authorized"
	case StateForbidden:
		return "forbidden"
	}
	return "unknown"
}

// Decision is what the gate does with a request
type Decision struct {
	State    State
	Redirect string
}

// Evaluate decides access to a route. loaded is false while the session
// cannot be read; s is nil when there is no session.
func Evaluate(loaded bool, s *models.Session, required models.RoleSet) Decision {
	switch {
	case !loaded:
		return Decision{State: StateLoading}
	case s == nil:
		return Decision{State: StateUnauthenticated, Redirect: PathLogin}
	case required.Declared() && !required.Has(s.Role):
		return Decision{State: StateForbidden, Redirect: PathDashboard}
	}
	return Decision{State: StateAuthorized}
}
