package middleware

import (
	"net/http"

	"github.com/otcheredev/hms-web/internal/metrics"
	"github.com/otcheredev/hms-web/internal/models"
	"github.com/otcheredev/hms-web/internal/navigation"
	"github.com/otcheredev/hms-web/internal/session"
)

// Gate admits requests whose session satisfies required. Rejected requests
// are redirected; while the session cannot be read, loading is served instead.
func Gate(required models.RoleSet, loading http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, _ := session.FromContext(r.Context())
			d := navigation.Evaluate(session.Loaded(r.Context()), s, required)
			metrics.ObserveGateDecision(d.State.String())

			switch d.State {
			case navigation.StateAuthorized:
				next.ServeHTTP(w, r)
			case navigation.StateLoading:
				w.Header().Set("Retry-After", "2")
				loading.ServeHTTP(w, r)
			default:
				http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			}
		})
	}
}

// RequireSession rejects JSON requests without a live session
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.Loaded(r.Context()) {
			w.Header().Set("Retry-After", "2")
			http.Error(w, "Session store unavailable", http.StatusServiceUnavailable)
			return
		}
		if _, ok := session.FromContext(r.Context()); !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
