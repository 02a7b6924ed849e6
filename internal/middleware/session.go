package middleware

import (
	"errors"
	"net"
	"net/http"

	"github.com/otcheredev/hms-web/internal/services"
	"github.com/otcheredev/hms-web/internal/session"
	"github.com/rs/zerolog/log"
)

// Sessions loads the browser's session into the request context. When the
// store cannot be read the request proceeds with an unloaded state.
func Sessions(store session.Store, cookie session.Cookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := &session.State{ID: cookie.Read(r), Loaded: true}

			if st.ID != "" {
				s, err := store.Load(r.Context(), st.ID)
				switch {
				case err == nil:
					st.Session = s
				case errors.Is(err, session.ErrNoSession):
					// stale cookie
				default:
					log.Error().Err(err).Msg("Failed to read session store")
					st.Loaded = false
				}
			}

			ctx := session.NewContext(r.Context(), st)
			ctx = services.WithClientIP(ctx, ClientAddrFrom(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
