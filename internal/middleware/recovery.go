package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/otcheredev/hms-web/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Recovery turns a handler panic into a 500 for the browser and an error
// log line carrying the request id and route. Aborted responses keep
// unwinding so net/http can drop the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww, ok := w.(chimiddleware.WrapResponseWriter)
		if !ok {
			ww = chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		}

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			metrics.ObservePanic()
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			log.Error().
				Str("panic", fmt.Sprint(rec)).
				Str("method", r.Method).
				Str("route", route).
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from handler panic")

			// a half-written page cannot be replaced
			if ww.Status() != 0 {
				return
			}
			http.Error(ww, "Internal Server Error", http.StatusInternalServerError)
		}()

		next.ServeHTTP(ww, r)
	})
}
