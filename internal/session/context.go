package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/otcheredev/hms-web/internal/models"
)

type contextKey string

const stateKey contextKey = "session_state"

// State is the per-request view of the browser's session
type State struct {
	ID      string
	Session *models.Session
	// Loaded is false when the store could not be read for this request
	Loaded bool

	expired  atomic.Bool
	clearOne sync.Once
}

// NewContext attaches the request's session state to ctx
func NewContext(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, stateKey, st)
}

// StateFrom returns the request's session state, if any
func StateFrom(ctx context.Context) (*State, bool) {
	st, ok := ctx.Value(stateKey).(*State)
	return st, ok && st != nil
}

// FromContext returns the live session for the request. A session torn down
// during the request is no longer returned.
func FromContext(ctx context.Context) (*models.Session, bool) {
	st, ok := StateFrom(ctx)
	if !ok || st.Session == nil || st.expired.Load() {
		return nil, false
	}
	return st.Session, true
}

// Loaded reports whether the session store was read for this request
func Loaded(ctx context.Context) bool {
	st, ok := StateFrom(ctx)
	return ok && st.Loaded
}

// TokenFromContext returns the bearer token of the request's session, or ""
func TokenFromContext(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.Token
	}
	return ""
}

// Expired reports whether the session was torn down during this request,
// in which case the response must navigate to the login screen
func Expired(ctx context.Context) bool {
	st, ok := StateFrom(ctx)
	return ok && st.expired.Load()
}

// WithSession builds a standalone context carrying s, for work that outlives the request
func WithSession(ctx context.Context, id string, s *models.Session) context.Context {
	return NewContext(ctx, &State{ID: id, Session: s, Loaded: true})
}
