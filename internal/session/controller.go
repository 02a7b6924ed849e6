package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/otcheredev/hms-web/internal/gateway"
	"github.com/otcheredev/hms-web/internal/metrics"
	"github.com/otcheredev/hms-web/internal/models"
	"github.com/rs/zerolog/log"
)

// LoginFailedMessage is shown when the backend gives no reason for a failed login
const LoginFailedMessage = "Login failed. Please try again."

var (
	// ErrInvalidCredentials is matched by every failed login
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownTheme is returned for theme names outside the fixed set
	ErrUnknownTheme = errors.New("unknown theme")
)

// LoginError carries the message to show on the login screen
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string {
	return e.Message
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

// Authenticator is the part of the auth backend the controller depends on
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.Session, error)
	UpdateTheme(ctx context.Context, theme models.Theme) error
}

// EventKind identifies a session transition
type EventKind string

const (
	EventLogin        EventKind = "login"
	EventLogout       EventKind = "logout"
	EventThemeChanged EventKind = "theme_changed"
	EventExpired      EventKind = "expired"
)

// Event is published to subscribers after every session transition
type Event struct {
	Kind      EventKind
	SessionID string
	Session   *models.Session
	At        time.Time
}

// Listener receives session events. It runs on the caller's goroutine and must not block.
type Listener func(ctx context.Context, ev Event)

// Controller owns the session lifecycle and is the only writer of the Store
type Controller struct {
	store        Store
	auth         Authenticator
	ttl          time.Duration
	themeTimeout time.Duration

	mu        sync.RWMutex
	listeners []Listener

	wg sync.WaitGroup
}

// NewController creates a session controller. ttl bounds how long a session is kept.
func NewController(store Store, auth Authenticator, ttl time.Duration) *Controller {
	return &Controller{
		store:        store,
		auth:         auth,
		ttl:          ttl,
		themeTimeout: 10 * time.Second,
	}
}

// Subscribe registers a listener for session events
func (c *Controller) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

func (c *Controller) publish(ctx context.Context, kind EventKind, id string, s *models.Session) {
	c.mu.RLock()
	listeners := c.listeners
	c.mu.RUnlock()

	ev := Event{Kind: kind, SessionID: id, Session: s, At: time.Now()}
	for _, l := range listeners {
		l(ctx, ev)
	}
}

// Login authenticates against the auth backend and stores the resulting
// session under a fresh id. Every failure is a *LoginError.
func (c *Controller) Login(ctx context.Context, username, password string) (string, *models.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		metrics.ObserveLogin("rejected")
		return "", nil, &LoginError{
			Message: "Username and password are required.",
			Err:     ErrInvalidCredentials,
		}
	}

	sess, err := c.auth.Login(ctx, username, password)
	if err != nil {
		metrics.ObserveLogin("rejected")
		log.Info().Err(err).Str("username", username).Msg("Login rejected")
		return "", nil, &LoginError{
			Message: gateway.BackendMessage(err, LoginFailedMessage),
			Err:     fmt.Errorf("%w: %w", ErrInvalidCredentials, err),
		}
	}

	applyTokenClaims(sess)
	if sess.Username == "" {
		sess.Username = username
	}
	if err := sess.Validate(); err != nil {
		metrics.ObserveLogin("rejected")
		log.Warn().Err(err).Str("username", username).Msg("Login returned an unusable session")
		return "", nil, &LoginError{
			Message: LoginFailedMessage,
			Err:     fmt.Errorf("%w: %w", ErrInvalidCredentials, err),
		}
	}

	id := NewID()
	if err := c.store.Save(ctx, id, sess, c.lifetime(sess)); err != nil {
		metrics.ObserveLogin("error")
		return "", nil, &LoginError{Message: LoginFailedMessage, Err: err}
	}

	metrics.ObserveLogin("success")
	log.Info().Str("username", sess.Username).Str("role", sess.Role.String()).Str("cid", sess.CID).Msg("User logged in")
	c.publish(ctx, EventLogin, id, sess)
	return id, sess, nil
}

// applyTokenClaims fills the user id and expiry from the bearer token when it is a JWT
func applyTokenClaims(s *models.Session) {
	var claims models.TokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return
	}
	if s.UserID == "" {
		s.UserID = claims.UserID
	}
	if s.UserID == "" {
		s.UserID = claims.Subject
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
}

func (c *Controller) lifetime(s *models.Session) time.Duration {
	remaining := s.Remaining(c.ttl)
	switch {
	case remaining > c.ttl:
		return c.ttl
	case remaining <= 0:
		// a zero ttl would keep the entry forever
		return time.Second
	}
	return remaining
}

// Logout clears the session stored under id. It always succeeds from the caller's view.
func (c *Controller) Logout(ctx context.Context, id string) {
	if id == "" {
		return
	}
	s, _ := FromContext(ctx)
	if err := c.store.Clear(ctx, id); err != nil {
		log.Warn().Err(err).Msg("Failed to clear session on logout")
	}
	c.publish(ctx, EventLogout, id, s)
}

// ChangeTheme applies theme to the request's session right away and informs
// the backend in the background. A backend failure does not roll back.
func (c *Controller) ChangeTheme(ctx context.Context, id string, theme models.Theme) (*models.Session, error) {
	if !theme.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}
	current, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}

	updated := *current
	updated.Theme = theme
	if err := c.store.Save(ctx, id, &updated, c.lifetime(&updated)); err != nil {
		return nil, fmt.Errorf("failed to save theme: %w", err)
	}
	if st, ok := StateFrom(ctx); ok {
		st.Session = &updated
	}
	c.publish(ctx, EventThemeChanged, id, &updated)

	bg := WithSession(context.WithoutCancel(ctx), id, &updated)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		bctx, cancel := context.WithTimeout(bg, c.themeTimeout)
		defer cancel()
		if err := c.auth.UpdateTheme(bctx, theme); err != nil {
			log.Warn().Err(err).Str("theme", string(theme)).Msg("Failed to persist theme on backend")
		}
	}()

	return &updated, nil
}

// Expire tears down the request's session after a backend rejected its token.
// Only the first call per request clears the store.
func (c *Controller) Expire(ctx context.Context) {
	st, ok := StateFrom(ctx)
	if !ok || st.Session == nil {
		return
	}
	st.expired.Store(true)
	st.clearOne.Do(func() {
		cctx := context.WithoutCancel(ctx)
		if err := c.store.Clear(cctx, st.ID); err != nil {
			log.Warn().Err(err).Msg("Failed to clear expired session")
		}
		log.Info().Str("username", st.Session.Username).Msg("Session expired")
		c.publish(cctx, EventExpired, st.ID, st.Session)
	})
}

// Wait blocks until background backend calls have finished
func (c *Controller) Wait() {
	c.wg.Wait()
}
