package handlers

import (
	"net/http"
	"strings"

	"github.com/otcheredev/hms-web/internal/models"
	"github.com/otcheredev/hms-web/internal/navigation"
	"github.com/otcheredev/hms-web/internal/session"
	"github.com/otcheredev/hms-web/internal/web"
	"github.com/rs/zerolog/log"
)

// genericFailure is shown when a backend call fails for a reason the user cannot fix
const genericFailure = "Something went wrong. Please try again."

// Screen carries what every HTML handler needs to answer a request
type Screen struct {
	views  *web.Renderer
	cookie session.Cookie
}

// NewScreen creates the shared screen helpers
func NewScreen(views *web.Renderer, cookie session.Cookie) *Screen {
	return &Screen{views: views, cookie: cookie}
}

// render writes page, unless a backend rejected the session during the
// request, in which case the browser is sent to the login screen
func (s *Screen) render(w http.ResponseWriter, r *http.Request, status int, page string, p *web.Page) {
	if s.expired(w, r) {
		return
	}
	if r.Context().Err() != nil {
		return
	}

	if sess, ok := session.FromContext(r.Context()); ok {
		p.Session = sess
		p.Nav = navigation.For(sess.Role)
	}
	p.Path = r.URL.Path

	if err := s.views.Render(w, status, page, p); err != nil {
		log.Error().Err(err).Str("page", page).Msg("Failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// redirect answers a form post with a 303, honouring session teardown
func (s *Screen) redirect(w http.ResponseWriter, r *http.Request, to string) {
	if s.expired(w, r) {
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (s *Screen) expired(w http.ResponseWriter, r *http.Request) bool {
	if !session.Expired(r.Context()) {
		return false
	}
	s.cookie.Clear(w)
	http.Redirect(w, r, navigation.PathLogin, http.StatusSeeOther)
	return true
}

// Loading is the neutral placeholder served while the session cannot be read
func (s *Screen) Loading(w http.ResponseWriter, r *http.Request) {
	if err := s.views.Render(w, http.StatusServiceUnavailable, "loading", &web.Page{Title: "Loading"}); err != nil {
		log.Error().Err(err).Msg("Failed to render loading page")
	}
}

// NotFound sends unknown paths to the dashboard
func (s *Screen) NotFound(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, navigation.PathDashboard, http.StatusSeeOther)
}

// actor returns the user the request acts for; routes behind the gate always
// have one. It stays set if a backend rejects the session mid-request.
func actor(r *http.Request) *models.Session {
	st, _ := session.StateFrom(r.Context())
	if st == nil {
		return nil
	}
	return st.Session
}

// safeReturn keeps post-action redirects on this site
func safeReturn(target, fallback string) string {
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\") {
		return target
	}
	return fallback
}

// failedNotice names the lists that could not be loaded
func failedNotice(failed []string) string {
	if len(failed) == 0 {
		return ""
	}
	return "Some data could not be loaded: " + strings.Join(failed, ", ") + "."
}

// option is a select choice
type option struct {
	Value    string
	Label    string
	Selected bool
}

func tenantOptions(hospitals []models.Hospital, selected string) []option {
	opts := make([]option, 0, len(hospitals))
	for _, h := range hospitals {
		opts = append(opts, option{Value: h.CID, Label: h.Name + " (" + h.CID + ")", Selected: h.CID == selected})
	}
	return opts
}
