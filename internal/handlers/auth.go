package handlers

import (
	"errors"
	"net/http"

	"github.com/otcheredev/hms-web/internal/models"
	"github.com/otcheredev/hms-web/internal/navigation"
	"github.com/otcheredev/hms-web/internal/session"
	"github.com/otcheredev/hms-web/internal/web"
	"github.com/rs/zerolog/log"
)

// AuthHandler serves login, logout and theme switching
type AuthHandler struct {
	*Screen
	sessions *session.Controller
}

func NewAuthHandler(screen *Screen, sessions *session.Controller) *AuthHandler {
	return &AuthHandler{Screen: screen, sessions: sessions}
}

// LoginPage shows the login form, or the dashboard when already signed in
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, navigation.PathDashboard, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", &web.Page{Title: "Login"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")

	// a new login replaces whatever session the browser had
	if st, ok := session.StateFrom(r.Context()); ok && st.Session != nil {
		h.sessions.Logout(r.Context(), st.ID)
	}
	anon := session.NewContext(r.Context(), &session.State{Loaded: true})

	id, _, err := h.sessions.Login(anon, username, r.PostForm.Get("password"))
	if err != nil {
		message := session.LoginFailedMessage
		var loginErr *session.LoginError
		if errors.As(err, &loginErr) {
			message = loginErr.Message
		}
		h.cookie.Clear(w)
		h.render(w, r.WithContext(anon), http.StatusOK, "login", &web.Page{
			Title: "Login",
			Error: message,
			Data:  username,
		})
		return
	}

	h.cookie.Set(w, id)
	http.Redirect(w, r, navigation.PathDashboard, http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if st, ok := session.StateFrom(r.Context()); ok {
		h.sessions.Logout(r.Context(), st.ID)
	}
	h.cookie.Clear(w)
	http.Redirect(w, r, navigation.PathLogin, http.StatusSeeOther)
}

// Theme applies a theme and returns to the screen it was picked on
func (h *AuthHandler) Theme(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	st, _ := session.StateFrom(r.Context())

	theme := models.Theme(r.PostForm.Get("theme"))
	if _, err := h.sessions.ChangeTheme(r.Context(), st.ID, theme); err != nil {
		log.Warn().Err(err).Str("theme", string(theme)).Msg("Failed to change theme")
	}
	h.redirect(w, r, safeReturn(r.PostForm.Get("return"), navigation.PathDashboard))
}
