package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/otcheredev/hms-web/internal/gateway"
	"github.com/otcheredev/hms-web/internal/middleware"
	"github.com/otcheredev/hms-web/internal/models"
	"github.com/otcheredev/hms-web/internal/navigation"
	"github.com/otcheredev/hms-web/internal/services"
	"github.com/otcheredev/hms-web/internal/web"
	"github.com/rs/zerolog/log"
)

// UserHandler serves the user management screen
type UserHandler struct {
	*Screen
	clients *gateway.ClientSet
	audit   *services.AuditRecorder
}

func NewUserHandler(screen *Screen, clients *gateway.ClientSet, audit *services.AuditRecorder) *UserHandler {
	return &UserHandler{Screen: screen, clients: clients, audit: audit}
}

type userForm struct {
	Username string
	FullName string
	Error    string
	Roles    []option
	Tenants  []option
}

type usersView struct {
	Query   string
	Users   []models.User
	Filters []option
	Form    *userForm
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	var form *models.RegisterRequest
	if r.URL.Query().Get("new") != "" {
		form = &models.RegisterRequest{}
	}
	h.page(w, r, http.StatusOK, form, "")
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	me := actor(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	req := &models.RegisterRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		FullName: r.PostForm.Get("fullName"),
		Role:     r.PostForm.Get("role"),
		CID:      r.PostForm.Get("cid"),
	}

	if err := services.PrepareRegistration(me, req); err != nil {
		message := "Please fill in every field."
		if errors.Is(err, services.ErrRoleNotAllowed) {
			message = "You cannot create users with that role."
		}
		h.page(w, r, http.StatusUnprocessableEntity, req, message)
		return
	}

	err := h.clients.Auth.Register(r.Context(), req)
	h.audit.Record(r.Context(), me, models.ActionCreate, "user", req.Username, err)
	if err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("Failed to register user")
		h.page(w, r, http.StatusUnprocessableEntity, req, gateway.UserMessage(err, genericFailure))
		return
	}
	h.redirect(w, r, navigation.PathUsers)
}

// Toggle enables or disables an account
func (h *UserHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	me := actor(r)
	id := services.ParseID(chi.URLParam(r, "id"))

	err := h.clients.Auth.ToggleStatus(r.Context(), id)
	h.audit.RecordID(r.Context(), me, models.ActionToggleUser, "user", id, err)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Failed to toggle user status")
		h.page(w, r, http.StatusOK, nil, gateway.UserMessage(err, "Could not change the user's status."))
		return
	}
	h.redirect(w, r, navigation.PathUsers)
}

func (h *UserHandler) page(w http.ResponseWriter, r *http.Request, status int, req *models.RegisterRequest, message string) {
	if h.expired(w, r) {
		return
	}
	me := actor(r)
	cid, _ := middleware.GetTenantID(r.Context())

	users := []models.User{}
	hospitals := []models.Hospital{}
	fetches := []services.Fetch{
		services.Into("users", &users, func(ctx context.Context) ([]models.User, error) {
			return h.clients.Auth.Users(ctx, cid)
		}),
	}
	if me.IsSuperAdmin() {
		fetches = append(fetches, services.Into("hospitals", &hospitals, func(ctx context.Context) ([]models.Hospital, error) {
			return h.clients.Hospital.Hospitals.List(ctx, "")
		}))
	}
	result, _ := services.LoadAll(r.Context(), fetches...)

	query := r.URL.Query().Get("q")
	view := &usersView{Query: query}
	for _, u := range services.Filter(users, query, func(u models.User) string { return u.Username + " " + u.FullName }) {
		if services.CanAccess(me, u.CID) {
			view.Users = append(view.Users, u)
		}
	}
	if me.IsSuperAdmin() {
		view.Filters = tenantOptions(hospitals, cid)
	}

	pageErr := ""
	if req != nil {
		view.Form = &userForm{
			Username: req.Username,
			FullName: req.FullName,
			Error:    message,
			Roles:    roleOptions(me.Role, req.Role),
		}
		if me.IsSuperAdmin() {
			view.Form.Tenants = append(
				[]option{{Value: models.SystemTenant, Label: "System", Selected: req.CID == models.SystemTenant}},
				tenantOptions(hospitals, req.CID)...,
			)
		}
	} else {
		pageErr = message
	}

	h.render(w, r, status, "users", &web.Page{
		Title:  "User Management",
		Notice: failedNotice(result.Failed),
		Error:  pageErr,
		Data:   view,
	})
}

func roleOptions(actor models.Role, selected string) []option {
	roles := services.RoleOptions(actor)
	opts := make([]option, 0, len(roles))
	for _, role := range roles {
		opts = append(opts, option{Value: role.String(), Label: role.String(), Selected: role.String() == selected})
	}
	return opts
}
