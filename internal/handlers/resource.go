package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/otcheredev/hms-web/internal/gateway"
	"github.com/otcheredev/hms-web/internal/middleware"
	"github.com/otcheredev/hms-web/internal/models"
	"github.com/otcheredev/hms-web/internal/services"
	"github.com/otcheredev/hms-web/internal/web"
	"github.com/rs/zerolog/log"
)

// Column is one list column of a resource screen
type Column[T any] struct {
	Header string
	Text   func(T) string
	Class  func(T) string
}

// Field is one form input of a resource screen
type Field struct {
	Name           string
	Label          string
	Type           string // text, number, date, textarea
	Required       bool
	ReadOnlyOnEdit bool
}

// ResourceDef describes a CRUD screen over one backend collection
type ResourceDef[T any] struct {
	Name     string // audit resource type
	Singular string
	Title    string
	Path     string

	Items   gateway.Collection[T]
	Columns []Column[T]
	Fields  []Field

	Search func(T) string
	ID     func(T) int64
	CID    func(T) string
	SetCID func(*T, string)
	Values func(T) map[string]string
	Bind   func(url.Values, *T)

	// Tenanted records are written into the actor's tenant (or the one a
	// SUPER_ADMIN picks); otherwise the cid is a form field fixed on create
	Tenanted bool

	CreateRoles models.RoleSet
	DeleteRoles models.RoleSet
}

// ResourceHandler serves list, form, and delete for a ResourceDef
type ResourceHandler[T any] struct {
	*Screen
	def       ResourceDef[T]
	hospitals gateway.Collection[models.Hospital]
	audit     *services.AuditRecorder
}

func NewResourceHandler[T any](screen *Screen, def ResourceDef[T], clients *gateway.ClientSet, audit *services.AuditRecorder) *ResourceHandler[T] {
	return &ResourceHandler[T]{
		Screen:    screen,
		def:       def,
		hospitals: clients.Hospital.Hospitals,
		audit:     audit,
	}
}

type cell struct {
	Text  string
	Class string
}

type row struct {
	ID    int64
	Cells []cell
}

type formField struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Options  []option
	Required bool
	ReadOnly bool
}

type formView struct {
	ID     int64
	Action string
	Error  string
	Fields []formField
}

type crudView struct {
	Title     string
	Singular  string
	Path      string
	Query     string
	Columns   []string
	Rows      []row
	Tenants   []option
	Form      *formView
	CanCreate bool
	CanDelete bool
}

// formState is what the form shows when it is open
type formState struct {
	id     int64
	values map[string]string
	err    string
}

func allows(set models.RoleSet, role models.Role) bool {
	return !set.Declared() || set.Has(role)
}

func (h *ResourceHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("new") != "" && allows(h.def.CreateRoles, actor(r).Role):
		h.page(w, r, http.StatusOK, &formState{values: map[string]string{}})
	case q.Get("edit") != "":
		h.editPage(w, r, services.ParseID(q.Get("edit")))
	default:
		h.page(w, r, http.StatusOK, nil)
	}
}

func (h *ResourceHandler[T]) editPage(w http.ResponseWriter, r *http.Request, id int64) {
	item, err := h.load(r.Context(), actor(r), id)
	if err != nil {
		log.Warn().Err(err).Str("resource", h.def.Name).Int64("id", id).Msg("Failed to open edit form")
		h.pageWithError(w, r, gateway.UserMessage(err, fmt.Sprintf("Could not load %s.", h.def.Singular)))
		return
	}
	h.page(w, r, http.StatusOK, &formState{id: id, values: h.def.Values(*item)})
}

// load fetches one record and hides records of other tenants
func (h *ResourceHandler[T]) load(ctx context.Context, me *models.Session, id int64) (*T, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid %s id", h.def.Name)
	}
	item, err := h.def.Items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !services.CanAccess(me, h.def.CID(*item)) {
		return nil, fmt.Errorf("%s %d belongs to another tenant", h.def.Name, id)
	}
	return item, nil
}

func (h *ResourceHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	me := actor(r)
	if !allows(h.def.CreateRoles, me.Role) {
		h.redirect(w, r, h.def.Path)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var item T
	h.def.Bind(r.PostForm, &item)
	if h.def.Tenanted {
		h.def.SetCID(&item, services.ResolveTenant(me, r.PostForm.Get("cid")))
	}

	err := h.def.Items.Create(r.Context(), &item)
	h.audit.Record(r.Context(), me, models.ActionCreate, h.def.Name, "", err)
	if err != nil {
		h.failed(w, r, 0, err)
		return
	}
	h.redirect(w, r, h.def.Path)
}

func (h *ResourceHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	me := actor(r)
	id := services.ParseID(chi.URLParam(r, "id"))
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	existing, err := h.load(r.Context(), me, id)
	if err != nil {
		h.failed(w, r, id, err)
		return
	}

	item := *existing
	h.def.Bind(r.PostForm, &item)
	switch {
	case h.def.Tenanted:
		h.def.SetCID(&item, services.ResolveTenant(me, r.PostForm.Get("cid")))
	default:
		h.def.SetCID(&item, h.def.CID(*existing))
	}

	err = h.def.Items.Update(r.Context(), id, &item)
	h.audit.RecordID(r.Context(), me, models.ActionUpdate, h.def.Name, id, err)
	if err != nil {
		h.failed(w, r, id, err)
		return
	}
	h.redirect(w, r, h.def.Path)
}

// failed re-opens the form with what the user entered and the reason
func (h *ResourceHandler[T]) failed(w http.ResponseWriter, r *http.Request, id int64, err error) {
	log.Error().Err(err).Str("resource", h.def.Name).Int64("id", id).Msg("Failed to save record")
	values := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		values[k] = r.PostForm.Get(k)
	}
	h.page(w, r, http.StatusUnprocessableEntity, &formState{
		id:     id,
		values: values,
		err:    gateway.UserMessage(err, genericFailure),
	})
}

type confirmView struct {
	Singular string
	Label    string
	Action   string
	Cancel   string
}

func (h *ResourceHandler[T]) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	me := actor(r)
	if !allows(h.def.DeleteRoles, me.Role) {
		h.redirect(w, r, h.def.Path)
		return
	}
	id := services.ParseID(chi.URLParam(r, "id"))
	item, err := h.load(r.Context(), me, id)
	if err != nil {
		h.pageWithError(w, r, gateway.UserMessage(err, fmt.Sprintf("Could not load %s.", h.def.Singular)))
		return
	}

	h.render(w, r, http.StatusOK, "confirm", &web.Page{
		Title: "Delete " + h.def.Singular,
		Data: &confirmView{
			Singular: h.def.Singular,
			Label:    h.def.Search(*item),
			Action:   fmt.Sprintf("%s/%d/delete", h.def.Path, id),
			Cancel:   h.def.Path,
		},
	})
}

func (h *ResourceHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	me := actor(r)
	if !allows(h.def.DeleteRoles, me.Role) {
		h.redirect(w, r, h.def.Path)
		return
	}
	id := services.ParseID(chi.URLParam(r, "id"))
	if _, err := h.load(r.Context(), me, id); err != nil {
		h.pageWithError(w, r, gateway.UserMessage(err, fmt.Sprintf("Could not delete %s.", h.def.Singular)))
		return
	}

	err := h.def.Items.Delete(r.Context(), id)
	h.audit.RecordID(r.Context(), me, models.ActionDelete, h.def.Name, id, err)
	if err != nil {
		log.Error().Err(err).Str("resource", h.def.Name).Int64("id", id).Msg("Failed to delete record")
		h.pageWithError(w, r, gateway.UserMessage(err, fmt.Sprintf("Could not delete %s.", h.def.Singular)))
		return
	}
	h.redirect(w, r, h.def.Path)
}

func (h *ResourceHandler[T]) pageWithError(w http.ResponseWriter, r *http.Request, message string) {
	h.pageWith(w, r, http.StatusOK, nil, message)
}

func (h *ResourceHandler[T]) page(w http.ResponseWriter, r *http.Request, status int, form *formState) {
	h.pageWith(w, r, status, form, "")
}

// pageWith fetches the list (and the tenant picker for SUPER_ADMIN) in
// parallel and renders the screen; failed lists stay empty
func (h *ResourceHandler[T]) pageWith(w http.ResponseWriter, r *http.Request, status int, form *formState, message string) {
	if h.expired(w, r) {
		return
	}
	me := actor(r)
	cid, _ := middleware.GetTenantID(r.Context())

	items := []T{}
	hospitals := []models.Hospital{}
	fetches := []services.Fetch{
		services.Into(h.def.Title, &items, func(ctx context.Context) ([]T, error) {
			return h.def.Items.List(ctx, cid)
		}),
	}
	if me.IsSuperAdmin() {
		fetches = append(fetches, services.Into("hospitals", &hospitals, func(ctx context.Context) ([]models.Hospital, error) {
			return h.hospitals.List(ctx, "")
		}))
	}
	result, _ := services.LoadAll(r.Context(), fetches...)

	query := r.URL.Query().Get("q")
	view := &crudView{
		Title:     h.def.Title,
		Singular:  h.def.Singular,
		Path:      h.def.Path,
		Query:     query,
		CanCreate: allows(h.def.CreateRoles, me.Role),
		CanDelete: allows(h.def.DeleteRoles, me.Role),
	}
	if me.IsSuperAdmin() {
		view.Tenants = tenantOptions(hospitals, cid)
	}
	for _, c := range h.def.Columns {
		view.Columns = append(view.Columns, c.Header)
	}
	for _, item := range services.Filter(items, query, h.def.Search) {
		if !services.CanAccess(me, h.def.CID(item)) {
			continue
		}
		view.Rows = append(view.Rows, h.row(item))
	}
	if form != nil {
		view.Form = h.form(me, form, hospitals)
	}

	h.render(w, r, status, "crud", &web.Page{
		Title:  h.def.Title,
		Notice: failedNotice(result.Failed),
		Error:  message,
		Data:   view,
	})
}

func (h *ResourceHandler[T]) row(item T) row {
	rw := row{ID: h.def.ID(item)}
	for _, c := range h.def.Columns {
		cl := cell{Text: c.Text(item)}
		if c.Class != nil {
			cl.Class = c.Class(item)
		}
		rw.Cells = append(rw.Cells, cl)
	}
	return rw
}

func (h *ResourceHandler[T]) form(me *models.Session, st *formState, hospitals []models.Hospital) *formView {
	fv := &formView{ID: st.id, Action: h.def.Path, Error: st.err}
	if st.id > 0 {
		fv.Action = fmt.Sprintf("%s/%d", h.def.Path, st.id)
	}

	if h.def.Tenanted && me.IsSuperAdmin() {
		fv.Fields = append(fv.Fields, formField{
			Name:     "cid",
			Label:    "Hospital",
			Type:     "select",
			Required: true,
			Options:  tenantOptions(hospitals, st.values["cid"]),
		})
	}
	for _, f := range h.def.Fields {
		fv.Fields = append(fv.Fields, formField{
			Name:     f.Name,
			Label:    f.Label,
			Type:     f.Type,
			Value:    st.values[f.Name],
			Required: f.Required,
			ReadOnly: f.ReadOnlyOnEdit && st.id > 0,
		})
	}
	return fv
}
