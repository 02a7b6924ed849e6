package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/otcheredev/hms-web/internal/gateway"
	"github.com/otcheredev/hms-web/internal/middleware"
	"github.com/otcheredev/hms-web/internal/models"
	"github.com/otcheredev/hms-web/internal/navigation"
	"github.com/otcheredev/hms-web/internal/services"
	"github.com/otcheredev/hms-web/internal/web"
	"github.com/rs/zerolog/log"
)

var appointmentDeleters = models.RolesOf(models.RoleAdmin, models.RoleStaff)

// Form operations posted by the appointment form
const (
	opSave           = "save"
	opAddMedicine    = "add-medicine"
	opRemoveMedicine = "remove-medicine"
)

// AppointmentHandler serves the appointment screen and its prescription sub-form
type AppointmentHandler struct {
	*Screen
	clients *gateway.ClientSet
	audit   *services.AuditRecorder
}

func NewAppointmentHandler(screen *Screen, clients *gateway.ClientSet, audit *services.AuditRecorder) *AppointmentHandler {
	return &AppointmentHandler{Screen: screen, clients: clients, audit: audit}
}

type appointmentRow struct {
	Appointment models.Appointment
	Transitions []models.AppointmentStatus
}

type appointmentForm struct {
	Appointment models.Appointment
	Action      string
	Error       string
	Doctors     []option
	Patients    []option
	Tenants     []option
	Medicines   []medicineRow
}

// medicineRow is one prescription line with its inventory choices
type medicineRow struct {
	Index    int
	Quantity int
	Dosage   string
	Options  []option
}

type appointmentsView struct {
	Query         string
	Rows          []appointmentRow
	DoctorOptions []option
	Tenants       []option
	Form          *appointmentForm
	CanCreate     bool
	CanEdit       bool
	CanDelete     bool
}

// appointmentLists are the lists the screen is built from
type appointmentLists struct {
	appointments []models.Appointment
	doctors      []models.Doctor
	patients     []models.Patient
	medicines    []models.Medicine
	hospitals    []models.Hospital
	failed       []string
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	me := actor(r)
	q := r.URL.Query()
	switch {
	case q.Get("new") != "" && services.CanCreateAppointment(me.Role):
		appt := &models.Appointment{Status: models.StatusBooked, Prescription: &models.Prescription{}}
		h.page(w, r, http.StatusOK, appt, "", "")
	case q.Get("edit") != "" && services.CanEditAppointment(me.Role):
		id := services.ParseID(q.Get("edit"))
		appt, err := h.load(r.Context(), me, id)
		if err != nil {
			log.Warn().Err(err).Int64("id", id).Msg("Failed to open appointment")
			h.page(w, r, http.StatusOK, nil, "", gateway.UserMessage(err, "Could not load appointment."))
			return
		}
		h.page(w, r, http.StatusOK, appt, "", "")
	default:
		h.page(w, r, http.StatusOK, nil, "", "")
	}
}

func (h *AppointmentHandler) load(ctx context.Context, me *models.Session, id int64) (*models.Appointment, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid appointment id")
	}
	appt, err := h.clients.Appointment.Appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !services.CanAccess(me, appt.CID) {
		return nil, fmt.Errorf("appointment %d belongs to another tenant", id)
	}
	return appt, nil
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	me := actor(r)
	if !services.CanCreateAppointment(me.Role) {
		h.redirect(w, r, navigation.PathAppointments)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	appt := &models.Appointment{Status: models.StatusBooked}
	bindAppointment(r.PostForm, appt)
	appt.CID = services.ResolveTenant(me, r.PostForm.Get("cid"))
	h.submit(w, r, appt)
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	me := actor(r)
	if !services.CanEditAppointment(me.Role) {
		h.redirect(w, r, navigation.PathAppointments)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	id := services.ParseID(chi.URLParam(r, "id"))
	existing, err := h.load(r.Context(), me, id)
	if err != nil {
		log.Warn().Err(err).Int64("id", id).Msg("Failed to load appointment for update")
		h.page(w, r, http.StatusOK, nil, "", gateway.UserMessage(err, "Could not load appointment."))
		return
	}

	appt := *existing
	bindAppointment(r.PostForm, &appt)
	h.submit(w, r, &appt)
}

// submit applies the form operation: medicine rows are edited locally and
// the form shown again; only save writes to the backend
func (h *AppointmentHandler) submit(w http.ResponseWriter, r *http.Request, appt *models.Appointment) {
	me := actor(r)
	op, index := parseOp(r.PostForm)

	switch op {
	case opAddMedicine:
		services.AddMedicineLine(appt)
		h.page(w, r, http.StatusOK, appt, "", "")
		return
	case opRemoveMedicine:
		services.RemoveMedicineLine(appt, index)
		h.page(w, r, http.StatusOK, appt, "", "")
		return
	}

	var doctors []models.Doctor
	var patients []models.Patient
	_, err := services.LoadAll(r.Context(),
		services.Into("doctors", &doctors, func(ctx context.Context) ([]models.Doctor, error) {
			return h.clients.Hospital.Doctors.List(ctx, appt.CID)
		}),
		services.Into("patients", &patients, func(ctx context.Context) ([]models.Patient, error) {
			return h.clients.Hospital.Patients.List(ctx, appt.CID)
		}),
	)
	if err == nil {
		services.ResolveNames(appt, doctors, patients)
	}
	services.NormalizePrescription(appt)

	action := models.ActionCreate
	if appt.ID > 0 {
		action = models.ActionUpdate
	}
	if err == nil {
		if appt.ID > 0 {
			err = h.clients.Appointment.Appointments.Update(r.Context(), appt.ID, appt)
		} else {
			err = h.clients.Appointment.Appointments.Create(r.Context(), appt)
		}
	}
	h.audit.RecordID(r.Context(), me, action, "appointment", appt.ID, err)

	if err != nil {
		log.Error().Err(err).Int64("id", appt.ID).Msg("Failed to save appointment")
		if appt.Prescription == nil {
			appt.Prescription = &models.Prescription{}
		}
		h.page(w, r, http.StatusUnprocessableEntity, appt, gateway.UserMessage(err, genericFailure), "")
		return
	}
	h.redirect(w, r, navigation.PathAppointments)
}

// Status moves an appointment along its lifecycle
func (h *AppointmentHandler) Status(w http.ResponseWriter, r *http.Request) {
	me := actor(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	id := services.ParseID(chi.URLParam(r, "id"))
	to := models.AppointmentStatus(r.PostForm.Get("status"))
	back := safeReturn(r.PostForm.Get("return"), navigation.PathAppointments)

	appt, err := h.load(r.Context(), me, id)
	if err != nil {
		log.Warn().Err(err).Int64("id", id).Msg("Failed to load appointment for status change")
		h.page(w, r, http.StatusOK, nil, "", gateway.UserMessage(err, "Could not load appointment."))
		return
	}
	if !services.CanTransition(me.Role, appt.Status, to) {
		h.page(w, r, http.StatusForbidden, nil, "", "That status change is not allowed.")
		return
	}

	err = h.clients.Appointment.UpdateStatus(r.Context(), id, to)
	h.audit.RecordID(r.Context(), me, models.ActionStatusChange, "appointment", id, err)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Str("status", string(to)).Msg("Failed to update appointment status")
		h.page(w, r, http.StatusOK, nil, "", gateway.UserMessage(err, "Could not update the appointment status."))
		return
	}
	h.redirect(w, r, back)
}

func (h *AppointmentHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	me := actor(r)
	if !appointmentDeleters.Has(me.Role) {
		h.redirect(w, r, navigation.PathAppointments)
		return
	}
	id := services.ParseID(chi.URLParam(r, "id"))
	appt, err := h.load(r.Context(), me, id)
	if err != nil {
		h.page(w, r, http.StatusOK, nil, "", gateway.UserMessage(err, "Could not load appointment."))
		return
	}

	h.render(w, r, http.StatusOK, "confirm", &web.Page{
		Title: "Delete Appointment",
		Data: &confirmView{
			Singular: "appointment",
			Label:    strings.TrimSpace(appt.PatientName + " " + services.DateTimeLocal(appt.DateTime)),
			Action:   fmt.Sprintf("%s/%d/delete", navigation.PathAppointments, id),
			Cancel:   navigation.PathAppointments,
		},
	})
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	me := actor(r)
	if !appointmentDeleters.Has(me.Role) {
		h.redirect(w, r, navigation.PathAppointments)
		return
	}
	id := services.ParseID(chi.URLParam(r, "id"))
	if _, err := h.load(r.Context(), me, id); err != nil {
		h.page(w, r, http.StatusOK, nil, "", gateway.UserMessage(err, "Could not delete appointment."))
		return
	}

	err := h.clients.Appointment.Appointments.Delete(r.Context(), id)
	h.audit.RecordID(r.Context(), me, models.ActionDelete, "appointment", id, err)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("Failed to delete appointment")
		h.page(w, r, http.StatusOK, nil, "", gateway.UserMessage(err, "Could not delete appointment."))
		return
	}
	h.redirect(w, r, navigation.PathAppointments)
}

func (h *AppointmentHandler) fetch(ctx context.Context, me *models.Session, cid string, doctorFilter int64) appointmentLists {
	lists := appointmentLists{
		appointments: []models.Appointment{},
		doctors:      []models.Doctor{},
		patients:     []models.Patient{},
		medicines:    []models.Medicine{},
		hospitals:    []models.Hospital{},
	}
	fetches := []services.Fetch{
		services.Into("appointments", &lists.appointments, func(ctx context.Context) ([]models.Appointment, error) {
			if doctorFilter > 0 {
				return h.clients.Appointment.ByDoctor(ctx, cid, doctorFilter)
			}
			return h.clients.Appointment.Appointments.List(ctx, cid)
		}),
		services.Into("doctors", &lists.doctors, func(ctx context.Context) ([]models.Doctor, error) {
			return h.clients.Hospital.Doctors.List(ctx, cid)
		}),
		services.Into("patients", &lists.patients, func(ctx context.Context) ([]models.Patient, error) {
			return h.clients.Hospital.Patients.List(ctx, cid)
		}),
		services.Into("medicine inventory", &lists.medicines, func(ctx context.Context) ([]models.Medicine, error) {
			return h.clients.Hospital.Medicines.List(ctx, cid)
		}),
	}
	if me.IsSuperAdmin() {
		fetches = append(fetches, services.Into("hospitals", &lists.hospitals, func(ctx context.Context) ([]models.Hospital, error) {
			return h.clients.Hospital.Hospitals.List(ctx, "")
		}))
	}
	result, _ := services.LoadAll(ctx, fetches...)
	lists.failed = result.Failed
	return lists
}

// page renders the screen; formAppt opens the form with that appointment
func (h *AppointmentHandler) page(w http.ResponseWriter, r *http.Request, status int, formAppt *models.Appointment, formErr, pageErr string) {
	if h.expired(w, r) {
		return
	}
	me := actor(r)
	cid, _ := middleware.GetTenantID(r.Context())
	doctorFilter := services.ParseID(r.URL.Query().Get("doctor"))

	lists := h.fetch(r.Context(), me, cid, doctorFilter)

	query := r.URL.Query().Get("q")
	view := &appointmentsView{
		Query:     query,
		CanCreate: services.CanCreateAppointment(me.Role),
		CanEdit:   services.CanEditAppointment(me.Role),
		CanDelete: appointmentDeleters.Has(me.Role),
	}
	for _, d := range lists.doctors {
		view.DoctorOptions = append(view.DoctorOptions, option{
			Value:    strconv.FormatInt(d.ID, 10),
			Label:    d.Name,
			Selected: d.ID == doctorFilter,
		})
	}
	if me.IsSuperAdmin() {
		view.Tenants = tenantOptions(lists.hospitals, cid)
	}

	search := func(a models.Appointment) string { return a.PatientName + " " + a.DoctorName }
	for _, a := range services.Filter(lists.appointments, query, search) {
		if !services.CanAccess(me, a.CID) {
			continue
		}
		view.Rows = append(view.Rows, appointmentRow{
			Appointment: a,
			Transitions: services.Transitions(me.Role, a.Status),
		})
	}

	if formAppt != nil {
		view.Form = h.form(me, formAppt, formErr, lists)
	}

	h.render(w, r, status, "appointments", &web.Page{
		Title:  appointmentsTitle(me.Role),
		Notice: failedNotice(lists.failed),
		Error:  pageErr,
		Data:   view,
	})
}

func (h *AppointmentHandler) form(me *models.Session, appt *models.Appointment, formErr string, lists appointmentLists) *appointmentForm {
	f := &appointmentForm{
		Appointment: *appt,
		Action:      navigation.PathAppointments,
		Error:       formErr,
	}
	if appt.Prescription != nil {
		for i, m := range appt.Prescription.Medicines {
			f.Medicines = append(f.Medicines, medicineRow{
				Index:    i,
				Quantity: m.Quantity,
				Dosage:   m.Dosage,
				Options:  inventoryOptions(lists.medicines, m.MedicineName),
			})
		}
	}
	if appt.ID > 0 {
		f.Action = fmt.Sprintf("%s/%d", navigation.PathAppointments, appt.ID)
	}
	for _, d := range lists.doctors {
		f.Doctors = append(f.Doctors, option{Value: strconv.FormatInt(d.ID, 10), Label: d.Name, Selected: d.ID == appt.DoctorID})
	}
	for _, p := range lists.patients {
		f.Patients = append(f.Patients, option{Value: strconv.FormatInt(p.ID, 10), Label: p.Name, Selected: p.ID == appt.PatientID})
	}
	if me.IsSuperAdmin() && appt.ID == 0 {
		f.Tenants = tenantOptions(lists.hospitals, appt.CID)
	}
	return f
}

// inventoryOptions offers the tenant's stock with what is left of each.
// A prescribed name no longer in stock stays selectable so editing keeps it.
func inventoryOptions(inventory []models.Medicine, selected string) []option {
	opts := make([]option, 0, len(inventory)+1)
	found := selected == ""
	for _, m := range inventory {
		match := m.MedicineName == selected
		found = found || match
		opts = append(opts, option{
			Value:    m.MedicineName,
			Label:    fmt.Sprintf("%s (%d left)", m.MedicineName, m.Quantity),
			Selected: match,
		})
	}
	if !found {
		opts = append(opts, option{Value: selected, Label: selected + " (not in stock)", Selected: true})
	}
	return opts
}

func appointmentsTitle(role models.Role) string {
	if role == models.RoleDoctor {
		return "My Appointments"
	}
	return "Appointments"
}

// bindAppointment copies the posted form onto appt, keeping its id, tenant and status
func bindAppointment(f url.Values, appt *models.Appointment) {
	appt.DoctorID = services.ParseID(f.Get("doctorId"))
	appt.PatientID = services.ParseID(f.Get("patientId"))
	appt.DateTime = formString(f, "dateTime")
	appt.Notes = formString(f, "notes")
	appt.ImageURL1 = formString(f, "imageUrl1")
	appt.ImageURL2 = formString(f, "imageUrl2")

	p := &models.Prescription{
		Diagnosis: formString(f, "diagnosis"),
		Advice:    formString(f, "advice"),
		Medicines: []models.PrescribedMedicine{},
	}
	if appt.Prescription != nil {
		p.ID = appt.Prescription.ID
		p.AppointmentID = appt.Prescription.AppointmentID
	}

	names, qtys, dosages := f["med_name"], f["med_qty"], f["med_dosage"]
	for i, name := range names {
		p.Medicines = append(p.Medicines, models.PrescribedMedicine{
			MedicineName: strings.TrimSpace(name),
			Quantity:     services.ParseIntOrZero(at(qtys, i)),
			Dosage:       strings.TrimSpace(at(dosages, i)),
		})
	}
	appt.Prescription = p
}

// parseOp reads the form operation; remove carries the row index either as
// "remove-medicine:<n>" or in a separate index field
func parseOp(f url.Values) (string, int) {
	op := f.Get("op")
	if name, idx, ok := strings.Cut(op, ":"); ok {
		return name, rowIndex(idx)
	}
	if op == "" {
		op = opSave
	}
	return op, rowIndex(f.Get("index"))
}

// rowIndex parses a medicine row index; -1 matches no row
func rowIndex(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return -1
	}
	return n
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
