package handlers

import (
	"context"
	"net/http"

	"github.com/otcheredev/hms-web/internal/gateway"
	"github.com/otcheredev/hms-web/internal/middleware"
	"github.com/otcheredev/hms-web/internal/models"
	"github.com/otcheredev/hms-web/internal/services"
	"github.com/otcheredev/hms-web/internal/web"
)

const recentActivityLimit = 10

// DashboardHandler renders the role's landing screen
type DashboardHandler struct {
	*Screen
	clients           *gateway.ClientSet
	audit             *services.AuditRecorder
	lowStockThreshold int
}

func NewDashboardHandler(screen *Screen, clients *gateway.ClientSet, audit *services.AuditRecorder, lowStockThreshold int) *DashboardHandler {
	return &DashboardHandler{
		Screen:            screen,
		clients:           clients,
		audit:             audit,
		lowStockThreshold: lowStockThreshold,
	}
}

type dashboardView struct {
	Stats         *models.DashboardStats
	Appointments  *models.AppointmentStats
	LowStock      []models.Medicine
	ShowLowStock  bool
	Activity      []models.AuditLog
	ShowHospitals bool
	HospitalCount int
}

type doctorDashboardView struct {
	Appointments []models.Appointment
	Booked       int
	Completed    int
}

func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	if actor(r).Role == models.RoleDoctor {
		h.doctor(w, r)
		return
	}

	ctx := r.Context()
	me := actor(r)
	cid, _ := middleware.GetTenantID(ctx)

	view := &dashboardView{
		ShowLowStock:  !me.IsSuperAdmin(),
		ShowHospitals: me.IsSuperAdmin(),
	}
	fetches := []services.Fetch{
		services.Into("dashboard stats", &view.Stats, func(ctx context.Context) (*models.DashboardStats, error) {
			return h.clients.Hospital.Dashboard(ctx, cid)
		}),
		services.Into("appointment stats", &view.Appointments, func(ctx context.Context) (*models.AppointmentStats, error) {
			return h.clients.Appointment.Stats(ctx, cid)
		}),
	}
	if view.ShowLowStock {
		fetches = append(fetches, services.Into("low stock medicines", &view.LowStock, func(ctx context.Context) ([]models.Medicine, error) {
			return h.clients.Hospital.LowStock(ctx, cid, h.lowStockThreshold)
		}))
	}
	if view.ShowHospitals {
		fetches = append(fetches, services.Into("hospitals", &view.HospitalCount, func(ctx context.Context) (int, error) {
			hospitals, err := h.clients.Hospital.Hospitals.List(ctx, "")
			return len(hospitals), err
		}))
	}
	if h.audit.Enabled() {
		fetches = append(fetches, services.Into("recent activity", &view.Activity, func(ctx context.Context) ([]models.AuditLog, error) {
			return h.audit.Recent(ctx, cid, recentActivityLimit)
		}))
	}

	result, _ := services.LoadAll(ctx, fetches...)

	title := "Dashboard"
	if me.IsSuperAdmin() {
		title = "Global Stats"
	}
	h.render(w, r, http.StatusOK, "dashboard", &web.Page{
		Title:  title,
		Notice: failedNotice(result.Failed),
		Data:   view,
	})
}

func (h *DashboardHandler) doctor(w http.ResponseWriter, r *http.Request) {
	cid, _ := middleware.GetTenantID(r.Context())

	view := &doctorDashboardView{Appointments: []models.Appointment{}}
	result, _ := services.LoadAll(r.Context(),
		services.Into("appointments", &view.Appointments, func(ctx context.Context) ([]models.Appointment, error) {
			return h.clients.Appointment.Appointments.List(ctx, cid)
		}),
	)

	counts := services.CountByStatus(view.Appointments)
	view.Booked = counts[models.StatusBooked]
	view.Completed = counts[models.StatusCompleted]

	h.render(w, r, http.StatusOK, "doctor_dashboard", &web.Page{
		Title:  "Dashboard",
		Notice: failedNotice(result.Failed),
		Data:   view,
	})
}
