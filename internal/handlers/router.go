package handlers

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/otcheredev/hms-web/internal/gateway"
	"github.com/otcheredev/hms-web/internal/metrics"
	"github.com/otcheredev/hms-web/internal/middleware"
	"github.com/otcheredev/hms-web/internal/models"
	"github.com/otcheredev/hms-web/internal/navigation"
	"github.com/otcheredev/hms-web/internal/services"
	"github.com/otcheredev/hms-web/internal/session"
	"github.com/otcheredev/hms-web/internal/web"
)

// RouterConfig collects what the HTTP surface is built from
type RouterConfig struct {
	Views             *web.Renderer
	Cookie            session.Cookie
	Store             session.Store
	Sessions          *session.Controller
	Clients           *gateway.ClientSet
	Audit             *services.AuditRecorder
	Health            *HealthHandler
	LoginLimiter      *middleware.IPRateLimiter
	TrustedProxies    []netip.Prefix
	CORS              cors.Options
	MetricsEnabled    bool
	LowStockThreshold int
}

// NewRouter wires every screen behind its gate
func NewRouter(cfg RouterConfig) http.Handler {
	screen := NewScreen(cfg.Views, cfg.Cookie)
	loading := http.HandlerFunc(screen.Loading)

	authHandler := NewAuthHandler(screen, cfg.Sessions)
	dashboardHandler := NewDashboardHandler(screen, cfg.Clients, cfg.Audit, cfg.LowStockThreshold)
	userHandler := NewUserHandler(screen, cfg.Clients, cfg.Audit)
	appointmentHandler := NewAppointmentHandler(screen, cfg.Clients, cfg.Audit)
	apiHandler := NewAPIHandler()

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.ClientAddr(cfg.TrustedProxies))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics)
	}
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.SecurityHeaders)

	r.NotFound(screen.NotFound)
	r.MethodNotAllowed(screen.NotFound)

	// Health endpoints (no session required)
	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Health)
		r.Get("/ready", cfg.Health.Ready)
	}
	if cfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}
	r.Handle("/static/*", http.StripPrefix("/static", web.Static()))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Sessions(cfg.Store, cfg.Cookie))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, navigation.PathDashboard, http.StatusSeeOther)
		})
		r.Get(navigation.PathLogin, authHandler.LoginPage)
		if cfg.LoginLimiter != nil {
			r.With(cfg.LoginLimiter.Limit).Post(navigation.PathLogin, authHandler.Login)
		} else {
			r.Post(navigation.PathLogin, authHandler.Login)
		}
		r.Post("/logout", authHandler.Logout)

		// JSON surface for browser scripts
		r.Route("/api", func(r chi.Router) {
			r.Use(cors.Handler(cfg.CORS))
			r.Use(middleware.RequireSession)
			r.Get("/session", apiHandler.Session)
			r.Get("/navigation", apiHandler.Navigation)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.TenantID)

			anySession := middleware.Gate(models.RoleSet(0), loading)
			r.With(anySession).Post("/theme", authHandler.Theme)
			r.With(gateFor(navigation.PathDashboard, loading)).Get(navigation.PathDashboard, dashboardHandler.Show)

			mountResource(r, NewResourceHandler(screen, HospitalResource(cfg.Clients), cfg.Clients, cfg.Audit), loading)
			mountResource(r, NewResourceHandler(screen, DoctorResource(cfg.Clients), cfg.Clients, cfg.Audit), loading)
			mountResource(r, NewResourceHandler(screen, PatientResource(cfg.Clients), cfg.Clients, cfg.Audit), loading)
			mountResource(r, NewResourceHandler(screen, StaffResource(cfg.Clients), cfg.Clients, cfg.Audit), loading)
			mountResource(r, NewResourceHandler(screen, MedicineResource(cfg.Clients), cfg.Clients, cfg.Audit), loading)

			r.Route(navigation.PathUsers, func(r chi.Router) {
				r.Use(gateFor(navigation.PathUsers, loading))
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Create)
				r.Post("/{id}/toggle", userHandler.Toggle)
			})

			r.Route(navigation.PathAppointments, func(r chi.Router) {
				r.Use(gateFor(navigation.PathAppointments, loading))
				r.Get("/", appointmentHandler.List)
				r.Post("/", appointmentHandler.Create)
				r.Post("/{id}", appointmentHandler.Update)
				r.Post("/{id}/status", appointmentHandler.Status)
				r.Get("/{id}/delete", appointmentHandler.ConfirmDelete)
				r.Post("/{id}/delete", appointmentHandler.Delete)
			})
		})
	})

	return r
}

func gateFor(path string, loading http.Handler) func(http.Handler) http.Handler {
	return middleware.Gate(navigation.Required(path), loading)
}

func mountResource[T any](r chi.Router, h *ResourceHandler[T], loading http.Handler) {
	r.Route(h.def.Path, func(r chi.Router) {
		r.Use(gateFor(h.def.Path, loading))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/{id}", h.Update)
		r.Get("/{id}/delete", h.ConfirmDelete)
		r.Post("/{id}/delete", h.Delete)
	})
}
