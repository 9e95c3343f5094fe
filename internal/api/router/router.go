package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/ayurdiet-portal/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/ayurdiet-portal/internal/http/middleware"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger       *logging.Logger
	Sessions     *session.Store
	Auth         *handlers.AuthHandler
	Appointments *handlers.AppointmentsHandler
	Wizard       *handlers.WizardHandler
	WizardSocket http.Handler
	Catalog      *handlers.CatalogHandler
	Dashboard    *handlers.DashboardHandler
	Health       *handlers.HealthHandler

	// LoginLimiter throttles POST /auth/login per client IP (optional).
	LoginLimiter       *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(httpmiddleware.Session(cfg.Sessions, cfg.Logger))

	// Public endpoints
	r.Group(func(public chi.Router) {
		if cfg.Health != nil {
			public.Get("/health", cfg.Health.HealthCheck)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.LoginLimiter != nil {
			public.With(httpmiddleware.RateLimit(cfg.LoginLimiter)).Post("/auth/login", cfg.Auth.Login)
		} else {
			public.Post("/auth/login", cfg.Auth.Login)
		}
		public.Post("/auth/logout", cfg.Auth.Logout)
	})

	// Signed-in users
	r.Group(func(app chi.Router) {
		app.Use(httpmiddleware.RequireSession)

		app.Get("/auth/me", cfg.Auth.Me)
		app.Put("/auth/me", cfg.Auth.UpdateMe)
		app.Get("/dashboard", cfg.Dashboard.Show)
		app.Get("/doctors", cfg.Appointments.Doctors)

		app.Route("/appointments", func(r chi.Router) {
			r.Get("/", cfg.Appointments.List)
			r.With(httpmiddleware.RequireRole(session.RolePatient)).Post("/", cfg.Appointments.Book)
			r.Get("/slots", cfg.Appointments.Slots)
			r.Get("/calendar", cfg.Appointments.Calendar)
			r.Get("/{id}", cfg.Appointments.Get)
			r.Post("/{id}/{action}", cfg.Appointments.Act)
		})

		app.Get("/patients/{id}", cfg.Catalog.Patient)
		app.Get("/foods", cfg.Catalog.Foods)

		// Practitioners
		app.Group(func(staff chi.Router) {
			staff.Use(httpmiddleware.RequireRole(session.RoleDoctor, session.RoleAdmin))
			staff.Get("/patients", cfg.Catalog.Patients)
			staff.Put("/patients/{id}", cfg.Catalog.UpdatePatient)
			staff.Get("/diet-plans", cfg.Catalog.DietPlans)
			staff.Put("/diet-plans/{id}/status", cfg.Catalog.SetPlanStatus)
		})

		// Doctors only
		app.Group(func(doc chi.Router) {
			doc.Use(httpmiddleware.RequireRole(session.RoleDoctor))
			doc.Post("/diet-plans/drafts/generate", cfg.Catalog.GenerateDraft)
			doc.Post("/diet-plans/drafts", cfg.Catalog.SaveDraft)
			doc.Get("/practitioner/profile", cfg.Catalog.Profile)
			doc.Put("/practitioner/profile", cfg.Catalog.UpdateProfile)
		})

		app.With(httpmiddleware.RequireRole(session.RoleAdmin)).Post("/foods", cfg.Catalog.CreateFood)

		// Patients
		app.Group(func(own chi.Router) {
			own.Use(httpmiddleware.RequireRole(session.RolePatient))
			own.Get("/my/diet-plans", cfg.Catalog.MyPlans)
			own.Get("/progress", cfg.Catalog.Progress)
			own.Post("/progress", cfg.Catalog.LogProgress)
			own.Route("/wizard", func(r chi.Router) {
				r.Get("/", cfg.Wizard.Current)
				r.Post("/open", cfg.Wizard.Open)
				r.Post("/answer", cfg.Wizard.Answer)
				if cfg.WizardSocket != nil {
					r.Handle("/ws", cfg.WizardSocket)
				}
			})
		})
	})

	return r
}
