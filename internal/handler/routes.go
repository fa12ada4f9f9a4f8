package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/middleware"
)

// RouterConfig carries the cross-cutting middleware configuration.
type RouterConfig struct {
	IsDevelopment bool
	SessionSecret []byte
	// RequestsPerSecond and Burst configure the global per-IP rate
	// limit. Zero values disable it.
	RequestsPerSecond float64
	Burst             int
}

// Routes assembles the full HTTP handler: global middleware, the
// public API, the authenticated member API, and the admin console API.
func (h *Handler) Routes(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment)))
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(cfg.SessionSecret, cfg.IsDevelopment)))
	if cfg.RequestsPerSecond > 0 {
		r.Use(middleware.NewGlobalRateLimiter(cfg.RequestsPerSecond, cfg.Burst).Middleware())
	}
	r.Use(h.sessionManager.LoadAndSave)
	r.Use(middleware.LoadUser(h.sessionManager, h.accounts))

	r.Get("/healthz", h.Health)

	// Public
	r.Get("/intake", h.IntakeStatus)
	r.Get("/content/{key}", h.GetContent)
	r.Get("/applications/fields", h.ApplicationFields)

	// Auth
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/discord", h.LoginDiscord)
		r.With(h.loginMiddleware()).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})

	// Signed-in members
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth())
		r.Post("/applications", h.SubmitApplication)
		r.Get("/applications/mine", h.MyApplications)
	})

	// Admin console
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireStaff(h.events))

		r.Get("/health", h.HealthDetail)
		r.Get("/events", h.ListEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireReviewer(h.events))
			r.Get("/applications", h.ListApplications)
			r.Get("/applications/stats", h.ApplicationStats)
			r.Get("/applications/{id}", h.GetApplication)
			r.Put("/applications/{id}/status", h.TransitionApplication)
			r.Put("/applications/{id}/notes", h.SetApplicationNotes)
			r.Put("/applications/{id}/message", h.SetApplicationMessage)
			r.Delete("/applications/{id}", h.DeleteApplication)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.events))
			r.Get("/users", h.ListUsers)
			r.Get("/users/{id}", h.GetUser)
			r.Put("/users/{id}/role", h.UpdateUserRole)
			r.Put("/users/{id}/password", h.UpdateUserPassword)
			r.Put("/users/{id}/profile", h.UpdateUserProfile)
			r.Put("/users/{id}/status", h.UpdateUserStatus)
			r.Put("/intake", h.SaveIntake)
			r.Put("/content/{key}", h.SetContent)
			r.Put("/applications/fields", h.SaveApplicationFields)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOwner(h.events))
			r.Delete("/users/{id}", h.DeleteUser)
		})
	})

	return r
}

func (h *Handler) loginMiddleware() func(http.Handler) http.Handler {
	if h.loginProtection == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.loginProtection.Middleware()
}
