package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/version"
)

// HealthPublic is the minimal health response for unauthenticated
// callers.
type HealthPublic struct {
	Status string `json:"status"`
}

// HealthDetail is the health response for the admin console.
type HealthDetail struct {
	Status     string           `json:"status"`
	Timestamp  time.Time        `json:"timestamp"`
	Uptime     string           `json:"uptime"`
	Version    string           `json:"version"`
	Checks     map[string]Check `json:"checks"`
	Goroutines int              `json:"goroutines"`
}

// Check is one health check result.
type Check struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Health handles GET /healthz. It only reports whether the process
// can answer, never internals.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.db.PingContext(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, HealthPublic{Status: status})
}

// HealthDetail handles GET /admin/health.
func (h *Handler) HealthDetail(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{}
	status := "ok"
	code := http.StatusOK

	if err := h.db.PingContext(r.Context()); err != nil {
		checks["database"] = Check{Status: "fail", Detail: err.Error()}
		status = "degraded"
		code = http.StatusServiceUnavailable
	} else {
		checks["database"] = Check{Status: "ok"}
	}

	WriteJSON(w, code, HealthDetail{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Version:    version.Version,
		Checks:     checks,
		Goroutines: runtime.NumGoroutine(),
	})
}
