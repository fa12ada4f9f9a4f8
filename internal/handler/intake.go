package handler

import (
	"net/http"
	"time"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/middleware"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/service"
)

// IntakeStatus handles GET /intake. Public: the frontend uses it to
// decide whether to offer the application form. Reading evaluates the
// schedule, so elapsed boundary dates take effect here.
func (h *Handler) IntakeStatus(w http.ResponseWriter, r *http.Request) {
	state, err := h.intake.ReadCurrentStatus(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, state, nil)
}

// SaveIntakeRequest is the body for PUT /admin/intake. Dates are
// RFC 3339; a null or omitted date clears the stored boundary.
type SaveIntakeRequest struct {
	Status    model.IntakeStatus `json:"status"`
	OpenDate  *time.Time         `json:"openDate,omitempty"`
	CloseDate *time.Time         `json:"closeDate,omitempty"`
}

// SaveIntake handles PUT /admin/intake.
func (h *Handler) SaveIntake(w http.ResponseWriter, r *http.Request) {
	var req SaveIntakeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := middleware.GetUser(r)
	err := h.intake.Save(r.Context(), *actor, service.SaveParams{
		Status:    req.Status,
		OpenDate:  req.OpenDate,
		CloseDate: req.CloseDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	state, err := h.intake.ReadCurrentStatus(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, state, nil)
}
