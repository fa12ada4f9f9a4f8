package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/middleware"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/store"
)

// ApplicationResponse is an application as shown to reviewers.
type ApplicationResponse struct {
	ID           string                  `json:"id"`
	UserID       int64                   `json:"user_id"`
	Answers      string                  `json:"answers"`
	Status       model.ApplicationStatus `json:"status"`
	SubmittedAt  time.Time               `json:"submitted_at"`
	ReviewedAt   *time.Time              `json:"reviewed_at,omitempty"`
	Notes        string                  `json:"notes,omitempty"`
	AdminMessage string                  `json:"admin_message,omitempty"`
}

func storeApplicationToResponse(a store.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:           a.ID,
		UserID:       a.UserID,
		Answers:      a.Answers,
		Status:       a.Status,
		SubmittedAt:  a.SubmittedAt,
		Notes:        a.Notes,
		AdminMessage: a.AdminMessage,
	}
	if a.ReviewedAt.Valid {
		t := a.ReviewedAt.Time
		resp.ReviewedAt = &t
	}
	return resp
}

// ApplicationFields handles GET /applications/fields. Public: the
// form definition is needed before sign-up completes.
func (h *Handler) ApplicationFields(w http.ResponseWriter, r *http.Request) {
	fields, err := h.applications.Fields(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, fields, nil)
}

// SaveApplicationFieldsRequest is the body for PUT /admin/applications/fields.
type SaveApplicationFieldsRequest struct {
	Fields []model.AppField `json:"fields"`
}

// SaveApplicationFields handles PUT /admin/applications/fields.
func (h *Handler) SaveApplicationFields(w http.ResponseWriter, r *http.Request) {
	var req SaveApplicationFieldsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := middleware.GetUser(r)
	if err := h.applications.SaveFields(r.Context(), *user, req.Fields); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, req.Fields, nil)
}

// SubmitApplicationRequest is the body for POST /applications.
type SubmitApplicationRequest struct {
	Answers map[string]string `json:"answers"`
}

// SubmitApplication handles POST /applications.
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req SubmitApplicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := middleware.GetUser(r)
	app, err := h.applications.Submit(r.Context(), *user, req.Answers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteCreated(w, storeApplicationToResponse(app))
}

// MyApplications handles GET /applications/mine.
func (h *Handler) MyApplications(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	views, err := h.applications.ListForUser(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, views, nil)
}

// ListApplications handles GET /admin/applications. An optional
// ?status= query filters by review status.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	status := model.ApplicationStatus(r.URL.Query().Get("status"))

	apps, err := h.applications.List(r.Context(), *user, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		resp = append(resp, storeApplicationToResponse(a))
	}
	WriteSuccess(w, resp, &Meta{Total: int64(len(resp))})
}

// GetApplication handles GET /admin/applications/{id}.
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	app, err := h.applications.Get(r.Context(), *user, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, storeApplicationToResponse(app), nil)
}

// TransitionApplicationRequest is the body for PUT /admin/applications/{id}/status.
type TransitionApplicationRequest struct {
	Status model.ApplicationStatus `json:"status"`
}

// TransitionApplication handles PUT /admin/applications/{id}/status.
func (h *Handler) TransitionApplication(w http.ResponseWriter, r *http.Request) {
	var req TransitionApplicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := middleware.GetUser(r)
	app, err := h.applications.Transition(r.Context(), *user, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, storeApplicationToResponse(app), nil)
}

// ApplicationNotesRequest is the body for PUT /admin/applications/{id}/notes.
type ApplicationNotesRequest struct {
	Notes string `json:"notes"`
}

// SetApplicationNotes handles PUT /admin/applications/{id}/notes.
func (h *Handler) SetApplicationNotes(w http.ResponseWriter, r *http.Request) {
	var req ApplicationNotesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := middleware.GetUser(r)
	if err := h.applications.SetNotes(r.Context(), *user, chi.URLParam(r, "id"), req.Notes); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"updated": true}, nil)
}

// ApplicationMessageRequest is the body for PUT /admin/applications/{id}/message.
type ApplicationMessageRequest struct {
	Message string `json:"message"`
}

// SetApplicationMessage handles PUT /admin/applications/{id}/message.
// The message is stored as Markdown and rendered on the applicant's
// read path.
func (h *Handler) SetApplicationMessage(w http.ResponseWriter, r *http.Request) {
	var req ApplicationMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := middleware.GetUser(r)
	if err := h.applications.SetAdminMessage(r.Context(), *user, chi.URLParam(r, "id"), req.Message); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"updated": true}, nil)
}

// DeleteApplication handles DELETE /admin/applications/{id}.
func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if err := h.applications.Delete(r.Context(), *user, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"deleted": true}, nil)
}

// ApplicationStats handles GET /admin/applications/stats.
func (h *Handler) ApplicationStats(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	stats, err := h.applications.Stats(r.Context(), *user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, stats, nil)
}
