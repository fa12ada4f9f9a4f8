package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/middleware"
)

// ContentDocument is a site content document in API responses. The
// value is an opaque JSON document managed by the admin console.
type ContentDocument struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GetContent handles GET /content/{key}. Public. Unset keys return an
// empty value, unknown keys 404.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := h.content.Get(r.Context(), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, ContentDocument{Key: key, Value: value}, nil)
}

// SetContentRequest is the body for PUT /admin/content/{key}.
type SetContentRequest struct {
	Value string `json:"value"`
}

// SetContent handles PUT /admin/content/{key}.
func (h *Handler) SetContent(w http.ResponseWriter, r *http.Request) {
	var req SetContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	key := chi.URLParam(r, "key")
	actor := middleware.GetUser(r)
	if err := h.content.Set(r.Context(), *actor, key, req.Value); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, ContentDocument{Key: key, Value: req.Value}, nil)
}
