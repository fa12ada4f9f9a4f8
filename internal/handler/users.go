package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/middleware"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/service"
)

// userIDParam parses the {id} route parameter. Returns 0 after
// writing a 400 response when the parameter is not a number.
func userIDParam(w http.ResponseWriter, r *http.Request) int64 {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid user ID", nil)
		return 0
	}
	return id
}

// ListUsers handles GET /admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, storeUserToResponse(u))
	}
	WriteSuccess(w, resp, &Meta{Total: int64(len(resp))})
}

// GetUser handles GET /admin/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := userIDParam(w, r)
	if id == 0 {
		return
	}

	user, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, storeUserToResponse(user), nil)
}

// UpdateUserRoleRequest is the body for PUT /admin/users/{id}/role.
type UpdateUserRoleRequest struct {
	Role model.Role `json:"role"`
}

// UpdateUserRole handles PUT /admin/users/{id}/role.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id := userIDParam(w, r)
	if id == 0 {
		return
	}
	var req UpdateUserRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := middleware.GetUser(r)
	if err := h.accounts.UpdateRole(r.Context(), *actor, id, req.Role); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"updated": true}, nil)
}

// UpdateUserPasswordRequest is the body for PUT /admin/users/{id}/password.
type UpdateUserPasswordRequest struct {
	Password string `json:"password"`
}

// UpdateUserPassword handles PUT /admin/users/{id}/password.
func (h *Handler) UpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	id := userIDParam(w, r)
	if id == 0 {
		return
	}
	var req UpdateUserPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := middleware.GetUser(r)
	if err := h.accounts.UpdatePassword(r.Context(), *actor, id, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"updated": true}, nil)
}

// UpdateUserProfileRequest is the body for PUT /admin/users/{id}/profile.
// Omitted fields are left unchanged.
type UpdateUserProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// UpdateUserProfile handles PUT /admin/users/{id}/profile.
func (h *Handler) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	id := userIDParam(w, r)
	if id == 0 {
		return
	}
	var req UpdateUserProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := middleware.GetUser(r)
	err := h.accounts.UpdateProfile(r.Context(), *actor, id, service.ProfilePatch{
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"updated": true}, nil)
}

// UpdateUserStatusRequest is the body for PUT /admin/users/{id}/status.
type UpdateUserStatusRequest struct {
	Status string `json:"status"`
}

// UpdateUserStatus handles PUT /admin/users/{id}/status. Banning an
// account invalidates its sessions on the next request.
func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	id := userIDParam(w, r)
	if id == 0 {
		return
	}
	var req UpdateUserStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := middleware.GetUser(r)
	if err := h.accounts.SetStatus(r.Context(), *actor, id, req.Status); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"updated": true}, nil)
}

// DeleteUser handles DELETE /admin/users/{id}. Owner only; the
// account's applications are removed with it.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := userIDParam(w, r)
	if id == 0 {
		return
	}

	actor := middleware.GetUser(r)
	if err := h.accounts.Delete(r.Context(), *actor, id); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"deleted": true}, nil)
}
