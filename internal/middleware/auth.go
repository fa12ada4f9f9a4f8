// Package middleware provides HTTP middleware for session handling,
// authorization, rate limiting, and security headers.
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/service"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/store"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/util"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser holds the resolved account for the request.
const ContextKeyUser ContextKey = "user"

// SessionKeyUserID is the session key holding the signed-in account ID.
const SessionKeyUserID = "user_id"

// APIError is the JSON error envelope returned by middleware rejections.
type APIError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Details = details

	_ = json.NewEncoder(w).Encode(apiErr)
}

// LoadUser creates middleware that resolves the session's account and
// stores it in the request context. A session whose account no longer
// resolves (deleted or banned) is destroyed and the request continues
// anonymously; endpoints that need a principal reject it downstream.
func LoadUser(sm *scs.SessionManager, accounts *service.AccountService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), SessionKeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := accounts.Resolve(r.Context(), userID)
			if err != nil {
				if destroyErr := sm.Destroy(r.Context()); destroyErr != nil {
					slog.Error("failed to destroy stale session", "error", destroyErr, "user_id", userID)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current account from the request context.
// Returns nil if the request is anonymous.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserIDPtr returns a pointer to the current account's ID, or nil
// for anonymous requests. Useful for optional IDs in event logging.
func GetUserIDPtr(r *http.Request) *int64 {
	if user := GetUser(r); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// RequireAuth creates middleware that rejects anonymous requests.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUser(r) == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Sign in required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireCapability builds middleware gating a route on a role
// capability. Denials are logged and, when an event service is
// provided, recorded in the event log for the admin console.
func requireCapability(capability string, allowed func(model.Role) bool, events *service.EventService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Sign in required", nil)
				return
			}

			if !allowed(user.Role) {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_role", user.Role,
					"capability", capability,
				)
				if events != nil {
					_ = events.LogWarning(r.Context(), model.EventCategoryAuth,
						"access denied: insufficient permissions", &user.ID, util.ClientIP(r),
						map[string]any{
							"method":     r.Method,
							"path":       r.URL.Path,
							"user_role":  string(user.Role),
							"capability": capability,
						})
				}
				WriteAPIError(w, http.StatusForbidden, "forbidden", "Insufficient permissions", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff gates a route on admin console access (staff rank and up).
func RequireStaff(events *service.EventService) func(http.Handler) http.Handler {
	return requireCapability("access_admin", model.Role.CanAccessAdmin, events)
}

// RequireReviewer gates a route on application review rights
// (manager rank and up).
func RequireReviewer(events *service.EventService) func(http.Handler) http.Handler {
	return requireCapability("review_applications", model.Role.CanReviewApplications, events)
}

// RequireAdmin gates a route on member and settings management rights
// (admin rank and up).
func RequireAdmin(events *service.EventService) func(http.Handler) http.Handler {
	return requireCapability("manage_site", model.Role.CanManageRoles, events)
}

// RequireOwner gates a route on the owner role.
func RequireOwner(events *service.EventService) func(http.Handler) http.Handler {
	return requireCapability("owner_only", model.Role.CanDeleteAccounts, events)
}
