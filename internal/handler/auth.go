package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mileusna/useragent"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/middleware"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/service"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/store"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/util"
)

// UserResponse is an account in API responses.
type UserResponse struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email,omitempty"`
	DisplayName     string     `json:"display_name"`
	Handle          string     `json:"handle"`
	AuthMethod      string     `json:"auth_method"`
	DiscordUsername string     `json:"discord_username,omitempty"`
	DiscordAvatar   string     `json:"discord_avatar,omitempty"`
	Role            model.Role `json:"role"`
	RoleLabel       string     `json:"role_label"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
}

func storeUserToResponse(u store.User) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Handle:      u.Handle,
		AuthMethod:  u.AuthMethod,
		Role:        u.Role,
		RoleLabel:   u.Role.Label(),
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
	}
	if u.Email.Valid {
		resp.Email = u.Email.String
	}
	if u.DiscordUsername.Valid {
		resp.DiscordUsername = u.DiscordUsername.String
	}
	if u.DiscordAvatar.Valid {
		resp.DiscordAvatar = u.DiscordAvatar.String
	}
	if u.LastLoginAt.Valid {
		t := u.LastLoginAt.Time
		resp.LastLoginAt = &t
	}
	return resp
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.Register(r.Context(), service.RegisterParams{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.signIn(w, r, user)
	WriteCreated(w, storeUserToResponse(user))
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(req.Email); locked {
			WriteError(w, http.StatusTooManyRequests, "account_locked",
				fmt.Sprintf("Account temporarily locked. Try again in %s.", remaining.Round(time.Second)), nil)
			return
		}
	}

	user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.loginProtection != nil {
			h.loginProtection.RecordFailedAttempt(req.Email)
		}
		h.logAuthEvent(r, model.EventLevelWarning, "failed sign-in attempt", nil, map[string]any{
			"email": req.Email,
		})
		writeServiceError(w, err)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(req.Email)
	}
	h.signIn(w, r, user)
	h.logAuthEvent(r, model.EventLevelInfo, "member signed in", &user.ID, nil)

	WriteSuccess(w, storeUserToResponse(user), nil)
}

// DiscordLoginRequest is the body for POST /auth/discord. It carries
// the verified identity from the OAuth callback.
type DiscordLoginRequest struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// LoginDiscord handles POST /auth/discord. Repeat sign-ins with the
// same Discord ID reuse the existing account.
func (h *Handler) LoginDiscord(w http.ResponseWriter, r *http.Request) {
	var req DiscordLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.RegisterDiscord(r.Context(), service.DiscordIdentity{
		ID:        req.ID,
		Username:  req.Username,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.signIn(w, r, user)
	h.logAuthEvent(r, model.EventLevelInfo, "member signed in via discord", &user.ID, nil)

	WriteSuccess(w, storeUserToResponse(user), nil)
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), SessionKeyUserID)
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		WriteInternalError(w, "Failed to end session")
		return
	}
	if userID != 0 {
		h.logAuthEvent(r, model.EventLevelInfo, "member signed out", &userID, nil)
	}
	WriteSuccess(w, map[string]bool{"signed_out": true}, nil)
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Sign in required")
		return
	}
	WriteSuccess(w, storeUserToResponse(*user), nil)
}

// signIn renews the session token and binds the account to it.
// Token renewal on privilege change prevents session fixation.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, user store.User) {
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		WriteInternalError(w, "Failed to start session")
		return
	}
	h.sessionManager.Put(r.Context(), SessionKeyUserID, user.ID)
}

// logAuthEvent records an auth event with client metadata: IP, country
// when GeoIP is configured, and the parsed user agent.
func (h *Handler) logAuthEvent(r *http.Request, level, message string, userID *int64, extra map[string]any) {
	ip := util.ClientIP(r)

	metadata := map[string]any{}
	for k, v := range extra {
		metadata[k] = v
	}
	if h.geo != nil {
		if country := h.geo.LookupCountry(ip); country != "" {
			metadata["country"] = country
		}
	}
	if uaHeader := r.Header.Get("User-Agent"); uaHeader != "" {
		ua := useragent.Parse(uaHeader)
		if ua.Name != "" {
			metadata["browser"] = ua.Name
		}
		if ua.OS != "" {
			metadata["os"] = ua.OS
		}
	}

	_ = h.events.LogEvent(r.Context(), level, model.EventCategoryAuth, message, userID, ip, metadata)
}
