// Package service implements the business rules of the application
// funnel: account and credential management, the application review
// state machine, the intake schedule, site content, and audit logging.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/auth"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/store"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/util"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// AccountService manages accounts, credentials and role assignments.
type AccountService struct {
	queries *store.Queries
	events  *EventService

	ownerEmail    string
	ownerPassword string

	now func() time.Time
}

// NewAccountService creates an AccountService. ownerEmail and
// ownerPassword are the bootstrap owner credentials.
func NewAccountService(db *sql.DB, events *EventService, ownerEmail, ownerPassword string) *AccountService {
	return &AccountService{
		queries:       store.New(db),
		events:        events,
		ownerEmail:    ownerEmail,
		ownerPassword: ownerPassword,
		now:           time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *AccountService) SetClock(now func() time.Time) {
	s.now = now
}

// EnsureOwner makes sure the bootstrap owner account exists and holds
// the owner role. Called at startup and lazily before every login.
func (s *AccountService) EnsureOwner(ctx context.Context) error {
	return s.queries.EnsureOwner(ctx, s.ownerEmail, s.ownerPassword)
}

// RegisterParams are the inputs for email registration.
type RegisterParams struct {
	Email       string
	Password    string
	DisplayName string
}

// Register creates a new email-method account. The role is always
// user; callers can never choose a role at registration.
func (s *AccountService) Register(ctx context.Context, p RegisterParams) (store.User, error) {
	email := normalizeEmail(p.Email)
	displayName := strings.TrimSpace(p.DisplayName)

	fields := map[string]string{}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "a valid email address is required"
	}
	if len(p.Password) < MinPasswordLength {
		fields["password"] = fmt.Sprintf("password must be at least %d characters", MinPasswordLength)
	}
	if displayName == "" {
		fields["displayName"] = "display name is required"
	}
	if len(fields) > 0 {
		return store.User{}, &ValidationError{Fields: fields}
	}

	if _, err := s.queries.GetUserByEmail(ctx, email); err == nil {
		return store.User{}, ErrDuplicateIdentity
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.User{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}
	handle, err := s.uniqueHandle(ctx, displayName)
	if err != nil {
		return store.User{}, err
	}

	now := s.now().UTC()
	u, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        sql.NullString{String: email, Valid: true},
		PasswordHash: sql.NullString{String: hash, Valid: true},
		DisplayName:  displayName,
		Handle:       handle,
		AuthMethod:   model.AuthMethodEmail,
		Role:         model.RoleUser,
		Status:       model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return store.User{}, fmt.Errorf("create account: %w", err)
	}

	s.events.LogInfo(ctx, model.EventCategoryAuth, "account registered", &u.ID, "", map[string]any{"method": model.AuthMethodEmail})
	return u, nil
}

// DiscordIdentity describes a Discord account as reported by OAuth.
type DiscordIdentity struct {
	ID        string
	Username  string
	AvatarURL string
}

// RegisterDiscord logs in or registers a Discord identity. Repeat
// logins with the same provider ID return the existing account with
// the profile fields refreshed, never a duplicate error.
func (s *AccountService) RegisterDiscord(ctx context.Context, id DiscordIdentity) (store.User, error) {
	if id.ID == "" {
		return store.User{}, &ValidationError{Fields: map[string]string{"discordId": "provider ID is required"}}
	}

	existing, err := s.queries.GetUserByDiscordID(ctx, id.ID)
	if err == nil {
		if existing.Status == model.StatusBanned {
			return store.User{}, ErrForbidden
		}
		s.refreshDiscordProfile(ctx, existing, id)
		return s.queries.GetUserByID(ctx, existing.ID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return store.User{}, fmt.Errorf("look up discord identity: %w", err)
	}

	displayName := id.Username
	if displayName == "" {
		displayName = "discord-" + id.ID
	}
	handle, err := s.uniqueHandle(ctx, displayName)
	if err != nil {
		return store.User{}, err
	}

	now := s.now().UTC()
	u, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		DiscordID:       sql.NullString{String: id.ID, Valid: true},
		DiscordUsername: sql.NullString{String: id.Username, Valid: id.Username != ""},
		DiscordAvatar:   sql.NullString{String: id.AvatarURL, Valid: id.AvatarURL != ""},
		DisplayName:     displayName,
		Handle:          handle,
		AuthMethod:      model.AuthMethodDiscord,
		Role:            model.RoleUser,
		Status:          model.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return store.User{}, fmt.Errorf("create discord account: %w", err)
	}

	s.events.LogInfo(ctx, model.EventCategoryAuth, "account registered", &u.ID, "", map[string]any{"method": model.AuthMethodDiscord})
	return u, nil
}

func (s *AccountService) refreshDiscordProfile(ctx context.Context, u store.User, id DiscordIdentity) {
	if u.DiscordUsername.String == id.Username && u.DiscordAvatar.String == id.AvatarURL {
		return
	}
	if err := s.queries.UpdateDiscordProfile(ctx, store.UpdateDiscordProfileParams{
		DiscordUsername: sql.NullString{String: id.Username, Valid: id.Username != ""},
		DiscordAvatar:   sql.NullString{String: id.AvatarURL, Valid: id.AvatarURL != ""},
		UpdatedAt:       s.now().UTC(),
		ID:              u.ID,
	}); err != nil {
		slog.Warn("failed to refresh discord profile", "user_id", u.ID, "error", err)
	}
}

// Login authenticates an email-method account. The owner bootstrap
// runs first, so the very first login on an empty database can use the
// default owner credentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (store.User, error) {
	if err := s.EnsureOwner(ctx); err != nil {
		slog.Error("owner bootstrap failed", "error", err)
	}

	u, err := s.queries.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrAccountNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("look up account: %w", err)
	}
	if u.Status == model.StatusBanned {
		return store.User{}, ErrForbidden
	}
	if !u.PasswordHash.Valid {
		return store.User{}, ErrInvalidCredential
	}

	ok, err := auth.CheckPassword(password, u.PasswordHash.String)
	if err != nil || !ok {
		return store.User{}, ErrInvalidCredential
	}

	if auth.NeedsRehash(u.PasswordHash.String) {
		if hash, err := auth.HashPassword(password); err == nil {
			_ = s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
				PasswordHash: hash,
				UpdatedAt:    s.now().UTC(),
				ID:           u.ID,
			})
		}
	}
	_ = s.queries.UpdateUserLastLogin(ctx, store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: s.now().UTC(), Valid: true},
		ID:          u.ID,
	})

	return s.queries.GetUserByID(ctx, u.ID)
}

// Resolve re-reads the account behind a session principal. The stored
// row, not any cached session claim, is authoritative for the role.
// Banned and deleted accounts resolve to an error so stale sessions
// cannot outlive an account.
func (s *AccountService) Resolve(ctx context.Context, userID int64) (store.User, error) {
	u, err := s.queries.GetUserByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("resolve account: %w", err)
	}
	if u.Status == model.StatusBanned {
		return store.User{}, ErrForbidden
	}
	return u, nil
}

// Get fetches any account by ID.
func (s *AccountService) Get(ctx context.Context, id int64) (store.User, error) {
	u, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrNotFound
	}
	return u, err
}

// List returns all accounts.
func (s *AccountService) List(ctx context.Context) ([]store.User, error) {
	return s.queries.ListUsers(ctx)
}

// UpdateRole changes a target account's role. Admins may only assign
// roles below admin; the owner role is never assignable; the owner
// account's role can never be changed here at all.
func (s *AccountService) UpdateRole(ctx context.Context, actor store.User, targetID int64, newRole model.Role) error {
	if !actor.Role.CanManageRoles() {
		return ErrForbidden
	}
	if !newRole.Valid() {
		return &ValidationError{Fields: map[string]string{"role": "unknown role"}}
	}
	if newRole == model.RoleOwner {
		return ErrForbidden
	}
	if actor.Role == model.RoleAdmin && newRole == model.RoleAdmin {
		return ErrForbidden
	}

	target, err := s.queries.GetUserByID(ctx, targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("look up target: %w", err)
	}
	if target.Role == model.RoleOwner {
		return ErrProtectedTarget
	}

	err = s.queries.UpdateUserRole(ctx, store.UpdateUserRoleParams{
		Role:      newRole,
		UpdatedAt: s.now().UTC(),
		ID:        targetID,
	})
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	s.events.LogInfo(ctx, model.EventCategoryUser, "role changed", &actor.ID, "",
		map[string]any{"target_id": targetID, "from": string(target.Role), "to": string(newRole)})
	return nil
}

// checkManageTarget enforces the shared rule for password, profile and
// ban-status mutations: the caller needs role management rights, and
// the owner account may only be touched by the owner.
func (s *AccountService) checkManageTarget(ctx context.Context, actor store.User, targetID int64) (store.User, error) {
	if !actor.Role.CanManageRoles() {
		return store.User{}, ErrForbidden
	}
	target, err := s.queries.GetUserByID(ctx, targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("look up target: %w", err)
	}
	if target.Role == model.RoleOwner && actor.Role != model.RoleOwner {
		return store.User{}, ErrProtectedTarget
	}
	return target, nil
}

// UpdatePassword replaces a target account's password.
func (s *AccountService) UpdatePassword(ctx context.Context, actor store.User, targetID int64, newPassword string) error {
	if _, err := s.checkManageTarget(ctx, actor, targetID); err != nil {
		return err
	}
	if len(newPassword) < MinPasswordLength {
		return &ValidationError{Fields: map[string]string{"password": fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}}
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		PasswordHash: hash,
		UpdatedAt:    s.now().UTC(),
		ID:           targetID,
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.events.LogInfo(ctx, model.EventCategoryUser, "password changed", &actor.ID, "",
		map[string]any{"target_id": targetID})
	return nil
}

// ProfilePatch carries optional profile updates; nil fields are left
// unchanged.
type ProfilePatch struct {
	DisplayName *string
	Email       *string
}

// UpdateProfile patches a target account's display name and email.
func (s *AccountService) UpdateProfile(ctx context.Context, actor store.User, targetID int64, patch ProfilePatch) error {
	target, err := s.checkManageTarget(ctx, actor, targetID)
	if err != nil {
		return err
	}

	displayName := target.DisplayName
	if patch.DisplayName != nil {
		displayName = strings.TrimSpace(*patch.DisplayName)
		if displayName == "" {
			return &ValidationError{Fields: map[string]string{"displayName": "display name is required"}}
		}
	}

	var email sql.NullString
	if patch.Email != nil {
		if target.AuthMethod != model.AuthMethodEmail {
			return &ValidationError{Fields: map[string]string{"email": "account does not use email login"}}
		}
		v := normalizeEmail(*patch.Email)
		if v == "" || !strings.Contains(v, "@") {
			return &ValidationError{Fields: map[string]string{"email": "a valid email address is required"}}
		}
		if other, err := s.queries.GetUserByEmail(ctx, v); err == nil && other.ID != targetID {
			return ErrDuplicateIdentity
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check email: %w", err)
		}
		email = sql.NullString{String: v, Valid: true}
	}

	err = s.queries.UpdateUserProfile(ctx, store.UpdateUserProfileParams{
		DisplayName: displayName,
		Email:       email,
		UpdatedAt:   s.now().UTC(),
		ID:          targetID,
	})
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	s.events.LogInfo(ctx, model.EventCategoryUser, "profile updated", &actor.ID, "",
		map[string]any{"target_id": targetID})
	return nil
}

// SetStatus bans or unbans a target account.
func (s *AccountService) SetStatus(ctx context.Context, actor store.User, targetID int64, status string) error {
	if !model.ValidStatus(status) {
		return &ValidationError{Fields: map[string]string{"status": "unknown status"}}
	}
	if _, err := s.checkManageTarget(ctx, actor, targetID); err != nil {
		return err
	}

	err := s.queries.UpdateUserStatus(ctx, store.UpdateUserStatusParams{
		Status:    status,
		UpdatedAt: s.now().UTC(),
		ID:        targetID,
	})
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.events.LogWarning(ctx, model.EventCategoryUser, "account status changed", &actor.ID, "",
		map[string]any{"target_id": targetID, "status": status})
	return nil
}

// Delete removes an account. Only the owner may delete accounts, and
// the owner account itself can never be deleted.
func (s *AccountService) Delete(ctx context.Context, actor store.User, targetID int64) error {
	if !actor.Role.CanDeleteAccounts() {
		return ErrForbidden
	}
	target, err := s.queries.GetUserByID(ctx, targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("look up target: %w", err)
	}
	if target.Role == model.RoleOwner {
		return ErrProtectedTarget
	}

	if err := s.queries.DeleteUser(ctx, targetID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.events.LogWarning(ctx, model.EventCategoryUser, "account deleted", &actor.ID, "",
		map[string]any{"target_id": targetID, "handle": target.Handle})
	return nil
}

// uniqueHandle derives a handle from a display name, appending a
// numeric suffix until it is free.
func (s *AccountService) uniqueHandle(ctx context.Context, displayName string) (string, error) {
	base := util.Handleize(displayName)
	if base == "" {
		base = "member"
	}
	handle := base
	for i := 2; ; i++ {
		_, err := s.queries.GetUserByHandle(ctx, handle)
		if errors.Is(err, sql.ErrNoRows) {
			return handle, nil
		}
		if err != nil {
			return "", fmt.Errorf("check handle: %w", err)
		}
		handle = fmt.Sprintf("%s-%d", base, i)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
