package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
)

// User is a member account row. Exactly one of the email or Discord
// identity column groups is populated, depending on AuthMethod.
type User struct {
	ID              int64          `json:"id"`
	Email           sql.NullString `json:"email"`
	PasswordHash    sql.NullString `json:"-"`
	DiscordID       sql.NullString `json:"discord_id"`
	DiscordUsername sql.NullString `json:"discord_username"`
	DiscordAvatar   sql.NullString `json:"discord_avatar"`
	DisplayName     string         `json:"display_name"`
	Handle          string         `json:"handle"`
	AuthMethod      string         `json:"auth_method"`
	Role            model.Role     `json:"role"`
	Status          string         `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	LastLoginAt     sql.NullTime   `json:"last_login_at,omitempty"`
}

const userColumns = `id, email, password_hash, discord_id, discord_username, discord_avatar,
	display_name, handle, auth_method, role, status, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.DiscordID, &u.DiscordUsername, &u.DiscordAvatar,
		&u.DisplayName, &u.Handle, &u.AuthMethod, &u.Role, &u.Status,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	return u, err
}

// CreateUserParams holds parameters for CreateUser.
type CreateUserParams struct {
	Email           sql.NullString
	PasswordHash    sql.NullString
	DiscordID       sql.NullString
	DiscordUsername sql.NullString
	DiscordAvatar   sql.NullString
	DisplayName     string
	Handle          string
	AuthMethod      string
	Role            model.Role
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateUser inserts a new user and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, discord_id, discord_username, discord_avatar,
			display_name, handle, auth_method, role, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Email, arg.PasswordHash, arg.DiscordID, arg.DiscordUsername, arg.DiscordAvatar,
		arg.DisplayName, arg.Handle, arg.AuthMethod, arg.Role, arg.Status,
		arg.CreatedAt, arg.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail fetches an email-method user by email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND auth_method = 'email'`, email))
}

// GetUserByDiscordID fetches a Discord-method user by provider ID.
func (q *Queries) GetUserByDiscordID(ctx context.Context, discordID string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE discord_id = ?`, discordID))
}

// GetUserByHandle fetches a user by handle.
func (q *Queries) GetUserByHandle(ctx context.Context, handle string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE handle = ?`, handle))
}

// ListUsers returns all users ordered by creation time.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the total number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// CountUsersByRole returns the number of users holding the given role.
func (q *Queries) CountUsersByRole(ctx context.Context, role model.Role) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, role).Scan(&n)
	return n, err
}

// UpdateUserRoleParams holds parameters for UpdateUserRole.
type UpdateUserRoleParams struct {
	Role      model.Role
	UpdatedAt time.Time
	ID        int64
}

// UpdateUserRole changes only the role field.
func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		arg.Role, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateUserPasswordParams holds parameters for UpdateUserPassword.
type UpdateUserPasswordParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           int64
}

// UpdateUserPassword changes only the password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateUserProfileParams holds parameters for UpdateUserProfile.
type UpdateUserProfileParams struct {
	DisplayName string
	Email       sql.NullString
	UpdatedAt   time.Time
	ID          int64
}

// UpdateUserProfile changes the display name and, for email accounts, the email.
func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET display_name = ?, email = COALESCE(?, email), updated_at = ? WHERE id = ?`,
		arg.DisplayName, arg.Email, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateDiscordProfileParams holds parameters for UpdateDiscordProfile.
type UpdateDiscordProfileParams struct {
	DiscordUsername sql.NullString
	DiscordAvatar   sql.NullString
	UpdatedAt       time.Time
	ID              int64
}

// UpdateDiscordProfile refreshes the provider-supplied profile fields.
func (q *Queries) UpdateDiscordProfile(ctx context.Context, arg UpdateDiscordProfileParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET discord_username = ?, discord_avatar = ?, updated_at = ? WHERE id = ?`,
		arg.DiscordUsername, arg.DiscordAvatar, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateUserStatusParams holds parameters for UpdateUserStatus.
type UpdateUserStatusParams struct {
	Status    string
	UpdatedAt time.Time
	ID        int64
}

// UpdateUserStatus changes only the active/banned status.
func (q *Queries) UpdateUserStatus(ctx context.Context, arg UpdateUserStatusParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET status = ?, updated_at = ? WHERE id = ?`,
		arg.Status, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateUserLastLoginParams holds parameters for UpdateUserLastLogin.
type UpdateUserLastLoginParams struct {
	LastLoginAt sql.NullTime
	ID          int64
}

// UpdateUserLastLogin stamps the last successful login time.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, arg UpdateUserLastLoginParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`,
		arg.LastLoginAt, arg.ID)
	return err
}

// DeleteUser removes a user row. Applications owned by the user are
// removed by the foreign key cascade.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}
