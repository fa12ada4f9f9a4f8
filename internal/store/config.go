package store

import (
	"context"
	"database/sql"
	"time"
)

// Config is a key/value settings row. Intake scheduling, the legacy
// open flag, form field definitions and page content all live here.
type Config struct {
	Key       string        `json:"key"`
	Value     string        `json:"value"`
	UpdatedAt time.Time     `json:"updated_at"`
	UpdatedBy sql.NullInt64 `json:"updated_by,omitempty"`
}

// GetConfig fetches a single settings row. Missing keys return sql.ErrNoRows.
func (q *Queries) GetConfig(ctx context.Context, key string) (Config, error) {
	var c Config
	err := q.db.QueryRowContext(ctx,
		`SELECT key, value, updated_at, updated_by FROM config WHERE key = ?`, key).
		Scan(&c.Key, &c.Value, &c.UpdatedAt, &c.UpdatedBy)
	return c, err
}

// SetConfigParams holds parameters for SetConfig.
type SetConfigParams struct {
	Key       string
	Value     string
	UpdatedAt time.Time
	UpdatedBy sql.NullInt64
}

// SetConfig upserts a settings row.
func (q *Queries) SetConfig(ctx context.Context, arg SetConfigParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO config (key, value, updated_at, updated_by)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at,
			updated_by = excluded.updated_by`,
		arg.Key, arg.Value, arg.UpdatedAt, arg.UpdatedBy)
	return err
}

// DeleteConfig removes a settings row. Deleting a missing key is not an error.
func (q *Queries) DeleteConfig(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM config WHERE key = ?`, key)
	return err
}

// ListConfig returns all settings rows ordered by key.
func (q *Queries) ListConfig(ctx context.Context) ([]Config, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT key, value, updated_at, updated_by FROM config ORDER BY key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []Config
	for rows.Next() {
		var c Config
		if err := rows.Scan(&c.Key, &c.Value, &c.UpdatedAt, &c.UpdatedBy); err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}
