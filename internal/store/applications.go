package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
)

// Application is a submitted member application. Answers is a JSON
// object keyed by form field ID.
type Application struct {
	ID           string                  `json:"id"`
	UserID       int64                   `json:"user_id"`
	Answers      string                  `json:"answers"`
	Status       model.ApplicationStatus `json:"status"`
	SubmittedAt  time.Time               `json:"submitted_at"`
	ReviewedAt   sql.NullTime            `json:"reviewed_at,omitempty"`
	Notes        string                  `json:"notes"`
	AdminMessage string                  `json:"admin_message"`
}

const applicationColumns = `id, user_id, answers, status, submitted_at, reviewed_at, notes, admin_message`

func scanApplication(row interface{ Scan(...any) error }) (Application, error) {
	var a Application
	err := row.Scan(
		&a.ID, &a.UserID, &a.Answers, &a.Status,
		&a.SubmittedAt, &a.ReviewedAt, &a.Notes, &a.AdminMessage,
	)
	return a, err
}

// CreateApplicationParams holds parameters for CreateApplication.
type CreateApplicationParams struct {
	ID          string
	UserID      int64
	Answers     string
	Status      model.ApplicationStatus
	SubmittedAt time.Time
}

// CreateApplication inserts a new application row.
func (q *Queries) CreateApplication(ctx context.Context, arg CreateApplicationParams) (Application, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO applications (id, user_id, answers, status, submitted_at)
		VALUES (?, ?, ?, ?, ?)`,
		arg.ID, arg.UserID, arg.Answers, arg.Status, arg.SubmittedAt,
	)
	if err != nil {
		return Application{}, err
	}
	return q.GetApplicationByID(ctx, arg.ID)
}

// GetApplicationByID fetches an application by its UUID.
func (q *Queries) GetApplicationByID(ctx context.Context, id string) (Application, error) {
	return scanApplication(q.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id))
}

func collectApplications(rows *sql.Rows) ([]Application, error) {
	defer rows.Close()
	var apps []Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// ListApplications returns all applications, newest first.
func (q *Queries) ListApplications(ctx context.Context) ([]Application, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications ORDER BY submitted_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

// ListApplicationsByStatus returns applications in the given status, newest first.
func (q *Queries) ListApplicationsByStatus(ctx context.Context, status model.ApplicationStatus) ([]Application, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE status = ? ORDER BY submitted_at DESC, id DESC`,
		status)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

// ListApplicationsByUser returns a user's applications, newest first.
func (q *Queries) ListApplicationsByUser(ctx context.Context, userID int64) ([]Application, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE user_id = ? ORDER BY submitted_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

// UpdateApplicationStatusParams holds parameters for UpdateApplicationStatus.
type UpdateApplicationStatusParams struct {
	Status     model.ApplicationStatus
	ReviewedAt sql.NullTime
	ID         string
}

// UpdateApplicationStatus moves an application to a new review status.
// ReviewedAt is written as given; passing an invalid NullTime clears it.
func (q *Queries) UpdateApplicationStatus(ctx context.Context, arg UpdateApplicationStatusParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE applications SET status = ?, reviewed_at = ? WHERE id = ?`,
		arg.Status, arg.ReviewedAt, arg.ID)
	return err
}

// UpdateApplicationNotesParams holds parameters for UpdateApplicationNotes.
type UpdateApplicationNotesParams struct {
	Notes string
	ID    string
}

// UpdateApplicationNotes replaces the internal reviewer notes.
func (q *Queries) UpdateApplicationNotes(ctx context.Context, arg UpdateApplicationNotesParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE applications SET notes = ? WHERE id = ?`,
		arg.Notes, arg.ID)
	return err
}

// UpdateApplicationAdminMessageParams holds parameters for UpdateApplicationAdminMessage.
type UpdateApplicationAdminMessageParams struct {
	AdminMessage string
	ID           string
}

// UpdateApplicationAdminMessage replaces the applicant-visible message.
func (q *Queries) UpdateApplicationAdminMessage(ctx context.Context, arg UpdateApplicationAdminMessageParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE applications SET admin_message = ? WHERE id = ?`,
		arg.AdminMessage, arg.ID)
	return err
}

// DeleteApplication removes an application row.
func (q *Queries) DeleteApplication(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id)
	return err
}

// ApplicationStatusCount is one row of CountApplicationsByStatus.
type ApplicationStatusCount struct {
	Status model.ApplicationStatus `json:"status"`
	Count  int64                   `json:"count"`
}

// CountApplicationsByStatus returns per-status application counts.
func (q *Queries) CountApplicationsByStatus(ctx context.Context) ([]ApplicationStatusCount, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []ApplicationStatusCount
	for rows.Next() {
		var c ApplicationStatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// CountApplications returns the total number of applications.
func (q *Queries) CountApplications(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications`).Scan(&n)
	return n, err
}

// HasPendingApplication reports whether the user already has an
// application awaiting review.
func (q *Queries) HasPendingApplication(ctx context.Context, userID int64) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications WHERE user_id = ? AND status IN (?, ?)`,
		userID, model.ApplicationPending, model.ApplicationUnderReview).Scan(&n)
	return n > 0, err
}
