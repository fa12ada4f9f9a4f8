package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/store"
)

// ApplicationService owns the application form definition and the
// review state machine.
type ApplicationService struct {
	queries  *store.Queries
	events   *EventService
	strict   *bluemonday.Policy // strips all markup from answers
	ugc      *bluemonday.Policy // allows safe markup in rendered messages
	markdown goldmark.Markdown
	now      func() time.Time
}

// NewApplicationService creates an ApplicationService.
func NewApplicationService(db *sql.DB, events *EventService) *ApplicationService {
	return &ApplicationService{
		queries: store.New(db),
		events:  events,
		strict:  bluemonday.StrictPolicy(),
		ugc:     bluemonday.UGCPolicy(),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		now: time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *ApplicationService) SetClock(now func() time.Time) {
	s.now = now
}

// Fields returns the current application form definition, falling back
// to the built-in default form when none has been saved.
func (s *ApplicationService) Fields(ctx context.Context) ([]model.AppField, error) {
	c, err := s.queries.GetConfig(ctx, model.ConfigKeyAppFields)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultAppFields, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load form fields: %w", err)
	}

	var fields []model.AppField
	if err := json.Unmarshal([]byte(c.Value), &fields); err != nil || len(fields) == 0 {
		return model.DefaultAppFields, nil
	}
	return fields, nil
}

// SaveFields replaces the application form definition. Requires site
// settings management rights.
func (s *ApplicationService) SaveFields(ctx context.Context, actor store.User, fields []model.AppField) error {
	if !actor.Role.CanManageSettings() {
		return ErrForbidden
	}

	problems := map[string]string{}
	seen := map[string]bool{}
	for i, f := range fields {
		key := fmt.Sprintf("fields[%d]", i)
		if f.ID == "" {
			problems[key] = "field ID is required"
			continue
		}
		if seen[f.ID] {
			problems[key] = fmt.Sprintf("duplicate field ID %q", f.ID)
		}
		seen[f.ID] = true
		if f.Label == "" {
			problems[key] = "field label is required"
		}
		if !model.ValidFieldType(f.Type) {
			problems[key] = fmt.Sprintf("unknown field type %q", f.Type)
		}
		if f.Type == model.FieldTypeSelect && len(f.Options) == 0 {
			problems[key] = "select fields need at least one option"
		}
	}
	if len(fields) == 0 {
		problems["fields"] = "at least one field is required"
	}
	if len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}

	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode form fields: %w", err)
	}
	err = s.queries.SetConfig(ctx, store.SetConfigParams{
		Key:       model.ConfigKeyAppFields,
		Value:     string(b),
		UpdatedAt: s.now().UTC(),
		UpdatedBy: sql.NullInt64{Int64: actor.ID, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("save form fields: %w", err)
	}

	s.events.LogInfo(ctx, model.EventCategoryConfig, "application form fields saved", &actor.ID, "",
		map[string]any{"count": len(fields)})
	return nil
}

// Submit creates a new application for the principal. Answers are an
// open field-ID-to-value mapping; required enabled fields must be
// present and non-empty. Submission itself is never gated on the
// intake status: whether the form is offered is the caller's concern.
func (s *ApplicationService) Submit(ctx context.Context, principal store.User, answers map[string]string) (store.Application, error) {
	fields, err := s.Fields(ctx)
	if err != nil {
		return store.Application{}, err
	}

	problems := map[string]string{}
	for _, f := range fields {
		if !f.Enabled || !f.Required {
			continue
		}
		if strings.TrimSpace(answers[f.ID]) == "" {
			problems[f.ID] = fmt.Sprintf("%s is required", f.Label)
		}
	}
	if len(problems) > 0 {
		return store.Application{}, &ValidationError{Fields: problems}
	}

	clean := make(map[string]string, len(answers))
	for k, v := range answers {
		clean[k] = s.strict.Sanitize(strings.TrimSpace(v))
	}
	encoded, err := json.Marshal(clean)
	if err != nil {
		return store.Application{}, fmt.Errorf("encode answers: %w", err)
	}

	// Repeat submissions are allowed, but a still-open earlier one is
	// worth flagging in the event log so reviewers notice it.
	repeat, err := s.queries.HasPendingApplication(ctx, principal.ID)
	if err != nil {
		return store.Application{}, fmt.Errorf("check pending application: %w", err)
	}

	app, err := s.queries.CreateApplication(ctx, store.CreateApplicationParams{
		ID:          uuid.NewString(),
		UserID:      principal.ID,
		Answers:     string(encoded),
		Status:      model.ApplicationPending,
		SubmittedAt: s.now().UTC(),
	})
	if err != nil {
		return store.Application{}, fmt.Errorf("create application: %w", err)
	}

	s.events.LogInfo(ctx, model.EventCategoryApplication, "application submitted", &principal.ID, "",
		map[string]any{"application_id": app.ID, "repeat_while_pending": repeat})
	return app, nil
}

// ApplicationView is an application as shown to its applicant: the
// reviewer message is rendered from Markdown, internal notes are
// omitted.
type ApplicationView struct {
	ID               string                  `json:"id"`
	Status           model.ApplicationStatus `json:"status"`
	Answers          map[string]string       `json:"answers"`
	SubmittedAt      time.Time               `json:"submitted_at"`
	ReviewedAt       *time.Time              `json:"reviewed_at,omitempty"`
	AdminMessage     string                  `json:"admin_message,omitempty"`
	AdminMessageHTML string                  `json:"admin_message_html,omitempty"`
}

// ListForUser returns the principal's own applications. No permission
// check: visibility is scoped to the owning user at the query.
func (s *ApplicationService) ListForUser(ctx context.Context, userID int64) ([]ApplicationView, error) {
	apps, err := s.queries.ListApplicationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	views := make([]ApplicationView, 0, len(apps))
	for _, a := range apps {
		v := ApplicationView{
			ID:           a.ID,
			Status:       a.Status,
			Answers:      decodeAnswers(a.Answers),
			SubmittedAt:  a.SubmittedAt,
			AdminMessage: a.AdminMessage,
		}
		if a.ReviewedAt.Valid {
			t := a.ReviewedAt.Time
			v.ReviewedAt = &t
		}
		if a.AdminMessage != "" {
			v.AdminMessageHTML = s.renderMarkdown(a.AdminMessage)
		}
		views = append(views, v)
	}
	return views, nil
}

// List returns applications for reviewers, optionally filtered by
// status. Requires application review rights.
func (s *ApplicationService) List(ctx context.Context, actor store.User, status model.ApplicationStatus) ([]store.Application, error) {
	if !actor.Role.CanReviewApplications() {
		return nil, ErrForbidden
	}
	if status == "" {
		return s.queries.ListApplications(ctx)
	}
	if !status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown application status"}}
	}
	return s.queries.ListApplicationsByStatus(ctx, status)
}

// Get fetches one application for a reviewer.
func (s *ApplicationService) Get(ctx context.Context, actor store.User, id string) (store.Application, error) {
	if !actor.Role.CanReviewApplications() {
		return store.Application{}, ErrForbidden
	}
	return s.getApplication(ctx, id)
}

// Transition moves an application to a new status. Any status may be
// reached from any other. Every move away from pending stamps
// reviewedAt; resetting to pending leaves the existing stamp in place.
func (s *ApplicationService) Transition(ctx context.Context, actor store.User, id string, newStatus model.ApplicationStatus) (store.Application, error) {
	if !actor.Role.CanReviewApplications() {
		return store.Application{}, ErrForbidden
	}
	if !newStatus.Valid() {
		return store.Application{}, &ValidationError{Fields: map[string]string{"status": "unknown application status"}}
	}

	app, err := s.getApplication(ctx, id)
	if err != nil {
		return store.Application{}, err
	}

	reviewedAt := app.ReviewedAt
	if newStatus != model.ApplicationPending {
		reviewedAt = sql.NullTime{Time: s.now().UTC(), Valid: true}
	}

	err = s.queries.UpdateApplicationStatus(ctx, store.UpdateApplicationStatusParams{
		Status:     newStatus,
		ReviewedAt: reviewedAt,
		ID:         id,
	})
	if err != nil {
		return store.Application{}, fmt.Errorf("update status: %w", err)
	}

	s.events.LogInfo(ctx, model.EventCategoryApplication, "application status changed", &actor.ID, "",
		map[string]any{"application_id": id, "from": string(app.Status), "to": string(newStatus)})
	return s.getApplication(ctx, id)
}

// SetNotes replaces the internal reviewer notes. Last write wins.
func (s *ApplicationService) SetNotes(ctx context.Context, actor store.User, id, notes string) error {
	if !actor.Role.CanReviewApplications() {
		return ErrForbidden
	}
	if _, err := s.getApplication(ctx, id); err != nil {
		return err
	}
	err := s.queries.UpdateApplicationNotes(ctx, store.UpdateApplicationNotesParams{
		Notes: notes,
		ID:    id,
	})
	if err != nil {
		return fmt.Errorf("update notes: %w", err)
	}
	return nil
}

// SetAdminMessage replaces the applicant-visible message. The raw
// Markdown is stored; rendering happens on the applicant read path.
func (s *ApplicationService) SetAdminMessage(ctx context.Context, actor store.User, id, message string) error {
	if !actor.Role.CanReviewApplications() {
		return ErrForbidden
	}
	if _, err := s.getApplication(ctx, id); err != nil {
		return err
	}
	err := s.queries.UpdateApplicationAdminMessage(ctx, store.UpdateApplicationAdminMessageParams{
		AdminMessage: message,
		ID:           id,
	})
	if err != nil {
		return fmt.Errorf("update admin message: %w", err)
	}

	s.events.LogInfo(ctx, model.EventCategoryApplication, "applicant message updated", &actor.ID, "",
		map[string]any{"application_id": id})
	return nil
}

// Delete removes an application. Requires application review rights.
func (s *ApplicationService) Delete(ctx context.Context, actor store.User, id string) error {
	if !actor.Role.CanReviewApplications() {
		return ErrForbidden
	}
	if _, err := s.getApplication(ctx, id); err != nil {
		return err
	}
	if err := s.queries.DeleteApplication(ctx, id); err != nil {
		return fmt.Errorf("delete application: %w", err)
	}

	s.events.LogWarning(ctx, model.EventCategoryApplication, "application deleted", &actor.ID, "",
		map[string]any{"application_id": id})
	return nil
}

// Stats summarizes application counts per status.
type Stats struct {
	Total    int64                             `json:"total"`
	ByStatus map[model.ApplicationStatus]int64 `json:"by_status"`
}

// Stats returns review queue statistics.
func (s *ApplicationService) Stats(ctx context.Context, actor store.User) (Stats, error) {
	if !actor.Role.CanReviewApplications() {
		return Stats{}, ErrForbidden
	}
	counts, err := s.queries.CountApplicationsByStatus(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count applications: %w", err)
	}

	out := Stats{ByStatus: make(map[model.ApplicationStatus]int64, len(model.ApplicationStatuses))}
	for _, st := range model.ApplicationStatuses {
		out.ByStatus[st] = 0
	}
	for _, c := range counts {
		out.ByStatus[c.Status] = c.Count
		out.Total += c.Count
	}
	return out, nil
}

func (s *ApplicationService) getApplication(ctx context.Context, id string) (store.Application, error) {
	app, err := s.queries.GetApplicationByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Application{}, ErrNotFound
	}
	if err != nil {
		return store.Application{}, fmt.Errorf("look up application: %w", err)
	}
	return app, nil
}

// renderMarkdown converts reviewer Markdown to sanitized HTML.
func (s *ApplicationService) renderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(src), &buf); err != nil {
		return s.ugc.Sanitize(src)
	}
	return s.ugc.Sanitize(buf.String())
}

func decodeAnswers(raw string) map[string]string {
	answers := map[string]string{}
	_ = json.Unmarshal([]byte(raw), &answers)
	return answers
}
