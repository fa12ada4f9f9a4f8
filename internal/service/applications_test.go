package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/service"
)

func completeAnswers() map[string]string {
	return map[string]string{
		"username":   "CraftySteve",
		"discord":    "craftysteve",
		"age":        "19",
		"timezone":   "UTC+00:00 to UTC+03:00 (Europe/Africa)",
		"why":        "Looking for a long-term community.",
		"experience": "Three years across two SMPs.",
	}
}

func TestSubmitAndListForUser(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	applicant := makeUser(t, s.queries, "applicant", model.RoleUser)

	app, err := s.applications.Submit(ctx, applicant, completeAnswers())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if app.Status != model.ApplicationPending {
		t.Errorf("Status = %q, want %q", app.Status, model.ApplicationPending)
	}
	if app.ReviewedAt.Valid {
		t.Error("new application must not carry a review timestamp")
	}

	mine, err := s.applications.ListForUser(ctx, applicant.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("ListForUser = %d entries, want 1", len(mine))
	}
	if mine[0].Status != model.ApplicationPending || mine[0].ReviewedAt != nil {
		t.Errorf("entry = %+v, want pending with no reviewedAt", mine[0])
	}
	if mine[0].Answers["username"] != "CraftySteve" {
		t.Errorf("answers lost: %v", mine[0].Answers)
	}

	// Other users' listings stay empty.
	other := makeUser(t, s.queries, "other", model.RoleUser)
	theirs, err := s.applications.ListForUser(ctx, other.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(theirs) != 0 {
		t.Errorf("other user sees %d entries, want 0", len(theirs))
	}
}

func TestSubmitRequiredFieldValidation(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	applicant := makeUser(t, s.queries, "applicant", model.RoleUser)

	answers := completeAnswers()
	delete(answers, "why")
	answers["age"] = "   "

	_, err := s.applications.Submit(ctx, applicant, answers)
	ve, ok := service.AsValidationError(err)
	if !ok {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	for _, field := range []string{"why", "age"} {
		if _, present := ve.Fields[field]; !present {
			t.Errorf("ValidationError missing %q: %v", field, ve.Fields)
		}
	}
}

func TestSubmitSanitizesAnswers(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	applicant := makeUser(t, s.queries, "applicant", model.RoleUser)

	answers := completeAnswers()
	answers["why"] = `<script>alert("x")</script>genuine interest`

	_, err := s.applications.Submit(ctx, applicant, answers)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	mine, err := s.applications.ListForUser(ctx, applicant.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if got := mine[0].Answers["why"]; strings.Contains(got, "<script>") {
		t.Errorf("answer not sanitized: %q", got)
	}
}

func TestSubmitAllowsRepeatApplications(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	applicant := makeUser(t, s.queries, "applicant", model.RoleUser)

	for i := 0; i < 3; i++ {
		if _, err := s.applications.Submit(ctx, applicant, completeAnswers()); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	mine, _ := s.applications.ListForUser(ctx, applicant.ID)
	if len(mine) != 3 {
		t.Errorf("entries = %d, want 3; re-applying is allowed", len(mine))
	}
}

func TestTransitionStampsReviewedAt(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	applicant := makeUser(t, s.queries, "applicant", model.RoleUser)
	manager := makeUser(t, s.queries, "manager", model.RoleManager)

	reviewTime := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	s.applications.SetClock(fixedClock(reviewTime))

	app, err := s.applications.Submit(ctx, applicant, completeAnswers())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	approved, err := s.applications.Transition(ctx, manager, app.ID, model.ApplicationApproved)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if approved.Status != model.ApplicationApproved {
		t.Errorf("Status = %q, want approved", approved.Status)
	}
	if !approved.ReviewedAt.Valid || !approved.ReviewedAt.Time.Equal(reviewTime) {
		t.Errorf("ReviewedAt = %v, want %v", approved.ReviewedAt, reviewTime)
	}

	// Resetting to pending keeps the original review stamp.
	s.applications.SetClock(fixedClock(reviewTime.Add(time.Hour)))
	reset, err := s.applications.Transition(ctx, manager, app.ID, model.ApplicationPending)
	if err != nil {
		t.Fatalf("Transition to pending: %v", err)
	}
	if reset.Status != model.ApplicationPending {
		t.Errorf("Status = %q, want pending", reset.Status)
	}
	if !reset.ReviewedAt.Valid || !reset.ReviewedAt.Time.Equal(reviewTime) {
		t.Errorf("ReviewedAt = %v, want unchanged %v", reset.ReviewedAt, reviewTime)
	}
}

func TestTransitionFullyConnected(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	applicant := makeUser(t, s.queries, "applicant", model.RoleUser)
	manager := makeUser(t, s.queries, "manager", model.RoleManager)

	app, err := s.applications.Submit(ctx, applicant, completeAnswers())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Any status reaches any other, including corrections backwards.
	sequence := []model.ApplicationStatus{
		model.ApplicationUnderReview,
		model.ApplicationRejected,
		model.ApplicationApproved,
		model.ApplicationPending,
		model.ApplicationApproved,
	}
	for _, status := range sequence {
		got, err := s.applications.Transition(ctx, manager, app.ID, status)
		if err != nil {
			t.Fatalf("Transition to %q: %v", status, err)
		}
		if got.Status != status {
			t.Errorf("Status = %q, want %q", got.Status, status)
		}
	}
}

func TestTransitionPermissions(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	applicant := makeUser(t, s.queries, "applicant", model.RoleUser)

	app, err := s.applications.Submit(ctx, applicant, completeAnswers())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Staff and builder rank below manager and may not review.
	for _, role := range []model.Role{model.RoleUser, model.RoleBuilder, model.RoleStaff} {
		actor := makeUser(t, s.queries, "actor-"+string(role), role)
		if _, err := s.applications.Transition(ctx, actor, app.ID, model.ApplicationApproved); !errors.Is(err, service.ErrForbidden) {
			t.Errorf("%s transition err = %v, want ErrForbidden", role, err)
		}
	}
	for _, role := range []model.Role{model.RoleManager, model.RoleAdmin, model.RoleOwner} {
		actor := makeUser(t, s.queries, "reviewer-"+string(role), role)
		if _, err := s.applications.Transition(ctx, actor, app.ID, model.ApplicationApproved); err != nil {
			t.Errorf("%s transition: %v", role, err)
		}
	}
}

func TestTransitionNotFound(t *testing.T) {
	s := newServices(t)
	manager := makeUser(t, s.queries, "manager", model.RoleManager)

	_, err := s.applications.Transition(context.Background(), manager, "no-such-id", model.ApplicationApproved)
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestNotesAndAdminMessage(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	applicant := makeUser(t, s.queries, "applicant", model.RoleUser)
	manager := makeUser(t, s.queries, "manager", model.RoleManager)

	app, err := s.applications.Submit(ctx, applicant, completeAnswers())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Last write wins, no history.
	if err := s.applications.SetNotes(ctx, manager, app.ID, "first pass"); err != nil {
		t.Fatalf("SetNotes: %v", err)
	}
	if err := s.applications.SetNotes(ctx, manager, app.ID, "second pass"); err != nil {
		t.Fatalf("SetNotes: %v", err)
	}
	got, err := s.applications.Get(ctx, manager, app.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Notes != "second pass" {
		t.Errorf("Notes = %q, want %q", got.Notes, "second pass")
	}

	if err := s.applications.SetAdminMessage(ctx, manager, app.ID, "**Welcome!** See you on the server."); err != nil {
		t.Fatalf("SetAdminMessage: %v", err)
	}
	mine, err := s.applications.ListForUser(ctx, applicant.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if !strings.Contains(mine[0].AdminMessageHTML, "<strong>Welcome!</strong>") {
		t.Errorf("AdminMessageHTML = %q, want rendered markdown", mine[0].AdminMessageHTML)
	}

	// Applicants never see internal notes through their view.
	if strings.Contains(mine[0].AdminMessageHTML, "second pass") {
		t.Error("internal notes leaked into applicant view")
	}
}

func TestDeleteApplication(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	applicant := makeUser(t, s.queries, "applicant", model.RoleUser)
	manager := makeUser(t, s.queries, "manager", model.RoleManager)

	app, err := s.applications.Submit(ctx, applicant, completeAnswers())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := s.applications.Delete(ctx, applicant, app.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("applicant delete err = %v, want ErrForbidden", err)
	}
	if err := s.applications.Delete(ctx, manager, app.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.applications.Get(ctx, manager, app.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("deleted app err = %v, want ErrNotFound", err)
	}
}

func TestListAndStats(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	applicant := makeUser(t, s.queries, "applicant", model.RoleUser)
	manager := makeUser(t, s.queries, "manager", model.RoleManager)

	for i := 0; i < 3; i++ {
		app, err := s.applications.Submit(ctx, applicant, completeAnswers())
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if i == 0 {
			if _, err := s.applications.Transition(ctx, manager, app.ID, model.ApplicationApproved); err != nil {
				t.Fatalf("Transition: %v", err)
			}
		}
	}

	if _, err := s.applications.List(ctx, applicant, ""); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("user list err = %v, want ErrForbidden", err)
	}

	all, err := s.applications.List(ctx, manager, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List = %d, want 3", len(all))
	}

	pending, err := s.applications.List(ctx, manager, model.ApplicationPending)
	if err != nil {
		t.Fatalf("List pending: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending = %d, want 2", len(pending))
	}

	stats, err := s.applications.Stats(ctx, manager)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.ByStatus[model.ApplicationPending] != 2 || stats.ByStatus[model.ApplicationApproved] != 1 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestFormFields(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	// Defaults before any admin customization.
	fields, err := s.applications.Fields(ctx)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if len(fields) != 6 {
		t.Errorf("default fields = %d, want 6", len(fields))
	}

	admin := makeUser(t, s.queries, "admin", model.RoleAdmin)
	custom := []model.AppField{
		{ID: "username", Label: "Minecraft Username", Type: model.FieldTypeText, Required: true, Enabled: true},
		{ID: "referral", Label: "Who invited you?", Type: model.FieldTypeText, Enabled: true},
	}
	if err := s.applications.SaveFields(ctx, admin, custom); err != nil {
		t.Fatalf("SaveFields: %v", err)
	}

	fields, err = s.applications.Fields(ctx)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if len(fields) != 2 || fields[1].ID != "referral" {
		t.Errorf("fields = %+v, want saved custom form", fields)
	}

	// Validation now runs against the custom form.
	applicant := makeUser(t, s.queries, "applicant", model.RoleUser)
	if _, err := s.applications.Submit(ctx, applicant, map[string]string{"referral": "a friend"}); err == nil {
		t.Error("expected validation error for missing username")
	}
	if _, err := s.applications.Submit(ctx, applicant, map[string]string{"username": "Steve"}); err != nil {
		t.Errorf("Submit with optional field absent: %v", err)
	}
}

func TestSaveFieldsValidation(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	manager := makeUser(t, s.queries, "manager", model.RoleManager)
	if err := s.applications.SaveFields(ctx, manager, model.DefaultAppFields); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("manager SaveFields err = %v, want ErrForbidden", err)
	}

	admin := makeUser(t, s.queries, "admin", model.RoleAdmin)
	bad := [][]model.AppField{
		{},
		{{ID: "", Label: "x", Type: model.FieldTypeText}},
		{{ID: "a", Label: "", Type: model.FieldTypeText}},
		{{ID: "a", Label: "x", Type: "checkbox"}},
		{{ID: "a", Label: "x", Type: model.FieldTypeText}, {ID: "a", Label: "y", Type: model.FieldTypeText}},
		{{ID: "a", Label: "x", Type: model.FieldTypeSelect}},
	}
	for i, fields := range bad {
		if err := s.applications.SaveFields(ctx, admin, fields); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
