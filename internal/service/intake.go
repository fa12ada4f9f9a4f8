package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/store"
)

// IntakeState is the public snapshot of the application intake window.
type IntakeState struct {
	Status    model.IntakeStatus `json:"status"`
	OpenDate  *time.Time         `json:"openDate,omitempty"`
	CloseDate *time.Time         `json:"closeDate,omitempty"`
	Accepting bool               `json:"accepting"`
}

// IntakeService owns the intake status and its schedule. Reading the
// status is a check-and-mutate: an elapsed boundary date flips the
// status once and is consumed, so it can never re-trigger.
type IntakeService struct {
	queries *store.Queries
	events  *EventService

	// mu serializes the check-and-mutate so concurrent reads racing on
	// an elapsed boundary consume it at most once.
	mu  sync.Mutex
	now func() time.Time
}

// NewIntakeService creates an IntakeService.
func NewIntakeService(db *sql.DB, events *EventService) *IntakeService {
	return &IntakeService{
		queries: store.New(db),
		events:  events,
		now:     time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *IntakeService) SetClock(now func() time.Time) {
	s.now = now
}

// ReadCurrentStatus evaluates the schedule and returns the resulting
// intake state. An open date that has passed forces the status to open
// unless it is already open or ending_soon; a close date that has
// passed forces closed. Either way the elapsed date is deleted.
func (s *IntakeService) ReadCurrentStatus(ctx context.Context) (IntakeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := s.loadStatus(ctx)
	if err != nil {
		return IntakeState{}, err
	}
	openDate, err := s.loadDate(ctx, model.ConfigKeyIntakeOpenDate)
	if err != nil {
		return IntakeState{}, err
	}
	closeDate, err := s.loadDate(ctx, model.ConfigKeyIntakeCloseDate)
	if err != nil {
		return IntakeState{}, err
	}

	now := s.now()
	fired := false

	if openDate != nil && !now.Before(*openDate) {
		if status != model.IntakeOpen && status != model.IntakeEndingSoon {
			status = model.IntakeOpen
		}
		if err := s.queries.DeleteConfig(ctx, model.ConfigKeyIntakeOpenDate); err != nil {
			return IntakeState{}, fmt.Errorf("consume open date: %w", err)
		}
		openDate = nil
		fired = true
	}
	if closeDate != nil && !now.Before(*closeDate) {
		if status != model.IntakeClosed {
			status = model.IntakeClosed
		}
		if err := s.queries.DeleteConfig(ctx, model.ConfigKeyIntakeCloseDate); err != nil {
			return IntakeState{}, fmt.Errorf("consume close date: %w", err)
		}
		closeDate = nil
		fired = true
	}

	if fired {
		if err := s.persistStatus(ctx, status, sql.NullInt64{}); err != nil {
			return IntakeState{}, err
		}
		s.events.LogInfo(ctx, model.EventCategoryIntake, "intake schedule boundary applied", nil, "",
			map[string]any{"status": string(status)})
	}

	return IntakeState{
		Status:    status,
		OpenDate:  openDate,
		CloseDate: closeDate,
		Accepting: status.Accepting(),
	}, nil
}

// Accepting reports whether submissions are currently being accepted.
func (s *IntakeService) Accepting(ctx context.Context) (bool, error) {
	state, err := s.ReadCurrentStatus(ctx)
	if err != nil {
		return false, err
	}
	return state.Accepting, nil
}

// SaveParams are the inputs for Save. A nil date clears the stored
// boundary rather than writing a sentinel value.
type SaveParams struct {
	Status    model.IntakeStatus
	OpenDate  *time.Time
	CloseDate *time.Time
}

// Save replaces the manual status and schedule. Requires site settings
// management rights.
func (s *IntakeService) Save(ctx context.Context, actor store.User, p SaveParams) error {
	if !actor.Role.CanManageSettings() {
		return ErrForbidden
	}
	if !p.Status.Valid() {
		return &ValidationError{Fields: map[string]string{"status": "unknown intake status"}}
	}
	if p.OpenDate != nil && p.CloseDate != nil && !p.CloseDate.After(*p.OpenDate) {
		return &ValidationError{Fields: map[string]string{"closeDate": "close date must be after open date"}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updatedBy := sql.NullInt64{Int64: actor.ID, Valid: true}
	if err := s.persistStatus(ctx, p.Status, updatedBy); err != nil {
		return err
	}
	if err := s.saveDate(ctx, model.ConfigKeyIntakeOpenDate, p.OpenDate, updatedBy); err != nil {
		return err
	}
	if err := s.saveDate(ctx, model.ConfigKeyIntakeCloseDate, p.CloseDate, updatedBy); err != nil {
		return err
	}

	s.events.LogInfo(ctx, model.EventCategoryIntake, "intake settings saved", &actor.ID, "",
		map[string]any{"status": string(p.Status)})
	return nil
}

func (s *IntakeService) loadStatus(ctx context.Context) (model.IntakeStatus, error) {
	c, err := s.queries.GetConfig(ctx, model.ConfigKeyIntakeStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return model.IntakeClosed, nil
	}
	if err != nil {
		return "", fmt.Errorf("load intake status: %w", err)
	}
	status := model.IntakeStatus(c.Value)
	if !status.Valid() {
		return model.IntakeClosed, nil
	}
	return status, nil
}

func (s *IntakeService) loadDate(ctx context.Context, key string) (*time.Time, error) {
	c, err := s.queries.GetConfig(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	t, err := time.Parse(time.RFC3339, c.Value)
	if err != nil {
		// An unparsable date can never fire; drop it.
		_ = s.queries.DeleteConfig(ctx, key)
		return nil, nil
	}
	return &t, nil
}

func (s *IntakeService) saveDate(ctx context.Context, key string, t *time.Time, updatedBy sql.NullInt64) error {
	if t == nil {
		if err := s.queries.DeleteConfig(ctx, key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
		return nil
	}
	err := s.queries.SetConfig(ctx, store.SetConfigParams{
		Key:       key,
		Value:     t.UTC().Format(time.RFC3339),
		UpdatedAt: s.now().UTC(),
		UpdatedBy: updatedBy,
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// persistStatus writes the status and keeps the legacy accepting flag
// consistent with it.
func (s *IntakeService) persistStatus(ctx context.Context, status model.IntakeStatus, updatedBy sql.NullInt64) error {
	now := s.now().UTC()
	err := s.queries.SetConfig(ctx, store.SetConfigParams{
		Key:       model.ConfigKeyIntakeStatus,
		Value:     string(status),
		UpdatedAt: now,
		UpdatedBy: updatedBy,
	})
	if err != nil {
		return fmt.Errorf("save intake status: %w", err)
	}
	err = s.queries.SetConfig(ctx, store.SetConfigParams{
		Key:       model.ConfigKeyApplicationsOpen,
		Value:     strconv.FormatBool(status.Accepting()),
		UpdatedAt: now,
		UpdatedBy: updatedBy,
	})
	if err != nil {
		return fmt.Errorf("save legacy open flag: %w", err)
	}
	return nil
}
