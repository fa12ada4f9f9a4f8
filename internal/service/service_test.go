package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/cache"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/service"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/store"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/testutil"
)

const (
	testOwnerEmail    = "owner@dismine.com"
	testOwnerPassword = "dismine2025"
)

type services struct {
	db           *sql.DB
	queries      *store.Queries
	accounts     *service.AccountService
	applications *service.ApplicationService
	intake       *service.IntakeService
	content      *service.ContentService
	events       *service.EventService
}

func newServices(t *testing.T) *services {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	events := service.NewEventService(db)
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	return &services{
		db:           db,
		queries:      store.New(db),
		accounts:     service.NewAccountService(db, events, testOwnerEmail, testOwnerPassword),
		applications: service.NewApplicationService(db, events),
		intake:       service.NewIntakeService(db, events),
		content:      service.NewContentService(db, c, events),
		events:       events,
	}
}

// makeUser inserts an account with the given role directly, bypassing
// registration, for use as an acting principal in tests.
func makeUser(t *testing.T, q *store.Queries, handle string, role model.Role) store.User {
	t.Helper()
	now := time.Now().UTC()
	u, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:       sql.NullString{String: handle + "@test.local", Valid: true},
		DisplayName: handle,
		Handle:      handle,
		AuthMethod:  model.AuthMethodEmail,
		Role:        role,
		Status:      model.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("create %s user: %v", role, err)
	}
	return u
}
