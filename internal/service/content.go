package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/cache"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/model"
	"github.com/AashishShrestha007/DismineSMP-v1/internal/store"
)

const contentCacheTTL = 5 * time.Minute

// ContentService is the key-value site content store the public pages
// read: social links, server info, season info, rules. Values are
// opaque documents; last write wins. Reads go through the cache.
type ContentService struct {
	queries *store.Queries
	cache   cache.Cacher
	events  *EventService
	now     func() time.Time
}

// NewContentService creates a ContentService.
func NewContentService(db *sql.DB, c cache.Cacher, events *EventService) *ContentService {
	return &ContentService{
		queries: store.New(db),
		cache:   c,
		events:  events,
		now:     time.Now,
	}
}

func contentCacheKey(key string) string {
	return "content:" + key
}

// Get returns the stored document for a content key, or an empty
// string when nothing has been written yet. Unknown keys are ErrNotFound.
func (s *ContentService) Get(ctx context.Context, key string) (string, error) {
	if !model.IsContentKey(key) {
		return "", ErrNotFound
	}

	if cached, err := s.cache.Get(ctx, contentCacheKey(key)); err == nil {
		return string(cached), nil
	}

	c, err := s.queries.GetConfig(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load content %s: %w", key, err)
	}

	_ = s.cache.Set(ctx, contentCacheKey(key), []byte(c.Value), contentCacheTTL)
	return c.Value, nil
}

// Set replaces the document for a content key. Requires site settings
// management rights.
func (s *ContentService) Set(ctx context.Context, actor store.User, key, value string) error {
	if !actor.Role.CanManageSettings() {
		return ErrForbidden
	}
	if !model.IsContentKey(key) {
		return ErrNotFound
	}

	err := s.queries.SetConfig(ctx, store.SetConfigParams{
		Key:       key,
		Value:     value,
		UpdatedAt: s.now().UTC(),
		UpdatedBy: sql.NullInt64{Int64: actor.ID, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("save content %s: %w", key, err)
	}
	_ = s.cache.Delete(ctx, contentCacheKey(key))

	s.events.LogInfo(ctx, model.EventCategoryConfig, "site content updated", &actor.ID, "",
		map[string]any{"key": key})
	return nil
}
