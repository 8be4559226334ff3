// Package recommend serves nearest-neighbor post recommendations from cached
// per-course TF-IDF sub-models.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tailorck/parqr/internal/modeltrain"
	"github.com/tailorck/parqr/internal/storage"
	"github.com/tailorck/parqr/internal/tfidf"
)

// courseEntry holds one course's loaded sub-models. Entries are replaced
// wholesale on reload and never mutated, so the model map may be shared with
// readers without copying.
type courseEntry struct {
	models   map[modeltrain.Kind]*tfidf.Model
	lastLoad time.Time
}

// Cache is an in-memory, per-course holder of loaded sub-models with
// TTL-based reload. Staleness after a model rebuild is bounded by the
// reload delay.
type Cache struct {
	store       storage.ModelStore
	reloadDelay time.Duration
	now         func() time.Time
	logger      *zap.Logger

	mu      sync.RWMutex
	courses map[string]*courseEntry
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock overrides the cache's time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a cache over the model store. logger may be nil.
func NewCache(store storage.ModelStore, reloadDelay time.Duration, logger *zap.Logger, opts ...CacheOption) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		store:       store,
		reloadDelay: reloadDelay,
		now:         time.Now,
		logger:      logger,
		courses:     make(map[string]*courseEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Models returns the course's loaded sub-models, reloading all kinds from
// the store when no entry exists or the entry is older than the reload
// delay. Kinds with no persisted artifact are absent from the map. The
// returned map must not be mutated.
func (c *Cache) Models(ctx context.Context, courseID string) (map[modeltrain.Kind]*tfidf.Model, error) {
	c.mu.RLock()
	entry, ok := c.courses[courseID]
	if ok && c.now().Sub(entry.lastLoad) <= c.reloadDelay {
		c.mu.RUnlock()
		return entry.models, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have reloaded while we waited for the lock.
	if entry, ok := c.courses[courseID]; ok && c.now().Sub(entry.lastLoad) <= c.reloadDelay {
		return entry.models, nil
	}

	models, err := c.loadAll(ctx, courseID)
	if err != nil {
		return nil, err
	}
	c.courses[courseID] = &courseEntry{models: models, lastLoad: c.now()}
	c.logger.Debug("course models loaded",
		zap.String("course_id", courseID),
		zap.Int("kinds", len(models)),
	)
	return models, nil
}

func (c *Cache) loadAll(ctx context.Context, courseID string) (map[modeltrain.Kind]*tfidf.Model, error) {
	models := make(map[modeltrain.Kind]*tfidf.Model)
	for _, kind := range modeltrain.Kinds() {
		model, err := c.store.Get(ctx, courseID, kind.String())
		if errors.Is(err, storage.ErrModelNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s model for %s: %w", kind, courseID, err)
		}
		models[kind] = model
	}
	return models, nil
}

// Invalidate drops the course's entry so the next request reloads.
func (c *Cache) Invalidate(courseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.courses, courseID)
}
