// Package syncer pulls a course's post tree from the external forum and
// reconciles it against local state.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tailorck/parqr/internal/forum"
	"github.com/tailorck/parqr/internal/models"
	"github.com/tailorck/parqr/internal/normalize"
	"github.com/tailorck/parqr/internal/storage"
)

var (
	// ErrSyncInProgress indicates another sync pass holds the course. The
	// caller should retry after the running pass completes.
	ErrSyncInProgress = errors.New("sync already in progress for course")
	// ErrCourseEmpty indicates a brand-new course retained zero posts,
	// which usually means the credentials have no access to it.
	ErrCourseEmpty = errors.New("course yielded no accessible posts")
)

// Synchronizer runs incremental sync passes. Passes for different courses
// may run concurrently; passes for the same course are mutually exclusive.
type Synchronizer struct {
	source      forum.Source
	store       storage.PostStore
	norm        *normalize.Normalizer
	logger      *zap.Logger
	passTimeout time.Duration

	mu     sync.Mutex
	active map[string]struct{}
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithPassTimeout bounds one sync pass, including all external fetches.
// Zero disables the bound.
func WithPassTimeout(d time.Duration) Option {
	return func(s *Synchronizer) { s.passTimeout = d }
}

// New creates a Synchronizer. logger may be nil.
func New(source forum.Source, store storage.PostStore, logger *zap.Logger, opts ...Option) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Synchronizer{
		source: source,
		store:  store,
		norm:   normalize.New(),
		logger: logger,
		active: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync runs one pass for the course: fetch the change feed since the last
// checkpoint, normalize changed posts, tombstone posts absent from the full
// listing, and commit everything with the advanced checkpoint in a single
// batch. Returns whether any upserts or deletions were applied. A failure
// leaves the checkpoint and all persisted state untouched, so the next
// attempt retries the same window.
func (s *Synchronizer) Sync(ctx context.Context, courseID string) (bool, error) {
	if !s.acquire(courseID) {
		return false, fmt.Errorf("course %s: %w", courseID, ErrSyncInProgress)
	}
	defer s.release(courseID)

	if s.passTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.passTimeout)
		defer cancel()
	}

	runID := uuid.New().String()
	start := time.Now()
	logger := s.logger.With(zap.String("course_id", courseID), zap.String("run_id", runID))

	prev, err := s.store.Course(ctx, courseID)
	newCourse := false
	if errors.Is(err, storage.ErrCourseNotFound) {
		prev = &models.Course{CourseID: courseID}
		newCourse = true
	} else if err != nil {
		return false, fmt.Errorf("read course state: %w", err)
	}

	refs, err := s.source.Changes(ctx, courseID, prev.LastSync)
	if err != nil {
		return false, fmt.Errorf("change feed for %s: %w", courseID, err)
	}

	listing, err := s.source.FullListing(ctx, courseID)
	if err != nil {
		return false, fmt.Errorf("full listing for %s: %w", courseID, err)
	}

	upserts, inaccessible, checkpoint, err := s.fetchChanged(ctx, courseID, refs, prev.LastSync)
	if err != nil {
		return false, err
	}

	deleteIDs := s.staleIDs(prev, listing, inaccessible, upserts, logger)

	known := nextKnownSet(prev, upserts, deleteIDs)

	if newCourse && len(known) == 0 {
		return false, fmt.Errorf("course %s: %w", courseID, ErrCourseEmpty)
	}

	changed := len(upserts) > 0 || len(deleteIDs) > 0
	if !changed && !newCourse {
		logger.Debug("sync pass found no changes", zap.Duration("elapsed", time.Since(start)))
		return false, nil
	}

	course := &models.Course{
		CourseID:     courseID,
		KnownPostIDs: known,
		LastSync:     checkpoint,
		NumPosts:     len(known),
		NumStudents:  prev.NumStudents,
	}
	if err := s.store.ApplySync(ctx, course, upserts, deleteIDs); err != nil {
		return false, fmt.Errorf("commit sync pass for %s: %w", courseID, err)
	}

	logger.Info("sync pass committed",
		zap.Int("upserts", len(upserts)),
		zap.Int("deletions", len(deleteIDs)),
		zap.Int("num_posts", len(known)),
		zap.Time("checkpoint", checkpoint),
		zap.Duration("elapsed", time.Since(start)),
	)
	return changed, nil
}

// fetchChanged fetches and normalizes each changed post. Posts the source
// reports as deleted or private are collected separately; any transient
// fetch failure aborts the pass. The returned checkpoint is the highest
// modification time observed in the feed, or the previous checkpoint when
// the feed is empty.
func (s *Synchronizer) fetchChanged(ctx context.Context, courseID string, refs []forum.PostRef, prevCheckpoint time.Time) ([]*models.Post, map[int]struct{}, time.Time, error) {
	var upserts []*models.Post
	inaccessible := make(map[int]struct{})
	checkpoint := prevCheckpoint

	for _, ref := range refs {
		if ref.Modified.After(checkpoint) {
			checkpoint = ref.Modified
		}
		raw, err := s.source.PostDetail(ctx, courseID, ref.PostID)
		if errors.Is(err, forum.ErrNotAccessible) {
			inaccessible[ref.PostID] = struct{}{}
			continue
		}
		if err != nil {
			return nil, nil, time.Time{}, fmt.Errorf("post detail %d for %s: %w", ref.PostID, courseID, err)
		}
		upserts = append(upserts, s.norm.Post(courseID, raw))
	}
	return upserts, inaccessible, checkpoint, nil
}

// staleIDs returns the previously known ids that must be tombstoned: those
// absent from the full listing or explicitly reported inaccessible. An empty
// listing for a course that previously held posts is treated as a source
// hiccup, not a mass deletion. Ids being upserted in the same pass are never
// staged for deletion.
func (s *Synchronizer) staleIDs(prev *models.Course, listing map[int]struct{}, inaccessible map[int]struct{}, upserts []*models.Post, logger *zap.Logger) []int {
	if len(prev.KnownPostIDs) == 0 {
		return nil
	}
	if len(listing) == 0 {
		logger.Warn("full listing came back empty for a non-empty course, skipping deletions")
		listing = prev.KnownSet()
	}
	upserted := make(map[int]struct{}, len(upserts))
	for _, post := range upserts {
		upserted[post.PostID] = struct{}{}
	}

	var stale []int
	for _, id := range prev.KnownPostIDs {
		if _, fresh := upserted[id]; fresh {
			continue
		}
		_, listed := listing[id]
		_, gone := inaccessible[id]
		if !listed || gone {
			stale = append(stale, id)
		}
	}
	sort.Ints(stale)
	return stale
}

// nextKnownSet computes the exact post id set persisted after the pass.
func nextKnownSet(prev *models.Course, upserts []*models.Post, deleteIDs []int) []int {
	next := prev.KnownSet()
	for _, id := range deleteIDs {
		delete(next, id)
	}
	for _, post := range upserts {
		next[post.PostID] = struct{}{}
	}
	ids := make([]int, 0, len(next))
	for id := range next {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Synchronizer) acquire(courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.active[courseID]; busy {
		return false
	}
	s.active[courseID] = struct{}{}
	return true
}

func (s *Synchronizer) release(courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, courseID)
}
