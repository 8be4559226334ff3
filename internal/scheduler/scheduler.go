// Package scheduler drives the periodic sync and model rebuild loop for
// the registered courses.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tailorck/parqr/internal/modeltrain"
	"github.com/tailorck/parqr/internal/syncer"
)

// CourseSyncer runs one sync pass and reports whether anything changed.
type CourseSyncer interface {
	Sync(ctx context.Context, courseID string) (bool, error)
}

// ModelRebuilder retrains a course's sub-models from persisted posts.
type ModelRebuilder interface {
	Rebuild(ctx context.Context, courseID string) error
}

// Scheduler syncs every registered course on a fixed interval and rebuilds
// a course's models whenever its sync pass reported changes. Failures are
// logged and retried on the next tick.
type Scheduler struct {
	syncer   CourseSyncer
	trainer  ModelRebuilder
	courses  []string
	interval time.Duration
	logger   *zap.Logger
}

func New(cs CourseSyncer, mr ModelRebuilder, courses []string, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		syncer:   cs,
		trainer:  mr,
		courses:  courses,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is canceled. The first pass starts immediately;
// subsequent passes run every interval.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		zap.Int("courses", len(s.courses)),
		zap.Duration("interval", s.interval),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

func (s *Scheduler) pass(ctx context.Context) {
	for _, courseID := range s.courses {
		if ctx.Err() != nil {
			return
		}
		s.update(ctx, courseID)
	}
}

func (s *Scheduler) update(ctx context.Context, courseID string) {
	changed, err := s.syncer.Sync(ctx, courseID)
	switch {
	case errors.Is(err, syncer.ErrSyncInProgress):
		s.logger.Debug("sync already running", zap.String("course_id", courseID))
		return
	case errors.Is(err, syncer.ErrCourseEmpty):
		s.logger.Warn("course has no accessible posts", zap.String("course_id", courseID))
		return
	case err != nil:
		s.logger.Error("sync pass failed",
			zap.String("course_id", courseID),
			zap.Error(err),
		)
		return
	}
	if !changed {
		return
	}

	if err := s.trainer.Rebuild(ctx, courseID); err != nil {
		if errors.Is(err, modeltrain.ErrNoPosts) {
			s.logger.Warn("no posts to train on", zap.String("course_id", courseID))
			return
		}
		s.logger.Error("model rebuild failed",
			zap.String("course_id", courseID),
			zap.Error(err),
		)
	}
}
