// Package storage defines the persistence interfaces for courses, posts, and
// trained sub-models, with SQLite and Badger implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/tailorck/parqr/internal/models"
	"github.com/tailorck/parqr/internal/tfidf"
)

var (
	// ErrCourseNotFound indicates the course has never been synced.
	ErrCourseNotFound = errors.New("course not found")
	// ErrPostNotFound indicates the post is not persisted for the course.
	ErrPostNotFound = errors.New("post not found")
	// ErrModelNotFound indicates no sub-model artifact is persisted for the
	// (course, kind) pair. Callers treat this as "absent", not a failure.
	ErrModelNotFound = errors.New("model not found")
)

// PostStore persists courses and their normalized posts.
type PostStore interface {
	// Course returns the course record, or ErrCourseNotFound.
	Course(ctx context.Context, courseID string) (*models.Course, error)
	// Checkpoint returns the course's last sync watermark; zero time when
	// the course has never been synced.
	Checkpoint(ctx context.Context, courseID string) (time.Time, error)
	// Posts returns all persisted posts for the course, ordered by post id.
	Posts(ctx context.Context, courseID string) ([]*models.Post, error)
	// Post returns one post, or ErrPostNotFound.
	Post(ctx context.Context, courseID string, postID int) (*models.Post, error)
	// PostIDs returns the ids of all persisted posts, ascending.
	PostIDs(ctx context.Context, courseID string) ([]int, error)
	// ApplySync atomically applies one sync pass: upserts, deletions, and
	// the course record (known ids, checkpoint, counters) commit together
	// or not at all.
	ApplySync(ctx context.Context, course *models.Course, upserts []*models.Post, deleteIDs []int) error

	Close() error
}

// ModelStore persists trained sub-models keyed by (course, kind).
type ModelStore interface {
	// Put stores one sub-model artifact as a single atomic unit.
	Put(ctx context.Context, courseID, kind string, model *tfidf.Model) error
	// Get loads one sub-model artifact, or ErrModelNotFound.
	Get(ctx context.Context, courseID, kind string) (*tfidf.Model, error)
	// Delete removes the artifact if present; absent artifacts are not an error.
	Delete(ctx context.Context, courseID, kind string) error

	Close() error
}
