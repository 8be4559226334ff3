package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tailorck/parqr/internal/models"
)

// SQLitePostStore implements PostStore using SQLite.
type SQLitePostStore struct {
	db *sql.DB
}

// NewSQLitePostStore opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func NewSQLitePostStore(dbPath string) (*SQLitePostStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLitePostStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS courses (
		course_id TEXT PRIMARY KEY,
		known_post_ids TEXT NOT NULL,
		last_sync TIMESTAMP,
		num_posts INTEGER NOT NULL DEFAULT 0,
		num_students INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS posts (
		course_id TEXT NOT NULL,
		post_id INTEGER NOT NULL,
		modified TIMESTAMP,
		data TEXT NOT NULL,
		PRIMARY KEY (course_id, post_id)
	);

	CREATE INDEX IF NOT EXISTS idx_posts_course_id ON posts(course_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Course returns the course record, or ErrCourseNotFound.
func (s *SQLitePostStore) Course(ctx context.Context, courseID string) (*models.Course, error) {
	var course models.Course
	var knownJSON string
	var lastSync sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT course_id, known_post_ids, last_sync, num_posts, num_students
		 FROM courses WHERE course_id = ?`, courseID,
	).Scan(&course.CourseID, &knownJSON, &lastSync, &course.NumPosts, &course.NumStudents)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %s: %w", courseID, ErrCourseNotFound)
	}
	if err != nil {
		return nil, err
	}
	if lastSync.Valid {
		course.LastSync = lastSync.Time
	}
	if err := json.Unmarshal([]byte(knownJSON), &course.KnownPostIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal known post ids: %w", err)
	}
	return &course, nil
}

// Checkpoint returns the course's last sync watermark; zero time when the
// course has never been synced.
func (s *SQLitePostStore) Checkpoint(ctx context.Context, courseID string) (time.Time, error) {
	course, err := s.Course(ctx, courseID)
	if errors.Is(err, ErrCourseNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return course.LastSync, nil
}

// Posts returns all persisted posts for the course, ordered by post id.
func (s *SQLitePostStore) Posts(ctx context.Context, courseID string) ([]*models.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM posts WHERE course_id = ? ORDER BY post_id ASC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var post models.Post
		if err := json.Unmarshal([]byte(data), &post); err != nil {
			return nil, fmt.Errorf("failed to unmarshal post: %w", err)
		}
		posts = append(posts, &post)
	}
	return posts, rows.Err()
}

// Post returns one post, or ErrPostNotFound.
func (s *SQLitePostStore) Post(ctx context.Context, courseID string, postID int) (*models.Post, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM posts WHERE course_id = ? AND post_id = ?`, courseID, postID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s/%d: %w", courseID, postID, ErrPostNotFound)
	}
	if err != nil {
		return nil, err
	}
	var post models.Post
	if err := json.Unmarshal([]byte(data), &post); err != nil {
		return nil, fmt.Errorf("failed to unmarshal post: %w", err)
	}
	return &post, nil
}

// PostIDs returns the ids of all persisted posts, ascending.
func (s *SQLitePostStore) PostIDs(ctx context.Context, courseID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT post_id FROM posts WHERE course_id = ? ORDER BY post_id ASC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ApplySync atomically applies one sync pass in a single transaction: all
// upserts, all deletions, and the course record commit together.
func (s *SQLitePostStore) ApplySync(ctx context.Context, course *models.Course, upserts []*models.Post, deleteIDs []int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, post := range upserts {
		data, err := json.Marshal(post)
		if err != nil {
			return fmt.Errorf("failed to marshal post %d: %w", post.PostID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO posts (course_id, post_id, modified, data) VALUES (?, ?, ?, ?)
			 ON CONFLICT(course_id, post_id) DO UPDATE SET modified = excluded.modified, data = excluded.data`,
			post.CourseID, post.PostID, post.Modified, string(data))
		if err != nil {
			return fmt.Errorf("failed to upsert post %d: %w", post.PostID, err)
		}
	}

	for _, id := range deleteIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM posts WHERE course_id = ? AND post_id = ?`, course.CourseID, id); err != nil {
			return fmt.Errorf("failed to delete post %d: %w", id, err)
		}
	}

	knownJSON, err := json.Marshal(course.KnownPostIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal known post ids: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO courses (course_id, known_post_ids, last_sync, num_posts, num_students)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(course_id) DO UPDATE SET
			known_post_ids = excluded.known_post_ids,
			last_sync = excluded.last_sync,
			num_posts = excluded.num_posts,
			num_students = excluded.num_students`,
		course.CourseID, string(knownJSON), course.LastSync, course.NumPosts, course.NumStudents)
	if err != nil {
		return fmt.Errorf("failed to upsert course: %w", err)
	}

	return tx.Commit()
}

// Close closes the underlying database.
func (s *SQLitePostStore) Close() error {
	return s.db.Close()
}
