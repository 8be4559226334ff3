package models

import "time"

// Course holds per-course sync state and denormalized counters.
// KnownPostIDs is always the exact set of post ids currently persisted for
// the course; it is updated atomically with the upserts and deletions of the
// same sync pass.
type Course struct {
	CourseID     string    `json:"course_id"`
	KnownPostIDs []int     `json:"known_post_ids"`
	LastSync     time.Time `json:"last_sync"`
	NumPosts     int       `json:"num_posts"`
	NumStudents  int       `json:"num_students"`
}

// KnownSet returns KnownPostIDs as a set for membership tests.
func (c *Course) KnownSet() map[int]struct{} {
	set := make(map[int]struct{}, len(c.KnownPostIDs))
	for _, id := range c.KnownPostIDs {
		set[id] = struct{}{}
	}
	return set
}
