// Package forum provides access to the external forum API that hosts course posts.
package forum

import (
	"context"
	"errors"
	"time"
)

// ErrNotAccessible indicates a post the source will never return: deleted,
// private, or forbidden. Distinct from transient failures, which are
// returned as ordinary errors.
var ErrNotAccessible = errors.New("post not accessible")

// PostRef identifies one entry in the change feed.
type PostRef struct {
	PostID   int       `json:"post_id"`
	Modified time.Time `json:"modified"`
}

// RawAnswer is an un-normalized answer as returned by the source.
type RawAnswer struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	AuthorID string `json:"author_id"`
	Created  string `json:"created"`
}

// RawFollowup is an un-normalized followup discussion as returned by the source.
type RawFollowup struct {
	Subject   string   `json:"subject"`
	Responses []string `json:"responses"`
	Resolved  bool     `json:"resolved"`
}

// RawPost is the full post object as returned by the source. Content fields
// may contain HTML; the normalizer strips it.
type RawPost struct {
	PostID    int           `json:"post_id"`
	Status    string        `json:"status"`
	Subject   string        `json:"subject"`
	Content   string        `json:"content"`
	Folders   []string      `json:"folders"`
	Type      string        `json:"type"`
	Created   string        `json:"created"`
	Modified  string        `json:"modified"`
	Children  []RawAnswer   `json:"children"`
	Followups []RawFollowup `json:"followups"`
	NumViews  int           `json:"num_views"`
	Resolved  bool          `json:"resolved"`
	Assignees []string      `json:"assignees"`
}

// Source is the external forum API consumed by the synchronizer.
// All calls may fail transiently; PostDetail returns ErrNotAccessible for
// posts the caller should treat as deleted.
type Source interface {
	// Changes returns refs for posts modified after since.
	Changes(ctx context.Context, courseID string, since time.Time) ([]PostRef, error)
	// FullListing returns the complete set of currently accessible post ids.
	FullListing(ctx context.Context, courseID string) (map[int]struct{}, error)
	// PostDetail returns the full post object for one id.
	PostDetail(ctx context.Context, courseID string, postID int) (*RawPost, error)
}
