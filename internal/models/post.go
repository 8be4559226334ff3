// Package models defines core data structures for courses, posts, and recommendations.
package models

import (
	"strings"
	"time"
)

// Answer is a student or instructor answer attached to a post.
type Answer struct {
	Text     string    `json:"text"`
	AuthorID string    `json:"author_id,omitempty"`
	Created  time.Time `json:"created,omitempty"`
}

// Followup is one followup discussion on a post, with its responses in order.
type Followup struct {
	Text      string   `json:"text"`
	Responses []string `json:"responses"`
}

// Post represents one forum question or note, normalized from the external source.
// Body and answer texts are plain text with HTML already stripped.
type Post struct {
	CourseID               string     `json:"course_id"`
	PostID                 int        `json:"post_id"`
	Created                time.Time  `json:"created"`
	Modified               time.Time  `json:"modified"`
	Subject                string     `json:"subject"`
	Body                   string     `json:"body"`
	Tags                   []string   `json:"tags,omitempty"`
	PostType               string     `json:"post_type,omitempty"`
	SAnswer                *Answer    `json:"s_answer,omitempty"`
	IAnswer                *Answer    `json:"i_answer,omitempty"`
	Followups              []Followup `json:"followups,omitempty"`
	NumViews               int        `json:"num_views"`
	NumUnresolvedFollowups int        `json:"num_unresolved_followups"`
	Resolved               bool       `json:"resolved"`
	Assignees              []string   `json:"assignees,omitempty"`
}

// HasTag reports whether the post carries the given tag (case-insensitive).
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// StringifyFollowups joins all followup texts and responses into one string,
// in order, separated by single spaces.
func StringifyFollowups(followups []Followup) string {
	var parts []string
	for _, f := range followups {
		parts = append(parts, f.Text)
		parts = append(parts, f.Responses...)
	}
	return strings.Join(parts, " ")
}
