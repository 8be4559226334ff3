// Package normalize converts raw forum post objects into internal Post records.
package normalize

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/tailorck/parqr/internal/forum"
	"github.com/tailorck/parqr/internal/models"
)

const (
	answerTypeStudent    = "s_answer"
	answerTypeInstructor = "i_answer"
)

// Normalizer converts one RawPost into a Post. Stateless apart from the
// shared sanitizer policy, which is safe for concurrent use.
type Normalizer struct {
	policy *bluemonday.Policy
}

// New returns a Normalizer.
func New() *Normalizer {
	return &Normalizer{policy: bluemonday.StrictPolicy()}
}

// Post converts raw into the internal record for courseID. Content fields are
// stripped of HTML, answers and followups are pulled out of the child list,
// and derived counters are computed.
func (n *Normalizer) Post(courseID string, raw *forum.RawPost) *models.Post {
	post := &models.Post{
		CourseID:  courseID,
		PostID:    raw.PostID,
		Created:   parseTime(raw.Created),
		Modified:  parseTime(raw.Modified),
		Subject:   strings.TrimSpace(n.stripHTML(raw.Subject)),
		Body:      strings.TrimSpace(n.stripHTML(raw.Content)),
		Tags:      raw.Folders,
		PostType:  raw.Type,
		NumViews:  raw.NumViews,
		Resolved:  raw.Resolved,
		Assignees: raw.Assignees,
	}

	for _, child := range raw.Children {
		switch child.Type {
		case answerTypeStudent:
			post.SAnswer = n.answer(child)
		case answerTypeInstructor:
			post.IAnswer = n.answer(child)
		}
	}

	for _, f := range raw.Followups {
		followup := models.Followup{
			Text:      strings.TrimSpace(n.stripHTML(f.Subject)),
			Responses: make([]string, 0, len(f.Responses)),
		}
		for _, r := range f.Responses {
			followup.Responses = append(followup.Responses, strings.TrimSpace(n.stripHTML(r)))
		}
		post.Followups = append(post.Followups, followup)
		if !f.Resolved {
			post.NumUnresolvedFollowups++
		}
	}

	return post
}

func (n *Normalizer) answer(raw forum.RawAnswer) *models.Answer {
	return &models.Answer{
		Text:     strings.TrimSpace(n.stripHTML(raw.Content)),
		AuthorID: raw.AuthorID,
		Created:  parseTime(raw.Created),
	}
}

// stripHTML removes all markup and decodes entities, leaving plain text.
func (n *Normalizer) stripHTML(s string) string {
	return html.UnescapeString(n.policy.Sanitize(s))
}

// parseTime accepts the source's RFC3339 timestamps; zero time on failure.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
