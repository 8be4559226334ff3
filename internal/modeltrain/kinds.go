// Package modeltrain builds per-course TF-IDF sub-models from persisted posts.
package modeltrain

import (
	"strings"

	"github.com/tailorck/parqr/internal/models"
)

// Kind identifies one of the four sub-models trained per course.
type Kind int

const (
	// KindPrimary is trained on subject, body, and tags.
	KindPrimary Kind = iota
	// KindInstructorAnswer is trained on instructor answer text.
	KindInstructorAnswer
	// KindStudentAnswer is trained on student answer text.
	KindStudentAnswer
	// KindFollowup is trained on followup discussions and their responses.
	KindFollowup
)

// Kinds returns all sub-model kinds in canonical order.
func Kinds() []Kind {
	return []Kind{KindPrimary, KindInstructorAnswer, KindStudentAnswer, KindFollowup}
}

// String returns the storage key name for the kind.
func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "primary"
	case KindInstructorAnswer:
		return "i_answer"
	case KindStudentAnswer:
		return "s_answer"
	case KindFollowup:
		return "followup"
	default:
		return "unknown"
	}
}

// Text extracts the training text a post contributes to this kind. An empty
// result excludes the post from the kind's corpus and id list.
func (k Kind) Text(post *models.Post) string {
	switch k {
	case KindPrimary:
		parts := []string{post.Subject, post.Body}
		parts = append(parts, post.Tags...)
		return strings.TrimSpace(strings.Join(parts, " "))
	case KindInstructorAnswer:
		if post.IAnswer != nil {
			return strings.TrimSpace(post.IAnswer.Text)
		}
	case KindStudentAnswer:
		if post.SAnswer != nil {
			return strings.TrimSpace(post.SAnswer.Text)
		}
	case KindFollowup:
		if len(post.Followups) > 0 {
			return strings.TrimSpace(models.StringifyFollowups(post.Followups))
		}
	}
	return ""
}
