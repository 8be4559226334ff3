// Package stats ranks a course's posts by how much they warrant
// instructor attention.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tailorck/parqr/internal/models"
	"github.com/tailorck/parqr/internal/storage"
)

const announcementsTag = "announcements"

// Reporter computes attention statistics over persisted posts.
type Reporter struct {
	posts  storage.PostStore
	logger *zap.Logger
}

func NewReporter(posts storage.PostStore, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{posts: posts, logger: logger}
}

// TopAttentionWarranted returns up to n posts most in need of attention.
// Announcements are excluded. Posts with no instructor answer come first;
// when more than n of those exist, the set narrows to posts that also lack
// a student answer, ordered by unresolved followups and views, both
// descending, then by ascending post id.
func (r *Reporter) TopAttentionWarranted(ctx context.Context, courseID string, n int) ([]models.AttentionPost, error) {
	if n <= 0 {
		return []models.AttentionPost{}, nil
	}

	all, err := r.posts.Posts(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load posts for %s: %w", courseID, err)
	}

	var noInstructor []*models.Post
	for _, p := range all {
		if p.HasTag(announcementsTag) {
			continue
		}
		if p.IAnswer == nil {
			noInstructor = append(noInstructor, p)
		}
	}
	if len(noInstructor) <= n {
		return buildAttentionPosts(noInstructor, false), nil
	}

	var noAnswers []*models.Post
	for _, p := range noInstructor {
		if p.SAnswer == nil {
			noAnswers = append(noAnswers, p)
		}
	}
	if len(noAnswers) <= n {
		return buildAttentionPosts(noAnswers, true), nil
	}

	sort.SliceStable(noAnswers, func(i, j int) bool {
		a, b := noAnswers[i], noAnswers[j]
		if a.NumUnresolvedFollowups != b.NumUnresolvedFollowups {
			return a.NumUnresolvedFollowups > b.NumUnresolvedFollowups
		}
		if a.NumViews != b.NumViews {
			return a.NumViews > b.NumViews
		}
		return a.PostID < b.PostID
	})
	return buildAttentionPosts(noAnswers[:n], true), nil
}

// buildAttentionPosts renders posts into result records with the
// human-readable property strings. noStudent is set when the posts were
// narrowed to those lacking a student answer as well.
func buildAttentionPosts(posts []*models.Post, noStudent bool) []models.AttentionPost {
	out := make([]models.AttentionPost, 0, len(posts))
	for _, p := range posts {
		props := []string{
			fmt.Sprintf("%d unresolved followups", p.NumUnresolvedFollowups),
			fmt.Sprintf("%d views", p.NumViews),
			"No Instructor answers",
		}
		if noStudent {
			props = append(props, "No Student answers")
		}
		if len(p.Tags) > 0 {
			props = append(props, "Tags - "+strings.Join(p.Tags, ", "))
		}
		out = append(out, models.AttentionPost{
			PostID:     p.PostID,
			Title:      p.Subject,
			Properties: props,
		})
	}
	return out
}
