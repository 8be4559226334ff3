// Package cli renders command output for parqr.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tailorck/parqr/internal/models"
	"github.com/tailorck/parqr/internal/recommend"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteRecommendations writes ranked recommendations to w in the given
// format. Use OutputJSON for parseable output consumable by other apps.
func WriteRecommendations(w io.Writer, recs []recommend.Recommendation, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, recs)
	}
	if len(recs) == 0 {
		fmt.Fprintln(w, "No similar posts found")
		return nil
	}
	for i, rec := range recs {
		answered := ""
		if rec.HasInstructorAnswer {
			answered += " [instructor answered]"
		}
		if rec.HasStudentAnswer {
			answered += " [student answered]"
		}
		fmt.Fprintf(w, "%d. @%d %s (score %.3f)%s\n", i+1, rec.PostID, rec.Subject, rec.Score, answered)
	}
	return nil
}

// WriteAttentionPosts writes attention-warranted posts to w in the given format.
func WriteAttentionPosts(w io.Writer, posts []models.AttentionPost, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, posts)
	}
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts need attention")
		return nil
	}
	for i, post := range posts {
		fmt.Fprintf(w, "%d. @%d %s\n", i+1, post.PostID, post.Title)
		for _, prop := range post.Properties {
			fmt.Fprintf(w, "     - %s\n", prop)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
