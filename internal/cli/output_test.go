package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tailorck/parqr/internal/models"
	"github.com/tailorck/parqr/internal/recommend"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"text", OutputText, false},
		{"", OutputText, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteRecommendations_text(t *testing.T) {
	recs := []recommend.Recommendation{
		{PostID: 12, Subject: "hw2 segfault", Score: 0.42, HasInstructorAnswer: true},
		{PostID: 3, Subject: "office hours", Score: 0.15, HasStudentAnswer: true},
	}
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, recs, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"1. @12 hw2 segfault", "[instructor answered]", "2. @3 office hours", "[student answered]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteRecommendations_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No similar posts found") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWriteRecommendations_json(t *testing.T) {
	recs := []recommend.Recommendation{{PostID: 7, Subject: "quiz", Score: 0.3}}
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, recs, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded []recommend.Recommendation
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].PostID != 7 {
		t.Errorf("unexpected decoded output %+v", decoded)
	}
}

func TestWriteAttentionPosts_text(t *testing.T) {
	posts := []models.AttentionPost{
		{PostID: 5, Title: "midterm regrade", Properties: []string{"2 unresolved followups", "37 views"}},
	}
	var buf bytes.Buffer
	if err := WriteAttentionPosts(&buf, posts, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"1. @5 midterm regrade", "- 2 unresolved followups", "- 37 views"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteAttentionPosts_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAttentionPosts(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No posts need attention") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
