package normalize

import (
	"testing"
	"time"

	"github.com/tailorck/parqr/internal/forum"
)

func TestNormalizer_Post(t *testing.T) {
	n := New()
	raw := &forum.RawPost{
		PostID:   12,
		Status:   "active",
		Subject:  "HW3 <b>clarification</b>",
		Content:  "<p>What does part &amp; b mean?</p>",
		Folders:  []string{"hw3", "logistics"},
		Type:     "question",
		Created:  "2023-02-01T09:30:00Z",
		Modified: "2023-02-02T11:00:00Z",
		Children: []forum.RawAnswer{
			{Type: "s_answer", Content: "<div>see post @4</div>", AuthorID: "u9"},
			{Type: "i_answer", Content: "part b asks for a proof", AuthorID: "u1"},
		},
		Followups: []forum.RawFollowup{
			{Subject: "<i>still confused</i>", Responses: []string{"<p>me too</p>", "resolved now"}, Resolved: false},
			{Subject: "minor typo", Resolved: true},
		},
		NumViews: 41,
		Resolved: true,
	}

	post := n.Post("c1", raw)

	if post.CourseID != "c1" || post.PostID != 12 {
		t.Errorf("unexpected identity: %s/%d", post.CourseID, post.PostID)
	}
	if post.Subject != "HW3 clarification" {
		t.Errorf("subject = %q", post.Subject)
	}
	if post.Body != "What does part & b mean?" {
		t.Errorf("body = %q", post.Body)
	}
	if post.SAnswer == nil || post.SAnswer.Text != "see post @4" || post.SAnswer.AuthorID != "u9" {
		t.Errorf("student answer = %+v", post.SAnswer)
	}
	if post.IAnswer == nil || post.IAnswer.Text != "part b asks for a proof" {
		t.Errorf("instructor answer = %+v", post.IAnswer)
	}
	if len(post.Followups) != 2 {
		t.Fatalf("expected 2 followups, got %d", len(post.Followups))
	}
	if post.Followups[0].Text != "still confused" || len(post.Followups[0].Responses) != 2 {
		t.Errorf("followup[0] = %+v", post.Followups[0])
	}
	if post.Followups[0].Responses[0] != "me too" {
		t.Errorf("response = %q", post.Followups[0].Responses[0])
	}
	if post.NumUnresolvedFollowups != 1 {
		t.Errorf("unresolved followups = %d, want 1", post.NumUnresolvedFollowups)
	}
	if post.NumViews != 41 || !post.Resolved {
		t.Errorf("counters = views %d resolved %v", post.NumViews, post.Resolved)
	}
	want := time.Date(2023, 2, 1, 9, 30, 0, 0, time.UTC)
	if !post.Created.Equal(want) {
		t.Errorf("created = %v, want %v", post.Created, want)
	}
}

func TestNormalizer_missingPieces(t *testing.T) {
	n := New()
	post := n.Post("c1", &forum.RawPost{PostID: 1, Subject: "plain", Content: "no markup"})

	if post.SAnswer != nil || post.IAnswer != nil {
		t.Error("expected nil answers when source has no children")
	}
	if len(post.Followups) != 0 || post.NumUnresolvedFollowups != 0 {
		t.Errorf("expected no followups, got %+v", post.Followups)
	}
	if !post.Created.IsZero() {
		t.Error("expected zero time for missing created timestamp")
	}
	if post.Body != "no markup" {
		t.Errorf("body = %q", post.Body)
	}
}
