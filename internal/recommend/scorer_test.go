package recommend

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tailorck/parqr/internal/config"
	"github.com/tailorck/parqr/internal/models"
	"github.com/tailorck/parqr/internal/modeltrain"
	"github.com/tailorck/parqr/internal/storage"
)

func testRecommendConfig() *config.RecommendConfig {
	return &config.RecommendConfig{
		ReloadDelaySeconds: 150,
		ScoreThreshold:     0.1,
		PrimaryWeight:      0.4,
		SecondaryWeight:    0.2,
		DefaultLimit:       5,
		MaxLimit:           25,
	}
}

// newScorer persists the given posts, trains sub-models for them, and
// returns a scorer backed by real stores.
func newScorer(t *testing.T, courseID string, posts []*models.Post) *Scorer {
	t.Helper()

	dir := t.TempDir()
	postStore, err := storage.NewSQLitePostStore(filepath.Join(dir, "parqr.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = postStore.Close() })

	modelStore, err := storage.NewBadgerModelStore(filepath.Join(dir, "models"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = modelStore.Close() })

	ctx := context.Background()
	ids := make([]int, len(posts))
	for i, p := range posts {
		ids[i] = p.PostID
	}
	course := &models.Course{
		CourseID:     courseID,
		KnownPostIDs: ids,
		LastSync:     time.Now().UTC(),
		NumPosts:     len(posts),
	}
	if err := postStore.ApplySync(ctx, course, posts, nil); err != nil {
		t.Fatal(err)
	}
	if len(posts) > 0 {
		if err := modeltrain.NewTrainer(postStore, modelStore, nil).Rebuild(ctx, courseID); err != nil {
			t.Fatal(err)
		}
	}

	cfg := testRecommendConfig()
	cache := NewCache(modelStore, cfg.ReloadDelay(), nil)
	return NewScorer(postStore, cache, cfg, nil)
}

func TestRecommend(t *testing.T) {
	scorer := newScorer(t, "c1", []*models.Post{
		{CourseID: "c1", PostID: 1, Subject: "alpha beta pruning", Body: "alpha beta pruning minimax"},
		{CourseID: "c1", PostID: 2, Subject: "backprop", Body: "neural network backprop"},
	})

	recs, err := scorer.Recommend(context.Background(), "c1", "minimax algorithm", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) == 0 || len(recs) > 2 {
		t.Fatalf("expected 1 or 2 recommendations, got %d", len(recs))
	}
	if recs[0].PostID != 1 {
		t.Errorf("expected post 1 ranked first, got %d", recs[0].PostID)
	}
	if recs[0].Subject != "alpha beta pruning" {
		t.Errorf("unexpected subject %q", recs[0].Subject)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Score > recs[i-1].Score {
			t.Error("recommendations not sorted by descending score")
		}
	}
}

func TestRecommend_deterministic(t *testing.T) {
	scorer := newScorer(t, "c1", []*models.Post{
		{CourseID: "c1", PostID: 1, Subject: "threads", Body: "mutex deadlock threads"},
		{CourseID: "c1", PostID: 2, Subject: "locks", Body: "mutex spinlock contention"},
		{CourseID: "c1", PostID: 3, Subject: "gc", Body: "garbage collection pauses"},
	})

	ctx := context.Background()
	first, err := scorer.Recommend(ctx, "c1", "mutex contention", 5)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := scorer.Recommend(ctx, "c1", "mutex contention", 5)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs from first run", i)
		}
	}
}

func TestRecommend_tieBreakByPostID(t *testing.T) {
	// Identical text yields identical scores; ties order by ascending id.
	scorer := newScorer(t, "c1", []*models.Post{
		{CourseID: "c1", PostID: 7, Subject: "dup", Body: "quicksort pivot selection"},
		{CourseID: "c1", PostID: 3, Subject: "dup", Body: "quicksort pivot selection"},
	})

	recs, err := scorer.Recommend(context.Background(), "c1", "quicksort pivot", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	if recs[0].Score != recs[1].Score {
		t.Fatalf("expected equal scores, got %v and %v", recs[0].Score, recs[1].Score)
	}
	if recs[0].PostID != 3 || recs[1].PostID != 7 {
		t.Errorf("expected ids [3 7], got [%d %d]", recs[0].PostID, recs[1].PostID)
	}
}

func TestRecommend_thresholdFiltersUnrelated(t *testing.T) {
	scorer := newScorer(t, "c1", []*models.Post{
		{CourseID: "c1", PostID: 1, Subject: "dp", Body: "dynamic programming memoization"},
	})

	recs, err := scorer.Recommend(context.Background(), "c1", "kubernetes ingress", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no recommendations for an unrelated query, got %d", len(recs))
	}
}

func TestRecommend_limit(t *testing.T) {
	posts := []*models.Post{
		{CourseID: "c1", PostID: 1, Subject: "a", Body: "sorting algorithms overview"},
		{CourseID: "c1", PostID: 2, Subject: "b", Body: "sorting stability discussion"},
		{CourseID: "c1", PostID: 3, Subject: "c", Body: "sorting in linear time"},
	}
	scorer := newScorer(t, "c1", posts)

	recs, err := scorer.Recommend(context.Background(), "c1", "sorting", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) > 2 {
		t.Errorf("expected at most 2 recommendations, got %d", len(recs))
	}
}

func TestRecommend_annotations(t *testing.T) {
	scorer := newScorer(t, "c1", []*models.Post{
		{
			CourseID: "c1", PostID: 1,
			Subject: "segfault in malloc lab",
			Body:    "segfault free list coalescing",
			IAnswer: &models.Answer{Text: "check your boundary tags"},
		},
	})

	recs, err := scorer.Recommend(context.Background(), "c1", "segfault coalescing", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	if !recs[0].HasInstructorAnswer {
		t.Error("expected i_answer annotation")
	}
	if recs[0].HasStudentAnswer {
		t.Error("did not expect s_answer annotation")
	}
}

func TestRecommend_emptyQuery(t *testing.T) {
	scorer := newScorer(t, "c1", nil)
	if _, err := scorer.Recommend(context.Background(), "c1", "", 5); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestRecommend_courseWithoutModels(t *testing.T) {
	scorer := newScorer(t, "c1", nil)
	recs, err := scorer.Recommend(context.Background(), "c1", "anything", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no recommendations, got %d", len(recs))
	}
}
