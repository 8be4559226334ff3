package recommend

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/tailorck/parqr/internal/config"
	"github.com/tailorck/parqr/internal/modeltrain"
	"github.com/tailorck/parqr/internal/storage"
	"github.com/tailorck/parqr/pkg/utils"
)

// Scorer combines per-kind cosine similarities into one ranked, thresholded
// recommendation list.
type Scorer struct {
	posts  storage.PostStore
	cache  *Cache
	config *config.RecommendConfig
	logger *zap.Logger
}

// NewScorer creates a scorer. logger may be nil.
func NewScorer(posts storage.PostStore, cache *Cache, cfg *config.RecommendConfig, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{posts: posts, cache: cache, config: cfg, logger: logger}
}

// Recommendation is one ranked result with the combined score and answer flags.
type Recommendation struct {
	PostID              int     `json:"post_id"`
	Subject             string  `json:"subject"`
	Score               float64 `json:"score"`
	HasStudentAnswer    bool    `json:"s_answer"`
	HasInstructorAnswer bool    `json:"i_answer"`
}

// Recommend returns up to n posts most similar to query, ranked by the
// weighted combination of sub-model similarities, with ties broken by
// ascending post id and scores at or below the threshold dropped. A course
// with no built models yields an empty result, not an error.
func (s *Scorer) Recommend(ctx context.Context, courseID, query string, n int) ([]Recommendation, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if n <= 0 {
		n = s.config.DefaultLimit
	}
	if n > s.config.MaxLimit {
		n = s.config.MaxLimit
	}

	s.logger.Debug("retrieving similar posts",
		zap.String("course_id", courseID),
		zap.String("query", utils.Truncate(query, 80)),
	)

	// Candidates come from the post store, not from any single sub-model's
	// id list: a post can legitimately be absent from some sub-models.
	candidateIDs, err := s.posts.PostIDs(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load candidate ids for %s: %w", courseID, err)
	}
	if len(candidateIDs) == 0 {
		return []Recommendation{}, nil
	}
	candidates := make(map[int]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		candidates[id] = struct{}{}
	}

	models, err := s.cache.Models(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return []Recommendation{}, nil
	}

	combined := make(map[int]float64, len(candidateIDs))
	for _, id := range candidateIDs {
		combined[id] = 0
	}
	for _, kind := range modeltrain.Kinds() {
		model, ok := models[kind]
		if !ok {
			continue
		}
		// The query is transformed with this kind's own fitted vectorizer;
		// vocabularies differ per kind.
		scores := model.Matrix.CosineSimilarities(model.Vectorizer.Transform(query))
		weight := s.weight(kind)
		for i, postID := range model.PostIDs {
			if _, valid := candidates[postID]; valid {
				combined[postID] += weight * scores[i]
			}
		}
	}

	ranked := make([]Recommendation, 0, len(combined))
	for postID, score := range combined {
		if score > s.config.ScoreThreshold {
			ranked = append(ranked, Recommendation{PostID: postID, Score: score})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].PostID < ranked[j].PostID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	for i := range ranked {
		post, err := s.posts.Post(ctx, courseID, ranked[i].PostID)
		if err != nil {
			return nil, fmt.Errorf("load post %d for %s: %w", ranked[i].PostID, courseID, err)
		}
		ranked[i].Subject = post.Subject
		ranked[i].HasStudentAnswer = post.SAnswer != nil
		ranked[i].HasInstructorAnswer = post.IAnswer != nil
	}
	return ranked, nil
}

func (s *Scorer) weight(kind modeltrain.Kind) float64 {
	if kind == modeltrain.KindPrimary {
		return s.config.PrimaryWeight
	}
	return s.config.SecondaryWeight
}
