package modeltrain

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tailorck/parqr/internal/models"
	"github.com/tailorck/parqr/internal/storage"
	"github.com/tailorck/parqr/internal/tfidf"
)

// ErrNoPosts is returned by Rebuild when the course has no persisted posts.
var ErrNoPosts = errors.New("course has no posts")

// Trainer rebuilds a course's sub-models wholesale from its current posts.
type Trainer struct {
	posts  storage.PostStore
	store  storage.ModelStore
	logger *zap.Logger
}

// NewTrainer creates a trainer over the given stores.
func NewTrainer(posts storage.PostStore, store storage.ModelStore, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{posts: posts, store: store, logger: logger}
}

// Rebuild trains and persists all four sub-models for the course. Kinds with
// an empty corpus are not persisted; any stale artifact for such a kind is
// removed so the scorer observes them as absent. Fails with ErrNoPosts when
// the course has no posts at all.
func (t *Trainer) Rebuild(ctx context.Context, courseID string) error {
	posts, err := t.posts.Posts(ctx, courseID)
	if err != nil {
		return fmt.Errorf("load posts for %s: %w", courseID, err)
	}
	if len(posts) == 0 {
		return fmt.Errorf("course %s: %w", courseID, ErrNoPosts)
	}

	t.logger.Info("rebuilding course models",
		zap.String("course_id", courseID),
		zap.Int("num_posts", len(posts)),
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range Kinds() {
		kind := kind
		g.Go(func() error {
			return t.buildKind(gctx, courseID, kind, posts)
		})
	}
	return g.Wait()
}

func (t *Trainer) buildKind(ctx context.Context, courseID string, kind Kind, posts []*models.Post) error {
	corpus, postIDs := corpusForKind(kind, posts)
	if len(corpus) == 0 {
		t.logger.Debug("empty corpus, removing stale model",
			zap.String("course_id", courseID),
			zap.String("kind", kind.String()),
		)
		return t.store.Delete(ctx, courseID, kind.String())
	}

	vectorizer, matrix, err := tfidf.FitTransform(corpus)
	if err != nil {
		if errors.Is(err, tfidf.ErrEmptyCorpus) {
			// Text present but nothing survives tokenization; same as absent.
			return t.store.Delete(ctx, courseID, kind.String())
		}
		return fmt.Errorf("fit %s model for %s: %w", kind, courseID, err)
	}

	model := &tfidf.Model{Vectorizer: vectorizer, Matrix: matrix, PostIDs: postIDs}
	if err := t.store.Put(ctx, courseID, kind.String(), model); err != nil {
		return fmt.Errorf("persist %s model for %s: %w", kind, courseID, err)
	}

	t.logger.Debug("model built",
		zap.String("course_id", courseID),
		zap.String("kind", kind.String()),
		zap.Int("documents", matrix.Rows()),
		zap.Int("vocabulary", vectorizer.Dimension()),
	)
	return nil
}

// corpusForKind maps posts to training texts for the kind, keeping the id
// list aligned 1:1 with the corpus. Posts contributing no text are excluded.
func corpusForKind(kind Kind, posts []*models.Post) ([]string, []int) {
	var corpus []string
	var postIDs []int
	for _, post := range posts {
		text := kind.Text(post)
		if text == "" {
			continue
		}
		corpus = append(corpus, text)
		postIDs = append(postIDs, post.PostID)
	}
	return corpus, postIDs
}
