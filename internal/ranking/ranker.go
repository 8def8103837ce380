// Package ranking combines semantic and keyword relevance into one ordered
// result list. Every query scores the user's full memory set; there is no
// index to maintain, which keeps writes trivially cheap at this scale.
package ranking

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/omoide/internal/config"
	"github.com/hyperjump/omoide/internal/keyword"
	"github.com/hyperjump/omoide/internal/models"
	"github.com/hyperjump/omoide/internal/storage"
	"github.com/hyperjump/omoide/internal/vector"
)

// Ranker scores memories against a query using both the embedding space and
// literal keyword overlap. The keyword channel acts as a safety net for
// memories whose embeddings are missing or of a different dimension.
type Ranker struct {
	store   storage.Storage
	matcher *keyword.Matcher
	cfg     *config.RankingConfig
	logger  *zap.Logger
}

// NewRanker creates a ranker over the given store.
func NewRanker(store storage.Storage, matcher *keyword.Matcher, cfg *config.RankingConfig, logger *zap.Logger) *Ranker {
	return &Ranker{
		store:   store,
		matcher: matcher,
		cfg:     cfg,
		logger:  logger,
	}
}

// Rank scores all of userID's memories against the query and returns the top
// results, best first. queryEmbedding may be nil, in which case only keyword
// scores contribute. A limit <= 0 falls back to the configured default; the
// configured maximum is always enforced.
//
// A memory survives only when its combined score clears the noise floor, so
// an unrelated query against an unrelated corpus yields an empty list rather
// than a ranking of noise.
func (r *Ranker) Rank(ctx context.Context, userID string, queryEmbedding []float32, rawQuery string, limit int) ([]*models.ScoredMemory, error) {
	memories, err := r.store.ListMemoriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}

	scored := make([]*models.ScoredMemory, 0, len(memories))
	for _, m := range memories {
		semantic := float64(0)
		if queryEmbedding != nil && len(m.Embedding) > 0 {
			semantic = vector.CosineSimilarity(queryEmbedding, m.Embedding)
		}

		kw := float64(0)
		if rawQuery != "" {
			kw = r.matcher.Score(rawQuery, m)
		}

		combined := semantic
		if weighted := kw * r.cfg.KeywordWeight; weighted > combined {
			combined = weighted
		}
		if combined <= r.cfg.NoiseFloor {
			continue
		}

		scored = append(scored, &models.ScoredMemory{
			Memory:        m,
			SemanticScore: semantic,
			KeywordScore:  kw,
			CombinedScore: combined,
		})
	}

	// Stable sort preserves the store's newest-first order among ties.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CombinedScore > scored[j].CombinedScore
	})

	if limit <= 0 {
		limit = r.cfg.DefaultLimit
	}
	if limit > r.cfg.MaxLimit {
		limit = r.cfg.MaxLimit
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}

	if r.logger != nil {
		r.logger.Debug("ranked memories",
			zap.String("query", rawQuery),
			zap.Int("candidates", len(memories)),
			zap.Int("returned", len(scored)))
	}
	return scored, nil
}

// Referenced returns the memories a chat reply should cite: those whose
// combined score clears the high-relevance threshold, capped at the
// configured maximum. The input is assumed sorted best first.
func (r *Ranker) Referenced(scored []*models.ScoredMemory) []*models.Memory {
	var out []*models.Memory
	for _, s := range scored {
		if s.CombinedScore <= r.cfg.HighRelevance {
			continue
		}
		out = append(out, s.Memory)
		if len(out) >= r.cfg.MaxReferenced {
			break
		}
	}
	return out
}
