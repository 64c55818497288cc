package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mkravets/resume-tailor/internal/core/domain"
	"github.com/mkravets/resume-tailor/internal/core/ports"
)

// Retriever runs weighted multi-query search against the bullet index
// and merges the per-query hits into one deterministic ranking.
type Retriever struct {
	index    ports.VectorIndex
	embedder ports.Embedder
	logger   *slog.Logger
}

func NewRetriever(index ports.VectorIndex, embedder ports.Embedder, logger *slog.Logger) *Retriever {
	return &Retriever{index: index, embedder: embedder, logger: logger}
}

// Retrieve fetches perQueryK neighbours per query, accumulates
// similarity×weight per bullet, and returns the top finalK candidates
// sorted by weighted score desc, hit count desc, bullet id asc.
// An unpublished index surfaces as ErrIndexUnavailable, never as an
// empty result.
func (r *Retriever) Retrieve(ctx context.Context, queries []domain.Query, perQueryK, finalK int) ([]domain.MergedCandidate, error) {
	const op = "retrieve bullets"

	live := make([]domain.Query, 0, len(queries))
	for _, q := range queries {
		if domain.NormalizeQueryText(q.Text) == "" || q.Weight <= 0 {
			continue
		}
		live = append(live, q)
	}
	if len(live) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("no usable queries"))
	}
	if perQueryK <= 0 || finalK <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("per_query_k=%d final_k=%d", perQueryK, finalK))
	}

	merged := make(map[string]*domain.MergedCandidate)
	for _, q := range live {
		vector, err := r.embedder.EmbedQuery(ctx, domain.NormalizeQueryText(q.Text))
		if err != nil {
			return nil, domain.WrapError(domain.ErrTemporary, op, fmt.Errorf("embed query %q: %w", q.Text, err))
		}

		hits, err := r.index.Search(ctx, vector, perQueryK)
		if err != nil {
			if domain.IsKind(err, domain.ErrIndexUnavailable) {
				return nil, err
			}
			return nil, domain.WrapError(domain.ErrTemporary, op, err)
		}

		for _, hit := range hits {
			key := hit.BulletID.String()
			cand, ok := merged[key]
			if !ok {
				cand = &domain.MergedCandidate{BulletID: hit.BulletID, Text: hit.Text}
				merged[key] = cand
			}
			cand.WeightedScore += hit.Similarity * q.Weight
			cand.HitCount++
		}
	}

	out := make([]domain.MergedCandidate, 0, len(merged))
	for _, cand := range merged {
		out = append(out, *cand)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WeightedScore != out[j].WeightedScore {
			return out[i].WeightedScore > out[j].WeightedScore
		}
		if out[i].HitCount != out[j].HitCount {
			return out[i].HitCount > out[j].HitCount
		}
		return out[i].BulletID.String() < out[j].BulletID.String()
	})

	if len(out) > finalK {
		out = out[:finalK]
	}

	r.logger.Debug("retrieval merged",
		slog.Int("queries", len(live)),
		slog.Int("candidates", len(out)),
	)
	return out, nil
}
