package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

type snapshot struct {
	points []domain.IndexPoint
}

// Index is an in-process bullet index for tests and single-node
// setups. Rebuild swaps a complete snapshot behind an atomic pointer,
// so concurrent searches see either the old generation or the new one,
// never a mix.
type Index struct {
	current atomic.Pointer[snapshot]
}

func New() *Index {
	return &Index{}
}

func (x *Index) Search(_ context.Context, queryVector []float32, k int) ([]domain.RetrievalHit, error) {
	snap := x.current.Load()
	if snap == nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "memory search", fmt.Errorf("no generation published"))
	}
	if k <= 0 || len(queryVector) == 0 {
		return nil, nil
	}

	hits := make([]domain.RetrievalHit, 0, len(snap.points))
	for _, p := range snap.points {
		hits = append(hits, domain.RetrievalHit{
			BulletID:   p.BulletID,
			Text:       p.Text,
			Similarity: cosineSimilarity(queryVector, p.Vector),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].BulletID.String() < hits[j].BulletID.String()
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (x *Index) Rebuild(_ context.Context, points []domain.IndexPoint) error {
	if len(points) == 0 {
		return fmt.Errorf("memory rebuild: no points")
	}
	snap := &snapshot{points: append([]domain.IndexPoint(nil), points...)}
	x.current.Store(snap)
	return nil
}

// cosineSimilarity maps the cosine into [0,1]; orthogonal or opposed
// vectors both score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	if cos > 1 {
		return 1
	}
	return cos
}
