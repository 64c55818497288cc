package ports

import (
	"context"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

// VectorIndex performs nearest-neighbour search over the published
// bullet index generation. Search must return ErrIndexUnavailable when
// no generation has been published, never an empty result.
type VectorIndex interface {
	Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievalHit, error)
}

// VectorIndexBuilder rebuilds the index as an immutable generation and
// atomically publishes it; in-flight searches keep the old generation.
type VectorIndexBuilder interface {
	Rebuild(ctx context.Context, points []domain.IndexPoint) error
}

// Embedder builds vectors for bullet and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// QueryPlanner turns raw JD text into a target profile. Failures are
// recoverable; the loop falls back to heuristic queries.
type QueryPlanner interface {
	Plan(ctx context.Context, jdText string) (*domain.TargetProfile, error)
}

// RewriteRequest carries everything the rewrite collaborator may use.
// AllowedTerms lists, per bullet, the tokens a rewrite may mention.
type RewriteRequest struct {
	Bullets        []domain.Bullet
	AllowedTerms   map[string][]string
	ProfileSummary string
	JDExcerpt      string
	MinChars       int
	MaxChars       int
}

// Rewriter produces candidate paraphrases keyed by bullet id. Output is
// untrusted and must pass the rewrite validator before use.
type Rewriter interface {
	Rewrite(ctx context.Context, req RewriteRequest) (map[string]string, error)
}

// BulletStore is the read-only view of the CRUD layer.
type BulletStore interface {
	ListBullets(ctx context.Context) ([]domain.Bullet, error)
	GetBullet(ctx context.Context, id domain.BulletID) (domain.Bullet, error)
	SkillsText(ctx context.Context) (string, error)
}

// MessageQueue publishes/consumes index rebuild events.
type MessageQueue interface {
	PublishReindexRequested(ctx context.Context, reason string) error
	SubscribeReindexRequested(ctx context.Context, handler func(context.Context, string) error) error
}
