package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkravets/resume-tailor/internal/core/domain"
	"github.com/mkravets/resume-tailor/internal/core/ports"
)

// Ingestor rebuilds the bullet index as a fresh generation: read every
// bullet, embed, hand the points to the index builder for an atomic
// publish. In-flight searches keep seeing the previous generation.
type Ingestor struct {
	store    ports.BulletStore
	embedder ports.Embedder
	builder  ports.VectorIndexBuilder
	logger   *slog.Logger
}

func NewIngestor(store ports.BulletStore, embedder ports.Embedder, builder ports.VectorIndexBuilder, logger *slog.Logger) *Ingestor {
	return &Ingestor{store: store, embedder: embedder, builder: builder, logger: logger}
}

func (g *Ingestor) Reindex(ctx context.Context, reason string) error {
	const op = "reindex bullets"

	bullets, err := g.store.ListBullets(ctx)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, op, fmt.Errorf("list bullets: %w", err))
	}
	if len(bullets) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("bullet store is empty"))
	}

	texts := make([]string, len(bullets))
	for i, b := range bullets {
		texts[i] = b.Text
	}
	vectors, err := g.embedder.Embed(ctx, texts)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, op, fmt.Errorf("embed bullets: %w", err))
	}
	if len(vectors) != len(bullets) {
		return domain.WrapError(domain.ErrTemporary, op, fmt.Errorf("embedder returned %d vectors for %d bullets", len(vectors), len(bullets)))
	}

	points := make([]domain.IndexPoint, len(bullets))
	for i, b := range bullets {
		points[i] = domain.IndexPoint{BulletID: b.ID, Text: b.Text, Vector: vectors[i]}
	}

	if err := g.builder.Rebuild(ctx, points); err != nil {
		return domain.WrapError(domain.ErrTemporary, op, fmt.Errorf("publish generation: %w", err))
	}

	g.logger.Info("index generation published",
		slog.Int("bullets", len(points)),
		slog.String("reason", reason),
	)
	return nil
}
