package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pgv "github.com/pgvector/pgvector-go"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

// Index keeps bullet vectors in postgres with the pgvector extension.
// Every rebuild writes a new generation and flips one pointer row in
// the same transaction, so searches always hit a complete generation.
type Index struct {
	db *sql.DB
}

func New(db *sql.DB) *Index {
	return &Index{db: db}
}

func (x *Index) EnsureSchema(ctx context.Context) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082902)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS bullet_index_points (
	generation BIGINT NOT NULL,
	bullet_id TEXT NOT NULL,
	text TEXT NOT NULL,
	embedding vector NOT NULL,
	PRIMARY KEY (generation, bullet_id)
);

CREATE TABLE IF NOT EXISTS bullet_index_current (
	id INT PRIMARY KEY DEFAULT 1,
	generation BIGINT NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (x *Index) Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievalHit, error) {
	var generation int64
	err := x.db.QueryRowContext(ctx, `SELECT generation FROM bullet_index_current WHERE id = 1`).Scan(&generation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrIndexUnavailable, "pgvector search", fmt.Errorf("no generation published"))
		}
		return nil, fmt.Errorf("read current generation: %w", err)
	}

	rows, err := x.db.QueryContext(ctx, `
SELECT bullet_id, text, 1 - (embedding <=> $1) AS similarity
FROM bullet_index_points
WHERE generation = $2
ORDER BY embedding <=> $1
LIMIT $3
`, pgv.NewVector(queryVector), generation, k)
	if err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	defer rows.Close()

	var out []domain.RetrievalHit
	for rows.Next() {
		var rawID, text string
		var similarity float64
		if err := rows.Scan(&rawID, &text, &similarity); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		id, err := domain.ParseBulletID(rawID)
		if err != nil {
			continue
		}
		out = append(out, domain.RetrievalHit{
			BulletID:   id,
			Text:       text,
			Similarity: clampSimilarity(similarity),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hits: %w", err)
	}
	return out, nil
}

func (x *Index) Rebuild(ctx context.Context, points []domain.IndexPoint) error {
	if len(points) == 0 {
		return fmt.Errorf("pgvector rebuild: no points")
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rebuild tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var generation int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(generation), 0) + 1 FROM bullet_index_points`).Scan(&generation)
	if err != nil {
		return fmt.Errorf("next generation: %w", err)
	}

	for _, p := range points {
		_, err := tx.ExecContext(ctx, `
INSERT INTO bullet_index_points (generation, bullet_id, text, embedding)
VALUES ($1, $2, $3, $4)
`, generation, p.BulletID.String(), p.Text, pgv.NewVector(p.Vector))
		if err != nil {
			return fmt.Errorf("insert point %s: %w", p.BulletID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO bullet_index_current (id, generation) VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET generation = EXCLUDED.generation
`, generation)
	if err != nil {
		return fmt.Errorf("flip current generation: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM bullet_index_points WHERE generation <> $1`, generation); err != nil {
		return fmt.Errorf("drop stale generations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebuild tx: %w", err)
	}
	return nil
}

func clampSimilarity(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
