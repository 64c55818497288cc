package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

// BulletRepository is the read side of the resume CRUD schema. The
// tailoring engine never writes bullet content.
type BulletRepository struct {
	db *sql.DB
}

func NewBulletRepository(db *sql.DB) *BulletRepository {
	return &BulletRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *BulletRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS resume_bullets (
	parent_type TEXT NOT NULL,
	parent_id TEXT NOT NULL,
	local_id TEXT NOT NULL,
	text TEXT NOT NULL,
	position INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (parent_type, parent_id, local_id)
);

CREATE TABLE IF NOT EXISTS resume_skills (
	id INT PRIMARY KEY DEFAULT 1,
	skills_text TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
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

func (r *BulletRepository) ListBullets(ctx context.Context) ([]domain.Bullet, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT parent_type, parent_id, local_id, text
FROM resume_bullets
ORDER BY parent_type, parent_id, position, local_id
`)
	if err != nil {
		return nil, fmt.Errorf("list bullets: %w", err)
	}
	defer rows.Close()

	var out []domain.Bullet
	for rows.Next() {
		var parentType, parentID, localID, text string
		if err := rows.Scan(&parentType, &parentID, &localID, &text); err != nil {
			return nil, fmt.Errorf("scan bullet: %w", err)
		}
		id, err := domain.NewBulletID(domain.ParentType(parentType), parentID, localID)
		if err != nil {
			return nil, fmt.Errorf("bullet row %s/%s/%s: %w", parentType, parentID, localID, err)
		}
		out = append(out, domain.Bullet{ID: id, Text: text})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bullets: %w", err)
	}
	return out, nil
}

func (r *BulletRepository) GetBullet(ctx context.Context, id domain.BulletID) (domain.Bullet, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT text
FROM resume_bullets
WHERE parent_type = $1 AND parent_id = $2 AND local_id = $3
`, string(id.Parent), id.ParentID, id.LocalID)

	var text string
	if err := row.Scan(&text); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Bullet{}, domain.WrapError(domain.ErrBulletNotFound, "get bullet", fmt.Errorf("id %s", id))
		}
		return domain.Bullet{}, fmt.Errorf("get bullet %s: %w", id, err)
	}
	return domain.Bullet{ID: id, Text: text}, nil
}

func (r *BulletRepository) SkillsText(ctx context.Context) (string, error) {
	row := r.db.QueryRowContext(ctx, `SELECT skills_text FROM resume_skills WHERE id = 1`)

	var text string
	if err := row.Scan(&text); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get skills text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
