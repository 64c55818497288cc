package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*BulletRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &BulletRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestListBulletsBuildsIDs(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"parent_type", "parent_id", "local_id", "text"}).
		AddRow("experience", "acme", "1", "Built a billing service").
		AddRow("project", "side", "1", "Wrote a static site generator")
	mock.ExpectQuery("SELECT parent_type, parent_id, local_id, text").WillReturnRows(rows)

	bullets, err := repo.ListBullets(context.Background())
	if err != nil {
		t.Fatalf("list bullets: %v", err)
	}
	if len(bullets) != 2 {
		t.Fatalf("got %d bullets, want 2", len(bullets))
	}
	if bullets[0].ID.String() != "exp:acme:1" {
		t.Fatalf("first id = %s, want exp:acme:1", bullets[0].ID)
	}
	if bullets[1].ID.String() != "proj:side:1" {
		t.Fatalf("second id = %s, want proj:side:1", bullets[1].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListBulletsRejectsCorruptRow(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"parent_type", "parent_id", "local_id", "text"}).
		AddRow("volunteer", "x", "1", "text")
	mock.ExpectQuery("SELECT parent_type, parent_id, local_id, text").WillReturnRows(rows)

	_, err := repo.ListBullets(context.Background())
	if err == nil {
		t.Fatal("expected error for unknown parent type")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetBulletReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT text").
		WithArgs("experience", "acme", "missing").
		WillReturnError(sql.ErrNoRows)

	id := domain.BulletID{Parent: domain.ParentExperience, ParentID: "acme", LocalID: "missing"}
	_, err := repo.GetBullet(context.Background(), id)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrBulletNotFound) {
		t.Fatalf("expected ErrBulletNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSkillsTextEmptyWhenUnset(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT skills_text").WillReturnError(sql.ErrNoRows)

	text, err := repo.SkillsText(context.Background())
	if err != nil {
		t.Fatalf("skills text: %v", err)
	}
	if text != "" {
		t.Fatalf("text = %q, want empty", text)
	}
}
