package usecase

import (
	"context"
	"testing"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

func TestReindexPublishesOneGeneration(t *testing.T) {
	store := &fakeStore{bullets: []domain.Bullet{
		{ID: expID("acme", "1"), Text: "Built a billing service"},
		{ID: projID("side", "1"), Text: "Wrote a static site generator"},
	}}
	space := newFakeVectorSpace()
	builder := &fakeBuilder{}

	g := NewIngestor(store, space, builder, discardLogger())
	if err := g.Reindex(context.Background(), "manual"); err != nil {
		t.Fatalf("reindex: %v", err)
	}

	if len(builder.published) != 1 {
		t.Fatalf("published %d generations, want 1", len(builder.published))
	}
	points := builder.published[0]
	if len(points) != 2 {
		t.Fatalf("published %d points, want 2", len(points))
	}
	for i, p := range points {
		if p.BulletID != store.bullets[i].ID || p.Text != store.bullets[i].Text {
			t.Fatalf("point %d = %+v, does not match bullet %+v", i, p, store.bullets[i])
		}
		if len(p.Vector) == 0 {
			t.Fatalf("point %d has no vector", i)
		}
	}
}

func TestReindexEmptyStoreRejected(t *testing.T) {
	g := NewIngestor(&fakeStore{}, newFakeVectorSpace(), &fakeBuilder{}, discardLogger())

	err := g.Reindex(context.Background(), "manual")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}
