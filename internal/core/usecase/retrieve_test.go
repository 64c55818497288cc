package usecase

import (
	"context"
	"math"
	"testing"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

func TestRetrieveMergesAcrossQueries(t *testing.T) {
	space := newFakeVectorSpace()
	shared := expID("acme", "1")
	space.addHits("build kafka pipelines",
		domain.RetrievalHit{BulletID: shared, Text: "Built Kafka pipelines", Similarity: 0.9},
		domain.RetrievalHit{BulletID: expID("acme", "2"), Text: "Ran on-call", Similarity: 0.5},
	)
	space.addHits("stream processing",
		domain.RetrievalHit{BulletID: shared, Text: "Built Kafka pipelines", Similarity: 0.8},
	)

	r := NewRetriever(space, space, discardLogger())
	got, err := r.Retrieve(context.Background(), []domain.Query{
		{Text: "build kafka pipelines", Weight: 1.0, Purpose: domain.QueryPurposeCore},
		{Text: "stream processing", Weight: 0.5, Purpose: domain.QueryPurposeCore},
	}, 10, 30)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	top := got[0]
	if top.BulletID != shared {
		t.Fatalf("top candidate = %s, want %s", top.BulletID, shared)
	}
	want := 0.9*1.0 + 0.8*0.5
	if math.Abs(top.WeightedScore-want) > 1e-9 {
		t.Fatalf("weighted score = %f, want %f", top.WeightedScore, want)
	}
	if top.HitCount != 2 {
		t.Fatalf("hit count = %d, want 2", top.HitCount)
	}
}

func TestRetrieveTieBreakDeterministic(t *testing.T) {
	space := newFakeVectorSpace()
	space.addHits("q one",
		domain.RetrievalHit{BulletID: expID("b", "1"), Text: "b1", Similarity: 0.5},
		domain.RetrievalHit{BulletID: expID("a", "1"), Text: "a1", Similarity: 0.5},
	)
	space.addHits("q two",
		domain.RetrievalHit{BulletID: expID("c", "1"), Text: "c1", Similarity: 1.0},
	)

	r := NewRetriever(space, space, discardLogger())
	got, err := r.Retrieve(context.Background(), []domain.Query{
		{Text: "q one", Weight: 1.0},
		{Text: "q two", Weight: 0.5},
	}, 10, 30)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	// All three end at weighted 0.5; equal hit counts fall back to id.
	wantOrder := []string{"exp:a:1", "exp:b:1", "exp:c:1"}
	for i, want := range wantOrder {
		if got[i].BulletID.String() != want {
			t.Fatalf("position %d = %s, want %s", i, got[i].BulletID, want)
		}
	}
}

func TestRetrieveTruncatesToFinalK(t *testing.T) {
	space := newFakeVectorSpace()
	hits := make([]domain.RetrievalHit, 8)
	for i := range hits {
		hits[i] = domain.RetrievalHit{
			BulletID:   expID("j", string(rune('a'+i))),
			Text:       "text",
			Similarity: 1.0 - float64(i)*0.1,
		}
	}
	space.addHits("q", hits...)

	r := NewRetriever(space, space, discardLogger())
	got, err := r.Retrieve(context.Background(), []domain.Query{{Text: "q", Weight: 1.0}}, 10, 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	if got[0].BulletID != expID("j", "a") {
		t.Fatalf("top = %s, want exp:j:a", got[0].BulletID)
	}
}

func TestRetrieveIndexUnavailable(t *testing.T) {
	space := newFakeVectorSpace()
	space.unavailable = true

	r := NewRetriever(space, space, discardLogger())
	_, err := r.Retrieve(context.Background(), []domain.Query{{Text: "q", Weight: 1.0}}, 10, 30)
	if err == nil {
		t.Fatal("want error for unpublished index")
	}
	if !domain.IsKind(err, domain.ErrIndexUnavailable) {
		t.Fatalf("error kind = %v, want ErrIndexUnavailable", err)
	}
}

func TestRetrieveRejectsUnusableQueries(t *testing.T) {
	space := newFakeVectorSpace()
	r := NewRetriever(space, space, discardLogger())

	_, err := r.Retrieve(context.Background(), []domain.Query{
		{Text: "   ", Weight: 1.0},
		{Text: "negative", Weight: -1},
	}, 10, 30)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}
