package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mkravets/resume-tailor/internal/core/domain"
	"github.com/mkravets/resume-tailor/internal/core/keywords"
	"github.com/mkravets/resume-tailor/internal/core/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func expID(parent, local string) domain.BulletID {
	return domain.BulletID{Parent: domain.ParentExperience, ParentID: parent, LocalID: local}
}

func projID(parent, local string) domain.BulletID {
	return domain.BulletID{Parent: domain.ParentProject, ParentID: parent, LocalID: local}
}

// fakeVectorSpace wires a fake embedder and index together: the
// embedder encodes each query text as an index into a shared table and
// the index answers with canned hits for that text.
type fakeVectorSpace struct {
	texts       []string
	hitsByQuery map[string][]domain.RetrievalHit
	unavailable bool
	searchErr   error
}

func newFakeVectorSpace() *fakeVectorSpace {
	return &fakeVectorSpace{hitsByQuery: make(map[string][]domain.RetrievalHit)}
}

func (f *fakeVectorSpace) addHits(query string, hits ...domain.RetrievalHit) {
	f.hitsByQuery[domain.NormalizeQueryText(query)] = hits
}

func (f *fakeVectorSpace) slot(text string) int {
	for i, t := range f.texts {
		if t == text {
			return i
		}
	}
	f.texts = append(f.texts, text)
	return len(f.texts) - 1
}

func (f *fakeVectorSpace) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(f.slot(text))}, nil
}

func (f *fakeVectorSpace) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(f.slot(t))}
	}
	return out, nil
}

func (f *fakeVectorSpace) Search(_ context.Context, vector []float32, k int) ([]domain.RetrievalHit, error) {
	if f.unavailable {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "fake search", fmt.Errorf("no generation published"))
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	idx := int(vector[0])
	if idx < 0 || idx >= len(f.texts) {
		return nil, nil
	}
	hits := f.hitsByQuery[f.texts[idx]]
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

type fakePlanner struct {
	profile *domain.TargetProfile
	err     error
	calls   int
}

func (f *fakePlanner) Plan(context.Context, string) (*domain.TargetProfile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type fakeRewriter struct {
	candidates map[string]string
	err        error
}

func (f *fakeRewriter) Rewrite(_ context.Context, req ports.RewriteRequest) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type fakeStore struct {
	bullets []domain.Bullet
	skills  string
	listErr error
}

func (f *fakeStore) ListBullets(context.Context) ([]domain.Bullet, error) {
	return f.bullets, f.listErr
}

func (f *fakeStore) GetBullet(_ context.Context, id domain.BulletID) (domain.Bullet, error) {
	for _, b := range f.bullets {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.Bullet{}, fmt.Errorf("bullet %s not found", id)
}

func (f *fakeStore) SkillsText(context.Context) (string, error) {
	return f.skills, nil
}

type fakeBuilder struct {
	published [][]domain.IndexPoint
	err       error
}

func (f *fakeBuilder) Rebuild(_ context.Context, points []domain.IndexPoint) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, points)
	return nil
}

func testMatcher() *keywords.Matcher {
	cfg := keywords.DefaultConfig()
	cfg.Groups = []keywords.CanonGroup{
		{Canonical: "kubernetes", Aliases: []string{"k8s"}},
		{Canonical: "postgresql", Aliases: []string{"postgres"}},
	}
	return keywords.NewMatcher(cfg)
}
