package usecase

import (
	"fmt"
	"testing"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

func TestSelectCapsToMaxBullets(t *testing.T) {
	candidates := make([]domain.MergedCandidate, 20)
	for i := range candidates {
		candidates[i] = domain.MergedCandidate{
			BulletID:      expID("j", fmt.Sprintf("%02d", i)),
			Text:          "text",
			WeightedScore: 2.0 - float64(i)*0.05,
			HitCount:      1,
		}
	}

	sel := SelectBullets(candidates, 16, 1.0)
	if len(sel.Bullets) != 16 {
		t.Fatalf("selected %d bullets, want 16", len(sel.Bullets))
	}

	// The four weakest candidates are the ones dropped.
	kept := make(map[string]bool)
	for _, c := range sel.Bullets {
		kept[c.BulletID.String()] = true
	}
	for i := 16; i < 20; i++ {
		if kept[candidates[i].BulletID.String()] {
			t.Fatalf("low-scoring candidate %s should have been dropped", candidates[i].BulletID)
		}
	}
}

func TestSelectExperienceWeightBias(t *testing.T) {
	candidates := []domain.MergedCandidate{
		{BulletID: projID("side", "1"), Text: "p", WeightedScore: 1.0},
		{BulletID: expID("acme", "1"), Text: "e", WeightedScore: 0.8},
	}

	sel := SelectBullets(candidates, 1, 1.5)
	if len(sel.Bullets) != 1 {
		t.Fatalf("selected %d, want 1", len(sel.Bullets))
	}
	if sel.Bullets[0].BulletID != expID("acme", "1") {
		t.Fatalf("selected %s, want the experience bullet", sel.Bullets[0].BulletID)
	}
}

func TestRenderOrderGroupsByParent(t *testing.T) {
	candidates := []domain.MergedCandidate{
		{BulletID: expID("old", "1"), WeightedScore: 0.6},
		{BulletID: expID("new", "2"), WeightedScore: 0.5},
		{BulletID: expID("new", "1"), WeightedScore: 0.9},
		{BulletID: expID("old", "2"), WeightedScore: 0.7},
	}

	sel := SelectBullets(candidates, 10, 1.0)
	want := []string{"exp:new:1", "exp:new:2", "exp:old:2", "exp:old:1"}
	if len(sel.Ordered) != len(want) {
		t.Fatalf("ordered %d ids, want %d", len(sel.Ordered), len(want))
	}
	for i, id := range sel.Ordered {
		if id.String() != want[i] {
			t.Fatalf("render order[%d] = %s, want %s", i, id, want[i])
		}
	}
}

func TestSelectEmptyPool(t *testing.T) {
	sel := SelectBullets(nil, 16, 1.0)
	if len(sel.Bullets) != 0 || len(sel.Ordered) != 0 {
		t.Fatalf("want empty selection, got %d/%d", len(sel.Bullets), len(sel.Ordered))
	}
}

func TestRecentJobAnchorPullsBulletBack(t *testing.T) {
	candidates := []domain.MergedCandidate{
		{BulletID: expID("older", "1"), WeightedScore: 0.9},
		{BulletID: expID("older", "2"), WeightedScore: 0.8},
		{BulletID: expID("recent", "1"), WeightedScore: 0.1},
	}

	sel := SelectBullets(candidates, 2, 1.0, RecentJobAnchor{JobID: "recent"})
	found := false
	for _, c := range sel.Bullets {
		if c.BulletID == expID("recent", "1") {
			found = true
		}
	}
	if !found {
		t.Fatal("anchor policy did not retain the recent job's bullet")
	}
	if len(sel.Bullets) != 2 {
		t.Fatalf("anchor policy changed the cap: %d bullets", len(sel.Bullets))
	}
}

func TestSelectWithoutAnchorDropsWeakBullet(t *testing.T) {
	candidates := []domain.MergedCandidate{
		{BulletID: expID("older", "1"), WeightedScore: 0.9},
		{BulletID: expID("older", "2"), WeightedScore: 0.8},
		{BulletID: expID("recent", "1"), WeightedScore: 0.1},
	}

	sel := SelectBullets(candidates, 2, 1.0)
	for _, c := range sel.Bullets {
		if c.BulletID == expID("recent", "1") {
			t.Fatal("weak bullet kept without anchor policy")
		}
	}
}
