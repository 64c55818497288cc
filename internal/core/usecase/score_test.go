package usecase

import (
	"math"
	"testing"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

func scorerForTest() *Scorer {
	return NewScorer(testMatcher(), DefaultTuning(), discardLogger())
}

func TestScoreFullMustCoverage(t *testing.T) {
	s := scorerForTest()
	selected := []domain.MergedCandidate{
		{BulletID: expID("a", "1"), Text: "Operated Kubernetes clusters for a payments platform", WeightedScore: 0.9},
		{BulletID: expID("a", "2"), Text: "Tuned PostgreSQL query plans under heavy write load", WeightedScore: 0.8},
	}
	profile := domain.TargetProfile{
		MustHave: []domain.Keyword{{Canonical: "kubernetes"}, {Canonical: "postgresql"}},
	}

	bd := s.Score(ScoreInput{Selected: selected, Pool: selected, Profile: profile})
	if bd.CoverageBullets != 1.0 {
		t.Fatalf("coverage = %f, want 1.0", bd.CoverageBullets)
	}
	if len(bd.MustMissingBullets) != 0 {
		t.Fatalf("missing must-haves = %v, want none", bd.MustMissingBullets)
	}
	if bd.Degraded {
		t.Fatal("score marked degraded with a populated profile")
	}
}

func TestScoreReportsMissingMustHaves(t *testing.T) {
	s := scorerForTest()
	selected := []domain.MergedCandidate{
		{BulletID: expID("a", "1"), Text: "Shipped a billing service", WeightedScore: 0.9},
	}
	profile := domain.TargetProfile{
		MustHave: []domain.Keyword{{Canonical: "kubernetes"}, {Canonical: "terraform"}},
	}

	bd := s.Score(ScoreInput{Selected: selected, Pool: selected, Profile: profile})
	if len(bd.MustMissingBullets) != 2 {
		t.Fatalf("missing = %v, want both must-haves", bd.MustMissingBullets)
	}
	if bd.CoverageBullets != 0 {
		t.Fatalf("coverage = %f, want 0", bd.CoverageBullets)
	}
}

func TestScoreAliasCreditFromSkills(t *testing.T) {
	s := scorerForTest()
	selected := []domain.MergedCandidate{
		{BulletID: expID("a", "1"), Text: "Shipped a billing service", WeightedScore: 0.9},
	}
	profile := domain.TargetProfile{
		MustHave: []domain.Keyword{{Canonical: "kubernetes"}},
	}

	bd := s.Score(ScoreInput{
		Selected:   selected,
		Pool:       selected,
		Profile:    profile,
		SkillsText: "Docker, k8s, Terraform",
	})
	if len(bd.MustMissingBullets) != 1 {
		t.Fatalf("bullets-only missing = %v, want kubernetes missing", bd.MustMissingBullets)
	}
	if len(bd.MustMissingAll) != 0 {
		t.Fatalf("with-skills missing = %v, want covered via alias", bd.MustMissingAll)
	}
	if bd.CoverageWithSkill <= bd.CoverageBullets {
		t.Fatalf("skills coverage %f should exceed bullets-only %f", bd.CoverageWithSkill, bd.CoverageBullets)
	}
}

func TestScoreDegradedWithoutProfile(t *testing.T) {
	s := scorerForTest()
	selected := []domain.MergedCandidate{
		{BulletID: expID("a", "1"), Text: "Did things", WeightedScore: 1.0},
	}

	bd := s.Score(ScoreInput{Selected: selected, Pool: selected, Profile: domain.TargetProfile{}})
	if !bd.Degraded {
		t.Fatal("empty profile should mark the score degraded")
	}
	if bd.Retrieval != 1.0 {
		t.Fatalf("retrieval = %f, want 1.0 for a selection equal to the pool", bd.Retrieval)
	}
}

func TestQuantBonusCapped(t *testing.T) {
	s := scorerForTest()
	selected := []domain.MergedCandidate{
		{BulletID: expID("a", "1"), Text: "Cut latency by 40%", WeightedScore: 1},
		{BulletID: expID("a", "2"), Text: "Saved $200,000 annually", WeightedScore: 1},
		{BulletID: expID("a", "3"), Text: "Scaled to 5k qps", WeightedScore: 1},
		{BulletID: expID("a", "4"), Text: "Delivered 3x throughput", WeightedScore: 1},
		{BulletID: expID("a", "5"), Text: "Reduced build time to 4 minutes", WeightedScore: 1},
	}

	bd := s.Score(ScoreInput{Selected: selected, Pool: selected, Profile: domain.TargetProfile{}})
	if math.Abs(bd.QuantBonus-DefaultTuning().QuantBonusCap) > 1e-9 {
		t.Fatalf("quant bonus = %f, want capped at %f", bd.QuantBonus, DefaultTuning().QuantBonusCap)
	}
}

func TestRedundancyPenaltyForNearDuplicates(t *testing.T) {
	s := scorerForTest()
	dup := "Designed and built streaming ingestion pipelines with exactly-once delivery guarantees"
	selected := []domain.MergedCandidate{
		{BulletID: expID("a", "1"), Text: dup, WeightedScore: 1},
		{BulletID: expID("a", "2"), Text: dup, WeightedScore: 1},
		{BulletID: expID("a", "3"), Text: "Led incident response rotations", WeightedScore: 1},
	}

	bd := s.Score(ScoreInput{Selected: selected, Pool: selected, Profile: domain.TargetProfile{}})
	if bd.RedundancyPenalty <= 0 {
		t.Fatal("duplicate bullets should incur a redundancy penalty")
	}
}

func TestRetrievalScoreAgainstPoolBest(t *testing.T) {
	s := scorerForTest()
	pool := []domain.MergedCandidate{
		{BulletID: expID("a", "1"), Text: "x", WeightedScore: 1.0},
		{BulletID: expID("a", "2"), Text: "x", WeightedScore: 0.5},
		{BulletID: expID("a", "3"), Text: "x", WeightedScore: 0.25},
	}
	// Selecting the weaker pair instead of the best pair.
	selected := pool[1:]

	bd := s.Score(ScoreInput{Selected: selected, Pool: pool, Profile: domain.TargetProfile{}})
	want := ((0.5 + 0.25) / 2) / ((1.0 + 0.5) / 2)
	if math.Abs(bd.Retrieval-want) > 1e-9 {
		t.Fatalf("retrieval = %f, want %f", bd.Retrieval, want)
	}
}

func TestScoreEmptySelection(t *testing.T) {
	s := scorerForTest()
	bd := s.Score(ScoreInput{})
	if bd.Final != 0 {
		t.Fatalf("final = %d, want 0 for empty selection", bd.Final)
	}
}
