package config

import "testing"

func TestLoadIncludesLoopDefaults(t *testing.T) {
	t.Setenv("LOOP_MAX_ITERATIONS", "")
	t.Setenv("LOOP_SCORE_THRESHOLD", "")
	t.Setenv("LOOP_BOOST_WEIGHT", "")
	t.Setenv("RETRIEVAL_PER_QUERY_K", "")
	t.Setenv("RETRIEVAL_FINAL_K", "")

	cfg := Load()
	if cfg.MaxIterations != 3 {
		t.Fatalf("expected default max iterations 3, got %d", cfg.MaxIterations)
	}
	if cfg.ScoreThreshold != 80 {
		t.Fatalf("expected default score threshold 80, got %d", cfg.ScoreThreshold)
	}
	if cfg.BoostWeight != 1.6 {
		t.Fatalf("expected default boost weight 1.6, got %v", cfg.BoostWeight)
	}
	if cfg.PerQueryK != 10 || cfg.FinalK != 30 {
		t.Fatalf("expected retrieval defaults 10/30, got %d/%d", cfg.PerQueryK, cfg.FinalK)
	}
}

func TestLoadParsesLoopOverrides(t *testing.T) {
	t.Setenv("LOOP_MAX_ITERATIONS", "5")
	t.Setenv("LOOP_SCORE_THRESHOLD", "70")
	t.Setenv("LOOP_BOOST_WEIGHT", "2.0")
	t.Setenv("SELECT_MAX_BULLETS", "12")

	cfg := Load()
	if cfg.MaxIterations != 5 {
		t.Fatalf("expected max iterations 5, got %d", cfg.MaxIterations)
	}
	if cfg.ScoreThreshold != 70 {
		t.Fatalf("expected score threshold 70, got %d", cfg.ScoreThreshold)
	}
	if cfg.BoostWeight != 2.0 {
		t.Fatalf("expected boost weight 2.0, got %v", cfg.BoostWeight)
	}
	if cfg.MaxBullets != 12 {
		t.Fatalf("expected max bullets 12, got %d", cfg.MaxBullets)
	}
}

func TestTuningKeepsDefaultsForInvalidValues(t *testing.T) {
	t.Setenv("SCORE_ALPHA", "1.7")
	t.Setenv("REWRITE_SIMILARITY_MIN", "-0.2")
	t.Setenv("LOOP_MAX_ITERATIONS", "4")

	tuning := Load().Tuning()
	if tuning.Alpha != 0.7 {
		t.Fatalf("expected out-of-range alpha to keep default 0.7, got %v", tuning.Alpha)
	}
	if tuning.RewriteSimilarityMin != 0.55 {
		t.Fatalf("expected negative similarity floor to keep default 0.55, got %v", tuning.RewriteSimilarityMin)
	}
	if tuning.MaxIters != 4 {
		t.Fatalf("expected max iterations override 4, got %d", tuning.MaxIters)
	}
}
