package usecase

import "time"

// Tuning carries every weight, threshold, and cap the engine uses.
// Nothing below is hardcoded at the call sites; the config layer
// populates this from the environment.
type Tuning struct {
	PerQueryK        int
	FinalK           int
	MaxBullets       int
	ExperienceWeight float64

	MaxIters         int
	ScoreThreshold   int
	BoostWeight      float64
	BoostTopNMissing int
	RunDeadline      time.Duration

	Alpha      float64
	MustWeight float64

	ExactWeight  float64
	AliasWeight  float64
	FamilyWeight float64

	QuantBonusPerHit float64
	QuantBonusCap    float64

	RedundancyThreshold float64
	RedundancyWeight    float64

	LengthWeight   float64
	QualityWeight  float64
	LengthMinChars int
	LengthMaxChars int

	RewriteMinChars      int
	RewriteMaxChars      int
	RewriteSimilarityMin float64
}

func DefaultTuning() Tuning {
	return Tuning{
		PerQueryK:        10,
		FinalK:           30,
		MaxBullets:       16,
		ExperienceWeight: 1.0,

		MaxIters:         3,
		ScoreThreshold:   80,
		BoostWeight:      1.6,
		BoostTopNMissing: 6,
		RunDeadline:      120 * time.Second,

		Alpha:      0.7,
		MustWeight: 0.8,

		ExactWeight:  1.0,
		AliasWeight:  0.85,
		FamilyWeight: 0.80,

		QuantBonusPerHit: 0.05,
		QuantBonusCap:    0.20,

		RedundancyThreshold: 0.80,
		RedundancyWeight:    0.10,

		LengthWeight:   0.05,
		QualityWeight:  0.05,
		LengthMinChars: 80,
		LengthMaxChars: 220,

		RewriteMinChars:      80,
		RewriteMaxChars:      220,
		RewriteSimilarityMin: 0.55,
	}
}
