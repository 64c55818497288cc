package domain

import "time"

// ScoreBreakdown is the per-iteration score decomposition. Component
// values are normalized to [0,1]; Final is scaled to [0,100].
type ScoreBreakdown struct {
	Final             int     `json:"final_score"`
	Retrieval         float64 `json:"retrieval_score"`
	CoverageBullets   float64 `json:"coverage_bullets_only"`
	CoverageWithSkill float64 `json:"coverage_with_skills"`
	QuantBonus        float64 `json:"quant_bonus"`
	RedundancyPenalty float64 `json:"redundancy_penalty"`
	LengthScore       float64 `json:"length_score"`
	QualityScore      float64 `json:"quality_score"`

	MustMissingBullets []string `json:"must_missing_bullets_only"`
	NiceMissingBullets []string `json:"nice_missing_bullets_only"`
	MustMissingAll     []string `json:"must_missing_all"`
	NiceMissingAll     []string `json:"nice_missing_all"`

	// Degraded is set when no target profile was available and the
	// score is retrieval-only.
	Degraded bool `json:"degraded,omitempty"`
}

// RewriteAudit records the outcome of one bullet rewrite attempt.
// Output text equals the original whenever FallbackUsed is set.
type RewriteAudit struct {
	BulletID     BulletID `json:"bullet_id"`
	Original     string   `json:"original"`
	Final        string   `json:"final"`
	Changed      bool     `json:"changed"`
	FallbackUsed bool     `json:"fallback_used"`
	Reasons      []string `json:"reasons,omitempty"`
}

// IterationRecord is the append-only trace of one loop iteration.
type IterationRecord struct {
	Index       int               `json:"iteration"`
	Queries     []Query           `json:"queries"`
	Candidates  []MergedCandidate `json:"candidates"`
	SelectedIDs []BulletID        `json:"selected_ids"`
	Score       ScoreBreakdown    `json:"score"`
	BoostTerms  []string          `json:"boost_terms,omitempty"`
}

// RunResult is what a finished tailoring run hands to the report and
// rendering collaborators. It always reflects the best iteration.
type RunResult struct {
	RunID           string `json:"run_id"`
	BestIteration   int    `json:"best_iteration"`
	ThresholdMet    bool   `json:"threshold_met"`
	PlannerFellBack bool   `json:"planner_fallback,omitempty"`

	SelectedIDs []BulletID        `json:"selected_ids"`
	Overrides   map[string]string `json:"overrides,omitempty"`
	Score       ScoreBreakdown    `json:"score"`
	Rewrites    []RewriteAudit    `json:"rewrites,omitempty"`
	Iterations  []IterationRecord `json:"iterations"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
