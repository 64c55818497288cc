package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkravets/resume-tailor/internal/core/domain"
	"github.com/mkravets/resume-tailor/internal/core/keywords"
	"github.com/mkravets/resume-tailor/internal/core/ports"
)

const jdExcerptChars = 600

// Tailor is the loop controller: plan queries, retrieve, select,
// optionally rewrite, score, then either stop or boost the missing
// must-have terms and try again. The run always ends on its best
// iteration, met threshold or not.
type Tailor struct {
	planner   *Planner
	retriever *Retriever
	scorer    *Scorer
	rewrite   *RewritePass
	store     ports.BulletStore
	matcher   *keywords.Matcher
	tuning    Tuning
	policies  []SelectionPolicy
	logger    *slog.Logger
	now       func() time.Time
}

func NewTailor(
	planner *Planner,
	retriever *Retriever,
	scorer *Scorer,
	rewrite *RewritePass,
	store ports.BulletStore,
	matcher *keywords.Matcher,
	tuning Tuning,
	policies []SelectionPolicy,
	logger *slog.Logger,
) *Tailor {
	return &Tailor{
		planner:   planner,
		retriever: retriever,
		scorer:    scorer,
		rewrite:   rewrite,
		store:     store,
		matcher:   matcher,
		tuning:    tuning,
		policies:  policies,
		logger:    logger,
		now:       time.Now,
	}
}

func (t *Tailor) Tailor(ctx context.Context, req ports.TailorRequest) (*domain.RunResult, error) {
	const op = "tailor run"

	if strings.TrimSpace(req.JDText) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("empty job description"))
	}

	ctx, cancel := context.WithTimeout(ctx, t.tuning.RunDeadline)
	defer cancel()

	runID := uuid.NewString()
	started := t.now()
	logger := t.logger.With(slog.String("run_id", runID))

	profile, fellBack := t.planner.Plan(ctx, req.JDText)
	if fellBack {
		logger.Info("planner fallback engaged", slog.Int("heuristic_queries", len(profile.Queries)))
	}

	skillsText := ""
	if text, err := t.store.SkillsText(ctx); err != nil {
		logger.Warn("skills text unavailable", slog.String("error", err.Error()))
	} else {
		skillsText = text
	}

	allowlist := t.allowedTerms(profile)
	profileSummary := profileSummary(profile)
	jdExcerpt := JDExcerpt(req.JDText, jdExcerptChars)

	var (
		iterations   []domain.IterationRecord
		bestIndex    = -1
		bestScore    domain.ScoreBreakdown
		bestOrdered  []domain.BulletID
		bestAudits   []domain.RewriteAudit
		thresholdMet bool

		boostQuery *domain.Query
		boostTerms []string
	)

	for i := 1; i <= t.tuning.MaxIters; i++ {
		if ctx.Err() != nil {
			logger.Warn("run deadline reached, stopping at best iteration", slog.Int("iteration", i))
			break
		}

		queries := append([]domain.Query(nil), profile.Queries...)
		if boostQuery != nil {
			queries = append(queries, *boostQuery)
		}

		candidates, err := t.retriever.Retrieve(ctx, queries, t.tuning.PerQueryK, t.tuning.FinalK)
		if err != nil {
			if domain.IsKind(err, domain.ErrIndexUnavailable) || bestIndex < 0 {
				return nil, err
			}
			logger.Warn("retrieval failed, keeping best iteration", slog.String("error", err.Error()))
			break
		}

		selection := SelectBullets(candidates, t.tuning.MaxBullets, t.tuning.ExperienceWeight, t.policies...)

		scored := append([]domain.MergedCandidate(nil), selection.Bullets...)
		var audits []domain.RewriteAudit
		if req.RewriteEnabled && t.rewrite != nil {
			allowlists := make(map[string][]string, len(scored))
			for _, c := range scored {
				allowlists[c.BulletID.String()] = allowlist
			}
			finals, a := t.rewrite.Apply(ctx, scored, allowlists, profileSummary, jdExcerpt)
			audits = a
			for idx := range scored {
				if text, ok := finals[scored[idx].BulletID.String()]; ok {
					scored[idx].Text = text
				}
			}
		}

		score := t.scorer.Score(ScoreInput{
			Selected:   scored,
			Pool:       candidates,
			Profile:    profile,
			SkillsText: skillsText,
		})

		iterations = append(iterations, domain.IterationRecord{
			Index:       i,
			Queries:     queries,
			Candidates:  candidates,
			SelectedIDs: selection.Ordered,
			Score:       score,
			BoostTerms:  boostTerms,
		})
		logger.Info("iteration scored",
			slog.Int("iteration", i),
			slog.Int("score", score.Final),
			slog.Int("selected", len(selection.Ordered)),
			slog.Int("missing_must", len(score.MustMissingBullets)),
		)

		// Strictly greater keeps the earliest iteration on ties.
		if bestIndex < 0 || score.Final > bestScore.Final {
			bestIndex = i
			bestScore = score
			bestOrdered = selection.Ordered
			bestAudits = audits
		}

		if score.Final >= t.tuning.ScoreThreshold {
			thresholdMet = true
			break
		}
		if i == t.tuning.MaxIters {
			break
		}
		if len(score.MustMissingBullets) == 0 {
			// Below threshold with full must-have coverage: another
			// boost round cannot change retrieval input.
			break
		}

		boostTerms = score.MustMissingBullets
		if len(boostTerms) > t.tuning.BoostTopNMissing {
			boostTerms = boostTerms[:t.tuning.BoostTopNMissing]
		}
		boostQuery = &domain.Query{
			Text:    domain.NormalizeQueryText(strings.Join(boostTerms, " ")),
			Weight:  t.tuning.BoostWeight,
			Purpose: domain.QueryPurposeBoost,
		}
	}

	if bestIndex < 0 {
		return nil, domain.WrapError(domain.ErrTemporary, op, fmt.Errorf("no iteration completed: %w", ctx.Err()))
	}

	result := &domain.RunResult{
		RunID:           runID,
		BestIteration:   bestIndex,
		ThresholdMet:    thresholdMet,
		PlannerFellBack: fellBack,
		SelectedIDs:     bestOrdered,
		Score:           bestScore,
		Rewrites:        bestAudits,
		Iterations:      iterations,
		StartedAt:       started,
		FinishedAt:      t.now(),
	}
	for _, a := range bestAudits {
		if a.Changed {
			if result.Overrides == nil {
				result.Overrides = make(map[string]string)
			}
			result.Overrides[a.BulletID.String()] = a.Final
		}
	}

	logger.Info("run finished",
		slog.Int("best_iteration", bestIndex),
		slog.Int("score", bestScore.Final),
		slog.Bool("threshold_met", thresholdMet),
		slog.Duration("elapsed", result.FinishedAt.Sub(started)),
	)
	return result, nil
}

// allowedTerms builds the rewrite allowlist from the profile: every
// canonical keyword plus its configured aliases.
func (t *Tailor) allowedTerms(profile domain.TargetProfile) []string {
	canon := t.matcher.Canonicalizer()
	seen := make(map[string]struct{})
	var terms []string
	add := func(term string) {
		norm := canon.CanonicalizeTerm(term)
		if norm == "" {
			return
		}
		if _, ok := seen[norm]; !ok {
			seen[norm] = struct{}{}
			terms = append(terms, norm)
		}
		for _, alias := range canon.AliasForms(norm) {
			if _, ok := seen[alias]; !ok {
				seen[alias] = struct{}{}
				terms = append(terms, alias)
			}
		}
	}
	for _, kw := range profile.MustHave {
		add(kw.Canonical)
	}
	for _, kw := range profile.NiceToHave {
		add(kw.Canonical)
	}
	return terms
}

func profileSummary(profile domain.TargetProfile) string {
	var parts []string
	if profile.RoleTitle != "" {
		parts = append(parts, profile.RoleTitle)
	}
	for _, kw := range profile.MustHave {
		parts = append(parts, kw.Canonical)
	}
	return strings.Join(parts, ", ")
}
