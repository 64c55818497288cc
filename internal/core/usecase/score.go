package usecase

import (
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/mkravets/resume-tailor/internal/core/domain"
	"github.com/mkravets/resume-tailor/internal/core/keywords"
)

// quantPatterns recognize quantified-impact signals in bullet text:
// percentages, money, multipliers, durations, and volume figures.
var quantPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+(?:\.\d+)?\s*%`),
	regexp.MustCompile(`\$\s?\d[\d,]*`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?x\b`),
	regexp.MustCompile(`(?i)\b\d[\d,]*(?:\.\d+)?\s*(?:ms|sec(?:onds)?|min(?:utes)?|hours?|days?|weeks?|months?|years?)\b`),
	regexp.MustCompile(`(?i)\b\d[\d,]*(?:\.\d+)?\s*(?:k|m|b|mb|gb|tb|qps|rps|tps|users|requests|records|events)\b`),
}

var weakOpeners = []string{
	"responsible for",
	"worked on",
	"helped with",
	"participated in",
}

// Scorer blends retrieval strength, keyword coverage, and bounded
// quality signals into one [0,100] score with a full breakdown.
type Scorer struct {
	matcher *keywords.Matcher
	tuning  Tuning
	logger  *slog.Logger
}

func NewScorer(matcher *keywords.Matcher, tuning Tuning, logger *slog.Logger) *Scorer {
	return &Scorer{matcher: matcher, tuning: tuning, logger: logger}
}

// ScoreInput is everything one scoring pass needs. Selected carries the
// final bullet text, rewrites already applied.
type ScoreInput struct {
	Selected   []domain.MergedCandidate
	Pool       []domain.MergedCandidate
	Profile    domain.TargetProfile
	SkillsText string
}

func (s *Scorer) Score(in ScoreInput) domain.ScoreBreakdown {
	bd := domain.ScoreBreakdown{}
	if len(in.Selected) == 0 {
		return bd
	}

	bd.Retrieval = s.retrievalScore(in.Selected, in.Pool)
	bd.QuantBonus = s.quantBonus(in.Selected)
	bd.RedundancyPenalty = s.redundancyPenalty(in.Selected)
	bd.LengthScore = s.lengthScore(in.Selected)
	bd.QualityScore = s.qualityScore(in.Selected)

	var base float64
	if !in.Profile.HasKeywords() {
		bd.Degraded = true
		base = bd.Retrieval
	} else {
		bulletDocs := s.prepareDocs(in.Selected, "")
		allDocs := s.prepareDocs(in.Selected, in.SkillsText)

		bd.CoverageBullets, bd.MustMissingBullets, bd.NiceMissingBullets = s.coverage(in.Profile, bulletDocs)
		bd.CoverageWithSkill, bd.MustMissingAll, bd.NiceMissingAll = s.coverage(in.Profile, allDocs)

		base = s.tuning.Alpha*bd.Retrieval + (1-s.tuning.Alpha)*bd.CoverageBullets
	}

	base += bd.QuantBonus - bd.RedundancyPenalty + bd.LengthScore + bd.QualityScore
	bd.Final = int(math.Round(100 * clamp01(base)))
	return bd
}

// retrievalScore normalizes the selected set's mean weighted score
// against the best achievable mean over the same number of candidates.
func (s *Scorer) retrievalScore(selected, pool []domain.MergedCandidate) float64 {
	if len(pool) == 0 {
		return 0
	}
	ranked := append([]domain.MergedCandidate(nil), pool...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].WeightedScore > ranked[j].WeightedScore
	})

	n := len(selected)
	if n > len(ranked) {
		n = len(ranked)
	}
	var best float64
	for _, c := range ranked[:n] {
		best += c.WeightedScore
	}
	if best <= 0 {
		return 0
	}
	var got float64
	for _, c := range selected {
		got += c.WeightedScore
	}
	got /= float64(len(selected))
	best /= float64(n)
	return clamp01(got / best)
}

func (s *Scorer) prepareDocs(selected []domain.MergedCandidate, skillsText string) []keywords.Doc {
	docs := make([]keywords.Doc, 0, len(selected)+1)
	for _, c := range selected {
		docs = append(docs, s.matcher.Prepare(c.BulletID.String(), c.Text))
	}
	if strings.TrimSpace(skillsText) != "" {
		docs = append(docs, s.matcher.Prepare("skills", skillsText))
	}
	return docs
}

// coverage returns must_weight-blended coverage plus the canonical
// terms that stayed unmatched, preserving profile order.
func (s *Scorer) coverage(profile domain.TargetProfile, docs []keywords.Doc) (float64, []string, []string) {
	mustFrac, mustMissing := s.coverageOf(profile.MustHave, docs)
	niceFrac, niceMissing := s.coverageOf(profile.NiceToHave, docs)

	switch {
	case len(profile.MustHave) == 0:
		return niceFrac, mustMissing, niceMissing
	case len(profile.NiceToHave) == 0:
		return mustFrac, mustMissing, niceMissing
	}
	blended := s.tuning.MustWeight*mustFrac + (1-s.tuning.MustWeight)*niceFrac
	return blended, mustMissing, niceMissing
}

func (s *Scorer) coverageOf(list []domain.Keyword, docs []keywords.Doc) (float64, []string) {
	if len(list) == 0 {
		return 0, nil
	}
	var credit float64
	var missing []string
	for _, kw := range list {
		ev := s.matcher.Match(kw.Canonical, docs)
		switch ev.Tier {
		case keywords.TierExact:
			credit += s.tuning.ExactWeight
		case keywords.TierAlias:
			credit += s.tuning.AliasWeight
		case keywords.TierFamily:
			credit += s.tuning.FamilyWeight
		default:
			missing = append(missing, ev.Canonical)
		}
	}
	return clamp01(credit / float64(len(list))), missing
}

func (s *Scorer) quantBonus(selected []domain.MergedCandidate) float64 {
	hits := 0
	for _, c := range selected {
		if hasQuantSignal(c.Text) {
			hits++
		}
	}
	return math.Min(s.tuning.QuantBonusCap, float64(hits)*s.tuning.QuantBonusPerHit)
}

func hasQuantSignal(text string) bool {
	for _, p := range quantPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// redundancyPenalty counts near-duplicate pairs by token Jaccard and
// scales the penalty by how much of the selection they cover.
func (s *Scorer) redundancyPenalty(selected []domain.MergedCandidate) float64 {
	if len(selected) < 2 {
		return 0
	}
	sets := make([]map[string]struct{}, len(selected))
	for i, c := range selected {
		sets[i] = tokenSet(c.Text)
	}
	pairs := 0
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			if jaccard(sets[i], sets[j]) >= s.tuning.RedundancyThreshold {
				pairs++
			}
		}
	}
	if pairs == 0 {
		return 0
	}
	return s.tuning.RedundancyWeight * math.Min(1, float64(pairs)/float64(len(selected)))
}

func (s *Scorer) lengthScore(selected []domain.MergedCandidate) float64 {
	inBand := 0
	for _, c := range selected {
		n := len([]rune(c.Text))
		if n >= s.tuning.LengthMinChars && n <= s.tuning.LengthMaxChars {
			inBand++
		}
	}
	return s.tuning.LengthWeight * float64(inBand) / float64(len(selected))
}

// qualityScore rewards bullets that avoid weak, passive openers.
func (s *Scorer) qualityScore(selected []domain.MergedCandidate) float64 {
	strong := 0
	for _, c := range selected {
		lower := strings.ToLower(strings.TrimSpace(c.Text))
		weak := false
		for _, opener := range weakOpeners {
			if strings.HasPrefix(lower, opener) {
				weak = true
				break
			}
		}
		if !weak && lower != "" {
			strong++
		}
	}
	return s.tuning.QualityWeight * float64(strong) / float64(len(selected))
}

func tokenSet(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?()[]\"'")
		if len(tok) > 2 {
			out[tok] = struct{}{}
		}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
