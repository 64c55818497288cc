package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mkravets/resume-tailor/internal/core/domain"
	"github.com/mkravets/resume-tailor/internal/core/ports"
)

const (
	fallbackMaxLineQueries = 6
	fallbackMinLineChars   = 12
	fallbackCondenseLines  = 20
	fallbackCondenseChars  = 300
)

// Planner wraps the query-planning collaborator with a deterministic
// heuristic fallback so a broken or slow LLM never aborts a run.
type Planner struct {
	llm    ports.QueryPlanner
	logger *slog.Logger
}

func NewPlanner(llm ports.QueryPlanner, logger *slog.Logger) *Planner {
	return &Planner{llm: llm, logger: logger}
}

// Plan returns a usable profile and whether the heuristic fallback was
// taken. The fallback profile has queries but no keywords, which the
// scorer reports as a degraded score.
func (p *Planner) Plan(ctx context.Context, jdText string) (domain.TargetProfile, bool) {
	if p.llm != nil {
		profile, err := p.llm.Plan(ctx, jdText)
		if err == nil && profile != nil && len(profile.Queries) > 0 {
			return *profile, false
		}
		if err != nil {
			p.logger.Warn("query planning failed, using heuristic queries", slog.String("error", err.Error()))
		} else {
			p.logger.Warn("query planner returned no queries, using heuristic queries")
		}
	}
	return HeuristicProfile(jdText), true
}

// HeuristicProfile derives retrieval queries straight from the JD text:
// requirement-looking lines become individual queries and the document
// head becomes one condensed query.
func HeuristicProfile(jdText string) domain.TargetProfile {
	var profile domain.TargetProfile

	lines := strings.Split(jdText, "\n")
	for _, line := range lines {
		text := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•·"))
		if len([]rune(text)) < fallbackMinLineChars {
			continue
		}
		profile.Queries = append(profile.Queries, domain.Query{
			Text:    domain.NormalizeQueryText(text),
			Weight:  1.0,
			Purpose: domain.QueryPurposeCore,
		})
		if len(profile.Queries) >= fallbackMaxLineQueries {
			break
		}
	}

	head := lines
	if len(head) > fallbackCondenseLines {
		head = head[:fallbackCondenseLines]
	}
	condensed := domain.NormalizeQueryText(strings.Join(head, " "))
	if runes := []rune(condensed); len(runes) > fallbackCondenseChars {
		condensed = strings.TrimSpace(string(runes[:fallbackCondenseChars]))
	}
	if condensed != "" {
		profile.Queries = append(profile.Queries, domain.Query{
			Text:    condensed,
			Weight:  1.0,
			Purpose: domain.QueryPurposeCore,
		})
	}
	return profile
}

// JDExcerpt trims the JD to a short context snippet for the rewrite
// collaborator.
func JDExcerpt(jdText string, maxChars int) string {
	condensed := strings.Join(strings.Fields(jdText), " ")
	runes := []rune(condensed)
	if len(runes) <= maxChars {
		return condensed
	}
	return strings.TrimSpace(string(runes[:maxChars]))
}
