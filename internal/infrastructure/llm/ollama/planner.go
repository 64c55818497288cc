package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

const maxPlannedQueries = 8

// Planner turns raw JD text into a target profile via the generation
// model. The caller treats any failure as recoverable.
type Planner struct {
	client *Client
}

func NewPlanner(client *Client) *Planner {
	return &Planner{client: client}
}

type plannedKeyword struct {
	Canonical string   `json:"canonical"`
	Evidence  []string `json:"evidence"`
}

type plannedQuery struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type plannedProfile struct {
	RoleTitle         string           `json:"role_title"`
	MustHave          []plannedKeyword `json:"must_have"`
	NiceToHave        []plannedKeyword `json:"nice_to_have"`
	ExperienceQueries []plannedQuery   `json:"experience_queries"`
}

func (p *Planner) Plan(ctx context.Context, jdText string) (*domain.TargetProfile, error) {
	raw, err := p.client.generateJSON(ctx, buildPlanPrompt(jdText))
	if err != nil {
		return nil, err
	}

	var parsed plannedProfile
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse plan json: %w", err)
	}

	profile := &domain.TargetProfile{RoleTitle: strings.TrimSpace(parsed.RoleTitle)}
	for _, kw := range parsed.MustHave {
		if canonical := strings.TrimSpace(kw.Canonical); canonical != "" {
			profile.MustHave = append(profile.MustHave, domain.Keyword{Canonical: canonical, Evidence: kw.Evidence})
		}
	}
	for _, kw := range parsed.NiceToHave {
		if canonical := strings.TrimSpace(kw.Canonical); canonical != "" {
			profile.NiceToHave = append(profile.NiceToHave, domain.Keyword{Canonical: canonical, Evidence: kw.Evidence})
		}
	}
	for _, q := range parsed.ExperienceQueries {
		text := domain.NormalizeQueryText(q.Text)
		if text == "" {
			continue
		}
		weight := q.Weight
		if weight <= 0 {
			weight = 1.0
		}
		profile.Queries = append(profile.Queries, domain.Query{
			Text:    text,
			Weight:  weight,
			Purpose: domain.QueryPurposeCore,
		})
		if len(profile.Queries) >= maxPlannedQueries {
			break
		}
	}

	if len(profile.Queries) == 0 {
		return nil, fmt.Errorf("planner produced no queries")
	}
	return profile, nil
}

func buildPlanPrompt(jdText string) string {
	var b strings.Builder
	b.WriteString("You analyze job descriptions for resume retrieval.\n")
	b.WriteString("Extract the target profile as JSON with this exact shape:\n")
	b.WriteString(`{"role_title": "...", "must_have": [{"canonical": "...", "evidence": ["verbatim snippet"]}], "nice_to_have": [{"canonical": "...", "evidence": []}], "experience_queries": [{"text": "...", "weight": 1.0}]}`)
	b.WriteString("\nRules:\n")
	b.WriteString("- canonical keywords are lowercase technology or skill names\n")
	b.WriteString("- every must_have needs at least one verbatim evidence snippet from the posting\n")
	b.WriteString("- experience_queries are short search phrases describing the work, 3 to 8 of them\n")
	b.WriteString("- weight is between 0.5 and 2.0, higher for core responsibilities\n")
	b.WriteString("\nJob description:\n")
	b.WriteString(jdText)
	return b.String()
}
