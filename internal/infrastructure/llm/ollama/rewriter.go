package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mkravets/resume-tailor/internal/core/ports"
)

// Rewriter asks the generation model for tightened paraphrases of the
// selected bullets. Its output is untrusted; the rewrite guard decides
// what survives.
type Rewriter struct {
	client *Client
}

func NewRewriter(client *Client) *Rewriter {
	return &Rewriter{client: client}
}

func (r *Rewriter) Rewrite(ctx context.Context, req ports.RewriteRequest) (map[string]string, error) {
	if len(req.Bullets) == 0 {
		return nil, nil
	}

	raw, err := r.client.generateJSON(ctx, buildRewritePrompt(req))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Rewrites map[string]string `json:"rewrites"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse rewrite json: %w", err)
	}
	return parsed.Rewrites, nil
}

func buildRewritePrompt(req ports.RewriteRequest) string {
	var b strings.Builder
	b.WriteString("You rephrase resume bullets for a specific job posting.\n")
	b.WriteString("Hard constraints:\n")
	b.WriteString("- never add numbers, metrics, or timeframes that are not in the original\n")
	b.WriteString("- never name tools or technologies absent from the original unless listed as allowed\n")
	fmt.Fprintf(&b, "- keep each bullet between %d and %d characters\n", req.MinChars, req.MaxChars)
	b.WriteString("- preserve the meaning; sharpen the phrasing\n")
	b.WriteString("Respond as JSON: {\"rewrites\": {\"<bullet_id>\": \"rewritten text\"}}\n")

	if req.ProfileSummary != "" {
		fmt.Fprintf(&b, "\nTarget role: %s\n", req.ProfileSummary)
	}
	if req.JDExcerpt != "" {
		fmt.Fprintf(&b, "\nJob description excerpt:\n%s\n", req.JDExcerpt)
	}

	b.WriteString("\nBullets:\n")
	for _, bullet := range req.Bullets {
		id := bullet.ID.String()
		fmt.Fprintf(&b, "- id: %s\n  text: %s\n", id, bullet.Text)
		if terms := req.AllowedTerms[id]; len(terms) > 0 {
			fmt.Fprintf(&b, "  allowed terms: %s\n", strings.Join(terms, ", "))
		}
	}
	return b.String()
}
