package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mkravets/resume-tailor/internal/core/domain"
	"github.com/mkravets/resume-tailor/internal/core/keywords"
	"github.com/mkravets/resume-tailor/internal/core/ports"
)

var (
	numberPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?%?`)
	tokenPattern  = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9+./#-]*`)
)

// RewriteGuard is the safety gate between the rewrite collaborator and
// everything downstream. A rewrite is used only if it introduces no new
// numbers, no new tool tokens outside the allowlist, stays inside the
// length band, and keeps enough token overlap with the original.
type RewriteGuard struct {
	canon  *keywords.Canonicalizer
	tuning Tuning
}

func NewRewriteGuard(canon *keywords.Canonicalizer, tuning Tuning) *RewriteGuard {
	return &RewriteGuard{canon: canon, tuning: tuning}
}

// Validate returns the rejection reasons; an empty slice means accepted.
func (g *RewriteGuard) Validate(original, rewritten string, allowlist []string) []string {
	var reasons []string

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return []string{"empty rewrite"}
	}

	if extra := newNumbers(original, rewritten); len(extra) > 0 {
		reasons = append(reasons, fmt.Sprintf("introduces numbers not in original: %s", strings.Join(extra, ", ")))
	}
	if extra := g.newToolTokens(original, rewritten, allowlist); len(extra) > 0 {
		reasons = append(reasons, fmt.Sprintf("introduces tool tokens outside allowlist: %s", strings.Join(extra, ", ")))
	}

	n := len([]rune(rewritten))
	if n < g.tuning.RewriteMinChars || n > g.tuning.RewriteMaxChars {
		reasons = append(reasons, fmt.Sprintf("length %d outside [%d, %d]", n, g.tuning.RewriteMinChars, g.tuning.RewriteMaxChars))
	}

	if sim := jaccard(tokenSet(original), tokenSet(rewritten)); sim < g.tuning.RewriteSimilarityMin {
		reasons = append(reasons, fmt.Sprintf("similarity %.2f below %.2f, meaning drifted", sim, g.tuning.RewriteSimilarityMin))
	}

	return reasons
}

// newNumbers lists normalized numeric tokens present in rewritten but
// not in original. Commas are stripped so "1,000" and "1000" compare
// equal.
func newNumbers(original, rewritten string) []string {
	have := make(map[string]struct{})
	for _, m := range numberPattern.FindAllString(original, -1) {
		have[normalizeNumber(m)] = struct{}{}
	}
	var extra []string
	seen := make(map[string]struct{})
	for _, m := range numberPattern.FindAllString(rewritten, -1) {
		norm := normalizeNumber(m)
		if _, ok := have[norm]; ok {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		extra = append(extra, norm)
	}
	return extra
}

func normalizeNumber(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), ",", "")
}

// newToolTokens lists technology-looking tokens in rewritten that are
// neither in the original nor in the allowlist. A token counts as
// tool-looking when it carries a digit, a symbol from "+#./", an
// uppercase letter past its first rune ("PostgreSQL", "gRPC"), or is
// capitalized anywhere but sentence start ("Flink", "Kafka").
func (g *RewriteGuard) newToolTokens(original, rewritten string, allowlist []string) []string {
	allowed := make(map[string]struct{})
	add := func(text string) {
		for _, tok := range tokenPattern.FindAllString(text, -1) {
			allowed[strings.ToLower(tok)] = struct{}{}
		}
		for _, tok := range g.canon.Tokenize(text) {
			allowed[tok] = struct{}{}
		}
	}
	add(original)
	for _, term := range allowlist {
		add(term)
	}

	var extra []string
	seen := make(map[string]struct{})
	for pos, tok := range tokenPattern.FindAllString(rewritten, -1) {
		if !toolLooking(tok, pos) {
			continue
		}
		lower := strings.ToLower(tok)
		if _, ok := allowed[lower]; ok {
			continue
		}
		if _, ok := allowed[strings.Trim(lower, ".")]; ok {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		extra = append(extra, tok)
	}
	return extra
}

func toolLooking(tok string, pos int) bool {
	for i, r := range tok {
		switch {
		case r >= '0' && r <= '9':
			return true
		case r == '+' || r == '#' || r == '.' || r == '/':
			return true
		case i > 0 && r >= 'A' && r <= 'Z':
			return true
		case i == 0 && pos > 0 && r >= 'A' && r <= 'Z':
			return true
		}
	}
	return false
}

// RewritePass asks the rewrite collaborator for paraphrases of the
// selected bullets and applies only the ones the guard accepts. Any
// collaborator failure degrades to the original text for every bullet.
type RewritePass struct {
	rewriter ports.Rewriter
	guard    *RewriteGuard
	tuning   Tuning
	logger   *slog.Logger
}

func NewRewritePass(rewriter ports.Rewriter, guard *RewriteGuard, tuning Tuning, logger *slog.Logger) *RewritePass {
	return &RewritePass{rewriter: rewriter, guard: guard, tuning: tuning, logger: logger}
}

// Apply returns final texts keyed by bullet id plus the audit trail.
// Every selected bullet gets an audit entry, changed or not.
func (p *RewritePass) Apply(ctx context.Context, selected []domain.MergedCandidate, allowlists map[string][]string, profileSummary, jdExcerpt string) (map[string]string, []domain.RewriteAudit) {
	finals := make(map[string]string, len(selected))
	audits := make([]domain.RewriteAudit, 0, len(selected))
	for _, c := range selected {
		finals[c.BulletID.String()] = c.Text
	}

	bullets := make([]domain.Bullet, 0, len(selected))
	for _, c := range selected {
		bullets = append(bullets, domain.Bullet{ID: c.BulletID, Text: c.Text})
	}

	candidates, err := p.rewriter.Rewrite(ctx, ports.RewriteRequest{
		Bullets:        bullets,
		AllowedTerms:   allowlists,
		ProfileSummary: profileSummary,
		JDExcerpt:      jdExcerpt,
		MinChars:       p.tuning.RewriteMinChars,
		MaxChars:       p.tuning.RewriteMaxChars,
	})
	if err != nil {
		p.logger.Warn("rewrite collaborator failed, keeping originals", slog.String("error", err.Error()))
		for _, c := range selected {
			audits = append(audits, domain.RewriteAudit{
				BulletID:     c.BulletID,
				Original:     c.Text,
				Final:        c.Text,
				FallbackUsed: true,
				Reasons:      []string{"rewrite collaborator unavailable"},
			})
		}
		return finals, audits
	}

	for _, c := range selected {
		key := c.BulletID.String()
		audit := domain.RewriteAudit{BulletID: c.BulletID, Original: c.Text, Final: c.Text}

		candidate, ok := candidates[key]
		if !ok || strings.TrimSpace(candidate) == "" || strings.TrimSpace(candidate) == c.Text {
			audits = append(audits, audit)
			continue
		}

		reasons := p.guard.Validate(c.Text, candidate, allowlists[key])
		if len(reasons) > 0 {
			audit.FallbackUsed = true
			audit.Reasons = reasons
			p.logger.Info("rewrite rejected",
				slog.String("bullet_id", key),
				slog.Any("reasons", reasons),
			)
			audits = append(audits, audit)
			continue
		}

		audit.Final = strings.TrimSpace(candidate)
		audit.Changed = true
		finals[key] = audit.Final
		audits = append(audits, audit)
	}
	return finals, audits
}
