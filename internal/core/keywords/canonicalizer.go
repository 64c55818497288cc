package keywords

import "strings"

// Canonicalizer normalizes raw keyword forms into canonical terms and
// tokenizes free text with the same rules, so matching is always
// whole-token and case-insensitive.
type Canonicalizer struct {
	opts       Options
	keep       map[rune]struct{}
	exceptions map[string]struct{}

	// normalized alias phrase -> canonical phrase
	aliasToCanon map[string]string
	// canonical phrase -> normalized alias phrases (canonical excluded)
	canonAliases map[string][]string
}

func NewCanonicalizer(cfg Config) *Canonicalizer {
	c := &Canonicalizer{
		opts:         cfg.Options,
		keep:         make(map[rune]struct{}, len(cfg.Options.KeepChars)),
		exceptions:   make(map[string]struct{}, len(cfg.Options.SeparatorExceptions)),
		aliasToCanon: make(map[string]string),
		canonAliases: make(map[string][]string),
	}
	for _, r := range cfg.Options.KeepChars {
		c.keep[r] = struct{}{}
	}
	for _, e := range cfg.Options.SeparatorExceptions {
		c.exceptions[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}

	for _, g := range cfg.Groups {
		canon := c.normalizePhrase(g.Canonical)
		if canon == "" {
			continue
		}
		c.aliasToCanon[canon] = canon
		for _, alias := range g.Aliases {
			norm := c.normalizePhrase(alias)
			if norm == "" || norm == canon {
				continue
			}
			c.aliasToCanon[norm] = canon
			c.canonAliases[canon] = append(c.canonAliases[canon], norm)
		}
	}
	return c
}

// CanonicalizeTerm maps a raw keyword to its canonical phrase. Whole
// phrases resolve first; otherwise each token is mapped independently,
// so "golang/kafka" becomes "go kafka".
func (c *Canonicalizer) CanonicalizeTerm(term string) string {
	norm := c.normalizePhrase(term)
	if canon, ok := c.aliasToCanon[norm]; ok {
		return canon
	}
	tokens := strings.Fields(norm)
	if len(tokens) < 2 {
		return norm
	}
	for i, tok := range tokens {
		if canon, ok := c.aliasToCanon[tok]; ok {
			tokens[i] = canon
		}
	}
	return strings.Join(tokens, " ")
}

// AliasForms returns the normalized alias phrases of a canonical term.
func (c *Canonicalizer) AliasForms(canonical string) []string {
	return c.canonAliases[c.normalizePhrase(canonical)]
}

// Tokenize splits free text into normalized whole tokens.
func (c *Canonicalizer) Tokenize(text string) []string {
	return strings.Fields(c.normalizeRaw(text, true))
}

func (c *Canonicalizer) normalizePhrase(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	_, keepSeparators := c.exceptions[lowered]
	return strings.Join(strings.Fields(c.normalizeRaw(lowered, !keepSeparators)), " ")
}

// normalizeRaw lowercases and replaces everything outside
// [a-z0-9]+keep_chars with spaces. Slashes and dashes split tokens when
// configured, so "golang/kafka" matches both parts.
func (c *Canonicalizer) normalizeRaw(s string, splitSeparators bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '/' && splitSeparators && c.opts.SlashToSpace:
			b.WriteByte(' ')
		case r == '-' && splitSeparators && c.opts.DashToSpace:
			b.WriteByte(' ')
		default:
			if _, ok := c.keep[r]; ok {
				b.WriteRune(r)
			} else {
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}
