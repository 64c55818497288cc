package keywords

import "sort"

// MatchTier records how a keyword was satisfied, strongest first.
type MatchTier int

const (
	TierNone MatchTier = iota
	TierFamily
	TierAlias
	TierExact
)

func (t MatchTier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierAlias:
		return "alias"
	case TierFamily:
		return "family"
	default:
		return "none"
	}
}

// Doc is one searchable text unit, pre-tokenized by the canonicalizer.
type Doc struct {
	ID     string
	Tokens []string
}

// Evidence is the outcome of matching one keyword against a document
// set: the best tier found and which documents produced it.
type Evidence struct {
	Canonical   string
	Tier        MatchTier
	SatisfiedBy string
	DocIDs      []string
}

func (e Evidence) Matched() bool { return e.Tier != TierNone }

// Matcher resolves keywords against tokenized documents using
// whole-token phrase matching in three tiers: the canonical phrase
// itself, a configured alias, or a family member standing in for a
// generic term.
type Matcher struct {
	canon    *Canonicalizer
	families map[string][]string
}

func NewMatcher(cfg Config) *Matcher {
	c := NewCanonicalizer(cfg)
	m := &Matcher{
		canon:    c,
		families: make(map[string][]string, len(cfg.Families)),
	}
	for _, f := range cfg.Families {
		generic := c.CanonicalizeTerm(f.Generic)
		if generic == "" {
			continue
		}
		for _, member := range f.SatisfiedBy {
			norm := c.CanonicalizeTerm(member)
			if norm == "" {
				continue
			}
			m.families[generic] = append(m.families[generic], norm)
		}
	}
	return m
}

func (m *Matcher) Canonicalizer() *Canonicalizer { return m.canon }

// Prepare tokenizes a text unit for repeated matching.
func (m *Matcher) Prepare(id, text string) Doc {
	return Doc{ID: id, Tokens: m.canon.Tokenize(text)}
}

// Match resolves one keyword against the documents. Stronger tiers win:
// an exact hit anywhere suppresses alias and family evidence.
func (m *Matcher) Match(keyword string, docs []Doc) Evidence {
	canonical := m.canon.CanonicalizeTerm(keyword)
	ev := Evidence{Canonical: canonical}
	if canonical == "" {
		return ev
	}

	if ids := m.findPhrase(canonical, docs); len(ids) > 0 {
		ev.Tier = TierExact
		ev.DocIDs = ids
		return ev
	}

	for _, alias := range m.canon.AliasForms(canonical) {
		if ids := m.findPhrase(alias, docs); len(ids) > 0 {
			ev.Tier = TierAlias
			ev.SatisfiedBy = alias
			ev.DocIDs = ids
			return ev
		}
	}

	for _, member := range m.families[canonical] {
		if ids := m.findPhrase(member, docs); len(ids) > 0 {
			ev.Tier = TierFamily
			ev.SatisfiedBy = member
			ev.DocIDs = ids
			return ev
		}
		for _, alias := range m.canon.AliasForms(member) {
			if ids := m.findPhrase(alias, docs); len(ids) > 0 {
				ev.Tier = TierFamily
				ev.SatisfiedBy = member
				ev.DocIDs = ids
				return ev
			}
		}
	}
	return ev
}

// MatchAll resolves every keyword, preserving input order.
func (m *Matcher) MatchAll(terms []string, docs []Doc) []Evidence {
	out := make([]Evidence, 0, len(terms))
	for _, term := range terms {
		out = append(out, m.Match(term, docs))
	}
	return out
}

func (m *Matcher) findPhrase(phrase string, docs []Doc) []string {
	want := m.canon.Tokenize(phrase)
	if len(want) == 0 {
		return nil
	}
	var ids []string
	for _, d := range docs {
		if containsSequence(d.Tokens, want) {
			ids = append(ids, d.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func containsSequence(tokens, want []string) bool {
	if len(want) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(want) <= len(tokens); i++ {
		for j, w := range want {
			if tokens[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}
