package domain

import "strings"

// QueryPurpose tags why a retrieval query exists.
const (
	QueryPurposeCore  = "core"
	QueryPurposeBoost = "boost"
)

// Query is one weighted retrieval query produced by the query planner.
type Query struct {
	Text    string  `json:"text"`
	Weight  float64 `json:"weight"`
	Purpose string  `json:"purpose"`
}

// NormalizeQueryText keeps query text simple and embedding-friendly.
func NormalizeQueryText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Keyword is a JD requirement with the verbatim snippets that justify it.
type Keyword struct {
	Canonical string   `json:"canonical"`
	Evidence  []string `json:"evidence,omitempty"`
}

// TargetProfile is the structured JD analysis a run is scored against.
// It is immutable for the run; boosting works on per-iteration copies.
type TargetProfile struct {
	RoleTitle  string    `json:"role_title,omitempty"`
	MustHave   []Keyword `json:"must_have"`
	NiceToHave []Keyword `json:"nice_to_have"`
	Queries    []Query   `json:"experience_queries"`
}

// Clone returns a deep copy safe to mutate for boost augmentation.
func (p TargetProfile) Clone() TargetProfile {
	out := TargetProfile{RoleTitle: p.RoleTitle}
	out.MustHave = append([]Keyword(nil), p.MustHave...)
	out.NiceToHave = append([]Keyword(nil), p.NiceToHave...)
	out.Queries = append([]Query(nil), p.Queries...)
	return out
}

func (p TargetProfile) HasKeywords() bool {
	return len(p.MustHave) > 0 || len(p.NiceToHave) > 0
}
