package keywords

import (
	"reflect"
	"testing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Groups = []CanonGroup{
		{Canonical: "kubernetes", Aliases: []string{"k8s"}},
		{Canonical: "postgresql", Aliases: []string{"postgres"}},
		{Canonical: "go", Aliases: []string{"golang"}},
	}
	cfg.Families = []Family{
		{Generic: "relational database", SatisfiedBy: []string{"postgresql", "mysql"}},
	}
	return cfg
}

func TestMatchExactBeatsAlias(t *testing.T) {
	m := NewMatcher(testConfig())
	docs := []Doc{
		m.Prepare("b1", "Operated Kubernetes clusters across three regions"),
		m.Prepare("b2", "Migrated workloads to k8s"),
	}

	ev := m.Match("kubernetes", docs)
	if ev.Tier != TierExact {
		t.Fatalf("tier = %s, want exact", ev.Tier)
	}
	if !reflect.DeepEqual(ev.DocIDs, []string{"b1"}) {
		t.Fatalf("doc ids = %v, want [b1]", ev.DocIDs)
	}
}

func TestMatchAliasTier(t *testing.T) {
	m := NewMatcher(testConfig())
	docs := []Doc{m.Prepare("b1", "Moved services onto k8s with zero downtime")}

	ev := m.Match("kubernetes", docs)
	if ev.Tier != TierAlias {
		t.Fatalf("tier = %s, want alias", ev.Tier)
	}
	if ev.SatisfiedBy != "k8s" {
		t.Fatalf("satisfied by = %q, want k8s", ev.SatisfiedBy)
	}
}

func TestMatchFamilyTier(t *testing.T) {
	m := NewMatcher(testConfig())
	docs := []Doc{m.Prepare("b1", "Tuned MySQL replication lag under load")}

	ev := m.Match("relational database", docs)
	if ev.Tier != TierFamily {
		t.Fatalf("tier = %s, want family", ev.Tier)
	}
	if ev.SatisfiedBy != "mysql" {
		t.Fatalf("satisfied by = %q, want mysql", ev.SatisfiedBy)
	}
}

func TestMatchFamilyViaMemberAlias(t *testing.T) {
	m := NewMatcher(testConfig())
	docs := []Doc{m.Prepare("b1", "Sharded postgres for multi-tenant reads")}

	ev := m.Match("relational database", docs)
	if ev.Tier != TierFamily {
		t.Fatalf("tier = %s, want family", ev.Tier)
	}
	if ev.SatisfiedBy != "postgresql" {
		t.Fatalf("satisfied by = %q, want postgresql", ev.SatisfiedBy)
	}
}

func TestMatchWholeTokenOnly(t *testing.T) {
	m := NewMatcher(testConfig())
	docs := []Doc{m.Prepare("b1", "Rewrote the pathfinding algorithm in Python")}

	if ev := m.Match("go", docs); ev.Matched() {
		t.Fatalf("matched %q inside \"algorithm\", want no match", ev.SatisfiedBy)
	}
}

func TestMatchGolangAliasResolvesToGo(t *testing.T) {
	m := NewMatcher(testConfig())
	docs := []Doc{m.Prepare("b1", "Built gRPC services in Golang")}

	ev := m.Match("go", docs)
	if ev.Tier != TierAlias || ev.Canonical != "go" {
		t.Fatalf("got tier=%s canonical=%q, want alias/go", ev.Tier, ev.Canonical)
	}
}

func TestCanonicalizeSeparatorException(t *testing.T) {
	c := NewCanonicalizer(testConfig())

	if got := c.CanonicalizeTerm("CI/CD"); got != "ci/cd" {
		t.Fatalf("ci/cd canonicalized to %q", got)
	}
	if got := c.CanonicalizeTerm("golang/kafka"); got != "go kafka" {
		t.Fatalf("golang/kafka canonicalized to %q, want \"go kafka\"", got)
	}
}

func TestTokenizeKeepsSymbolTokens(t *testing.T) {
	c := NewCanonicalizer(testConfig())

	got := c.Tokenize("Shipped C++ and C# services on .NET")
	want := []string{"shipped", "c++", "and", "c#", "services", "on", ".net"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
}

func TestMatchAllPreservesOrder(t *testing.T) {
	m := NewMatcher(testConfig())
	docs := []Doc{m.Prepare("b1", "Deployed postgres on kubernetes")}

	evs := m.MatchAll([]string{"kubernetes", "terraform", "postgresql"}, docs)
	if len(evs) != 3 {
		t.Fatalf("got %d evidences, want 3", len(evs))
	}
	if !evs[0].Matched() || evs[1].Matched() || !evs[2].Matched() {
		t.Fatalf("match pattern = [%v %v %v], want [true false true]",
			evs[0].Matched(), evs[1].Matched(), evs[2].Matched())
	}
}
