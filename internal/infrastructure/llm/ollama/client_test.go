package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkravets/resume-tailor/internal/core/domain"
	"github.com/mkravets/resume-tailor/internal/core/ports"
)

func generateServer(t *testing.T, innerJSON string, capturedPrompt *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if capturedPrompt != nil {
			*capturedPrompt, _ = payload["prompt"].(string)
		}
		body, _ := json.Marshal(map[string]string{"response": innerJSON})
		_, _ = w.Write(body)
	}))
}

func TestPlannerParsesProfileJSON(t *testing.T) {
	profileJSON := `{
		"role_title": "Senior Backend Engineer",
		"must_have": [{"canonical": "go", "evidence": ["experience with Go"]}],
		"nice_to_have": [{"canonical": "kafka", "evidence": []}],
		"experience_queries": [
			{"text": "  Designed   distributed systems ", "weight": 1.5},
			{"text": "operated kubernetes clusters", "weight": 0}
		]
	}`
	var capturedPrompt string
	server := generateServer(t, profileJSON, &capturedPrompt)
	defer server.Close()

	planner := NewPlanner(New(server.URL, "gen", "embed"))
	profile, err := planner.Plan(context.Background(), "We need Go engineers")
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if !strings.Contains(capturedPrompt, "We need Go engineers") {
		t.Fatalf("expected jd text in prompt, got: %s", capturedPrompt)
	}
	if profile.RoleTitle != "Senior Backend Engineer" {
		t.Fatalf("role title = %q", profile.RoleTitle)
	}
	if len(profile.MustHave) != 1 || profile.MustHave[0].Canonical != "go" {
		t.Fatalf("must have = %+v", profile.MustHave)
	}
	if len(profile.Queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(profile.Queries))
	}
	if profile.Queries[0].Text != "designed distributed systems" {
		t.Fatalf("expected normalized query text, got %q", profile.Queries[0].Text)
	}
	if profile.Queries[1].Weight != 1.0 {
		t.Fatalf("expected non-positive weight defaulted to 1.0, got %v", profile.Queries[1].Weight)
	}
}

func TestPlannerErrorsWhenNoQueriesPlanned(t *testing.T) {
	server := generateServer(t, `{"role_title": "x", "experience_queries": []}`, nil)
	defer server.Close()

	planner := NewPlanner(New(server.URL, "gen", "embed"))
	if _, err := planner.Plan(context.Background(), "jd"); err == nil {
		t.Fatalf("expected error for empty query plan")
	}
}

func TestRewriterParsesRewritesAndListsAllowedTerms(t *testing.T) {
	var capturedPrompt string
	server := generateServer(t, `{"rewrites": {"exp:j1:1": "Sharpened bullet text."}}`, &capturedPrompt)
	defer server.Close()

	id, _ := domain.NewBulletID(domain.ParentExperience, "j1", "1")
	rewriter := NewRewriter(New(server.URL, "gen", "embed"))
	out, err := rewriter.Rewrite(context.Background(), ports.RewriteRequest{
		Bullets:      []domain.Bullet{{ID: id, Text: "Original bullet text."}},
		AllowedTerms: map[string][]string{"exp:j1:1": {"go", "kafka"}},
		MinChars:     80,
		MaxChars:     220,
	})
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if out["exp:j1:1"] != "Sharpened bullet text." {
		t.Fatalf("rewrites = %v", out)
	}
	if !strings.Contains(capturedPrompt, "allowed terms: go, kafka") {
		t.Fatalf("expected allowed terms in prompt, got: %s", capturedPrompt)
	}
	if !strings.Contains(capturedPrompt, "between 80 and 220 characters") {
		t.Fatalf("expected char band in prompt, got: %s", capturedPrompt)
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed"))
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
