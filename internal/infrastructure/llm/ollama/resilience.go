package ollama

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/mkravets/resume-tailor/internal/core/domain"
	"github.com/mkravets/resume-tailor/internal/core/ports"
	"github.com/mkravets/resume-tailor/internal/infrastructure/resilience"
)

func classifyOllamaError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
			}
		}
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// ResilientEmbedder runs embedding calls through the shared executor.
type ResilientEmbedder struct {
	inner ports.Embedder
	exec  *resilience.Executor
}

func NewResilientEmbedder(inner ports.Embedder, exec *resilience.Executor) *ResilientEmbedder {
	return &ResilientEmbedder{inner: inner, exec: exec}
}

func (e *ResilientEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.exec.Execute(ctx, "ollama.embed", func(ctx context.Context) error {
		vectors, err := e.inner.Embed(ctx, texts)
		if err != nil {
			return err
		}
		out = vectors
		return nil
	}, classifyOllamaError)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "embed texts", err)
	}
	return out, nil
}

func (e *ResilientEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := e.exec.Execute(ctx, "ollama.embed_query", func(ctx context.Context) error {
		vector, err := e.inner.EmbedQuery(ctx, text)
		if err != nil {
			return err
		}
		out = vector
		return nil
	}, classifyOllamaError)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "embed query", err)
	}
	return out, nil
}

// ResilientPlanner wraps JD analysis; failures come back as
// ErrPlanningFailed so the loop takes its heuristic fallback.
type ResilientPlanner struct {
	inner ports.QueryPlanner
	exec  *resilience.Executor
}

func NewResilientPlanner(inner ports.QueryPlanner, exec *resilience.Executor) *ResilientPlanner {
	return &ResilientPlanner{inner: inner, exec: exec}
}

func (p *ResilientPlanner) Plan(ctx context.Context, jdText string) (*domain.TargetProfile, error) {
	var out *domain.TargetProfile
	err := p.exec.Execute(ctx, "ollama.plan", func(ctx context.Context) error {
		profile, err := p.inner.Plan(ctx, jdText)
		if err != nil {
			return err
		}
		out = profile
		return nil
	}, classifyOllamaError)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPlanningFailed, "plan queries", err)
	}
	return out, nil
}

// ResilientRewriter wraps rewrite calls; a failure degrades to the
// original bullet text upstream.
type ResilientRewriter struct {
	inner ports.Rewriter
	exec  *resilience.Executor
}

func NewResilientRewriter(inner ports.Rewriter, exec *resilience.Executor) *ResilientRewriter {
	return &ResilientRewriter{inner: inner, exec: exec}
}

func (r *ResilientRewriter) Rewrite(ctx context.Context, req ports.RewriteRequest) (map[string]string, error) {
	var out map[string]string
	err := r.exec.Execute(ctx, "ollama.rewrite", func(ctx context.Context) error {
		rewrites, err := r.inner.Rewrite(ctx, req)
		if err != nil {
			return err
		}
		out = rewrites
		return nil
	}, classifyOllamaError)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "rewrite bullets", err)
	}
	return out, nil
}
