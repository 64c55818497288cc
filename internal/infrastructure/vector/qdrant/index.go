package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

// Index stores bullet vectors in qdrant. Each rebuild creates a fresh
// generation collection and repoints a stable alias at it, so searches
// against the alias never observe a half-built index.
type Index struct {
	baseURL    string
	alias      string
	httpClient *http.Client
}

func New(baseURL, alias string) *Index {
	return &Index{
		baseURL:    strings.TrimRight(baseURL, "/"),
		alias:      alias,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (x *Index) Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievalHit, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        k,
		"with_payload": true,
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	status, err := x.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("/collections/%s/points/search", x.alias), reqBody, &searchResp, "search")
	if err != nil {
		if status == http.StatusNotFound {
			return nil, domain.WrapError(domain.ErrIndexUnavailable, "qdrant search", err)
		}
		return nil, err
	}

	out := make([]domain.RetrievalHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		id, err := domain.ParseBulletID(getStringPayload(r.Payload, "bullet_id"))
		if err != nil {
			continue
		}
		out = append(out, domain.RetrievalHit{
			BulletID:   id,
			Text:       getStringPayload(r.Payload, "text"),
			Similarity: clampSimilarity(r.Score),
		})
	}
	return out, nil
}

func (x *Index) Rebuild(ctx context.Context, points []domain.IndexPoint) error {
	if len(points) == 0 {
		return fmt.Errorf("qdrant rebuild: no points")
	}

	generation := fmt.Sprintf("%s_gen_%d", x.alias, time.Now().UnixNano())
	if err := x.createCollection(ctx, generation, len(points[0].Vector)); err != nil {
		return err
	}
	if err := x.upsertPoints(ctx, generation, points); err != nil {
		return err
	}

	previous, err := x.aliasedCollections(ctx)
	if err != nil {
		return err
	}
	if err := x.swapAlias(ctx, generation, previous); err != nil {
		return err
	}

	// Old generations are garbage once the alias moved.
	for _, name := range previous {
		if name == generation {
			continue
		}
		x.dropCollection(ctx, name)
	}
	return nil
}

func (x *Index) createCollection(ctx context.Context, name string, vectorSize int) error {
	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	_, err := x.doJSON(ctx, http.MethodPut, "/collections/"+name, reqBody, nil, "create collection")
	return err
}

func (x *Index) upsertPoints(ctx context.Context, collection string, points []domain.IndexPoint) error {
	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	body := make([]point, 0, len(points))
	for _, p := range points {
		body = append(body, point{
			ID:     uuid.NewString(),
			Vector: p.Vector,
			Payload: map[string]any{
				"bullet_id": p.BulletID.String(),
				"text":      p.Text,
			},
		})
	}

	_, err := x.doJSON(ctx, http.MethodPut,
		fmt.Sprintf("/collections/%s/points?wait=true", collection),
		map[string]any{"points": body}, nil, "upsert points")
	return err
}

// aliasedCollections lists the collections the alias currently points
// at, normally zero or one.
func (x *Index) aliasedCollections(ctx context.Context) ([]string, error) {
	var resp struct {
		Result struct {
			Aliases []struct {
				AliasName      string `json:"alias_name"`
				CollectionName string `json:"collection_name"`
			} `json:"aliases"`
		} `json:"result"`
	}
	if _, err := x.doJSON(ctx, http.MethodGet, "/aliases", nil, &resp, "list aliases"); err != nil {
		return nil, err
	}

	var out []string
	for _, a := range resp.Result.Aliases {
		if a.AliasName == x.alias {
			out = append(out, a.CollectionName)
		}
	}
	return out, nil
}

func (x *Index) swapAlias(ctx context.Context, generation string, previous []string) error {
	var actions []map[string]any
	for range previous {
		actions = append(actions, map[string]any{
			"delete_alias": map[string]any{"alias_name": x.alias},
		})
	}
	actions = append(actions, map[string]any{
		"create_alias": map[string]any{
			"collection_name": generation,
			"alias_name":      x.alias,
		},
	})

	_, err := x.doJSON(ctx, http.MethodPost, "/collections/aliases",
		map[string]any{"actions": actions}, nil, "swap alias")
	return err
}

func (x *Index) dropCollection(ctx context.Context, name string) {
	_, _ = x.doJSON(ctx, http.MethodDelete, "/collections/"+name, nil, nil, "drop collection")
}

func (x *Index) doJSON(ctx context.Context, method, path string, payload, out any, operation string) (int, error) {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("marshal %s body: %w", operation, err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create %s request: %w", operation, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return resp.StatusCode, fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
		}
		return resp.StatusCode, fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", operation, err)
		}
	}
	return resp.StatusCode, nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func clampSimilarity(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
