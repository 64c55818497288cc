package httpadapter

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mkravets/resume-tailor/internal/config"
	"github.com/mkravets/resume-tailor/internal/core/domain"
	"github.com/mkravets/resume-tailor/internal/core/ports"
	"github.com/mkravets/resume-tailor/internal/observability/metrics"
)

const (
	serviceName      = "tailor-api"
	maxUploadBytes   = 10 << 20
	backpressureWait = 2 * time.Second
)

type Router struct {
	cfg       config.Config
	tailor    ports.TailorService
	store     ports.BulletStore
	queue     ports.MessageQueue
	extractor ports.JDExtractor
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	tailor ports.TailorService,
	store ports.BulletStore,
	queue ports.MessageQueue,
	extractor ports.JDExtractor,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:       cfg,
		tailor:    tailor,
		store:     store,
		queue:     queue,
		extractor: extractor,
		metrics:   m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/tailor", rt.runTailor)
	mux.HandleFunc("/v1/jd/extract", rt.extractJD)
	mux.HandleFunc("/v1/reindex", rt.requestReindex)
	mux.HandleFunc("/v1/bullets", rt.listBullets)
	mux.HandleFunc("/v1/bullets/", rt.getBulletByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) runTailor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		JDText         string `json:"jd_text"`
		RewriteEnabled bool   `json:"rewrite_enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.JDText) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "jd_text is required"})
		return
	}

	start := time.Now()
	result, err := rt.tailor.Tailor(r.Context(), ports.TailorRequest{
		JDText:         req.JDText,
		RewriteEnabled: req.RewriteEnabled,
	})
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordRunError(serviceName)
		}
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	rt.recordRun(result, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) recordRun(result *domain.RunResult, duration time.Duration) {
	if rt.metrics == nil {
		return
	}

	outcome := "below_threshold"
	if result.ThresholdMet {
		outcome = "threshold_met"
	}
	fallbacks := 0
	for _, audit := range result.Rewrites {
		if audit.FallbackUsed {
			fallbacks++
		}
	}

	rt.metrics.RecordRun(serviceName, outcome, result.Score.Final, len(result.Iterations), fallbacks, duration)
	for _, it := range result.Iterations {
		rt.metrics.RecordCandidates(serviceName, len(it.Candidates))
	}
}

func (rt *Router) extractJD(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read upload: " + err.Error()})
		return
	}

	text, err := rt.extractor.Extract(data, fileHeader.Filename)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"filename": fileHeader.Filename,
		"text":     text,
	})
}

func (rt *Router) requestReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if strings.TrimSpace(req.Reason) == "" {
		req.Reason = "manual"
	}

	if err := rt.queue.PublishReindexRequested(r.Context(), req.Reason); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "reason": req.Reason})
}

func (rt *Router) listBullets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	bullets, err := rt.store.ListBullets(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if bullets == nil {
		bullets = []domain.Bullet{}
	}
	writeJSON(w, http.StatusOK, bullets)
}

func (rt *Router) getBulletByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/v1/bullets/")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bullet id is required"})
		return
	}
	id, err := domain.ParseBulletID(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	bullet, err := rt.store.GetBullet(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, bullet)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
