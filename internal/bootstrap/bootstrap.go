package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkravets/resume-tailor/internal/config"
	"github.com/mkravets/resume-tailor/internal/core/keywords"
	"github.com/mkravets/resume-tailor/internal/core/ports"
	"github.com/mkravets/resume-tailor/internal/core/usecase"
	"github.com/mkravets/resume-tailor/internal/infrastructure/extractor/jdtext"
	"github.com/mkravets/resume-tailor/internal/infrastructure/llm/ollama"
	natsqueue "github.com/mkravets/resume-tailor/internal/infrastructure/queue/nats"
	"github.com/mkravets/resume-tailor/internal/infrastructure/repository/postgres"
	"github.com/mkravets/resume-tailor/internal/infrastructure/resilience"
	"github.com/mkravets/resume-tailor/internal/infrastructure/vector/memory"
	"github.com/mkravets/resume-tailor/internal/infrastructure/vector/pgvector"
	"github.com/mkravets/resume-tailor/internal/infrastructure/vector/qdrant"
	"github.com/mkravets/resume-tailor/internal/observability/logging"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Store     ports.BulletStore
	Extractor ports.JDExtractor
	TailorSvc ports.TailorService
	Indexer   ports.BulletIndexer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := postgres.NewBulletRepository(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	kwConfig, err := keywords.LoadConfig(cfg.KeywordCanonPath, cfg.KeywordFamiliesPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load keyword config: %w", err)
	}
	matcher := keywords.NewMatcher(kwConfig)
	canon := keywords.NewCanonicalizer(kwConfig)

	exec := resilience.NewExecutor(cfg.Resilience())

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: exec,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)
	embedder := ollama.NewResilientEmbedder(ollama.NewEmbedder(ollamaClient), exec)
	plannerLLM := ollama.NewResilientPlanner(ollama.NewPlanner(ollamaClient), exec)
	rewriterLLM := ollama.NewResilientRewriter(ollama.NewRewriter(ollamaClient), exec)

	var (
		index   ports.VectorIndex
		builder ports.VectorIndexBuilder
	)
	switch cfg.VectorBackend {
	case "qdrant":
		idx := qdrant.New(cfg.QdrantURL, cfg.QdrantAlias)
		index, builder = idx, idx
	case "pgvector":
		idx := pgvector.New(db)
		if err := idx.EnsureSchema(ctx); err != nil {
			queue.Close()
			_ = db.Close()
			return nil, fmt.Errorf("ensure pgvector schema: %w", err)
		}
		index, builder = idx, idx
	case "memory":
		idx := memory.New()
		index, builder = idx, idx
	default:
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}

	tuning := cfg.Tuning()
	var policies []usecase.SelectionPolicy
	if cfg.AnchorJobID != "" {
		policies = append(policies, usecase.RecentJobAnchor{JobID: cfg.AnchorJobID})
	}

	planner := usecase.NewPlanner(plannerLLM, logger)
	retriever := usecase.NewRetriever(index, embedder, logger)
	scorer := usecase.NewScorer(matcher, tuning, logger)
	guard := usecase.NewRewriteGuard(canon, tuning)
	rewritePass := usecase.NewRewritePass(rewriterLLM, guard, tuning, logger)

	tailor := usecase.NewTailor(planner, retriever, scorer, rewritePass, store, matcher, tuning, policies, logger)
	ingestor := usecase.NewIngestor(store, embedder, builder, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:     queue,
		Store:     store,
		Extractor: jdtext.NewExtractor(),
		TailorSvc: tailor,
		Indexer:   ingestor,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
