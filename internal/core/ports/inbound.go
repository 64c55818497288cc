package ports

import (
	"context"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

// TailorRequest starts one tailoring run against a job description.
type TailorRequest struct {
	JDText         string
	RewriteEnabled bool
}

// TailorService runs the retrieval/selection/scoring loop.
type TailorService interface {
	Tailor(ctx context.Context, req TailorRequest) (*domain.RunResult, error)
}

// BulletIndexer rebuilds the vector index from the bullet store.
type BulletIndexer interface {
	Reindex(ctx context.Context, reason string) error
}

// JDExtractor pulls plain text out of an uploaded job description file.
type JDExtractor interface {
	Extract(data []byte, filename string) (string, error)
}
