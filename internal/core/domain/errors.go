package domain

import (
	"errors"
	"fmt"
)

var (
	ErrIndexUnavailable = errors.New("vector index unavailable")
	ErrBulletNotFound   = errors.New("bullet not found")
	ErrPlanningFailed   = errors.New("query planning failed")
	ErrRewriteRejected  = errors.New("rewrite rejected")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
