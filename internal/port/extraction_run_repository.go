package port

import (
	"context"

	"savemymoney/internal/domain"
)

// ExtractionRunRepository stores extraction diagnostics.
type ExtractionRunRepository interface {
	Create(ctx context.Context, run *domain.ExtractionRun) error
	ListRecent(ctx context.Context, limit int) ([]domain.ExtractionRun, error)
	Ping(ctx context.Context) error
}
