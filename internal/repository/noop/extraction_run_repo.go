// Package noop holds repositories used when persistence is disabled.
package noop

import (
	"context"

	"savemymoney/internal/domain"
	"savemymoney/internal/port"
)

type extractionRunRepo struct{}

// NewExtractionRunRepo returns a repository that drops every run.
func NewExtractionRunRepo() port.ExtractionRunRepository {
	return extractionRunRepo{}
}

func (extractionRunRepo) Create(context.Context, *domain.ExtractionRun) error { return nil }

func (extractionRunRepo) ListRecent(context.Context, int) ([]domain.ExtractionRun, error) {
	return []domain.ExtractionRun{}, nil
}

func (extractionRunRepo) Ping(context.Context) error { return nil }
