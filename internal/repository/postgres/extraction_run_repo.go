package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"savemymoney/internal/domain"
	"savemymoney/internal/port"
)

type extractionRunRepo struct {
	db *sqlx.DB
}

// NewExtractionRunRepo creates a new PostgreSQL-backed ExtractionRunRepository.
func NewExtractionRunRepo(db *sqlx.DB) port.ExtractionRunRepository {
	return &extractionRunRepo{db: db}
}

func (r *extractionRunRepo) Create(ctx context.Context, run *domain.ExtractionRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO extraction_runs
		(id, request_id, method, confidence, item_count, expected_item_count,
		 vision_outcome, ocr_confidence, duration_ms, archive_key, created_at)
		VALUES (:id, :request_id, :method, :confidence, :item_count, :expected_item_count,
		 :vision_outcome, :ocr_confidence, :duration_ms, :archive_key, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("extractionRunRepo.Create: %w", err)
	}
	return nil
}

func (r *extractionRunRepo) ListRecent(ctx context.Context, limit int) ([]domain.ExtractionRun, error) {
	runs := []domain.ExtractionRun{}
	err := r.db.SelectContext(ctx, &runs,
		`SELECT id, request_id, method, confidence, item_count, expected_item_count,
		        vision_outcome, ocr_confidence, duration_ms, archive_key, created_at
		 FROM extraction_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("extractionRunRepo.ListRecent: %w", err)
	}
	return runs, nil
}

func (r *extractionRunRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
