package port

import (
	"context"

	"savemymoney/internal/domain"
)

// VisionInput carries the image sent to a vision model.
type VisionInput struct {
	ImageBytes  []byte
	ContentType string
}

// VisionExtractor abstracts a multi-modal model that reads items and metadata
// straight from a receipt image.
type VisionExtractor interface {
	Extract(ctx context.Context, input VisionInput) (*domain.ExtractionResult, error)
	// Name identifies the provider and is used in provenance tags.
	Name() string
}
