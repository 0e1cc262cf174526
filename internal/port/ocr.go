package port

import (
	"context"
	"time"

	"savemymoney/internal/domain"
)

// OCRResult is the raw output of a text recognition pass.
type OCRResult struct {
	Text       string
	Confidence float64 // 0-100
}

// TextRecognizer runs optical character recognition over an image. It never
// returns an error; failures yield an empty result.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) OCRResult
}

// ImagePreprocessor cleans an image for OCR. On any failure it returns the
// input unchanged together with its detected content type.
type ImagePreprocessor interface {
	Process(ctx context.Context, image []byte) ([]byte, string)
}

// ReceiptTextParser turns OCR text into a partial extraction result.
type ReceiptTextParser interface {
	Parse(text string) *domain.ExtractionResult
	ExpectedItemCount(text string) *int
}

// ExtractionReport is an extraction result plus the per-leg diagnostics
// recorded for each run.
type ExtractionReport struct {
	Result        *domain.ExtractionResult
	VisionOutcome string
	OCRConfidence float64
	Duration      time.Duration
}

// ReceiptExtractor is the single entry point for turning a receipt image into
// an extraction result.
type ReceiptExtractor interface {
	ExtractReceiptData(ctx context.Context, image []byte) (*domain.ExtractionResult, error)
	// ExtractWithReport is ExtractReceiptData plus diagnostics.
	ExtractWithReport(ctx context.Context, image []byte) (*ExtractionReport, error)
}
