// Package ocr runs a local text recognition engine behind a bounded pool of slots.
package ocr

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/semaphore"

	"savemymoney/internal/port"
)

// Engine performs one recognition pass. Implementations own their native
// resources for the duration of the call and must release them before returning.
type Engine interface {
	Recognize(image []byte) (text string, confidence float64, err error)
}

// Recognizer implements port.TextRecognizer. At most maxConcurrent engine
// passes run at the same time; each pass gets a fresh engine session.
type Recognizer struct {
	engine Engine
	slots  *semaphore.Weighted
}

// NewRecognizer creates a Recognizer around engine.
func NewRecognizer(engine Engine, maxConcurrent int64) *Recognizer {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Recognizer{
		engine: engine,
		slots:  semaphore.NewWeighted(maxConcurrent),
	}
}

// Recognize returns the recognized text and mean confidence. Engine failures,
// panics and cancellation while waiting for a slot all yield an empty result.
func (r *Recognizer) Recognize(ctx context.Context, image []byte) (result port.OCRResult) {
	if len(image) == 0 {
		return port.OCRResult{}
	}
	if err := r.slots.Acquire(ctx, 1); err != nil {
		log.Printf("ocr.Recognizer: waiting for engine slot: %v", err)
		return port.OCRResult{}
	}
	defer r.slots.Release(1)

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("ocr.Recognizer: engine panicked: %v", rec)
			result = port.OCRResult{}
		}
	}()

	start := time.Now()
	text, confidence, err := r.engine.Recognize(image)
	if err != nil {
		log.Printf("ocr.Recognizer: recognition failed after %s: %v", time.Since(start), err)
		return port.OCRResult{}
	}

	log.Printf("ocr.Recognizer: recognized %d chars (confidence %.1f) in %s", len(text), confidence, time.Since(start))
	return port.OCRResult{Text: text, Confidence: clampConfidence(confidence)}
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 100:
		return 100
	default:
		return c
	}
}
