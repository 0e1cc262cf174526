package parser

import (
	"context"
	"fmt"
	"log"

	"savemymoney/internal/domain"
	"savemymoney/internal/port"
)

// SafeExtract runs a vision extraction and never fails. It returns nil when
// the extractor is absent, errors or panics. A result without items is still
// returned, with outcome "empty", so its metadata can be merged. The outcome
// class is used in diagnostics.
func SafeExtract(ctx context.Context, ex port.VisionExtractor, input port.VisionInput) (result *domain.ExtractionResult, outcome string) {
	if ex == nil {
		return nil, ClassifyError(ErrNotConfigured)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("parser.SafeExtract: %s panicked: %v", ex.Name(), r)
			result, outcome = nil, ClassifyError(fmt.Errorf("panic: %v", r))
		}
	}()

	res, err := ex.Extract(ctx, input)
	if err != nil {
		outcome = ClassifyError(err)
		log.Printf("parser.SafeExtract: %s failed (%s): %v", ex.Name(), outcome, err)
		return nil, outcome
	}
	if !res.HasItems() {
		return res, "empty"
	}
	return res, "ok"
}
