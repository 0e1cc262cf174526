// Package app assembles the extraction pipeline from configuration. It is
// shared by the HTTP server and the batch CLI.
package app

import (
	"fmt"

	"savemymoney/internal/categorizer"
	"savemymoney/internal/config"
	"savemymoney/internal/ocr"
	"savemymoney/internal/ocr/tesseract"
	"savemymoney/internal/parser"
	"savemymoney/internal/parser/providers"
	"savemymoney/internal/preprocess"
	"savemymoney/internal/reconcile"
	"savemymoney/internal/service"
)

// NewExtractionService wires the preprocessor, the tesseract-backed
// recognizer, the line parser and the configured vision chain into the facade.
func NewExtractionService(cfg *config.Config) (*service.ExtractionService, error) {
	vision, err := providers.BuildVisionExtractor(&cfg.Vision)
	if err != nil {
		return nil, fmt.Errorf("building vision extractor: %w", err)
	}

	recognizer := ocr.NewRecognizer(tesseract.NewEngine(cfg.OCR.Language), cfg.OCR.MaxConcurrent)

	return service.NewExtractionService(
		preprocess.NewPreprocessor(cfg.Preprocess),
		recognizer,
		parser.NewLineParser(),
		vision,
		reconcile.New(categorizer.Default()),
		&cfg.Extraction,
		&cfg.Vision,
	), nil
}
