package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"savemymoney/internal/config"
	"savemymoney/internal/domain"
	"savemymoney/internal/parser"
	"savemymoney/internal/port"
	"savemymoney/internal/preprocess"
	"savemymoney/internal/reconcile"
)

// ExtractionService is the receipt extraction facade. It preprocesses the
// image, runs OCR plus the line parser and the vision model concurrently,
// and reconciles the two into one result.
type ExtractionService struct {
	preprocessor    port.ImagePreprocessor
	recognizer      port.TextRecognizer
	textParser      port.ReceiptTextParser
	vision          port.VisionExtractor // nil when no provider is configured
	reconciler      *reconcile.Reconciler
	legTimeout      time.Duration
	usePreprocessed bool
	now             func() time.Time
}

// NewExtractionService creates the facade. vision may be nil.
func NewExtractionService(
	preprocessor port.ImagePreprocessor,
	recognizer port.TextRecognizer,
	textParser port.ReceiptTextParser,
	vision port.VisionExtractor,
	reconciler *reconcile.Reconciler,
	extractionCfg *config.ExtractionConfig,
	visionCfg *config.VisionConfig,
) *ExtractionService {
	if reconciler == nil {
		reconciler = reconcile.New(nil)
	}
	s := &ExtractionService{
		preprocessor: preprocessor,
		recognizer:   recognizer,
		textParser:   textParser,
		vision:       vision,
		reconciler:   reconciler,
		legTimeout:   60 * time.Second,
		now:          time.Now,
	}
	if extractionCfg != nil && extractionCfg.LegTimeout() > 0 {
		s.legTimeout = extractionCfg.LegTimeout()
	}
	if visionCfg != nil {
		s.usePreprocessed = visionCfg.UsePreprocessed
	}
	return s
}

// ExtractReceiptData implements port.ReceiptExtractor.
func (s *ExtractionService) ExtractReceiptData(ctx context.Context, image []byte) (*domain.ExtractionResult, error) {
	report, err := s.ExtractWithReport(ctx, image)
	if err != nil {
		return nil, err
	}
	return report.Result, nil
}

type ocrLeg struct {
	parsed     *domain.ExtractionResult
	expected   *int
	text       string
	confidence float64
}

type visionLeg struct {
	result  *domain.ExtractionResult
	outcome string
}

// ExtractWithReport implements port.ReceiptExtractor. It fails only for an
// empty image or an unexpected internal panic.
func (s *ExtractionService) ExtractWithReport(ctx context.Context, image []byte) (report *port.ExtractionReport, err error) {
	if len(image) == 0 {
		return nil, domain.ErrEmptyImage
	}

	start := s.now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("extractionService.ExtractWithReport: panic: %v", r)
			report, err = nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, r)
		}
	}()

	processed, processedType := s.preprocessor.Process(ctx, image)
	visionInput := port.VisionInput{ImageBytes: image, ContentType: preprocess.DetectContentType(image)}
	if s.usePreprocessed {
		visionInput = port.VisionInput{ImageBytes: processed, ContentType: processedType}
	}

	var wg sync.WaitGroup
	ocrCh := make(chan ocrLeg, 1)
	visionCh := make(chan visionLeg, 1)

	wg.Add(2)
	go func() {
		defer wg.Done()
		leg, _ := runLeg(ctx, s.legTimeout, "ocr", func(legCtx context.Context) ocrLeg {
			return s.runOCR(legCtx, processed)
		})
		ocrCh <- leg
	}()
	go func() {
		defer wg.Done()
		leg, legErr := runLeg(ctx, s.legTimeout, "vision", func(legCtx context.Context) visionLeg {
			res, outcome := parser.SafeExtract(legCtx, s.vision, visionInput)
			return visionLeg{result: res, outcome: outcome}
		})
		if legErr != nil {
			leg.outcome = parser.ClassifyError(legErr)
		}
		visionCh <- leg
	}()

	wg.Wait()
	close(ocrCh)
	close(visionCh)

	o := <-ocrCh
	v := <-visionCh

	result := s.reconciler.Reconcile(reconcile.Input{
		Vision:        v.result,
		Parser:        o.parsed,
		ExpectedCount: o.expected,
		RawText:       o.text,
		Now:           start,
	})
	result.ID = uuid.New()
	result.ProcessedAt = s.now()

	report = &port.ExtractionReport{
		Result:        result,
		VisionOutcome: v.outcome,
		OCRConfidence: o.confidence,
		Duration:      s.now().Sub(start),
	}
	log.Printf("extractionService.ExtractWithReport: %s method=%s confidence=%s items=%d vision=%s ocr_confidence=%.1f took=%s",
		result.ID, result.Method, result.Confidence, len(result.Items), v.outcome, o.confidence, report.Duration)
	return report, nil
}

func (s *ExtractionService) runOCR(ctx context.Context, image []byte) ocrLeg {
	ocr := s.recognizer.Recognize(ctx, image)
	leg := ocrLeg{text: ocr.Text, confidence: ocr.Confidence}
	if ocr.Text == "" {
		return leg
	}
	leg.parsed = s.textParser.Parse(ocr.Text)
	leg.expected = s.textParser.ExpectedItemCount(ocr.Text)
	return leg
}

// runLeg runs fn under its own timeout and stops waiting when the timeout
// fires, even if fn ignores its context. On timeout or panic it returns the
// zero value and the reason.
func runLeg[T any](ctx context.Context, timeout time.Duration, name string, fn func(context.Context) T) (T, error) {
	legCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("extractionService: %s leg panicked: %v", name, r)
				done <- outcome{err: fmt.Errorf("%s leg panicked: %v", name, r)}
			}
		}()
		done <- outcome{value: fn(legCtx)}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-legCtx.Done():
		log.Printf("extractionService: %s leg abandoned: %v", name, legCtx.Err())
		var zero T
		return zero, legCtx.Err()
	}
}
