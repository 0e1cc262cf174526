// Package reconcile turns the vision and heuristic extraction results into
// the single result returned to callers.
package reconcile

import (
	"fmt"
	"log"
	"strings"
	"time"

	"savemymoney/internal/categorizer"
	"savemymoney/internal/domain"
	"savemymoney/internal/parser"
)

// DateLayout is the DD/MM/YYYY layout used for receipt dates.
const DateLayout = "02/01/2006"

// Input carries everything the reconciler needs. Vision and Parser may be nil.
type Input struct {
	Vision        *domain.ExtractionResult
	Parser        *domain.ExtractionResult
	ExpectedCount *int
	RawText       string
	Now           time.Time
}

// Reconciler picks or merges extraction results and finishes the metadata.
type Reconciler struct {
	categorizer *categorizer.Categorizer
}

// New creates a Reconciler. A nil categorizer uses categorizer.Default().
func New(c *categorizer.Categorizer) *Reconciler {
	if c == nil {
		c = categorizer.Default()
	}
	return &Reconciler{categorizer: c}
}

// Reconcile applies the decision policy in order:
//  1. vision count equals the expected count: vision alone, high.
//  2. vision has fewer items than expected: append unseen parser items up to
//     the expected count. Vision with more items than expected is kept alone
//     at medium.
//  3. no expected count and both have items: the larger list wins, ties go
//     to vision.
//  4. a single source with items: that source.
//  5. nothing: an empty low-confidence result carrying the raw OCR text.
//
// The returned result is always non-nil and its Items slice is never nil.
func (r *Reconciler) Reconcile(in Input) *domain.ExtractionResult {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	expected := in.ExpectedCount
	if expected == nil && in.Parser != nil {
		expected = in.Parser.ExpectedItemCount
	}

	out := r.selectItems(in.Vision, in.Parser, expected)
	out.ExpectedItemCount = expected
	if out.Method == domain.MethodNone {
		out.RawText = in.RawText
	}

	out.Metadata = MergeMetadata(metadataOf(in.Vision), metadataOf(in.Parser))
	out.Warnings = append(out.Warnings, warningsOf(in.Vision)...)
	out.Warnings = append(out.Warnings, warningsOf(in.Parser)...)

	out.Validation = parser.BuildValidation(out.Items, out.Metadata.Total)
	if parser.ExceedsTolerance(out.Validation) {
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"items sum %.2f differs from declared total %.2f by %.2f",
			out.Validation.ItemsSum, *out.Validation.DeclaredTotal, *out.Validation.Delta))
		if out.Confidence == domain.ConfidenceHigh {
			out.Confidence = domain.ConfidenceMedium
		}
	}

	if out.Metadata.Date == "" {
		out.Metadata.Date = in.Now.Format(DateLayout)
		out.Metadata.DateInferred = true
		out.Warnings = append(out.Warnings, "no date found on receipt; extraction date used")
	}

	out.Metadata.Category = r.categorizer.Categorize(out.Metadata.Establishment)

	log.Printf("reconcile.Reconciler: method=%s confidence=%s items=%d expected=%s",
		out.Method, out.Confidence, len(out.Items), formatCount(expected))
	return out
}

func (r *Reconciler) selectItems(vision, heuristic *domain.ExtractionResult, expected *int) *domain.ExtractionResult {
	visionOK, parserOK := vision.HasItems(), heuristic.HasItems()
	visionMethod := visionMethodOf(vision)

	switch {
	case visionOK && expected != nil:
		want := *expected
		n := len(vision.Items)
		switch {
		case n == want:
			return picked(vision.Items, domain.ConfidenceHigh, visionMethod)
		case n > want:
			res := picked(vision.Items, domain.ConfidenceMedium, visionMethod)
			res.Warnings = append(res.Warnings, fmt.Sprintf("vision returned %d items but the receipt declares %d", n, want))
			return res
		}
		var extra []domain.ExtractedItem
		if heuristic != nil {
			extra = heuristic.Items
		}
		merged, added := MergeItems(vision.Items, extra, want)
		conf := domain.ConfidenceMedium
		if len(merged) == want {
			conf = domain.ConfidenceHigh
		}
		method := visionMethod
		if added > 0 {
			method = "hybrid:" + providerOf(vision) + "+" + domain.MethodParser
		}
		res := picked(merged, conf, method)
		if len(merged) < want {
			res.Warnings = append(res.Warnings, fmt.Sprintf("found %d of %d items declared on the receipt", len(merged), want))
		}
		return res

	case visionOK && parserOK:
		if len(heuristic.Items) > len(vision.Items) {
			return picked(heuristic.Items, domain.ConfidenceMedium, domain.MethodParser)
		}
		return picked(vision.Items, domain.ConfidenceHigh, visionMethod)

	case visionOK:
		return picked(vision.Items, domain.ConfidenceHigh, visionMethod)

	case parserOK:
		res := picked(heuristic.Items, domain.ConfidenceMedium, domain.MethodParser)
		if expected != nil && len(res.Items) != *expected {
			res.Warnings = append(res.Warnings, fmt.Sprintf("found %d of %d items declared on the receipt", len(res.Items), *expected))
		}
		return res
	}

	return picked(nil, domain.ConfidenceLow, domain.MethodNone)
}

// MergeItems returns primary followed by the fallback items whose description
// key is not yet present, stopping once limit items are reached. It also
// reports how many fallback items were appended. Primary is never trimmed.
func MergeItems(primary, fallback []domain.ExtractedItem, limit int) ([]domain.ExtractedItem, int) {
	merged := make([]domain.ExtractedItem, len(primary), max(len(primary), limit))
	copy(merged, primary)

	seen := make(map[string]bool, len(merged))
	for _, it := range merged {
		seen[parser.DescriptionKey(it.Description)] = true
	}

	added := 0
	for _, it := range fallback {
		if len(merged) >= limit {
			break
		}
		key := parser.DescriptionKey(it.Description)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, it)
		added++
	}
	return merged, added
}

// MergeMetadata fills each empty field of primary from fallback.
func MergeMetadata(primary, fallback domain.ReceiptMetadata) domain.ReceiptMetadata {
	merged := primary
	mergeString(&merged.Establishment, fallback.Establishment)
	mergeString(&merged.CNPJ, fallback.CNPJ)
	mergeString(&merged.Date, fallback.Date)
	mergeString(&merged.Time, fallback.Time)
	if merged.Total == nil && fallback.Total != nil {
		t := *fallback.Total
		merged.Total = &t
	}
	if merged.PaymentMethod == nil && fallback.PaymentMethod != nil {
		pm := *fallback.PaymentMethod
		merged.PaymentMethod = &pm
	}
	if merged.Category == "" {
		merged.Category = fallback.Category
	}
	return merged
}

func mergeString(dst *string, fallback string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = fallback
	}
}

func picked(items []domain.ExtractedItem, conf domain.Confidence, method string) *domain.ExtractionResult {
	cp := make([]domain.ExtractedItem, len(items))
	copy(cp, items)
	return &domain.ExtractionResult{Items: cp, Confidence: conf, Method: method}
}

func metadataOf(r *domain.ExtractionResult) domain.ReceiptMetadata {
	if r == nil {
		return domain.ReceiptMetadata{}
	}
	return r.Metadata
}

func warningsOf(r *domain.ExtractionResult) []string {
	if r == nil {
		return nil
	}
	return r.Warnings
}

func visionMethodOf(r *domain.ExtractionResult) string {
	if r == nil || r.Method == "" {
		return "vision:unknown"
	}
	return r.Method
}

// providerOf strips the "vision:" tag from a vision result's method.
func providerOf(r *domain.ExtractionResult) string {
	return strings.TrimPrefix(visionMethodOf(r), "vision:")
}

func formatCount(n *int) string {
	if n == nil {
		return "unknown"
	}
	return fmt.Sprint(*n)
}
