package parser

import (
	"log"

	"savemymoney/internal/domain"
)

// LineParser extracts items and metadata from OCR text using ordered line
// strategies. It implements port.ReceiptTextParser.
type LineParser struct{}

// NewLineParser creates a LineParser.
func NewLineParser() *LineParser {
	return &LineParser{}
}

// Parse scans text line by line, trying each strategy in priority order.
func (p *LineParser) Parse(text string) *domain.ExtractionResult {
	lines := splitLines(text)
	items := make([]domain.ExtractedItem, 0)
	hits := make(map[string]int, len(strategies))

	for i := 0; i < len(lines); {
		cur := lines[i]
		if IsBlacklisted(cur) {
			i++
			continue
		}
		next := ""
		if i+1 < len(lines) {
			next = lines[i+1]
		}

		consumed := 1
		for _, s := range strategies {
			item, n, ok := s.match(cur, next)
			if !ok {
				continue
			}
			items = append(items, item)
			hits[s.name]++
			consumed = n
			break
		}
		i += consumed
	}

	items = DedupItems(items)
	md := ExtractMetadata(text)

	confidence := domain.ConfidenceLow
	if len(items) > 0 {
		confidence = domain.ConfidenceMedium
	}

	if len(lines) > 0 {
		log.Printf("parser.LineParser: %d lines, %d items %v", len(lines), len(items), hits)
	}

	return &domain.ExtractionResult{
		Items:             items,
		Metadata:          md,
		Confidence:        confidence,
		Method:            domain.MethodParser,
		Validation:        BuildValidation(items, md.Total),
		ExpectedItemCount: ExpectedItemCount(text),
	}
}

// ExpectedItemCount implements port.ReceiptTextParser.
func (p *LineParser) ExpectedItemCount(text string) *int {
	return ExpectedItemCount(text)
}
