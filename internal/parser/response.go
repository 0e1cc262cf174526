package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"savemymoney/internal/domain"
)

// ExtractJSONObject returns the first balanced {...} span in text. Braces
// inside JSON strings are ignored.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			c := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
		// Unbalanced from this brace; try the next one.
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// LenientNumber accepts JSON numbers, numeric strings in either decimal
// convention, and null. Valid is false when the value was absent or unreadable.
type LenientNumber struct {
	Value float64
	Valid bool
}

func (n *LenientNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if v, ok := NormalizeAmount(s); ok {
			n.Value, n.Valid = v, true
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return nil
	}
	n.Value, n.Valid = RoundAmount(f), true
	return nil
}

// VisionItem is one product as reported by a vision model.
type VisionItem struct {
	Description string        `json:"description"`
	Amount      LenientNumber `json:"amount"`
	Quantity    LenientNumber `json:"quantity"`
	UnitPrice   LenientNumber `json:"unit_price"`
}

type visionPayload struct {
	Items         []VisionItem  `json:"items"`
	Establishment string        `json:"establishment"`
	CNPJ          string        `json:"cnpj"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Total         LenientNumber `json:"total"`
	PaymentMethod *struct {
		Type    string `json:"type"`
		Details string `json:"details"`
	} `json:"payment_method"`
}

var digitsRe = regexp.MustCompile(`\D`)

// ParseVisionResponse decodes a model reply into an extraction result tagged
// with method. Items failing the product filters are dropped.
func ParseVisionResponse(text, method string) (*domain.ExtractionResult, error) {
	raw, ok := ExtractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("%w (raw: %s)", ErrNoJSON, truncate(text, 200))
	}

	var payload visionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parsing model JSON output: %w (raw: %s)", err, truncate(raw, 500))
	}

	items := DedupItems(FilterVisionItems(payload.Items))

	md := domain.ReceiptMetadata{
		Establishment: strings.Join(strings.Fields(payload.Establishment), " "),
		Time:          normalizeTime(payload.Time),
	}
	if d, ok := parseDate(payload.Date); ok {
		md.Date = d
	} else if d, ok := parseISODate(payload.Date); ok {
		md.Date = d
	}
	if digits := digitsRe.ReplaceAllString(payload.CNPJ, ""); len(digits) == 14 {
		md.CNPJ = fmt.Sprintf("%s.%s.%s/%s-%s", digits[0:2], digits[2:5], digits[5:8], digits[8:12], digits[12:14])
	}
	if payload.Total.Valid && payload.Total.Value > 0 {
		total := payload.Total.Value
		md.Total = &total
	}
	if pm := payload.PaymentMethod; pm != nil && (pm.Type != "" || pm.Details != "") {
		md.PaymentMethod = &domain.PaymentMethod{
			Type:    domain.ParsePaymentType(strings.ToLower(strings.TrimSpace(pm.Type))),
			Details: strings.TrimSpace(pm.Details),
		}
	}

	confidence := domain.ConfidenceLow
	if len(items) > 0 {
		confidence = domain.ConfidenceHigh
	}

	return &domain.ExtractionResult{
		Items:      items,
		Metadata:   md,
		Confidence: confidence,
		Method:     method,
		Validation: BuildValidation(items, md.Total),
	}, nil
}

// maxQuantity bounds a reported quantity; anything above it is read as 1.
const maxQuantity = 10000

// FilterVisionItems drops blacklisted, too-short or out-of-range items that a
// model may report despite the prompt rules.
func FilterVisionItems(raw []VisionItem) []domain.ExtractedItem {
	items := make([]domain.ExtractedItem, 0, len(raw))
	for _, r := range raw {
		if IsBlacklisted(r.Description) {
			continue
		}
		desc := CleanDescription(r.Description)
		if !ValidDescription(desc) || IsBlacklisted(desc) {
			continue
		}
		if !r.Amount.Valid || !ValidAmount(r.Amount.Value) {
			continue
		}
		qty := 1
		if r.Quantity.Valid && r.Quantity.Value >= 1 && r.Quantity.Value <= maxQuantity {
			qty = int(r.Quantity.Value + 0.5)
		}
		item := domain.ExtractedItem{Description: desc, Amount: r.Amount.Value, Quantity: qty}
		if r.UnitPrice.Valid && ValidAmount(r.UnitPrice.Value) {
			up := r.UnitPrice.Value
			item.UnitPrice = &up
		}
		items = append(items, item)
	}
	return items
}

var isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

func parseISODate(s string) (string, bool) {
	m := isoDateRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return m[3] + "/" + m[2] + "/" + m[1], true
}

func normalizeTime(s string) string {
	m := timeRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	sec := m[3]
	if sec == "" {
		sec = "00"
	}
	return m[1] + ":" + m[2] + ":" + sec
}
