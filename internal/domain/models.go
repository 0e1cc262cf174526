package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExtractedItem is a single purchased line recovered from a receipt.
type ExtractedItem struct {
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Quantity    int      `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
}

// PaymentMethod describes how a receipt was paid.
type PaymentMethod struct {
	Type    PaymentType `json:"type"`
	Details string      `json:"details"`
}

// ReceiptMetadata holds receipt-level fields. Every field is optional; extractors
// populate what they find and the reconciler merges them field by field.
type ReceiptMetadata struct {
	Establishment string         `json:"establishment,omitempty"`
	CNPJ          string         `json:"cnpj,omitempty"`
	Date          string         `json:"date,omitempty"` // DD/MM/YYYY
	Time          string         `json:"time,omitempty"` // HH:MM:SS
	Total         *float64       `json:"total,omitempty"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
	Category      Category       `json:"category,omitempty"`

	// DateInferred is set when no date was printed on the receipt and the
	// extraction date was substituted.
	DateInferred bool `json:"date_inferred,omitempty"`
}

// Validation compares the sum of extracted items with the receipt's declared total.
type Validation struct {
	ItemsSum      float64  `json:"items_sum"`
	DeclaredTotal *float64 `json:"declared_total,omitempty"`
	Delta         *float64 `json:"delta,omitempty"`
	DeltaPercent  *float64 `json:"delta_percent,omitempty"`
}

// ExtractionResult is the transient outcome of one receipt extraction. It is
// returned to the caller for review and is never persisted as-is.
type ExtractionResult struct {
	ID                uuid.UUID       `json:"id"`
	Items             []ExtractedItem `json:"items"`
	Metadata          ReceiptMetadata `json:"metadata"`
	Confidence        Confidence      `json:"confidence"`
	Method            string          `json:"method"`
	Validation        *Validation     `json:"validation,omitempty"`
	ExpectedItemCount *int            `json:"expected_item_count,omitempty"`
	RawText           string          `json:"raw_text,omitempty"`
	Warnings          []string        `json:"warnings,omitempty"`
	ProcessedAt       time.Time       `json:"processed_at"`
}

// HasItems reports whether r is non-nil and carries at least one item.
func (r *ExtractionResult) HasItems() bool {
	return r != nil && len(r.Items) > 0
}

// ExtractionRun is a diagnostics record for one extraction call. It holds
// provenance and timing only, never the extracted items.
type ExtractionRun struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	RequestID         string     `db:"request_id" json:"request_id"`
	Method            string     `db:"method" json:"method"`
	Confidence        Confidence `db:"confidence" json:"confidence"`
	ItemCount         int        `db:"item_count" json:"item_count"`
	ExpectedItemCount *int       `db:"expected_item_count" json:"expected_item_count,omitempty"`
	VisionOutcome     string     `db:"vision_outcome" json:"vision_outcome"`
	OCRConfidence     float64    `db:"ocr_confidence" json:"ocr_confidence"`
	DurationMS        int64      `db:"duration_ms" json:"duration_ms"`
	ArchiveKey        string     `db:"archive_key" json:"archive_key,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}
