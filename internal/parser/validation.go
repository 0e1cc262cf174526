package parser

import (
	"math"

	"savemymoney/internal/domain"
)

const (
	// DeltaTolerancePercent and DeltaToleranceAbsolute bound the accepted gap
	// between the item sum and the declared total; the larger of the two applies.
	DeltaTolerancePercent  = 5.0
	DeltaToleranceAbsolute = 0.50
)

// BuildValidation compares the item sum with the declared total, if any.
func BuildValidation(items []domain.ExtractedItem, total *float64) *domain.Validation {
	var sum float64
	for _, it := range items {
		sum += it.Amount
	}
	v := &domain.Validation{ItemsSum: RoundAmount(sum)}
	if total == nil || *total <= 0 {
		return v
	}
	declared := *total
	delta := RoundAmount(math.Abs(v.ItemsSum - declared))
	pct := math.Round(delta/declared*10000) / 100
	v.DeclaredTotal = &declared
	v.Delta = &delta
	v.DeltaPercent = &pct
	return v
}

// ExceedsTolerance reports whether a validation carries a delta larger than
// max(5% of the declared total, 0.50).
func ExceedsTolerance(v *domain.Validation) bool {
	if v == nil || v.Delta == nil || v.DeclaredTotal == nil {
		return false
	}
	tolerance := math.Max(*v.DeclaredTotal*DeltaTolerancePercent/100, DeltaToleranceAbsolute)
	return *v.Delta > tolerance+1e-9
}
