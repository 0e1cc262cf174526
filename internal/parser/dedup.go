package parser

import (
	"math"

	"savemymoney/internal/domain"
)

// amountTolerance is the maximum difference for two amounts to be considered equal.
const amountTolerance = 0.01

// DedupItems drops items whose normalized description and amount match an
// earlier item. The first occurrence is kept and order is preserved.
func DedupItems(items []domain.ExtractedItem) []domain.ExtractedItem {
	out := make([]domain.ExtractedItem, 0, len(items))
	seen := make(map[string][]float64, len(items))
	for _, it := range items {
		key := DescriptionKey(it.Description)
		dup := false
		for _, a := range seen[key] {
			if math.Abs(a-it.Amount) <= amountTolerance+1e-9 {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[key] = append(seen[key], it.Amount)
		out = append(out, it)
	}
	return out
}
