package parser

import (
	"math"
	"strconv"
	"strings"
)

const (
	// MinAmount and MaxAmount bound a plausible item amount.
	MinAmount = 0.01
	MaxAmount = 50000.0
)

// NormalizeAmount parses a monetary string written with either decimal
// convention ("1.234,56", "12,90", "R$ 5,49", "1,234.56") and rounds the result
// to cents.
func NormalizeAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "R$"), "r$")
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	if s == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		// A single dot followed by exactly three digits is a thousands separator.
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return RoundAmount(v), true
}

// RoundAmount rounds v to two decimal places.
func RoundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

// ValidAmount reports whether v is within the accepted item amount range.
func ValidAmount(v float64) bool {
	return v >= MinAmount && v <= MaxAmount
}
