package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	leadingItemNumberRe = regexp.MustCompile(`^\d{1,3}\s+`)
	barcodeRe           = regexp.MustCompile(`(?:^|\s)(?:\d{13}|\d{12}|\d{8})(?:\s|$)`)
	leadingUnitRe       = regexp.MustCompile(`(?i)^(?:UN|UND|UNID|PC|PCT|KG|CX|LT|FD|DZ)\s+`)
	edgePunctRe         = regexp.MustCompile(`^[\s\-:*.]+|[\s\-:*.]+$`)
)

// CleanDescription strips item numbers, barcodes and unit prefixes from a
// candidate description and collapses whitespace.
func CleanDescription(s string) string {
	s = strings.TrimSpace(s)
	s = leadingItemNumberRe.ReplaceAllString(s, "")
	for barcodeRe.MatchString(s) {
		s = barcodeRe.ReplaceAllString(s, " ")
	}
	s = strings.TrimSpace(s)
	s = leadingUnitRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	return edgePunctRe.ReplaceAllString(s, "")
}

// ValidDescription reports whether s is 3-100 characters long and contains a letter.
func ValidDescription(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < 3 || n > 100 {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// DescriptionKey normalizes a description for comparison: folded case and
// accents with all whitespace removed.
func DescriptionKey(s string) string {
	return strings.Join(strings.Fields(Fold(s)), "")
}
