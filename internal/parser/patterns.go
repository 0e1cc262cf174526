package parser

import (
	"regexp"
	"strconv"
	"strings"

	"savemymoney/internal/domain"
)

const (
	pricePattern = `(?:R\$\s*)?(\d{1,3}(?:\.\d{3})+,\d{2}|\d+[.,]\d{2})`
	unitPattern  = `(UN|UND|UNID|PC|PCT|KG|G|L|ML|CX|LT|FD|DZ)`
)

var (
	productLikeRe = regexp.MustCompile(`\pL{3,}`)

	// qty UN [x] price [=] total, on the line after the description.
	quantityLineRe = regexp.MustCompile(`(?i)^(\d+(?:[.,]\d+)?)\s*` + unitPattern + `\s*(?:[x*]\s*)?` +
		pricePattern + `\s*(?:=\s*)?` + pricePattern + `$`)

	// desc qty [UN] x price [=] total, on one line.
	explicitMultiplyRe = regexp.MustCompile(`(?i)^(.+?)\s+(\d+(?:[.,]\d+)?)\s*` + unitPattern + `?\s*[x*]\s*` +
		pricePattern + `\s*(?:=\s*)?` + pricePattern + `$`)

	// desc, two or more spaces, amount.
	simpleRe = regexp.MustCompile(`^(.+?)\s{2,}` + pricePattern + `$`)

	// numeric code, desc, amount.
	codePrefixedRe = regexp.MustCompile(`^(\d{3,14})\s+(.+?)\s+` + pricePattern + `$`)
)

// lineStrategy tries to read one item starting at cur. next is the following
// line, or "" at the end of input. consumed is the number of lines used.
type lineStrategy struct {
	name  string
	match func(cur, next string) (item domain.ExtractedItem, consumed int, ok bool)
}

// strategies are tried in order; the first match wins.
var strategies = []lineStrategy{
	{name: "multi_line", match: matchMultiLine},
	{name: "explicit_multiply", match: matchExplicitMultiply},
	{name: "simple", match: matchSimple},
	{name: "code_prefixed", match: matchCodePrefixed},
}

func matchMultiLine(cur, next string) (domain.ExtractedItem, int, bool) {
	if next == "" || !productLikeRe.MatchString(cur) || startsWithStopKeyword(cur) {
		return domain.ExtractedItem{}, 0, false
	}
	m := quantityLineRe.FindStringSubmatch(next)
	if m == nil {
		return domain.ExtractedItem{}, 0, false
	}
	item, ok := newItem(cur, m[4], parseQuantity(m[1], m[2]), m[3])
	if !ok {
		return domain.ExtractedItem{}, 0, false
	}
	return item, 2, true
}

func matchExplicitMultiply(cur, _ string) (domain.ExtractedItem, int, bool) {
	m := explicitMultiplyRe.FindStringSubmatch(cur)
	if m == nil {
		return domain.ExtractedItem{}, 0, false
	}
	item, ok := newItem(m[1], m[5], parseQuantity(m[2], m[3]), m[4])
	return item, 1, ok
}

func matchSimple(cur, _ string) (domain.ExtractedItem, int, bool) {
	if quantityLineRe.MatchString(cur) {
		return domain.ExtractedItem{}, 0, false
	}
	m := simpleRe.FindStringSubmatch(cur)
	if m == nil {
		return domain.ExtractedItem{}, 0, false
	}
	item, ok := newItem(m[1], m[2], 1, "")
	return item, 1, ok
}

func matchCodePrefixed(cur, _ string) (domain.ExtractedItem, int, bool) {
	if quantityLineRe.MatchString(cur) {
		return domain.ExtractedItem{}, 0, false
	}
	m := codePrefixedRe.FindStringSubmatch(cur)
	if m == nil {
		return domain.ExtractedItem{}, 0, false
	}
	item, ok := newItem(m[2], m[3], 1, "")
	return item, 1, ok
}

// newItem cleans and validates a candidate. unitPrice may be empty.
// A description needs a run of three letters to count as a product name.
func newItem(rawDesc, rawAmount string, quantity int, rawUnitPrice string) (domain.ExtractedItem, bool) {
	desc := CleanDescription(rawDesc)
	if !ValidDescription(desc) || !productLikeRe.MatchString(desc) || IsBlacklisted(desc) {
		return domain.ExtractedItem{}, false
	}
	amount, ok := NormalizeAmount(rawAmount)
	if !ok || !ValidAmount(amount) {
		return domain.ExtractedItem{}, false
	}
	if quantity < 1 {
		quantity = 1
	}
	item := domain.ExtractedItem{Description: desc, Amount: amount, Quantity: quantity}
	if rawUnitPrice != "" {
		if up, ok := NormalizeAmount(rawUnitPrice); ok && ValidAmount(up) {
			item.UnitPrice = &up
		}
	}
	return item, true
}

// parseQuantity reads a leading count. Fractional counts and weight units are
// sold as a single item.
func parseQuantity(count, unit string) int {
	switch strings.ToUpper(unit) {
	case "KG", "G":
		return 1
	}
	if strings.ContainsAny(count, ".,") {
		return 1
	}
	n, err := strconv.Atoi(count)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
