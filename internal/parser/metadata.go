package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"savemymoney/internal/domain"
)

const foldedPrice = `(?:r\$\s*)?(\d{1,3}(?:\.\d{3})+,\d{2}|\d+[.,]\d{2})`

// totalPatterns are ordered by precedence. Within a level the last matching
// line wins, since receipts print running totals before the amount due.
var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`valor\s+a\s+pagar\s*(?:r\$)?\s*:?\s*` + foldedPrice),
	regexp.MustCompile(`total\s+a\s+pagar\s*(?:r\$)?\s*:?\s*` + foldedPrice),
	regexp.MustCompile(`valor\s+total\s*(?:r\$)?\s*:?\s*` + foldedPrice),
	regexp.MustCompile(`(?:^|[^a-z])total\s*(?:r\$)?\s*:?\s*` + foldedPrice),
}

var (
	cnpjRe = regexp.MustCompile(`\b(\d{2})\.?(\d{3})\.?(\d{3})/?(\d{4})-?(\d{2})\b`)
	dateRe = regexp.MustCompile(`\b(\d{2})[/\-.](\d{2})[/\-.](\d{4}|\d{2})\b`)
	timeRe = regexp.MustCompile(`\b([01]\d|2[0-3]):([0-5]\d)(?::([0-5]\d))?\b`)

	// Count patterns stay on one line so a bare "ITENS" header never reads
	// the item number printed below it.
	expectedCountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`qtd\.?[ \t]*total[ \t]+de[ \t]+itens[ \t]*:?[ \t]*(\d{1,4})`),
		regexp.MustCompile(`total[ \t]+de[ \t]+itens[ \t]*:?[ \t]*(\d{1,4})`),
		regexp.MustCompile(`quantidade[ \t]+de[ \t]+itens[ \t]*:?[ \t]*(\d{1,4})`),
		regexp.MustCompile(`(?:^|[^a-z])itens[ \t]*:?[ \t]*(\d{1,4})`),
	}
)

// paymentClassifiers map keyword families to payment types, checked in order.
var paymentClassifiers = []struct {
	kind     domain.PaymentType
	keywords phraseList
}{
	{domain.PaymentCredit, newPhraseList("crédito", "credito", "credit")},
	{domain.PaymentDebit, newPhraseList("débito", "debito", "debit")},
	{domain.PaymentPix, newPhraseList("pix", "carteira digital", "carteira", "wallet")},
	{domain.PaymentCash, newPhraseList("dinheiro", "espécie", "especie")},
}

// ExtractMetadata reads receipt-level fields from OCR text.
func ExtractMetadata(text string) domain.ReceiptMetadata {
	lines := splitLines(text)
	folded := make([]string, len(lines))
	for i, l := range lines {
		folded[i] = Fold(l)
	}

	md := domain.ReceiptMetadata{}
	md.Total = declaredTotal(folded)

	cnpjLine := -1
	for i, l := range lines {
		if m := cnpjRe.FindStringSubmatch(l); m != nil {
			md.CNPJ = fmt.Sprintf("%s.%s.%s/%s-%s", m[1], m[2], m[3], m[4], m[5])
			cnpjLine = i
			break
		}
	}

	for _, l := range lines {
		if d, ok := parseDate(l); ok {
			md.Date = d
			break
		}
	}
	for _, l := range lines {
		if m := timeRe.FindStringSubmatch(l); m != nil {
			sec := m[3]
			if sec == "" {
				sec = "00"
			}
			md.Time = m[1] + ":" + m[2] + ":" + sec
			break
		}
	}

	md.Establishment = establishment(lines, cnpjLine)
	md.PaymentMethod = classifyPayment(lines, folded)
	return md
}

func declaredTotal(folded []string) *float64 {
	for _, re := range totalPatterns {
		var found *float64
		for _, l := range folded {
			if strings.Contains(l, "itens") {
				continue
			}
			m := re.FindStringSubmatch(l)
			if m == nil {
				continue
			}
			if v, ok := NormalizeAmount(m[1]); ok && v > 0 {
				found = &v
			}
		}
		if found != nil {
			return found
		}
	}
	return nil
}

// parseDate finds a DD/MM/YY(YY) date in line and returns it as DD/MM/YYYY.
// Two-digit years above 50 are read as 19xx, others as 20xx.
func parseDate(line string) (string, bool) {
	for _, m := range dateRe.FindAllStringSubmatch(line, -1) {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if day < 1 || day > 31 || month < 1 || month > 12 {
			continue
		}
		year := m[3]
		if len(year) == 2 {
			y, _ := strconv.Atoi(year)
			if y > 50 {
				year = "19" + year
			} else {
				year = "20" + year
			}
		}
		return fmt.Sprintf("%02d/%02d/%s", day, month, year), true
	}
	return "", false
}

// establishment returns the first plausible header line above the CNPJ, or
// within the first lines when no CNPJ was found.
func establishment(lines []string, cnpjLine int) string {
	limit := cnpjLine
	if limit < 0 {
		limit = 5
	}
	if limit > len(lines) {
		limit = len(lines)
	}
	for _, l := range lines[:limit] {
		if !productLikeRe.MatchString(l) || IsBlacklisted(l) || dateRe.MatchString(l) {
			continue
		}
		if letterRatio(l) < 0.5 {
			continue
		}
		return strings.Join(strings.Fields(l), " ")
	}
	return ""
}

func letterRatio(s string) float64 {
	var letters, total int
	for _, r := range s {
		if r == ' ' {
			continue
		}
		total++
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || r >= 0xC0 {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}

func classifyPayment(lines, folded []string) *domain.PaymentMethod {
	words := make([][]string, len(folded))
	for i, l := range folded {
		words[i] = tokens(l)
	}
	for _, c := range paymentClassifiers {
		for i, w := range words {
			if c.keywords.count(w) > 0 {
				return &domain.PaymentMethod{Type: c.kind, Details: strings.Join(strings.Fields(lines[i]), " ")}
			}
		}
	}
	return nil
}

// ExpectedItemCount finds the item count printed on the receipt, if any.
func ExpectedItemCount(text string) *int {
	folded := Fold(text)
	for _, re := range expectedCountPatterns {
		m := re.FindStringSubmatch(folded)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 || n > 500 {
			continue
		}
		return &n
	}
	return nil
}
