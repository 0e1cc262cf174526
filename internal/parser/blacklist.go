package parser

import "regexp"

// Keyword groups for lines that are never purchased products. Matching is
// token based, case-insensitive and accent-insensitive.
var (
	paymentKeywords = newPhraseList(
		"cartão", "cartao de credito", "crédito", "débito", "carteira digital",
		"pix", "dinheiro", "troco", "forma pagamento", "forma de pagamento",
		"meio de pagamento", "valor pago", "vale alimentação", "vale refeição",
	)
	// A bare "total" is also a product word ("CREME DENTAL COLGATE TOTAL"),
	// so it is handled by leadingTotal and totalAmountRe instead.
	totalKeywords = newPhraseList(
		"subtotal", "total de itens", "sub total", "valor a pagar", "total a pagar",
		"valor total", "desconto", "descontos", "acréscimo", "acrescimo", "saldo",
	)
	taxIDKeywords = newPhraseList(
		"cnpj", "cpf", "ie", "im", "inscrição estadual", "inscrição municipal",
		"consumidor", "ccf", "coo",
	)
	fiscalKeywords = newPhraseList(
		"protocolo", "chave de acesso", "nfc-e", "nfce", "sat", "danfe",
		"tributos", "lei 12.741", "lei federal", "consulta", "série", "extrato",
		"documento auxiliar", "nota fiscal", "cupom fiscal", "autorização",
		"icms", "pis", "cofins", "via consumidor", "emissão", "sefaz",
	)
	// Header keywords blacklist a line only when two or more appear together.
	headerKeywords = newPhraseList(
		"código", "cod", "descrição", "qtd", "qtde", "un", "vl unit",
		"vl total", "vl item", "item", "valor unit", "preço",
	)

	leadingTotal = newPhraseList("total", "totais")

	// totalAmountRe finds "total" directly followed by an amount.
	totalAmountRe = regexp.MustCompile(`(?:^|[^\pL])total\s*(?:r\$)?\s*:?\s*\d+(?:\.\d{3})*[.,]\d{2}\b`)

	// stopPrefixes are the keyword families a product line never starts with.
	stopPrefixes = append(append(append(phraseList{}, totalKeywords...), leadingTotal...), paymentKeywords...)
)

// IsBlacklisted reports whether line belongs to a non-product keyword group.
func IsBlacklisted(line string) bool {
	folded := Fold(line)
	words := tokens(folded)
	if len(words) == 0 {
		return false
	}
	if leadingTotal.startsWith(words) || totalAmountRe.MatchString(folded) {
		return true
	}
	for _, group := range []phraseList{paymentKeywords, totalKeywords, taxIDKeywords, fiscalKeywords} {
		if group.count(words) > 0 {
			return true
		}
	}
	return headerKeywords.count(words) >= 2
}

// startsWithStopKeyword reports whether line opens with a total or payment keyword.
func startsWithStopKeyword(line string) bool {
	return stopPrefixes.startsWith(tokens(Fold(line)))
}
