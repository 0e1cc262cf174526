package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savemymoney/internal/domain"
	"savemymoney/internal/parser"
)

const sampleReceipt = `SUPERMERCADO BOM PRECO LTDA
CNPJ: 12.345.678/0001-90
Rua das Flores, 123 - Centro
CUPOM FISCAL ELETRONICO - SAT
ITEM CODIGO DESCRICAO QTD UN VL UNIT VL TOTAL
BISN SEVEN BOYS 300G TRAD
1UN 5,49 5,49
002 7891000100103 CAFE PILAO 500G 3 UN X 24,49 73,47
Qtd. total de itens: 2
Valor a Pagar R$ 78,96
FORMA PAGAMENTO ... CARTEIRA DIGITAL 78,96
12/10/2024 10:30:15`

func TestLineParser_Parse_FullReceipt(t *testing.T) {
	p := parser.NewLineParser()

	result := p.Parse(sampleReceipt)

	require.NotNil(t, result)
	assert.Equal(t, "parser", result.Method)
	assert.Equal(t, domain.ConfidenceMedium, result.Confidence)
	require.Len(t, result.Items, 2)

	assert.Equal(t, "BISN SEVEN BOYS 300G TRAD", result.Items[0].Description)
	assert.InDelta(t, 5.49, result.Items[0].Amount, 0.001)
	assert.Equal(t, 1, result.Items[0].Quantity)

	assert.Equal(t, "CAFE PILAO 500G", result.Items[1].Description)
	assert.InDelta(t, 73.47, result.Items[1].Amount, 0.001)
	assert.Equal(t, 3, result.Items[1].Quantity)
	require.NotNil(t, result.Items[1].UnitPrice)
	assert.InDelta(t, 24.49, *result.Items[1].UnitPrice, 0.001)

	require.NotNil(t, result.Validation)
	assert.InDelta(t, 78.96, result.Validation.ItemsSum, 0.001)
	require.NotNil(t, result.Validation.DeclaredTotal)
	assert.InDelta(t, 78.96, *result.Validation.DeclaredTotal, 0.001)
	require.NotNil(t, result.Validation.Delta)
	assert.InDelta(t, 0.0, *result.Validation.Delta, 0.001)

	require.NotNil(t, result.ExpectedItemCount)
	assert.Equal(t, 2, *result.ExpectedItemCount)

	md := result.Metadata
	assert.Equal(t, "SUPERMERCADO BOM PRECO LTDA", md.Establishment)
	assert.Equal(t, "12.345.678/0001-90", md.CNPJ)
	assert.Equal(t, "12/10/2024", md.Date)
	assert.Equal(t, "10:30:15", md.Time)
	require.NotNil(t, md.PaymentMethod)
	assert.Equal(t, domain.PaymentPix, md.PaymentMethod.Type)
}

func TestLineParser_Parse_TwoLineItem(t *testing.T) {
	p := parser.NewLineParser()

	result := p.Parse("BISN SEVEN BOYS 300G TRAD\n1UN 5,49 5,49")

	require.Len(t, result.Items, 1)
	assert.Equal(t, domain.ExtractedItem{
		Description: "BISN SEVEN BOYS 300G TRAD",
		Amount:      5.49,
		Quantity:    1,
		UnitPrice:   result.Items[0].UnitPrice,
	}, result.Items[0])
}

func TestLineParser_Parse_PaymentLineNeverAnItem(t *testing.T) {
	p := parser.NewLineParser()
	inputs := []string{
		"FORMA PAGAMENTO ... CARTEIRA DIGITAL 78,96",
		"FORMA PAGAMENTO    CARTEIRA DIGITAL    78,96",
		"123 FORMA PAGAMENTO CARTEIRA DIGITAL 78,96",
		"ARROZ\nFORMA PAGAMENTO ... CARTEIRA DIGITAL 78,96",
	}
	for _, in := range inputs {
		result := p.Parse(in)
		for _, it := range result.Items {
			assert.NotContains(t, it.Description, "PAGAMENTO", in)
			assert.NotContains(t, it.Description, "CARTEIRA", in)
		}
	}
}

func TestLineParser_Parse_Strategies(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		desc     string
		amount   float64
		quantity int
	}{
		{"simple", "LEITE INTEGRAL 1L  4,99", "LEITE INTEGRAL 1L", 4.99, 1},
		{"simple with currency", "PAO DE FORMA    R$ 8,50", "PAO DE FORMA", 8.50, 1},
		{"code prefixed", "7891234 SABAO EM PO 12,90", "SABAO EM PO", 12.90, 1},
		{"explicit multiply with equals", "REFRIGERANTE 2L 2 UN X 8,99 = 17,98", "REFRIGERANTE 2L", 17.98, 2},
		{"weighed two-line", "BANANA PRATA KG\n0,755KG 6,99 5,28", "BANANA PRATA KG", 5.28, 1},
		{"two-line with multiplier", "IOGURTE NATURAL\n4 UN x 2,50 10,00", "IOGURTE NATURAL", 10.00, 4},
	}
	p := parser.NewLineParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Parse(tt.text)
			require.Len(t, result.Items, 1)
			assert.Equal(t, tt.desc, result.Items[0].Description)
			assert.InDelta(t, tt.amount, result.Items[0].Amount, 0.001)
			assert.Equal(t, tt.quantity, result.Items[0].Quantity)
		})
	}
}

func TestLineParser_Parse_RejectsInvalidCandidates(t *testing.T) {
	p := parser.NewLineParser()

	result := p.Parse("AB  5,00\n12345  3,00\nTELEVISAO  60.000,00\nBRINDE  0,00")

	assert.Empty(t, result.Items)
	assert.Equal(t, domain.ConfidenceLow, result.Confidence)
}

func TestLineParser_Parse_DeduplicatesItems(t *testing.T) {
	p := parser.NewLineParser()

	result := p.Parse("LEITE INTEGRAL 1L  4,99\nleite   integral 1l  4,99\nLEITE INTEGRAL 1L  5,99")

	require.Len(t, result.Items, 2)
	assert.InDelta(t, 4.99, result.Items[0].Amount, 0.001)
	assert.InDelta(t, 5.99, result.Items[1].Amount, 0.001)
}

func TestLineParser_Parse_NoItems(t *testing.T) {
	p := parser.NewLineParser()

	result := p.Parse("OBRIGADO PELA PREFERENCIA\nVOLTE SEMPRE")

	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
	assert.Equal(t, domain.ConfidenceLow, result.Confidence)
	assert.Equal(t, "parser", result.Method)
}

func TestLineParser_Parse_EmptyText(t *testing.T) {
	result := parser.NewLineParser().Parse("")

	assert.Empty(t, result.Items)
	assert.Equal(t, domain.ConfidenceLow, result.Confidence)
	require.NotNil(t, result.Validation)
	assert.Nil(t, result.Validation.DeclaredTotal)
}

func TestLineParser_Parse_AmountsAlwaysInRange(t *testing.T) {
	text := "PRODUTO A  0,01\nPRODUTO B  50.000,00\nPRODUTO C  50.000,01\nPRODUTO D  0,00"

	result := parser.NewLineParser().Parse(text)

	require.Len(t, result.Items, 2)
	for _, it := range result.Items {
		assert.True(t, parser.ValidAmount(it.Amount), it.Description)
		assert.True(t, parser.ValidDescription(it.Description), it.Description)
	}
}

func TestLineParser_Parse_QuantityLineWithoutProductIsSkipped(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"product line blacklisted", "DESCONTO FIDELIDADE\n1UN  5,49  5,49"},
		{"product line too short", "AB\n2 UN X 3,00   6,00"},
		{"quantity line alone", "3 UN  2,00  6,00"},
	}
	p := parser.NewLineParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Parse(tt.text)

			assert.Empty(t, result.Items)
			assert.Equal(t, domain.ConfidenceLow, result.Confidence)
		})
	}
}

func TestLineParser_Parse_DescriptionNeedsLetters(t *testing.T) {
	result := parser.NewLineParser().Parse("X 1  3,00\nOVO BRANCO  12,00")

	require.Len(t, result.Items, 1)
	assert.Equal(t, "OVO BRANCO", result.Items[0].Description)
}

func TestLineParser_Parse_ProductNamedTotal(t *testing.T) {
	result := parser.NewLineParser().Parse("CREME DENTAL COLGATE TOTAL 90G\n1UN  5,49  5,49\nTOTAL R$ 5,49")

	require.Len(t, result.Items, 1)
	assert.Equal(t, "CREME DENTAL COLGATE TOTAL 90G", result.Items[0].Description)
	assert.InDelta(t, 5.49, result.Items[0].Amount, 0.001)
	require.NotNil(t, result.Validation.DeclaredTotal)
	assert.InDelta(t, 5.49, *result.Validation.DeclaredTotal, 0.001)
}
