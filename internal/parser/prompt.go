package parser

// BuildReceiptPrompt returns the extraction prompt for Brazilian retail receipts
// (NFC-e, SAT and DANFE layouts).
func BuildReceiptPrompt() string {
	return `You are a receipt data extraction assistant. Read the attached photo of a Brazilian retail receipt and extract the purchased products and receipt details.

RULES:
- Extract ONLY purchased products, each with its individual line total.
- NEVER extract payment lines (cartão, crédito, débito, PIX, carteira digital, dinheiro, troco, forma de pagamento) as products.
- NEVER extract totals, subtotals, "valor a pagar", discounts or surcharges as products.
- NEVER extract tax identifiers (CNPJ, CPF, IE, IM) or fiscal metadata (chave de acesso, protocolo, NFC-e, SAT, tributos, Lei 12.741) as products.
- When a product description is split across two lines, merge it into a single description.
- Use a decimal point for all amounts: "5,49" becomes 5.49 and "1.234,56" becomes 1234.56.
- The LAST monetary value on a product's line is its line total. Use it as "amount"; the value before it is the unit price.
- "quantity" is the number of units purchased. Use 1 for weighed products.
- Copy descriptions literally. Do not invent, translate or complete products you cannot read.
- Dates must be DD/MM/YYYY and times HH:MM:SS.
- payment_method.type must be one of: credit, debit, pix, cash, other.

Return ONLY a JSON object with no markdown and no explanation, following this schema:
{
  "items": [
    {"description": "", "amount": 0, "quantity": 1, "unit_price": 0}
  ],
  "establishment": "",
  "cnpj": "",
  "date": "",
  "time": "",
  "total": 0,
  "payment_method": {"type": "", "details": ""}
}

If a field is not present on the receipt, use an empty string for text and 0 for numbers.`
}
