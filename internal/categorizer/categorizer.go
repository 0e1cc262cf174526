// Package categorizer maps establishment names onto expense categories.
package categorizer

import (
	"strings"

	"savemymoney/internal/domain"
	"savemymoney/internal/parser"
)

// Rule lists the keywords that file an establishment under Category.
type Rule struct {
	Category domain.Category
	Keywords []string
}

// Categorizer assigns a category by substring match against ordered rules.
// The first rule with a matching keyword wins.
type Categorizer struct {
	rules []Rule
}

// New creates a Categorizer. Keywords are folded once here so matching is
// accent and case insensitive.
func New(rules []Rule) *Categorizer {
	folded := make([]Rule, 0, len(rules))
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.TrimSpace(parser.Fold(k)); k != "" {
				kws = append(kws, k)
			}
		}
		folded = append(folded, Rule{Category: r.Category, Keywords: kws})
	}
	return &Categorizer{rules: folded}
}

// Default returns a Categorizer loaded with the built-in keyword table.
func Default() *Categorizer {
	return New(DefaultRules())
}

// Categorize returns the category for an establishment name, or
// domain.CategoryOther when nothing matches.
func (c *Categorizer) Categorize(establishment string) domain.Category {
	name := parser.Fold(establishment)
	if strings.TrimSpace(name) == "" {
		return domain.CategoryOther
	}
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(name, k) {
				return r.Category
			}
		}
	}
	return domain.CategoryOther
}

// DefaultRules is the built-in table, tuned for Brazilian establishment names.
// Restaurants precede groceries so "padaria" does not fall into "mercado" matches.
func DefaultRules() []Rule {
	return []Rule{
		{domain.CategoryHealth, []string{"farmacia", "drogaria", "drogasil", "raia", "pague menos", "hospital", "clinica", "laboratorio", "odonto", "otica"}},
		{domain.CategoryRestaurants, []string{"restaurante", "lanchonete", "padaria", "panificadora", "pizzaria", "churrascaria", "bar ", "cafe", "cafeteria", "sorveteria", "hamburgueria", "ifood", "mcdonald", "burger king", "subway", "bistro"}},
		{domain.CategoryGroceries, []string{"supermercado", "mercado", "mercearia", "atacadao", "atacado", "assai", "carrefour", "pao de acucar", "extra ", "hortifruti", "sacolao", "acougue", "emporio", "quitanda"}},
		{domain.CategoryTransport, []string{"posto", "combustivel", "auto posto", "petrobras", "ipiranga", "shell", "uber", "99 ", "estacionamento", "pedagio", "metro", "onibus"}},
		{domain.CategoryUtilities, []string{"energia", "eletric", "enel", "cemig", "copel", "sabesp", "saneamento", "agua", "gas ", "comgas", "telefonica", "vivo", "claro", "tim ", "internet"}},
		{domain.CategoryHousing, []string{"aluguel", "condominio", "imobiliaria", "construcao", "material de construcao", "leroy merlin", "telhanorte", "moveis"}},
		{domain.CategoryEducation, []string{"escola", "colegio", "faculdade", "universidade", "curso", "livraria", "papelaria"}},
		{domain.CategoryLeisure, []string{"cinema", "teatro", "parque", "clube", "academia", "ingresso", "hotel", "pousada", "viagem", "turismo"}},
		{domain.CategoryServices, []string{"servico", "lavanderia", "barbearia", "salao", "cabeleireiro", "oficina", "mecanica", "pet shop", "veterinari", "cartorio"}},
		{domain.CategoryShopping, []string{"loja", "magazine", "shopping", "americanas", "renner", "riachuelo", "c&a", "casas bahia", "calcados", "roupas", "boutique", "store"}},
	}
}
