package ofx

import (
	"strings"

	"github.com/Veraticus/cashmind/internal/model"
)

type keywordRule struct {
	category string
	keywords []string
}

// Checked in order; the first rule with a matching keyword wins.
var (
	expenseRules = []keywordRule{
		{"food", []string{"SUPERMERCADO", "WHOLE FOODS", "MARKET", "CARREFOUR", "COTO", "DIA ", "STARBUCKS", "RESTAURANT", "RAPPI", "PEDIDOSYA"}},
		{"transportation", []string{"UBER", "CABIFY", "YPF", "SHELL", "AXION", "SUBE", "PEAJE", "PARKING"}},
		{"entertainment", []string{"NETFLIX", "SPOTIFY", "DISNEY", "HBO", "CINE", "STEAM"}},
		{"utilities", []string{"EDENOR", "EDESUR", "METROGAS", "AYSA", "TELECOM", "MOVISTAR", "CLARO", "FIBERTEL"}},
		{"healthcare", []string{"FARMACIA", "PHARMACY", "OSDE", "SWISS MEDICAL", "HOSPITAL"}},
		{"shopping", []string{"AMAZON", "MERCADOLIBRE", "MERCADO LIBRE", "FALABELLA"}},
		{"housing", []string{"ALQUILER", "EXPENSAS"}},
		{"education", []string{"UNIVERSIDAD", "COLEGIO", "UDEMY", "COURSERA"}},
	}
	incomeRules = []keywordRule{
		{"salary", []string{"SUELDO", "HABERES", "PAYROLL", "SALARY"}},
		{"refund", []string{"REINTEGRO", "DEVOLUCION", "REFUND"}},
		{"rental", []string{"ALQUILER"}},
	}
)

// InferCategory guesses a category from the OFX transaction type and description.
// Anything unrecognised falls back to "other".
func InferCategory(txType model.TransactionType, trnType, description string) string {
	trnType = strings.ToUpper(trnType)
	if txType == model.TypeIncome {
		switch trnType {
		case "INT", "DIV":
			return "investments"
		case "DIRECTDEP":
			return "salary"
		}
		return match(incomeRules, description)
	}

	switch trnType {
	case "FEE", "SRVCHG":
		return "debt"
	}
	return match(expenseRules, description)
}

func match(rules []keywordRule, description string) string {
	upper := strings.ToUpper(description)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(upper, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryOther
}
