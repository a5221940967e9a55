package plaid

import (
	"strings"

	"github.com/Veraticus/cashmind/internal/model"
)

// Plaid's legacy category hierarchy, keyed by the lower-cased first level.
var (
	expenseCategories = map[string]string{
		"food and drink":   "food",
		"travel":           "transportation",
		"recreation":       "entertainment",
		"shops":            "shopping",
		"healthcare":       "healthcare",
		"service":          "utilities",
		"community":        "personal",
		"bank fees":        "debt",
		"interest":         "debt",
		"payment":          "debt",
		"tax":              "other",
		"transfer":         "savings",
		"rent":             "housing",
		"education":        "education",
		"personal care":    "personal",
		"home improvement": "housing",
	}
	incomeCategories = [][2]string{
		{"payroll", "salary"},
		{"interest", "investments"},
		{"dividend", "investments"},
		{"refund", "refund"},
		{"rent", "rental"},
	}
)

// MapCategory converts a Plaid category hierarchy into a CashMind category.
// Income is matched against every level since Plaid files it under "Transfer".
func MapCategory(txType model.TransactionType, hierarchy []string) string {
	if len(hierarchy) == 0 {
		return model.CategoryOther
	}

	if txType == model.TypeIncome {
		for _, level := range hierarchy {
			key := strings.ToLower(strings.TrimSpace(level))
			for _, rule := range incomeCategories {
				if strings.Contains(key, rule[0]) {
					return rule[1]
				}
			}
		}
		return model.CategoryOther
	}

	if category, ok := expenseCategories[strings.ToLower(strings.TrimSpace(hierarchy[0]))]; ok {
		return category
	}
	return model.CategoryOther
}
