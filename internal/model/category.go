package model

// CategoryOther is the fallback category shared by both registries.
const CategoryOther = "other"

// Category is one entry of a fixed category registry.
type Category struct {
	Value string
	Label string
}

// ExpenseCategories is the registry of valid expense categories.
var ExpenseCategories = []Category{
	{Value: "housing", Label: "Vivienda"},
	{Value: "transportation", Label: "Transporte"},
	{Value: "food", Label: "Alimentación"},
	{Value: "utilities", Label: "Servicios"},
	{Value: "healthcare", Label: "Salud"},
	{Value: "entertainment", Label: "Entretenimiento"},
	{Value: "shopping", Label: "Compras"},
	{Value: "education", Label: "Educación"},
	{Value: "personal", Label: "Personal"},
	{Value: "savings", Label: "Ahorro"},
	{Value: "investments", Label: "Inversiones"},
	{Value: "debt", Label: "Deudas"},
	{Value: CategoryOther, Label: "Otros"},
}

// IncomeCategories is the registry of valid income categories.
var IncomeCategories = []Category{
	{Value: "salary", Label: "Salario"},
	{Value: "freelance", Label: "Freelance"},
	{Value: "investments", Label: "Inversiones"},
	{Value: "rental", Label: "Alquiler"},
	{Value: "bonus", Label: "Bonus"},
	{Value: "refund", Label: "Reembolso"},
	{Value: CategoryOther, Label: "Otros"},
}

// CategoriesFor returns the registry matching the transaction type.
func CategoriesFor(t TransactionType) []Category {
	if t == TypeIncome {
		return IncomeCategories
	}
	return ExpenseCategories
}

// IsValidCategory reports whether value belongs to the registry for t.
func IsValidCategory(t TransactionType, value string) bool {
	for _, c := range CategoriesFor(t) {
		if c.Value == value {
			return true
		}
	}
	return false
}

// CategoryLabel resolves the human readable label for a category value.
// Unknown values are returned unchanged.
func CategoryLabel(t TransactionType, value string) string {
	for _, c := range CategoriesFor(t) {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}
