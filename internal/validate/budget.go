package validate

import "github.com/Veraticus/cashmind/internal/model"

// Budget validates extracted budget data. Unknown periods become monthly.
func Budget(input any) *model.BudgetData {
	d, ok := fields(input)
	if !ok {
		return nil
	}

	name, ok := str(d["name"])
	if !ok || name == "" {
		return nil
	}
	category, ok := str(d["category"])
	if !ok || category == "" {
		return nil
	}

	limit, ok := amount(d["limit"])
	if !ok {
		return nil
	}

	name = Sanitize(name, MaxBudgetNameLen)
	category = Sanitize(category, MaxBudgetCategoryLen)
	if name == "" || category == "" {
		return nil
	}

	period := model.BudgetPeriod(stringOf(d["period"]))
	if !period.Valid() {
		period = model.PeriodMonthly
	}

	return &model.BudgetData{
		Name:     name,
		Category: category,
		Limit:    limit,
		Period:   period,
	}
}
