package validate

import (
	"math"

	"github.com/Veraticus/cashmind/internal/model"
)

// GoalContribution validates a contribution to an existing goal.
func GoalContribution(input any) *model.GoalContributionData {
	d, ok := fields(input)
	if !ok {
		return nil
	}

	id, ok := Number(d["goalId"])
	if !ok || id <= 0 || id != math.Trunc(id) || id >= math.MaxInt64 {
		return nil
	}

	amt, ok := amount(d["amount"])
	if !ok {
		return nil
	}

	return &model.GoalContributionData{
		GoalID:   int64(id),
		GoalName: Sanitize(stringOf(d["goalName"]), MaxGoalNameLen),
		Amount:   amt,
	}
}

// Goal validates a new savings goal. An unparseable deadline is dropped.
func Goal(input any) *model.GoalData {
	d, ok := fields(input)
	if !ok {
		return nil
	}

	rawName, ok := str(d["name"])
	if !ok {
		return nil
	}
	name := Sanitize(rawName, MaxGoalNameLen)
	if name == "" {
		return nil
	}

	target, ok := amount(d["targetAmount"])
	if !ok {
		return nil
	}

	deadline := stringOf(d["deadline"])
	if !validDate(deadline) {
		deadline = ""
	}

	return &model.GoalData{
		Name:         name,
		Description:  Sanitize(stringOf(d["description"]), MaxDescriptionLen),
		Deadline:     deadline,
		TargetAmount: target,
	}
}
