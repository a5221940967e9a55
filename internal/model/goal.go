package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target the user contributes to over time.
type Goal struct {
	CreatedAt     time.Time
	Deadline      *time.Time
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Name          string
	Description   string
	ID            int64
}

// Progress returns the completed share of the target as a percentage in [0, 100].
func (g *Goal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	pct := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100))
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return pct
}

// Remaining returns how much is still needed to reach the target.
func (g *Goal) Remaining() decimal.Decimal {
	rem := g.TargetAmount.Sub(g.CurrentAmount)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// GoalData is a validated new goal.
type GoalData struct {
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Deadline     string  `json:"deadline,omitempty"`
	TargetAmount float64 `json:"targetAmount"`
}

// ToGoal converts the payload into a storable goal with nothing saved yet.
func (d GoalData) ToGoal() Goal {
	g := Goal{
		Name:         d.Name,
		Description:  d.Description,
		TargetAmount: decimal.NewFromFloat(d.TargetAmount).Round(2),
	}
	if d.Deadline != "" {
		if t, err := time.Parse(DateLayout, d.Deadline); err == nil {
			g.Deadline = &t
		}
	}
	return g
}
