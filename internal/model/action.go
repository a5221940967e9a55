package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ActionKind tags the domain mutation a PendingAction will perform.
type ActionKind string

// Pending action kinds.
const (
	ActionCreateTransaction ActionKind = "create_transaction"
	ActionCreateBudget      ActionKind = "create_budget"
	ActionContributeGoal    ActionKind = "contribute_goal"
)

// ActionPayload is implemented only by the validated payload types of this package.
type ActionPayload interface {
	Kind() ActionKind
	// Fields renders the payload back into the untyped shape validators accept.
	Fields() map[string]any
	sealed()
}

// TransactionData is a validated transaction ready to be stored.
type TransactionData struct {
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Notes       string          `json:"notes,omitempty"`
	Amount      float64         `json:"amount"`
}

// Kind implements ActionPayload.
func (TransactionData) Kind() ActionKind { return ActionCreateTransaction }

func (TransactionData) sealed() {}

// Fields implements ActionPayload.
func (d TransactionData) Fields() map[string]any {
	m := map[string]any{
		"amount":      d.Amount,
		"description": d.Description,
		"date":        d.Date,
		"type":        string(d.Type),
		"category":    d.Category,
	}
	if d.Notes != "" {
		m["notes"] = d.Notes
	}
	return m
}

// ToTransaction converts the payload into a storable transaction.
func (d TransactionData) ToTransaction(source Source) (Transaction, error) {
	date, err := time.Parse(DateLayout, d.Date)
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid transaction date %q: %w", d.Date, err)
	}
	return Transaction{
		Date:        date,
		Amount:      decimal.NewFromFloat(d.Amount).Round(2),
		Description: d.Description,
		Category:    d.Category,
		Notes:       d.Notes,
		Type:        d.Type,
		Source:      source,
	}, nil
}

// BudgetData is a validated budget ready to be stored.
type BudgetData struct {
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Period   BudgetPeriod `json:"period"`
	Limit    float64      `json:"limit"`
}

// Kind implements ActionPayload.
func (BudgetData) Kind() ActionKind { return ActionCreateBudget }

func (BudgetData) sealed() {}

// Fields implements ActionPayload.
func (d BudgetData) Fields() map[string]any {
	return map[string]any{
		"name":     d.Name,
		"category": d.Category,
		"limit":    d.Limit,
		"period":   string(d.Period),
	}
}

// ToBudget converts the payload into a storable budget.
func (d BudgetData) ToBudget() Budget {
	return Budget{
		Name:     d.Name,
		Category: d.Category,
		Limit:    decimal.NewFromFloat(d.Limit).Round(2),
		Period:   d.Period,
	}
}

// GoalContributionData is a validated contribution to an existing goal.
type GoalContributionData struct {
	GoalName string  `json:"goalName"`
	GoalID   int64   `json:"goalId"`
	Amount   float64 `json:"amount"`
}

// Kind implements ActionPayload.
func (GoalContributionData) Kind() ActionKind { return ActionContributeGoal }

func (GoalContributionData) sealed() {}

// Fields implements ActionPayload.
func (d GoalContributionData) Fields() map[string]any {
	return map[string]any{
		"goalId":   d.GoalID,
		"goalName": d.GoalName,
		"amount":   d.Amount,
	}
}

// DecimalAmount returns the contribution as a decimal rounded to cents.
func (d GoalContributionData) DecimalAmount() decimal.Decimal {
	return decimal.NewFromFloat(d.Amount).Round(2)
}

// PendingAction is a validated, not yet committed domain mutation.
type PendingAction struct {
	Payload ActionPayload
	Kind    ActionKind
}

// NewPendingAction wraps a validated payload.
func NewPendingAction(p ActionPayload) *PendingAction {
	return &PendingAction{Kind: p.Kind(), Payload: p}
}

// MarshalJSON renders the action as {"type": kind, "data": payload}.
func (a PendingAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Data ActionPayload `json:"data"`
		Type ActionKind    `json:"type"`
	}{Type: a.Kind, Data: a.Payload})
}
