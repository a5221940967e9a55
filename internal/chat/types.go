// Package chat implements the conversational data-entry engine: a pure
// reducer over State plus a per-session orchestrator that calls the
// interpreter, the receipt analyzer and the domain store.
package chat

import (
	"time"

	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/validate"
)

// Role identifies who authored a message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// WelcomeMessageID is the fixed id of the first message of every conversation.
const WelcomeMessageID = "welcome"

// MessageMetadata carries optional annotations of an assistant message.
type MessageMetadata struct {
	Intent               Intent `json:"intent,omitempty"`
	ConfirmationRequired bool   `json:"confirmationRequired,omitempty"`
}

// Message is one turn of the conversation. Messages are never modified once appended.
type Message struct {
	Timestamp time.Time        `json:"timestamp"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	ImageURL  string           `json:"imageUrl,omitempty"`
}

// FlowType is an in-progress conversational goal.
type FlowType string

// Flow types.
const (
	FlowCreateExpense  FlowType = "create_expense"
	FlowCreateIncome   FlowType = "create_income"
	FlowCreateBudget   FlowType = "create_budget"
	FlowContributeGoal FlowType = "contribute_goal"
	FlowAnalyzeReceipt FlowType = "analyze_receipt"
)

// FlowTypes lists every flow in quick-action order.
var FlowTypes = []FlowType{
	FlowCreateExpense,
	FlowCreateIncome,
	FlowCreateBudget,
	FlowContributeGoal,
	FlowAnalyzeReceipt,
}

// Valid reports whether f is a known flow.
func (f FlowType) Valid() bool {
	_, ok := flowPrompts[f]
	return ok
}

// Intent is the interpreter's classification of a user utterance.
type Intent string

// Interpreter intents.
const (
	IntentCreateExpense    Intent = "create_expense"
	IntentCreateIncome     Intent = "create_income"
	IntentCreateBudget     Intent = "create_budget"
	IntentContributeGoal   Intent = "contribute_goal"
	IntentListTransactions Intent = "list_transactions"
	IntentCheckBalance     Intent = "check_balance"
	IntentGreeting         Intent = "greeting"
	IntentHelp             Intent = "help"
	IntentThanks           Intent = "thanks"
	IntentUnknown          Intent = "unknown"
)

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentCreateExpense, IntentCreateIncome, IntentCreateBudget, IntentContributeGoal,
		IntentListTransactions, IntentCheckBalance, IntentGreeting, IntentHelp, IntentThanks, IntentUnknown:
		return true
	}
	return false
}

// Flow returns the flow an intent starts, if any.
func (i Intent) Flow() (FlowType, bool) {
	switch i {
	case IntentCreateExpense, IntentCreateIncome, IntentCreateBudget, IntentContributeGoal:
		return FlowType(i), true
	}
	return "", false
}

// TransactionType returns the transaction type implied by a creation intent.
func (i Intent) TransactionType() (model.TransactionType, bool) {
	switch i {
	case IntentCreateExpense:
		return model.TypeExpense, true
	case IntentCreateIncome:
		return model.TypeIncome, true
	}
	return "", false
}

// CollectedData is the partial record gathered across turns of a flow.
// A nil field has not been provided yet.
type CollectedData struct {
	Amount      *float64 `json:"amount,omitempty"`
	Description *string  `json:"description,omitempty"`
	Date        *string  `json:"date,omitempty"`
	Type        *string  `json:"type,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Name        *string  `json:"name,omitempty"`
	Limit       *float64 `json:"limit,omitempty"`
	Period      *string  `json:"period,omitempty"`
	GoalID      *int64   `json:"goalId,omitempty"`
	GoalName    *string  `json:"goalName,omitempty"`
}

// IsEmpty reports whether no field has been collected.
func (c CollectedData) IsEmpty() bool {
	return c == CollectedData{}
}

// Merge returns a copy of c with extracted values applied on top.
// A null value clears the field; unknown keys and values of the wrong type are ignored.
func (c CollectedData) Merge(extracted map[string]any) CollectedData {
	for key, v := range extracted {
		switch key {
		case "amount":
			mergeFloat(&c.Amount, v)
		case "limit":
			mergeFloat(&c.Limit, v)
		case "description":
			mergeString(&c.Description, v)
		case "date":
			mergeString(&c.Date, v)
		case "type":
			mergeString(&c.Type, v)
		case "category":
			mergeString(&c.Category, v)
		case "name":
			mergeString(&c.Name, v)
		case "period":
			mergeString(&c.Period, v)
		case "goalName":
			mergeString(&c.GoalName, v)
		case "goalId":
			if v == nil {
				c.GoalID = nil
				continue
			}
			if f, ok := validate.Number(v); ok && f == float64(int64(f)) {
				id := int64(f)
				c.GoalID = &id
			}
		}
	}
	return c
}

func mergeFloat(dst **float64, v any) {
	if v == nil {
		*dst = nil
		return
	}
	if f, ok := validate.Number(v); ok {
		*dst = &f
	}
}

func mergeString(dst **string, v any) {
	if v == nil {
		*dst = nil
		return
	}
	if s, ok := v.(string); ok {
		*dst = &s
	}
}

// Map renders the collected fields as the untyped record the interpreter and validators consume.
func (c CollectedData) Map() map[string]any {
	m := make(map[string]any)
	if c.Amount != nil {
		m["amount"] = *c.Amount
	}
	if c.Description != nil {
		m["description"] = *c.Description
	}
	if c.Date != nil {
		m["date"] = *c.Date
	}
	if c.Type != nil {
		m["type"] = *c.Type
	}
	if c.Category != nil {
		m["category"] = *c.Category
	}
	if c.Name != nil {
		m["name"] = *c.Name
	}
	if c.Limit != nil {
		m["limit"] = *c.Limit
	}
	if c.Period != nil {
		m["period"] = *c.Period
	}
	if c.GoalID != nil {
		m["goalId"] = *c.GoalID
	}
	if c.GoalName != nil {
		m["goalName"] = *c.GoalName
	}
	return m
}

// Phase is the conceptual state of the conversation.
type Phase string

// Conversation phases.
const (
	PhaseIdle       Phase = "idle"
	PhaseCollecting Phase = "collecting"
	PhaseConfirming Phase = "confirming"
)

// State is the whole conversation. Values are never mutated in place;
// every transition returns a new State.
type State struct {
	CurrentFlow   *FlowType            `json:"currentFlow"`
	PendingAction *model.PendingAction `json:"pendingAction"`
	Messages      []Message            `json:"messages"`
	CollectedData CollectedData        `json:"collectedData"`
}

// Phase derives the conversation phase from the state.
func (s State) Phase() Phase {
	switch {
	case s.PendingAction != nil:
		return PhaseConfirming
	case s.CurrentFlow != nil:
		return PhaseCollecting
	default:
		return PhaseIdle
	}
}

// LastMessage returns the most recent message, if any.
func (s State) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Interpretation is the interpreter's structured reading of one utterance.
type Interpretation struct {
	ExtractedData map[string]any `json:"extractedData"`
	Intent        Intent         `json:"intent"`
	Response      string         `json:"response"`
	MissingFields []string       `json:"missingFields"`
	IsComplete    bool           `json:"isComplete"`
}

// ReceiptData is the transaction a receipt analyzer read from an upload.
type ReceiptData struct {
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Confidence  float64 `json:"confidence"`
}

// Fields renders the receipt as untyped transaction input for validation.
func (d ReceiptData) Fields() map[string]any {
	return map[string]any{
		"amount":      d.Amount,
		"description": d.Description,
		"date":        d.Date,
		"type":        d.Type,
		"category":    d.Category,
	}
}

// ReceiptResult is the outcome of analyzing one upload.
type ReceiptResult struct {
	Data    *ReceiptData `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Success bool         `json:"success"`
}
