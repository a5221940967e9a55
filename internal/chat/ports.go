package chat

import (
	"context"

	"github.com/Veraticus/cashmind/internal/model"
)

// Interpreter maps free text plus conversation context to an Interpretation.
type Interpreter interface {
	Interpret(ctx context.Context, text string, flow *FlowType, collected map[string]any) (*Interpretation, error)
}

// Upload is a user-submitted receipt.
type Upload struct {
	Name     string
	MimeType string
	URL      string // reference shown in the conversation
	Data     []byte
}

// ReceiptAnalyzer extracts transaction fields from an uploaded receipt.
type ReceiptAnalyzer interface {
	Analyze(ctx context.Context, upload Upload) (*ReceiptResult, error)
}

// Store performs the domain mutations a confirmed action stands for.
type Store interface {
	CreateTransaction(ctx context.Context, data model.TransactionData) error
	CreateBudget(ctx context.Context, data model.BudgetData) error
	ContributeToGoal(ctx context.Context, goalID int64, amount float64) error
	Goals(ctx context.Context) ([]model.Goal, error)
}
