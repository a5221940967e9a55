// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date layout used for transaction dates.
const DateLayout = "2006-01-02"

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

// Transaction type constants.
const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Label returns the Spanish noun used in conversation ("ingreso" or "gasto").
func (t TransactionType) Label() string {
	if t == TypeIncome {
		return "ingreso"
	}
	return "gasto"
}

// Source records where a transaction entered the system.
type Source string

// Transaction sources.
const (
	SourceManual Source = "manual"
	SourceChat   Source = "chat"
	SourceOFX    Source = "ofx"
	SourcePlaid  Source = "plaid"

	SourcePayslip Source = "payslip"
)

// Transaction represents a single income or expense entry.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	Amount      decimal.Decimal // always positive; Type carries the sign
	Description string
	Category    string
	Notes       string
	Hash        string
	ExternalID  string // id from the originating bank feed, if any
	Type        TransactionType
	Source      Source
	ID          int64
}

// IsImported reports whether the transaction came from a bank feed.
// Only imported rows are deduplicated by content.
func (t *Transaction) IsImported() bool {
	return t.Source == SourceOFX || t.Source == SourcePlaid || t.ExternalID != ""
}

// GenerateHash creates a content hash for duplicate detection of imported rows.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		t.Date.Format(DateLayout),
		t.Amount.StringFixed(2),
		t.Type,
		t.Description,
		t.ExternalID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// IsIncome reports whether the transaction is income.
func (t *Transaction) IsIncome() bool {
	return t.Type == TypeIncome
}

// IsExpense reports whether the transaction is an expense.
func (t *Transaction) IsExpense() bool {
	return t.Type == TypeExpense
}
