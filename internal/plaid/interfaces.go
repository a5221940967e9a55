package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/cashmind/internal/model"
)

// TransactionFetcher defines the contract for fetching bank transactions.
type TransactionFetcher interface {
	GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
	GetAccounts(ctx context.Context) ([]string, error)
}

// TransactionSaver persists fetched transactions, skipping ones already stored.
type TransactionSaver interface {
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
}
