package plaid

import (
	"context"
	"fmt"
	"time"
)

const saveBatchSize = 100

// SyncResult summarises one sync run.
type SyncResult struct {
	Fetched  int
	Inserted int
}

// Duplicates is how many fetched transactions were already stored.
func (r SyncResult) Duplicates() int {
	return r.Fetched - r.Inserted
}

// Sync fetches transactions in the window and stores the new ones in batches.
// progress, when set, is called with the number of transactions handled by each batch.
func Sync(ctx context.Context, fetcher TransactionFetcher, saver TransactionSaver, start, end time.Time, progress func(int)) (SyncResult, error) {
	transactions, err := fetcher.GetTransactions(ctx, start, end)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	result := SyncResult{Fetched: len(transactions)}
	for i := 0; i < len(transactions); i += saveBatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batch := transactions[i:min(i+saveBatchSize, len(transactions))]
		inserted, err := saver.SaveTransactions(ctx, batch)
		if err != nil {
			return result, fmt.Errorf("failed to save transactions: %w", err)
		}
		result.Inserted += inserted
		if progress != nil {
			progress(len(batch))
		}
	}
	return result, nil
}
