package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/service"
)

const transactionColumns = `id, hash, date, amount, description, type, category, notes, source, external_id, created_at`

// CreateTransaction inserts a single transaction and fills in its ID.
// An imported transaction whose hash already exists is rejected with common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	prepareTransaction(txn)

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			hash, date, amount, description, type, category, notes, source, external_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.Hash, txn.Date.Format(model.DateLayout), txn.Amount.StringFixed(2), txn.Description,
		string(txn.Type), txn.Category, txn.Notes, string(txn.Source), txn.ExternalID)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transaction %q on %s", common.ErrDuplicateEntry, txn.Description, txn.Date.Format(model.DateLayout))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read transaction id: %w", err)
	}
	txn.ID = id

	s.notify(model.ChangeTransactions, 1)
	return nil
}

// SaveTransactions bulk inserts transactions, skipping imported duplicates by hash.
// It returns how many rows were actually inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := s.saveTransactionsTx(ctx, tx, transactions)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}

	if inserted > 0 {
		s.notify(model.ChangeTransactions, inserted)
	}
	return inserted, nil
}

func (s *SQLiteStorage) saveTransactionsTx(ctx context.Context, tx *sql.Tx, transactions []model.Transaction) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			hash, date, amount, description, type, category, notes, source, external_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for i := range transactions {
		txn := transactions[i]
		prepareTransaction(&txn)

		res, execErr := stmt.ExecContext(ctx,
			txn.Hash,
			txn.Date.Format(model.DateLayout),
			txn.Amount.StringFixed(2),
			txn.Description,
			string(txn.Type),
			txn.Category,
			txn.Notes,
			string(txn.Source),
			txn.ExternalID,
		)
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert transaction %d: %w", i, execErr)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	return inserted, nil
}

func prepareTransaction(txn *model.Transaction) {
	if txn.Category == "" {
		txn.Category = model.CategoryOther
	}
	if txn.Source == "" {
		txn.Source = model.SourceManual
	}
	if txn.Hash != "" {
		return
	}
	if txn.IsImported() {
		txn.Hash = txn.GenerateHash()
	} else {
		// Entries typed by the user may legitimately repeat on the same day.
		txn.Hash = uuid.NewString()
	}
}

// GetTransactions retrieves transactions matching the filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, *filter.EndDate, *filter.StartDate)
	}

	var (
		where []string
		args  []any
	)
	if filter.StartDate != nil {
		where = append(where, "date >= ?")
		args = append(args, filter.StartDate.Format(model.DateLayout))
	}
	if filter.EndDate != nil {
		where = append(where, "date < ?")
		args = append(args, filter.EndDate.Format(model.DateLayout))
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetTransactionByID retrieves a single transaction by ID.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// DeleteTransaction removes a transaction by ID.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}

	s.notify(model.ChangeTransactions, 1)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn     model.Transaction
		date    string
		txnType string
		source  string
	)
	err := row.Scan(
		&txn.ID,
		&txn.Hash,
		&date,
		&txn.Amount,
		&txn.Description,
		&txnType,
		&txn.Category,
		&txn.Notes,
		&source,
		&txn.ExternalID,
		&txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	parsed, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction %d has invalid date %q", common.ErrDatabaseCorrupted, txn.ID, date)
	}
	txn.Date = parsed
	txn.Type = model.TransactionType(txnType)
	txn.Source = model.Source(source)
	return &txn, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *txn)
	}
	return transactions, rows.Err()
}
