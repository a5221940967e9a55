package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
)

const payslipColumns = `id, month, gross_salary, net_salary, employer, position, raw_text, transaction_id, uploaded_at`

// SavePayslip stores a payslip with its deduction and bonus lines. When salary
// is non-nil it is inserted in the same database transaction and linked to
// the payslip. A slip for the same month, employer and net salary is rejected
// with common.ErrDuplicateEntry.
func (s *SQLiteStorage) SavePayslip(ctx context.Context, p *model.Payslip, salary *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePayslip(p); err != nil {
		return err
	}
	if salary != nil {
		if err := validateTransaction(salary); err != nil {
			return err
		}
		prepareTransaction(salary)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payslips WHERE month = ? AND employer = ? AND net_salary = ?",
		monthKey(p.Month), p.Employer, p.NetSalary.StringFixed(2)).Scan(&existing); err != nil {
		return fmt.Errorf("failed to check payslip: %w", err)
	}
	if existing > 0 {
		return fmt.Errorf("%w: payslip %s for %q", common.ErrDuplicateEntry, monthKey(p.Month), p.Employer)
	}

	var txnID any
	if salary != nil {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (
				hash, date, amount, description, type, category, notes, source, external_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, salary.Hash, salary.Date.Format(model.DateLayout), salary.Amount.StringFixed(2), salary.Description,
			string(salary.Type), salary.Category, salary.Notes, string(salary.Source), salary.ExternalID)
		if err != nil {
			return fmt.Errorf("failed to insert salary transaction: %w", err)
		}
		if salary.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read transaction id: %w", err)
		}
		txnID = salary.ID
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO payslips (month, gross_salary, net_salary, employer, position, raw_text, transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, monthKey(p.Month), p.GrossSalary.StringFixed(2), p.NetSalary.StringFixed(2),
		p.Employer, p.Position, p.RawText, txnID)
	if err != nil {
		return fmt.Errorf("failed to insert payslip: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read payslip id: %w", err)
	}

	for _, d := range p.Deductions {
		var pct any
		if d.Percentage != nil {
			pct = d.Percentage.String()
		}
		category := d.Category
		if !category.Valid() {
			category = model.DeductionOther
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO payslip_deductions (payslip_id, name, amount, percentage, category) VALUES (?, ?, ?, ?, ?)",
			id, d.Name, d.Amount.StringFixed(2), pct, string(category)); err != nil {
			return fmt.Errorf("failed to insert deduction: %w", err)
		}
	}
	for _, b := range p.Bonuses {
		typ := b.Type
		if !typ.Valid() {
			typ = model.BonusOther
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO payslip_bonuses (payslip_id, name, amount, type) VALUES (?, ?, ?, ?)",
			id, b.Name, b.Amount.StringFixed(2), string(typ)); err != nil {
			return fmt.Errorf("failed to insert bonus: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payslip: %w", err)
	}

	p.ID = id
	p.UploadedAt = s.now()
	if salary != nil {
		p.TransactionID = &salary.ID
		s.notify(model.ChangeTransactions, 1)
	}
	s.notify(model.ChangePayslips, 1)
	return nil
}

// GetPayslips returns every payslip with its lines, newest month first.
func (s *SQLiteStorage) GetPayslips(ctx context.Context) ([]model.Payslip, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+payslipColumns+" FROM payslips ORDER BY month DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query payslips: %w", err)
	}

	var payslips []model.Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		payslips = append(payslips, *p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	// Lines are loaded after the cursor closes; the pool holds one connection.
	for i := range payslips {
		if err := s.loadPayslipLines(ctx, &payslips[i]); err != nil {
			return nil, err
		}
	}
	return payslips, nil
}

// GetPayslip retrieves a payslip and its lines by ID.
func (s *SQLiteStorage) GetPayslip(ctx context.Context, id int64) (*model.Payslip, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	p, err := scanPayslip(s.db.QueryRowContext(ctx, "SELECT "+payslipColumns+" FROM payslips WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payslip %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadPayslipLines(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePayslip removes a payslip, its lines and the salary income recorded from it.
func (s *SQLiteStorage) DeletePayslip(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var txnID sql.NullInt64
	err = tx.QueryRowContext(ctx, "SELECT transaction_id FROM payslips WHERE id = ?", id).Scan(&txnID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("payslip %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read payslip: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM payslips WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete payslip: %w", err)
	}
	if txnID.Valid {
		if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", txnID.Int64); err != nil {
			return fmt.Errorf("failed to delete salary transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payslip deletion: %w", err)
	}

	if txnID.Valid {
		s.notify(model.ChangeTransactions, 1)
	}
	s.notify(model.ChangePayslips, 1)
	return nil
}

func (s *SQLiteStorage) loadPayslipLines(ctx context.Context, p *model.Payslip) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, amount, percentage, category FROM payslip_deductions WHERE payslip_id = ? ORDER BY id", p.ID)
	if err != nil {
		return fmt.Errorf("failed to query deductions: %w", err)
	}
	for rows.Next() {
		var (
			d        model.Deduction
			pct      decimal.NullDecimal
			category string
		)
		if err := rows.Scan(&d.Name, &d.Amount, &pct, &category); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan deduction: %w", err)
		}
		if pct.Valid {
			d.Percentage = &pct.Decimal
		}
		d.Category = model.DeductionCategory(category)
		p.Deductions = append(p.Deductions, d)
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT name, amount, type FROM payslip_bonuses WHERE payslip_id = ? ORDER BY id", p.ID)
	if err != nil {
		return fmt.Errorf("failed to query bonuses: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			b   model.Bonus
			typ string
		)
		if err := rows.Scan(&b.Name, &b.Amount, &typ); err != nil {
			return fmt.Errorf("failed to scan bonus: %w", err)
		}
		b.Type = model.BonusType(typ)
		p.Bonuses = append(p.Bonuses, b)
	}
	return rows.Err()
}

func scanPayslip(row rowScanner) (*model.Payslip, error) {
	var (
		p     model.Payslip
		month string
		txnID sql.NullInt64
	)
	err := row.Scan(&p.ID, &month, &p.GrossSalary, &p.NetSalary, &p.Employer, &p.Position, &p.RawText, &txnID, &p.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan payslip: %w", err)
	}

	m, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("%w: payslip %d has invalid month %q", common.ErrDatabaseCorrupted, p.ID, month)
	}
	p.Month = m
	if txnID.Valid {
		p.TransactionID = &txnID.Int64
	}
	return &p, nil
}
