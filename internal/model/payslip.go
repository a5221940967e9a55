package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DeductionCategory groups payslip deductions.
type DeductionCategory string

// Deduction categories.
const (
	DeductionTax            DeductionCategory = "tax"
	DeductionSocialSecurity DeductionCategory = "social_security"
	DeductionRetirement     DeductionCategory = "retirement"
	DeductionHealth         DeductionCategory = "health"
	DeductionOther          DeductionCategory = "other"
)

// Valid reports whether c is a known deduction category.
func (c DeductionCategory) Valid() bool {
	switch c {
	case DeductionTax, DeductionSocialSecurity, DeductionRetirement, DeductionHealth, DeductionOther:
		return true
	}
	return false
}

// BonusType groups payslip bonuses.
type BonusType string

// Bonus types. Holiday covers aguinaldo and vacation pay.
const (
	BonusRegular     BonusType = "regular"
	BonusPerformance BonusType = "performance"
	BonusHoliday     BonusType = "holiday"
	BonusOther       BonusType = "other"
)

// Valid reports whether b is a known bonus type.
func (b BonusType) Valid() bool {
	switch b {
	case BonusRegular, BonusPerformance, BonusHoliday, BonusOther:
		return true
	}
	return false
}

// Deduction is one withholding line of a payslip.
type Deduction struct {
	Percentage *decimal.Decimal
	Amount     decimal.Decimal
	Name       string
	Category   DeductionCategory
}

// Bonus is one additional earning line of a payslip.
type Bonus struct {
	Amount decimal.Decimal
	Name   string
	Type   BonusType
}

// Payslip is an uploaded salary slip.
type Payslip struct {
	Month         time.Time // first day of the payment month, UTC
	UploadedAt    time.Time
	TransactionID *int64 // salary income recorded from this slip, if any
	GrossSalary   decimal.Decimal
	NetSalary     decimal.Decimal
	Employer      string
	Position      string
	RawText       string
	Deductions    []Deduction
	Bonuses       []Bonus
	ID            int64
}

// SalaryDay is the day of the month the salary income is dated.
const SalaryDay = 15

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish name of m, capitalized.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// ParseMonthName resolves a Spanish month name or a 1-12 number. Case is
// ignored and the "setiembre" spelling is accepted.
func ParseMonthName(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "setiembre" {
		s = "septiembre"
	}
	for i, name := range monthNames {
		if strings.ToLower(name) == s {
			return time.Month(i + 1), true
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return time.Month(n), true
	}
	return 0, false
}

// PayslipMonth builds the UTC month key for a payslip.
func PayslipMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// Period renders the slip month as "Junio 2024".
func (p *Payslip) Period() string {
	return fmt.Sprintf("%s %d", MonthName(p.Month.Month()), p.Month.Year())
}

// TotalDeductions sums every deduction line.
func (p *Payslip) TotalDeductions() decimal.Decimal {
	total := decimal.Zero
	for _, d := range p.Deductions {
		total = total.Add(d.Amount)
	}
	return total
}

// TotalBonuses sums every bonus line.
func (p *Payslip) TotalBonuses() decimal.Decimal {
	total := decimal.Zero
	for _, b := range p.Bonuses {
		total = total.Add(b.Amount)
	}
	return total
}

// SalaryTransaction is the net-salary income recorded for the slip.
func (p *Payslip) SalaryTransaction() Transaction {
	employer := p.Employer
	if employer == "" {
		employer = "Sin empleador"
	}
	return Transaction{
		Date:        time.Date(p.Month.Year(), p.Month.Month(), SalaryDay, 0, 0, 0, 0, time.UTC),
		Amount:      p.NetSalary,
		Description: "Sueldo " + p.Period(),
		Category:    "salary",
		Notes:       "Generado desde recibo - " + employer,
		Type:        TypeIncome,
		Source:      SourcePayslip,
	}
}
