// Package payslip turns uploaded salary slips into stored payslips and the
// matching salary income.
package payslip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/receipt"
)

// User-facing rejections.
const (
	UnsupportedText = "Tipo de archivo no válido. Usá PDF, JPG, PNG o WebP."
	EmptyPDFText    = "No pude leer texto en el PDF del recibo de sueldo."
	UnreadableText  = "No pude leer el recibo de sueldo. Probá con un archivo más claro."
	NoNetText       = "No encontré el sueldo neto en el recibo."
	NoMonthText     = "No encontré el mes de pago en el recibo."
)

// Document is an uploaded payslip file.
type Document struct {
	Name     string
	MimeType string
	Data     []byte
}

// Month accepts either a Spanish month name or a month number.
type Month string

// UnmarshalJSON implements json.Unmarshaler.
func (m *Month) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = Month(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("month must be a name or a number: %w", err)
	}
	*m = Month(n.String())
	return nil
}

// PaymentDate is the month the salary was paid in.
type PaymentDate struct {
	Month Month `json:"month"`
	Year  int   `json:"year"`
}

// ExtractedDeduction is a deduction line as read from the document.
type ExtractedDeduction struct {
	Percentage *float64 `json:"percentage"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Amount     float64  `json:"amount"`
}

// ExtractedBonus is a bonus line as read from the document.
type ExtractedBonus struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

// Extraction is what the analyzer read from a payslip.
type Extraction struct {
	PaymentDate PaymentDate          `json:"paymentDate"`
	Employer    string               `json:"employer"`
	Position    string               `json:"position"`
	Deductions  []ExtractedDeduction `json:"deductions"`
	Bonuses     []ExtractedBonus     `json:"bonuses"`
	GrossSalary float64              `json:"grossSalary"`
	NetSalary   float64              `json:"netSalary"`
}

// Analyzer reads payslips from an image or from text extracted from a PDF.
type Analyzer interface {
	Analyze(ctx context.Context, doc Document) (*Extraction, error)
	AnalyzeText(ctx context.Context, text string) (*Extraction, error)
}

// Store persists payslips.
type Store interface {
	SavePayslip(ctx context.Context, payslip *model.Payslip, salary *model.Transaction) error
	GetPayslips(ctx context.Context) ([]model.Payslip, error)
	GetPayslip(ctx context.Context, id int64) (*model.Payslip, error)
	DeletePayslip(ctx context.Context, id int64) error
}

// Service reads, stores and lists payslips.
type Service struct {
	analyzer Analyzer
	store    Store
	logger   *slog.Logger
	now      func() time.Time
	maxSize  int
}

// NewService creates a payslip service.
func NewService(analyzer Analyzer, store Store, logger *slog.Logger) *Service {
	return &Service{
		analyzer: analyzer,
		store:    store,
		logger:   common.ComponentLogger(logger, "payslip"),
		now:      time.Now,
		maxSize:  receipt.MaxUploadSize,
	}
}

// Analyze reads doc without storing anything. Rejections the user can act on
// are returned as common.UserError wrapping common.ErrInvalidInput.
func (s *Service) Analyze(ctx context.Context, doc Document) (*model.Payslip, error) {
	if s.analyzer == nil {
		return nil, fmt.Errorf("%w: payslip analyzer", common.ErrMissingConfig)
	}
	if len(doc.Data) > s.maxSize {
		s.logger.Info("Payslip rejected", "file", doc.Name, "size", len(doc.Data))
		return nil, rejection(receipt.TooLargeText)
	}

	doc.MimeType = receipt.DetectType(doc.MimeType, doc.Data)

	var (
		ext     *Extraction
		rawText string
		err     error
	)
	switch {
	case doc.MimeType == "application/pdf":
		rawText, err = receipt.ExtractPDFText(doc.Data)
		if err != nil {
			s.logger.Warn("PDF text extraction failed", "file", doc.Name, "error", err)
			return nil, rejection(EmptyPDFText)
		}
		if strings.TrimSpace(rawText) == "" {
			return nil, rejection(EmptyPDFText)
		}
		ext, err = s.analyzer.AnalyzeText(ctx, rawText)
	case strings.HasPrefix(doc.MimeType, "image/"):
		ext, err = s.analyzer.Analyze(ctx, doc)
	default:
		s.logger.Info("Payslip rejected", "file", doc.Name, "type", doc.MimeType)
		return nil, rejection(UnsupportedText)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		s.logger.Error("Payslip analysis failed", "file", doc.Name, "error", err)
		return nil, common.NewUserError(UnreadableText, err)
	}

	p, err := ext.toPayslip(s.now())
	if err != nil {
		return nil, err
	}
	p.RawText = rawText
	s.logger.Debug("Payslip analyzed", "file", doc.Name, "month", p.Month.Format("2006-01"), "employer", p.Employer)
	return p, nil
}

// Save stores p. With recordIncome set the net salary is also recorded as a
// "Sueldo <Mes> <Año>" income dated the 15th of the payment month.
func (s *Service) Save(ctx context.Context, p *model.Payslip, recordIncome bool) error {
	var salary *model.Transaction
	if recordIncome {
		txn := p.SalaryTransaction()
		salary = &txn
	}
	if err := s.store.SavePayslip(ctx, p, salary); err != nil {
		return fmt.Errorf("failed to save payslip: %w", err)
	}
	s.logger.Info("Payslip saved", "id", p.ID, "month", p.Month.Format("2006-01"), "income", recordIncome)
	return nil
}

// Import analyzes doc and saves the result.
func (s *Service) Import(ctx context.Context, doc Document, recordIncome bool) (*model.Payslip, error) {
	p, err := s.Analyze(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, p, recordIncome); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns every stored payslip, newest month first.
func (s *Service) List(ctx context.Context) ([]model.Payslip, error) {
	return s.store.GetPayslips(ctx)
}

// Get returns one payslip.
func (s *Service) Get(ctx context.Context, id int64) (*model.Payslip, error) {
	return s.store.GetPayslip(ctx, id)
}

// Delete removes a payslip and the income recorded from it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeletePayslip(ctx, id)
}

func rejection(text string) error {
	return common.NewUserError(text, common.ErrInvalidInput)
}

// toPayslip validates the extraction. A missing year falls back to now's year.
func (e *Extraction) toPayslip(now time.Time) (*model.Payslip, error) {
	if e == nil || e.NetSalary <= 0 {
		return nil, rejection(NoNetText)
	}
	month, ok := model.ParseMonthName(string(e.PaymentDate.Month))
	if !ok {
		return nil, rejection(NoMonthText)
	}
	year := e.PaymentDate.Year
	if year < 1900 || year > 9999 {
		year = now.Year()
	}

	p := &model.Payslip{
		Month:       model.PayslipMonth(year, month),
		GrossSalary: money(e.GrossSalary),
		NetSalary:   money(e.NetSalary),
		Employer:    strings.TrimSpace(e.Employer),
		Position:    strings.TrimSpace(e.Position),
	}
	if p.GrossSalary.LessThan(p.NetSalary) {
		p.GrossSalary = p.NetSalary
	}

	for _, d := range e.Deductions {
		name := strings.TrimSpace(d.Name)
		if name == "" || d.Amount <= 0 {
			continue
		}
		line := model.Deduction{
			Name:     name,
			Amount:   money(d.Amount),
			Category: model.DeductionCategory(d.Category),
		}
		if !line.Category.Valid() {
			line.Category = model.DeductionOther
		}
		if d.Percentage != nil {
			pct := decimal.NewFromFloat(*d.Percentage).Round(2)
			line.Percentage = &pct
		}
		p.Deductions = append(p.Deductions, line)
	}
	for _, b := range e.Bonuses {
		name := strings.TrimSpace(b.Name)
		if name == "" || b.Amount <= 0 {
			continue
		}
		line := model.Bonus{Name: name, Amount: money(b.Amount), Type: model.BonusType(b.Type)}
		if !line.Type.Valid() {
			line.Type = model.BonusOther
		}
		p.Bonuses = append(p.Bonuses, line)
	}
	return p, nil
}

func money(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}
