package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/payslip"
)

// PayslipAnalyzer extracts salary, deductions and bonuses from payslips.
type PayslipAnalyzer struct {
	client Client
	logger *slog.Logger
}

// NewPayslipAnalyzer creates an analyzer on top of client.
func NewPayslipAnalyzer(client Client, logger *slog.Logger) *PayslipAnalyzer {
	return &PayslipAnalyzer{
		client: client,
		logger: common.ComponentLogger(logger, "payslip"),
	}
}

// Analyze implements payslip.Analyzer for image uploads.
func (a *PayslipAnalyzer) Analyze(ctx context.Context, doc payslip.Document) (*payslip.Extraction, error) {
	if !strings.HasPrefix(doc.MimeType, "image/") {
		return nil, fmt.Errorf("%w: unsupported payslip type %q", common.ErrInvalidInput, doc.MimeType)
	}
	return a.run(ctx, Request{
		Prompt:      payslipPrompt,
		Image:       &Image{MimeType: doc.MimeType, Data: doc.Data},
		JSON:        true,
		MaxTokens:   4096,
		Temperature: 0.1,
		Cacheable:   true,
	})
}

// AnalyzeText reads a payslip whose text was extracted from a PDF.
func (a *PayslipAnalyzer) AnalyzeText(ctx context.Context, text string) (*payslip.Extraction, error) {
	return a.run(ctx, Request{
		Prompt:      payslipPrompt + "\n\nTEXTO DEL RECIBO:\n" + text,
		JSON:        true,
		MaxTokens:   4096,
		Temperature: 0.1,
		Cacheable:   true,
	})
}

func (a *PayslipAnalyzer) run(ctx context.Context, req Request) (*payslip.Extraction, error) {
	out, err := a.client.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	var ext payslip.Extraction
	if err := decodeJSON(out, &ext); err != nil {
		a.logger.Warn("Unparseable payslip reply", "error", err)
		return nil, err
	}
	a.logger.Debug("Payslip extracted",
		"deductions", len(ext.Deductions),
		"bonuses", len(ext.Bonuses))
	return &ext, nil
}
