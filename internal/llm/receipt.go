package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
)

// ReceiptAnalyzer reads receipts with a vision-capable model.
type ReceiptAnalyzer struct {
	client Client
	logger *slog.Logger
	now    func() time.Time
}

// NewReceiptAnalyzer creates an analyzer on top of client.
func NewReceiptAnalyzer(client Client, logger *slog.Logger) *ReceiptAnalyzer {
	return &ReceiptAnalyzer{
		client: client,
		logger: common.ComponentLogger(logger, "receipt"),
		now:    time.Now,
	}
}

// Analyze implements chat.ReceiptAnalyzer for image uploads.
func (a *ReceiptAnalyzer) Analyze(ctx context.Context, upload chat.Upload) (*chat.ReceiptResult, error) {
	if !strings.HasPrefix(upload.MimeType, "image/") {
		return nil, fmt.Errorf("%w: unsupported receipt type %q", common.ErrInvalidInput, upload.MimeType)
	}
	return a.run(ctx, Request{
		Prompt:      receiptPrompt(a.now().Format(model.DateLayout)),
		Image:       &Image{MimeType: upload.MimeType, Data: upload.Data},
		JSON:        true,
		MaxTokens:   1024,
		Temperature: 0.1,
		Cacheable:   true,
	})
}

// AnalyzeText reads a receipt whose text was already extracted, such as a PDF.
func (a *ReceiptAnalyzer) AnalyzeText(ctx context.Context, text string) (*chat.ReceiptResult, error) {
	return a.run(ctx, Request{
		Prompt:      receiptPrompt(a.now().Format(model.DateLayout)) + "\n\nTEXTO DEL COMPROBANTE:\n" + text,
		JSON:        true,
		MaxTokens:   1024,
		Temperature: 0.1,
		Cacheable:   true,
	})
}

func (a *ReceiptAnalyzer) run(ctx context.Context, req Request) (*chat.ReceiptResult, error) {
	out, err := a.client.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	var result chat.ReceiptResult
	if err := decodeJSON(out, &result); err != nil {
		a.logger.Warn("Unparseable receipt reply", "error", err)
		return nil, err
	}
	if result.Success && result.Data != nil {
		a.logger.Debug("Receipt analyzed", "confidence", result.Data.Confidence)
	}
	return &result, nil
}
