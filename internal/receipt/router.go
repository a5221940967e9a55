// Package receipt routes uploaded receipts to the analyzer that can read them.
package receipt

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/common"
)

// MaxUploadSize is the largest receipt accepted, in bytes.
const MaxUploadSize = 5 << 20

// User-facing rejections. They travel as unsuccessful results so the
// conversation shows them verbatim.
const (
	TooLargeText    = "Archivo muy grande. Máximo 5MB."
	UnsupportedText = "Tipo de archivo no válido. Usá JPG, PNG, WebP o PDF."
	EmptyPDFText    = "No pude leer texto en el PDF. Probá con una foto del comprobante."
)

const pdfMimeType = "application/pdf"

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// Analyzer reads receipts either from an image or from extracted text.
type Analyzer interface {
	Analyze(ctx context.Context, upload chat.Upload) (*chat.ReceiptResult, error)
	AnalyzeText(ctx context.Context, text string) (*chat.ReceiptResult, error)
}

// Router implements chat.ReceiptAnalyzer. Images go to the vision path and
// PDFs are converted to text first.
type Router struct {
	analyzer Analyzer
	logger   *slog.Logger
	maxSize  int
}

// NewRouter creates a router in front of analyzer.
func NewRouter(analyzer Analyzer, logger *slog.Logger) *Router {
	return &Router{
		analyzer: analyzer,
		logger:   common.ComponentLogger(logger, "receipt"),
		maxSize:  MaxUploadSize,
	}
}

// Analyze implements chat.ReceiptAnalyzer.
func (r *Router) Analyze(ctx context.Context, upload chat.Upload) (*chat.ReceiptResult, error) {
	if len(upload.Data) > r.maxSize {
		r.logger.Info("Receipt rejected", "file", upload.Name, "size", len(upload.Data))
		return &chat.ReceiptResult{Error: TooLargeText}, nil
	}

	upload.MimeType = DetectType(upload.MimeType, upload.Data)

	switch {
	case upload.MimeType == pdfMimeType:
		text, err := ExtractPDFText(upload.Data)
		if err != nil {
			r.logger.Warn("PDF text extraction failed", "file", upload.Name, "error", err)
			return &chat.ReceiptResult{Error: EmptyPDFText}, nil
		}
		if strings.TrimSpace(text) == "" {
			return &chat.ReceiptResult{Error: EmptyPDFText}, nil
		}
		return r.analyzer.AnalyzeText(ctx, text)
	case imageTypes[upload.MimeType]:
		return r.analyzer.Analyze(ctx, upload)
	default:
		r.logger.Info("Receipt rejected", "file", upload.Name, "type", upload.MimeType)
		return &chat.ReceiptResult{Error: UnsupportedText}, nil
	}
}

// DetectType returns the declared media type without parameters, or the
// sniffed type when nothing useful was declared.
func DetectType(declared string, data []byte) string {
	declared, _, _ = strings.Cut(declared, ";")
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if len(data) == 0 {
		return declared
	}
	sniffed, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return sniffed
}
