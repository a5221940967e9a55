package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cashmind/internal/chat"
)

type fakeAnalyzer struct {
	err     error
	result  *chat.ReceiptResult
	uploads []chat.Upload
	texts   []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, upload chat.Upload) (*chat.ReceiptResult, error) {
	f.uploads = append(f.uploads, upload)
	return f.result, f.err
}

func (f *fakeAnalyzer) AnalyzeText(_ context.Context, text string) (*chat.ReceiptResult, error) {
	f.texts = append(f.texts, text)
	return f.result, f.err
}

func newTestRouter(analyzer Analyzer) *Router {
	return NewRouter(analyzer, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// minimalPDF builds a one-page PDF that shows each line with Helvetica.
func minimalPDF(lines ...string) []byte {
	var content bytes.Buffer
	content.WriteString("BT /F1 12 Tf 72 720 Td\n")
	for i, line := range lines {
		if i > 0 {
			content.WriteString("0 -20 Td\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", line)
	}
	content.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestRouter_Images(t *testing.T) {
	ok := &chat.ReceiptResult{Success: true, Data: &chat.ReceiptData{Amount: 10}}

	tests := []struct {
		name     string
		mimeType string
		data     []byte
		wantType string
	}{
		{name: "declared jpeg", mimeType: "image/jpeg", data: []byte{0xff, 0xd8, 0xff}, wantType: "image/jpeg"},
		{name: "declared with parameters", mimeType: "Image/PNG; charset=binary", data: pngHeader, wantType: "image/png"},
		{name: "sniffed png", mimeType: "", data: pngHeader, wantType: "image/png"},
		{name: "octet stream is sniffed", mimeType: "application/octet-stream", data: pngHeader, wantType: "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{result: ok}
			got, err := newTestRouter(analyzer).Analyze(context.Background(), chat.Upload{Name: "ticket", MimeType: tt.mimeType, Data: tt.data})
			require.NoError(t, err)
			assert.Same(t, ok, got)
			require.Len(t, analyzer.uploads, 1)
			assert.Equal(t, tt.wantType, analyzer.uploads[0].MimeType)
			assert.Empty(t, analyzer.texts)
		})
	}
}

func TestRouter_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		upload  chat.Upload
		wantErr string
	}{
		{name: "too large", upload: chat.Upload{MimeType: "image/png", Data: make([]byte, MaxUploadSize+1)}, wantErr: TooLargeText},
		{name: "unsupported type", upload: chat.Upload{MimeType: "text/plain", Data: []byte("hola")}, wantErr: UnsupportedText},
		{name: "gif", upload: chat.Upload{MimeType: "image/gif", Data: []byte("GIF89a")}, wantErr: UnsupportedText},
		{name: "broken pdf", upload: chat.Upload{MimeType: "application/pdf", Data: []byte("%PDF-1.4 garbage")}, wantErr: EmptyPDFText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{}
			got, err := newTestRouter(analyzer).Analyze(context.Background(), tt.upload)
			require.NoError(t, err)
			assert.False(t, got.Success)
			assert.Equal(t, tt.wantErr, got.Error)
			assert.Empty(t, analyzer.uploads)
			assert.Empty(t, analyzer.texts)
		})
	}
}

func TestRouter_PDF(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &chat.ReceiptResult{Success: true, Data: &chat.ReceiptData{Amount: 800}}}
	doc := minimalPDF("EDESUR FACTURA", "TOTAL 800")

	got, err := newTestRouter(analyzer).Analyze(context.Background(), chat.Upload{Name: "factura.pdf", Data: doc})
	require.NoError(t, err)
	assert.True(t, got.Success)

	require.Len(t, analyzer.texts, 1)
	assert.Contains(t, analyzer.texts[0], "EDESUR")
	assert.Contains(t, analyzer.texts[0], "TOTAL")
	assert.Empty(t, analyzer.uploads)
}

func TestRouter_AnalyzerError(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("upstream down")}
	_, err := newTestRouter(analyzer).Analyze(context.Background(), chat.Upload{MimeType: "image/webp", Data: []byte("RIFF")})
	assert.EqualError(t, err, "upstream down")
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, "application/pdf", DetectType("", minimalPDF("x")))
	assert.Equal(t, "image/jpeg", DetectType(" IMAGE/JPEG ", nil))
	assert.Equal(t, "", DetectType("", nil))
}

func TestExtractPDFText(t *testing.T) {
	text, err := ExtractPDFText(minimalPDF("Farmacia Central", "TOTAL 1520,50"))
	require.NoError(t, err)
	assert.Contains(t, text, "Farmacia")
	assert.Contains(t, text, "1520,50")

	_, err = ExtractPDFText([]byte("not a pdf"))
	assert.Error(t, err)
}
