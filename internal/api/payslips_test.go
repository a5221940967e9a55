package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/payslip"
	"github.com/Veraticus/cashmind/internal/service"
)

type payslipBody struct {
	TransactionID *int64 `json:"transactionId"`
	Month         string `json:"month"`
	Period        string `json:"period"`
	Employer      string `json:"employer"`
	Deductions    []struct {
		Name     string  `json:"name"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	} `json:"deductions"`
	GrossSalary     float64 `json:"grossSalary"`
	NetSalary       float64 `json:"netSalary"`
	TotalDeductions float64 `json:"totalDeductions"`
	ID              int64   `json:"id"`
}

func (e *testEnv) uploadPayslip(t *testing.T, filename, contentType string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write(data)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/payslips", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPayslips_UploadRecordsSalary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec := env.uploadPayslip(t, "recibo.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode[payslipBody](t, rec)
	assert.Equal(t, "2024-06", body.Month)
	assert.Equal(t, "Junio 2024", body.Period)
	assert.Equal(t, "Acme SA", body.Employer)
	assert.InDelta(t, 830000, body.NetSalary, 0.001)
	assert.InDelta(t, 170000, body.TotalDeductions, 0.001)
	require.Len(t, body.Deductions, 3)
	assert.Equal(t, "retirement", body.Deductions[0].Category)
	require.NotNil(t, body.TransactionID)

	txn, err := env.store.GetTransactionByID(ctx, *body.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "Sueldo Junio 2024", txn.Description)
	assert.Equal(t, "2024-06-15", txn.Date.Format("2006-01-02"))
	assert.InDelta(t, 830000, txn.Amount.InexactFloat64(), 0.001)

	list := decode[[]payslipBody](t, env.do(t, http.MethodGet, "/api/payslips", nil))
	require.Len(t, list, 1)
	assert.Equal(t, body.ID, list[0].ID)

	rec = env.do(t, http.MethodGet, "/api/payslips/"+strconv.FormatInt(body.ID, 10), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Junio 2024", decode[payslipBody](t, rec).Period)

	rec = env.uploadPayslip(t, "recibo.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "same month, employer and net salary")
}

func TestPayslips_UploadWithoutSalary(t *testing.T) {
	env := newTestEnv(t)

	rec := env.uploadPayslip(t, "recibo.png", "image/png", []byte{0x89, 'P', 'N', 'G'},
		map[string]string{"create_transaction": "false"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Nil(t, decode[payslipBody](t, rec).TransactionID)

	txns, err := env.store.GetTransactions(context.Background(), service.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txns)

	rec = env.uploadPayslip(t, "recibo.png", "image/png", []byte{0x89}, map[string]string{"create_transaction": "tal vez"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayslips_UploadRejections(t *testing.T) {
	env := newTestEnv(t)

	rec := env.uploadPayslip(t, "recibo.txt", "text/plain", []byte("hola"), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"`+payslip.UnsupportedText+`"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/payslips", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayslips_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec := env.uploadPayslip(t, "recibo.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[payslipBody](t, rec)
	path := "/api/payslips/" + strconv.FormatInt(body.ID, 10)

	rec = env.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	txns, err := env.store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txns, "deleting the slip removes its salary income")

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/payslips/abc", nil).Code)
}

func TestPayslips_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := chat.NewRegistry(func(string) *chat.Session { return nil }, 0)
	t.Cleanup(registry.Close)
	env.server = NewServer(Config{}, env.store, registry, env.health, nil, logger)

	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/api/payslips", nil).Code)
}
