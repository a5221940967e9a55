package sheets

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSheetsAPI records the calls a Writer makes against the Sheets REST API.
type fakeSheetsAPI struct {
	updates      map[string][][]any
	created      *sheets.Spreadsheet
	existing     []string
	batchUpdates int
	clears       int
	mu           sync.Mutex
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/v4/spreadsheets"):
		var req sheets.Spreadsheet
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.created = &req
		for i, s := range req.Sheets {
			s.Properties.SheetId = int64(100 + i)
		}
		req.SpreadsheetId = "created-id"
		_ = json.NewEncoder(w).Encode(req)

	case r.Method == http.MethodGet && strings.Contains(path, "/v4/spreadsheets/"):
		resp := sheets.Spreadsheet{SpreadsheetId: "existing-id"}
		for i, title := range f.existing {
			resp.Sheets = append(resp.Sheets, &sheets.Sheet{Properties: &sheets.SheetProperties{Title: title, SheetId: int64(i)}})
		}
		_ = json.NewEncoder(w).Encode(resp)

	case strings.HasSuffix(path, ":batchUpdate"):
		f.batchUpdates++
		var req sheets.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: "existing-id"}
		for i, q := range req.Requests {
			reply := &sheets.Response{}
			if q.AddSheet != nil {
				reply.AddSheet = &sheets.AddSheetResponse{Properties: &sheets.SheetProperties{Title: q.AddSheet.Properties.Title, SheetId: int64(50 + i)}}
			}
			resp.Replies = append(resp.Replies, reply)
		}
		_ = json.NewEncoder(w).Encode(resp)

	case strings.HasSuffix(path, ":clear"):
		f.clears++
		_, _ = w.Write([]byte(`{}`))

	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		f.updates[rng] = vr.Values
		_, _ = w.Write([]byte(`{}`))

	default:
		http.NotFound(w, r)
	}
}

func newTestWriter(t *testing.T, api *fakeSheetsAPI, mutate func(*Config)) *Writer {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.ClientID = "id"
	cfg.ClientSecret = "secret"
	cfg.RefreshToken = "refresh"
	cfg.RetryDelay = time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}

	w, err := NewWriter(context.Background(), cfg, testLogger(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return w
}

func TestNewWriter_InvalidConfig(t *testing.T) {
	_, err := NewWriter(context.Background(), DefaultConfig(), testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no authentication method configured")
}

func TestWriter_CreatesSpreadsheet(t *testing.T) {
	api := &fakeSheetsAPI{updates: map[string][][]any{}}
	w := newTestWriter(t, api, nil)

	id, err := w.Write(context.Background(), BuildReport(testInput()))
	require.NoError(t, err)
	assert.Equal(t, "created-id", id)

	require.NotNil(t, api.created)
	assert.Equal(t, DefaultSpreadsheetName, api.created.Properties.Title)
	assert.Len(t, api.created.Sheets, 7)
	assert.Len(t, api.updates, 7)
	assert.Equal(t, 1, api.batchUpdates, "one formatting batch")
	assert.Zero(t, api.clears)

	header := api.updates["'Movimientos'!A1"]
	require.NotEmpty(t, header)
	assert.Equal(t, "Fecha", header[0][0])
}

func TestWriter_ExistingSpreadsheetBatches(t *testing.T) {
	api := &fakeSheetsAPI{
		updates:  map[string][][]any{},
		existing: []string{TabSummary, TabTransactions},
	}
	w := newTestWriter(t, api, func(c *Config) {
		c.SpreadsheetID = "existing-id"
		c.BatchSize = 4
		c.EnableFormatting = false
	})

	id, err := w.Write(context.Background(), BuildReport(testInput()))
	require.NoError(t, err)
	assert.Equal(t, "existing-id", id)

	assert.Equal(t, 1, api.batchUpdates, "missing tabs added, no formatting")
	assert.Equal(t, 7, api.clears)
	assert.Contains(t, api.updates, "'Movimientos'!A1")
	assert.Contains(t, api.updates, "'Movimientos'!A5", "six rows split in batches of four")
	assert.Len(t, api.updates["'Movimientos'!A5"], 2)
}

func TestFormatRequests(t *testing.T) {
	tab := Tab{Title: "x", Values: [][]any{{"a", "b", "c"}}, CurrencyColumns: []int64{1, 2}}
	requests := formatRequests(7, tab)

	require.Len(t, requests, 5)
	assert.Equal(t, int64(7), requests[0].RepeatCell.Range.SheetId)
	assert.Equal(t, int64(2), requests[3].RepeatCell.Range.StartColumnIndex)
	assert.Equal(t, int64(3), requests[4].AutoResizeDimensions.Dimensions.EndIndex)
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

	require.NoError(t, SaveToken(path, token))
	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.Equal(t, "access", loaded.AccessToken)

	got, err := GetOrCreateToken(context.Background(), OAuth2Config{TokenFile: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, "refresh", got.RefreshToken)

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestCallbackHandler(t *testing.T) {
	codes := make(chan string, 1)
	errs := make(chan error, 1)
	handler := callbackHandler(codes, errs)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", <-codes)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/callback", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Error(t, <-errs)
}
