package sheets

import (
	"context"
	"sync"
)

// MockWriter is a mock implementation of ReportWriter for testing.
type MockWriter struct {
	WriteFunc  func(ctx context.Context, report *Report) (string, error)
	LastReport *Report
	WriteCalls int
	mu         sync.Mutex
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write records the report and delegates to WriteFunc.
func (m *MockWriter) Write(ctx context.Context, report *Report) (string, error) {
	m.mu.Lock()
	m.WriteCalls++
	m.LastReport = report
	fn := m.WriteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, report)
	}
	return "mock-spreadsheet", nil
}

// Calls returns how many times Write ran.
func (m *MockWriter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.WriteCalls
}

var _ ReportWriter = (*MockWriter)(nil)
