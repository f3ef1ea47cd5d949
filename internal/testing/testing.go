// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/spotifycc/internal/models"
)

// MockProvider is a test double for [resolver.Provider]
type MockProvider struct {
	mu      sync.Mutex
	name    string
	tracks  []models.Track
	err     error
	queries []string
}

// NewMockProvider returns a provider that answers every request with tracks and err.
func NewMockProvider(name string, tracks []models.Track, err error) *MockProvider {
	return &MockProvider{name: name, tracks: tracks, err: err}
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) Tracks(ctx context.Context, limit int, query string) ([]models.Track, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	if len(m.tracks) > limit {
		return m.tracks[:limit], nil
	}
	return m.tracks, nil
}

// Queries returns the queries received so far.
func (m *MockProvider) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// HistoryRecorder records history entries in memory. It implements [playback.HistoryRecorder].
//
// When Gate is non-nil every call waits for it to be closed or for the context to end.
type HistoryRecorder struct {
	Gate chan struct{}
	Err  error

	mu        sync.Mutex
	entries   []models.HistoryEntry
	cancelled int
	started   chan struct{}
}

// NewHistoryRecorder returns a recorder whose Started channel receives one value per call.
func NewHistoryRecorder() *HistoryRecorder {
	return &HistoryRecorder{started: make(chan struct{}, 64)}
}

func (h *HistoryRecorder) RecordPlay(ctx context.Context, entry *models.HistoryEntry) error {
	if h.started != nil {
		h.started <- struct{}{}
	}

	if h.Gate != nil {
		select {
		case <-h.Gate:
		case <-ctx.Done():
			h.mu.Lock()
			h.cancelled++
			h.mu.Unlock()
			return ctx.Err()
		}
	}

	if h.Err != nil {
		return h.Err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	entry.ID = int64(len(h.entries) + 1)
	h.entries = append(h.entries, *entry)
	return nil
}

// Started receives a value whenever RecordPlay is entered.
func (h *HistoryRecorder) Started() <-chan struct{} { return h.started }

// Entries returns a copy of the recorded entries.
func (h *HistoryRecorder) Entries() []models.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.HistoryEntry(nil), h.entries...)
}

// Cancelled counts calls that ended because their context was cancelled.
func (h *HistoryRecorder) Cancelled() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
