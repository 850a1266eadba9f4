package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circulateapp/circulate-server/internal/domain"
	"github.com/circulateapp/circulate-server/internal/ratelimit"
	"github.com/circulateapp/circulate-server/internal/search"
	"github.com/circulateapp/circulate-server/internal/service"
	"github.com/circulateapp/circulate-server/internal/store"
	"github.com/circulateapp/circulate-server/internal/validation"
)

// testServer bundles the server with its cleanup for API-level tests.
type testServer struct {
	server  *Server
	cleanup func()
}

// setupTestServer creates a test server on a temp database with search
// wired in.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "circulate-api-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")

	// No-op logger for tests.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	testStore, err := store.New(dbPath, logger)
	require.NoError(t, err)

	catalogIndex, err := search.NewCatalogIndex(search.Options{
		DataPath: tmpDir,
		Logger:   logger,
	})
	require.NoError(t, err)
	testStore.SetSearchIndexer(catalogIndex)

	v := validation.New()
	books := service.NewBookService(testStore, v, logger)
	readers := service.NewReaderService(testStore, v, logger)
	loans := service.NewLoanService(testStore, v, logger)

	server := NewServer(books, readers, loans, catalogIndex, nil, logger)

	cleanup := func() {
		_ = catalogIndex.Close()
		_ = testStore.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return &testServer{server: server, cleanup: cleanup}
}

// do executes a request against the test server.
func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp := httptest.NewRecorder()
	ts.server.ServeHTTP(resp, req)
	return resp
}

// envelope mirrors the response wrapper for decoding in tests.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Success bool            `json:"success"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder, data any) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	if data != nil && env.Data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// createBook seeds a book through the API and returns it.
func (ts *testServer) createBook(t *testing.T, title, author string, copies int) domain.Book {
	t.Helper()

	resp := ts.do(t, http.MethodPost, "/api/v1/books", map[string]any{
		"title":  title,
		"author": author,
		"copies": copies,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var book domain.Book
	decodeEnvelope(t, resp, &book)
	return book
}

// createReader seeds a reader through the API and returns it.
func (ts *testServer) createReader(t *testing.T, name string) domain.Reader {
	t.Helper()

	resp := ts.do(t, http.MethodPost, "/api/v1/readers", map[string]any{
		"name": name,
		"type": "student",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var reader domain.Reader
	decodeEnvelope(t, resp, &reader)
	return reader
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	var data map[string]string
	env := decodeEnvelope(t, resp, &data)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", data["status"])
}

// newTestLimiter allows a burst of two and essentially nothing after.
func newTestLimiter() *ratelimit.KeyedRateLimiter {
	return ratelimit.New(0.001, 2)
}

func TestRateLimitMiddleware(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	// Separate server with a tiny limit so the test stays fast.
	limited := NewServer(nil, nil, nil, nil, newTestLimiter(), ts.server.logger)

	var lastCode int
	for range 5 {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		resp := httptest.NewRecorder()
		limited.ServeHTTP(resp, req)
		lastCode = resp.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestSearchEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.createBook(t, "The Hobbit", "J.R.R. Tolkien", 2)
	ts.createBook(t, "Dune", "Frank Herbert", 1)

	resp := ts.do(t, http.MethodGet, "/api/v1/search?q=hobbit", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var result search.Result
	decodeEnvelope(t, resp, &result)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "The Hobbit", result.Hits[0].Title)
}

func TestSearchEndpoint_AvailabilityFollowsLoans(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	book := ts.createBook(t, "The Hobbit", "J.R.R. Tolkien", 1)
	reader := ts.createReader(t, "Bilbo")

	resp := ts.do(t, http.MethodPost, "/api/v1/loans", map[string]any{
		"book_id":   book.ID,
		"reader_id": reader.ID,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	// The last copy is out, so the borrowable-now filter excludes it.
	resp = ts.do(t, http.MethodGet, "/api/v1/search?q=hobbit&available=true", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var result search.Result
	decodeEnvelope(t, resp, &result)
	assert.Empty(t, result.Hits)
}
