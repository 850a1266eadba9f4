package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circulateapp/circulate-server/internal/domain"
)

func TestCreateReaderEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.do(t, http.MethodPost, "/api/v1/readers", map[string]any{
		"name":  "Margaret Hamilton",
		"email": "margaret@example.org",
		"type":  "faculty",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var reader domain.Reader
	decodeEnvelope(t, resp, &reader)
	assert.Equal(t, "Margaret Hamilton", reader.Name)
	assert.Equal(t, domain.ReaderFaculty, reader.Type)
	assert.Zero(t, reader.ActiveLoansCount)
}

func TestCreateReaderEndpoint_BadType(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.do(t, http.MethodPost, "/api/v1/readers", map[string]any{
		"name": "Margaret Hamilton",
		"type": "wizard",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	env := decodeEnvelope(t, resp, nil)
	assert.Equal(t, "VALIDATION", env.Code)
}

func TestGetReaderEndpoint_CountsActiveLoans(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	book := ts.createBook(t, "Code", "Charles Petzold", 2)
	reader := ts.createReader(t, "Margaret Hamilton")

	resp := ts.do(t, http.MethodPost, "/api/v1/loans", map[string]any{
		"book_id":   book.ID,
		"reader_id": reader.ID,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.do(t, http.MethodGet, "/api/v1/readers/"+reader.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var fetched domain.Reader
	decodeEnvelope(t, resp, &fetched)
	assert.Equal(t, 1, fetched.ActiveLoansCount)
}

func TestUpdateReaderEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	reader := ts.createReader(t, "Margret Hamilton")

	resp := ts.do(t, http.MethodPatch, "/api/v1/readers/"+reader.ID, map[string]any{
		"name": "Margaret Hamilton",
		"type": "faculty",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var updated domain.Reader
	decodeEnvelope(t, resp, &updated)
	assert.Equal(t, "Margaret Hamilton", updated.Name)
	assert.Equal(t, domain.ReaderFaculty, updated.Type)
}

func TestDeleteReaderEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	reader := ts.createReader(t, "Margaret Hamilton")

	resp := ts.do(t, http.MethodDelete, "/api/v1/readers/"+reader.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/v1/readers/"+reader.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
