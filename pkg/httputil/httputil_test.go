package httputil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/channelstore/pkg/observability"
)

func TestWriteJSONAndErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteSuccess(rec, map[string]string{"name": "stable"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"name":"stable"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteNotFound(rec, "channel not found")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "channel not found", resp.Error)

	rec = httptest.NewRecorder()
	WriteInternalError(rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// The raw cause never reaches the client.
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestParseJSON(t *testing.T) {
	var dest struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"v1"}`))
	require.NoError(t, ParseJSON(r, &dest))
	assert.Equal(t, "v1", dest.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{broken`))
	rec := httptest.NewRecorder()
	assert.False(t, ParseJSONOrError(rec, r, &dest))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParsePathString(t *testing.T) {
	router := mux.NewRouter()
	var got string
	router.HandleFunc("/channels/{uuid}", func(w http.ResponseWriter, r *http.Request) {
		val, ok := ParsePathStringOrError(w, r, "uuid")
		require.True(t, ok)
		got = val
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/channels/abc-123", nil))
	assert.Equal(t, "abc-123", got)
}

func TestParseQueryStrings(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/channels?tags=prod,%20us%20,", nil)
	assert.Equal(t, []string{"prod", "us"}, ParseQueryStrings(r, "tags"))

	r = httptest.NewRequest(http.MethodGet, "/channels", nil)
	assert.Nil(t, ParseQueryStrings(r, "tags"))
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	// A caller-supplied id is preserved.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "trace-me")
	handler.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "trace-me", seen)
}

func TestRecoveryMiddleware(t *testing.T) {
	var out bytes.Buffer
	logger := observability.NewLogger(observability.ErrorLevel, &out)

	handler := Chain(
		ContextLoggerMiddleware(logger),
		RecoveryMiddleware(),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, out.String(), "boom")
}

func TestMaxBytesMiddleware(t *testing.T) {
	handler := MaxBytesMiddleware(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			WriteBadRequest(w, "body too large")
			return
		}
		WriteNoContent(w)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny")))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("definitely more than eight bytes")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
