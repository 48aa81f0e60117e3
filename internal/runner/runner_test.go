package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking_api_testing/internal/config"
	"parking_api_testing/internal/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"message":       "ok",
			"content_type":  r.Header.Get("Content-Type"),
			"authorization": r.Header.Get("Authorization"),
			"body":          string(body),
		})
	})
	r.Get("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Access denied"))
	})
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newRunner(baseURL string, out io.Writer) *Runner {
	cfg := config.Default()
	cfg.BaseURL = baseURL
	cfg.Timeout = 5 * time.Second
	return New(cfg, out, nil)
}

func TestDo_SendsJSONAndHeaders(t *testing.T) {
	srv := newTestServer(t)
	var out bytes.Buffer
	r := newRunner(srv.URL, &out)

	rec := r.Do(context.Background(), Request{
		Method:      http.MethodPost,
		Path:        "/echo",
		Description: "Echo request",
		Body:        map[string]any{"username": "testuser123"},
		Headers:     map[string]string{"Authorization": "tok-123"},
	})

	require.Empty(t, rec.Error)
	assert.Equal(t, http.StatusOK, rec.StatusCode)
	assert.Equal(t, "200", rec.Status())
	assert.Equal(t, 1, rec.Number)

	resp, ok := rec.Response.(map[string]any)
	require.True(t, ok, "expected decoded JSON object, got %T", rec.Response)
	assert.Equal(t, "application/json", resp["content_type"])
	assert.Equal(t, "tok-123", resp["authorization"])
	assert.JSONEq(t, `{"username":"testuser123"}`, resp["body"].(string))

	assert.Contains(t, out.String(), "✅ POST /echo - 200 - Echo request")
	assert.Contains(t, out.String(), "Message: ok")
	assert.Contains(t, rec.Curl, "-H 'Authorization: tok-123'")
	assert.Contains(t, rec.Curl, srv.URL+"/echo")
}

func TestDo_NonJSONBodyKeptAsText(t *testing.T) {
	srv := newTestServer(t)
	r := newRunner(srv.URL, io.Discard)

	rec := r.Do(context.Background(), Request{Method: http.MethodGet, Path: "/plain", Description: "Plain text"})

	assert.Empty(t, rec.Error)
	assert.Equal(t, "Access denied", rec.Response)
}

func TestDo_ErrorStatusIsStillARecord(t *testing.T) {
	srv := newTestServer(t)
	var out bytes.Buffer
	r := newRunner(srv.URL, &out)

	rec := r.Do(context.Background(), Request{Method: http.MethodGet, Path: "/missing", Description: "Missing"})

	assert.Equal(t, http.StatusNotFound, rec.StatusCode)
	assert.True(t, rec.Failed())
	assert.Contains(t, out.String(), "Error: not found")
}

func TestDo_TransportFailureRecordsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	var out bytes.Buffer
	r := newRunner(baseURL, &out)

	rec := r.Do(context.Background(), Request{Method: http.MethodGet, Path: "/profile", Description: "Get profile"})

	assert.Equal(t, model.StatusError, rec.Status())
	assert.NotEmpty(t, rec.Error)
	assert.Zero(t, rec.StatusCode)
	assert.Contains(t, out.String(), "❌ GET /profile - ERROR - ")
}

func TestDo_OneRecordPerCall(t *testing.T) {
	srv := newTestServer(t)
	r := newRunner(srv.URL, io.Discard)
	ctx := context.Background()

	r.Do(ctx, Request{Method: http.MethodGet, Path: "/plain"})
	r.Do(ctx, Request{Method: http.MethodGet, Path: "/missing"})
	r.Do(ctx, Request{Method: http.MethodGet, Path: "/does-not-exist"})
	r.Do(ctx, Request{Method: "BAD METHOD", Path: "/plain"})

	results := r.Results()
	require.Len(t, results, 4)
	for i, rec := range results {
		assert.Equal(t, i+1, rec.Number)
	}
	assert.Equal(t, model.StatusError, results[3].Status())
}

func TestDo_UnencodableBody(t *testing.T) {
	r := newRunner("http://127.0.0.1:1", io.Discard)

	rec := r.Do(context.Background(), Request{Method: http.MethodPost, Path: "/x", Body: make(chan int)})

	assert.True(t, strings.HasPrefix(rec.Error, "encode request body"))
	assert.Len(t, r.Results(), 1)
}

func TestDecodeBody(t *testing.T) {
	assert.Equal(t, map[string]any{"a": float64(1)}, DecodeBody([]byte(`{"a":1}`)))
	assert.Equal(t, []any{"x"}, DecodeBody([]byte(`["x"]`)))
	assert.Equal(t, "<html>", DecodeBody([]byte("<html>")))
	assert.Equal(t, "", DecodeBody(nil))
}
