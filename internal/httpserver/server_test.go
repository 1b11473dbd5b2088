package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nexus-bot/internal/logging"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func serve(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestLivenessOnAnyPath(t *testing.T) {
	srv := New(":0", logging.Discard(), nil, nil)

	for _, path := range []string{"/", "/status", "/deep/nested/path"} {
		rec := serve(t, srv, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "Bot is running!", rec.Body.String(), path)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"), path)
	}

	rec := serve(t, srv, http.MethodPost, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := New(":0", logging.Discard(), nil, nil)

	rec := serve(t, srv, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHealthReportsDependencies(t *testing.T) {
	healthy := pingFunc(func(context.Context) error { return nil })
	broken := pingFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") })

	srv := New(":0", logging.Discard(), nil, Dependencies{"store": healthy, "redis": nil})
	rec := serve(t, srv, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"store": "ok"}, body.Checks)

	srv = New(":0", logging.Discard(), nil, Dependencies{"store": healthy, "redis": broken})
	rec = serve(t, srv, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unavailable", body.Checks["redis"])
}
