package api_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/helixml/scmtrack"
	"github.com/helixml/scmtrack/infrastructure/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, opts ...scmtrack.Option) *scmtrack.Client {
	t.Helper()
	base := []scmtrack.Option{
		scmtrack.WithSQLite(":memory:"),
		scmtrack.WithDataDir(t.TempDir()),
		scmtrack.WithLogger(slog.New(slog.DiscardHandler)),
		scmtrack.WithoutBackground(),
	}
	client, err := scmtrack.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestAPIServer_ReadEndpointsOpen_WriteEndpointsProtected(t *testing.T) {
	client := newTestClient(t, scmtrack.WithAPIKeys("test-secret-key"))
	handler := api.NewAPIServer(client).Handler()

	body := `{"data":{"type":"repository","attributes":{"project_id":1,"kind":"git","url":"/srv/git/app"}}}`

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		key    string
		want   int
	}{
		{"healthz is open", http.MethodGet, "/healthz", "", "", http.StatusOK},
		{"list repositories is open", http.MethodGet, "/api/v1/repositories", "", "", http.StatusOK},
		{"queue is open", http.MethodGet, "/api/v1/queue", "", "", http.StatusOK},
		{"create without key", http.MethodPost, "/api/v1/repositories", body, "", http.StatusUnauthorized},
		{"create with wrong key", http.MethodPost, "/api/v1/repositories", body, "nope", http.StatusUnauthorized},
		{"create with key", http.MethodPost, "/api/v1/repositories", body, "test-secret-key", http.StatusCreated},
		{"delete without key", http.MethodDelete, "/api/v1/repositories/1", "", "", http.StatusUnauthorized},
		{"fetch without key", http.MethodPost, "/api/v1/repositories/1/fetch", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/vnd.api+json")
			if tt.key != "" {
				req.Header.Set("X-API-KEY", tt.key)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestAPIServer_NoKeysLeavesWritesOpen(t *testing.T) {
	client := newTestClient(t)
	handler := api.NewAPIServer(client).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/repositories",
		strings.NewReader(`{"data":{"attributes":{"project_id":1,"kind":"git","url":"/srv/git/app"}}}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
