package e2e_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/helixml/scmtrack"
	"github.com/helixml/scmtrack/domain/issue"
	"github.com/helixml/scmtrack/domain/user"
	"github.com/helixml/scmtrack/infrastructure/api"
	"github.com/helixml/scmtrack/infrastructure/persistence"
	"github.com/helixml/scmtrack/internal/database"
	"github.com/stretchr/testify/require"
)

// TestServer serves the full API over a real SQLite file. A second
// database handle seeds the issue tracker the way the host application
// would.
type TestServer struct {
	t          *testing.T
	client     *scmtrack.Client
	db         database.Database
	httpServer *httptest.Server

	issues    persistence.IssueStore
	statuses  persistence.StatusStore
	relations persistence.RelationStore

	project  issue.Project
	open     issue.Status
	resolved issue.Status
	alice    user.User
}

// NewTestServer creates a TestServer with an empty issue tracker of one
// project, an open and a closed status, and the user alice.
func NewTestServer(t *testing.T, opts ...scmtrack.Option) *TestServer {
	t.Helper()

	ctx := context.Background()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	client, err := scmtrack.New(append([]scmtrack.Option{
		scmtrack.WithSQLite(dbPath),
		scmtrack.WithDataDir(tmpDir),
		scmtrack.WithoutBackground(),
	}, opts...)...)
	require.NoError(t, err)

	db, err := database.NewDatabase(ctx, "sqlite:///"+dbPath)
	require.NoError(t, err)

	ts := &TestServer{
		t:          t,
		client:     client,
		db:         db,
		httpServer: httptest.NewServer(api.NewAPIServer(client).Handler()),
		issues:     persistence.NewIssueStore(db),
		statuses:   persistence.NewStatusStore(db),
		relations:  persistence.NewRelationStore(db),
	}
	t.Cleanup(ts.Close)

	ts.open, err = ts.statuses.Save(ctx, issue.NewStatus("New", false, true, 1))
	require.NoError(t, err)
	ts.resolved, err = ts.statuses.Save(ctx, issue.NewStatus("Resolved", true, false, 2))
	require.NoError(t, err)
	ts.project, err = persistence.NewProjectStore(db).Save(ctx, issue.NewProject("app", "App"))
	require.NoError(t, err)
	ts.alice, err = persistence.NewUserStore(db).Save(ctx, user.NewUser("alice", "alice@example.com", "Alice", "Liddell"))
	require.NoError(t, err)

	return ts
}

// Close stops the HTTP server and releases both database handles.
func (ts *TestServer) Close() {
	ts.httpServer.Close()
	_ = ts.db.Close()
	_ = ts.client.Close()
}

// Issue creates an open issue in the project.
func (ts *TestServer) Issue(subject string) issue.Issue {
	ts.t.Helper()
	i, err := ts.issues.Save(context.Background(), issue.NewIssue(ts.project.ID(), subject, ts.open.ID()))
	require.NoError(ts.t, err)
	return i
}

// Do sends a request to the API and returns the response.
func (ts *TestServer) Do(method, path, body string) *http.Response {
	ts.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.httpServer.URL+path, reader)
	require.NoError(ts.t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err)
	ts.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// Decode reads a JSON response body into v.
func (ts *TestServer) Decode(resp *http.Response, v any) {
	ts.t.Helper()
	require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(v))
}

// Drain runs every queued task.
func (ts *TestServer) Drain() {
	ts.t.Helper()
	_, err := ts.client.ProcessPendingTasks(context.Background())
	require.NoError(ts.t, err)
}

type resource struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes"`
}

type single struct {
	Data resource `json:"data"`
}

type list struct {
	Data []resource     `json:"data"`
	Meta map[string]any `json:"meta"`
}

// workTree is a git repository on disk that tests commit to.
type workTree struct {
	t    *testing.T
	path string
	repo *gogit.Repository
	when time.Time
}

func newWorkTree(t *testing.T) *workTree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app")
	repo, err := gogit.PlainInit(path, false)
	require.NoError(t, err)
	return &workTree{t: t, path: path, repo: repo, when: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (w *workTree) write(name, content string) {
	w.t.Helper()
	full := filepath.Join(w.path, name)
	require.NoError(w.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(w.t, os.WriteFile(full, []byte(content), 0o644))
	wt, err := w.repo.Worktree()
	require.NoError(w.t, err)
	_, err = wt.Add(name)
	require.NoError(w.t, err)
}

func (w *workTree) commit(name, email, message string) string {
	w.t.Helper()
	wt, err := w.repo.Worktree()
	require.NoError(w.t, err)
	w.when = w.when.Add(time.Hour)
	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{Name: name, Email: email, When: w.when},
	})
	require.NoError(w.t, err)
	return hash.String()
}
