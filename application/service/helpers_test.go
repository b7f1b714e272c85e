package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/domain/scm"
	"github.com/helixml/scmtrack/infrastructure/persistence"
	"github.com/helixml/scmtrack/internal/config"
	"github.com/helixml/scmtrack/internal/scmtest"
	"github.com/helixml/scmtrack/internal/testdb"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testEnv wires the services over an in-memory database and a fake git
// adapter registered as "git".
type testEnv struct {
	f          testdb.Fixtures
	adapter    *scmtest.Adapter
	scms       *scm.Registry
	repoStore  persistence.RepositoryStore
	changesets persistence.ChangesetStore
	issues     persistence.IssueStore
	projects   persistence.ProjectStore
	relations  persistence.RelationStore
	repos      *Repositories
	scanner    *Scanner
	sync       *Synchronizer
}

func newTestEnv(t *testing.T, settings config.Settings) *testEnv {
	t.Helper()
	f := testdb.Seed(t)
	logger := testLogger()

	e := &testEnv{
		f:          f,
		adapter:    scmtest.New("/srv/git/app"),
		scms:       scm.NewRegistry(),
		repoStore:  persistence.NewRepositoryStore(f.DB),
		changesets: persistence.NewChangesetStore(f.DB),
		issues:     persistence.NewIssueStore(f.DB),
		projects:   persistence.NewProjectStore(f.DB),
		relations:  persistence.NewRelationStore(f.DB),
	}
	scmtest.Register(e.scms, scm.KindGit, e.adapter)

	e.repos = NewRepositories(e.repoStore, e.changesets, e.scms, settings, logger)
	e.scanner = NewScanner(e.repoStore, e.changesets, e.issues,
		persistence.NewStatusStore(f.DB), e.projects, e.relations, settings, logger)
	resolver := NewIdentityResolver(e.changesets, persistence.NewUserStore(f.DB), logger)
	e.sync = NewSynchronizer(e.repos, e.changesets, resolver, e.scanner, 2, logger)
	return e
}

// changeset stores a changeset of repo committed offset hours after epoch.
func (e *testEnv) changeset(t *testing.T, repo repository.Repository, rev, committer, comment string, offset int, paths ...string) repository.Changeset {
	t.Helper()
	changes := make([]repository.Change, len(paths))
	for i, p := range paths {
		changes[i] = repository.NewChange(repository.ActionModified, p)
	}
	cs := repository.NewChangeset(repo.ID(), rev, committer, epoch.Add(time.Duration(offset)*time.Hour), comment).
		WithChanges(changes)
	saved, err := e.changesets.Save(context.Background(), cs)
	require.NoError(t, err)
	return saved
}

func (e *testEnv) facade(t *testing.T, repo repository.Repository) *Facade {
	t.Helper()
	f, err := e.repos.Facade(context.Background(), repo.ID())
	require.NoError(t, err)
	return f
}

func revisions(changesets []repository.Changeset) []string {
	out := make([]string, len(changesets))
	for i, cs := range changesets {
		out[i] = cs.Revision()
	}
	return out
}
