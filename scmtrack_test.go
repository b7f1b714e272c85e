package scmtrack_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/helixml/scmtrack"
	"github.com/helixml/scmtrack/application/service"
	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/domain/scm"
	"github.com/helixml/scmtrack/domain/task"
	"github.com/helixml/scmtrack/internal/config"
	"github.com/helixml/scmtrack/internal/scmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPollPeriod = 20 * time.Millisecond

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fakeGit(adapter *scmtest.Adapter) scmtrack.Option {
	return scmtrack.WithSCM(scm.KindGit, func(context.Context, scm.Source) (scm.Adapter, error) {
		return adapter, nil
	})
}

func newClient(t *testing.T, opts ...scmtrack.Option) *scmtrack.Client {
	t.Helper()
	base := []scmtrack.Option{
		scmtrack.WithSQLite(":memory:"),
		scmtrack.WithDataDir(t.TempDir()),
		scmtrack.WithLogger(quietLogger()),
	}
	client, err := scmtrack.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNew_RequiresDatabase(t *testing.T) {
	_, err := scmtrack.New(scmtrack.WithDataDir(t.TempDir()))
	assert.ErrorIs(t, err, scmtrack.ErrNoDatabase)
}

func TestNew_RejectsUnknownEnabledKind(t *testing.T) {
	_, err := scmtrack.New(
		scmtrack.WithSQLite(":memory:"),
		scmtrack.WithDataDir(t.TempDir()),
		scmtrack.WithLogger(quietLogger()),
		scmtrack.WithSettings(config.NewSettings().WithEnabledSCM("git", "darcs")),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, scm.ErrUnknownKind)
	assert.Contains(t, err.Error(), "darcs")
}

func TestClient_CloseTwice(t *testing.T) {
	client, err := scmtrack.New(
		scmtrack.WithSQLite(":memory:"),
		scmtrack.WithDataDir(t.TempDir()),
		scmtrack.WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.ErrorIs(t, client.Close(), scmtrack.ErrClientClosed)

	_, err = client.ProcessPendingTasks(context.Background())
	assert.ErrorIs(t, err, scmtrack.ErrClientClosed)
}

func TestClient_AvailableKinds(t *testing.T) {
	client := newClient(t, scmtrack.WithoutBackground())
	assert.Equal(t, []scm.Kind{scm.KindGit, scm.KindGitHub}, client.Repositories.AvailableKinds())
}

func TestClient_ProcessPendingTasks(t *testing.T) {
	ctx := context.Background()
	adapter := scmtest.New("/srv/git/app",
		scmtest.Revision("c1", "alice", time.Now().Add(-time.Hour), "start"),
		scmtest.Revision("c2", "alice", time.Now(), "more"),
	)
	client := newClient(t, scmtrack.WithoutBackground(), fakeGit(adapter))

	repo := createRepository(t, client)
	_, err := client.Tasks.EnqueueRepository(ctx, task.OperationFetchRepository, repo.ID(), task.PriorityUserInitiated, nil)
	require.NoError(t, err)
	_, err = client.Tasks.EnqueueRepository(ctx, task.OperationPurgeRepository, 999, task.PriorityBackground, nil)
	require.NoError(t, err)

	ran, err := client.ProcessPendingTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ran)

	facade, err := client.Repositories.Facade(ctx, repo.ID())
	require.NoError(t, err)
	latest, err := facade.LatestChangeset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c2", latest.Revision())
}

func TestClient_BackgroundSync(t *testing.T) {
	ctx := context.Background()
	adapter := scmtest.New("/srv/git/app",
		scmtest.Revision("c1", "alice", time.Now(), "start"),
	)
	client := newClient(t,
		fakeGit(adapter),
		scmtrack.WithWorkerPollPeriod(testPollPeriod),
		scmtrack.WithPeriodicSyncConfig(config.NewPeriodicSyncConfig().
			WithIntervalSeconds(0.1).
			WithCheckIntervalSeconds(0.02)),
	)

	repo := createRepository(t, client)

	require.Eventually(t, func() bool {
		facade, err := client.Repositories.Facade(ctx, repo.ID())
		if err != nil {
			return false
		}
		latest, err := facade.LatestChangesets(ctx, "", "", 0)
		return err == nil && len(latest) == 1
	}, 5*time.Second, testPollPeriod)

	adapter.Add(scmtest.Revision("c2", "alice", time.Now().Add(time.Minute), "later"))
	require.Eventually(t, func() bool {
		facade, err := client.Repositories.Facade(ctx, repo.ID())
		if err != nil {
			return false
		}
		latest, err := facade.LatestChangeset(ctx)
		return err == nil && latest.Revision() == "c2"
	}, 5*time.Second, testPollPeriod)
}

func createRepository(t *testing.T, client *scmtrack.Client) repository.Repository {
	t.Helper()
	repo, err := client.Repositories.Create(context.Background(), service.RepositoryCreateParams{
		ProjectID: 1,
		Kind:      "git",
		URL:       fmt.Sprintf("/srv/git/%s", t.Name()),
	})
	require.NoError(t, err)
	return repo
}
