package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/helixml/scmtrack/domain/issue"
	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/infrastructure/persistence"
	"github.com/helixml/scmtrack/internal/database"
	"github.com/helixml/scmtrack/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func saveChangeset(t *testing.T, store persistence.ChangesetStore, repoID int64, rev string, offset time.Duration, paths ...string) repository.Changeset {
	t.Helper()
	changes := make([]repository.Change, len(paths))
	for i, p := range paths {
		changes[i] = repository.NewChange(repository.ActionModified, p)
	}
	cs := repository.NewChangeset(repoID, rev, "alice <alice@example.com>", epoch.Add(offset), "msg "+rev).WithChanges(changes)
	saved, err := store.Save(context.Background(), cs)
	require.NoError(t, err)
	return saved
}

func TestChangesetStore_SaveWithChanges(t *testing.T) {
	ctx := context.Background()
	f := testdb.Seed(t)
	repo := f.Repository(t, "git", "/srv/app.git")
	store := persistence.NewChangesetStore(f.DB)

	saved := saveChangeset(t, store, repo.ID(), "abc123", 0, "lib/foo.rb", "/README")
	require.NotZero(t, saved.ID())
	require.Len(t, saved.Changes(), 2)
	assert.Equal(t, "/lib/foo.rb", saved.Changes()[0].Path())
	assert.Equal(t, saved.ID(), saved.Changes()[0].ChangesetID())

	changes, err := persistence.NewChangeStore(f.DB).Find(ctx, repository.WithChangesetID(saved.ID()))
	require.NoError(t, err)
	assert.Len(t, changes, 2)
}

func TestChangesetStore_DuplicateRevision(t *testing.T) {
	ctx := context.Background()
	f := testdb.Seed(t)
	repo := f.Repository(t, "git", "/srv/app.git")
	store := persistence.NewChangesetStore(f.DB)

	saveChangeset(t, store, repo.ID(), "abc123", 0, "a.txt")

	dup := repository.NewChangeset(repo.ID(), "abc123", "bob", epoch, "again").
		WithChanges([]repository.Change{repository.NewChange(repository.ActionAdded, "b.txt")})
	_, err := store.Save(ctx, dup)
	require.ErrorIs(t, err, repository.ErrDuplicateRevision)

	count, err := persistence.NewChangeStore(f.DB).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "changes of the rejected changeset must be rolled back")

	other := f.Repository(t, "git", "/srv/other.git")
	_, err = store.Save(ctx, repository.NewChangeset(other.ID(), "abc123", "bob", epoch, ""))
	assert.NoError(t, err, "the same revision may exist in another repository")
}

func TestChangesetStore_CanonicalOrderAndPath(t *testing.T) {
	ctx := context.Background()
	f := testdb.Seed(t)
	repo := f.Repository(t, "git", "/srv/app.git")
	store := persistence.NewChangesetStore(f.DB)

	saveChangeset(t, store, repo.ID(), "r1", 1*time.Hour, "lib/foo.rb")
	saveChangeset(t, store, repo.ID(), "r2", 2*time.Hour, "lib/bar.rb")
	saveChangeset(t, store, repo.ID(), "r3", 3*time.Hour, "lib/foo.rb", "lib/bar.rb")
	saveChangeset(t, store, repo.ID(), "r4", 3*time.Hour, "lib/foo.rb")

	opts := append([]repository.Option{
		repository.WithRepositoryID(repo.ID()),
		repository.WithChangedPath("/lib/foo.rb"),
		repository.WithLimit(2),
	}, repository.WithCanonicalOrder()...)
	found, err := store.Find(ctx, opts...)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "r4", found[0].Revision(), "equal timestamps fall back to id DESC")
	assert.Equal(t, "r3", found[1].Revision())
}

func TestChangesetStore_Committers(t *testing.T) {
	ctx := context.Background()
	f := testdb.Seed(t)
	repo := f.Repository(t, "git", "/srv/app.git")
	store := persistence.NewChangesetStore(f.DB)

	saveChangeset(t, store, repo.ID(), "r1", 0)
	saveChangeset(t, store, repo.ID(), "r2", time.Minute)
	_, err := store.Save(ctx, repository.NewChangeset(repo.ID(), "r3", "bob", epoch, ""))
	require.NoError(t, err)

	committers, err := store.Committers(ctx, repo.ID())
	require.NoError(t, err)
	require.Len(t, committers, 2)
	assert.Equal(t, "alice <alice@example.com>", committers[0].Name())
	assert.False(t, committers[0].HasUser())

	n, err := store.AssignUser(ctx, repo.ID(), "alice <alice@example.com>", f.Alice.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	committers, err = store.Committers(ctx, repo.ID())
	require.NoError(t, err)
	assert.Equal(t, f.Alice.ID(), committers[0].UserID())

	_, err = store.AssignUser(ctx, repo.ID(), "alice <alice@example.com>", 0)
	require.NoError(t, err)
	attributed, err := store.Count(ctx, repository.WithRepositoryID(repo.ID()), repository.WithUser())
	require.NoError(t, err)
	assert.Zero(t, attributed)
}

func TestChangesetStore_MarkScanned(t *testing.T) {
	ctx := context.Background()
	f := testdb.Seed(t)
	repo := f.Repository(t, "git", "/srv/app.git")
	store := persistence.NewChangesetStore(f.DB)

	cs := saveChangeset(t, store, repo.ID(), "r1", 0)
	require.NoError(t, store.MarkScanned(ctx, cs.ID()))

	got, err := store.Get(ctx, cs.ID())
	require.NoError(t, err)
	assert.True(t, got.Scanned())
}

func TestChangesetStore_Purge(t *testing.T) {
	ctx := context.Background()
	f := testdb.Seed(t)
	repo := f.Repository(t, "git", "/srv/app.git")
	other := f.Repository(t, "git", "/srv/other.git")
	store := persistence.NewChangesetStore(f.DB)
	relations := persistence.NewRelationStore(f.DB)
	bug := f.Issue(t, "bug")

	cs := saveChangeset(t, store, repo.ID(), "r1", 0, "a.txt")
	saveChangeset(t, store, repo.ID(), "r2", time.Minute, "b.txt")
	kept := saveChangeset(t, store, other.ID(), "r1", 0, "a.txt")
	_, err := relations.Save(ctx, issue.NewRelation(cs.ID(), bug.ID(), issue.RelationFixes))
	require.NoError(t, err)
	_, err = relations.Save(ctx, issue.NewRelation(kept.ID(), bug.ID(), issue.RelationReferences))
	require.NoError(t, err)

	for range 2 {
		require.NoError(t, store.Purge(ctx, repo.ID()))

		n, err := store.Count(ctx, repository.WithRepositoryID(repo.ID()))
		require.NoError(t, err)
		assert.Zero(t, n)
	}

	changes, err := persistence.NewChangeStore(f.DB).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changes)

	rels, err := relations.Find(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, kept.ID(), rels[0].ChangesetID())

	_, err = persistence.NewRepositoryStore(f.DB).Get(ctx, repo.ID())
	assert.NoError(t, err, "purge leaves the repository row")
}

func TestRepositoryStore_GetMissing(t *testing.T) {
	db := testdb.New(t)
	_, err := persistence.NewRepositoryStore(db).Get(context.Background(), 99)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
