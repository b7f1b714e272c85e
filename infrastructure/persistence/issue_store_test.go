package persistence_test

import (
	"context"
	"testing"

	"github.com/helixml/scmtrack/domain/issue"
	"github.com/helixml/scmtrack/infrastructure/persistence"
	"github.com/helixml/scmtrack/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusStore_SingleDefault(t *testing.T) {
	ctx := context.Background()
	f := testdb.Seed(t)
	store := persistence.NewStatusStore(f.DB)

	def, err := store.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.New.ID(), def.ID())

	_, err = store.Save(ctx, f.Closed.WithDefault(true))
	require.NoError(t, err)

	def, err = store.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.Closed.ID(), def.ID())

	defaults, err := store.Find(ctx, issue.WithClosed(false))
	require.NoError(t, err)
	for _, s := range defaults {
		assert.False(t, s.IsDefault(), "%s should have lost the default flag", s.Name())
	}
}

func TestStatusStore_FirstClosed(t *testing.T) {
	f := testdb.Seed(t)

	closed, err := persistence.NewStatusStore(f.DB).FirstClosed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.Resolved.ID(), closed.ID())
}

func TestRelationStore_SaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := testdb.Seed(t)
	repo := f.Repository(t, "git", "/srv/app.git")
	cs := saveChangeset(t, persistence.NewChangesetStore(f.DB), repo.ID(), "r1", 0)
	bug := f.Issue(t, "bug")
	store := persistence.NewRelationStore(f.DB)

	created, err := store.Save(ctx, issue.NewRelation(cs.ID(), bug.ID(), issue.RelationReferences))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Save(ctx, issue.NewRelation(cs.ID(), bug.ID(), issue.RelationReferences))
	require.NoError(t, err)
	assert.False(t, created)

	created, err = store.Save(ctx, issue.NewRelation(cs.ID(), bug.ID(), issue.RelationFixes))
	require.NoError(t, err)
	assert.True(t, created, "a fix is a distinct relation from a reference")

	n, err := store.Count(ctx, issue.WithIssueID(bug.ID()))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestProjectStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := testdb.Seed(t)
	store := persistence.NewProjectStore(f.DB)

	saved, err := store.Save(ctx, f.Project.WithFixStatus(f.Closed.ID(), 100))
	require.NoError(t, err)

	got, err := store.Get(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, f.Closed.ID(), got.FixStatusID())
	assert.Equal(t, 100, got.FixDoneRatio())

	fresh, err := store.Get(ctx, f.Project.ID())
	require.NoError(t, err)
	assert.Equal(t, 100, fresh.FixDoneRatio())

	plain, err := store.Save(ctx, issue.NewProject("lib", "Lib"))
	require.NoError(t, err)
	assert.Equal(t, issue.NoDoneRatio, plain.FixDoneRatio())
}
