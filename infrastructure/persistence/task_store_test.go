package persistence_test

import (
	"context"
	"testing"

	"github.com/helixml/scmtrack/domain/task"
	"github.com/helixml/scmtrack/infrastructure/persistence"
	"github.com/helixml/scmtrack/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStore_DedupAndDequeue(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewTaskStore(testdb.New(t))

	fetch := task.NewTask(task.OperationFetchRepository, int(task.PriorityBackground), map[string]any{"repository_id": int64(1)})
	_, err := store.Save(ctx, fetch)
	require.NoError(t, err)
	_, err = store.Save(ctx, task.NewTask(task.OperationFetchRepository, int(task.PriorityUserInitiated), map[string]any{"repository_id": int64(1)}))
	require.NoError(t, err)
	_, err = store.Save(ctx, task.NewTask(task.OperationScanRepository, int(task.PriorityNormal), map[string]any{"repository_id": int64(2)}))
	require.NoError(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "same operation and repository share one row")

	first, ok, err := store.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, task.OperationFetchRepository, first.Operation())
	assert.Equal(t, int(task.PriorityUserInitiated), first.Priority())
	assert.EqualValues(t, 1, first.Payload()["repository_id"])

	second, ok, err := store.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, task.OperationScanRepository, second.Operation())

	_, ok, err = store.Dequeue(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTaskStore_FindByOperation(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewTaskStore(testdb.New(t))

	for id := range int64(3) {
		_, err := store.Save(ctx, task.NewTask(task.OperationFetchRepository, int(task.PriorityNormal), map[string]any{"repository_id": id}))
		require.NoError(t, err)
	}
	_, err := store.Save(ctx, task.NewTask(task.OperationPurgeRepository, int(task.PriorityNormal), map[string]any{"repository_id": int64(9)}))
	require.NoError(t, err)

	fetches, err := store.Find(ctx, task.WithOperation(task.OperationFetchRepository))
	require.NoError(t, err)
	assert.Len(t, fetches, 3)
}

func TestValidateSchema(t *testing.T) {
	assert.NoError(t, persistence.ValidateSchema(testdb.New(t)))
}
