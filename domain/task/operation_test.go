package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperation_IsRepositoryOperation(t *testing.T) {
	for _, op := range All() {
		assert.True(t, op.IsRepositoryOperation(), op.String())
	}
	assert.False(t, Operation("scmtrack.other").IsRepositoryOperation())
}

func TestAll_Unique(t *testing.T) {
	seen := make(map[Operation]struct{})
	for _, op := range All() {
		_, dup := seen[op]
		assert.False(t, dup, "duplicate operation %s", op)
		seen[op] = struct{}{}
	}
	assert.Len(t, seen, 3)
}

func TestNewTask_DedupKey(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		payload map[string]any
		want    string
	}{
		{
			name:    "repository id",
			op:      OperationFetchRepository,
			payload: map[string]any{"repository_id": int64(4)},
			want:    "scmtrack.repository.fetch:4",
		},
		{
			name:    "repository id wins over other keys",
			op:      OperationScanRepository,
			payload: map[string]any{"force": true, "repository_id": int64(4)},
			want:    "scmtrack.repository.scan:4",
		},
		{
			name:    "sorted fallback",
			op:      OperationPurgeRepository,
			payload: map[string]any{"b": 2, "a": 1},
			want:    "scmtrack.repository.purge:1",
		},
		{
			name:    "empty payload",
			op:      OperationFetchRepository,
			payload: nil,
			want:    "scmtrack.repository.fetch:<nil>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewTask(tt.op, int(PriorityNormal), tt.payload).DedupKey())
		})
	}
}

func TestTask_PayloadIsCopied(t *testing.T) {
	payload := map[string]any{"repository_id": int64(1)}
	tk := NewTask(OperationFetchRepository, int(PriorityNormal), payload)

	payload["repository_id"] = int64(2)
	assert.Equal(t, int64(1), tk.Payload()["repository_id"])

	p := tk.Payload()
	p["repository_id"] = int64(3)
	assert.Equal(t, int64(1), tk.Payload()["repository_id"])
}
