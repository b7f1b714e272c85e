package task

import "strings"

// Operation represents the type of task operation.
type Operation string

// Operation values for the task queue system.
const (
	OperationFetchRepository Operation = "scmtrack.repository.fetch"
	OperationScanRepository  Operation = "scmtrack.repository.scan"
	OperationPurgeRepository Operation = "scmtrack.repository.purge"
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return string(o)
}

// IsRepositoryOperation returns true if this is a repository-level operation.
func (o Operation) IsRepositoryOperation() bool {
	return strings.HasPrefix(string(o), "scmtrack.repository.")
}

// All returns every operation a worker must be able to handle.
// Used at startup to validate that all required handlers are registered.
func All() []Operation {
	return []Operation{
		OperationFetchRepository,
		OperationScanRepository,
		OperationPurgeRepository,
	}
}
