package service

import "fmt"

// FetchError reports a fetch that stopped partway. Changesets persisted
// before the failure are kept; the next fetch resumes after them.
type FetchError struct {
	RepositoryID int64
	Persisted    int
	Err          error
}

// Error implements error.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch repository %d: %d changesets persisted before failure: %v", e.RepositoryID, e.Persisted, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}
