package repository

import "context"

// RepositoryStore defines the interface for Repository persistence.
type RepositoryStore interface {
	Get(ctx context.Context, id int64) (Repository, error)
	Find(ctx context.Context, options ...Option) ([]Repository, error)
	Count(ctx context.Context, options ...Option) (int64, error)
	Save(ctx context.Context, repo Repository) (Repository, error)
	Delete(ctx context.Context, repo Repository) error
}

// ChangesetStore defines the interface for Changeset persistence.
type ChangesetStore interface {
	Get(ctx context.Context, id int64) (Changeset, error)
	Find(ctx context.Context, options ...Option) ([]Changeset, error)
	FindOne(ctx context.Context, options ...Option) (Changeset, error)
	Count(ctx context.Context, options ...Option) (int64, error)

	// Save inserts the changeset and its changes in one transaction, or
	// updates an existing changeset's attribution and scanned flag.
	// A (repository, revision) conflict returns ErrDuplicateRevision.
	Save(ctx context.Context, changeset Changeset) (Changeset, error)

	// Committers returns the distinct (committer, user) pairs of a repository.
	Committers(ctx context.Context, repositoryID int64) ([]Committer, error)

	// AssignUser attributes every changeset of committer to userID, or
	// clears the attribution when userID is zero. It returns the number
	// of rows updated.
	AssignUser(ctx context.Context, repositoryID int64, committer string, userID int64) (int64, error)

	// MarkScanned flags a changeset as scanned for issue references.
	MarkScanned(ctx context.Context, id int64) error

	// Purge deletes every changeset of a repository with its changes and
	// issue relations in one transaction. The repository row is untouched.
	Purge(ctx context.Context, repositoryID int64) error
}

// ChangeStore defines the interface for Change persistence.
type ChangeStore interface {
	Find(ctx context.Context, options ...Option) ([]Change, error)
	Count(ctx context.Context, options ...Option) (int64, error)
}
