package issue

import (
	"context"

	"github.com/helixml/scmtrack/domain/repository"
)

// IssueStore defines the interface for Issue persistence.
type IssueStore interface {
	Get(ctx context.Context, id int64) (Issue, error)
	Find(ctx context.Context, options ...repository.Option) ([]Issue, error)
	Save(ctx context.Context, issue Issue) (Issue, error)
}

// StatusStore defines the interface for Status persistence.
type StatusStore interface {
	Get(ctx context.Context, id int64) (Status, error)
	Find(ctx context.Context, options ...repository.Option) ([]Status, error)

	// Save persists a status. Saving a default status clears the flag on
	// every other status.
	Save(ctx context.Context, status Status) (Status, error)

	// Default returns the default status.
	Default(ctx context.Context) (Status, error)

	// FirstClosed returns the closed status with the lowest position.
	FirstClosed(ctx context.Context) (Status, error)
}

// ProjectStore defines the interface for Project persistence.
type ProjectStore interface {
	Get(ctx context.Context, id int64) (Project, error)
	Find(ctx context.Context, options ...repository.Option) ([]Project, error)
	Save(ctx context.Context, project Project) (Project, error)
}

// RelationStore defines the interface for changeset/issue relations.
type RelationStore interface {
	// Save records the relation. It reports false when it already existed.
	Save(ctx context.Context, relation Relation) (bool, error)
	Find(ctx context.Context, options ...repository.Option) ([]Relation, error)
	Count(ctx context.Context, options ...repository.Option) (int64, error)
}
