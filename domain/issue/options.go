package issue

import "github.com/helixml/scmtrack/domain/repository"

// WithIssueID filters by the "issue_id" column.
func WithIssueID(id int64) repository.Option {
	return repository.WithCondition("issue_id", id)
}

// WithKind filters relations by kind.
func WithKind(kind RelationKind) repository.Option {
	return repository.WithCondition("kind", string(kind))
}

// WithClosed filters statuses by the "is_closed" column.
func WithClosed(closed bool) repository.Option {
	return repository.WithCondition("is_closed", closed)
}

// WithIdentifier filters projects by identifier.
func WithIdentifier(identifier string) repository.Option {
	return repository.WithCondition("identifier", identifier)
}
