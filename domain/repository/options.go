package repository

// WithRepositoryID filters by the "repository_id" column.
func WithRepositoryID(id int64) Option {
	return WithCondition("repository_id", id)
}

// WithProjectID filters by the "project_id" column.
func WithProjectID(id int64) Option {
	return WithCondition("project_id", id)
}

// WithKind filters by the "kind" column.
func WithKind(kind string) Option {
	return WithCondition("kind", kind)
}

// WithChangesetID filters by the "changeset_id" column.
func WithChangesetID(id int64) Option {
	return WithCondition("changeset_id", id)
}

// WithRevision filters by the "revision" column.
func WithRevision(revision string) Option {
	return WithCondition("revision", revision)
}

// WithRevisionPrefix filters revisions starting with prefix.
func WithRevisionPrefix(prefix string) Option {
	return WithPrefix("revision", prefix)
}

// WithCommitter filters by the "committer" column.
func WithCommitter(committer string) Option {
	return WithCondition("committer", committer)
}

// WithUser filters for changesets attributed to any user.
func WithUser() Option {
	return WithWhere("user_id IS NOT NULL")
}

// WithScanned filters by the "scanned" column.
func WithScanned(scanned bool) Option {
	return WithCondition("scanned", scanned)
}

// WithPath filters by the "path" column.
func WithPath(path string) Option {
	return WithCondition("path", NormalizePath(path))
}

// WithChangedPath restricts changesets to those with a change at path.
func WithChangedPath(path string) Option {
	return WithWhere("id IN (SELECT changeset_id FROM changes WHERE path = ?)", NormalizePath(path))
}

// WithCanonicalOrder orders changesets newest first (committed_on DESC, id DESC).
func WithCanonicalOrder() []Option {
	return []Option{WithOrderDesc("committed_on"), WithOrderDesc("id")}
}
