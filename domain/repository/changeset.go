package repository

import (
	"strings"
	"time"
)

// Changeset is one commit of a repository as cached locally.
// Canonical ordering is committed_on DESC, id DESC.
type Changeset struct {
	id           int64
	repositoryID int64
	revision     string
	committer    string
	userID       int64
	committedOn  time.Time
	comment      string
	scanned      bool
	changes      []Change
}

// NewChangeset creates a new, unscanned Changeset.
func NewChangeset(repositoryID int64, revision, committer string, committedOn time.Time, comment string) Changeset {
	return Changeset{
		repositoryID: repositoryID,
		revision:     revision,
		committer:    committer,
		committedOn:  committedOn,
		comment:      comment,
	}
}

// ReconstructChangeset reconstructs a Changeset from persistence.
func ReconstructChangeset(
	id, repositoryID int64,
	revision, committer string,
	userID int64,
	committedOn time.Time,
	comment string,
	scanned bool,
) Changeset {
	return Changeset{
		id:           id,
		repositoryID: repositoryID,
		revision:     revision,
		committer:    committer,
		userID:       userID,
		committedOn:  committedOn,
		comment:      comment,
		scanned:      scanned,
	}
}

// ID returns the changeset ID.
func (c Changeset) ID() int64 { return c.id }

// RepositoryID returns the owning repository ID.
func (c Changeset) RepositoryID() int64 { return c.repositoryID }

// Revision returns the SCM revision identifier.
func (c Changeset) Revision() string { return c.revision }

// Committer returns the raw committer string, e.g. "Alice <a@x.com>".
func (c Changeset) Committer() string { return c.committer }

// UserID returns the resolved user ID, or 0 if unresolved.
func (c Changeset) UserID() int64 { return c.userID }

// HasUser reports whether the committer resolved to a user.
func (c Changeset) HasUser() bool { return c.userID > 0 }

// CommittedOn returns the commit timestamp.
func (c Changeset) CommittedOn() time.Time { return c.committedOn }

// Comment returns the commit message.
func (c Changeset) Comment() string { return c.comment }

// Scanned reports whether the comment has been scanned for issue references.
func (c Changeset) Scanned() bool { return c.scanned }

// Changes returns a copy of the path-level changes attached to this value.
func (c Changeset) Changes() []Change {
	out := make([]Change, len(c.changes))
	copy(out, c.changes)
	return out
}

// ShortRevision returns the first 8 characters of the revision.
func (c Changeset) ShortRevision() string {
	if len(c.revision) > 8 {
		return c.revision[:8]
	}
	return c.revision
}

// Title returns the first line of the comment.
func (c Changeset) Title() string {
	title, _, _ := strings.Cut(c.comment, "\n")
	return strings.TrimSpace(title)
}

// WithID returns a copy with the specified ID.
func (c Changeset) WithID(id int64) Changeset {
	c.id = id
	return c
}

// WithUserID returns a copy attributed to the given user. Zero clears it.
func (c Changeset) WithUserID(userID int64) Changeset {
	if userID < 0 {
		userID = 0
	}
	c.userID = userID
	return c
}

// WithChanges returns a copy carrying the given changes.
func (c Changeset) WithChanges(changes []Change) Changeset {
	c.changes = make([]Change, len(changes))
	copy(c.changes, changes)
	return c
}

// WithScanned returns a copy with the scanned flag set.
func (c Changeset) WithScanned(scanned bool) Changeset {
	c.scanned = scanned
	return c
}
