package repository

import "strings"

// Action is the kind of modification a changeset made to a path.
type Action string

// Action values.
const (
	ActionAdded    Action = "A"
	ActionModified Action = "M"
	ActionDeleted  Action = "D"
	ActionRenamed  Action = "R"
	ActionCopied   Action = "C"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionAdded, ActionModified, ActionDeleted, ActionRenamed, ActionCopied:
		return true
	}
	return false
}

// Change is a path-level modification within a changeset.
type Change struct {
	id           int64
	changesetID  int64
	action       Action
	path         string
	fromPath     string
	fromRevision string
}

// NewChange creates a Change. Paths are stored with a leading slash.
func NewChange(action Action, path string) Change {
	return Change{
		action: action,
		path:   NormalizePath(path),
	}
}

// NewCopyChange creates a Change recording the source of a copy or rename.
func NewCopyChange(action Action, path, fromPath, fromRevision string) Change {
	c := NewChange(action, path)
	if fromPath != "" {
		c.fromPath = NormalizePath(fromPath)
	}
	c.fromRevision = fromRevision
	return c
}

// ReconstructChange reconstructs a Change from persistence.
func ReconstructChange(id, changesetID int64, action Action, path, fromPath, fromRevision string) Change {
	return Change{
		id:           id,
		changesetID:  changesetID,
		action:       action,
		path:         path,
		fromPath:     fromPath,
		fromRevision: fromRevision,
	}
}

// ID returns the change ID.
func (c Change) ID() int64 { return c.id }

// ChangesetID returns the owning changeset ID.
func (c Change) ChangesetID() int64 { return c.changesetID }

// Action returns the change action.
func (c Change) Action() Action { return c.action }

// Path returns the changed path, always with a leading slash.
func (c Change) Path() string { return c.path }

// FromPath returns the copy or rename source path, if any.
func (c Change) FromPath() string { return c.fromPath }

// FromRevision returns the copy or rename source revision, if any.
func (c Change) FromRevision() string { return c.fromRevision }

// WithChangesetID returns a copy attached to the given changeset.
func (c Change) WithChangesetID(id int64) Change {
	c.changesetID = id
	return c
}

// WithID returns a copy with the specified ID.
func (c Change) WithID(id int64) Change {
	c.id = id
	return c
}

// NormalizePath returns path with exactly one leading slash.
// An empty path stays empty.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return "/" + strings.TrimLeft(path, "/")
}
