package scm

import "time"

// EntryKind distinguishes files from directories.
type EntryKind string

// EntryKind values.
const (
	EntryFile EntryKind = "file"
	EntryDir  EntryKind = "dir"
)

// Entry is a file or directory in a repository tree.
type Entry struct {
	Name         string
	Path         string
	Kind         EntryKind
	Size         int64
	LastRevision string
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Kind == EntryDir }

// PathChange is one path modified by a Revision.
type PathChange struct {
	Action       string
	Path         string
	FromPath     string
	FromRevision string
}

// Revision is a commit as reported by an adapter.
type Revision struct {
	Identifier string
	Author     string
	Time       time.Time
	Message    string
	Parents    []string
	Paths      []PathChange
}

// AnnotatedLine is one line of blame output.
type AnnotatedLine struct {
	Revision string
	Author   string
	Line     string
}

// Annotation is the blame of a file.
type Annotation struct {
	Lines []AnnotatedLine
}
