// Package scm defines the capability interface every source-control
// adapter implements and the registry that builds adapters by kind.
package scm

import (
	"context"
	"iter"
)

// Adapter gives access to one repository of an external SCM.
// Implementations bound their own I/O and honour ctx cancellation.
type Adapter interface {
	// RootURL returns the repository root, which may differ from the
	// configured URL when the URL points inside the repository.
	RootURL() string

	// Entry returns the entry at path for revision, or ErrNotFound.
	Entry(ctx context.Context, path, revision string) (Entry, error)

	// Entries lists the directory at path for revision.
	Entries(ctx context.Context, path, revision string) ([]Entry, error)

	// Cat returns the file content at path for revision.
	Cat(ctx context.Context, path, revision string) ([]byte, error)

	// Annotate returns per-line blame for path at revision.
	Annotate(ctx context.Context, path, revision string) (Annotation, error)

	// Diff returns a unified diff of path (or everything when empty)
	// between from and to. An empty from diffs against the parent of to.
	Diff(ctx context.Context, path, from, to string) (string, error)

	Branches(ctx context.Context) ([]string, error)
	Tags(ctx context.Context) ([]string, error)
	DefaultBranch(ctx context.Context) (string, error)

	// Properties returns SCM-specific metadata for path at revision.
	Properties(ctx context.Context, path, revision string) (map[string]string, error)

	SupportsCat() bool
	SupportsAnnotate() bool

	// Changesets streams the revisions committed after since, oldest
	// first. An empty since streams the whole history.
	Changesets(ctx context.Context, since string) iter.Seq2[Revision, error]
}

// Source is what an adapter needs to reach a repository.
type Source struct {
	url      string
	rootURL  string
	login    string
	password string
}

// NewSource creates a Source.
func NewSource(url, rootURL, login, password string) Source {
	return Source{
		url:      url,
		rootURL:  rootURL,
		login:    login,
		password: password,
	}
}

// URL returns the repository URL.
func (s Source) URL() string { return s.url }

// RootURL returns the known root URL, possibly empty.
func (s Source) RootURL() string { return s.rootURL }

// Login returns the login, possibly empty.
func (s Source) Login() string { return s.login }

// Password returns the password, possibly empty.
func (s Source) Password() string { return s.password }

// HasCredentials reports whether a login or password is set.
func (s Source) HasCredentials() bool { return s.login != "" || s.password != "" }
