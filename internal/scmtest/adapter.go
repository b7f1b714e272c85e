// Package scmtest provides an in-memory scm.Adapter for tests.
package scmtest

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/helixml/scmtrack/domain/scm"
)

// Adapter is an in-memory repository. Revisions are kept oldest first.
type Adapter struct {
	mu        sync.Mutex
	root      string
	revisions []scm.Revision
	files     map[string]string
	branches  []string
	tags      []string
	failAt    int
	failErr   error
	noCat     bool
	calls     int
}

// New creates an Adapter holding revs.
func New(root string, revs ...scm.Revision) *Adapter {
	return &Adapter{
		root:      root,
		revisions: slices.Clone(revs),
		files:     make(map[string]string),
		branches:  []string{"main"},
	}
}

// Revision builds a revision with the given changed paths.
func Revision(id, author string, at time.Time, message string, paths ...scm.PathChange) scm.Revision {
	return scm.Revision{
		Identifier: id,
		Author:     author,
		Time:       at,
		Message:    message,
		Paths:      paths,
	}
}

// Add appends revisions to the history.
func (a *Adapter) Add(revs ...scm.Revision) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revisions = append(a.revisions, revs...)
}

// FailAfter makes Changesets yield err after n revisions.
func (a *Adapter) FailAfter(n int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failAt = n
	a.failErr = err
}

// SetFile sets the content of path.
func (a *Adapter) SetFile(path, content string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[strings.TrimPrefix(path, "/")] = content
}

// SetRefs sets the branches and tags.
func (a *Adapter) SetRefs(branches, tags []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.branches = slices.Clone(branches)
	a.tags = slices.Clone(tags)
}

// DisableCat turns the cat capability off.
func (a *Adapter) DisableCat() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.noCat = true
}

// Constructions returns how many times the adapter was constructed
// through Register.
func (a *Adapter) Constructions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Register makes registry return a for kind.
func Register(registry *scm.Registry, kind scm.Kind, a *Adapter) {
	registry.Register(kind, func(context.Context, scm.Source) (scm.Adapter, error) {
		a.mu.Lock()
		a.calls++
		a.mu.Unlock()
		return a, nil
	})
}

// RegisterUnavailable makes every construction of kind fail.
func RegisterUnavailable(registry *scm.Registry, kind scm.Kind) {
	registry.Register(kind, func(context.Context, scm.Source) (scm.Adapter, error) {
		return nil, scm.ErrAdapterUnavailable
	})
}

// RootURL implements scm.Adapter.
func (a *Adapter) RootURL() string { return a.root }

// Entry implements scm.Adapter.
func (a *Adapter) Entry(_ context.Context, path, _ string) (scm.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	path = strings.Trim(path, "/")
	if content, ok := a.files[path]; ok {
		return scm.Entry{Name: baseName(path), Path: path, Kind: scm.EntryFile, Size: int64(len(content))}, nil
	}
	for name := range a.files {
		if path == "" || strings.HasPrefix(name, path+"/") {
			return scm.Entry{Name: baseName(path), Path: path, Kind: scm.EntryDir}, nil
		}
	}
	return scm.Entry{}, scm.ErrNotFound
}

// Entries implements scm.Adapter. Only files directly under path are listed.
func (a *Adapter) Entries(_ context.Context, path, _ string) ([]scm.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	prefix := strings.Trim(path, "/")
	if prefix != "" {
		prefix += "/"
	}
	var entries []scm.Entry
	for name, content := range a.files {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		entries = append(entries, scm.Entry{Name: rest, Path: name, Kind: scm.EntryFile, Size: int64(len(content))})
	}
	slices.SortFunc(entries, func(x, y scm.Entry) int { return strings.Compare(x.Path, y.Path) })
	return entries, nil
}

// Cat implements scm.Adapter.
func (a *Adapter) Cat(_ context.Context, path, _ string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	content, ok := a.files[strings.TrimPrefix(path, "/")]
	if !ok {
		return nil, scm.ErrNotFound
	}
	return []byte(content), nil
}

// Annotate implements scm.Adapter.
func (a *Adapter) Annotate(context.Context, string, string) (scm.Annotation, error) {
	return scm.Annotation{}, scm.ErrNotSupported
}

// Diff implements scm.Adapter.
func (a *Adapter) Diff(_ context.Context, path, from, to string) (string, error) {
	return "diff " + from + ".." + to + " " + path + "\n", nil
}

// Branches implements scm.Adapter.
func (a *Adapter) Branches(context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.branches), nil
}

// Tags implements scm.Adapter.
func (a *Adapter) Tags(context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.tags), nil
}

// DefaultBranch implements scm.Adapter.
func (a *Adapter) DefaultBranch(context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.branches) == 0 {
		return "", scm.ErrNotFound
	}
	return a.branches[0], nil
}

// Properties implements scm.Adapter.
func (a *Adapter) Properties(context.Context, string, string) (map[string]string, error) {
	return map[string]string{}, nil
}

// SupportsCat implements scm.Adapter.
func (a *Adapter) SupportsCat() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.noCat
}

// SupportsAnnotate implements scm.Adapter.
func (a *Adapter) SupportsAnnotate() bool { return false }

// Changesets implements scm.Adapter. An unknown since streams the whole
// history.
func (a *Adapter) Changesets(ctx context.Context, since string) iter.Seq2[scm.Revision, error] {
	a.mu.Lock()
	revs := slices.Clone(a.revisions)
	failAt, failErr := a.failAt, a.failErr
	a.mu.Unlock()

	if i := slices.IndexFunc(revs, func(r scm.Revision) bool { return r.Identifier == since }); i >= 0 {
		revs = revs[i+1:]
	}

	return func(yield func(scm.Revision, error) bool) {
		for i, rev := range revs {
			if failErr != nil && i == failAt {
				yield(scm.Revision{}, failErr)
				return
			}
			if err := ctx.Err(); err != nil {
				yield(scm.Revision{}, err)
				return
			}
			if !yield(rev, nil) {
				return
			}
		}
	}
}

func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

var _ scm.Adapter = (*Adapter)(nil)
