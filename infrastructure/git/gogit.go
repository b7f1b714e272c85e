// Package git implements the scm.Adapter for git repositories using go-git.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"path"
	"slices"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/helixml/scmtrack/domain/scm"
)

// GoGitAdapter implements scm.Adapter on top of an opened go-git repository.
type GoGitAdapter struct {
	repo    *gogit.Repository
	rootURL string
	logger  *slog.Logger
}

// NewGoGitAdapter wraps an opened repository.
func NewGoGitAdapter(repo *gogit.Repository, rootURL string, logger *slog.Logger) *GoGitAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoGitAdapter{repo: repo, rootURL: rootURL, logger: logger}
}

// NewConstructor returns an scm.Constructor that opens sources through m.
func NewConstructor(m Mirror, logger *slog.Logger) scm.Constructor {
	return func(ctx context.Context, source scm.Source) (scm.Adapter, error) {
		repo, root, err := m.Open(ctx, source)
		if err != nil {
			return nil, err
		}
		return NewGoGitAdapter(repo, root, logger), nil
	}
}

// Register adds the git kind to registry.
func Register(registry *scm.Registry, m Mirror, logger *slog.Logger) {
	registry.Register(scm.KindGit, NewConstructor(m, logger))
}

// RootURL returns the repository root.
func (g *GoGitAdapter) RootURL() string { return g.rootURL }

// SupportsCat reports true.
func (g *GoGitAdapter) SupportsCat() bool { return true }

// SupportsAnnotate reports true.
func (g *GoGitAdapter) SupportsAnnotate() bool { return true }

// Entry returns the file or directory at p.
func (g *GoGitAdapter) Entry(ctx context.Context, p, revision string) (scm.Entry, error) {
	commit, err := g.commit(revision)
	if err != nil {
		return scm.Entry{}, err
	}

	p = cleanPath(p)
	if p == "" {
		return scm.Entry{Name: "", Path: "", Kind: scm.EntryDir, LastRevision: commit.Hash.String()}, nil
	}

	tree, err := commit.Tree()
	if err != nil {
		return scm.Entry{}, fmt.Errorf("get tree: %w", err)
	}
	te, err := tree.FindEntry(p)
	if err != nil {
		return scm.Entry{}, notFound(err, p)
	}

	entry, err := g.toEntry(path.Dir(p), te)
	if err != nil {
		return scm.Entry{}, err
	}
	entry.LastRevision = g.lastRevision(ctx, commit, p)
	return entry, nil
}

// Entries lists the directory at p, directories first.
func (g *GoGitAdapter) Entries(_ context.Context, p, revision string) ([]scm.Entry, error) {
	commit, err := g.commit(revision)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}

	p = cleanPath(p)
	if p != "" {
		tree, err = tree.Tree(p)
		if err != nil {
			return nil, notFound(err, p)
		}
	}

	entries := make([]scm.Entry, 0, len(tree.Entries))
	for i := range tree.Entries {
		entry, err := g.toEntry(p, &tree.Entries[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b scm.Entry) int {
		if a.IsDir() != b.IsDir() {
			if a.IsDir() {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return entries, nil
}

// Cat returns the content of the file at p.
func (g *GoGitAdapter) Cat(_ context.Context, p, revision string) ([]byte, error) {
	commit, err := g.commit(revision)
	if err != nil {
		return nil, err
	}

	file, err := commit.File(cleanPath(p))
	if err != nil {
		return nil, notFound(err, p)
	}

	r, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = r.Close() }()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return content, nil
}

// Annotate returns blame for the file at p.
func (g *GoGitAdapter) Annotate(_ context.Context, p, revision string) (scm.Annotation, error) {
	commit, err := g.commit(revision)
	if err != nil {
		return scm.Annotation{}, err
	}

	blame, err := gogit.Blame(commit, cleanPath(p))
	if err != nil {
		return scm.Annotation{}, notFound(err, p)
	}

	lines := make([]scm.AnnotatedLine, len(blame.Lines))
	for i, l := range blame.Lines {
		author := l.AuthorName
		if author == "" {
			author = l.Author
		}
		lines[i] = scm.AnnotatedLine{
			Revision: l.Hash.String(),
			Author:   author,
			Line:     l.Text,
		}
	}
	return scm.Annotation{Lines: lines}, nil
}

// Diff returns a unified diff between from and to, limited to p when set.
func (g *GoGitAdapter) Diff(ctx context.Context, p, from, to string) (string, error) {
	toCommit, err := g.commit(to)
	if err != nil {
		return "", err
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return "", fmt.Errorf("get tree: %w", err)
	}

	fromTree := &object.Tree{}
	switch {
	case from != "":
		fromCommit, err := g.commit(from)
		if err != nil {
			return "", err
		}
		if fromTree, err = fromCommit.Tree(); err != nil {
			return "", fmt.Errorf("get tree: %w", err)
		}
	case toCommit.NumParents() > 0:
		parent, err := toCommit.Parent(0)
		if err != nil {
			return "", fmt.Errorf("get parent commit: %w", err)
		}
		if fromTree, err = parent.Tree(); err != nil {
			return "", fmt.Errorf("get parent tree: %w", err)
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, fromTree, toTree, nil)
	if err != nil {
		return "", fmt.Errorf("compute diff: %w", err)
	}

	if p = cleanPath(p); p != "" {
		changes = slices.DeleteFunc(changes, func(c *object.Change) bool {
			return !underPath(c.From.Name, p) && !underPath(c.To.Name, p)
		})
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return "", fmt.Errorf("get patch: %w", err)
	}
	return patch.String(), nil
}

// Branches returns local and origin branch names, sorted and deduplicated.
func (g *GoGitAdapter) Branches(_ context.Context) ([]string, error) {
	refs, err := g.repo.References()
	if err != nil {
		return nil, fmt.Errorf("get references: %w", err)
	}
	defer refs.Close()

	var names []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		switch {
		case name.IsBranch():
			names = append(names, name.Short())
		case name.IsRemote():
			short, ok := strings.CutPrefix(name.Short(), "origin/")
			if ok && short != "HEAD" {
				names = append(names, short)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate references: %w", err)
	}

	slices.Sort(names)
	return slices.Compact(names), nil
}

// Tags returns tag names, sorted.
func (g *GoGitAdapter) Tags(_ context.Context) ([]string, error) {
	refs, err := g.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("get tags: %w", err)
	}
	defer refs.Close()

	var tags []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	slices.Sort(tags)
	return tags, nil
}

// DefaultBranch returns the default branch name with fallback strategies.
func (g *GoGitAdapter) DefaultBranch(ctx context.Context) (string, error) {
	// HEAD of a mirror or a checkout.
	if ref, err := g.repo.Reference(plumbing.HEAD, false); err == nil && ref.Type() == plumbing.SymbolicReference {
		if _, err := g.repo.Reference(ref.Target(), true); err == nil {
			return ref.Target().Short(), nil
		}
	}

	if ref, err := g.repo.Reference(plumbing.NewRemoteReferenceName("origin", "HEAD"), false); err == nil && ref.Type() == plumbing.SymbolicReference {
		return strings.TrimPrefix(ref.Target().Short(), "origin/"), nil
	}

	for _, candidate := range []string{"main", "master"} {
		if _, err := g.findBranchRef(candidate); err == nil {
			return candidate, nil
		}
	}

	branches, err := g.Branches(ctx)
	if err != nil {
		return "", err
	}
	if len(branches) == 0 {
		return "", fmt.Errorf("%w: no branches", scm.ErrNotFound)
	}
	return branches[0], nil
}

// Properties returns no properties; git has no per-path metadata.
func (g *GoGitAdapter) Properties(_ context.Context, _, _ string) (map[string]string, error) {
	return map[string]string{}, nil
}

// Changesets streams commits reachable from any reference that are not
// ancestors of since, oldest first.
func (g *GoGitAdapter) Changesets(ctx context.Context, since string) iter.Seq2[scm.Revision, error] {
	return func(yield func(scm.Revision, error) bool) {
		known, err := g.ancestors(since)
		if err != nil {
			yield(scm.Revision{}, err)
			return
		}

		branches, err := g.Branches(ctx)
		if err != nil {
			yield(scm.Revision{}, err)
			return
		}
		if len(branches) == 0 {
			return
		}

		log, err := g.repo.Log(&gogit.LogOptions{All: true, Order: gogit.LogOrderCommitterTime})
		if err != nil {
			yield(scm.Revision{}, fmt.Errorf("get commit log: %w", err))
			return
		}

		var pending []*object.Commit
		err = log.ForEach(func(c *object.Commit) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !known[c.Hash] {
				pending = append(pending, c)
			}
			return nil
		})
		log.Close()
		if err != nil {
			yield(scm.Revision{}, fmt.Errorf("iterate commits: %w", err))
			return
		}

		for _, c := range slices.Backward(pending) {
			if err := ctx.Err(); err != nil {
				yield(scm.Revision{}, err)
				return
			}
			rev, err := g.toRevision(ctx, c)
			if !yield(rev, err) || err != nil {
				return
			}
		}
	}
}

// ancestors returns since and every commit reachable from it. An unknown
// since yields an empty set so the whole history is streamed again.
func (g *GoGitAdapter) ancestors(since string) (map[plumbing.Hash]bool, error) {
	known := make(map[plumbing.Hash]bool)
	if since == "" {
		return known, nil
	}

	start, err := g.repo.CommitObject(plumbing.NewHash(since))
	if err != nil {
		g.logger.Warn("last known revision not found, reading full history", slog.String("revision", since))
		return known, nil
	}

	walker := object.NewCommitPreorderIter(start, nil, nil)
	defer walker.Close()
	err = walker.ForEach(func(c *object.Commit) error {
		known[c.Hash] = true
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("walk history of %s: %w", since, err)
	}
	return known, nil
}

func (g *GoGitAdapter) toRevision(ctx context.Context, c *object.Commit) (scm.Revision, error) {
	parents := make([]string, len(c.ParentHashes))
	for i, h := range c.ParentHashes {
		parents[i] = h.String()
	}

	paths, err := g.pathChanges(ctx, c)
	if err != nil {
		return scm.Revision{}, fmt.Errorf("changes of %s: %w", c.Hash, err)
	}

	return scm.Revision{
		Identifier: c.Hash.String(),
		Author:     fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
		Time:       c.Committer.When,
		Message:    strings.TrimRight(c.Message, "\n"),
		Parents:    parents,
		Paths:      paths,
	}, nil
}

func (g *GoGitAdapter) pathChanges(ctx context.Context, c *object.Commit) ([]scm.PathChange, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	parentTree := &object.Tree{}
	var parentHash string
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, err
		}
		parentHash = parent.Hash.String()
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, err
	}

	paths := make([]scm.PathChange, 0, len(changes))
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			return nil, err
		}
		switch action {
		case merkletrie.Insert:
			paths = append(paths, scm.PathChange{Action: "A", Path: ch.To.Name})
		case merkletrie.Delete:
			paths = append(paths, scm.PathChange{Action: "D", Path: ch.From.Name})
		case merkletrie.Modify:
			if ch.From.Name != ch.To.Name {
				paths = append(paths, scm.PathChange{Action: "R", Path: ch.To.Name, FromPath: ch.From.Name, FromRevision: parentHash})
				continue
			}
			paths = append(paths, scm.PathChange{Action: "M", Path: ch.To.Name})
		}
	}
	return paths, nil
}

func (g *GoGitAdapter) commit(revision string) (*object.Commit, error) {
	if revision == "" {
		revision = "HEAD"
		// A fresh mirror's HEAD may name a branch the remote does not have.
		if _, err := g.repo.Head(); err != nil {
			if def, err := g.DefaultBranch(context.Background()); err == nil {
				revision = def
			}
		}
	}
	hash, err := g.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("%w: revision %s", scm.ErrNotFound, revision)
	}
	commit, err := g.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("get commit %s: %w", revision, err)
	}
	return commit, nil
}

func (g *GoGitAdapter) toEntry(dir string, te *object.TreeEntry) (scm.Entry, error) {
	entry := scm.Entry{
		Name: te.Name,
		Path: path.Join(dir, te.Name),
		Kind: scm.EntryFile,
	}

	switch te.Mode {
	case filemode.Dir:
		entry.Kind = scm.EntryDir
	case filemode.Submodule:
	default:
		blob, err := g.repo.BlobObject(te.Hash)
		if err != nil {
			return scm.Entry{}, fmt.Errorf("get blob %s: %w", te.Name, err)
		}
		entry.Size = blob.Size
	}
	return entry, nil
}

func (g *GoGitAdapter) lastRevision(ctx context.Context, from *object.Commit, p string) string {
	log, err := g.repo.Log(&gogit.LogOptions{From: from.Hash, FileName: &p})
	if err != nil {
		return ""
	}
	defer log.Close()

	c, err := log.Next()
	if err != nil || ctx.Err() != nil {
		return ""
	}
	return c.Hash.String()
}

func (g *GoGitAdapter) findBranchRef(name string) (*plumbing.Reference, error) {
	ref, err := g.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err == nil {
		return ref, nil
	}
	ref, err = g.repo.Reference(plumbing.NewRemoteReferenceName("origin", name), true)
	if err == nil {
		return ref, nil
	}
	return nil, fmt.Errorf("%w: branch %s", scm.ErrNotFound, name)
}

func cleanPath(p string) string {
	return strings.Trim(path.Clean("/"+p), "/")
}

func underPath(name, p string) bool {
	return name == p || strings.HasPrefix(name, p+"/")
}

func notFound(err error, p string) error {
	if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrDirectoryNotFound) || errors.Is(err, object.ErrEntryNotFound) {
		return fmt.Errorf("%w: %s", scm.ErrNotFound, p)
	}
	return err
}

var _ scm.Adapter = (*GoGitAdapter)(nil)
