package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/domain/scm"
	"github.com/helixml/scmtrack/internal/database"
)

// Facade answers history queries from the local cache and live queries
// from the repository's SCM adapter.
type Facade struct {
	repoStore      repository.RepositoryStore
	changesetStore repository.ChangesetStore
	scms           *scm.Registry
	logger         *slog.Logger

	mu         sync.Mutex
	repo       repository.Repository
	adapter    scm.Adapter
	committers []repository.Committer
}

// NewFacade creates a Facade for repo.
func NewFacade(
	repo repository.Repository,
	repoStore repository.RepositoryStore,
	changesetStore repository.ChangesetStore,
	scms *scm.Registry,
	logger *slog.Logger,
) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	return &Facade{
		repo:           repo,
		repoStore:      repoStore,
		changesetStore: changesetStore,
		scms:           scms,
		logger:         logger,
	}
}

// Repository returns the repository, including a root URL resolved by
// the adapter.
func (f *Facade) Repository() repository.Repository {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.repo
}

// SCMName returns the repository's SCM kind.
func (f *Facade) SCMName() string {
	return f.Repository().Kind()
}

// Adapter returns the repository's SCM adapter, building it on first use.
// A root URL discovered by the adapter is saved onto the repository when
// none was configured.
func (f *Facade) Adapter(ctx context.Context) (scm.Adapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.adapter != nil {
		return f.adapter, nil
	}

	repo := f.repo
	source := scm.NewSource(repo.URL(), repo.RootURL(), repo.Login(), repo.Password())
	adapter, err := f.scms.New(ctx, scm.Kind(repo.Kind()), source)
	if err != nil {
		return nil, fmt.Errorf("repository %d: %w", repo.ID(), err)
	}

	if !repo.HasRootURL() && adapter.RootURL() != "" {
		saved, err := f.repoStore.Save(ctx, repo.WithRootURL(adapter.RootURL()))
		if err != nil {
			f.logger.Warn("failed to save root url",
				slog.Int64("repository_id", repo.ID()),
				slog.String("error", err.Error()),
			)
		} else {
			f.repo = saved
		}
	}

	f.adapter = adapter
	return adapter, nil
}

// SupportsCat reports whether the adapter can return file contents.
func (f *Facade) SupportsCat(ctx context.Context) bool {
	a, err := f.Adapter(ctx)
	return err == nil && a.SupportsCat()
}

// SupportsAnnotate reports whether the adapter can annotate files.
func (f *Facade) SupportsAnnotate(ctx context.Context) bool {
	a, err := f.Adapter(ctx)
	return err == nil && a.SupportsAnnotate()
}

// Entry returns the entry at path for revision.
func (f *Facade) Entry(ctx context.Context, path, revision string) (scm.Entry, error) {
	a, err := f.Adapter(ctx)
	if err != nil {
		return scm.Entry{}, err
	}
	entry, err := a.Entry(ctx, path, revision)
	return entry, scm.NewAdapterError("entry", err)
}

// Entries lists the directory at path for revision.
func (f *Facade) Entries(ctx context.Context, path, revision string) ([]scm.Entry, error) {
	a, err := f.Adapter(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := a.Entries(ctx, path, revision)
	return entries, scm.NewAdapterError("entries", err)
}

// Cat returns the content of the file at path for revision.
func (f *Facade) Cat(ctx context.Context, path, revision string) ([]byte, error) {
	a, err := f.Adapter(ctx)
	if err != nil {
		return nil, err
	}
	if !a.SupportsCat() {
		return nil, scm.NewAdapterError("cat", scm.ErrNotSupported)
	}
	content, err := a.Cat(ctx, path, revision)
	return content, scm.NewAdapterError("cat", err)
}

// Annotate returns the blame of the file at path for revision.
func (f *Facade) Annotate(ctx context.Context, path, revision string) (scm.Annotation, error) {
	a, err := f.Adapter(ctx)
	if err != nil {
		return scm.Annotation{}, err
	}
	if !a.SupportsAnnotate() {
		return scm.Annotation{}, scm.NewAdapterError("annotate", scm.ErrNotSupported)
	}
	annotation, err := a.Annotate(ctx, path, revision)
	return annotation, scm.NewAdapterError("annotate", err)
}

// Diff returns a unified diff of path between two revisions.
func (f *Facade) Diff(ctx context.Context, path, from, to string) (string, error) {
	a, err := f.Adapter(ctx)
	if err != nil {
		return "", err
	}
	diff, err := a.Diff(ctx, path, from, to)
	return diff, scm.NewAdapterError("diff", err)
}

// Branches lists the repository branches.
func (f *Facade) Branches(ctx context.Context) ([]string, error) {
	a, err := f.Adapter(ctx)
	if err != nil {
		return nil, err
	}
	branches, err := a.Branches(ctx)
	return branches, scm.NewAdapterError("branches", err)
}

// Tags lists the repository tags.
func (f *Facade) Tags(ctx context.Context) ([]string, error) {
	a, err := f.Adapter(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := a.Tags(ctx)
	return tags, scm.NewAdapterError("tags", err)
}

// DefaultBranch returns the repository's default branch.
func (f *Facade) DefaultBranch(ctx context.Context) (string, error) {
	a, err := f.Adapter(ctx)
	if err != nil {
		return "", err
	}
	branch, err := a.DefaultBranch(ctx)
	return branch, scm.NewAdapterError("default branch", err)
}

// Properties returns SCM metadata for path at revision.
func (f *Facade) Properties(ctx context.Context, path, revision string) (map[string]string, error) {
	a, err := f.Adapter(ctx)
	if err != nil {
		return nil, err
	}
	props, err := a.Properties(ctx, path, revision)
	return props, scm.NewAdapterError("properties", err)
}

// DefaultLatestLimit is the number of changesets LatestChangesets returns
// when limit is not positive.
const DefaultLatestLimit = 10

// LatestChangesets returns up to limit cached changesets, newest first.
// A non-empty path restricts the result to changesets with a change at
// that path. The revision is accepted for adapters that scope history by
// branch; the cache does not.
func (f *Facade) LatestChangesets(ctx context.Context, path, revision string, limit int) ([]repository.Changeset, error) {
	_ = revision

	options := []repository.Option{repository.WithRepositoryID(f.Repository().ID())}
	if path != "" {
		options = append(options, repository.WithChangedPath(path))
	}
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	options = append(options, repository.WithCanonicalOrder()...)
	options = append(options, repository.WithLimit(limit))

	changesets, err := f.changesetStore.Find(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("latest changesets: %w", err)
	}
	return changesets, nil
}

// LatestChangeset returns the newest cached changeset.
func (f *Facade) LatestChangeset(ctx context.Context) (repository.Changeset, error) {
	options := append(
		[]repository.Option{repository.WithRepositoryID(f.Repository().ID())},
		repository.WithCanonicalOrder()...,
	)
	return f.changesetStore.FindOne(ctx, options...)
}

// FindChangesetByName returns the changeset a user-supplied revision name
// denotes. All-digit names must match exactly; other names may be
// abbreviated.
func (f *Facade) FindChangesetByName(ctx context.Context, name string) (repository.Changeset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return repository.Changeset{}, fmt.Errorf("%w: changeset", database.ErrNotFound)
	}

	match := repository.WithRevisionPrefix(name)
	if isDigits(name) {
		match = repository.WithRevision(name)
	}
	options := append(
		[]repository.Option{repository.WithRepositoryID(f.Repository().ID()), match},
		repository.WithCanonicalOrder()...,
	)
	return f.changesetStore.FindOne(ctx, options...)
}

// Committers returns the distinct committers of the repository with the
// user each is attributed to. The result is memoized until
// InvalidateCommitters.
func (f *Facade) Committers(ctx context.Context) ([]repository.Committer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.committers == nil {
		committers, err := f.changesetStore.Committers(ctx, f.repo.ID())
		if err != nil {
			return nil, err
		}
		if committers == nil {
			committers = []repository.Committer{}
		}
		f.committers = committers
	}

	out := make([]repository.Committer, len(f.committers))
	copy(out, f.committers)
	return out, nil
}

// InvalidateCommitters drops the memoized committers.
func (f *Facade) InvalidateCommitters() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committers = nil
}

// SetCommitterIDs reassigns changesets to users by committer. mapping
// maps a committer string to a user ID; a non-positive ID clears the
// attribution and committers missing from it are left alone. It returns
// false and changes nothing when mapping is not a map of committer to ID.
func (f *Facade) SetCommitterIDs(ctx context.Context, mapping any) (bool, error) {
	ids, ok := committerIDs(mapping)
	if !ok {
		return false, nil
	}

	committers, err := f.Committers(ctx)
	if err != nil {
		return false, err
	}
	defer f.InvalidateCommitters()

	repoID := f.Repository().ID()
	done := make(map[string]bool)
	for _, c := range committers {
		if done[c.Name()] {
			continue
		}
		id, present := ids[c.Name()]
		if !present {
			continue
		}
		want := max(id, 0)
		if want == c.UserID() {
			continue
		}
		done[c.Name()] = true

		n, err := f.changesetStore.AssignUser(ctx, repoID, c.Name(), want)
		if err != nil {
			return false, fmt.Errorf("assign committer %q: %w", c.Name(), err)
		}
		f.logger.Debug("committer reassigned",
			slog.Int64("repository_id", repoID),
			slog.String("committer", c.Name()),
			slog.Int64("user_id", want),
			slog.Int64("changesets", n),
		)
	}
	return true, nil
}

// RelativePath strips the part of the repository URL below its root from
// path. Repositories configured at their root return path unchanged.
func (f *Facade) RelativePath(path string) string {
	repo := f.Repository()
	root, url := repo.RootURL(), repo.URL()
	if root == "" || root == url {
		return path
	}

	sub, ok := strings.CutPrefix(url, root)
	if !ok {
		return path
	}
	sub = strings.Trim(sub, "/")
	if sub == "" {
		return path
	}

	rest, ok := strings.CutPrefix(strings.TrimPrefix(path, "/"), sub)
	if !ok || (rest != "" && rest[0] != '/') {
		return path
	}
	return rest
}

// committerIDs converts a committer mapping into user IDs. Values may be
// integers, whole floats, json.Number, numeric strings or nil.
func committerIDs(mapping any) (map[string]int64, bool) {
	switch m := mapping.(type) {
	case map[string]int64:
		out := make(map[string]int64, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	case map[string]int:
		out := make(map[string]int64, len(m))
		for k, v := range m {
			out[k] = int64(v)
		}
		return out, true
	case map[string]any:
		out := make(map[string]int64, len(m))
		for k, v := range m {
			id, ok := toID(v)
			if !ok {
				return nil, false
			}
			out[k] = id
		}
		return out, true
	default:
		return nil, false
	}
}

func toID(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		id, err := n.Int64()
		return id, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		id, err := strconv.ParseInt(s, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
