// Package github implements the scm.Adapter for repositories hosted on
// GitHub or GitHub Enterprise, using the REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"github.com/google/go-github/v62/github"
	"github.com/helixml/scmtrack/domain/scm"
	"github.com/helixml/scmtrack/internal/config"
	"golang.org/x/oauth2"
)

const perPage = 100

var repoPath = regexp.MustCompile(`([^/:]+)/([^/]+?)(?:\.git)?/?$`)

// Adapter implements scm.Adapter against one GitHub repository.
type Adapter struct {
	gh            *github.Client
	owner         string
	name          string
	rootURL       string
	defaultBranch string
	logger        *slog.Logger
}

// Option customises how adapters are built.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient sets the transport used for API calls. The token, if
// any, is layered on top of it.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// Register adds the github kind to registry.
func Register(registry *scm.Registry, cfg config.GitHubConfig, logger *slog.Logger, opts ...Option) {
	registry.Register(scm.KindGitHub, NewConstructor(cfg, logger, opts...))
}

// NewConstructor returns an scm.Constructor for GitHub sources. A
// per-repository password takes precedence over the configured token.
func NewConstructor(cfg config.GitHubConfig, logger *slog.Logger, opts ...Option) scm.Constructor {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, source scm.Source) (scm.Adapter, error) {
		owner, name, err := ParseRepository(source.URL())
		if err != nil {
			return nil, err
		}

		token := cfg.Token()
		if source.Password() != "" {
			token = source.Password()
		}

		gh, err := newClient(ctx, o.httpClient, token, cfg.BaseURL())
		if err != nil {
			return nil, err
		}

		repo, _, err := gh.Repositories.Get(ctx, owner, name)
		if err != nil {
			return nil, fmt.Errorf("%w: github %s/%s: %w", scm.ErrAdapterUnavailable, owner, name, err)
		}

		root := source.RootURL()
		if root == "" {
			root = repo.GetHTMLURL()
		}
		return &Adapter{
			gh:            gh,
			owner:         owner,
			name:          name,
			rootURL:       root,
			defaultBranch: repo.GetDefaultBranch(),
			logger:        logger,
		}, nil
	}
}

func newClient(ctx context.Context, base *http.Client, token, baseURL string) (*github.Client, error) {
	httpClient := base
	if token != "" {
		if base != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		}
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	gh := github.NewClient(httpClient)
	if baseURL == "" {
		return gh, nil
	}
	gh, err := gh.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("github base url: %w", err)
	}
	return gh, nil
}

// ParseRepository extracts owner and name from a GitHub URL, an scp-style
// remote, or a bare "owner/name".
func ParseRepository(url string) (string, string, error) {
	m := repoPath.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return "", "", fmt.Errorf("%w: not a github repository: %q", scm.ErrAdapterUnavailable, url)
	}
	return m[1], m[2], nil
}

// RootURL returns the repository's web URL.
func (a *Adapter) RootURL() string { return a.rootURL }

// SupportsCat reports true.
func (a *Adapter) SupportsCat() bool { return true }

// SupportsAnnotate reports false; the REST API has no blame endpoint.
func (a *Adapter) SupportsAnnotate() bool { return false }

// Entry returns the file or directory at path.
func (a *Adapter) Entry(ctx context.Context, path, revision string) (scm.Entry, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return scm.Entry{Kind: scm.EntryDir}, nil
	}

	file, dir, resp, err := a.gh.Repositories.GetContents(ctx, a.owner, a.name, path, a.ref(revision))
	if err != nil {
		return scm.Entry{}, mapError(resp, err, path)
	}
	if file != nil {
		return toEntry(file), nil
	}
	if dir != nil {
		return scm.Entry{Name: path[strings.LastIndex(path, "/")+1:], Path: path, Kind: scm.EntryDir}, nil
	}
	return scm.Entry{}, fmt.Errorf("%w: %s", scm.ErrNotFound, path)
}

// Entries lists the directory at path, directories first.
func (a *Adapter) Entries(ctx context.Context, path, revision string) ([]scm.Entry, error) {
	path = strings.Trim(path, "/")
	file, dir, resp, err := a.gh.Repositories.GetContents(ctx, a.owner, a.name, path, a.ref(revision))
	if err != nil {
		return nil, mapError(resp, err, path)
	}
	if file != nil {
		return nil, fmt.Errorf("%w: %s is not a directory", scm.ErrNotFound, path)
	}

	entries := make([]scm.Entry, 0, len(dir))
	for _, c := range dir {
		entries = append(entries, toEntry(c))
	}
	slices.SortFunc(entries, func(x, y scm.Entry) int {
		if x.IsDir() != y.IsDir() {
			if x.IsDir() {
				return -1
			}
			return 1
		}
		return strings.Compare(x.Name, y.Name)
	})
	return entries, nil
}

// Cat returns the content of the file at path.
func (a *Adapter) Cat(ctx context.Context, path, revision string) ([]byte, error) {
	path = strings.Trim(path, "/")
	file, _, resp, err := a.gh.Repositories.GetContents(ctx, a.owner, a.name, path, a.ref(revision))
	if err != nil {
		return nil, mapError(resp, err, path)
	}
	if file == nil {
		return nil, fmt.Errorf("%w: %s is a directory", scm.ErrNotFound, path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return []byte(content), nil
}

// Annotate is not supported.
func (a *Adapter) Annotate(_ context.Context, path, _ string) (scm.Annotation, error) {
	return scm.Annotation{}, fmt.Errorf("%w: annotate %s", scm.ErrNotSupported, path)
}

// Diff renders the file patches between from and to as a unified diff.
// An empty from diffs to against its first parent.
func (a *Adapter) Diff(ctx context.Context, path, from, to string) (string, error) {
	if to == "" {
		to = a.defaultBranch
	}

	var files []*github.CommitFile
	if from == "" {
		commit, resp, err := a.gh.Repositories.GetCommit(ctx, a.owner, a.name, to, nil)
		if err != nil {
			return "", mapError(resp, err, to)
		}
		files = commit.Files
	} else {
		cmp, resp, err := a.gh.Repositories.CompareCommits(ctx, a.owner, a.name, from, to, nil)
		if err != nil {
			return "", mapError(resp, err, from+"..."+to)
		}
		files = cmp.Files
	}

	path = strings.Trim(path, "/")
	var b strings.Builder
	for _, f := range files {
		name := f.GetFilename()
		if path != "" && name != path && !strings.HasPrefix(name, path+"/") {
			continue
		}
		if f.GetPatch() == "" {
			continue
		}
		old := f.GetPreviousFilename()
		if old == "" {
			old = name
		}
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n--- a/%s\n+++ b/%s\n%s\n", old, name, old, name, strings.TrimRight(f.GetPatch(), "\n"))
	}
	return b.String(), nil
}

// Branches returns every branch name, sorted.
func (a *Adapter) Branches(ctx context.Context) ([]string, error) {
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: perPage}}
	var names []string
	for {
		branches, resp, err := a.gh.Repositories.ListBranches(ctx, a.owner, a.name, opts)
		if err != nil {
			return nil, mapError(resp, err, "branches")
		}
		for _, b := range branches {
			names = append(names, b.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	slices.Sort(names)
	return names, nil
}

// Tags returns every tag name, sorted.
func (a *Adapter) Tags(ctx context.Context) ([]string, error) {
	opts := &github.ListOptions{PerPage: perPage}
	var names []string
	for {
		tags, resp, err := a.gh.Repositories.ListTags(ctx, a.owner, a.name, opts)
		if err != nil {
			return nil, mapError(resp, err, "tags")
		}
		for _, t := range tags {
			names = append(names, t.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	slices.Sort(names)
	return names, nil
}

// DefaultBranch returns the branch GitHub reports as default.
func (a *Adapter) DefaultBranch(_ context.Context) (string, error) {
	if a.defaultBranch == "" {
		return "", fmt.Errorf("%w: default branch", scm.ErrNotFound)
	}
	return a.defaultBranch, nil
}

// Properties returns no properties.
func (a *Adapter) Properties(_ context.Context, _, _ string) (map[string]string, error) {
	return map[string]string{}, nil
}

// Changesets streams commits of the default branch newer than since,
// oldest first. Listing stops at since; an unknown since streams the
// whole branch.
func (a *Adapter) Changesets(ctx context.Context, since string) iter.Seq2[scm.Revision, error] {
	return func(yield func(scm.Revision, error) bool) {
		shas, err := a.newCommits(ctx, since)
		if err != nil {
			yield(scm.Revision{}, err)
			return
		}

		for _, sha := range slices.Backward(shas) {
			commit, resp, err := a.gh.Repositories.GetCommit(ctx, a.owner, a.name, sha, nil)
			if err != nil {
				yield(scm.Revision{}, mapError(resp, err, sha))
				return
			}
			if !yield(toRevision(commit), nil) {
				return
			}
		}
	}
}

// newCommits lists commit SHAs newest first until since is reached.
func (a *Adapter) newCommits(ctx context.Context, since string) ([]string, error) {
	opts := &github.CommitsListOptions{
		SHA:         a.defaultBranch,
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var shas []string
	for {
		a.logger.Debug("listing commits", slog.String("repository", a.owner+"/"+a.name), slog.Int("page", opts.Page))
		commits, resp, err := a.gh.Repositories.ListCommits(ctx, a.owner, a.name, opts)
		if err != nil {
			if statusCode(resp) == http.StatusConflict {
				// Empty repository.
				return nil, nil
			}
			return nil, mapError(resp, err, "commits")
		}
		for _, c := range commits {
			if since != "" && c.GetSHA() == since {
				return shas, nil
			}
			shas = append(shas, c.GetSHA())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if since != "" {
		a.logger.Warn("last known revision not on default branch, reading full history", slog.String("revision", since))
	}
	return shas, nil
}

func (a *Adapter) ref(revision string) *github.RepositoryContentGetOptions {
	if revision == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: revision}
}

func toEntry(c *github.RepositoryContent) scm.Entry {
	kind := scm.EntryFile
	if c.GetType() == "dir" {
		kind = scm.EntryDir
	}
	return scm.Entry{
		Name: c.GetName(),
		Path: c.GetPath(),
		Kind: kind,
		Size: int64(c.GetSize()),
	}
}

func toRevision(c *github.RepositoryCommit) scm.Revision {
	author := c.GetCommit().GetAuthor()
	parents := make([]string, len(c.Parents))
	for i, p := range c.Parents {
		parents[i] = p.GetSHA()
	}

	paths := make([]scm.PathChange, 0, len(c.Files))
	for _, f := range c.Files {
		change := scm.PathChange{Action: fileAction(f.GetStatus()), Path: f.GetFilename()}
		if change.Action == "R" || change.Action == "C" {
			change.FromPath = f.GetPreviousFilename()
			if len(parents) > 0 {
				change.FromRevision = parents[0]
			}
		}
		paths = append(paths, change)
	}

	return scm.Revision{
		Identifier: c.GetSHA(),
		Author:     fmt.Sprintf("%s <%s>", author.GetName(), author.GetEmail()),
		Time:       c.GetCommit().GetCommitter().GetDate().Time,
		Message:    strings.TrimRight(c.GetCommit().GetMessage(), "\n"),
		Parents:    parents,
		Paths:      paths,
	}
}

func fileAction(status string) string {
	switch status {
	case "added":
		return "A"
	case "removed":
		return "D"
	case "renamed":
		return "R"
	case "copied":
		return "C"
	default:
		return "M"
	}
}

func mapError(resp *github.Response, err error, what string) error {
	if statusCode(resp) == http.StatusNotFound {
		return fmt.Errorf("%w: %s", scm.ErrNotFound, what)
	}
	var rate *github.RateLimitError
	if errors.As(err, &rate) {
		return fmt.Errorf("%w: %w", scm.ErrAdapterUnavailable, err)
	}
	return err
}

func statusCode(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

var _ scm.Adapter = (*Adapter)(nil)
