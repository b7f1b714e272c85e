package git

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/helixml/scmtrack/domain/scm"
)

var (
	scpLike = regexp.MustCompile(`^[\w.-]+@[\w.-]+:`)

	mirrorRefSpecs = []config.RefSpec{
		"+refs/heads/*:refs/heads/*",
		"+refs/tags/*:refs/tags/*",
	}
)

// Mirror keeps bare mirrors of remote repositories under a cache
// directory. Local repositories are opened in place.
type Mirror struct {
	dir    string
	logger *slog.Logger
}

// NewMirror creates a Mirror rooted at dir.
func NewMirror(dir string, logger *slog.Logger) Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return Mirror{dir: dir, logger: logger}
}

// PathFor returns the local mirror path for a remote URL.
func (m Mirror) PathFor(url string) string {
	return filepath.Join(m.dir, sanitizeURIForPath(url))
}

// Open returns the repository for source together with its root. Remote
// sources are fetched into their mirror on every open.
func (m Mirror) Open(ctx context.Context, source scm.Source) (*gogit.Repository, string, error) {
	url := source.URL()
	if !isRemote(url) {
		return m.openLocal(strings.TrimPrefix(url, "file://"))
	}

	path := m.PathFor(url)
	auth := basicAuth(source)

	repo, err := gogit.PlainOpen(path)
	switch {
	case err == nil:
		m.logger.Debug("fetching mirror", slog.String("url", url), slog.String("path", path))
	case errors.Is(err, gogit.ErrRepositoryNotExists):
		m.logger.Info("creating mirror", slog.String("url", url), slog.String("path", path))
		if repo, err = m.create(path, url); err != nil {
			return nil, "", err
		}
	default:
		return nil, "", fmt.Errorf("%w: open mirror %s: %w", scm.ErrAdapterUnavailable, path, err)
	}

	err = repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   mirrorRefSpecs,
		Auth:       auth,
		Force:      true,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil, "", fmt.Errorf("%w: fetch %s: %w", scm.ErrAdapterUnavailable, url, err)
	}

	root := source.RootURL()
	if root == "" {
		root = url
	}
	return repo, root, nil
}

// create initialises an empty bare repository whose origin fetches
// branches and tags only.
func (m Mirror) create(path, url string) (*gogit.Repository, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create mirror directory: %w", err)
	}
	repo, err := gogit.PlainInit(path, true)
	if err != nil {
		return nil, fmt.Errorf("init mirror: %w", err)
	}
	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name:  "origin",
		URLs:  []string{url},
		Fetch: mirrorRefSpecs,
	})
	if err != nil {
		_ = os.RemoveAll(path)
		return nil, fmt.Errorf("configure mirror remote: %w", err)
	}
	return repo, nil
}

func (m Mirror) openLocal(path string) (*gogit.Repository, string, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, "", fmt.Errorf("%w: open %s: %w", scm.ErrAdapterUnavailable, path, err)
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return repo, root, nil
}

func isRemote(url string) bool {
	if strings.HasPrefix(url, "file://") {
		return false
	}
	return strings.Contains(url, "://") || scpLike.MatchString(url)
}

func basicAuth(source scm.Source) transport.AuthMethod {
	if !source.HasCredentials() {
		return nil
	}
	return &http.BasicAuth{Username: source.Login(), Password: source.Password()}
}

func sanitizeURIForPath(uri string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '@':
			return '_'
		}
		return r
	}, uri)

	for _, prefix := range []string{"https___", "http___", "ssh___", "git___"} {
		if trimmed, ok := strings.CutPrefix(s, prefix); ok && trimmed != "" {
			s = trimmed
			break
		}
	}

	// Keep clone paths short enough for Windows MAX_PATH.
	const maxLen = 80
	if len(s) > maxLen {
		hash := sha256.Sum256([]byte(uri))
		suffix := hex.EncodeToString(hash[:8])
		s = s[:maxLen-len(suffix)-1] + "-" + suffix
	}
	return s
}
