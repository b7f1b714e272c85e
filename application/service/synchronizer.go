package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/domain/scm"
	"github.com/helixml/scmtrack/internal/database"
	"golang.org/x/sync/errgroup"
)

// Synchronizer mirrors new changesets from each repository's SCM into the
// local cache and scans them for issue references.
type Synchronizer struct {
	repositories   *Repositories
	changesetStore repository.ChangesetStore
	resolver       *IdentityResolver
	scanner        *Scanner
	workers        int
	logger         *slog.Logger
}

// NewSynchronizer creates a Synchronizer. FetchAll fetches at most workers
// repositories at a time.
func NewSynchronizer(
	repositories *Repositories,
	changesetStore repository.ChangesetStore,
	resolver *IdentityResolver,
	scanner *Scanner,
	workers int,
	logger *slog.Logger,
) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		repositories:   repositories,
		changesetStore: changesetStore,
		resolver:       resolver,
		scanner:        scanner,
		workers:        max(workers, 1),
		logger:         logger,
	}
}

// FetchChangesets stores the changesets committed since the newest cached
// one and scans each for issue references. It returns how many changesets
// were stored. Revisions that are already cached are skipped. A failure
// partway returns a *FetchError; what was stored before it is kept.
func (s *Synchronizer) FetchChangesets(ctx context.Context, repositoryID int64) (int, error) {
	facade, err := s.repositories.Facade(ctx, repositoryID)
	if err != nil {
		return 0, err
	}
	adapter, err := facade.Adapter(ctx)
	if err != nil {
		return 0, err
	}

	var since string
	latest, err := facade.LatestChangeset(ctx)
	switch {
	case err == nil:
		since = latest.Revision()
	case !errors.Is(err, database.ErrNotFound):
		return 0, fmt.Errorf("latest changeset: %w", err)
	}

	repo := facade.Repository()
	users := make(map[string]int64)
	persisted := 0
	for rev, err := range adapter.Changesets(ctx, since) {
		if err != nil {
			return persisted, &FetchError{RepositoryID: repositoryID, Persisted: persisted, Err: err}
		}

		cs, err := s.changesetStore.Save(ctx, s.changeset(ctx, repositoryID, rev, users))
		if errors.Is(err, repository.ErrDuplicateRevision) {
			s.logger.Debug("skipping known revision",
				slog.Int64("repository_id", repositoryID),
				slog.String("revision", rev.Identifier),
			)
			continue
		}
		if err != nil {
			return persisted, &FetchError{RepositoryID: repositoryID, Persisted: persisted, Err: err}
		}
		persisted++

		if _, err := s.scanner.scan(ctx, repo, cs); err != nil {
			s.logger.Warn("changeset scan failed",
				slog.Int64("repository_id", repositoryID),
				slog.String("revision", cs.Revision()),
				slog.String("error", err.Error()),
			)
		}
	}

	if persisted > 0 {
		s.logger.Info("changesets fetched",
			slog.Int64("repository_id", repositoryID),
			slog.Int("count", persisted),
		)
	}
	return persisted, nil
}

// changeset converts an adapter revision, resolving its committer through
// users, a per-fetch memo.
func (s *Synchronizer) changeset(ctx context.Context, repositoryID int64, rev scm.Revision, users map[string]int64) repository.Changeset {
	userID, ok := users[rev.Author]
	if !ok {
		if u, found := s.resolver.Resolve(ctx, repositoryID, rev.Author); found {
			userID = u.ID()
		}
		users[rev.Author] = userID
	}

	changes := make([]repository.Change, 0, len(rev.Paths))
	for _, p := range rev.Paths {
		action := repository.Action(p.Action)
		if !action.Valid() {
			action = repository.ActionModified
		}
		changes = append(changes, repository.NewCopyChange(action, p.Path, p.FromPath, p.FromRevision))
	}

	return repository.NewChangeset(repositoryID, rev.Identifier, rev.Author, rev.Time, rev.Message).
		WithUserID(userID).
		WithChanges(changes)
}

// FetchAll fetches every repository, several at a time. A repository that
// fails does not stop the others; all failures are returned joined.
func (s *Synchronizer) FetchAll(ctx context.Context) (int, error) {
	repos, err := s.repositories.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list repositories: %w", err)
	}

	var (
		mu    sync.Mutex
		total int
		errs  []error
	)
	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, repo := range repos {
		g.Go(func() error {
			n, err := s.FetchChangesets(ctx, repo.ID())
			mu.Lock()
			defer mu.Unlock()
			total += n
			if err != nil {
				s.logger.Error("repository fetch failed",
					slog.Int64("repository_id", repo.ID()),
					slog.String("url", repo.URL()),
					slog.String("error", err.Error()),
				)
				errs = append(errs, fmt.Errorf("repository %d: %w", repo.ID(), err))
			}
			return nil
		})
	}
	_ = g.Wait()

	return total, errors.Join(errs...)
}

// ScanAllForIssueIDs rescans every changeset of every repository.
func (s *Synchronizer) ScanAllForIssueIDs(ctx context.Context) (int, error) {
	repos, err := s.repositories.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list repositories: %w", err)
	}

	total := 0
	var errs []error
	for _, repo := range repos {
		n, err := s.scanner.ScanRepository(ctx, repo.ID(), true)
		total += n
		if err != nil {
			s.logger.Error("repository scan failed",
				slog.Int64("repository_id", repo.ID()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("repository %d: %w", repo.ID(), err))
		}
	}
	return total, errors.Join(errs...)
}

// Purge deletes the cached history of a repository and its issue
// relations. The repository itself is kept. Purging twice is harmless.
func (s *Synchronizer) Purge(ctx context.Context, repositoryID int64) error {
	if err := s.changesetStore.Purge(ctx, repositoryID); err != nil {
		return fmt.Errorf("purge repository %d: %w", repositoryID, err)
	}
	s.logger.Info("repository purged", slog.Int64("repository_id", repositoryID))
	return nil
}

// Delete purges a repository and removes it.
func (s *Synchronizer) Delete(ctx context.Context, repositoryID int64) error {
	return s.repositories.Delete(ctx, repositoryID)
}
