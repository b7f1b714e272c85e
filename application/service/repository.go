package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/domain/scm"
	"github.com/helixml/scmtrack/internal/config"
)

// RepositoryCreateParams configures a new repository.
type RepositoryCreateParams struct {
	ProjectID int64
	Kind      string
	URL       string
	RootURL   string
	Login     string
	Password  string
}

// RepositoryUpdateParams configures a repository update. Nil fields are
// left unchanged. The kind cannot be changed.
type RepositoryUpdateParams struct {
	URL      *string
	RootURL  *string
	Login    *string
	Password *string
}

// Repositories provides repository management and hands out façades over
// individual repositories.
type Repositories struct {
	repoStore      repository.RepositoryStore
	changesetStore repository.ChangesetStore
	scms           *scm.Registry
	settings       config.Settings
	logger         *slog.Logger
}

// NewRepositories creates a new Repositories service.
func NewRepositories(
	repoStore repository.RepositoryStore,
	changesetStore repository.ChangesetStore,
	scms *scm.Registry,
	settings config.Settings,
	logger *slog.Logger,
) *Repositories {
	return &Repositories{
		repoStore:      repoStore,
		changesetStore: changesetStore,
		scms:           scms,
		settings:       settings,
		logger:         logger,
	}
}

// AvailableKinds returns the SCM kinds that are both enabled in settings
// and registered, in settings order.
func (s *Repositories) AvailableKinds() []scm.Kind {
	var kinds []scm.Kind
	for _, name := range s.settings.EnabledSCM() {
		kind := scm.Kind(name)
		if s.scms.Has(kind) && !slices.Contains(kinds, kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Create validates and stores a new repository. The kind must be
// available at creation time.
func (s *Repositories) Create(ctx context.Context, params RepositoryCreateParams) (repository.Repository, error) {
	repo, err := repository.NewRepository(params.ProjectID, params.Kind, params.URL)
	if err != nil {
		return repository.Repository{}, err
	}
	if !slices.Contains(s.AvailableKinds(), scm.Kind(repo.Kind())) {
		return repository.Repository{}, repository.NewValidationError("kind", "is not included in the list")
	}
	if params.RootURL != "" {
		repo = repo.WithRootURL(params.RootURL)
	}
	if params.Login != "" || params.Password != "" {
		repo = repo.WithCredentials(params.Login, params.Password)
	}

	saved, err := s.repoStore.Save(ctx, repo)
	if err != nil {
		return repository.Repository{}, fmt.Errorf("save repository: %w", err)
	}

	s.logger.Info("repository created",
		slog.Int64("repository_id", saved.ID()),
		slog.String("kind", saved.Kind()),
		slog.String("url", saved.URL()),
	)
	return saved, nil
}

// Get returns a repository by ID.
func (s *Repositories) Get(ctx context.Context, id int64) (repository.Repository, error) {
	return s.repoStore.Get(ctx, id)
}

// List returns repositories matching the given options, oldest first.
func (s *Repositories) List(ctx context.Context, options ...repository.Option) ([]repository.Repository, error) {
	options = append(options, repository.WithOrderAsc("id"))
	return s.repoStore.Find(ctx, options...)
}

// Count returns the number of repositories matching the given options.
func (s *Repositories) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	return s.repoStore.Count(ctx, options...)
}

// Update applies params to a repository. Changing the URL forgets the
// resolved root URL unless a new one is given.
func (s *Repositories) Update(ctx context.Context, id int64, params RepositoryUpdateParams) (repository.Repository, error) {
	repo, err := s.repoStore.Get(ctx, id)
	if err != nil {
		return repository.Repository{}, err
	}

	if params.URL != nil && *params.URL != repo.URL() {
		repo, err = repo.WithURL(*params.URL)
		if err != nil {
			return repository.Repository{}, err
		}
		repo = repo.WithRootURL("")
	}
	if params.RootURL != nil {
		repo = repo.WithRootURL(*params.RootURL)
	}
	if params.Login != nil || params.Password != nil {
		login, password := repo.Login(), repo.Password()
		if params.Login != nil {
			login = *params.Login
		}
		if params.Password != nil {
			password = *params.Password
		}
		repo = repo.WithCredentials(login, password)
	}

	saved, err := s.repoStore.Save(ctx, repo)
	if err != nil {
		return repository.Repository{}, fmt.Errorf("save repository: %w", err)
	}
	return saved, nil
}

// Delete purges a repository's history and then removes the repository.
// An interrupted delete can be re-run.
func (s *Repositories) Delete(ctx context.Context, id int64) error {
	repo, err := s.repoStore.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.changesetStore.Purge(ctx, id); err != nil {
		return fmt.Errorf("purge repository %d: %w", id, err)
	}
	if err := s.repoStore.Delete(ctx, repo); err != nil {
		return fmt.Errorf("delete repository %d: %w", id, err)
	}

	s.logger.Info("repository deleted", slog.Int64("repository_id", id))
	return nil
}

// Facade returns a façade over the repository with the given ID. Each
// façade memoizes its own adapter and committers.
func (s *Repositories) Facade(ctx context.Context, id int64) (*Facade, error) {
	repo, err := s.repoStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewFacade(repo, s.repoStore, s.changesetStore, s.scms, s.logger), nil
}
