package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/domain/user"
	"github.com/helixml/scmtrack/internal/database"
)

// IdentityResolver maps raw committer strings to user accounts.
type IdentityResolver struct {
	changesetStore repository.ChangesetStore
	userStore      user.Store
	logger         *slog.Logger
}

// NewIdentityResolver creates a new IdentityResolver.
func NewIdentityResolver(changesetStore repository.ChangesetStore, userStore user.Store, logger *slog.Logger) *IdentityResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityResolver{
		changesetStore: changesetStore,
		userStore:      userStore,
		logger:         logger,
	}
}

// Resolve returns the user a committer string denotes in a repository.
// A committer already attributed on another changeset of the repository
// resolves to that user. Otherwise the string is parsed as "name <email>"
// and the name is looked up as a login, then the email as a mail address.
// Misses and storage failures both report false.
func (r *IdentityResolver) Resolve(ctx context.Context, repositoryID int64, committer string) (user.User, bool) {
	if committer == "" {
		return user.User{}, false
	}

	cs, err := r.changesetStore.FindOne(ctx,
		repository.WithRepositoryID(repositoryID),
		repository.WithCommitter(committer),
		repository.WithUser(),
	)
	switch {
	case err == nil:
		if u, ok := r.lookup(ctx, "id", func() (user.User, error) { return r.userStore.Get(ctx, cs.UserID()) }); ok {
			return u, true
		}
	case !errors.Is(err, database.ErrNotFound):
		r.logger.Warn("committer lookup failed",
			slog.Int64("repository_id", repositoryID),
			slog.String("committer", committer),
			slog.String("error", err.Error()),
		)
	}

	author := repository.ParseAuthor(committer)
	if author.IsEmpty() {
		return user.User{}, false
	}
	if u, ok := r.lookup(ctx, "login", func() (user.User, error) {
		return r.userStore.FindOne(ctx, user.WithLogin(author.Name()))
	}); ok {
		return u, true
	}
	if !author.HasEmail() {
		return user.User{}, false
	}
	return r.lookup(ctx, "mail", func() (user.User, error) {
		return r.userStore.FindOne(ctx, user.WithMail(author.Email()))
	})
}

func (r *IdentityResolver) lookup(ctx context.Context, by string, find func() (user.User, error)) (user.User, bool) {
	u, err := find()
	if err == nil {
		return u, true
	}
	if !errors.Is(err, database.ErrNotFound) && ctx.Err() == nil {
		r.logger.Warn("user lookup failed", slog.String("by", by), slog.String("error", err.Error()))
	}
	return user.User{}, false
}
