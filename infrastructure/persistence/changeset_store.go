package persistence

import (
	"context"
	"fmt"

	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/internal/database"
	"gorm.io/gorm"
)

const changeBatchSize = 500

// ChangesetStore implements repository.ChangesetStore using GORM.
type ChangesetStore struct {
	database.Repository[repository.Changeset, ChangesetModel]
}

// NewChangesetStore creates a new ChangesetStore.
func NewChangesetStore(db database.Database) ChangesetStore {
	return ChangesetStore{
		Repository: database.NewRepository[repository.Changeset, ChangesetModel](db, ChangesetMapper{}, "changeset"),
	}
}

// Save inserts a new changeset together with its changes, or updates the
// attribution and scanned flag of an existing one.
func (s ChangesetStore) Save(ctx context.Context, cs repository.Changeset) (repository.Changeset, error) {
	model := s.Mapper().ToModel(cs)

	if cs.ID() != 0 {
		if err := s.Session(ctx).Save(&model).Error; err != nil {
			return repository.Changeset{}, fmt.Errorf("save changeset: %w", err)
		}
		return s.Mapper().ToDomain(model), nil
	}

	changes := cs.Changes()
	rows := make([]ChangeModel, 0, len(changes))
	err := s.Session(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		mapper := ChangeMapper{}
		for _, c := range changes {
			row := mapper.ToModel(c.WithChangesetID(model.ID))
			row.ID = 0
			rows = append(rows, row)
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, changeBatchSize).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return repository.Changeset{}, fmt.Errorf("%w: %s", repository.ErrDuplicateRevision, cs.Revision())
		}
		return repository.Changeset{}, fmt.Errorf("save changeset: %w", err)
	}

	saved := make([]repository.Change, len(rows))
	for i, row := range rows {
		saved[i] = ChangeMapper{}.ToDomain(row)
	}
	return s.Mapper().ToDomain(model).WithChanges(saved), nil
}

// Committers returns the distinct (committer, user) pairs of a repository,
// ordered by committer.
func (s ChangesetStore) Committers(ctx context.Context, repositoryID int64) ([]repository.Committer, error) {
	var rows []struct {
		Committer string
		UserID    *int64
	}
	err := s.DB(ctx).
		Distinct("committer", "user_id").
		Where("repository_id = ?", repositoryID).
		Order("committer").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find committers: %w", err)
	}

	committers := make([]repository.Committer, len(rows))
	for i, row := range rows {
		var userID int64
		if row.UserID != nil {
			userID = *row.UserID
		}
		committers[i] = repository.NewCommitter(row.Committer, userID)
	}
	return committers, nil
}

// AssignUser attributes every changeset of committer in the repository to
// userID. A userID of zero or less clears the attribution.
func (s ChangesetStore) AssignUser(ctx context.Context, repositoryID int64, committer string, userID int64) (int64, error) {
	var value any
	if userID > 0 {
		value = userID
	}
	return s.UpdateBy(ctx,
		map[string]any{"user_id": value},
		repository.WithRepositoryID(repositoryID),
		repository.WithCommitter(committer),
	)
}

// MarkScanned flags a changeset as scanned for issue references.
func (s ChangesetStore) MarkScanned(ctx context.Context, id int64) error {
	_, err := s.UpdateBy(ctx, map[string]any{"scanned": true}, repository.WithID(id))
	return err
}

// Purge deletes a repository's issue relations, changes and changesets, in
// that order, inside one transaction.
func (s ChangesetStore) Purge(ctx context.Context, repositoryID int64) error {
	const inRepository = "changeset_id IN (SELECT id FROM changesets WHERE repository_id = ?)"

	return database.WithTransaction(ctx, s.Database(), func(tx database.Database) error {
		session := tx.Session(ctx)
		if err := session.Where(inRepository, repositoryID).Delete(&ChangesetIssueModel{}).Error; err != nil {
			return fmt.Errorf("delete changeset issues: %w", err)
		}
		if err := session.Where(inRepository, repositoryID).Delete(&ChangeModel{}).Error; err != nil {
			return fmt.Errorf("delete changes: %w", err)
		}
		if err := session.Where("repository_id = ?", repositoryID).Delete(&ChangesetModel{}).Error; err != nil {
			return fmt.Errorf("delete changesets: %w", err)
		}
		return nil
	})
}

// ChangeStore implements repository.ChangeStore using GORM.
type ChangeStore struct {
	database.Repository[repository.Change, ChangeModel]
}

// NewChangeStore creates a new ChangeStore.
func NewChangeStore(db database.Database) ChangeStore {
	return ChangeStore{
		Repository: database.NewRepository[repository.Change, ChangeModel](db, ChangeMapper{}, "change"),
	}
}

var (
	_ repository.ChangesetStore = ChangesetStore{}
	_ repository.ChangeStore    = ChangeStore{}
)
