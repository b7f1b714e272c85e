package persistence

import (
	"context"
	"fmt"

	"github.com/helixml/scmtrack/domain/issue"
	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IssueStore implements issue.IssueStore using GORM.
type IssueStore struct {
	database.Repository[issue.Issue, IssueModel]
}

// NewIssueStore creates a new IssueStore.
func NewIssueStore(db database.Database) IssueStore {
	return IssueStore{
		Repository: database.NewRepository[issue.Issue, IssueModel](db, IssueMapper{}, "issue"),
	}
}

// Save creates or updates an issue.
func (s IssueStore) Save(ctx context.Context, i issue.Issue) (issue.Issue, error) {
	model := s.Mapper().ToModel(i)
	if err := s.Session(ctx).Save(&model).Error; err != nil {
		return issue.Issue{}, fmt.Errorf("save issue: %w", err)
	}
	return s.Mapper().ToDomain(model), nil
}

// StatusStore implements issue.StatusStore using GORM.
type StatusStore struct {
	database.Repository[issue.Status, StatusModel]
}

// NewStatusStore creates a new StatusStore.
func NewStatusStore(db database.Database) StatusStore {
	return StatusStore{
		Repository: database.NewRepository[issue.Status, StatusModel](db, StatusMapper{}, "issue status"),
	}
}

// Save creates or updates a status. A default status takes the default
// flag away from every other status in the same transaction.
func (s StatusStore) Save(ctx context.Context, status issue.Status) (issue.Status, error) {
	model := s.Mapper().ToModel(status)
	err := s.Session(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&model).Error; err != nil {
			return err
		}
		if !model.IsDefault {
			return nil
		}
		return tx.Model(&StatusModel{}).
			Where("id <> ? AND is_default = ?", model.ID, true).
			Update("is_default", false).Error
	})
	if err != nil {
		return issue.Status{}, fmt.Errorf("save issue status: %w", err)
	}
	return s.Mapper().ToDomain(model), nil
}

// Default returns the default status.
func (s StatusStore) Default(ctx context.Context) (issue.Status, error) {
	return s.FindOne(ctx, repository.WithCondition("is_default", true))
}

// FirstClosed returns the closed status with the lowest position.
func (s StatusStore) FirstClosed(ctx context.Context) (issue.Status, error) {
	return s.FindOne(ctx,
		issue.WithClosed(true),
		repository.WithOrderAsc("position"),
		repository.WithOrderAsc("id"),
	)
}

// ProjectStore implements issue.ProjectStore using GORM.
type ProjectStore struct {
	database.Repository[issue.Project, ProjectModel]
}

// NewProjectStore creates a new ProjectStore.
func NewProjectStore(db database.Database) ProjectStore {
	return ProjectStore{
		Repository: database.NewRepository[issue.Project, ProjectModel](db, ProjectMapper{}, "project"),
	}
}

// Save creates or updates a project.
func (s ProjectStore) Save(ctx context.Context, p issue.Project) (issue.Project, error) {
	model := s.Mapper().ToModel(p)
	if err := s.Session(ctx).Save(&model).Error; err != nil {
		return issue.Project{}, fmt.Errorf("save project: %w", err)
	}
	return s.Mapper().ToDomain(model), nil
}

// RelationStore implements issue.RelationStore using GORM.
type RelationStore struct {
	database.Repository[issue.Relation, ChangesetIssueModel]
}

// NewRelationStore creates a new RelationStore.
func NewRelationStore(db database.Database) RelationStore {
	return RelationStore{
		Repository: database.NewRepository[issue.Relation, ChangesetIssueModel](db, RelationMapper{}, "changeset issue"),
	}
}

// Save inserts the relation unless it already exists and reports whether
// a row was written.
func (s RelationStore) Save(ctx context.Context, r issue.Relation) (bool, error) {
	model := s.Mapper().ToModel(r)
	result := s.Session(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model)
	if result.Error != nil {
		return false, fmt.Errorf("save changeset issue: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

var (
	_ issue.IssueStore    = IssueStore{}
	_ issue.StatusStore   = StatusStore{}
	_ issue.ProjectStore  = ProjectStore{}
	_ issue.RelationStore = RelationStore{}
)
