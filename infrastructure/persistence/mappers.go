package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/helixml/scmtrack/domain/issue"
	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/domain/task"
	"github.com/helixml/scmtrack/domain/user"
)

// RepositoryMapper maps between domain Repository and persistence RepositoryModel.
type RepositoryMapper struct{}

// ToDomain converts a RepositoryModel to a domain Repository.
func (m RepositoryMapper) ToDomain(e RepositoryModel) repository.Repository {
	return repository.ReconstructRepository(
		e.ID,
		e.ProjectID,
		e.Kind,
		e.URL,
		e.RootURL,
		e.Login,
		e.Password,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain Repository to a RepositoryModel.
func (m RepositoryMapper) ToModel(r repository.Repository) RepositoryModel {
	return RepositoryModel{
		ID:        r.ID(),
		ProjectID: r.ProjectID(),
		Kind:      r.Kind(),
		URL:       r.URL(),
		RootURL:   r.RootURL(),
		Login:     r.Login(),
		Password:  r.Password(),
		CreatedAt: r.CreatedAt(),
		UpdatedAt: r.UpdatedAt(),
	}
}

// ChangesetMapper maps between domain Changeset and persistence ChangesetModel.
type ChangesetMapper struct{}

// ToDomain converts a ChangesetModel to a domain Changeset.
func (m ChangesetMapper) ToDomain(e ChangesetModel) repository.Changeset {
	var userID int64
	if e.UserID != nil {
		userID = *e.UserID
	}
	return repository.ReconstructChangeset(
		e.ID,
		e.RepositoryID,
		e.Revision,
		e.Committer,
		userID,
		e.CommittedOn,
		e.Comment,
		e.Scanned,
	)
}

// ToModel converts a domain Changeset to a ChangesetModel.
func (m ChangesetMapper) ToModel(c repository.Changeset) ChangesetModel {
	return ChangesetModel{
		ID:           c.ID(),
		RepositoryID: c.RepositoryID(),
		Revision:     c.Revision(),
		Committer:    c.Committer(),
		UserID:       nullableID(c.UserID()),
		CommittedOn:  c.CommittedOn(),
		Comment:      c.Comment(),
		Scanned:      c.Scanned(),
	}
}

// ChangeMapper maps between domain Change and persistence ChangeModel.
type ChangeMapper struct{}

// ToDomain converts a ChangeModel to a domain Change.
func (m ChangeMapper) ToDomain(e ChangeModel) repository.Change {
	return repository.ReconstructChange(
		e.ID,
		e.ChangesetID,
		repository.Action(e.Action),
		e.Path,
		e.FromPath,
		e.FromRevision,
	)
}

// ToModel converts a domain Change to a ChangeModel.
func (m ChangeMapper) ToModel(c repository.Change) ChangeModel {
	return ChangeModel{
		ID:           c.ID(),
		ChangesetID:  c.ChangesetID(),
		Action:       string(c.Action()),
		Path:         c.Path(),
		FromPath:     c.FromPath(),
		FromRevision: c.FromRevision(),
	}
}

// RelationMapper maps between domain Relation and ChangesetIssueModel.
type RelationMapper struct{}

// ToDomain converts a ChangesetIssueModel to a domain Relation.
func (m RelationMapper) ToDomain(e ChangesetIssueModel) issue.Relation {
	return issue.NewRelation(e.ChangesetID, e.IssueID, issue.RelationKind(e.Kind))
}

// ToModel converts a domain Relation to a ChangesetIssueModel.
func (m RelationMapper) ToModel(r issue.Relation) ChangesetIssueModel {
	return ChangesetIssueModel{
		ChangesetID: r.ChangesetID(),
		IssueID:     r.IssueID(),
		Kind:        string(r.Kind()),
	}
}

// IssueMapper maps between domain Issue and persistence IssueModel.
type IssueMapper struct{}

// ToDomain converts an IssueModel to a domain Issue.
func (m IssueMapper) ToDomain(e IssueModel) issue.Issue {
	return issue.ReconstructIssue(e.ID, e.ProjectID, e.Subject, e.StatusID, e.DoneRatio)
}

// ToModel converts a domain Issue to an IssueModel.
func (m IssueMapper) ToModel(i issue.Issue) IssueModel {
	return IssueModel{
		ID:        i.ID(),
		ProjectID: i.ProjectID(),
		Subject:   i.Subject(),
		StatusID:  i.StatusID(),
		DoneRatio: i.DoneRatio(),
	}
}

// StatusMapper maps between domain Status and persistence StatusModel.
type StatusMapper struct{}

// ToDomain converts a StatusModel to a domain Status.
func (m StatusMapper) ToDomain(e StatusModel) issue.Status {
	return issue.ReconstructStatus(e.ID, e.Name, e.IsClosed, e.IsDefault, e.Position)
}

// ToModel converts a domain Status to a StatusModel.
func (m StatusMapper) ToModel(s issue.Status) StatusModel {
	return StatusModel{
		ID:        s.ID(),
		Name:      s.Name(),
		IsClosed:  s.IsClosed(),
		IsDefault: s.IsDefault(),
		Position:  s.Position(),
	}
}

// ProjectMapper maps between domain Project and persistence ProjectModel.
type ProjectMapper struct{}

// ToDomain converts a ProjectModel to a domain Project.
func (m ProjectMapper) ToDomain(e ProjectModel) issue.Project {
	return issue.ReconstructProject(e.ID, e.Identifier, e.Name, e.FixStatusID, e.FixDoneRatio)
}

// ToModel converts a domain Project to a ProjectModel.
func (m ProjectMapper) ToModel(p issue.Project) ProjectModel {
	return ProjectModel{
		ID:           p.ID(),
		Identifier:   p.Identifier(),
		Name:         p.Name(),
		FixStatusID:  p.FixStatusID(),
		FixDoneRatio: p.FixDoneRatio(),
	}
}

// UserMapper maps between domain User and persistence UserModel.
type UserMapper struct{}

// ToDomain converts a UserModel to a domain User.
func (m UserMapper) ToDomain(e UserModel) user.User {
	return user.ReconstructUser(e.ID, e.Login, e.Mail, e.Firstname, e.Lastname, e.Active)
}

// ToModel converts a domain User to a UserModel.
func (m UserMapper) ToModel(u user.User) UserModel {
	return UserModel{
		ID:        u.ID(),
		Login:     u.Login(),
		Mail:      u.Mail(),
		Firstname: u.Firstname(),
		Lastname:  u.Lastname(),
		Active:    u.Active(),
	}
}

// TaskMapper maps between domain Task and persistence TaskModel.
type TaskMapper struct{}

// ToDomain converts a TaskModel to a domain Task.
func (m TaskMapper) ToDomain(e TaskModel) (task.Task, error) {
	var payload map[string]any
	if e.Payload != "" {
		if err := json.Unmarshal([]byte(e.Payload), &payload); err != nil {
			return task.Task{}, fmt.Errorf("unmarshal task payload: %w", err)
		}
	}

	return task.NewTaskWithID(
		e.ID,
		e.DedupKey,
		task.Operation(e.Type),
		e.Priority,
		payload,
		e.CreatedAt,
		e.UpdatedAt,
	), nil
}

// ToModel converts a domain Task to a TaskModel.
func (m TaskMapper) ToModel(t task.Task) (TaskModel, error) {
	payload, err := t.PayloadJSON()
	if err != nil {
		return TaskModel{}, fmt.Errorf("marshal task payload: %w", err)
	}

	return TaskModel{
		ID:        t.ID(),
		DedupKey:  t.DedupKey(),
		Type:      string(t.Operation()),
		Payload:   string(payload),
		Priority:  t.Priority(),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}, nil
}

func nullableID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
