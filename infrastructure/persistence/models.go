package persistence

import "time"

// RepositoryModel represents a tracked SCM repository in the database.
type RepositoryModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ProjectID int64     `gorm:"column:project_id;index;not null"`
	Kind      string    `gorm:"column:kind;size:64;not null"`
	URL       string    `gorm:"column:url;size:1024;not null"`
	RootURL   string    `gorm:"column:root_url;size:1024;default:''"`
	Login     string    `gorm:"column:login;size:255;default:''"`
	Password  string    `gorm:"column:password;size:255;default:''"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (RepositoryModel) TableName() string {
	return "repositories"
}

// ChangesetModel represents a cached commit in the database.
type ChangesetModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	RepositoryID int64     `gorm:"column:repository_id;not null;uniqueIndex:idx_changesets_repo_revision,priority:1;index:idx_changesets_repo_committed,priority:1"`
	Revision     string    `gorm:"column:revision;size:255;not null;uniqueIndex:idx_changesets_repo_revision,priority:2"`
	Committer    string    `gorm:"column:committer;size:255;index"`
	UserID       *int64    `gorm:"column:user_id;index"`
	CommittedOn  time.Time `gorm:"column:committed_on;not null;index:idx_changesets_repo_committed,priority:2"`
	Comment      string    `gorm:"column:comment;type:text"`
	Scanned      bool      `gorm:"column:scanned;default:false;index"`
}

// TableName returns the table name.
func (ChangesetModel) TableName() string {
	return "changesets"
}

// ChangeModel represents a path-level change of a changeset.
type ChangeModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	ChangesetID  int64  `gorm:"column:changeset_id;not null;index"`
	Action       string `gorm:"column:action;size:1;not null"`
	Path         string `gorm:"column:path;size:1024;not null;index"`
	FromPath     string `gorm:"column:from_path;size:1024;default:''"`
	FromRevision string `gorm:"column:from_revision;size:255;default:''"`
}

// TableName returns the table name.
func (ChangeModel) TableName() string {
	return "changes"
}

// ChangesetIssueModel relates a changeset to an issue it references or fixes.
type ChangesetIssueModel struct {
	ChangesetID int64  `gorm:"column:changeset_id;primaryKey;autoIncrement:false"`
	IssueID     int64  `gorm:"column:issue_id;primaryKey;autoIncrement:false;index"`
	Kind        string `gorm:"column:kind;primaryKey;size:32"`
}

// TableName returns the table name.
func (ChangesetIssueModel) TableName() string {
	return "changeset_issues"
}

// IssueModel represents an issue in the database.
type IssueModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ProjectID int64  `gorm:"column:project_id;index;not null"`
	Subject   string `gorm:"column:subject;size:255"`
	StatusID  int64  `gorm:"column:status_id;index"`
	DoneRatio int    `gorm:"column:done_ratio;default:0"`
}

// TableName returns the table name.
func (IssueModel) TableName() string {
	return "issues"
}

// StatusModel represents an issue status in the database.
type StatusModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"column:name;size:64;not null"`
	IsClosed  bool   `gorm:"column:is_closed;default:false"`
	IsDefault bool   `gorm:"column:is_default;default:false"`
	Position  int    `gorm:"column:position"`
}

// TableName returns the table name.
func (StatusModel) TableName() string {
	return "issue_statuses"
}

// ProjectModel represents a project in the database.
type ProjectModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Identifier   string `gorm:"column:identifier;size:100;uniqueIndex"`
	Name         string `gorm:"column:name;size:255"`
	FixStatusID  int64  `gorm:"column:fix_status_id;default:0"`
	FixDoneRatio int    `gorm:"column:fix_done_ratio"`
}

// TableName returns the table name.
func (ProjectModel) TableName() string {
	return "projects"
}

// UserModel represents a user account in the database.
type UserModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Login     string `gorm:"column:login;size:255;index"`
	Mail      string `gorm:"column:mail;size:255;index"`
	Firstname string `gorm:"column:firstname;size:30"`
	Lastname  string `gorm:"column:lastname;size:255"`
	Active    bool   `gorm:"column:active"`
}

// TableName returns the table name.
func (UserModel) TableName() string {
	return "users"
}

// TaskModel represents a queued task in the database.
type TaskModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DedupKey  string    `gorm:"column:dedup_key;type:varchar(255);uniqueIndex;not null"`
	Type      string    `gorm:"column:type;type:varchar(255);index;not null"`
	Payload   string    `gorm:"column:payload;type:text"`
	Priority  int       `gorm:"column:priority;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (TaskModel) TableName() string {
	return "tasks"
}
