package jsonapi

import (
	"strconv"

	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/domain/scm"
	"github.com/helixml/scmtrack/domain/task"
)

// Resource type names.
const (
	TypeRepository = "repository"
	TypeChangeset  = "changeset"
	TypeCommitter  = "committer"
	TypeEntry      = "entry"
	TypeRef        = "ref"
	TypeTask       = "task"
)

// RepositoryAttributes are the public fields of a repository. The
// password is never serialized.
type RepositoryAttributes struct {
	ProjectID      int64    `json:"project_id"`
	Kind           string   `json:"kind"`
	URL            string   `json:"url"`
	RootURL        string   `json:"root_url,omitempty"`
	Login          string   `json:"login,omitempty"`
	HasCredentials bool     `json:"has_credentials"`
	CreatedAt      DateTime `json:"created_at"`
	UpdatedAt      DateTime `json:"updated_at"`
}

// ChangesetAttributes are the fields of a cached changeset.
type ChangesetAttributes struct {
	RepositoryID  int64    `json:"repository_id"`
	Revision      string   `json:"revision"`
	ShortRevision string   `json:"short_revision"`
	Committer     string   `json:"committer"`
	UserID        *int64   `json:"user_id"`
	CommittedOn   DateTime `json:"committed_on"`
	Title         string   `json:"title"`
	Comment       string   `json:"comment"`
	Scanned       bool     `json:"scanned"`
}

// CommitterAttributes pairs a committer string with its user.
type CommitterAttributes struct {
	Name   string `json:"name"`
	UserID *int64 `json:"user_id"`
}

// EntryAttributes are the fields of a tree entry.
type EntryAttributes struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Kind         string `json:"kind"`
	Size         int64  `json:"size"`
	LastRevision string `json:"last_revision,omitempty"`
}

// RefAttributes names a branch or tag.
type RefAttributes struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default,omitempty"`
}

// TaskAttributes are the fields of a pending task.
type TaskAttributes struct {
	Operation string         `json:"operation"`
	Priority  int            `json:"priority"`
	DedupKey  string         `json:"dedup_key"`
	Payload   map[string]any `json:"payload"`
	CreatedAt DateTime       `json:"created_at"`
	UpdatedAt DateTime       `json:"updated_at"`
}

// Serializer turns domain values into resources.
type Serializer struct{}

// NewSerializer creates a Serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Repository serializes a repository.
func (s *Serializer) Repository(repo repository.Repository) *Resource {
	return NewResource(TypeRepository, strconv.FormatInt(repo.ID(), 10), RepositoryAttributes{
		ProjectID:      repo.ProjectID(),
		Kind:           repo.Kind(),
		URL:            repo.URL(),
		RootURL:        repo.RootURL(),
		Login:          repo.Login(),
		HasCredentials: repo.Password() != "",
		CreatedAt:      DateTime(repo.CreatedAt()),
		UpdatedAt:      DateTime(repo.UpdatedAt()),
	})
}

// Repositories serializes a list of repositories.
func (s *Serializer) Repositories(repos []repository.Repository) []*Resource {
	out := make([]*Resource, 0, len(repos))
	for _, repo := range repos {
		out = append(out, s.Repository(repo))
	}
	return out
}

// Changeset serializes a changeset.
func (s *Serializer) Changeset(cs repository.Changeset) *Resource {
	return NewResource(TypeChangeset, strconv.FormatInt(cs.ID(), 10), ChangesetAttributes{
		RepositoryID:  cs.RepositoryID(),
		Revision:      cs.Revision(),
		ShortRevision: cs.ShortRevision(),
		Committer:     cs.Committer(),
		UserID:        optionalID(cs.UserID()),
		CommittedOn:   DateTime(cs.CommittedOn()),
		Title:         cs.Title(),
		Comment:       cs.Comment(),
		Scanned:       cs.Scanned(),
	})
}

// Changesets serializes a list of changesets.
func (s *Serializer) Changesets(changesets []repository.Changeset) []*Resource {
	out := make([]*Resource, 0, len(changesets))
	for _, cs := range changesets {
		out = append(out, s.Changeset(cs))
	}
	return out
}

// Committers serializes committers. The committer string is the ID.
func (s *Serializer) Committers(committers []repository.Committer) []*Resource {
	out := make([]*Resource, 0, len(committers))
	for _, c := range committers {
		out = append(out, NewResource(TypeCommitter, c.Name(), CommitterAttributes{
			Name:   c.Name(),
			UserID: optionalID(c.UserID()),
		}))
	}
	return out
}

// Entries serializes tree entries. The path is the ID.
func (s *Serializer) Entries(entries []scm.Entry) []*Resource {
	out := make([]*Resource, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewResource(TypeEntry, e.Path, EntryAttributes{
			Name:         e.Name,
			Path:         e.Path,
			Kind:         string(e.Kind),
			Size:         e.Size,
			LastRevision: e.LastRevision,
		}))
	}
	return out
}

// Refs serializes branch or tag names, flagging the default one.
func (s *Serializer) Refs(names []string, defaultName string) []*Resource {
	out := make([]*Resource, 0, len(names))
	for _, name := range names {
		out = append(out, NewResource(TypeRef, name, RefAttributes{
			Name:      name,
			IsDefault: name == defaultName,
		}))
	}
	return out
}

// Task serializes a task.
func (s *Serializer) Task(t task.Task) *Resource {
	return NewResource(TypeTask, strconv.FormatInt(t.ID(), 10), TaskAttributes{
		Operation: t.Operation().String(),
		Priority:  t.Priority(),
		DedupKey:  t.DedupKey(),
		Payload:   t.Payload(),
		CreatedAt: DateTime(t.CreatedAt()),
		UpdatedAt: DateTime(t.UpdatedAt()),
	})
}

// Tasks serializes a list of tasks.
func (s *Serializer) Tasks(tasks []task.Task) []*Resource {
	out := make([]*Resource, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, s.Task(t))
	}
	return out
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
