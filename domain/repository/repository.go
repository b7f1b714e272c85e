// Package repository provides the tracked-repository aggregate and its
// cached commit history.
package repository

import (
	"strings"
	"time"
)

// Repository is an external source-control repository attached to a
// project (aggregate root). Its changesets and changes are a local cache
// of the remote history.
type Repository struct {
	id        int64
	projectID int64
	kind      string
	url       string
	rootURL   string
	login     string
	password  string
	createdAt time.Time
	updatedAt time.Time
}

// NewRepository creates a Repository for a project. The url and root URL
// are trimmed; an empty url or kind is a validation error.
func NewRepository(projectID int64, kind, url string) (Repository, error) {
	url = strings.TrimSpace(url)
	kind = strings.TrimSpace(kind)
	if projectID <= 0 {
		return Repository{}, NewValidationError("project_id", "must be set")
	}
	if kind == "" {
		return Repository{}, NewValidationError("kind", "can't be blank")
	}
	if url == "" {
		return Repository{}, NewValidationError("url", "can't be blank")
	}
	now := time.Now()
	return Repository{
		projectID: projectID,
		kind:      kind,
		url:       url,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructRepository reconstructs a Repository from persistence.
func ReconstructRepository(
	id, projectID int64,
	kind, url, rootURL, login, password string,
	createdAt, updatedAt time.Time,
) Repository {
	return Repository{
		id:        id,
		projectID: projectID,
		kind:      kind,
		url:       url,
		rootURL:   rootURL,
		login:     login,
		password:  password,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the repository ID.
func (r Repository) ID() int64 { return r.id }

// ProjectID returns the owning project ID.
func (r Repository) ProjectID() int64 { return r.projectID }

// Kind returns the SCM kind, e.g. "git".
func (r Repository) Kind() string { return r.kind }

// URL returns the repository URL.
func (r Repository) URL() string { return r.url }

// RootURL returns the repository root URL, empty until first resolved.
func (r Repository) RootURL() string { return r.rootURL }

// Login returns the SCM login.
func (r Repository) Login() string { return r.login }

// Password returns the SCM password.
func (r Repository) Password() string { return r.password }

// CreatedAt returns the creation timestamp.
func (r Repository) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last update timestamp.
func (r Repository) UpdatedAt() time.Time { return r.updatedAt }

// HasRootURL reports whether the root URL has been resolved.
func (r Repository) HasRootURL() bool { return r.rootURL != "" }

// WithURL returns a copy with a new url. Blank values are rejected.
func (r Repository) WithURL(url string) (Repository, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Repository{}, NewValidationError("url", "can't be blank")
	}
	r.url = url
	r.updatedAt = time.Now()
	return r, nil
}

// WithRootURL returns a copy with the given root URL.
func (r Repository) WithRootURL(rootURL string) Repository {
	r.rootURL = strings.TrimSpace(rootURL)
	r.updatedAt = time.Now()
	return r
}

// WithCredentials returns a copy with the given login and password.
func (r Repository) WithCredentials(login, password string) Repository {
	r.login = login
	r.password = password
	r.updatedAt = time.Now()
	return r
}

// WithID returns a copy with the specified ID (used after persistence).
func (r Repository) WithID(id int64) Repository {
	r.id = id
	return r
}
