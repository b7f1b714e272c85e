// Package dto holds the request bodies the v1 API accepts.
package dto

// RepositoryCreateAttributes are the fields of a new repository.
type RepositoryCreateAttributes struct {
	ProjectID int64  `json:"project_id"`
	Kind      string `json:"kind"`
	URL       string `json:"url"`
	RootURL   string `json:"root_url,omitempty"`
	Login     string `json:"login,omitempty"`
	Password  string `json:"password,omitempty"`
}

// RepositoryCreateData is the data member of a create request.
type RepositoryCreateData struct {
	Type       string                     `json:"type"`
	Attributes RepositoryCreateAttributes `json:"attributes"`
}

// RepositoryCreateRequest is the body of POST /repositories.
type RepositoryCreateRequest struct {
	Data RepositoryCreateData `json:"data"`
}

// RepositoryUpdateAttributes are the fields an update may change.
// Absent fields are left alone.
type RepositoryUpdateAttributes struct {
	URL      *string `json:"url,omitempty"`
	RootURL  *string `json:"root_url,omitempty"`
	Login    *string `json:"login,omitempty"`
	Password *string `json:"password,omitempty"`
}

// RepositoryUpdateData is the data member of an update request.
type RepositoryUpdateData struct {
	Type       string                     `json:"type"`
	Attributes RepositoryUpdateAttributes `json:"attributes"`
}

// RepositoryUpdateRequest is the body of PATCH /repositories/{id}.
type RepositoryUpdateRequest struct {
	Data RepositoryUpdateData `json:"data"`
}

// CommittersRequest is the body of PUT /repositories/{id}/committers. It
// maps committer strings to user IDs; committers left out lose their user.
type CommittersRequest struct {
	Committers any `json:"committers"`
}
