// Package v1 provides the v1 API routes.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/scmtrack"
	"github.com/helixml/scmtrack/application/service"
	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/domain/scm"
	"github.com/helixml/scmtrack/domain/task"
	"github.com/helixml/scmtrack/infrastructure/api/jsonapi"
	"github.com/helixml/scmtrack/infrastructure/api/middleware"
	"github.com/helixml/scmtrack/infrastructure/api/v1/dto"
)

// DefaultChangesetLimit is how many changesets a history request returns
// when no limit is given.
const DefaultChangesetLimit = 10

// RepositoriesRouter handles repository API endpoints.
type RepositoriesRouter struct {
	client     *scmtrack.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewRepositoriesRouter creates a new RepositoriesRouter.
func NewRepositoriesRouter(client *scmtrack.Client) *RepositoriesRouter {
	return &RepositoriesRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for repository endpoints.
func (r *RepositoriesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Get("/{id}", r.Get)
	router.Patch("/{id}", r.Update)
	router.Delete("/{id}", r.Delete)
	router.Post("/{id}/fetch", r.Fetch)
	router.Post("/{id}/scan", r.Scan)
	router.Get("/{id}/changesets", r.ListChangesets)
	router.Get("/{id}/changesets/{name}", r.GetChangeset)
	router.Get("/{id}/committers", r.ListCommitters)
	router.Put("/{id}/committers", r.SetCommitters)
	router.Get("/{id}/branches", r.ListBranches)
	router.Get("/{id}/tags", r.ListTags)
	router.Get("/{id}/entries", r.ListEntries)
	router.Get("/{id}/cat", r.Cat)
	router.Get("/{id}/diff", r.Diff)

	return router
}

// List handles GET /api/v1/repositories.
// Accepts page, page_size and project_id query parameters.
func (r *RepositoriesRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	pagination := ParsePagination(req)

	var filters []repository.Option
	if raw := req.URL.Query().Get("project_id"); raw != "" {
		projectID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			middleware.WriteError(w, req, middleware.BadRequest("project_id must be an integer", err), r.logger)
			return
		}
		filters = append(filters, repository.WithProjectID(projectID))
	}

	repos, err := r.client.Repositories.List(ctx, append(filters, pagination.Options()...)...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	total, err := r.client.Repositories.Count(ctx, filters...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	doc := jsonapi.NewListResponse(r.serializer.Repositories(repos))
	doc.Meta = PaginationMeta(pagination, total)
	doc.Links = PaginationLinks(req, pagination, total)
	middleware.WriteJSON(w, http.StatusOK, doc)
}

// Create handles POST /api/v1/repositories.
func (r *RepositoriesRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.RepositoryCreateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.BadRequest("malformed request body", err), r.logger)
		return
	}

	attrs := body.Data.Attributes
	repo, err := r.client.Repositories.Create(req.Context(), service.RepositoryCreateParams{
		ProjectID: attrs.ProjectID,
		Kind:      attrs.Kind,
		URL:       attrs.URL,
		RootURL:   attrs.RootURL,
		Login:     attrs.Login,
		Password:  attrs.Password,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%d", req.URL.Path, repo.ID()))
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(r.serializer.Repository(repo)))
}

// Get handles GET /api/v1/repositories/{id}.
func (r *RepositoriesRouter) Get(w http.ResponseWriter, req *http.Request) {
	id, ok := r.repositoryID(w, req)
	if !ok {
		return
	}

	repo, err := r.client.Repositories.Get(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.Repository(repo)))
}

// Update handles PATCH /api/v1/repositories/{id}.
func (r *RepositoriesRouter) Update(w http.ResponseWriter, req *http.Request) {
	id, ok := r.repositoryID(w, req)
	if !ok {
		return
	}

	var body dto.RepositoryUpdateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.BadRequest("malformed request body", err), r.logger)
		return
	}

	attrs := body.Data.Attributes
	repo, err := r.client.Repositories.Update(req.Context(), id, service.RepositoryUpdateParams{
		URL:      attrs.URL,
		RootURL:  attrs.RootURL,
		Login:    attrs.Login,
		Password: attrs.Password,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.Repository(repo)))
}

// Delete handles DELETE /api/v1/repositories/{id}.
// The repository is purged and removed by the worker; the response holds
// the queued task.
func (r *RepositoriesRouter) Delete(w http.ResponseWriter, req *http.Request) {
	r.enqueue(w, req, task.OperationPurgeRepository, task.PriorityCritical, map[string]any{"delete": true})
}

// Fetch handles POST /api/v1/repositories/{id}/fetch.
func (r *RepositoriesRouter) Fetch(w http.ResponseWriter, req *http.Request) {
	r.enqueue(w, req, task.OperationFetchRepository, task.PriorityUserInitiated, nil)
}

// Scan handles POST /api/v1/repositories/{id}/scan.
// With force=true every changeset is rescanned, not only unscanned ones.
func (r *RepositoriesRouter) Scan(w http.ResponseWriter, req *http.Request) {
	force := false
	if raw := req.URL.Query().Get("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.WriteError(w, req, middleware.BadRequest("force must be a boolean", err), r.logger)
			return
		}
		force = parsed
	}
	r.enqueue(w, req, task.OperationScanRepository, task.PriorityUserInitiated, map[string]any{"force": force})
}

func (r *RepositoriesRouter) enqueue(
	w http.ResponseWriter,
	req *http.Request,
	op task.Operation,
	priority task.Priority,
	extra map[string]any,
) {
	ctx := req.Context()
	id, ok := r.repositoryID(w, req)
	if !ok {
		return
	}

	if _, err := r.client.Repositories.Get(ctx, id); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	queued, err := r.client.Tasks.EnqueueRepository(ctx, op, id, priority, extra)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, jsonapi.NewSingleResponse(r.serializer.Task(queued)))
}

// ListChangesets handles GET /api/v1/repositories/{id}/changesets.
// Accepts path, rev and limit query parameters.
func (r *RepositoriesRouter) ListChangesets(w http.ResponseWriter, req *http.Request) {
	facade, ok := r.facade(w, req)
	if !ok {
		return
	}

	q := req.URL.Query()
	limit := DefaultChangesetLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			middleware.WriteError(w, req, middleware.BadRequest("limit must be a positive integer", err), r.logger)
			return
		}
		limit = min(parsed, MaxPageSize)
	}

	changesets, err := facade.LatestChangesets(req.Context(), q.Get("path"), q.Get("rev"), limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(r.serializer.Changesets(changesets)))
}

// GetChangeset handles GET /api/v1/repositories/{id}/changesets/{name}.
// The name may be an abbreviated revision.
func (r *RepositoriesRouter) GetChangeset(w http.ResponseWriter, req *http.Request) {
	facade, ok := r.facade(w, req)
	if !ok {
		return
	}

	cs, err := facade.FindChangesetByName(req.Context(), chi.URLParam(req, "name"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.Changeset(cs)))
}

// ListCommitters handles GET /api/v1/repositories/{id}/committers.
func (r *RepositoriesRouter) ListCommitters(w http.ResponseWriter, req *http.Request) {
	facade, ok := r.facade(w, req)
	if !ok {
		return
	}

	committers, err := facade.Committers(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(r.serializer.Committers(committers)))
}

// SetCommitters handles PUT /api/v1/repositories/{id}/committers.
// The body maps committer strings to user IDs; the response lists the
// committers after reassignment.
func (r *RepositoriesRouter) SetCommitters(w http.ResponseWriter, req *http.Request) {
	facade, ok := r.facade(w, req)
	if !ok {
		return
	}

	var body dto.CommittersRequest
	decoder := json.NewDecoder(req.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.BadRequest("malformed request body", err), r.logger)
		return
	}

	ctx := req.Context()
	applied, err := facade.SetCommitterIDs(ctx, body.Committers)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if !applied {
		middleware.WriteError(w, req, repository.NewValidationError("committers", "must map committers to user ids"), r.logger)
		return
	}

	committers, err := facade.Committers(ctx)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(r.serializer.Committers(committers)))
}

// ListBranches handles GET /api/v1/repositories/{id}/branches.
func (r *RepositoriesRouter) ListBranches(w http.ResponseWriter, req *http.Request) {
	facade, ok := r.facade(w, req)
	if !ok {
		return
	}

	ctx := req.Context()
	branches, err := facade.Branches(ctx)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	defaultBranch, err := facade.DefaultBranch(ctx)
	if err != nil && !errors.Is(err, scm.ErrNotSupported) {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(r.serializer.Refs(branches, defaultBranch)))
}

// ListTags handles GET /api/v1/repositories/{id}/tags.
func (r *RepositoriesRouter) ListTags(w http.ResponseWriter, req *http.Request) {
	facade, ok := r.facade(w, req)
	if !ok {
		return
	}

	tags, err := facade.Tags(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(r.serializer.Refs(tags, "")))
}

// ListEntries handles GET /api/v1/repositories/{id}/entries.
// Accepts path and rev query parameters; an empty path lists the root.
func (r *RepositoriesRouter) ListEntries(w http.ResponseWriter, req *http.Request) {
	facade, ok := r.facade(w, req)
	if !ok {
		return
	}

	q := req.URL.Query()
	entries, err := facade.Entries(req.Context(), q.Get("path"), q.Get("rev"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(r.serializer.Entries(entries)))
}

// Cat handles GET /api/v1/repositories/{id}/cat and writes the raw file.
func (r *RepositoriesRouter) Cat(w http.ResponseWriter, req *http.Request) {
	facade, ok := r.facade(w, req)
	if !ok {
		return
	}

	q := req.URL.Query()
	if q.Get("path") == "" {
		middleware.WriteError(w, req, middleware.BadRequest("path is required", nil), r.logger)
		return
	}

	content, err := facade.Cat(req.Context(), q.Get("path"), q.Get("rev"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(content))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// Diff handles GET /api/v1/repositories/{id}/diff and writes a unified diff.
// Accepts path, from and to query parameters; to is required.
func (r *RepositoriesRouter) Diff(w http.ResponseWriter, req *http.Request) {
	facade, ok := r.facade(w, req)
	if !ok {
		return
	}

	q := req.URL.Query()
	if q.Get("to") == "" {
		middleware.WriteError(w, req, middleware.BadRequest("to is required", nil), r.logger)
		return
	}

	diff, err := facade.Diff(req.Context(), q.Get("path"), q.Get("from"), q.Get("to"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.Header().Set("Content-Type", "text/x-diff; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(diff))
}

func (r *RepositoriesRouter) repositoryID(w http.ResponseWriter, req *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		middleware.WriteError(w, req, middleware.BadRequest("repository id must be an integer", err), r.logger)
		return 0, false
	}
	return id, true
}

func (r *RepositoriesRouter) facade(w http.ResponseWriter, req *http.Request) (*service.Facade, bool) {
	id, ok := r.repositoryID(w, req)
	if !ok {
		return nil, false
	}
	facade, err := r.client.Repositories.Facade(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return nil, false
	}
	return facade, true
}
