package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/scmtrack"
	"github.com/helixml/scmtrack/application/service"
	"github.com/helixml/scmtrack/domain/task"
	"github.com/helixml/scmtrack/infrastructure/api/jsonapi"
	"github.com/helixml/scmtrack/infrastructure/api/middleware"
)

// QueueRouter exposes the pending task queue read-only.
type QueueRouter struct {
	queue      *service.Queue
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewQueueRouter creates a new QueueRouter.
func NewQueueRouter(client *scmtrack.Client) *QueueRouter {
	return &QueueRouter{
		queue:      client.Tasks,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for queue endpoints.
func (r *QueueRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.ListTasks)
	router.Get("/{task_id}", r.GetTask)

	return router
}

// ListTasks handles GET /api/v1/queue, highest priority first.
// Accepts page, page_size and operation query parameters.
func (r *QueueRouter) ListTasks(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	pagination := ParsePagination(req)

	params := &service.TaskListParams{
		Limit:  pagination.Limit(),
		Offset: pagination.Offset(),
	}
	if raw := req.URL.Query().Get("operation"); raw != "" {
		op := task.Operation(raw)
		params.Operation = &op
	}

	tasks, err := r.queue.List(ctx, params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	total, err := r.queue.Count(ctx)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	doc := jsonapi.NewListResponse(r.serializer.Tasks(tasks))
	doc.Meta = PaginationMeta(pagination, total)
	doc.Links = PaginationLinks(req, pagination, total)
	middleware.WriteJSON(w, http.StatusOK, doc)
}

// GetTask handles GET /api/v1/queue/{task_id}.
func (r *QueueRouter) GetTask(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(req, "task_id"), 10, 64)
	if err != nil {
		middleware.WriteError(w, req, middleware.BadRequest("task id must be an integer", err), r.logger)
		return
	}

	t, err := r.queue.Get(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.Task(t)))
}
