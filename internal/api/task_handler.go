// Package api provides HTTP handlers for the API.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chengzhnag/taskboard/internal/api/shared"
	"github.com/chengzhnag/taskboard/internal/domain"
	"github.com/chengzhnag/taskboard/internal/platform/logger"
	"github.com/chengzhnag/taskboard/internal/redact"
	"github.com/chengzhnag/taskboard/internal/service"
	"github.com/chengzhnag/taskboard/internal/store"
)

// maxListLimit caps the page size accepted by list endpoints.
const maxListLimit = 100

// CreateTaskRequest is the request body for POST /tasks.
type CreateTaskRequest struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"           validate:"required"`
	Title          string          `json:"title"          validate:"required"`
	Description    string          `json:"description"`
	FrequencyType  string          `json:"frequency_type" validate:"required"`
	SpecificDate   *time.Time      `json:"specific_date"`
	CronExpression string          `json:"cron_expression"`
	Script         string          `json:"script"`
	ExtraData      json.RawMessage `json:"extra_data"`
}

// TaskListResult is the paginated payload under "result" for GET /tasks.
type TaskListResult struct {
	Data  []*domain.Task `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService, log *slog.Logger) *TaskHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService: taskService,
		logger:      log.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /tasks requests.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	task, err := domain.NewTask(
		req.ID,
		domain.TaskType(req.Type),
		req.Title,
		domain.FrequencyType(req.FrequencyType),
	)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return
	}

	task.Description = req.Description
	task.SpecificDate = req.SpecificDate
	task.CronExpression = req.CronExpression
	task.Script = req.Script
	task.ExtraData = req.ExtraData

	// Conditional requirements depend on the optional fields set above.
	if err := task.Validate(); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return
	}

	if err := h.taskService.Create(r.Context(), task); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("task created via API", slog.String("task_id", task.ID))
	shared.RespondWithSuccess(w, r, "Task created", task)
}

// ListTasks handles GET /tasks requests. type and status filters are
// AND-combined; page is 1-indexed; limit is clamped to 100.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter := store.TaskFilter{
		Type:   r.URL.Query().Get("type"),
		Status: r.URL.Query().Get("status"),
	}
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	if limit > maxListLimit {
		limit = maxListLimit
	}

	result, err := h.taskService.List(r.Context(), filter, page, limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithSuccess(w, r, "", TaskListResult{
		Data:  result.Data,
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	})
}

// UpdateTask handles PUT /tasks/{id} requests. The body is a partial field
// map; anything outside the update allow-list is silently dropped. Updating
// a non-existent id succeeds with zero effect.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Task ID is required")
		return
	}

	var fields map[string]any
	if err := shared.DecodeJSON(r, &fields); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("task_id", taskID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	normalizeTaskFields(fields)

	if err := h.taskService.Update(r.Context(), taskID, fields); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("task updated via API", slog.String("task_id", taskID))
	shared.RespondWithSuccess(w, r, "Task updated", nil)
}

// DeleteTask handles DELETE /tasks/{id} requests. Deleting a non-existent id
// succeeds.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Task ID is required")
		return
	}

	if err := h.taskService.Delete(r.Context(), taskID); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to delete task", err)
		return
	}

	log.Info("task deleted via API", slog.String("task_id", taskID))
	shared.RespondWithSuccess(w, r, "Task deleted", nil)
}

// ExecuteTasks handles POST /tasks/execute requests: one sweep over all due
// pending tasks. The caller (an external trigger) invokes this repeatedly;
// nothing schedules it in-process.
func (h *TaskHandler) ExecuteTasks(w http.ResponseWriter, r *http.Request) {
	result, err := h.taskService.Sweep(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Sweep failed", err)
		return
	}

	message := fmt.Sprintf("%d tasks executed", result.Processed())
	shared.RespondWithSuccess(w, r, message, result)
}

// normalizeTaskFields converts decoded JSON values that the database driver
// cannot bind directly. extra_data arrives as an arbitrary JSON value and is
// re-encoded to its raw bytes for the JSONB column.
func normalizeTaskFields(fields map[string]any) {
	if value, ok := fields["extra_data"]; ok && value != nil {
		if encoded, err := json.Marshal(value); err == nil {
			fields["extra_data"] = encoded
		}
	}
}

// queryInt parses a positive integer query parameter, falling back to def on
// absence or garbage.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	var value int
	if _, err := fmt.Sscanf(raw, "%d", &value); err != nil || value < 1 {
		return def
	}
	return value
}
