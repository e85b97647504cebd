package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chengzhnag/taskboard/internal/api/shared"
	"github.com/chengzhnag/taskboard/internal/domain"
	"github.com/chengzhnag/taskboard/internal/platform/logger"
	"github.com/chengzhnag/taskboard/internal/redact"
	"github.com/chengzhnag/taskboard/internal/service"
)

// CategoryRequest is the request body for category create and update.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CategoryHandler handles category-related HTTP requests.
type CategoryHandler struct {
	contentService service.ContentService
	logger         *slog.Logger
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(contentService service.ContentService, log *slog.Logger) *CategoryHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CategoryHandler")
	}

	return &CategoryHandler{
		contentService: contentService,
		logger:         log.With(slog.String("component", "category_handler")),
	}
}

// ListCategories handles GET /api/categories requests.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.contentService.ListCategories(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, categories)
}

// GetCategory handles GET /api/categories/{id} requests.
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "category")
	if !ok {
		return
	}

	category, err := h.contentService.GetCategory(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, category)
}

// CreateCategory handles POST /api/categories requests.
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CategoryRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	category, err := h.contentService.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("category created via API", slog.Int64("category_id", category.ID))
	shared.RespondWithData(w, r, http.StatusCreated, category)
}

// UpdateCategory handles PUT /api/categories/{id} requests.
// Updating a non-existent category is a 404.
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "category")
	if !ok {
		return
	}

	var req CategoryRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	category := &domain.Category{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.contentService.UpdateCategory(r.Context(), category); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/categories/{id} requests.
// Deleting a non-existent category is a 404.
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "category")
	if !ok {
		return
	}

	if err := h.contentService.DeleteCategory(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, nil)
}

// pathID parses the {id} URL parameter as a numeric id. A missing or
// non-numeric id responds 404, matching the validate-by-id contract for
// quiz content.
func pathID(w http.ResponseWriter, r *http.Request, entity string) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		shared.RespondWithError(w, r, http.StatusNotFound, "Invalid "+entity+" id")
		return 0, false
	}
	return id, true
}
