package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/chengzhnag/taskboard/internal/api/shared"
	"github.com/chengzhnag/taskboard/internal/domain"
	"github.com/chengzhnag/taskboard/internal/platform/logger"
	"github.com/chengzhnag/taskboard/internal/redact"
	"github.com/chengzhnag/taskboard/internal/service"
	"github.com/chengzhnag/taskboard/internal/store"
)

// QuestionRequest is the request body for question create and update.
type QuestionRequest struct {
	Content       string   `json:"content"        validate:"required"`
	Type          string   `json:"type"           validate:"required"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
	CategoryID    *int64   `json:"category_id"`
}

// BatchQuestionsRequest is the request body for POST /api/questions/batch.
// Individual questions skip per-item validation here; the service silently
// drops members missing required fields.
type BatchQuestionsRequest struct {
	CategoryID int64 `json:"category_id" validate:"required"`
	Questions  []struct {
		Content       string   `json:"content"`
		Type          string   `json:"type"`
		Options       []string `json:"options"`
		CorrectAnswer string   `json:"correct_answer"`
	} `json:"questions" validate:"required,min=1"`
}

// QuestionListResult is the paginated payload for GET /api/questions.
type QuestionListResult struct {
	Data  []*domain.Question `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// QuestionHandler handles question-related HTTP requests.
type QuestionHandler struct {
	contentService service.ContentService
	logger         *slog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(contentService service.ContentService, log *slog.Logger) *QuestionHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for QuestionHandler")
	}

	return &QuestionHandler{
		contentService: contentService,
		logger:         log.With(slog.String("component", "question_handler")),
	}
}

// ListQuestions handles GET /api/questions requests. category_id must be
// numeric when supplied; type and category_id filters are AND-combined.
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	filter := store.QuestionFilter{
		Type: r.URL.Query().Get("type"),
	}

	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "category_id must be numeric")
			return
		}
		filter.CategoryID = &categoryID
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	if limit > maxListLimit {
		limit = maxListLimit
	}

	result, err := h.contentService.ListQuestions(r.Context(), filter, page, limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, QuestionListResult{
		Data:  result.Data,
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	})
}

// GetQuestion handles GET /api/questions/{id} requests.
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "question")
	if !ok {
		return
	}

	question, err := h.contentService.GetQuestion(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, question)
}

// CreateQuestion handles POST /api/questions requests.
func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req QuestionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	question, err := domain.NewQuestion(
		req.Content,
		req.Type,
		req.CorrectAnswer,
		req.Options,
		req.CategoryID,
	)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return
	}

	if err := h.contentService.CreateQuestion(r.Context(), question); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("question created via API", slog.Int64("question_id", question.ID))
	shared.RespondWithData(w, r, http.StatusCreated, question)
}

// BatchCreateQuestions handles POST /api/questions/batch requests. A failed
// member yields a 400 carrying the per-question breakdown; successful inserts
// are not rolled back.
func (h *QuestionHandler) BatchCreateQuestions(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req BatchQuestionsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	questions := make([]*domain.Question, 0, len(req.Questions))
	for _, item := range req.Questions {
		questions = append(questions, &domain.Question{
			Content:       item.Content,
			Type:          item.Type,
			Options:       item.Options,
			CorrectAnswer: item.CorrectAnswer,
		})
	}

	result, err := h.contentService.BatchCreateQuestions(r.Context(), req.CategoryID, questions)
	if err != nil {
		var batchErr *service.BatchPartialFailureError
		if errors.As(err, &batchErr) {
			shared.RespondWithErrorDetail(
				w, r,
				http.StatusBadRequest,
				GetSafeErrorMessage(err),
				batchErr.Result,
			)
			return
		}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("batch questions created via API",
		slog.Int64("category_id", req.CategoryID),
		slog.Int("inserted", result.Inserted),
		slog.Int("skipped", result.Skipped))
	shared.RespondWithData(w, r, http.StatusCreated, result)
}

// UpdateQuestion handles PUT /api/questions/{id} requests with full-row
// overwrite semantics. Updating a non-existent question is a 404.
func (h *QuestionHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "question")
	if !ok {
		return
	}

	var req QuestionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	question := &domain.Question{
		ID:            id,
		Content:       req.Content,
		Type:          req.Type,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		CategoryID:    req.CategoryID,
	}

	if err := h.contentService.UpdateQuestion(r.Context(), question); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, question)
}

// DeleteQuestion handles DELETE /api/questions/{id} requests.
// Deleting a non-existent question is a 404.
func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "question")
	if !ok {
		return
	}

	if err := h.contentService.DeleteQuestion(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, nil)
}
