package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chengzhnag/taskboard/internal/domain"
	"github.com/chengzhnag/taskboard/internal/platform/logger"
	"github.com/chengzhnag/taskboard/internal/store"
)

// Sentinel errors for quiz content operations.
var (
	// ErrNoValidQuestions is returned by BatchCreateQuestions when every
	// submitted question is missing a required field.
	ErrNoValidQuestions = errors.New("no valid questions in batch")
)

// BatchOutcome records the per-question result of a batch insert.
type BatchOutcome struct {
	Index   int    `json:"index"`
	Success bool   `json:"success"`
	ID      int64  `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchResult carries the itemized breakdown of a batch insert. Skipped
// counts questions dropped before insertion for missing required fields.
type BatchResult struct {
	Inserted int            `json:"inserted"`
	Skipped  int            `json:"skipped"`
	Outcomes []BatchOutcome `json:"outcomes"`
}

// BatchPartialFailureError is returned when one or more members of a batch
// insert failed. It carries the full per-question breakdown; insertions that
// succeeded before the failure are not rolled back.
type BatchPartialFailureError struct {
	Result *BatchResult
}

// Error implements the error interface for BatchPartialFailureError.
func (e *BatchPartialFailureError) Error() string {
	failed := 0
	for _, outcome := range e.Result.Outcomes {
		if !outcome.Success {
			failed++
		}
	}
	return fmt.Sprintf("batch insert partially failed: %d of %d questions failed",
		failed, len(e.Result.Outcomes))
}

// ContentService provides category and question operations.
type ContentService interface {
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) error
	DeleteCategory(ctx context.Context, id int64) error

	ListQuestions(
		ctx context.Context,
		filter store.QuestionFilter,
		page, limit int,
	) (*store.QuestionPage, error)
	GetQuestion(ctx context.Context, id int64) (*domain.Question, error)
	CreateQuestion(ctx context.Context, question *domain.Question) error
	BatchCreateQuestions(
		ctx context.Context,
		categoryID int64,
		questions []*domain.Question,
	) (*BatchResult, error)
	UpdateQuestion(ctx context.Context, question *domain.Question) error
	DeleteQuestion(ctx context.Context, id int64) error
}

// contentServiceImpl implements the ContentService interface.
type contentServiceImpl struct {
	categories store.CategoryStore
	questions  store.QuestionStore
	logger     *slog.Logger
}

// NewContentService creates a new ContentService backed by the given stores.
func NewContentService(
	categories store.CategoryStore,
	questions store.QuestionStore,
	log *slog.Logger,
) ContentService {
	if log == nil {
		log = slog.Default()
	}

	return &contentServiceImpl{
		categories: categories,
		questions:  questions,
		logger:     log.With(slog.String("component", "content_service")),
	}
}

func (s *contentServiceImpl) CreateCategory(
	ctx context.Context,
	name, description string,
) (*domain.Category, error) {
	category, err := domain.NewCategory(name, description)
	if err != nil {
		return nil, err
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *contentServiceImpl) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *contentServiceImpl) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *contentServiceImpl) UpdateCategory(ctx context.Context, category *domain.Category) error {
	return s.categories.Update(ctx, category)
}

func (s *contentServiceImpl) DeleteCategory(ctx context.Context, id int64) error {
	return s.categories.Delete(ctx, id)
}

func (s *contentServiceImpl) ListQuestions(
	ctx context.Context,
	filter store.QuestionFilter,
	page, limit int,
) (*store.QuestionPage, error) {
	return s.questions.List(ctx, filter, page, limit)
}

func (s *contentServiceImpl) GetQuestion(ctx context.Context, id int64) (*domain.Question, error) {
	return s.questions.GetByID(ctx, id)
}

// CreateQuestion validates the category reference when one is supplied, then
// inserts. The pre-check gives a clean not-found error; the store's foreign
// key closes the race window between the two round trips.
func (s *contentServiceImpl) CreateQuestion(ctx context.Context, question *domain.Question) error {
	if question.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *question.CategoryID); err != nil {
			return err
		}
	}

	return s.questions.Create(ctx, question)
}

// BatchCreateQuestions validates the category once, silently drops questions
// missing required fields, and inserts the rest one by one collecting
// per-question outcomes. When any insert fails the call returns a
// BatchPartialFailureError carrying the breakdown; completed insertions stay.
func (s *contentServiceImpl) BatchCreateQuestions(
	ctx context.Context,
	categoryID int64,
	questions []*domain.Question,
) (*BatchResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return nil, err
	}

	result := &BatchResult{}

	var valid []*domain.Question
	for _, question := range questions {
		question.CategoryID = &categoryID
		if err := question.Validate(); err != nil {
			// Invalid members are skipped, not reported as per-item errors.
			result.Skipped++
			continue
		}
		valid = append(valid, question)
	}

	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: %d submitted, all skipped",
			ErrNoValidQuestions, len(questions))
	}

	anyFailed := false
	for i, question := range valid {
		outcome := BatchOutcome{Index: i, Success: true}
		if err := s.questions.Create(ctx, question); err != nil {
			log.Warn("batch question insert failed",
				slog.Int("index", i),
				slog.String("error", err.Error()))
			outcome.Success = false
			outcome.Error = err.Error()
			anyFailed = true
		} else {
			outcome.ID = question.ID
			result.Inserted++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	if anyFailed {
		return result, &BatchPartialFailureError{Result: result}
	}

	log.Info("batch questions created",
		slog.Int64("category_id", categoryID),
		slog.Int("inserted", result.Inserted),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// UpdateQuestion verifies both the question and any referenced category exist
// before rewriting the full row.
func (s *contentServiceImpl) UpdateQuestion(ctx context.Context, question *domain.Question) error {
	if _, err := s.questions.GetByID(ctx, question.ID); err != nil {
		return err
	}

	if question.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *question.CategoryID); err != nil {
			return err
		}
	}

	return s.questions.Update(ctx, question)
}

func (s *contentServiceImpl) DeleteQuestion(ctx context.Context, id int64) error {
	return s.questions.Delete(ctx, id)
}
