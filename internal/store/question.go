package store

import (
	"context"

	"github.com/chengzhnag/taskboard/internal/domain"
)

// QuestionFilter narrows question list queries. Zero values are ignored;
// when both are set they are AND-combined.
type QuestionFilter struct {
	CategoryID *int64
	Type       string
}

// QuestionPage is one page of a filtered question listing plus the total
// count of rows matching the same filter.
type QuestionPage struct {
	Data  []*domain.Question
	Total int64
	Page  int
	Limit int
}

// QuestionStore defines the interface for persisting quiz questions.
type QuestionStore interface {
	// Create persists a new question and assigns its id. A category_id that
	// does not resolve to an existing category fails with ErrInvalidEntity
	// (the foreign key makes validate-then-insert atomic at the store).
	Create(ctx context.Context, question *domain.Question) error

	// GetByID retrieves a question by id, including its category name when
	// one is attached. Returns ErrQuestionNotFound if absent.
	GetByID(ctx context.Context, id int64) (*domain.Question, error)

	// List returns one page of questions matching the filter, newest first,
	// left-joined with category names, plus the total count for the same
	// predicate. page is 1-indexed.
	List(ctx context.Context, filter QuestionFilter, page, limit int) (*QuestionPage, error)

	// Update overwrites all writable columns of an existing question.
	// Returns ErrQuestionNotFound if the question does not exist.
	Update(ctx context.Context, question *domain.Question) error

	// Delete removes a question by id.
	// Returns ErrQuestionNotFound if the question does not exist.
	Delete(ctx context.Context, id int64) error
}
