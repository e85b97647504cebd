package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chengzhnag/taskboard/internal/domain"
	"github.com/chengzhnag/taskboard/internal/store"
)

// fakeCategoryStore is a function-field fake for the store.CategoryStore
// interface.
type fakeCategoryStore struct {
	createFn  func(ctx context.Context, category *domain.Category) error
	getByIDFn func(ctx context.Context, id int64) (*domain.Category, error)
	listFn    func(ctx context.Context) ([]*domain.Category, error)
	updateFn  func(ctx context.Context, category *domain.Category) error
	deleteFn  func(ctx context.Context, id int64) error
}

func (f *fakeCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	return f.createFn(ctx, category)
}

func (f *fakeCategoryStore) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeCategoryStore) List(ctx context.Context) ([]*domain.Category, error) {
	return f.listFn(ctx)
}

func (f *fakeCategoryStore) Update(ctx context.Context, category *domain.Category) error {
	return f.updateFn(ctx, category)
}

func (f *fakeCategoryStore) Delete(ctx context.Context, id int64) error {
	return f.deleteFn(ctx, id)
}

// fakeQuestionStore is a function-field fake for the store.QuestionStore
// interface.
type fakeQuestionStore struct {
	createFn  func(ctx context.Context, question *domain.Question) error
	getByIDFn func(ctx context.Context, id int64) (*domain.Question, error)
	listFn    func(ctx context.Context, filter store.QuestionFilter, page, limit int) (*store.QuestionPage, error)
	updateFn  func(ctx context.Context, question *domain.Question) error
	deleteFn  func(ctx context.Context, id int64) error
}

func (f *fakeQuestionStore) Create(ctx context.Context, question *domain.Question) error {
	return f.createFn(ctx, question)
}

func (f *fakeQuestionStore) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeQuestionStore) List(
	ctx context.Context,
	filter store.QuestionFilter,
	page, limit int,
) (*store.QuestionPage, error) {
	return f.listFn(ctx, filter, page, limit)
}

func (f *fakeQuestionStore) Update(ctx context.Context, question *domain.Question) error {
	return f.updateFn(ctx, question)
}

func (f *fakeQuestionStore) Delete(ctx context.Context, id int64) error {
	return f.deleteFn(ctx, id)
}

func existingCategory(id int64) *fakeCategoryStore {
	return &fakeCategoryStore{
		getByIDFn: func(ctx context.Context, got int64) (*domain.Category, error) {
			if got == id {
				return &domain.Category{ID: id, Name: "General"}, nil
			}
			return nil, store.ErrCategoryNotFound
		},
	}
}

func validQuestion(content string) *domain.Question {
	return &domain.Question{
		Content:       content,
		Type:          "single_choice",
		CorrectAnswer: "42",
		Options:       []string{"41", "42"},
	}
}

func TestBatchCreateQuestionsAllValid(t *testing.T) {
	t.Parallel()
	var nextID int64
	questions := &fakeQuestionStore{
		createFn: func(ctx context.Context, question *domain.Question) error {
			nextID++
			question.ID = nextID
			return nil
		},
	}

	svc := NewContentService(existingCategory(7), questions, nil)
	result, err := svc.BatchCreateQuestions(context.Background(), 7, []*domain.Question{
		validQuestion("q1"), validQuestion("q2"),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, result.Outcomes, 2)
	assert.True(t, result.Outcomes[0].Success)
	assert.Equal(t, int64(1), result.Outcomes[0].ID)
	assert.True(t, result.Outcomes[1].Success)
}

func TestBatchCreateQuestionsAssignsCategory(t *testing.T) {
	t.Parallel()
	var seen []*domain.Question
	questions := &fakeQuestionStore{
		createFn: func(ctx context.Context, question *domain.Question) error {
			seen = append(seen, question)
			return nil
		},
	}

	svc := NewContentService(existingCategory(7), questions, nil)
	_, err := svc.BatchCreateQuestions(context.Background(), 7, []*domain.Question{
		validQuestion("q1"),
	})

	require.NoError(t, err)
	require.Len(t, seen, 1)
	require.NotNil(t, seen[0].CategoryID)
	assert.Equal(t, int64(7), *seen[0].CategoryID)
}

func TestBatchCreateQuestionsSkipsInvalid(t *testing.T) {
	t.Parallel()
	inserted := 0
	questions := &fakeQuestionStore{
		createFn: func(ctx context.Context, question *domain.Question) error {
			inserted++
			return nil
		},
	}

	missingAnswer := validQuestion("broken")
	missingAnswer.CorrectAnswer = ""

	svc := NewContentService(existingCategory(7), questions, nil)
	result, err := svc.BatchCreateQuestions(context.Background(), 7, []*domain.Question{
		validQuestion("ok"), missingAnswer,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, inserted)
	// Skipped members do not appear in the per-item outcomes.
	assert.Len(t, result.Outcomes, 1)
}

func TestBatchCreateQuestionsAllInvalid(t *testing.T) {
	t.Parallel()
	questions := &fakeQuestionStore{
		createFn: func(ctx context.Context, question *domain.Question) error {
			t.Fatal("no insert should happen when every question is invalid")
			return nil
		},
	}

	empty := &domain.Question{}

	svc := NewContentService(existingCategory(7), questions, nil)
	result, err := svc.BatchCreateQuestions(context.Background(), 7, []*domain.Question{empty})

	assert.ErrorIs(t, err, ErrNoValidQuestions)
	assert.Nil(t, result)
}

func TestBatchCreateQuestionsUnknownCategory(t *testing.T) {
	t.Parallel()
	questions := &fakeQuestionStore{
		createFn: func(ctx context.Context, question *domain.Question) error {
			t.Fatal("no insert should happen for an unknown category")
			return nil
		},
	}

	svc := NewContentService(existingCategory(7), questions, nil)
	result, err := svc.BatchCreateQuestions(context.Background(), 99, []*domain.Question{
		validQuestion("q1"),
	})

	assert.ErrorIs(t, err, store.ErrCategoryNotFound)
	assert.Nil(t, result)
}

func TestBatchCreateQuestionsPartialFailure(t *testing.T) {
	t.Parallel()
	calls := 0
	questions := &fakeQuestionStore{
		createFn: func(ctx context.Context, question *domain.Question) error {
			calls++
			if calls == 2 {
				return errors.New("unique violation")
			}
			question.ID = int64(calls)
			return nil
		},
	}

	svc := NewContentService(existingCategory(7), questions, nil)
	result, err := svc.BatchCreateQuestions(context.Background(), 7, []*domain.Question{
		validQuestion("q1"), validQuestion("q2"), validQuestion("q3"),
	})

	var batchErr *BatchPartialFailureError
	require.ErrorAs(t, err, &batchErr)
	require.NotNil(t, result)

	// Earlier and later insertions stay; there is no rollback.
	assert.Equal(t, 2, result.Inserted)
	require.Len(t, result.Outcomes, 3)
	assert.True(t, result.Outcomes[0].Success)
	assert.False(t, result.Outcomes[1].Success)
	assert.Contains(t, result.Outcomes[1].Error, "unique violation")
	assert.True(t, result.Outcomes[2].Success)
	assert.Same(t, result, batchErr.Result)
}

func TestCreateQuestionValidatesCategory(t *testing.T) {
	t.Parallel()
	questions := &fakeQuestionStore{
		createFn: func(ctx context.Context, question *domain.Question) error {
			t.Fatal("no insert should happen for an unknown category")
			return nil
		},
	}

	svc := NewContentService(existingCategory(7), questions, nil)

	bad := validQuestion("q1")
	missing := int64(99)
	bad.CategoryID = &missing

	err := svc.CreateQuestion(context.Background(), bad)
	assert.ErrorIs(t, err, store.ErrCategoryNotFound)
}

func TestCreateQuestionWithoutCategory(t *testing.T) {
	t.Parallel()
	created := false
	questions := &fakeQuestionStore{
		createFn: func(ctx context.Context, question *domain.Question) error {
			created = true
			return nil
		},
	}
	categories := &fakeCategoryStore{
		getByIDFn: func(ctx context.Context, id int64) (*domain.Category, error) {
			t.Fatal("category lookup should be skipped when no category is set")
			return nil, nil
		},
	}

	svc := NewContentService(categories, questions, nil)
	err := svc.CreateQuestion(context.Background(), validQuestion("q1"))

	require.NoError(t, err)
	assert.True(t, created)
}

func TestUpdateQuestionChecksExistence(t *testing.T) {
	t.Parallel()
	questions := &fakeQuestionStore{
		getByIDFn: func(ctx context.Context, id int64) (*domain.Question, error) {
			return nil, store.ErrQuestionNotFound
		},
		updateFn: func(ctx context.Context, question *domain.Question) error {
			t.Fatal("update should not be reached for a missing question")
			return nil
		},
	}

	svc := NewContentService(existingCategory(7), questions, nil)

	q := validQuestion("q1")
	q.ID = 5
	err := svc.UpdateQuestion(context.Background(), q)

	assert.ErrorIs(t, err, store.ErrQuestionNotFound)
}
