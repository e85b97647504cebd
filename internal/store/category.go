package store

import (
	"context"

	"github.com/chengzhnag/taskboard/internal/domain"
)

// CategoryStore defines the interface for persisting question categories.
type CategoryStore interface {
	// Create persists a new category and assigns its id.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category by id. Returns ErrCategoryNotFound if absent.
	GetByID(ctx context.Context, id int64) (*domain.Category, error)

	// List returns all categories ordered by id.
	List(ctx context.Context) ([]*domain.Category, error)

	// Update overwrites an existing category's name and description.
	// Returns ErrCategoryNotFound if the category does not exist.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes a category by id.
	// Returns ErrCategoryNotFound if the category does not exist.
	Delete(ctx context.Context, id int64) error
}
