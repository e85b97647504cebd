package domain

import "errors"

// Common validation errors for Category
var (
	ErrEmptyCategoryName = errors.New("category name cannot be empty")
)

// Category groups quiz questions. IDs are store-assigned integers.
// Name uniqueness is by convention only and not enforced.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NewCategory creates a Category with the given name and optional description.
// Returns an error if the name is empty.
func NewCategory(name, description string) (*Category, error) {
	category := &Category{
		Name:        name,
		Description: description,
	}

	if err := category.Validate(); err != nil {
		return nil, err
	}

	return category, nil
}

// Validate checks that required fields are present.
func (c *Category) Validate() error {
	if c.Name == "" {
		return ErrEmptyCategoryName
	}
	return nil
}
