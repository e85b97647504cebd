package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/chengzhnag/taskboard/internal/domain"
	"github.com/chengzhnag/taskboard/internal/platform/logger"
	"github.com/chengzhnag/taskboard/internal/store"
)

// PostgresCategoryStore implements the store.CategoryStore interface using PostgreSQL.
type PostgresCategoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCategoryStore creates a new PostgreSQL implementation of the
// CategoryStore interface. If logger is nil, a default logger will be used.
func NewPostgresCategoryStore(db store.DBTX, logger *slog.Logger) *PostgresCategoryStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCategoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "category_store")),
	}
}

// Ensure PostgresCategoryStore implements store.CategoryStore interface
var _ store.CategoryStore = (*PostgresCategoryStore)(nil)

// Create implements store.CategoryStore.Create.
func (s *PostgresCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := category.Validate(); err != nil {
		log.Warn("category validation failed during create",
			slog.String("error", err.Error()))
		return err
	}

	query := `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		RETURNING id
	`

	err := s.db.QueryRowContext(
		ctx,
		query,
		category.Name,
		nullString(category.Description),
	).Scan(&category.ID)

	if err != nil {
		log.Error("failed to create category",
			slog.String("error", err.Error()),
			slog.String("name", category.Name))
		return MapError(err)
	}

	log.Info("category created",
		slog.Int64("category_id", category.ID),
		slog.String("name", category.Name))
	return nil
}

// GetByID implements store.CategoryStore.GetByID.
// Returns store.ErrCategoryNotFound if the category does not exist.
func (s *PostgresCategoryStore) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT id, name, description FROM categories WHERE id = $1`

	var category domain.Category
	var description sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&description,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("category not found", slog.Int64("category_id", id))
			return nil, store.ErrCategoryNotFound
		}
		log.Error("failed to get category by id",
			slog.String("error", err.Error()),
			slog.Int64("category_id", id))
		return nil, MapError(err)
	}

	category.Description = description.String
	return &category, nil
}

// List implements store.CategoryStore.List.
func (s *PostgresCategoryStore) List(ctx context.Context) ([]*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT id, name, description FROM categories ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query categories", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	var categories []*domain.Category
	for rows.Next() {
		var category domain.Category
		var description sql.NullString

		if err := rows.Scan(&category.ID, &category.Name, &description); err != nil {
			log.Error("failed to scan category row", slog.String("error", err.Error()))
			return nil, err
		}

		category.Description = description.String
		categories = append(categories, &category)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning category rows", slog.String("error", err.Error()))
		return nil, err
	}

	if categories == nil {
		categories = []*domain.Category{}
	}
	return categories, nil
}

// Update implements store.CategoryStore.Update.
// Returns store.ErrCategoryNotFound if the category does not exist.
func (s *PostgresCategoryStore) Update(ctx context.Context, category *domain.Category) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := category.Validate(); err != nil {
		log.Warn("category validation failed during update",
			slog.String("error", err.Error()),
			slog.Int64("category_id", category.ID))
		return err
	}

	query := `UPDATE categories SET name = $1, description = $2 WHERE id = $3`

	result, err := s.db.ExecContext(
		ctx,
		query,
		category.Name,
		nullString(category.Description),
		category.ID,
	)
	if err != nil {
		log.Error("failed to update category",
			slog.String("error", err.Error()),
			slog.Int64("category_id", category.ID))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "category"); err != nil {
		log.Debug("category not found for update", slog.Int64("category_id", category.ID))
		return store.ErrCategoryNotFound
	}

	log.Info("category updated", slog.Int64("category_id", category.ID))
	return nil
}

// Delete implements store.CategoryStore.Delete.
// Returns store.ErrCategoryNotFound if the category does not exist.
func (s *PostgresCategoryStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete category",
			slog.String("error", err.Error()),
			slog.Int64("category_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "category"); err != nil {
		log.Debug("category not found for delete", slog.Int64("category_id", id))
		return store.ErrCategoryNotFound
	}

	log.Info("category deleted", slog.Int64("category_id", id))
	return nil
}
