package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chengzhnag/taskboard/internal/domain"
	"github.com/chengzhnag/taskboard/internal/platform/logger"
	"github.com/chengzhnag/taskboard/internal/store"
)

// PostgresQuestionStore implements the store.QuestionStore interface using PostgreSQL.
type PostgresQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuestionStore creates a new PostgreSQL implementation of the
// QuestionStore interface. If logger is nil, a default logger will be used.
func NewPostgresQuestionStore(db store.DBTX, logger *slog.Logger) *PostgresQuestionStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "question_store")),
	}
}

// Ensure PostgresQuestionStore implements store.QuestionStore interface
var _ store.QuestionStore = (*PostgresQuestionStore)(nil)

// Create implements store.QuestionStore.Create.
// A dangling category_id trips the foreign key and maps to store.ErrInvalidEntity,
// which keeps the validate-then-insert sequence race-free at the store.
func (s *PostgresQuestionStore) Create(ctx context.Context, question *domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := question.Validate(); err != nil {
		log.Warn("question validation failed during create",
			slog.String("error", err.Error()))
		return err
	}

	options, err := question.EncodeOptions()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO questions (content, type, options, correct_answer, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err = s.db.QueryRowContext(
		ctx,
		query,
		question.Content,
		question.Type,
		options,
		question.CorrectAnswer,
		question.CategoryID,
	).Scan(&question.ID)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("dangling category reference during question create",
				slog.Any("category_id", question.CategoryID))
			return fmt.Errorf("%w: category does not exist", store.ErrInvalidEntity)
		}
		log.Error("failed to create question", slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Info("question created", slog.Int64("question_id", question.ID))
	return nil
}

// GetByID implements store.QuestionStore.GetByID.
// Returns store.ErrQuestionNotFound if the question does not exist.
func (s *PostgresQuestionStore) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT q.id, q.content, q.type, q.options, q.correct_answer, q.category_id, c.name
		FROM questions q
		LEFT JOIN categories c ON c.id = q.category_id
		WHERE q.id = $1
	`

	question, err := scanQuestion(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("question not found", slog.Int64("question_id", id))
			return nil, store.ErrQuestionNotFound
		}
		log.Error("failed to get question by id",
			slog.String("error", err.Error()),
			slog.Int64("question_id", id))
		return nil, MapError(err)
	}

	return question, nil
}

// List implements store.QuestionStore.List. Rows are left-joined with the
// category name; the total comes from an independent COUNT over the same
// predicate.
func (s *PostgresQuestionStore) List(
	ctx context.Context,
	filter store.QuestionFilter,
	page, limit int,
) (*store.QuestionPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	where, args := buildQuestionFilter(filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM questions q" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count questions", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	pageQuery := fmt.Sprintf(`
		SELECT q.id, q.content, q.type, q.options, q.correct_answer, q.category_id, c.name
		FROM questions q
		LEFT JOIN categories c ON c.id = q.category_id%s
		ORDER BY q.id DESC
		LIMIT $%d OFFSET $%d`,
		where,
		len(args)+1,
		len(args)+2,
	)
	pageArgs := append(append([]any{}, args...), limit, (page-1)*limit)

	rows, err := s.db.QueryContext(ctx, pageQuery, pageArgs...)
	if err != nil {
		log.Error("failed to query questions", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	var questions []*domain.Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			log.Error("failed to scan question row", slog.String("error", err.Error()))
			return nil, err
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning question rows", slog.String("error", err.Error()))
		return nil, err
	}

	if questions == nil {
		questions = []*domain.Question{}
	}

	return &store.QuestionPage{
		Data:  questions,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// Update implements store.QuestionStore.Update with full-row overwrite
// semantics: every writable column is rewritten.
// Returns store.ErrQuestionNotFound if the question does not exist.
func (s *PostgresQuestionStore) Update(ctx context.Context, question *domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := question.Validate(); err != nil {
		log.Warn("question validation failed during update",
			slog.String("error", err.Error()),
			slog.Int64("question_id", question.ID))
		return err
	}

	options, err := question.EncodeOptions()
	if err != nil {
		return err
	}

	query := `
		UPDATE questions
		SET content = $1, type = $2, options = $3, correct_answer = $4, category_id = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		question.Content,
		question.Type,
		options,
		question.CorrectAnswer,
		question.CategoryID,
		question.ID,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: category does not exist", store.ErrInvalidEntity)
		}
		log.Error("failed to update question",
			slog.String("error", err.Error()),
			slog.Int64("question_id", question.ID))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "question"); err != nil {
		log.Debug("question not found for update", slog.Int64("question_id", question.ID))
		return store.ErrQuestionNotFound
	}

	log.Info("question updated", slog.Int64("question_id", question.ID))
	return nil
}

// Delete implements store.QuestionStore.Delete.
// Returns store.ErrQuestionNotFound if the question does not exist.
func (s *PostgresQuestionStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete question",
			slog.String("error", err.Error()),
			slog.Int64("question_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "question"); err != nil {
		log.Debug("question not found for delete", slog.Int64("question_id", id))
		return store.ErrQuestionNotFound
	}

	log.Info("question deleted", slog.Int64("question_id", id))
	return nil
}

// buildQuestionFilter assembles the WHERE clause for a question filter.
// Conditions are AND-combined equality checks on the questions table.
func buildQuestionFilter(filter store.QuestionFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("q.category_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("q.type = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// scanQuestion reads one joined question row into a domain.Question.
func scanQuestion(row rowScanner) (*domain.Question, error) {
	var question domain.Question
	var options []byte
	var categoryID sql.NullInt64
	var categoryName sql.NullString

	err := row.Scan(
		&question.ID,
		&question.Content,
		&question.Type,
		&options,
		&question.CorrectAnswer,
		&categoryID,
		&categoryName,
	)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		id := categoryID.Int64
		question.CategoryID = &id
	}
	question.CategoryName = categoryName.String

	if err := question.DecodeOptions(options); err != nil {
		return nil, err
	}

	return &question, nil
}
