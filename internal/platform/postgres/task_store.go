package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/chengzhnag/taskboard/internal/domain"
	"github.com/chengzhnag/taskboard/internal/platform/logger"
	"github.com/chengzhnag/taskboard/internal/store"
)

// taskColumns is the select list shared by every task read.
const taskColumns = `id, type, title, description, frequency_type, specific_date,
	cron_expression, script, extra_data, status, next_run_at, created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create.
// Returns store.ErrTaskIDExists when the id is already taken.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	extraData := []byte(task.ExtraData)
	if len(extraData) == 0 {
		extraData = nil
	}

	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Type,
		task.Title,
		nullString(task.Description),
		task.FrequencyType,
		task.SpecificDate,
		nullString(task.CronExpression),
		nullString(task.Script),
		extraData,
		task.Status,
		task.NextRunAt,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate task id during create", slog.String("task_id", task.ID))
			return fmt.Errorf("%w: %v", store.ErrTaskIDExists, err)
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return MapError(err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("type", string(task.Type)))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by id",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return nil, MapError(err)
	}

	return task, nil
}

// Update implements store.TaskStore.Update.
// Fields outside store.TaskUpdateAllowList are dropped without error.
// updated_at is stamped even when the filtered field set is empty.
// A non-existent id affects zero rows, which is reported as success.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	id string,
	fields map[string]any,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	setClauses, args := buildTaskUpdate(fields)

	// updated_at is always stamped, even for an empty update.
	args = append(args, time.Now().UTC())
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "),
		len(args),
	)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return 0, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return 0, err
	}

	if rows == 0 {
		log.Debug("no task found to update, reporting zero-effect success",
			slog.String("task_id", id))
	}

	return rows, nil
}

// SetStatus implements store.TaskStore.SetStatus. This is the narrow admin
// form of Update restricted to the status column; it bypasses the lifecycle
// state machine and persists whatever value it is given.
func (s *PostgresTaskStore) SetStatus(
	ctx context.Context,
	id string,
	status domain.TaskStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3`

	_, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to set task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id),
			slog.String("status", string(status)))
		return MapError(err)
	}

	return nil
}

// ListDue implements store.TaskStore.ListDue.
func (s *PostgresTaskStore) ListDue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE status = $1 AND next_run_at <= $2
		ORDER BY next_run_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, domain.TaskStatusPending, now)
	if err != nil {
		log.Error("failed to query due tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	tasks, err := scanTasks(rows)
	if err != nil {
		log.Error("failed to scan due task rows", slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("found due tasks", slog.Int("count", len(tasks)))
	return tasks, nil
}

// Claim implements store.TaskStore.Claim. The conditional WHERE on the
// pending status makes the pending -> processing move atomic: of two
// concurrent sweeps only one sees an affected row.
func (s *PostgresTaskStore) Claim(ctx context.Context, id string) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		domain.TaskStatusProcessing,
		time.Now().UTC(),
		id,
		domain.TaskStatusPending,
	)
	if err != nil {
		log.Error("failed to claim task",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

// List implements store.TaskStore.List. The total is computed by an
// independent COUNT over the same predicate, never derived from the page.
func (s *PostgresTaskStore) List(
	ctx context.Context,
	filter store.TaskFilter,
	page, limit int,
) (*store.TaskPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	where, args := buildTaskFilter(filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM tasks" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	pageQuery := fmt.Sprintf(
		"SELECT "+taskColumns+" FROM tasks%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where,
		len(args)+1,
		len(args)+2,
	)
	pageArgs := append(append([]any{}, args...), limit, (page-1)*limit)

	rows, err := s.db.QueryContext(ctx, pageQuery, pageArgs...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	tasks, err := scanTasks(rows)
	if err != nil {
		log.Error("failed to scan task rows", slog.String("error", err.Error()))
		return nil, err
	}

	return &store.TaskPage{
		Data:  tasks,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// Delete implements store.TaskStore.Delete.
// Deleting a non-existent id succeeds with zero effect.
func (s *PostgresTaskStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return MapError(err)
	}

	log.Info("task deleted", slog.String("task_id", id))
	return nil
}

// buildTaskFilter assembles the WHERE clause for a task filter. Conditions
// are AND-combined equality checks; empty filter fields are ignored.
func buildTaskFilter(filter store.TaskFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// buildTaskUpdate converts a partial field map into SET clauses and args,
// dropping any field not in the allow-list. Keys are sorted so the generated
// SQL is deterministic.
func buildTaskUpdate(fields map[string]any) ([]string, []any) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if store.TaskUpdateAllowList[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var setClauses []string
	var args []any
	for _, key := range keys {
		args = append(args, fields[key])
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", key, len(args)))
	}
	return setClauses, args
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row into a domain.Task.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var description, cronExpression, script sql.NullString
	var specificDate sql.NullTime
	var extraData []byte

	err := row.Scan(
		&task.ID,
		&task.Type,
		&task.Title,
		&description,
		&task.FrequencyType,
		&specificDate,
		&cronExpression,
		&script,
		&extraData,
		&task.Status,
		&task.NextRunAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	task.CronExpression = cronExpression.String
	task.Script = script.String
	if specificDate.Valid {
		t := specificDate.Time
		task.SpecificDate = &t
	}
	if len(extraData) > 0 {
		task.ExtraData = extraData
	}

	return &task, nil
}

// scanTasks drains a result set of task rows.
func scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// closeRows closes a result set, logging close failures.
func closeRows(rows *sql.Rows, log *slog.Logger) {
	if err := rows.Close(); err != nil {
		log.Error("failed to close rows", slog.String("error", err.Error()))
	}
}
