package store

import (
	"context"
	"time"

	"github.com/chengzhnag/taskboard/internal/domain"
)

// TaskUpdateAllowList is the fixed set of columns a partial task update may
// touch. Fields outside this list are silently dropped, never an error.
// Keeping this as an explicit constant set (rather than reflecting over the
// input) avoids accidental exposure of internal columns.
var TaskUpdateAllowList = map[string]bool{
	"type":            true,
	"title":           true,
	"description":     true,
	"frequency_type":  true,
	"specific_date":   true,
	"cron_expression": true,
	"script":          true,
	"extra_data":      true,
	"status":          true,
}

// TaskFilter narrows task list queries. Empty fields are ignored; when both
// are set they are AND-combined.
type TaskFilter struct {
	Type   string
	Status string
}

// TaskPage is one page of a filtered task listing plus the total count of
// rows matching the same filter, computed by an independent query.
type TaskPage struct {
	Data  []*domain.Task
	Total int64
	Page  int
	Limit int
}

// TaskStore defines the interface for persisting tasks.
type TaskStore interface {
	// Create persists a new task. Returns ErrTaskIDExists if the id is taken.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by id. Returns ErrTaskNotFound if absent.
	GetByID(ctx context.Context, id string) (*domain.Task, error)

	// Update applies a partial field update. Only fields named in
	// TaskUpdateAllowList are written; the rest are dropped. updated_at is
	// always stamped. A non-existent id affects zero rows and is reported
	// as success (rows=0), matching the admin API contract.
	Update(ctx context.Context, id string, fields map[string]any) (rows int64, err error)

	// SetStatus writes the status column directly, bypassing the lifecycle
	// state machine. Same zero-rows-is-success semantics as Update.
	SetStatus(ctx context.Context, id string, status domain.TaskStatus) error

	// ListDue returns all tasks with pending status and next_run_at at or
	// before the given instant.
	ListDue(ctx context.Context, now time.Time) ([]*domain.Task, error)

	// Claim conditionally moves a task from pending to processing. Returns
	// false when the task was already claimed (or no longer pending), which
	// turns concurrent sweeps into no-ops for the loser.
	Claim(ctx context.Context, id string) (bool, error)

	// List returns one page of tasks matching the filter, newest first,
	// with the total count for the same predicate. page is 1-indexed.
	List(ctx context.Context, filter TaskFilter, page, limit int) (*TaskPage, error)

	// Delete removes a task by id. Deleting a non-existent id succeeds.
	Delete(ctx context.Context, id string) error
}
