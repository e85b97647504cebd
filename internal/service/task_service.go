// Package service implements the application's business operations on top of
// the store interfaces.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/chengzhnag/taskboard/internal/domain"
	"github.com/chengzhnag/taskboard/internal/platform/logger"
	"github.com/chengzhnag/taskboard/internal/store"
)

// ScriptHook is invoked by the sweep for scheduled_js tasks. Actual script
// execution is out of scope; the default hook only logs intent so an external
// executor can be attached later. A hook error fails that task alone.
type ScriptHook func(ctx context.Context, task *domain.Task) error

// SweepResult summarizes one poll-and-transition pass over due tasks.
type SweepResult struct {
	Due       int `json:"due"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Processed returns the number of tasks this sweep transitioned.
func (r *SweepResult) Processed() int {
	return r.Completed + r.Failed
}

// TaskService provides task lifecycle operations.
type TaskService interface {
	// Create persists a new task with pending status and next_run_at = now.
	Create(ctx context.Context, task *domain.Task) error

	// Get retrieves a task by id.
	Get(ctx context.Context, id string) (*domain.Task, error)

	// Update applies an allow-listed partial update. Updating a
	// non-existent id succeeds with zero effect.
	Update(ctx context.Context, id string, fields map[string]any) error

	// SetStatus writes an arbitrary status value, bypassing the sweep's
	// state machine. This is the intentionally permissive admin override.
	SetStatus(ctx context.Context, id string, status domain.TaskStatus) error

	// List returns one page of tasks matching the filter plus the total
	// count for the same predicate.
	List(ctx context.Context, filter store.TaskFilter, page, limit int) (*store.TaskPage, error)

	// ListDue returns tasks with pending status due at or before now.
	ListDue(ctx context.Context) ([]*domain.Task, error)

	// Sweep claims and transitions every due task. Each task is processed
	// independently; one failure never blocks the rest.
	Sweep(ctx context.Context) (*SweepResult, error)

	// Delete removes a task. Deleting a non-existent id succeeds.
	Delete(ctx context.Context, id string) error
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	tasks      store.TaskStore
	scriptHook ScriptHook
	logger     *slog.Logger
	now        func() time.Time
}

// NewTaskService creates a new TaskService backed by the given store.
// A nil scriptHook installs the default log-only hook.
func NewTaskService(
	tasks store.TaskStore,
	scriptHook ScriptHook,
	log *slog.Logger,
) TaskService {
	if log == nil {
		log = slog.Default()
	}
	if scriptHook == nil {
		scriptHook = logOnlyScriptHook
	}

	return &taskServiceImpl{
		tasks:      tasks,
		scriptHook: scriptHook,
		logger:     log.With(slog.String("component", "task_service")),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// logOnlyScriptHook records the intent to execute a script without running it.
func logOnlyScriptHook(ctx context.Context, task *domain.Task) error {
	logger.FromContext(ctx).Info("would execute script for scheduled_js task",
		slog.String("task_id", task.ID),
		slog.Int("script_length", len(task.Script)))
	return nil
}

func (s *taskServiceImpl) Create(ctx context.Context, task *domain.Task) error {
	return s.tasks.Create(ctx, task)
}

func (s *taskServiceImpl) Get(ctx context.Context, id string) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

func (s *taskServiceImpl) Update(ctx context.Context, id string, fields map[string]any) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.tasks.Update(ctx, id, fields)
	if err != nil {
		return err
	}

	// Zero rows means the id does not exist; the admin contract reports
	// that as success, not an error.
	if rows == 0 {
		log.Debug("task update affected no rows", slog.String("task_id", id))
	}
	return nil
}

func (s *taskServiceImpl) SetStatus(
	ctx context.Context,
	id string,
	status domain.TaskStatus,
) error {
	return s.tasks.SetStatus(ctx, id, status)
}

func (s *taskServiceImpl) List(
	ctx context.Context,
	filter store.TaskFilter,
	page, limit int,
) (*store.TaskPage, error) {
	return s.tasks.List(ctx, filter, page, limit)
}

func (s *taskServiceImpl) ListDue(ctx context.Context) ([]*domain.Task, error) {
	return s.tasks.ListDue(ctx, s.now())
}

// Sweep is a single poll-and-transition pass. For each due task it first
// takes a claim (conditional pending -> processing update); a task already
// claimed by a concurrent sweep is skipped. The claimed task then runs the
// script hook when it is a scheduled_js task and is transitioned to
// completed, or to failed when any step errors.
func (s *taskServiceImpl) Sweep(ctx context.Context) (*SweepResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	due, err := s.tasks.ListDue(ctx, s.now())
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Due: len(due)}

	for _, task := range due {
		claimed, err := s.tasks.Claim(ctx, task.ID)
		if err != nil {
			log.Error("failed to claim task, skipping",
				slog.String("task_id", task.ID),
				slog.String("error", err.Error()))
			result.Skipped++
			continue
		}
		if !claimed {
			// Lost the race to a concurrent sweep.
			log.Debug("task already claimed", slog.String("task_id", task.ID))
			result.Skipped++
			continue
		}

		if err := task.Transition(domain.TaskStatusProcessing); err != nil {
			// The store claim succeeded, so the in-memory copy was stale.
			task.SetArbitraryStatus(domain.TaskStatusProcessing)
		}

		if err := s.processTask(ctx, task); err != nil {
			log.Warn("task processing failed",
				slog.String("task_id", task.ID),
				slog.String("error", err.Error()))
			s.finish(ctx, task, domain.TaskStatusFailed)
			result.Failed++
			continue
		}

		s.finish(ctx, task, domain.TaskStatusCompleted)
		result.Completed++
	}

	log.Info("sweep finished",
		slog.Int("due", result.Due),
		slog.Int("completed", result.Completed),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped))

	return result, nil
}

// processTask runs the side effects for one claimed task.
func (s *taskServiceImpl) processTask(ctx context.Context, task *domain.Task) error {
	if task.Type == domain.TaskTypeScheduledJS {
		return s.scriptHook(ctx, task)
	}
	return nil
}

// finish transitions a claimed task to its terminal status and persists it.
// A persistence failure is logged but never aborts the sweep.
func (s *taskServiceImpl) finish(
	ctx context.Context,
	task *domain.Task,
	status domain.TaskStatus,
) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Transition(status); err != nil {
		log.Error("invalid sweep transition",
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()))
		return
	}

	if err := s.tasks.SetStatus(ctx, task.ID, status); err != nil {
		log.Error("failed to persist task status",
			slog.String("task_id", task.ID),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
	}
}

func (s *taskServiceImpl) Delete(ctx context.Context, id string) error {
	return s.tasks.Delete(ctx, id)
}
