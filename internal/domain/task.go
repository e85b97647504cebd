package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// TaskType identifies what kind of work a task represents.
type TaskType string

// Possible task type values
const (
	TaskTypeTodo        TaskType = "todo"
	TaskTypeReminder    TaskType = "reminder"
	TaskTypeScheduledJS TaskType = "scheduled_js"
)

// FrequencyType describes how a task's schedule is expressed.
type FrequencyType string

// Possible frequency type values
const (
	FrequencyDaily        FrequencyType = "daily"
	FrequencySpecificDate FrequencyType = "specific_date"
	FrequencyCron         FrequencyType = "cron"
)

// TaskStatus represents the current state of a task.
// "processing" is a transient claim state used by the sweep so that
// concurrent sweeps cannot double-process the same task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Common validation errors for Task
var (
	ErrEmptyTaskTitle         = errors.New("task title cannot be empty")
	ErrEmptyTaskType          = errors.New("task type cannot be empty")
	ErrEmptyFrequencyType     = errors.New("task frequency type cannot be empty")
	ErrMissingCronExpression  = errors.New("cron expression is required for cron frequency")
	ErrMissingSpecificDate    = errors.New("specific date is required for specific_date frequency")
	ErrMissingScript          = errors.New("script is required for scheduled_js tasks")
)

// cronParser accepts standard five-field cron expressions. The expression is
// only syntax-checked at creation; the service never evaluates it for
// scheduling (tasks are swept once by timestamp).
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// Task represents a schedulable unit of work managed through the admin UI.
// IDs are short caller-supplied strings; a UUID is generated when the caller
// omits one.
type Task struct {
	ID             string          `json:"id"`
	Type           TaskType        `json:"type"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	FrequencyType  FrequencyType   `json:"frequency_type"`
	SpecificDate   *time.Time      `json:"specific_date,omitempty"`
	CronExpression string          `json:"cron_expression,omitempty"`
	Script         string          `json:"script,omitempty"`
	ExtraData      json.RawMessage `json:"extra_data,omitempty"`
	Status         TaskStatus      `json:"status"`
	NextRunAt      time.Time       `json:"next_run_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewTask creates a new Task with pending status and next_run_at set to now.
// A UUID is assigned when id is empty. Returns an error if validation fails.
func NewTask(
	id string,
	taskType TaskType,
	title string,
	frequencyType FrequencyType,
) (*Task, error) {
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	task := &Task{
		ID:            id,
		Type:          taskType,
		Title:         title,
		FrequencyType: frequencyType,
		Status:        TaskStatusPending,
		NextRunAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the required and conditionally required fields.
// Type and frequency values are checked for presence only; the status column
// deliberately carries no enum constraint (admin updates may write arbitrary
// values, see SetArbitraryStatus).
func (t *Task) Validate() error {
	if t.Type == "" {
		return ErrEmptyTaskType
	}
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}
	if t.FrequencyType == "" {
		return ErrEmptyFrequencyType
	}

	switch t.FrequencyType {
	case FrequencyCron:
		if t.CronExpression == "" {
			return ErrMissingCronExpression
		}
	case FrequencySpecificDate:
		if t.SpecificDate == nil {
			return ErrMissingSpecificDate
		}
	}

	if t.CronExpression != "" {
		if _, err := cronParser.Parse(t.CronExpression); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCronExpression, err)
		}
	}

	if t.Type == TaskTypeScheduledJS && t.Script == "" {
		return ErrMissingScript
	}

	return nil
}

// Transition applies the lifecycle state machine used by the sweep:
// pending -> processing (claim), processing -> completed | failed.
// Any other move is rejected. Admin writes that bypass the machine must go
// through SetArbitraryStatus instead.
func (t *Task) Transition(next TaskStatus) error {
	allowed := false
	switch t.Status {
	case TaskStatusPending:
		allowed = next == TaskStatusProcessing
	case TaskStatusProcessing:
		allowed = next == TaskStatusCompleted || next == TaskStatusFailed
	}

	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}

	t.Status = next
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// SetArbitraryStatus overwrites the status without consulting the state
// machine. This is the intentionally permissive admin override: the update
// endpoint may re-open completed tasks or write values outside the declared
// enum.
func (t *Task) SetArbitraryStatus(status TaskStatus) {
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
}

// IsDue reports whether the task should be picked up by a sweep at the given
// instant: pending status with next_run_at at or before now.
func (t *Task) IsDue(now time.Time) bool {
	return t.Status == TaskStatusPending && !t.NextRunAt.After(now)
}
