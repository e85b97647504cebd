package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chengzhnag/taskboard/internal/domain"
	"github.com/chengzhnag/taskboard/internal/service"
	"github.com/chengzhnag/taskboard/internal/store"
)

// fakeTaskService is a function-field fake for the service.TaskService
// interface.
type fakeTaskService struct {
	createFn    func(ctx context.Context, task *domain.Task) error
	getFn       func(ctx context.Context, id string) (*domain.Task, error)
	updateFn    func(ctx context.Context, id string, fields map[string]any) error
	setStatusFn func(ctx context.Context, id string, status domain.TaskStatus) error
	listFn      func(ctx context.Context, filter store.TaskFilter, page, limit int) (*store.TaskPage, error)
	listDueFn   func(ctx context.Context) ([]*domain.Task, error)
	sweepFn     func(ctx context.Context) (*service.SweepResult, error)
	deleteFn    func(ctx context.Context, id string) error
}

func (f *fakeTaskService) Create(ctx context.Context, task *domain.Task) error {
	return f.createFn(ctx, task)
}

func (f *fakeTaskService) Get(ctx context.Context, id string) (*domain.Task, error) {
	return f.getFn(ctx, id)
}

func (f *fakeTaskService) Update(ctx context.Context, id string, fields map[string]any) error {
	return f.updateFn(ctx, id, fields)
}

func (f *fakeTaskService) SetStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	return f.setStatusFn(ctx, id, status)
}

func (f *fakeTaskService) List(
	ctx context.Context,
	filter store.TaskFilter,
	page, limit int,
) (*store.TaskPage, error) {
	return f.listFn(ctx, filter, page, limit)
}

func (f *fakeTaskService) ListDue(ctx context.Context) ([]*domain.Task, error) {
	return f.listDueFn(ctx)
}

func (f *fakeTaskService) Sweep(ctx context.Context) (*service.SweepResult, error) {
	return f.sweepFn(ctx)
}

func (f *fakeTaskService) Delete(ctx context.Context, id string) error {
	return f.deleteFn(ctx, id)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// taskRouter mounts a TaskHandler the way the application router does.
func taskRouter(svc service.TaskService) http.Handler {
	handler := NewTaskHandler(svc, testLogger())
	r := chi.NewRouter()
	r.Post("/tasks", handler.CreateTask)
	r.Get("/tasks", handler.ListTasks)
	r.Put("/tasks/{id}", handler.UpdateTask)
	r.Delete("/tasks/{id}", handler.DeleteTask)
	r.Post("/tasks/execute", handler.ExecuteTasks)
	return r
}

func TestCreateTask(t *testing.T) {
	t.Parallel()
	var created *domain.Task
	svc := &fakeTaskService{
		createFn: func(ctx context.Context, task *domain.Task) error {
			created = task
			return nil
		},
	}
	router := taskRouter(svc)

	body := `{"id":"t1","type":"todo","title":"Water plants","frequency_type":"daily"}`
	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, created)
	assert.Equal(t, "t1", created.ID)
	assert.Equal(t, domain.TaskStatusPending, created.Status)

	var resp struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Task created", resp.Message)
	assert.NotEmpty(t, resp.Result)
}

func TestCreateTaskGeneratesID(t *testing.T) {
	t.Parallel()
	var created *domain.Task
	svc := &fakeTaskService{
		createFn: func(ctx context.Context, task *domain.Task) error {
			created = task
			return nil
		},
	}
	router := taskRouter(svc)

	body := `{"type":"todo","title":"Water plants","frequency_type":"daily"}`
	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
}

func TestCreateTaskValidation(t *testing.T) {
	t.Parallel()
	svc := &fakeTaskService{
		createFn: func(ctx context.Context, task *domain.Task) error {
			t.Fatal("create should not be reached for invalid input")
			return nil
		},
	}
	router := taskRouter(svc)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"type":"todo","frequency_type":"daily"}`},
		{"missing type", `{"title":"x","frequency_type":"daily"}`},
		{"cron frequency without expression", `{"type":"todo","title":"x","frequency_type":"cron"}`},
		{"malformed cron expression", `{"type":"todo","title":"x","frequency_type":"cron","cron_expression":"bad"}`},
		{"scheduled_js without script", `{"type":"scheduled_js","title":"x","frequency_type":"daily"}`},
		{"not json", `{{{`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp struct {
				Status string `json:"status"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
		})
	}
}

func TestListTasksPagination(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "", 1, 10},
		{"explicit page and limit", "?page=3&limit=25", 3, 25},
		{"limit above cap is clamped", "?limit=500", 1, 100},
		{"garbage falls back to defaults", "?page=zero&limit=-4", 1, 10},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var gotPage, gotLimit int
			svc := &fakeTaskService{
				listFn: func(ctx context.Context, filter store.TaskFilter, page, limit int) (*store.TaskPage, error) {
					gotPage, gotLimit = page, limit
					return &store.TaskPage{Data: []*domain.Task{}, Page: page, Limit: limit}, nil
				},
			}
			router := taskRouter(svc)

			req := httptest.NewRequest(http.MethodGet, "/tasks"+tc.query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.wantPage, gotPage)
			assert.Equal(t, tc.wantLimit, gotLimit)
		})
	}
}

func TestListTasksFilter(t *testing.T) {
	t.Parallel()
	var gotFilter store.TaskFilter
	svc := &fakeTaskService{
		listFn: func(ctx context.Context, filter store.TaskFilter, page, limit int) (*store.TaskPage, error) {
			gotFilter = filter
			return &store.TaskPage{Data: []*domain.Task{}, Page: page, Limit: limit}, nil
		},
	}
	router := taskRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/tasks?type=todo&status=completed", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "todo", gotFilter.Type)
	assert.Equal(t, "completed", gotFilter.Status)
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()
	var gotID string
	var gotFields map[string]any
	svc := &fakeTaskService{
		updateFn: func(ctx context.Context, id string, fields map[string]any) error {
			gotID = id
			gotFields = fields
			return nil
		},
	}
	router := taskRouter(svc)

	body := `{"title":"Renamed","status":"archived","extra_data":{"k":"v"}}`
	req := httptest.NewRequest(http.MethodPut, "/tasks/t1", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t1", gotID)
	assert.Equal(t, "Renamed", gotFields["title"])
	assert.Equal(t, "archived", gotFields["status"])

	// extra_data is re-encoded to raw bytes for the JSONB column.
	raw, ok := gotFields["extra_data"].([]byte)
	require.True(t, ok, "extra_data should be normalized to []byte, got %T", gotFields["extra_data"])
	assert.JSONEq(t, `{"k":"v"}`, string(raw))
}

func TestUpdateTaskNonExistentReportsSuccess(t *testing.T) {
	t.Parallel()
	svc := &fakeTaskService{
		updateFn: func(ctx context.Context, id string, fields map[string]any) error {
			// The service already maps zero rows to success.
			return nil
		},
	}
	router := taskRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/tasks/ghost", bytes.NewBufferString(`{"title":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestExecuteTasks(t *testing.T) {
	t.Parallel()
	svc := &fakeTaskService{
		sweepFn: func(ctx context.Context) (*service.SweepResult, error) {
			return &service.SweepResult{Due: 3, Completed: 2, Failed: 1}, nil
		},
	}
	router := taskRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/tasks/execute", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Result  struct {
			Due       int `json:"due"`
			Completed int `json:"completed"`
			Failed    int `json:"failed"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "3 tasks executed", resp.Message)
	assert.Equal(t, 3, resp.Result.Due)
	assert.Equal(t, 2, resp.Result.Completed)
}

// memoryTaskStore is a stateful in-memory store used by the end-to-end
// handler scenario below.
type memoryTaskStore struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{tasks: make(map[string]*domain.Task)}
}

func (m *memoryTaskStore) Create(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[task.ID]; exists {
		return store.ErrTaskIDExists
	}
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *memoryTaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (m *memoryTaskStore) Update(
	ctx context.Context,
	id string,
	fields map[string]any,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return 0, nil
	}
	if title, ok := fields["title"].(string); ok {
		task.Title = title
	}
	if status, ok := fields["status"].(string); ok {
		task.Status = domain.TaskStatus(status)
	}
	return 1, nil
}

func (m *memoryTaskStore) SetStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if task, ok := m.tasks[id]; ok {
		task.Status = status
	}
	return nil
}

func (m *memoryTaskStore) ListDue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*domain.Task
	for _, task := range m.tasks {
		if task.IsDue(now) {
			copied := *task
			due = append(due, &copied)
		}
	}
	return due, nil
}

func (m *memoryTaskStore) Claim(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.Status != domain.TaskStatusPending {
		return false, nil
	}
	task.Status = domain.TaskStatusProcessing
	return true, nil
}

func (m *memoryTaskStore) List(
	ctx context.Context,
	filter store.TaskFilter,
	page, limit int,
) (*store.TaskPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data := []*domain.Task{}
	for _, task := range m.tasks {
		if filter.Type != "" && string(task.Type) != filter.Type {
			continue
		}
		if filter.Status != "" && string(task.Status) != filter.Status {
			continue
		}
		copied := *task
		data = append(data, &copied)
	}
	return &store.TaskPage{Data: data, Total: int64(len(data)), Page: page, Limit: limit}, nil
}

func (m *memoryTaskStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

func TestTaskLifecycleScenario(t *testing.T) {
	t.Parallel()
	taskStore := newMemoryTaskStore()
	svc := service.NewTaskService(taskStore, nil, testLogger())
	router := taskRouter(svc)

	// Create a task due immediately.
	body := `{"id":"sweep-me","type":"todo","title":"Run once","frequency_type":"daily"}`
	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// It shows up as pending in the listing.
	req = httptest.NewRequest(http.MethodGet, "/tasks?status=pending", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Result struct {
			Total int64 `json:"total"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.Equal(t, int64(1), listResp.Result.Total)

	// A sweep picks it up and completes it.
	req = httptest.NewRequest(http.MethodPost, "/tasks/execute", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var execResp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &execResp))
	assert.Equal(t, "1 tasks executed", execResp.Message)

	final, err := taskStore.GetByID(context.Background(), "sweep-me")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, final.Status)

	// A second sweep finds nothing due.
	req = httptest.NewRequest(http.MethodPost, "/tasks/execute", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &execResp))
	assert.Equal(t, "0 tasks executed", execResp.Message)
}
