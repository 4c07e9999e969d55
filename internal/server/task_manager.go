package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanonone/castchain/pkg/core/selector"
	"github.com/sanonone/castchain/pkg/errs"
)

// TaskStatus defines the possible states of a task.
type TaskStatus string

const (
	TaskStatusStarted   TaskStatus = "started"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// taskRetention is how long finished tasks stay queryable.
const taskRetention = time.Hour

// Task is an asynchronous pair selection.
type Task struct {
	ID string

	mu         sync.RWMutex
	status     TaskStatus
	progress   string
	err        error
	result     *selector.Selection
	finishedAt time.Time
	cancel     context.CancelFunc
}

// TaskView is the JSON form of a Task.
type TaskView struct {
	ID              string              `json:"id"`
	Status          TaskStatus          `json:"status"`
	ProgressMessage string              `json:"progress_message,omitempty"`
	Error           string              `json:"error,omitempty"`
	Code            errs.Kind           `json:"code,omitempty"`
	Result          *selector.Selection `json:"result,omitempty"`
}

// TaskManager tracks all asynchronous tasks.
type TaskManager struct {
	tasks map[string]*Task
	mu    sync.RWMutex
	now   func() time.Time
}

// NewTaskManager creates a new task manager.
func NewTaskManager() *TaskManager {
	return &TaskManager{
		tasks: make(map[string]*Task),
		now:   time.Now,
	}
}

// NewTask registers a task and returns it. Finished tasks older than the
// retention window are dropped on the way.
func (tm *TaskManager) NewTask(cancel context.CancelFunc) *Task {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	now := tm.now()
	for id, t := range tm.tasks {
		t.mu.RLock()
		expired := !t.finishedAt.IsZero() && now.Sub(t.finishedAt) > taskRetention
		t.mu.RUnlock()
		if expired {
			delete(tm.tasks, id)
		}
	}

	task := &Task{
		ID:     uuid.New().String(),
		status: TaskStatusStarted,
		cancel: cancel,
	}
	tm.tasks[task.ID] = task
	return task
}

// GetTask safely retrieves a task by its ID.
func (tm *TaskManager) GetTask(id string) (*Task, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	task, found := tm.tasks[id]
	return task, found
}

// CancelAll cancels every task that is still running.
func (tm *TaskManager) CancelAll() {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	for _, t := range tm.tasks {
		if t.cancel != nil {
			t.cancel()
		}
	}
}

// --- Methods for updating a Task ---

// SetStatus updates the status of the task.
func (t *Task) SetStatus(status TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// SetProgress updates the progress message for the task.
func (t *Task) SetProgress(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = message
}

// SetError marks the task as failed and records the error.
func (t *Task) SetError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TaskStatusFailed
	t.err = err
	t.finishedAt = time.Now()
}

// SetResult marks the task as completed with its selection.
func (t *Task) SetResult(sel selector.Selection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = TaskStatusCompleted
	t.result = &sel
	t.finishedAt = time.Now()
}

// View returns a consistent snapshot of the task.
func (t *Task) View() TaskView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v := TaskView{ID: t.ID, Status: t.status, ProgressMessage: t.progress, Result: t.result}
	if t.err != nil {
		v.Error = t.err.Error()
		v.Code = errs.KindOf(t.err)
	}
	return v
}
