package domain

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TaskStatus represents the processing state of a task.
type TaskStatus string

// Possible task status values. Transitions are one-directional:
// pending -> processing -> {completed, failed}.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskType selects the extraction strategy used when summarizing
// the document. It is fixed at creation time.
type TaskType string

// Possible task type values.
const (
	TaskTypeGeneral TaskType = "general"
	TaskTypeResume  TaskType = "resume"
	TaskTypeInvoice TaskType = "invoice"
)

// Common validation errors for Task
var (
	ErrEmptyTaskID        = errors.New("task ID cannot be empty")
	ErrEmptyOriginalName  = errors.New("task original name cannot be empty")
	ErrEmptyStorageHandle = errors.New("task storage handle cannot be empty")
	ErrInvalidTaskType    = errors.New("invalid task type")
	ErrInvalidTaskStatus  = errors.New("invalid task status")
	ErrNilTaskResult      = errors.New("task result cannot be nil on completion")
	ErrEmptyTaskError     = errors.New("task error cannot be empty on failure")
	ErrInvalidTransition  = errors.New("invalid task status transition")
)

// TaskResult is the canonical result shape for a completed task.
// The upstream summarization response is normalized into this shape
// before it ever reaches a Task.
type TaskResult struct {
	Summary string `json:"summary"`
}

// Task represents one document's processing request from upload
// through its terminal outcome. It is the only persistent entity.
type Task struct {
	ID            string      `json:"id"`
	OriginalName  string      `json:"original_name"`
	StorageHandle string      `json:"storage_handle"`
	Type          TaskType    `json:"task_type"`
	Status        TaskStatus  `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Result        *TaskResult `json:"result,omitempty"`
	Error         string      `json:"error,omitempty"`
}

// Task IDs are ULIDs drawn from a single monotonic entropy source so
// that ids remain strictly increasing even within one millisecond.
var (
	taskIDMu      sync.Mutex
	taskIDEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewTaskID generates a unique, creation-time-ordered task identifier.
func NewTaskID() string {
	taskIDMu.Lock()
	defer taskIDMu.Unlock()
	return ulid.MustNew(ulid.Now(), taskIDEntropy).String()
}

// NewTask creates a new Task in the pending state with a freshly
// generated ID and creation timestamp.
// Returns an error if validation fails.
func NewTask(originalName, storageHandle string, taskType TaskType) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:            NewTaskID(),
		OriginalName:  originalName,
		StorageHandle: storageHandle,
		Type:          taskType,
		Status:        TaskStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// ParseTaskType converts a raw string into a TaskType. An empty string
// selects the general strategy; anything else unknown is rejected.
func ParseTaskType(s string) (TaskType, error) {
	if s == "" {
		return TaskTypeGeneral, nil
	}

	t := TaskType(s)
	if !isValidTaskType(t) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskType, s)
	}
	return t, nil
}

// Validate checks if the Task has valid data, including the result and
// error field invariants tied to the status.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrEmptyTaskID
	}

	if t.OriginalName == "" {
		return ErrEmptyOriginalName
	}

	if t.StorageHandle == "" {
		return ErrEmptyStorageHandle
	}

	if !isValidTaskType(t.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidTaskType, t.Type)
	}

	if !isValidTaskStatus(t.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidTaskStatus, t.Status)
	}

	// Result is non-nil if and only if the task completed; Error is
	// non-empty if and only if the task failed.
	if (t.Result != nil) != (t.Status == TaskStatusCompleted) {
		if t.Result == nil {
			return ErrNilTaskResult
		}
		return fmt.Errorf("%w: result set on %s task", ErrInvalidTaskStatus, t.Status)
	}

	if (t.Error != "") != (t.Status == TaskStatusFailed) {
		if t.Error == "" {
			return ErrEmptyTaskError
		}
		return fmt.Errorf("%w: error set on %s task", ErrInvalidTaskStatus, t.Status)
	}

	return nil
}

// IsTerminal reports whether the task has reached a terminal status.
// Terminal tasks never transition again.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// MarkProcessing transitions the task from pending to processing.
// Calling it on a task already in processing is a no-op, which keeps
// crash re-runs from violating the one-directional transition rule.
func (t *Task) MarkProcessing() error {
	switch t.Status {
	case TaskStatusPending:
		t.Status = TaskStatusProcessing
		t.UpdatedAt = time.Now().UTC()
		return nil
	case TaskStatusProcessing:
		return nil
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, TaskStatusProcessing)
	}
}

// MarkCompleted transitions the task from processing to completed and
// records the final result.
func (t *Task) MarkCompleted(result *TaskResult) error {
	if result == nil {
		return ErrNilTaskResult
	}

	if t.Status != TaskStatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, TaskStatusCompleted)
	}

	t.Status = TaskStatusCompleted
	t.Result = result
	t.Error = ""
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFailed transitions the task from processing to failed and records
// the failure description.
func (t *Task) MarkFailed(errMsg string) error {
	if errMsg == "" {
		return ErrEmptyTaskError
	}

	if t.Status != TaskStatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, TaskStatusFailed)
	}

	t.Status = TaskStatusFailed
	t.Error = errMsg
	t.Result = nil
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// isValidTaskType checks if the given type is a valid TaskType.
func isValidTaskType(taskType TaskType) bool {
	switch taskType {
	case TaskTypeGeneral, TaskTypeResume, TaskTypeInvoice:
		return true
	default:
		return false
	}
}
