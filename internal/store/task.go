package store

import (
	"context"

	"github.com/phrazzld/docsum-api/internal/domain"
)

// TaskMutation is applied to a task inside an atomic update. The store
// guarantees the read-modify-write of one task id never interleaves with
// another mutation of the same id. Returning an error aborts the update
// and leaves the stored record untouched.
type TaskMutation func(task *domain.Task) error

// TaskStore defines the interface for task data persistence. It is the
// single source of truth for task state.
// Version: 1.0
type TaskStore interface {
	// Create saves a new task to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id string) (*domain.Task, error)

	// List retrieves all tasks in creation order.
	// Returns an empty slice when the store is empty.
	List(ctx context.Context) ([]*domain.Task, error)

	// Update atomically applies the mutation to the task with the given
	// ID and persists the outcome. Concurrent updates to the same id are
	// serialized; updates to different ids do not block each other.
	// Returns ErrTaskNotFound if the task does not exist, or the
	// mutation's error if it rejects the change.
	Update(ctx context.Context, id string, mutate TaskMutation) (*domain.Task, error)
}
