// Package memory provides an in-memory implementation of the store
// interfaces, holding task state for the lifetime of the process. It is
// used when no database is configured, and in tests.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/docsum-api/internal/domain"
	"github.com/phrazzld/docsum-api/internal/platform/logger"
	"github.com/phrazzld/docsum-api/internal/store"
)

// taskEntry holds one task record together with its own lock. Updates to
// one id serialize on the entry lock while leaving other entries free.
type taskEntry struct {
	mu   sync.Mutex
	task domain.Task
}

// TaskStore is an in-memory implementation of store.TaskStore.
type TaskStore struct {
	mu      sync.RWMutex // guards entries and order, not entry contents
	entries map[string]*taskEntry
	order   []string // ids in creation order
	logger  *slog.Logger
}

// NewTaskStore creates a new in-memory task store.
// If logger is nil, a default logger will be used.
func NewTaskStore(logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		entries: make(map[string]*taskEntry),
		logger:  logger.With(slog.String("component", "memory_task_store")),
	}
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.Create.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[task.ID]; ok {
		return fmt.Errorf("%w: task %s", store.ErrDuplicate, task.ID)
	}

	s.entries[task.ID] = &taskEntry{task: *cloneTask(task)}
	s.order = append(s.order, task.ID)

	log.Debug("task created",
		slog.String("task_id", task.ID),
		slog.String("status", string(task.Status)))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return cloneTask(&entry.task), nil
}

// List implements store.TaskStore.List. Tasks are returned in creation order.
func (s *TaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	s.mu.RLock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	s.mu.RUnlock()

	tasks := make([]*domain.Task, 0, len(ids))
	for _, id := range ids {
		task, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Update implements store.TaskStore.Update. The mutation runs against a
// copy of the record under the entry lock; the copy replaces the stored
// record only if the mutation succeeds and the result still validates.
func (s *TaskStore) Update(ctx context.Context, id string, mutate store.TaskMutation) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	updated := cloneTask(&entry.task)
	if err := mutate(updated); err != nil {
		return nil, err
	}

	if err := updated.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	// ID is assigned once and immutable.
	if updated.ID != id {
		return nil, fmt.Errorf("%w: task id is immutable", store.ErrUpdateFailed)
	}

	entry.task = *cloneTask(updated)

	log.Debug("task updated",
		slog.String("task_id", id),
		slog.String("status", string(updated.Status)))
	return updated, nil
}

// entry fetches the entry for an id. Entries are never removed, so the
// returned pointer stays valid after the map lock is released.
func (s *TaskStore) entry(id string) (*taskEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, store.ErrTaskNotFound)
	}
	return entry, nil
}

// cloneTask deep-copies a task so callers never share memory with the
// stored record.
func cloneTask(t *domain.Task) *domain.Task {
	clone := *t
	if t.Result != nil {
		result := *t.Result
		clone.Result = &result
	}
	return &clone
}
