package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/docsum-api/internal/domain"
	"github.com/phrazzld/docsum-api/internal/platform/logger"
	"github.com/phrazzld/docsum-api/internal/store"
)

// PostgreSQL error codes
const pgUniqueViolationCode = "23505"

// TaskStore implements the store.TaskStore interface using a PostgreSQL
// database as the storage backend. Atomic updates rely on row-level
// locking (SELECT ... FOR UPDATE), so mutations of one task id serialize
// without blocking updates to sibling rows.
type TaskStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTaskStore creates a new PostgreSQL implementation of the TaskStore
// interface. The database connection should be initialized and managed
// by the caller. If logger is nil, a default logger will be used.
func NewTaskStore(db *sql.DB, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.Create.
// Returns validation errors from the domain Task if data is invalid, and
// store.ErrDuplicate if a task with the same id already exists.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return err
	}

	resultJSON, err := marshalResult(task.Result)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, original_name, storage_handle, task_type, status, created_at, updated_at, result, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.OriginalName,
		task.StorageHandle,
		task.Type,
		task.Status,
		task.CreatedAt,
		task.UpdatedAt,
		resultJSON,
		nullString(task.Error),
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			log.Warn("duplicate task id during create",
				slog.String("task_id", task.ID))
			return fmt.Errorf("%w: task %s", store.ErrDuplicate, task.ID)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return err
	}

	log.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("status", string(task.Status)))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *TaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := getTaskByID(ctx, s.db, id, false)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("task not found", slog.String("task_id", id))
			return nil, err
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return nil, err
	}

	return task, nil
}

// List implements store.TaskStore.List. Task ids are ULIDs, so ordering
// by id yields creation order.
func (s *TaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tasks, err := listTasks(ctx, s.db)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, err
	}

	return tasks, nil
}

// Update implements store.TaskStore.Update. The row is locked for the
// duration of the transaction, which prevents lost updates from
// concurrent read-modify-write cycles on the same id.
func (s *TaskStore) Update(ctx context.Context, id string, mutate store.TaskMutation) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		task, err := getTaskByID(ctx, tx, id, true)
		if err != nil {
			return err
		}

		if err := mutate(task); err != nil {
			return err
		}

		if err := task.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		// ID is assigned once and immutable.
		if task.ID != id {
			return fmt.Errorf("%w: task id is immutable", store.ErrUpdateFailed)
		}

		resultJSON, err := marshalResult(task.Result)
		if err != nil {
			return err
		}

		query := `
			UPDATE tasks
			SET status = $1, updated_at = $2, result = $3, error = $4
			WHERE id = $5
		`
		if _, err := tx.ExecContext(
			ctx,
			query,
			task.Status,
			task.UpdatedAt,
			resultJSON,
			nullString(task.Error),
			id,
		); err != nil {
			return err
		}

		updated = task
		return nil
	})

	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Error("failed to update task",
				slog.String("error", err.Error()),
				slog.String("task_id", id))
		}
		return nil, err
	}

	log.Debug("task updated",
		slog.String("task_id", id),
		slog.String("status", string(updated.Status)))
	return updated, nil
}

const selectTaskQuery = `
	SELECT id, original_name, storage_handle, task_type, status, created_at, updated_at, result, error
	FROM tasks
`

// getTaskByID fetches one task through any DBTX, so the same read path
// serves plain lookups and transactional ones. lock adds FOR UPDATE for
// callers holding a transaction.
func getTaskByID(ctx context.Context, db store.DBTX, id string, lock bool) (*domain.Task, error) {
	query := selectTaskQuery + ` WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	task, err := scanTask(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", id, store.ErrTaskNotFound)
		}
		return nil, err
	}

	return task, nil
}

// listTasks reads every task through any DBTX in creation order.
func listTasks(ctx context.Context, db store.DBTX) ([]*domain.Task, error) {
	rows, err := db.QueryContext(ctx, selectTaskQuery+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
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

	return tasks, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask maps one tasks row into a domain.Task.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task       domain.Task
		taskType   string
		status     string
		resultJSON []byte
		errMsg     sql.NullString
	)

	err := row.Scan(
		&task.ID,
		&task.OriginalName,
		&task.StorageHandle,
		&taskType,
		&status,
		&task.CreatedAt,
		&task.UpdatedAt,
		&resultJSON,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}

	task.Type = domain.TaskType(taskType)
	task.Status = domain.TaskStatus(status)
	task.Error = errMsg.String

	if len(resultJSON) > 0 {
		var result domain.TaskResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task result: %w", err)
		}
		task.Result = &result
	}

	return &task, nil
}

// marshalResult serializes a task result for the JSONB column, keeping
// NULL for tasks without one.
func marshalResult(result *domain.TaskResult) ([]byte, error) {
	if result == nil {
		return nil, nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task result: %w", err)
	}
	return data, nil
}

// nullString maps the domain's empty-means-absent convention onto a
// nullable column.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
