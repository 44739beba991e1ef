package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/docsum-api/internal/chunk"
	"github.com/phrazzld/docsum-api/internal/domain"
	"github.com/phrazzld/docsum-api/internal/platform/logger"
	"github.com/phrazzld/docsum-api/internal/store"
)

// Common constructor errors
var (
	ErrNilTaskStore   = errors.New("task store cannot be nil")
	ErrNilResolver    = errors.New("document resolver cannot be nil")
	ErrNilExtractor   = errors.New("text extractor cannot be nil")
	ErrNilSummarizer  = errors.New("summarizer cannot be nil")
	ErrInvalidChunkSz = errors.New("max chunk size must be positive")
)

// DocumentResolver maps a task's storage handle to a readable path on
// local storage.
type DocumentResolver interface {
	DocumentPath(handle string) (string, error)
}

// TextExtractor produces readable text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ChunkSummarizer turns ordered document chunks into one aggregated
// result under the given task type's instruction strategy.
type ChunkSummarizer interface {
	Run(ctx context.Context, chunks []string, taskType domain.TaskType) (*domain.TaskResult, error)
}

// Processor executes the summarization pipeline for stored tasks.
//
// Process calls for the same task id are serialized so that two
// concurrent requests cannot both run the pipeline for one task; the
// second caller observes the state the first one left behind.
type Processor struct {
	taskStore    store.TaskStore
	resolver     DocumentResolver
	extractor    TextExtractor
	summarizer   ChunkSummarizer
	maxChunkSize int
	logger       *slog.Logger

	mu    sync.Mutex
	locks map[string]*taskLock
}

// taskLock serializes pipeline runs for one task id. The refcount lets
// the map entry be dropped once no caller holds or awaits the lock.
type taskLock struct {
	mu   sync.Mutex
	refs int
}

// NewProcessor creates a task processor.
// If logger is nil, a default logger will be used.
func NewProcessor(
	taskStore store.TaskStore,
	resolver DocumentResolver,
	extractor TextExtractor,
	summarizer ChunkSummarizer,
	maxChunkSize int,
	logger *slog.Logger,
) (*Processor, error) {
	if taskStore == nil {
		return nil, ErrNilTaskStore
	}
	if resolver == nil {
		return nil, ErrNilResolver
	}
	if extractor == nil {
		return nil, ErrNilExtractor
	}
	if summarizer == nil {
		return nil, ErrNilSummarizer
	}
	if maxChunkSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSz, maxChunkSize)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{
		taskStore:    taskStore,
		resolver:     resolver,
		extractor:    extractor,
		summarizer:   summarizer,
		maxChunkSize: maxChunkSize,
		logger:       logger.With(slog.String("component", "task_processor")),
		locks:        make(map[string]*taskLock),
	}, nil
}

// Process runs the summarization pipeline for the task with the given
// id and returns the task in its resulting state.
//
// Tasks already in a terminal state are returned as-is; re-processing
// a completed or failed task is an idempotent no-op. Pipeline failures
// (unreadable document, upstream inference error) are recorded on the
// task itself — the task comes back with status failed and a nil
// error. A non-nil error means the task's state could not be
// determined or persisted: the id is unknown, or the store rejected a
// transition.
func (p *Processor) Process(ctx context.Context, id string) (*domain.Task, error) {
	unlock := p.lockTask(id)
	defer unlock()

	log := logger.FromContextOrDefault(ctx, p.logger).With(slog.String("task_id", id))

	task, err := p.taskStore.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	if task.IsTerminal() {
		log.Debug("task already in terminal state, skipping pipeline",
			slog.String("status", string(task.Status)))
		return task, nil
	}

	// A task found in processing state belongs to a run that never
	// finished (for example a crash mid-pipeline). MarkProcessing
	// treats that as a no-op, so the pipeline simply runs again.
	task, err = p.taskStore.Update(ctx, id, func(t *domain.Task) error {
		return t.MarkProcessing()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark task processing: %w", err)
	}

	log.Info("task processing started", slog.String("task_type", string(task.Type)))

	result, runErr := p.run(ctx, task, log)
	if runErr != nil {
		log.Warn("task pipeline failed", slog.String("error", runErr.Error()))
		return p.commitFailed(ctx, id, runErr)
	}

	task, err = p.taskStore.Update(ctx, id, func(t *domain.Task) error {
		return t.MarkCompleted(result)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark task completed: %w", err)
	}

	log.Info("task completed", slog.Int("summary_length", len(result.Summary)))
	return task, nil
}

// run executes the extraction, chunking, and inference stages.
func (p *Processor) run(ctx context.Context, task *domain.Task, log *slog.Logger) (*domain.TaskResult, error) {
	path, err := p.resolver.DocumentPath(task.StorageHandle)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document: %w", err)
	}

	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	chunks, err := chunk.Split(text, p.maxChunkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk text: %w", err)
	}

	log.Debug("document chunked",
		slog.Int("text_length", len(text)),
		slog.Int("chunk_count", len(chunks)))

	result, err := p.summarizer.Run(ctx, chunks, task.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize: %w", err)
	}

	return result, nil
}

// commitFailed persists the pipeline failure on the task. The failure
// reason lives on the task, not in the returned error.
func (p *Processor) commitFailed(ctx context.Context, id string, runErr error) (*domain.Task, error) {
	task, err := p.taskStore.Update(ctx, id, func(t *domain.Task) error {
		return t.MarkFailed(runErr.Error())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark task failed: %w", err)
	}
	return task, nil
}

// lockTask acquires the per-id lock, creating it on first use. The
// returned function releases the lock and drops the map entry once the
// last interested caller is gone.
func (p *Processor) lockTask(id string) func() {
	p.mu.Lock()
	lock, ok := p.locks[id]
	if !ok {
		lock = &taskLock{}
		p.locks[id] = lock
	}
	lock.refs++
	p.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		p.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(p.locks, id)
		}
		p.mu.Unlock()
	}
}
