// Package ingestion accepts uploaded document bytes, persists them under
// opaque storage handles, and creates the initial task records tracking
// their processing.
package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/docsum-api/internal/config"
	"github.com/phrazzld/docsum-api/internal/domain"
	"github.com/phrazzld/docsum-api/internal/platform/logger"
	"github.com/phrazzld/docsum-api/internal/store"
)

// Service persists uploaded documents and creates their pending tasks.
// Stored files are created exclusively and never rewritten; a storage
// handle resolves to the originally uploaded bytes for the entire task
// lifetime.
type Service struct {
	taskStore store.TaskStore
	uploadDir string
	maxBytes  int64
	logger    *slog.Logger
}

// NewService creates a new ingestion service, ensuring the upload
// directory exists. If logger is nil, a default logger will be used.
func NewService(taskStore store.TaskStore, cfg config.StorageConfig, logger *slog.Logger) (*Service, error) {
	if taskStore == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", cfg.UploadDir, err)
	}

	return &Service{
		taskStore: taskStore,
		uploadDir: cfg.UploadDir,
		maxBytes:  cfg.MaxUploadBytes,
		logger:    logger.With(slog.String("component", "ingestion")),
	}, nil
}

// Ingest stores the uploaded bytes under a freshly generated handle and
// creates a pending task for them. The task is returned to the caller.
//
// Returns ErrNoFileReceived when content is nil or empty, and
// ErrPayloadTooLarge when it exceeds the configured size ceiling; in
// both cases no file artifact or task record survives.
func (s *Service) Ingest(ctx context.Context, content io.Reader, originalName string, taskType domain.TaskType) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if content == nil {
		return nil, ErrNoFileReceived
	}

	handle := newStorageHandle(originalName)
	path := filepath.Join(s.uploadDir, handle)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		log.Error("failed to create document file",
			slog.String("error", err.Error()),
			slog.String("storage_handle", handle))
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	// Read one byte past the ceiling so oversize payloads are detected
	// without buffering the whole stream.
	written, err := io.Copy(file, io.LimitReader(content, s.maxBytes+1))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.discard(path, log)
		log.Error("failed to write document file",
			slog.String("error", err.Error()),
			slog.String("storage_handle", handle))
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	if written == 0 {
		s.discard(path, log)
		return nil, ErrNoFileReceived
	}

	if written > s.maxBytes {
		s.discard(path, log)
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrPayloadTooLarge, s.maxBytes)
	}

	task, err := domain.NewTask(originalName, handle, taskType)
	if err != nil {
		s.discard(path, log)
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		s.discard(path, log)
		return nil, fmt.Errorf("failed to create task record: %w", err)
	}

	log.Info("document ingested",
		slog.String("task_id", task.ID),
		slog.String("original_name", originalName),
		slog.String("storage_handle", handle),
		slog.Int64("size_bytes", written))
	return task, nil
}

// DocumentPath resolves a storage handle to the path of the stored
// bytes. Returns ErrDocumentMissing if the file is gone.
func (s *Service) DocumentPath(handle string) (string, error) {
	path := filepath.Join(s.uploadDir, filepath.Base(handle))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrDocumentMissing, handle)
	}
	return path, nil
}

// discard removes a partially written or orphaned artifact. Failures are
// logged, not propagated; the caller is already on an error path.
func (s *Service) discard(path string, log *slog.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove document artifact",
			slog.String("error", err.Error()),
			slog.String("path", path))
	}
}

// newStorageHandle generates a collision-free handle from the upload
// time and a random suffix, keeping the original extension so the
// extraction engine can detect the document format.
func newStorageHandle(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s-%s%s",
		time.Now().UTC().Format("20060102T150405"),
		uuid.New().String(),
		ext,
	)
}
