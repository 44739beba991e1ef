package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/docsum-api/internal/api/shared"
	"github.com/phrazzld/docsum-api/internal/domain"
	"github.com/phrazzld/docsum-api/internal/ingestion"
	"github.com/phrazzld/docsum-api/internal/platform/memory"
	"github.com/phrazzld/docsum-api/internal/store"
)

// testMaxUploadBytes is a generous body ceiling for tests that are not
// about the upload size limit.
const testMaxUploadBytes = int64(10 << 20)

type stubIngestor struct {
	task *domain.Task
	err  error

	gotName string
	gotType domain.TaskType
}

func (s *stubIngestor) Ingest(ctx context.Context, content io.Reader, originalName string, taskType domain.TaskType) (*domain.Task, error) {
	s.gotName = originalName
	s.gotType = taskType
	if s.err != nil {
		return nil, s.err
	}
	return s.task, nil
}

type stubProcessor struct {
	task *domain.Task
	err  error

	gotID string
}

func (s *stubProcessor) Process(ctx context.Context, id string) (*domain.Task, error) {
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.task, nil
}

// newTestRouter mounts the handler on the routes the server exposes.
func newTestRouter(handler *TaskHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/documents", handler.UploadDocument)
		r.Get("/tasks", handler.ListTasks)
		r.Get("/tasks/{id}", handler.GetTask)
		r.Post("/tasks/{id}/process", handler.ProcessTask)
	})
	return r
}

// multipartUpload builds a multipart request body with one file field
// and optional extra form values.
func multipartUpload(t *testing.T, fieldName, fileName, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if fileName != "" {
		part, err := writer.CreateFormFile(fieldName, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func newStoredTask(t *testing.T) *domain.Task {
	t.Helper()
	task, err := domain.NewTask("report.pdf", "20260828T120000-abc.pdf", domain.TaskTypeResume)
	require.NoError(t, err)
	return task
}

func TestUploadDocument(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		ingestor := &stubIngestor{task: newStoredTask(t)}
		handler := NewTaskHandler(ingestor, &stubProcessor{}, memory.NewTaskStore(slog.Default()), testMaxUploadBytes)

		body, contentType := multipartUpload(t, "document", "report.pdf", "%PDF-1.4 ...", map[string]string{
			"task_type": "resume",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		newTestRouter(handler).ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "report.pdf", ingestor.gotName)
		assert.Equal(t, domain.TaskTypeResume, ingestor.gotType)

		var resp TaskResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "report.pdf", resp.OriginalName)
		assert.Equal(t, "pending", resp.Status)
		assert.Nil(t, resp.Result)
	})

	t.Run("missing_task_type_defaults_to_general", func(t *testing.T) {
		t.Parallel()
		ingestor := &stubIngestor{task: newStoredTask(t)}
		handler := NewTaskHandler(ingestor, &stubProcessor{}, memory.NewTaskStore(slog.Default()), testMaxUploadBytes)

		body, contentType := multipartUpload(t, "document", "notes.txt", "plain text", nil)
		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		newTestRouter(handler).ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, domain.TaskTypeGeneral, ingestor.gotType)
	})

	t.Run("missing_file", func(t *testing.T) {
		t.Parallel()
		handler := NewTaskHandler(&stubIngestor{}, &stubProcessor{}, memory.NewTaskStore(slog.Default()), testMaxUploadBytes)

		body, contentType := multipartUpload(t, "document", "", "", map[string]string{"task_type": "general"})
		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		newTestRouter(handler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown_task_type", func(t *testing.T) {
		t.Parallel()
		handler := NewTaskHandler(&stubIngestor{}, &stubProcessor{}, memory.NewTaskStore(slog.Default()), testMaxUploadBytes)

		body, contentType := multipartUpload(t, "document", "poem.txt", "text", map[string]string{
			"task_type": "poem",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		newTestRouter(handler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("empty_upload", func(t *testing.T) {
		t.Parallel()
		ingestor := &stubIngestor{err: fmt.Errorf("%w: empty upload", ingestion.ErrNoFileReceived)}
		handler := NewTaskHandler(ingestor, &stubProcessor{}, memory.NewTaskStore(slog.Default()), testMaxUploadBytes)

		body, contentType := multipartUpload(t, "document", "empty.pdf", "", nil)
		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		newTestRouter(handler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("oversized_upload", func(t *testing.T) {
		t.Parallel()
		ingestor := &stubIngestor{err: fmt.Errorf("%w: limit is 10485760 bytes", ingestion.ErrPayloadTooLarge)}
		handler := NewTaskHandler(ingestor, &stubProcessor{}, memory.NewTaskStore(slog.Default()), testMaxUploadBytes)

		body, contentType := multipartUpload(t, "document", "big.pdf", "pretend this is huge", nil)
		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		newTestRouter(handler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

		var resp shared.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.NotContains(t, resp.Error, "10485760", "internal detail must not leak to the client")
	})

	t.Run("oversize_body_rejected_at_stream", func(t *testing.T) {
		t.Parallel()
		ingestor := &stubIngestor{task: newStoredTask(t)}
		// Cap far below the body so MaxBytesReader trips during
		// multipart parsing, before ingestion ever sees the file.
		handler := NewTaskHandler(ingestor, &stubProcessor{}, memory.NewTaskStore(slog.Default()), 64)

		body, contentType := multipartUpload(t, "document", "big.pdf", strings.Repeat("x", 64<<10), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		newTestRouter(handler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
		assert.Empty(t, ingestor.gotName, "ingestion must not run for a capped body")
	})
}

func TestListTasks(t *testing.T) {
	t.Parallel()
	taskStore := memory.NewTaskStore(slog.Default())
	first := newStoredTask(t)
	second := newStoredTask(t)
	require.NoError(t, taskStore.Create(context.Background(), first))
	require.NoError(t, taskStore.Create(context.Background(), second))

	handler := NewTaskHandler(&stubIngestor{}, &stubProcessor{}, taskStore, testMaxUploadBytes)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rr := httptest.NewRecorder()
	newTestRouter(handler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp []TaskResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, first.ID, resp[0].ID)
	assert.Equal(t, second.ID, resp[1].ID)
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		taskStore := memory.NewTaskStore(slog.Default())
		task := newStoredTask(t)
		require.NoError(t, taskStore.Create(context.Background(), task))
		handler := NewTaskHandler(&stubIngestor{}, &stubProcessor{}, taskStore, testMaxUploadBytes)

		req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+task.ID, nil)
		rr := httptest.NewRecorder()
		newTestRouter(handler).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp TaskResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, task.ID, resp.ID)
		assert.Equal(t, "resume", resp.TaskType)
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()
		handler := NewTaskHandler(&stubIngestor{}, &stubProcessor{}, memory.NewTaskStore(slog.Default()), testMaxUploadBytes)

		req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+domain.NewTaskID(), nil)
		rr := httptest.NewRecorder()
		newTestRouter(handler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestProcessTask(t *testing.T) {
	t.Parallel()

	t.Run("completed", func(t *testing.T) {
		t.Parallel()
		task := newStoredTask(t)
		require.NoError(t, task.MarkProcessing())
		require.NoError(t, task.MarkCompleted(&domain.TaskResult{Summary: "candidate: J. Doe"}))

		processor := &stubProcessor{task: task}
		handler := NewTaskHandler(&stubIngestor{}, processor, memory.NewTaskStore(slog.Default()), testMaxUploadBytes)

		req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+task.ID+"/process", nil)
		rr := httptest.NewRecorder()
		newTestRouter(handler).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, task.ID, processor.gotID)

		var resp TaskResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "completed", resp.Status)
		require.NotNil(t, resp.Result)
		assert.Equal(t, "candidate: J. Doe", resp.Result.Summary)
	})

	t.Run("pipeline_failure_still_responds_ok", func(t *testing.T) {
		t.Parallel()
		task := newStoredTask(t)
		require.NoError(t, task.MarkProcessing())
		require.NoError(t, task.MarkFailed("no readable text found"))

		handler := NewTaskHandler(&stubIngestor{}, &stubProcessor{task: task}, memory.NewTaskStore(slog.Default()), testMaxUploadBytes)

		req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+task.ID+"/process", nil)
		rr := httptest.NewRecorder()
		newTestRouter(handler).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp TaskResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "failed", resp.Status)
		assert.Equal(t, "no readable text found", resp.Error)
		assert.Nil(t, resp.Result)
	})

	t.Run("unknown_task", func(t *testing.T) {
		t.Parallel()
		processor := &stubProcessor{err: fmt.Errorf("failed to load task: %w", store.ErrTaskNotFound)}
		handler := NewTaskHandler(&stubIngestor{}, processor, memory.NewTaskStore(slog.Default()), testMaxUploadBytes)

		req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+domain.NewTaskID()+"/process", nil)
		rr := httptest.NewRecorder()
		newTestRouter(handler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("store_failure", func(t *testing.T) {
		t.Parallel()
		processor := &stubProcessor{err: errors.New("failed to mark task completed: connection reset")}
		handler := NewTaskHandler(&stubIngestor{}, processor, memory.NewTaskStore(slog.Default()), testMaxUploadBytes)

		req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+domain.NewTaskID()+"/process", nil)
		rr := httptest.NewRecorder()
		newTestRouter(handler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)

		var resp shared.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "An unexpected error occurred", resp.Error)
	})
}
