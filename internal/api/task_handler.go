package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/docsum-api/internal/api/shared"
	"github.com/phrazzld/docsum-api/internal/domain"
	"github.com/phrazzld/docsum-api/internal/ingestion"
	"github.com/phrazzld/docsum-api/internal/store"
)

// documentFormField is the multipart form field carrying the uploaded file.
const documentFormField = "document"

// uploadFormOverhead is slack on top of the document size ceiling for
// multipart boundaries and the small non-file form fields.
const uploadFormOverhead = 10 << 10

// DocumentIngestor accepts an uploaded document and registers a pending
// summarization task for it.
type DocumentIngestor interface {
	Ingest(ctx context.Context, content io.Reader, originalName string, taskType domain.TaskType) (*domain.Task, error)
}

// TaskProcessor runs the summarization pipeline for a stored task.
type TaskProcessor interface {
	Process(ctx context.Context, id string) (*domain.Task, error)
}

// UploadRequest represents the non-file form fields of a document upload
type UploadRequest struct {
	TaskType string `validate:"omitempty,oneof=general resume invoice"`
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	ingestor       DocumentIngestor
	processor      TaskProcessor
	taskStore      store.TaskStore
	maxUploadBytes int64
	validator      *validator.Validate
}

// NewTaskHandler creates a new TaskHandler. maxUploadBytes bounds the
// upload request body so oversize payloads are rejected mid-stream
// rather than buffered in full.
func NewTaskHandler(ingestor DocumentIngestor, processor TaskProcessor, taskStore store.TaskStore, maxUploadBytes int64) *TaskHandler {
	return &TaskHandler{
		ingestor:       ingestor,
		processor:      processor,
		taskStore:      taskStore,
		maxUploadBytes: maxUploadBytes,
		validator:      validator.New(),
	}
}

// UploadDocument handles POST /api/documents requests. The document
// travels in the "document" multipart field; an optional "task_type"
// field selects the summarization strategy.
func (h *TaskHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	// Cap the whole request body so an oversize upload stops at the
	// stream instead of being buffered before ingestion rejects it.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+uploadFormOverhead)

	file, header, err := r.FormFile(documentFormField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			shared.RespondWithErrorAndLog(w, r, http.StatusRequestEntityTooLarge,
				GetSafeErrorMessage(ingestion.ErrPayloadTooLarge), err)
		case errors.Is(err, http.ErrMissingFile):
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
				GetSafeErrorMessage(ingestion.ErrNoFileReceived), err)
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
				"Malformed multipart request", err)
		}
		return
	}
	defer func() { _ = file.Close() }()

	req := UploadRequest{TaskType: r.FormValue("task_type")}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	taskType, err := domain.ParseTaskType(req.TaskType)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	task, err := h.ingestor.Ingest(r.Context(), file, header.Filename, taskType)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /api/tasks requests. Tasks are returned in
// creation order.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskStore.List(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// GetTask handles GET /api/tasks/{id} requests
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.taskStore.GetByID(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ProcessTask handles POST /api/tasks/{id}/process requests. The
// pipeline runs synchronously; the response carries the task in its
// final state. Pipeline failures still respond 200 — the failure lives
// on the task itself.
func (h *TaskHandler) ProcessTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := h.processor.Process(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}
