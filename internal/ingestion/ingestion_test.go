package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/docsum-api/internal/config"
	"github.com/phrazzld/docsum-api/internal/domain"
	"github.com/phrazzld/docsum-api/internal/platform/memory"
)

func newTestService(t *testing.T, maxBytes int64) (*Service, *memory.TaskStore, string) {
	t.Helper()
	dir := t.TempDir()
	taskStore := memory.NewTaskStore(nil)
	svc, err := NewService(taskStore, config.StorageConfig{
		UploadDir:      dir,
		MaxUploadBytes: maxBytes,
	}, nil)
	require.NoError(t, err)
	return svc, taskStore, dir
}

func TestIngest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, taskStore, dir := newTestService(t, 1024)

	task, err := svc.Ingest(ctx, strings.NewReader("%PDF-1.4 fake content"), "report.pdf", domain.TaskTypeInvoice)
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", task.OriginalName)
	assert.Equal(t, domain.TaskTypeInvoice, task.Type)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.True(t, strings.HasSuffix(task.StorageHandle, ".pdf"))

	// The stored bytes are the uploaded bytes.
	data, err := os.ReadFile(filepath.Join(dir, task.StorageHandle))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake content", string(data))

	// The task record exists in the store.
	stored, err := taskStore.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StorageHandle, stored.StorageHandle)

	// The handle resolves back to the stored path.
	path, err := svc.DocumentPath(task.StorageHandle)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, task.StorageHandle), path)
}

func TestIngestNoContent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, taskStore, dir := newTestService(t, 1024)

	_, err := svc.Ingest(ctx, nil, "report.pdf", domain.TaskTypeGeneral)
	assert.ErrorIs(t, err, ErrNoFileReceived)

	_, err = svc.Ingest(ctx, strings.NewReader(""), "report.pdf", domain.TaskTypeGeneral)
	assert.ErrorIs(t, err, ErrNoFileReceived)

	// No artifacts and no task records are left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	tasks, err := taskStore.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestIngestPayloadTooLarge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, taskStore, dir := newTestService(t, 16)

	_, err := svc.Ingest(ctx, strings.NewReader(strings.Repeat("x", 17)), "big.pdf", domain.TaskTypeGeneral)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	// A payload exactly at the ceiling is accepted.
	_, err = svc.Ingest(ctx, strings.NewReader(strings.Repeat("x", 16)), "ok.pdf", domain.TaskTypeGeneral)
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	tasks, err := taskStore.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestIngestHandlesAreUnique(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t, 1024)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		task, err := svc.Ingest(ctx, strings.NewReader("content"), "same-name.pdf", domain.TaskTypeGeneral)
		require.NoError(t, err)
		assert.False(t, seen[task.StorageHandle], "handle %s reused", task.StorageHandle)
		seen[task.StorageHandle] = true
	}
}

func TestDocumentPathMissing(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t, 1024)

	_, err := svc.DocumentPath("20240101T000000-nope.pdf")
	assert.ErrorIs(t, err, ErrDocumentMissing)
}
