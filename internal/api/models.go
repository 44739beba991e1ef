package api

import (
	"time"

	"github.com/phrazzld/docsum-api/internal/domain"
)

// TaskResultResponse carries the aggregated summary for a completed task.
type TaskResultResponse struct {
	Summary string `json:"summary"`
}

// TaskResponse represents the response data for a task
type TaskResponse struct {
	ID           string              `json:"id"`
	OriginalName string              `json:"original_name"`
	TaskType     string              `json:"task_type"`
	Status       string              `json:"status"`
	Result       *TaskResultResponse `json:"result,omitempty"`
	Error        string              `json:"error,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// taskToResponse converts a domain.Task to a TaskResponse. The storage
// handle is deliberately not exposed.
func taskToResponse(task *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:           task.ID,
		OriginalName: task.OriginalName,
		TaskType:     string(task.Type),
		Status:       string(task.Status),
		Error:        task.Error,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
	if task.Result != nil {
		resp.Result = &TaskResultResponse{Summary: task.Result.Summary}
	}
	return resp
}

// tasksToResponse converts a slice of tasks preserving order.
func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, taskToResponse(task))
	}
	return responses
}
