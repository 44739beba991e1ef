// Package summarize dispatches document chunks to the remote
// summarization capability and aggregates the partial results in
// document order.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/docsum-api/internal/domain"
	"github.com/phrazzld/docsum-api/internal/platform/logger"
)

// ChunkSeparator joins per-chunk summaries into the final result.
const ChunkSeparator = "\n\n"

// Common constructor errors
var ErrNilSummarizer = errors.New("summarizer cannot be nil")

// Orchestrator runs the per-chunk inference sequence for one task.
//
// Chunks are dispatched strictly in document order and results are
// aggregated in that same order; downstream summary coherence depends
// on source-text order. Any chunk failure fails the whole run and the
// partial summaries gathered so far are discarded — a partial summary
// is misleading to the end user.
type Orchestrator struct {
	summarizer Summarizer
	logger     *slog.Logger
}

// NewOrchestrator creates an inference orchestrator.
// If logger is nil, a default logger will be used.
func NewOrchestrator(summarizer Summarizer, logger *slog.Logger) (*Orchestrator, error) {
	if summarizer == nil {
		return nil, ErrNilSummarizer
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		summarizer: summarizer,
		logger:     logger.With(slog.String("component", "orchestrator")),
	}, nil
}

// Run summarizes every chunk under the task type's strategy and returns
// the ordered aggregation as the task's final result.
func (o *Orchestrator) Run(ctx context.Context, chunks []string, taskType domain.TaskType) (*domain.TaskResult, error) {
	log := logger.FromContextOrDefault(ctx, o.logger)

	strategy, err := StrategyFor(taskType)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	log.Info("dispatching chunks to remote summarizer",
		slog.Int("chunk_count", len(chunks)),
		slog.String("strategy", strategy.Name))

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := o.summarizer.Summarize(ctx, strategy.BuildPrompt(chunk))
		if err != nil {
			log.Warn("chunk inference failed, discarding partial results",
				slog.Int("chunk", i+1),
				slog.Int("chunk_count", len(chunks)),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("chunk %d of %d: %w", i+1, len(chunks), err)
		}
		parts = append(parts, summary)
	}

	return &domain.TaskResult{Summary: strings.Join(parts, ChunkSeparator)}, nil
}
