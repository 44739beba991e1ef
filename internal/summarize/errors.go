package summarize

import "errors"

// Common summarization errors
var (
	// ErrInvalidConfig indicates the summarizer configuration is invalid
	// or incomplete.
	ErrInvalidConfig = errors.New("invalid summarizer configuration")

	// ErrUpstreamInference indicates the remote summarization capability
	// returned a non-success outcome, timed out, or produced a malformed
	// response. Under the fail-fast aggregation policy any chunk hitting
	// this error fails the whole task.
	ErrUpstreamInference = errors.New("upstream inference error")

	// ErrUnknownStrategy indicates no instruction strategy exists for
	// the requested task type.
	ErrUnknownStrategy = errors.New("unknown extraction strategy")

	// ErrNoChunks indicates a run was requested with no chunks at all.
	// Extraction enforces a minimum text length, so this guards against
	// callers bypassing that pipeline.
	ErrNoChunks = errors.New("no chunks to summarize")
)
