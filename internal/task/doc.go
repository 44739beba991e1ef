// Package task drives the document summarization lifecycle. The
// Processor walks a stored task through extraction, chunking, and
// remote inference, committing each status transition to the task
// store so that state survives across requests and restarts.
package task
