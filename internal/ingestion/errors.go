package ingestion

import "errors"

// Ingestion errors reported directly to the caller; no task is created
// when any of these occur.
var (
	// ErrNoFileReceived is returned when a request carries no document content.
	ErrNoFileReceived = errors.New("no file received")

	// ErrPayloadTooLarge is returned when an upload exceeds the configured size ceiling.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrDocumentMissing is returned when a storage handle no longer
	// resolves to a stored document. The stored bytes are written once
	// and never removed by this service, so this indicates external
	// interference with the upload directory.
	ErrDocumentMissing = errors.New("uploaded document missing from storage")
)
