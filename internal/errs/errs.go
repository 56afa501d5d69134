// Package errs defines common error variables used across the application.
package errs

import "errors"

// Control-flow signals.
var (
	// ErrCancelled indicates that the user cancelled the in-flight item.
	// It is a control signal, not a failure: it short-circuits retries and
	// resolves through the normal completion path.
	ErrCancelled = errors.New("download cancelled")
)

// Queue errors.
var (
	// ErrItemNil indicates that a nil item was passed where one is required.
	ErrItemNil = errors.New("item is nil")
	// ErrNotInQueue indicates that no pending item matched the given URL.
	ErrNotInQueue = errors.New("url not in queue")
	// ErrQueueClosed indicates that the queue no longer accepts items.
	ErrQueueClosed = errors.New("queue is closed")
	// ErrAlreadyQueued indicates that the URL is already pending or in flight.
	ErrAlreadyQueued = errors.New("url already queued")
)

// Download errors.
var (
	// ErrMetadataFetch indicates that metadata resolution failed; fatal for
	// the item, no sub-downloads are attempted.
	ErrMetadataFetch = errors.New("metadata fetch failed")
	// ErrTransfer indicates a transient transfer failure; retried up to the
	// bound, then reported as a per-stream partial failure.
	ErrTransfer = errors.New("stream transfer failed")
	// ErrDestination indicates an unusable output location; not retried.
	ErrDestination = errors.New("destination unusable")
	// ErrNothingRequested indicates that both streams were disabled upstream.
	ErrNothingRequested = errors.New("neither video nor audio requested")
)

// History errors.
var (
	// ErrHistoryNotFound indicates that no history entry matched the URL.
	ErrHistoryNotFound = errors.New("history entry not found")
)

// Classify maps an error to a coarse label for logs and metrics.
func Classify(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrMetadataFetch):
		return "metadata"
	case errors.Is(err, ErrDestination):
		return "destination"
	default:
		return "transfer"
	}
}
