// Package batch drives a protection run: it walks the discovered files one
// at a time, sends each through the backend and writes the results, recording
// a per-file outcome. A failure on one file never stops the batch.
package batch

// EventType enumerates per-file progress events.
type EventType string

const (
	// EventFileStarted is emitted before a file is read.
	EventFileStarted EventType = "file_started"
	// EventFileDone is emitted once the file has an outcome.
	EventFileDone EventType = "file_done"
)

// Event is a progress notification for a UI.
type Event struct {
	Type EventType

	// Index is 1-based position of the file within the batch.
	Index int
	Total int
	Input string

	// Outcome is set for EventFileDone.
	Outcome *Outcome
}
