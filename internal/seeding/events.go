// Package seeding runs the provisioning workflow and renders its progress.
//
// The workflow authenticates, replaces the search_trends collection and imports
// the source rows. Progress is published as Events so the console renderer,
// the run report and tests observe the same stream.
package seeding

import (
	"time"

	"trendseed/cli/internal/importer"
)

// EventType enumerates known seeding event kinds.
type EventType string

const (
	// EventState announces a workflow state change.
	EventState EventType = "state"
	// EventAuthRetry reports a failed authentication attempt that will be retried.
	EventAuthRetry EventType = "auth_retry"
	// EventSchemaStep reports a provisioning step about to run.
	EventSchemaStep EventType = "schema_step"
	// EventRow reports the outcome of one source row.
	EventRow EventType = "row"
	// EventFinished carries the final summary.
	EventFinished EventType = "finished"
)

// Event is a generic container for seeding UI events.
// Only a subset of fields is set depending on Type.
type Event struct {
	Type EventType `json:"type"`
	At   time.Time `json:"at"`

	// State change
	State State `json:"state,omitempty"`

	// Common textual message (auth error, schema step, row failure)
	Message string `json:"message,omitempty"`

	// Auth retry
	Attempt  int `json:"attempt,omitempty"` // 1-based
	Attempts int `json:"attempts,omitempty"`

	// Schema step
	Step       string `json:"step,omitempty"` // check|delete|create
	Collection string `json:"collection,omitempty"`

	// Row
	Line        int              `json:"line,omitempty"`
	SubCategory string           `json:"sub_category,omitempty"`
	Outcome     importer.Outcome `json:"outcome,omitempty"`

	// Finished
	Summary *Summary `json:"summary,omitempty"`
}
