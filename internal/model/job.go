package model

import "time"

// JobStatus represents the lifecycle state of the curation job.
type JobStatus string

const (
	JobIdle    JobStatus = "idle"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobError   JobStatus = "error"
)

// Terminal returns true for states that end a run.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobError
}

// JobState is a snapshot of the curation job. Snapshots are values:
// once returned by the engine they are never mutated, so callers may
// hold them without synchronization.
type JobState struct {
	Status     JobStatus  `json:"status"`
	Detail     string     `json:"detail"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// TriggerResponse is the wire response for POST /trigger.
// Accepted is true both when a new run starts and when the caller is
// attached to an existing run; starting a second pipeline is never an
// option while one is in flight.
type TriggerResponse struct {
	Accepted bool      `json:"accepted"`
	Attached bool      `json:"attached"`
	Status   JobStatus `json:"status"`
	Detail   string    `json:"detail,omitempty"`
}
