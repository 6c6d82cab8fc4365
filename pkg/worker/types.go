package worker

import "time"

// Status represents the current state of the worker pool
type Status string

const (
	// StatusIdle indicates the pool is running with nothing to do
	StatusIdle Status = "idle"

	// StatusProcessing indicates tasks are queued or executing
	StatusProcessing Status = "processing"

	// StatusStopped indicates the pool is not running
	StatusStopped Status = "stopped"
)

// Stats provides runtime statistics about the current run of the pool
type Stats struct {
	// ActiveWorkers is the number of workers currently executing a task
	ActiveWorkers int

	// QueuedTasks is the number of tasks waiting for a worker
	QueuedTasks int

	// SubmittedTasks is the number of tasks accepted by Submit
	SubmittedTasks int64

	// CompletedTasks is the number of tasks that returned without error
	CompletedTasks int64

	// FailedTasks is the number of tasks that returned an error, panicked
	// or were cancelled before starting
	FailedTasks int64

	// Status is the current state of the pool
	Status Status

	// Uptime is how long the current run has been going
	Uptime time.Duration
}

// Summary describes a finished run, as returned by Wait.
type Summary struct {
	Submitted int64
	Completed int64
	Failed    int64
	Duration  time.Duration
}
