// Package task models the pipeline's units of work and the registry that
// admits them, consulting the ledger to skip already-satisfied commands.
package task

import "time"

// Status classifies how a task settled.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
	// StatusCanceled marks a task stopped by caller cancellation, as opposed
	// to the wall-clock timeout.
	StatusCanceled Status = "canceled"
)

// Result carries the outcome of one settled task.
type Result struct {
	Status   Status
	Output   []string
	Err      error
	Duration time.Duration
}

// Task is a pending unit of work: the item it targets, the command to run,
// and optional callbacks fired when the task settles. A task is executed
// at most once per run.
type Task struct {
	ItemID     string
	Signature  string
	Command    Command
	OutputPath string
	OnComplete func(Result)
	OnTimeout  func()
}
