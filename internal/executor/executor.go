// Package executor runs admitted tasks with bounded concurrency, streaming
// external command output and enforcing per-task wall-clock timeouts.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"imagemill/internal/logging"
	"imagemill/internal/task"
)

// Options configures an executor for one run.
type Options struct {
	Logger *slog.Logger
	// Limit is the maximum number of concurrently outstanding tasks.
	Limit int
	// Timeout is the wall-clock limit per external command.
	Timeout time.Duration
	// KillOnTimeout terminates the spawned process group when the timeout
	// fires. Off preserves the legacy behavior of letting the child run.
	KillOnTimeout bool
	// OnDone is invoked once per settled task, before its slot is released.
	OnDone func(task.Task, task.Result)
}

// Summary aggregates how a batch settled.
type Summary struct {
	Completed int
	Failed    int
	TimedOut  int
	Canceled  int
}

// Executor drains batches of tasks. One executor instance owns one run.
type Executor struct {
	logger        *slog.Logger
	limit         int
	timeout       time.Duration
	killOnTimeout bool
	onDone        func(task.Task, task.Result)
}

const defaultTimeout = 10 * time.Minute

// New constructs an executor. Zero options get safe defaults: limit 1,
// ten-minute timeout.
func New(opts Options) *Executor {
	limit := opts.Limit
	if limit <= 0 {
		limit = 1
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Executor{
		logger:        logging.WithComponent(opts.Logger, "executor"),
		limit:         limit,
		timeout:       timeout,
		killOnTimeout: opts.KillOnTimeout,
		onDone:        opts.OnDone,
	}
}

// Run executes the batch and returns once every task has settled. Admission
// is FIFO in slice order: a task starts only when a slot frees up, and no
// task is reordered. A single task's failure never halts the batch.
func (e *Executor) Run(ctx context.Context, tasks []task.Task) Summary {
	var summary Summary

	group := new(errgroup.Group)
	group.SetLimit(e.limit)

	results := make([]task.Result, len(tasks))
	for i := range tasks {
		// Go blocks while the limit is reached, which preserves FIFO
		// admission order.
		i := i
		group.Go(func() error {
			results[i] = e.runOne(ctx, tasks[i])
			return nil
		})
	}
	_ = group.Wait()

	for _, result := range results {
		switch result.Status {
		case task.StatusTimedOut:
			summary.TimedOut++
		case task.StatusCanceled:
			summary.Canceled++
		case task.StatusFailed:
			summary.Failed++
			summary.Completed++
		default:
			summary.Completed++
		}
	}
	return summary
}

func (e *Executor) runOne(ctx context.Context, t task.Task) task.Result {
	started := time.Now()

	var result task.Result
	switch t.Command.Kind {
	case task.KindInProcess:
		result = e.runInProcess(ctx, t)
	default:
		result = e.runProcess(ctx, t)
	}
	result.Duration = time.Since(started)

	switch result.Status {
	case task.StatusTimedOut:
		e.logger.Error("task timed out",
			logging.String(logging.FieldItem, t.ItemID),
			logging.String("command", t.Command.DisplayName()),
			logging.Duration("after", result.Duration))
		if t.OnTimeout != nil {
			t.OnTimeout()
		}
	case task.StatusCanceled:
		// Caller cancellation (Ctrl-C, parent context) is not a timeout:
		// neither completion callback fires.
		e.logger.Warn("task canceled",
			logging.String(logging.FieldItem, t.ItemID),
			logging.String("command", t.Command.DisplayName()),
			logging.Duration("after", result.Duration))
	case task.StatusFailed:
		e.logger.Error("task failed",
			logging.String(logging.FieldItem, t.ItemID),
			logging.String("command", t.Command.DisplayName()),
			logging.Error(result.Err))
		if t.OnComplete != nil {
			t.OnComplete(result)
		}
	default:
		e.logger.Info("task completed",
			logging.String(logging.FieldItem, t.ItemID),
			logging.String("command", t.Command.DisplayName()),
			logging.Duration("took", result.Duration))
		if t.OnComplete != nil {
			t.OnComplete(result)
		}
	}

	if e.onDone != nil {
		e.onDone(t, result)
	}
	return result
}

func (e *Executor) runInProcess(ctx context.Context, t task.Task) task.Result {
	if t.Command.Fn == nil {
		return task.Result{Status: task.StatusFailed, Err: errMissingCallback}
	}
	if err := t.Command.Fn(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return task.Result{Status: task.StatusCanceled, Err: err}
		}
		return task.Result{Status: task.StatusFailed, Err: err}
	}
	return task.Result{Status: task.StatusOK}
}
