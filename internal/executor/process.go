package executor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"imagemill/internal/logging"
	"imagemill/internal/services"
	"imagemill/internal/task"
)

var errMissingCallback = errors.New("in-process command has no function")

func (e *Executor) runProcess(ctx context.Context, t task.Task) task.Result {
	argv, err := splitCommand(t.Command.Text)
	if err != nil {
		return task.Result{Status: task.StatusFailed, Err: services.Wrap(services.ErrProcess, "executor", "parse command", t.Command.Text, err)}
	}

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec
	// Own process group so a timeout kill reaches children spawned by the
	// command (shell wrappers, pipelines).
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return task.Result{Status: task.StatusFailed, Err: services.Wrap(services.ErrProcess, "executor", "stdout pipe", "", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return task.Result{Status: task.StatusFailed, Err: services.Wrap(services.ErrProcess, "executor", "stderr pipe", "", err)}
	}

	if err := cmd.Start(); err != nil {
		return task.Result{Status: task.StatusFailed, Err: services.Wrap(services.ErrProcess, "executor", "start", t.Command.DisplayName(), err)}
	}

	var mu sync.Mutex
	var output []string
	var stderrSeen bool
	var firstStderr string

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stdout, func(line string) {
			mu.Lock()
			output = append(output, line)
			mu.Unlock()
			e.logger.Debug("command output",
				logging.String(logging.FieldItem, t.ItemID),
				logging.String("line", line))
		})
	}()
	go func() {
		defer wg.Done()
		scanLines(stderr, func(line string) {
			mu.Lock()
			if !stderrSeen {
				stderrSeen = true
				firstStderr = line
			}
			mu.Unlock()
			e.logger.Error("command stderr",
				logging.String(logging.FieldItem, t.ItemID),
				logging.String("line", line))
		})
	}()

	waitCh := make(chan error, 1)
	go func() {
		wg.Wait()
		waitCh <- cmd.Wait()
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-timer.C:
		e.reap(cmd)
		return task.Result{Status: task.StatusTimedOut}
	case <-ctx.Done():
		e.reap(cmd)
		return task.Result{Status: task.StatusCanceled, Err: ctx.Err()}
	}

	mu.Lock()
	defer mu.Unlock()

	if waitErr != nil {
		return task.Result{
			Status: task.StatusFailed,
			Output: output,
			Err:    services.Wrap(services.ErrProcess, "executor", "run", t.Command.DisplayName(), waitErr),
		}
	}
	if stderrSeen {
		// The command exited zero but wrote to stderr: treated as failed
		// while still counting as completed for draining purposes.
		return task.Result{
			Status: task.StatusFailed,
			Output: output,
			Err:    services.Wrap(services.ErrProcess, "executor", "run", firstStderr, nil),
		}
	}
	return task.Result{Status: task.StatusOK, Output: output}
}

// reap kills the process group when configured to. The wait goroutine keeps
// running either way and reaps the child once it exits; without the kill
// switch the process is deliberately left running.
func (e *Executor) reap(cmd *exec.Cmd) {
	if !e.killOnTimeout || cmd.Process == nil {
		return
	}
	_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
}

func scanLines(r io.Reader, forward func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		forward(line)
	}
}

// splitCommand tokenizes a command line, honoring single and double quotes
// so templated paths with spaces survive.
func splitCommand(text string) ([]string, error) {
	var argv []string
	var current strings.Builder
	var quote rune
	escaped := false
	flush := func() {
		if current.Len() > 0 {
			argv = append(argv, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ' ' || r == '\t':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if escaped {
		return nil, errors.New("trailing escape")
	}
	flush()
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	return argv, nil
}
