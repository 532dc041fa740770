package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RunStep executes a single external command line and waits for it. It
// backs in-process commands that chain several externals, such as the PNG
// resize-then-compress pair, where each step must finish before the next
// starts. Stderr output fails the step even on a zero exit code.
func RunStep(ctx context.Context, text string) error {
	args, err := splitCommand(text)
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if stderr.Len() > 0 {
		first, _, _ := strings.Cut(stderr.String(), "\n")
		return fmt.Errorf("%s wrote to stderr: %s", args[0], first)
	}
	return nil
}
