package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRunStep(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.txt")

	if err := RunStep(context.Background(), "touch "+target); err != nil {
		t.Fatalf("RunStep: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("step did not create output: %v", err)
	}
}

func TestRunStepFailsOnStderr(t *testing.T) {
	script := writeScript(t, "warn-step.sh", "#!/bin/sh\necho oops >&2\nexit 0\n")
	if err := RunStep(context.Background(), script); err == nil {
		t.Fatal("stderr output should fail the step")
	}
}

func TestRunStepFailsOnExitCode(t *testing.T) {
	script := writeScript(t, "bad-step.sh", "#!/bin/sh\nexit 3\n")
	if err := RunStep(context.Background(), script); err == nil {
		t.Fatal("non-zero exit should fail the step")
	}
}

func TestRunStepRejectsEmptyCommand(t *testing.T) {
	if err := RunStep(context.Background(), "   "); err == nil {
		t.Fatal("blank command should fail")
	}
}
