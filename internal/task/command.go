package task

import (
	"context"
	"fmt"

	"imagemill/internal/fingerprint"
)

// Kind discriminates the two command variants the executor understands.
type Kind int

const (
	// KindProcess runs an external command line.
	KindProcess Kind = iota
	// KindInProcess invokes a Go function inside the build process.
	KindInProcess
)

// Command is a tagged variant: either an external command line or an
// in-process function. Exactly one side is populated per Kind.
type Command struct {
	Kind Kind

	// Process fields.
	Text string

	// In-process fields. Seed is the deterministic serialized form of the
	// callback used for its ledger signature, so the "same" callback keeps
	// the same key across runs.
	Name string
	Seed []byte
	Fn   func(ctx context.Context) error
}

// Process builds an external command from its literal command line.
func Process(text string) Command {
	return Command{Kind: KindProcess, Text: text}
}

// InProcess builds an in-process command. The seed should capture every
// input that distinguishes this callback from another one with the same
// name (paths, widths, options).
func InProcess(name string, seed []byte, fn func(ctx context.Context) error) Command {
	return Command{Kind: KindInProcess, Name: name, Seed: seed, Fn: fn}
}

// Signature returns the stable ledger key for the command: the literal
// text for process commands, name plus seed digest for in-process ones.
func (c Command) Signature() string {
	switch c.Kind {
	case KindInProcess:
		seed := c.Seed
		if len(seed) == 0 {
			seed = []byte(c.Name)
		}
		return fmt.Sprintf("%s#%s", c.Name, fingerprint.ComputeBytes(seed))
	default:
		return c.Text
	}
}

// DisplayName is the short label used in logs and taskDone payloads.
func (c Command) DisplayName() string {
	if c.Kind == KindInProcess {
		return c.Name
	}
	return c.Text
}
