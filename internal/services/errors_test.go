package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrUnknownItem, "registry", "register", "no item for slug", nil)
	if !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
	want := "unknown item: registry: register: no item for slug"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("open manifest: permission denied")
	err := Wrap(ErrIO, "manifest", "load", "", cause)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
}

func TestWrapWithoutMarkerDefaultsToProcess(t *testing.T) {
	err := Wrap(nil, "executor", "run", "exit status 1", nil)
	if !errors.Is(err, ErrProcess) {
		t.Fatalf("expected ErrProcess fallback, got %v", err)
	}
}

func TestFatalClassification(t *testing.T) {
	cases := []struct {
		err   error
		fatal bool
	}{
		{Wrap(ErrMissingDependency, "deps", "check", "magick", nil), true},
		{Wrap(ErrUnknownItem, "registry", "register", "", nil), true},
		{Wrap(ErrIO, "ledger", "save", "", nil), true},
		{Wrap(ErrProcess, "executor", "run", "", nil), false},
		{Wrap(ErrTimeout, "executor", "run", "", nil), false},
		{Wrap(ErrInvalidPlugin, "pipeline", "plugins", "", nil), false},
	}
	for _, tc := range cases {
		if got := Fatal(tc.err); got != tc.fatal {
			t.Fatalf("Fatal(%v) = %v, want %v", tc.err, got, tc.fatal)
		}
	}
}
