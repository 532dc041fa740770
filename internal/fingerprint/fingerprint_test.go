package fingerprint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"imagemill/internal/services"
)

func TestComputeStableAcrossReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero.jpg")
	if err := os.WriteFile(path, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	first, err := Compute(path)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	second, err := Compute(path)
	if err != nil {
		t.Fatalf("Compute again: %v", err)
	}
	if first != second {
		t.Fatalf("digest changed for unchanged file: %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected sha256 hex digest, got %q", first)
	}
}

func TestComputeChangesWithContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero.jpg")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	before, err := Compute(path)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("rewrite fixture: %v", err)
	}
	after, err := Compute(path)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if before == after {
		t.Fatal("digest did not change with content")
	}
}

func TestComputeMissingFileIsIOError(t *testing.T) {
	_, err := Compute(filepath.Join(t.TempDir(), "absent.png"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestShort(t *testing.T) {
	digest := ComputeBytes([]byte("payload"))
	if got := Short(digest); len(got) != 12 {
		t.Fatalf("expected 12-char short digest, got %q", got)
	}
	if got := Short("abc"); got != "abc" {
		t.Fatalf("short digest should pass through, got %q", got)
	}
}
