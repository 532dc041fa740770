package preflight

import (
	"path/filepath"
	"testing"

	"imagemill/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDirectoryAccess("Publish directory", dir); !result.Passed {
		t.Fatalf("expected writable temp dir to pass: %#v", result)
	}

	missing := filepath.Join(dir, "absent")
	if result := CheckDirectoryAccess("Publish directory", missing); result.Passed {
		t.Fatalf("expected missing dir to fail: %#v", result)
	}
}

func TestCheckDiskSpace(t *testing.T) {
	result := CheckDiskSpace("Publish volume", t.TempDir())
	if result.Detail == "" {
		t.Fatal("expected detail with free-space figure")
	}
}

func TestRunCollectsDependencyChecks(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SourceDir = dir
	cfg.Paths.PublishDir = dir
	cfg.Dependencies = []config.Dependency{{Name: "definitely-not-a-binary"}}

	results := Run(&cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	failed := Failed(results)
	found := false
	for _, result := range failed {
		if result.Name == "Binary definitely-not-a-binary" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected missing binary among failures: %#v", failed)
	}
}
