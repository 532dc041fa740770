// Package preflight runs environment checks before the pipeline admits any
// work: required binaries, directory permissions, and free disk space.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"imagemill/internal/config"
	"imagemill/internal/deps"
)

// Result describes one preflight check outcome.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minFreeBytes is the floor below which the publish volume is considered
// too full to build renditions into.
const minFreeBytes = 256 << 20

// Run evaluates every check for the given config. Callers decide whether a
// failed check is fatal; the pipeline treats all of them as fatal.
func Run(cfg *config.Config) []Result {
	results := []Result{
		CheckDirectoryAccess("Source directory", cfg.Paths.SourceDir),
		CheckDirectoryAccess("Publish directory", cfg.Paths.PublishDir),
		CheckDiskSpace("Publish volume", cfg.Paths.PublishDir),
	}
	for _, status := range deps.Check(cfg.Dependencies) {
		results = append(results, Result{
			Name:   fmt.Sprintf("Binary %s", status.Name),
			Passed: status.Available,
			Detail: status.Detail,
		})
	}
	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the volume holding path has room for renditions.
func CheckDiskSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := uint64(stat.Bavail) * uint64(stat.Bsize)
	if free < minFreeBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: only %d MiB free)", path, free>>20)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, free>>20)}
}
