// Package deps verifies the external binaries the pipeline shells out to
// before any task is admitted.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"imagemill/internal/config"
	"imagemill/internal/services"
)

// Status reports the availability of one configured dependency.
type Status struct {
	Name      string
	Available bool
	Detail    string
}

// Check evaluates the configured dependencies and reports availability.
// A dependency's custom error message, when set, becomes the detail shown
// for a missing binary.
func Check(dependencies []config.Dependency) []Status {
	results := make([]Status, 0, len(dependencies))
	for _, dep := range dependencies {
		name := strings.TrimSpace(dep.Name)
		status := Status{Name: name}
		if name == "" {
			status.Detail = "dependency name not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(name); err != nil {
			if dep.ErrorMessage != "" {
				status.Detail = dep.ErrorMessage
			} else {
				status.Detail = fmt.Sprintf("binary %q not found in PATH", name)
			}
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Require checks dependencies and fails on the first missing one. Fatal at
// construction: nothing runs when a required binary is absent.
func Require(dependencies []config.Dependency) error {
	for _, status := range Check(dependencies) {
		if !status.Available {
			return services.Wrap(services.ErrMissingDependency, "deps", "check", statusDetail(status), nil)
		}
	}
	return nil
}

func statusDetail(status Status) string {
	if status.Detail == "" {
		return status.Name
	}
	return fmt.Sprintf("%s: %s", status.Name, status.Detail)
}
