// Package check provides a common interface for health checks.
package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/addisonbair/mdraid-sidecars/pkg/status"
)

// Checker performs a health check.
type Checker interface {
	// Name returns a short identifier for this check.
	Name() string
	// Check performs the health check and returns its severity and a
	// human-readable message. A non-nil error means the check itself failed.
	Check(ctx context.Context) (status.Severity, string, error)
}

// Result of a single check execution.
type Result struct {
	Name     string
	Severity status.Severity
	Reason   string
	Err      error
}

// Healthy reports whether the check ran and returned OK.
func (r Result) Healthy() bool {
	return r.Err == nil && r.Severity == status.OK
}

// RunAll executes all checks and returns results.
// Checks are run sequentially to avoid resource contention.
func RunAll(ctx context.Context, checks []Checker) []Result {
	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		select {
		case <-ctx.Done():
			results = append(results, Result{
				Name:     c.Name(),
				Severity: status.Unknown,
				Reason:   "timeout",
				Err:      ctx.Err(),
			})
			return results
		default:
		}

		sev, reason, err := c.Check(ctx)
		r := Result{
			Name:     c.Name(),
			Severity: sev,
			Reason:   reason,
			Err:      err,
		}
		if err != nil {
			r.Severity = status.Unknown
			if r.Reason == "" {
				r.Reason = err.Error()
			}
		}
		results = append(results, r)
	}
	return results
}

// AllHealthy returns true if all results indicate healthy status.
func AllHealthy(results []Result) bool {
	for _, r := range results {
		if !r.Healthy() {
			return false
		}
	}
	return true
}

// Worst returns the highest severity among results, OK for none.
func Worst(results []Result) status.Severity {
	worst := status.OK
	for _, r := range results {
		worst = status.Max(worst, r.Severity)
	}
	return worst
}

// SummarizeFailures returns a human-readable summary of failed checks.
func SummarizeFailures(results []Result) string {
	var failures []string
	for _, r := range results {
		if !r.Healthy() {
			failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Reason))
		}
	}
	if len(failures) == 0 {
		return "all checks passed"
	}
	return strings.Join(failures, "; ")
}
