package check

import (
	"context"
	"time"

	"github.com/addisonbair/mdraid-sidecars/pkg/log"
	"github.com/addisonbair/mdraid-sidecars/pkg/status"
)

// Locker is the inhibitor lock driven by a Runner. *inhibitor.Lock
// implements it.
type Locker interface {
	Acquire(reason string) error
	Release() error
	IsHolding() bool
}

// Runner continuously executes health checks and manages an inhibitor lock.
type Runner struct {
	Checks   []Checker
	Interval time.Duration
	Timeout  time.Duration // Per-cycle timeout
	// Threshold is the lowest severity that takes the lock. Zero (OK)
	// means Warning.
	Threshold status.Severity
	Lock      Locker
}

// Run starts the check loop. Blocks until context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	// Run immediately on start
	r.runOnce(ctx)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if r.Lock.IsHolding() {
				if err := r.Lock.Release(); err != nil {
					log.Error().Err(err).Msg("Failed to release inhibitor on shutdown")
				}
			}
			return ctx.Err()
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) threshold() status.Severity {
	if r.Threshold == status.OK {
		return status.Warning
	}
	return r.Threshold
}

func (r *Runner) runOnce(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	results := RunAll(checkCtx, r.Checks)
	worst := Worst(results)
	blocking := worst >= r.threshold()

	for _, res := range results {
		if res.Healthy() {
			log.Info().Str("check", res.Name).Msg(res.Reason)
		} else {
			log.Warn().Str("check", res.Name).Stringer("severity", res.Severity).Err(res.Err).Msg(res.Reason)
		}
	}

	if blocking && !r.Lock.IsHolding() {
		reason := SummarizeFailures(results)
		log.Info().Str("reason", reason).Msg("Acquiring inhibitor")
		if err := r.Lock.Acquire(reason); err != nil {
			log.Error().Err(err).Msg("Failed to acquire inhibitor")
		}
	} else if !blocking && r.Lock.IsHolding() {
		log.Info().Stringer("severity", worst).Msg("Releasing inhibitor")
		if err := r.Lock.Release(); err != nil {
			log.Error().Err(err).Msg("Failed to release inhibitor")
		}
	}
}
