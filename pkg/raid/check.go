package raid

import (
	"context"
	"fmt"

	"github.com/addisonbair/mdraid-sidecars/pkg/status"
)

// Checker implements check.Checker for md RAID health.
type Checker struct {
	Reader  *Reader
	Target  Target
	SpareOK bool
}

// NewChecker creates a RAID health checker over the given sysfs root.
func NewChecker(sysfsRoot, devRoot string, opts ...Option) *Checker {
	c := &Checker{Target: Target{All: true}}
	cfg := options{}
	for _, o := range opts {
		o(&cfg)
	}
	c.Reader = NewReader(NewSysFS(sysfsRoot, cfg.timeout), devRoot)
	if cfg.target != nil {
		c.Target = *cfg.target
	}
	c.SpareOK = cfg.spareOK
	return c
}

// Name returns the check name.
func (c *Checker) Name() string {
	return "raid"
}

// Check resolves the target, evaluates every array and returns the
// aggregated verdict. A fatal error yields Unknown with its description.
func (c *Checker) Check(ctx context.Context) (status.Severity, string, error) {
	select {
	case <-ctx.Done():
		return status.Unknown, "", ctx.Err()
	default:
	}

	rep, err := c.Report(ctx)
	if err != nil {
		return status.Unknown, Describe(err), err
	}
	return rep.Severity, rep.Message, nil
}

// Report runs the full check and returns the per-array details.
func (c *Checker) Report(ctx context.Context) (*Report, error) {
	targets, err := c.Reader.Targets(ctx, c.Target)
	if err != nil {
		return nil, fmt.Errorf("raid check failed: %w", err)
	}
	return Run(ctx, c.Reader, targets, c.SpareOK)
}
