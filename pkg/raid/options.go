package raid

import "time"

type options struct {
	timeout time.Duration
	target  *Target
	spareOK bool
}

// Option configures a Checker.
type Option func(*options)

// WithTimeout sets the per-read time budget.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithTarget restricts the check to one selector.
func WithTarget(t Target) Option {
	return func(o *options) { o.target = &t }
}

// WithSpareOK accepts spare members without warning.
func WithSpareOK(ok bool) Option {
	return func(o *options) { o.spareOK = ok }
}
