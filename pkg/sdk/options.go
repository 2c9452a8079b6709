package sdk

import "time"

// SupportedSchemaMajor is the learnroad://schema major version this client
// speaks.
const SupportedSchemaMajor = "1"

type options struct {
	timeout      time.Duration
	maxAttempts  int
	initialDelay time.Duration
}

// Plan generation runs several model calls, so the default timeout is
// generous. Tool error results are never retried.
func defaultOptions() options {
	return options{
		timeout:      2 * time.Minute,
		maxAttempts:  2,
		initialDelay: 250 * time.Millisecond,
	}
}

type Option func(*options)

// WithTimeout bounds each tool call. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRetry sets how often a failed transport call is attempted.
func WithRetry(maxAttempts int, initialDelay time.Duration) Option {
	return func(o *options) {
		if maxAttempts < 1 {
			maxAttempts = 1
		}
		o.maxAttempts = maxAttempts
		o.initialDelay = initialDelay
	}
}
