package workflow

import (
	"time"

	"github.com/a11yflow/pdf-accessibility/internal/gcp"
)

// RetryPolicy bounds retries of one stage's invocation. Retries apply
// only to transient infrastructure errors accepted by Retryable — a
// stage's own deliberate FAILED status is a branch outcome and is never
// retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of invocations, first try
	// included.
	MaxAttempts int

	// InitialInterval is the wait before the second attempt.
	InitialInterval time.Duration

	// BackoffRate multiplies the interval after each failed attempt.
	BackoffRate float64

	// Retryable decides whether an invocation error is transient.
	// Nil means gcp.IsRetryable.
	Retryable func(error) bool
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = time.Second
	}
	if p.BackoffRate < 1 {
		p.BackoffRate = 2.0
	}
	if p.Retryable == nil {
		p.Retryable = gcp.IsRetryable
	}
	return p
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	p = p.normalized()
	interval := p.InitialInterval
	for i := 1; i < attempt; i++ {
		interval = time.Duration(float64(interval) * p.BackoffRate)
	}
	return interval
}

// Per-stage default policies. Values track expected stage duration and
// flakiness: validation is cheap and retried fast, conversion is long
// running and retried slowly and fewer times, transfers sit in between.

func ValidatePolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialInterval: 2 * time.Second, BackoffRate: 2.0}
}

func DownloadPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 4, InitialInterval: 5 * time.Second, BackoffRate: 2.0}
}

func ConvertPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, InitialInterval: 30 * time.Second, BackoffRate: 2.0}
}

func UploadPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 4, InitialInterval: 5 * time.Second, BackoffRate: 2.0}
}

func CleanupPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, InitialInterval: 2 * time.Second, BackoffRate: 2.0}
}
