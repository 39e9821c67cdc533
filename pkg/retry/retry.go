package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy defines the retry policy configuration
type Policy struct {
	InitialInterval    time.Duration
	BackoffCoefficient float64
	MaximumInterval    time.Duration
	MaximumAttempts    int32
}

// Option represents a retry policy option
type Option func(*Policy)

// WithInitialInterval sets the initial interval for retries
func WithInitialInterval(interval time.Duration) Option {
	return func(p *Policy) {
		p.InitialInterval = interval
	}
}

// WithBackoffCoefficient sets the backoff coefficient
func WithBackoffCoefficient(coefficient float64) Option {
	return func(p *Policy) {
		p.BackoffCoefficient = coefficient
	}
}

// WithMaximumInterval sets the maximum interval between retries
func WithMaximumInterval(interval time.Duration) Option {
	return func(p *Policy) {
		p.MaximumInterval = interval
	}
}

// WithMaxAttempts sets the maximum number of attempts, first try included
func WithMaxAttempts(attempts int32) Option {
	return func(p *Policy) {
		p.MaximumAttempts = attempts
	}
}

// NewPolicy creates a new retry policy with default values
func NewPolicy(opts ...Option) *Policy {
	policy := &Policy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Second * 100,
		MaximumAttempts:    3,
	}

	for _, opt := range opts {
		opt(policy)
	}

	return policy
}

func (p *Policy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.Multiplier = p.BackoffCoefficient
	eb.MaxInterval = p.MaximumInterval
	eb.MaxElapsedTime = 0

	var b backoff.BackOff = eb
	if p.MaximumAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaximumAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// Executor runs operations under a retry policy
type Executor struct {
	policy *Policy
}

// NewExecutor creates a new executor for the given policy
func NewExecutor(policy *Policy) *Executor {
	if policy == nil {
		policy = NewPolicy()
	}
	return &Executor{policy: policy}
}

// Execute runs the operation, retrying failures according to the policy.
// Wrapping an error with backoff.Permanent stops further attempts. The
// context cancels both waits and remaining attempts.
func (e *Executor) Execute(ctx context.Context, operation func() error) error {
	return backoff.Retry(operation, e.policy.backOff(ctx))
}

// ExecuteNotify behaves like Execute and additionally invokes notify with
// each intermediate failure and the upcoming wait.
func (e *Executor) ExecuteNotify(ctx context.Context, operation func() error, notify func(error, time.Duration)) error {
	return backoff.RetryNotify(operation, e.policy.backOff(ctx), notify)
}
