package oracle

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"locdrift/internal/domain"
)

const (
	defaultInitialBackoff = 5 * time.Second
	jitterFactor          = 0.2 // +/- 20%
)

// Retrying wraps an oracle with bounded retry and exponential backoff. Both
// unavailability and malformed responses are retryable; after the budget is
// spent the error surfaces so the pair can be recorded as analysis_failed
// without stopping unrelated pairs.
type Retrying struct {
	inner       domain.Oracle
	maxRetries  int
	backoff     time.Duration
	callTimeout time.Duration
	logger      *zap.Logger
}

// WithRetry decorates inner. maxRetries counts additional attempts after the
// first; initialBackoff <= 0 selects the default.
func WithRetry(inner domain.Oracle, maxRetries int, initialBackoff time.Duration, logger *zap.Logger) *Retrying {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if initialBackoff <= 0 {
		initialBackoff = defaultInitialBackoff
	}
	return &Retrying{inner: inner, maxRetries: maxRetries, backoff: initialBackoff, logger: logger}
}

// WithCallTimeout bounds each individual attempt. Without it a hung oracle
// call holds its worker for as long as the run context lives.
func (r *Retrying) WithCallTimeout(d time.Duration) *Retrying {
	r.callTimeout = d
	return r
}

func (r *Retrying) Compare(ctx context.Context, source, target []byte) ([]domain.Finding, error) {
	var lastErr error
	wait := r.backoff
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, jitter(wait)); err != nil {
				return nil, lastErr
			}
			wait *= 2
		}

		findings, err := r.compareOnce(ctx, source, target)
		if err == nil {
			return findings, nil
		}
		lastErr = err
		r.logger.Warn("oracle call failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", r.maxRetries+1),
			zap.Error(err))
	}
	return nil, lastErr
}

func (r *Retrying) compareOnce(ctx context.Context, source, target []byte) ([]domain.Finding, error) {
	if r.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
	}
	return r.inner.Compare(ctx, source, target)
}

func jitter(d time.Duration) time.Duration {
	delta := float64(d) * jitterFactor
	return d + time.Duration((rand.Float64()*2-1)*delta)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
