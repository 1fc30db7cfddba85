package llm

import (
	"context"
	"math"
	"sync"
	"time"
)

// RateLimitedProvider spaces generation requests to at most rpm per minute.
// Unused allowance accumulates up to a burst of rpm requests.
type RateLimitedProvider struct {
	provider Provider
	interval time.Duration // time to earn one request
	burst    float64

	mu      sync.Mutex
	credit  float64
	updated time.Time
}

// NewRateLimitedProvider wraps provider so that it serves at most rpm
// requests per minute. A non-positive rpm returns provider unchanged.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	return &RateLimitedProvider{
		provider: provider,
		interval: time.Minute / time.Duration(rpm),
		burst:    float64(rpm),
		credit:   float64(rpm),
		updated:  time.Now(),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

// reserve takes one request of credit and returns zero, or returns how long
// until a whole request has accrued.
func (r *RateLimitedProvider) reserve(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	earned := float64(now.Sub(r.updated)) / float64(r.interval)
	r.credit = math.Min(r.burst, r.credit+earned)
	r.updated = now

	if r.credit >= 1 {
		r.credit--
		return 0
	}
	return time.Duration((1 - r.credit) * float64(r.interval))
}

func (r *RateLimitedProvider) wait(ctx context.Context) error {
	for {
		delay := r.reserve(time.Now())
		if delay == 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
