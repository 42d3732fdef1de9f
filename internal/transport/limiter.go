package transport

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"searchmark/internal/models"
	"searchmark/internal/prompts"
)

// Limiter caps concurrent outbound calls and smooths the request rate
// against the providers. The orchestrator itself stays limiter-free; this
// decorator is the admission-control hook wrapped around the transport.
type Limiter struct {
	next    Invoker
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

func NewLimiter(next Invoker, maxConcurrent int, requestsPerSec float64) *Limiter {
	return &Limiter{
		next:    next,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), maxConcurrent),
	}
}

func (l *Limiter) Invoke(ctx context.Context, model models.ModelDescriptor, prompt prompts.Prompt) (string, models.TokenUsage, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", models.TokenUsage{}, asTransportError(model, ctx, err)
	}
	defer l.sem.Release(1)

	if err := l.limiter.Wait(ctx); err != nil {
		return "", models.TokenUsage{}, asTransportError(model, ctx, err)
	}
	return l.next.Invoke(ctx, model, prompt)
}

var _ Invoker = (*Limiter)(nil)
