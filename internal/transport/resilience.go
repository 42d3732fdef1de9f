package transport

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	log "github.com/sirupsen/logrus"

	"searchmark/internal/models"
	"searchmark/internal/prompts"
)

type invokeResult struct {
	raw   string
	usage models.TokenUsage
}

// Breaker trips a per-provider circuit when a provider keeps failing, so
// the router's rotation lands on a healthy provider instead of burning
// attempts against a known outage. An open circuit reports as a transport
// error, which the ladder already treats as retryable-with-rotation.
type Breaker struct {
	next Invoker

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[invokeResult]
}

func NewBreaker(next Invoker) *Breaker {
	return &Breaker{
		next:     next,
		breakers: make(map[string]*gobreaker.CircuitBreaker[invokeResult]),
	}
}

func (b *Breaker) breakerFor(provider string) *gobreaker.CircuitBreaker[invokeResult] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.breakers[provider]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[invokeResult](gobreaker.Settings{
		Name:        "llm-" + provider,
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.TotalFailures*2 >= counts.Requests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	b.breakers[provider] = cb
	return cb
}

func (b *Breaker) Invoke(ctx context.Context, model models.ModelDescriptor, prompt prompts.Prompt) (string, models.TokenUsage, error) {
	cb := b.breakerFor(model.Provider)
	res, err := cb.Execute(func() (invokeResult, error) {
		raw, usage, err := b.next.Invoke(ctx, model, prompt)
		return invokeResult{raw: raw, usage: usage}, err
	})
	if err != nil {
		if _, ok := err.(*models.TransportError); !ok {
			// Breaker-open and half-open rejections arrive as plain errors.
			err = asTransportError(model, ctx, err)
		}
		return "", models.TokenUsage{}, err
	}
	return res.raw, res.usage, nil
}

var _ Invoker = (*Breaker)(nil)
