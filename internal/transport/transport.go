// Package transport owns the actual calls to LLM providers. The inference
// core builds prompts and interprets responses; everything network-shaped
// lives behind the Invoker interface so the orchestrator can be tested
// without a live model.
package transport

import (
	"context"
	"errors"
	"fmt"

	"searchmark/internal/models"
	"searchmark/internal/prompts"
)

// Invoker performs one bounded model call. Implementations must honor ctx
// cancellation and report provider failures as *models.TransportError.
type Invoker interface {
	Invoke(ctx context.Context, model models.ModelDescriptor, prompt prompts.Prompt) (string, models.TokenUsage, error)
}

// Mux dispatches calls to the provider named by the model descriptor.
type Mux struct {
	providers map[string]Invoker
}

func NewMux() *Mux {
	return &Mux{providers: make(map[string]Invoker)}
}

// Register binds a provider name to its invoker. Called during wiring,
// before any request; not safe for concurrent use with Invoke.
func (m *Mux) Register(provider string, inv Invoker) {
	m.providers[provider] = inv
}

// Providers returns the registered provider names.
func (m *Mux) Providers() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	return names
}

func (m *Mux) Invoke(ctx context.Context, model models.ModelDescriptor, prompt prompts.Prompt) (string, models.TokenUsage, error) {
	inv, ok := m.providers[model.Provider]
	if !ok {
		return "", models.TokenUsage{}, &models.TransportError{
			Model:    model.ID,
			Provider: model.Provider,
			Err:      fmt.Errorf("no transport registered for provider %q", model.Provider),
		}
	}
	return inv.Invoke(ctx, model, prompt)
}

// asTransportError wraps err into a *models.TransportError, classifying
// context deadline expiry as a timeout.
func asTransportError(model models.ModelDescriptor, ctx context.Context, err error) error {
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	return &models.TransportError{
		Model:    model.ID,
		Provider: model.Provider,
		Timeout:  timeout,
		Err:      err,
	}
}
