package router

import (
	"fmt"

	"searchmark/internal/models"
	"searchmark/internal/registry"
)

// FailureClass is the coarse failure category the ladder adapts on. The
// orchestrator records one per spent attempt.
type FailureClass int

const (
	// FailureTransport covers collaborator-reported errors: timeouts, rate
	// limits, provider outages.
	FailureTransport FailureClass = iota
	// FailureValidation covers structured-output defects and unresolvable
	// folder references.
	FailureValidation
)

// Router picks the model for each ladder attempt. It is stateless: the
// choice is a pure function of the task kind, the attempt index and the
// failure history, replayed against the static registry.
type Router struct {
	registry    *registry.Registry
	maxAttempts int
}

func New(reg *registry.Registry, maxAttempts int) *Router {
	return &Router{registry: reg, maxAttempts: maxAttempts}
}

// SelectModel returns the model for the given attempt.
//
// Attempt 0 is the cheapest Mid-or-higher model suitable for the task.
// After a validation-class failure the same model is repeated exactly once
// (transient generation noise), then the ladder escalates to the cheapest
// model of the next higher tier. After a transport-class failure the
// ladder rotates to a different model, preferring the same or a lower
// tier, and never offers the same model twice in a row.
//
// previousFailures must hold one entry per spent attempt, oldest first.
// Returns models.ErrLadderExhausted once attempts are spent or no
// candidate remains.
func (r *Router) SelectModel(kind models.TaskKind, attemptIndex int, previousFailures []FailureClass) (models.ModelDescriptor, error) {
	if attemptIndex >= r.maxAttempts {
		return models.ModelDescriptor{}, models.ErrLadderExhausted
	}
	if len(previousFailures) != attemptIndex {
		return models.ModelDescriptor{}, fmt.Errorf(
			"router: attempt index %d does not match %d recorded failures",
			attemptIndex, len(previousFailures))
	}

	candidates := r.registry.ModelsFor(kind)
	if len(candidates) == 0 {
		// Registry construction guarantees this cannot happen.
		return models.ModelDescriptor{}, models.ErrLadderExhausted
	}

	cur := initialPick(candidates)
	noiseRetried := make(map[string]bool)

	for _, failure := range previousFailures {
		switch failure {
		case FailureValidation:
			if !noiseRetried[candidates[cur].ID] {
				noiseRetried[candidates[cur].ID] = true
				continue
			}
			next, ok := escalate(candidates, cur)
			if !ok {
				return models.ModelDescriptor{}, models.ErrLadderExhausted
			}
			cur = next
		case FailureTransport:
			next, ok := rotate(candidates, cur)
			if !ok {
				return models.ModelDescriptor{}, models.ErrLadderExhausted
			}
			cur = next
		}
	}

	return candidates[cur], nil
}

// initialPick returns the index of the cheapest Mid-or-higher candidate.
// Candidates are ordered tier-ascending then cost-ascending, so the first
// one at TierMid or above is it. A registry with only Low-tier models
// still gets a pick rather than an error.
func initialPick(candidates []models.ModelDescriptor) int {
	for i, c := range candidates {
		if c.Tier >= models.TierMid {
			return i
		}
	}
	return 0
}

// escalate finds the cheapest candidate strictly above the current tier.
func escalate(candidates []models.ModelDescriptor, cur int) (int, bool) {
	for i, c := range candidates {
		if c.Tier > candidates[cur].Tier {
			return i, true
		}
	}
	return 0, false
}

// rotate finds a different model after a transport failure, assuming a
// provider-specific outage rather than a quality problem. Preference
// order: same tier, then lower tiers, then higher tiers as a last resort.
// The current model is never returned.
func rotate(candidates []models.ModelDescriptor, cur int) (int, bool) {
	curTier := candidates[cur].Tier

	pick := func(accept func(models.QualityTier) bool) (int, bool) {
		// Walk cyclically starting just past the current candidate so
		// repeated outages spread across the tier instead of ping-ponging
		// onto one neighbor.
		for off := 1; off < len(candidates); off++ {
			i := (cur + off) % len(candidates)
			if accept(candidates[i].Tier) {
				return i, true
			}
		}
		return 0, false
	}

	if i, ok := pick(func(t models.QualityTier) bool { return t == curTier }); ok {
		return i, true
	}
	if i, ok := pick(func(t models.QualityTier) bool { return t < curTier }); ok {
		return i, true
	}
	return pick(func(t models.QualityTier) bool { return t > curTier })
}
