package config

import (
	"errors"
	"fmt"
)

/*
Startup-time validation. Anything wrong here is a configuration error and
fatal before the first request; per-request code may assume the config is
internally consistent.
*/

func (c *Config) Validate() error {
	if c.Orchestrator.MaxAttempts <= 0 {
		return errors.New("orchestrator.max_attempts must be a positive integer")
	}
	if c.Orchestrator.AttemptTimeout <= 0 {
		return errors.New("orchestrator.attempt_timeout must be positive")
	}

	if c.Resolver.AcceptThreshold <= 0 || c.Resolver.AcceptThreshold > 1 {
		return fmt.Errorf("resolver.accept_threshold (%v) must be in (0, 1]", c.Resolver.AcceptThreshold)
	}
	if c.Resolver.Margin < 0 || c.Resolver.Margin >= 1 {
		return fmt.Errorf("resolver.margin (%v) must be in [0, 1)", c.Resolver.Margin)
	}

	if c.Content.MaxChars <= 0 {
		return errors.New("content.max_chars must be positive")
	}
	if c.Validator.TitleMaxChars <= 0 || c.Validator.SummaryMaxChars <= 0 {
		return errors.New("validator title/summary max chars must be positive")
	}

	if len(c.Models) == 0 {
		return errors.New("models must declare at least one model")
	}
	for i, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("models[%d].id is required", i)
		}
		if m.Provider == "" {
			return fmt.Errorf("model '%s': provider is required", m.ID)
		}
		switch m.Tier {
		case "low", "mid", "high":
		default:
			return fmt.Errorf("model '%s': tier must be one of low/mid/high, got %q", m.ID, m.Tier)
		}
		if m.InputPerMTok < 0 || m.OutputPerMTok < 0 {
			return fmt.Errorf("model '%s' has negative token cost", m.ID)
		}
		if len(m.Tasks) == 0 {
			return fmt.Errorf("model '%s' must list at least one task", m.ID)
		}
	}

	if c.Transport.MaxConcurrent <= 0 {
		return errors.New("transport.max_concurrent must be a positive integer")
	}
	if c.Transport.RequestsPerSec <= 0 {
		return errors.New("transport.requests_per_sec must be positive")
	}

	return nil
}
