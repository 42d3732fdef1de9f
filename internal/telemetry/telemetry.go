// Package telemetry receives the per-request attempt history and cost
// estimate after every orchestrator run. The core emits; persistence and
// billing live with whoever consumes the sink.
package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"searchmark/internal/models"
)

// Report is everything a run produced about itself: one entry per ladder
// attempt plus the summed cost estimate, emitted on success and failure
// alike so callers can bill for failed attempts too.
type Report struct {
	RequestID    uuid.UUID
	Task         models.TaskKind
	Succeeded    bool
	TerminalKind models.TerminalKind
	Attempts     []models.AttemptRecord
	TotalCostUSD float64
	Elapsed      time.Duration
}

// Sink consumes request reports.
type Sink interface {
	EmitRequest(ctx context.Context, report Report)
}

// LogSink writes reports to the structured log.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) EmitRequest(_ context.Context, r Report) {
	entry := log.WithFields(log.Fields{
		"request_id": r.RequestID,
		"task":       r.Task,
		"succeeded":  r.Succeeded,
		"attempts":   len(r.Attempts),
		"cost_usd":   r.TotalCostUSD,
		"elapsed_ms": r.Elapsed.Milliseconds(),
	})
	if !r.Succeeded {
		entry = entry.WithField("terminal_kind", r.TerminalKind)
	}
	entry.Info("inference request finished")

	for i, a := range r.Attempts {
		log.WithFields(log.Fields{
			"request_id":    r.RequestID,
			"attempt":       i,
			"model":         a.Model,
			"provider":      a.Provider,
			"outcome":       a.Outcome,
			"input_tokens":  a.Usage.InputTokens,
			"output_tokens": a.Usage.OutputTokens,
			"cost_usd":      a.CostUSD,
			"elapsed_ms":    a.Elapsed.Milliseconds(),
		}).Debug("inference attempt")
	}
}

// NoopSink discards reports; used in tests.
type NoopSink struct{}

func (NoopSink) EmitRequest(context.Context, Report) {}
