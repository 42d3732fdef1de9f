package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskKind identifies one of the two structured inference tasks.
type TaskKind string

const (
	TaskSummarize      TaskKind = "summarize"
	TaskClassifyFolder TaskKind = "classify_folder"
)

// QualityTier is a coarse ranking of model reasoning capability used for
// escalation decisions. Ordering matters: Low < Mid < High.
type QualityTier int

const (
	TierLow QualityTier = iota
	TierMid
	TierHigh
)

func (t QualityTier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMid:
		return "mid"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseTier maps a config string onto a QualityTier.
func ParseTier(s string) (QualityTier, bool) {
	switch s {
	case "low":
		return TierLow, true
	case "mid":
		return TierMid, true
	case "high":
		return TierHigh, true
	}
	return TierLow, false
}

// ModelDescriptor describes one invokable model. Descriptors are loaded
// once at startup and never mutated afterwards; costs are USD per million
// tokens.
type ModelDescriptor struct {
	ID            string
	Provider      string
	Tier          QualityTier
	InputPerMTok  float64
	OutputPerMTok float64
	Tasks         []TaskKind
}

// SupportsTask reports whether the descriptor is approved for kind.
func (m ModelDescriptor) SupportsTask(kind TaskKind) bool {
	for _, t := range m.Tasks {
		if t == kind {
			return true
		}
	}
	return false
}

// Cost computes the USD cost of one call given token usage.
func (m ModelDescriptor) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*m.InputPerMTok/1e6 +
		float64(outputTokens)*m.OutputPerMTok/1e6
}

// TokenUsage is the usage a provider reports for a single call.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// TaskRequest is the input to one orchestrator run. It is owned by exactly
// one run and discarded when the result is produced.
type TaskRequest struct {
	Kind        TaskKind
	URL         string
	PageContent string

	// Analysis carries a prior Summarize result into a ClassifyFolder run,
	// mirroring the two-step analyze-then-recommend flow.
	Analysis *Summary

	// SuggestNewFolder selects the new-folder prompt variant: the model may
	// answer with a parent folder plus a NewFolderName instead of an
	// existing leaf.
	SuggestNewFolder bool
}

// StructuredOutput is the closed union of the two structured task outputs.
// Only Summary and FolderDecision implement it.
type StructuredOutput interface {
	TaskKind() TaskKind
}

// Summary is the structured output of the Summarize task.
type Summary struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords,omitempty"`
}

func (Summary) TaskKind() TaskKind { return TaskSummarize }

// FolderDecision is the structured output of the ClassifyFolder task. The
// folder reference is free-form model text (path-like or identifier-like)
// and is only tied to a real node by the resolver.
type FolderDecision struct {
	Folder        string   `json:"recommended_folder"`
	NewFolderName string   `json:"new_folder_name,omitempty"`
	Reasoning     string   `json:"reasoning"`
	Confidence    *float64 `json:"confidence,omitempty"`
}

func (FolderDecision) TaskKind() TaskKind { return TaskClassifyFolder }

// AttemptRecord captures one ladder attempt for diagnostics and billing.
type AttemptRecord struct {
	Model      string
	Provider   string
	RawOutput  string
	Outcome    string
	Err        string
	Elapsed    time.Duration
	Usage      TokenUsage
	CostUSD    float64
}

// Attempt outcome labels used in AttemptRecord.Outcome.
const (
	OutcomeSucceeded         = "succeeded"
	OutcomeTransportError    = "transport_error"
	OutcomeValidationDefect  = "validation_defect"
	OutcomeResolutionFailure = "resolution_failure"
)

// ResolvedResult is the terminal output of a successful run. Failed runs
// carry the same diagnostics inside a TerminalError instead.
type ResolvedResult struct {
	RequestID uuid.UUID
	Output    StructuredOutput

	// Set for ClassifyFolder only.
	FolderID   string
	FolderPath string
	// NewFolderName is set when the model proposed creating a folder under
	// the resolved node rather than filing into it.
	NewFolderName string

	Attempts     []AttemptRecord
	TotalCostUSD float64
}
