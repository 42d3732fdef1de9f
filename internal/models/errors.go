package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration is fatal at startup: a task kind has no registered
	// model, or config values are out of range. Never raised per-request.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidRequest means the caller's request is unusable as given,
	// such as a classify task with no folder tree. Per-request, never a
	// process fault.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrLadderExhausted means the router has no further model to offer.
	ErrLadderExhausted = errors.New("model ladder exhausted")
)

// TransportError wraps a collaborator-reported failure of the external
// model call (timeout, rate limit, provider outage). Always retryable
// inside one run.
type TransportError struct {
	Model    string
	Provider string
	Timeout  bool
	Err      error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("transport timeout on %s/%s: %v", e.Provider, e.Model, e.Err)
	}
	return fmt.Sprintf("transport error on %s/%s: %v", e.Provider, e.Model, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DefectKind classifies the way a raw model response violated its schema.
type DefectKind string

const (
	DefectMalformedSyntax DefectKind = "malformed_syntax"
	DefectMissingField    DefectKind = "missing_field"
	DefectInvalidValue    DefectKind = "invalid_value"
)

// ValidationDefect is a schema-level rejection of raw model output. Pure
// data, retryable inside one run.
type ValidationDefect struct {
	Kind  DefectKind
	Field string
	Err   error
}

func (e *ValidationDefect) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation defect %s (%s)", e.Kind, e.Field)
	}
	return fmt.Sprintf("validation defect %s", e.Kind)
}

func (e *ValidationDefect) Unwrap() error { return e.Err }

// ResolutionFailureKind classifies why a proposed folder reference could
// not be tied to a real node.
type ResolutionFailureKind string

const (
	NoPlausibleNode     ResolutionFailureKind = "no_plausible_node"
	AmbiguousCandidates ResolutionFailureKind = "ambiguous_candidates"
)

// ResolutionFailure reports a folder reference the resolver refused to
// map. Candidates lists the competing node ids when the failure is an
// ambiguity.
type ResolutionFailure struct {
	Kind       ResolutionFailureKind
	Reference  string
	Candidates []string
}

func (e *ResolutionFailure) Error() string {
	if e.Kind == AmbiguousCandidates {
		return fmt.Sprintf("ambiguous folder reference %q: candidates [%s]",
			e.Reference, strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("no plausible folder node for reference %q", e.Reference)
}

// TerminalKind names the terminal failure categories of a run.
type TerminalKind string

const (
	TerminalProviderExhausted   TerminalKind = "provider_exhausted"
	TerminalValidationExhausted TerminalKind = "validation_exhausted"
	TerminalLadderExhausted     TerminalKind = "ladder_exhausted"
)

// TerminalError is the only failure shape that crosses the API boundary.
// It carries the full attempt history and the total estimated cost, since
// callers bill for failed attempts too.
type TerminalError struct {
	Kind         TerminalKind
	LastErr      error
	Attempts     []AttemptRecord
	TotalCostUSD float64
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("inference failed (%s) after %d attempts: %v",
		e.Kind, len(e.Attempts), e.LastErr)
}

func (e *TerminalError) Unwrap() error { return e.LastErr }
