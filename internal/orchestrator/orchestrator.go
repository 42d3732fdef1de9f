// Package orchestrator coordinates router, transport, validator and
// resolver across the retry ladder of a single inference request.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"searchmark/internal/folder"
	"searchmark/internal/models"
	"searchmark/internal/prompts"
	"searchmark/internal/router"
	"searchmark/internal/schema"
	"searchmark/internal/telemetry"
	"searchmark/internal/transport"
)

// Config bounds one orchestrator run.
type Config struct {
	MaxAttempts     int
	AttemptTimeout  time.Duration
	TitleMaxChars   int
	SummaryMaxChars int
}

// Orchestrator owns the attempt budget, per-attempt timeout and the final
// success-or-failure decision for each request. It holds no per-request
// state itself: every Run carries its own, so runs for different requests
// execute fully in parallel.
type Orchestrator struct {
	router   *router.Router
	invoker  transport.Invoker
	resolver *folder.Resolver
	sink     telemetry.Sink
	cfg      Config
}

func New(r *router.Router, inv transport.Invoker, res *folder.Resolver, sink telemetry.Sink, cfg Config) *Orchestrator {
	if sink == nil {
		sink = telemetry.NoopSink{}
	}
	return &Orchestrator{router: r, invoker: inv, resolver: res, sink: sink, cfg: cfg}
}

// state is the per-request machine position. Transitions:
// Pending -> AwaitingModel -> Validating -> (Resolving) -> Succeeded
// with Retrying -> AwaitingModel loops and Failed as the other terminal.
type state int

const (
	statePending state = iota
	stateAwaitingModel
	stateValidating
	stateResolving
	stateRetrying
	stateSucceeded
	stateFailed
)

// run is the request-local record threaded through the state machine. The
// adaptive ladder lives entirely here, never in shared mutable state.
type run struct {
	id       uuid.UUID
	req      models.TaskRequest
	tree     *folder.Tree
	contract schema.Contract
	prompt   prompts.Prompt

	attempt  int
	failures []router.FailureClass
	records  []models.AttemptRecord
	lastErr  error
	terminal models.TerminalKind

	// transient, valid between AwaitingModel and the next transition
	model  models.ModelDescriptor
	raw    string
	usage  models.TokenUsage
	spent  time.Duration
	output models.StructuredOutput

	result *models.ResolvedResult
}

func (r *run) totalCost() float64 {
	var total float64
	for _, rec := range r.records {
		total += rec.CostUSD
	}
	return total
}

func (r *run) record(outcome string, err error) {
	rec := models.AttemptRecord{
		Model:     r.model.ID,
		Provider:  r.model.Provider,
		RawOutput: r.raw,
		Outcome:   outcome,
		Elapsed:   r.spent,
		Usage:     r.usage,
		CostUSD:   r.model.Cost(r.usage.InputTokens, r.usage.OutputTokens),
	}
	if err != nil {
		rec.Err = err.Error()
	}
	r.records = append(r.records, rec)
}

// Run executes one request to its terminal outcome. It is the
// submit-and-await surface an external admission limiter wraps; the only
// suspension point inside is the bounded transport call.
func (o *Orchestrator) Run(ctx context.Context, req models.TaskRequest, tree *folder.Tree) (*models.ResolvedResult, error) {
	if req.Kind == models.TaskClassifyFolder && (tree == nil || tree.Len() == 0) {
		return nil, fmt.Errorf("%w: classify_folder requires a non-empty folder tree", models.ErrInvalidRequest)
	}

	r := &run{
		id:   uuid.New(),
		req:  req,
		tree: tree,
	}
	switch req.Kind {
	case models.TaskSummarize:
		r.contract = schema.SummaryContract(o.cfg.TitleMaxChars, o.cfg.SummaryMaxChars)
		r.prompt = prompts.Summarize(req.URL, req.PageContent, r.contract.Hint())
	case models.TaskClassifyFolder:
		r.contract = schema.FolderDecisionContract(req.SuggestNewFolder)
		r.prompt = prompts.ClassifyFolder(req.URL, req.Analysis, req.PageContent,
			tree.Paths(), req.SuggestNewFolder, r.contract.Hint())
	default:
		return nil, fmt.Errorf("%w: unknown task kind %q", models.ErrConfiguration, req.Kind)
	}

	started := time.Now()
	st := statePending
	for {
		switch st {
		case statePending:
			st = stateAwaitingModel
		case stateAwaitingModel:
			st = o.awaitModel(ctx, r)
		case stateValidating:
			st = o.validate(r)
		case stateResolving:
			st = o.resolve(r)
		case stateRetrying:
			r.attempt++
			st = stateAwaitingModel
		case stateSucceeded:
			r.result.Attempts = r.records
			r.result.TotalCostUSD = r.totalCost()
			o.emit(ctx, r, started, true)
			return r.result, nil
		case stateFailed:
			o.emit(ctx, r, started, false)
			return nil, &models.TerminalError{
				Kind:         r.terminal,
				LastErr:      r.lastErr,
				Attempts:     r.records,
				TotalCostUSD: r.totalCost(),
			}
		}
	}
}

func (o *Orchestrator) awaitModel(ctx context.Context, r *run) state {
	model, err := o.router.SelectModel(r.req.Kind, r.attempt, r.failures)
	if err != nil {
		r.lastErr = err
		r.terminal = models.TerminalLadderExhausted
		return stateFailed
	}
	r.model = model
	r.raw, r.usage = "", models.TokenUsage{}

	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.AttemptTimeout)
	defer cancel()

	begin := time.Now()
	raw, usage, err := o.invoker.Invoke(attemptCtx, model, r.prompt)
	r.spent = time.Since(begin)
	r.raw, r.usage = raw, usage

	if err != nil {
		// An abandoned in-flight call counts as a transport failure and
		// consumes this attempt.
		log.Debugf("run %s attempt %d: transport failure on %s: %v", r.id, r.attempt, model.ID, err)
		r.record(models.OutcomeTransportError, err)
		r.failures = append(r.failures, router.FailureTransport)
		r.lastErr = err
		return o.retryOrFail(r, models.TerminalProviderExhausted)
	}
	return stateValidating
}

func (o *Orchestrator) validate(r *run) state {
	output, defect := schema.Validate(r.raw, r.contract)
	if defect != nil {
		log.Debugf("run %s attempt %d: %s from %s", r.id, r.attempt, defect, r.model.ID)
		r.record(models.OutcomeValidationDefect, defect)
		r.failures = append(r.failures, router.FailureValidation)
		r.lastErr = defect
		return o.retryOrFail(r, models.TerminalValidationExhausted)
	}
	r.output = output

	if r.req.Kind == models.TaskClassifyFolder {
		return stateResolving
	}

	r.record(models.OutcomeSucceeded, nil)
	r.result = &models.ResolvedResult{RequestID: r.id, Output: output}
	return stateSucceeded
}

func (o *Orchestrator) resolve(r *run) state {
	decision := r.output.(models.FolderDecision)

	// New-folder answer shape: nothing in the tree fits, the model named a
	// folder to create. There is no node to resolve; the empty reference
	// passed validation only because the contract allowed this mode.
	if decision.Folder == "" && decision.NewFolderName != "" {
		r.record(models.OutcomeSucceeded, nil)
		r.result = &models.ResolvedResult{
			RequestID:     r.id,
			Output:        decision,
			NewFolderName: decision.NewFolderName,
		}
		return stateSucceeded
	}

	node, failure := o.resolver.Resolve(decision.Folder, r.tree)
	if failure != nil {
		// An unresolvable reference is functionally a malformed answer: it
		// consumes budget exactly like a validation defect.
		log.Debugf("run %s attempt %d: %s", r.id, r.attempt, failure)
		r.record(models.OutcomeResolutionFailure, failure)
		r.failures = append(r.failures, router.FailureValidation)
		r.lastErr = failure
		return o.retryOrFail(r, models.TerminalValidationExhausted)
	}

	r.record(models.OutcomeSucceeded, nil)
	r.result = &models.ResolvedResult{
		RequestID:     r.id,
		Output:        decision,
		FolderID:      node.ID,
		FolderPath:    r.tree.Path(node.ID),
		NewFolderName: decision.NewFolderName,
	}
	return stateSucceeded
}

// retryOrFail decides whether budget remains; the terminal kind mirrors
// the category of the last attempt's failure.
func (o *Orchestrator) retryOrFail(r *run, terminal models.TerminalKind) state {
	if r.attempt+1 < o.cfg.MaxAttempts {
		return stateRetrying
	}
	r.terminal = terminal
	return stateFailed
}

func (o *Orchestrator) emit(ctx context.Context, r *run, started time.Time, succeeded bool) {
	o.sink.EmitRequest(ctx, telemetry.Report{
		RequestID:    r.id,
		Task:         r.req.Kind,
		Succeeded:    succeeded,
		TerminalKind: r.terminal,
		Attempts:     r.records,
		TotalCostUSD: r.totalCost(),
		Elapsed:      time.Since(started),
	})
}
