package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchmark/internal/config"
	"searchmark/internal/folder"
	"searchmark/internal/models"
	"searchmark/internal/prompts"
	"searchmark/internal/registry"
	"searchmark/internal/router"
	"searchmark/internal/telemetry"
	"searchmark/internal/transport"
)

// step scripts one transport response.
type step struct {
	raw   string
	usage models.TokenUsage
	err   error
}

// scriptedInvoker returns its steps in order and records which model
// served each call.
type scriptedInvoker struct {
	steps  []step
	models []string
}

func (s *scriptedInvoker) Invoke(ctx context.Context, model models.ModelDescriptor, _ prompts.Prompt) (string, models.TokenUsage, error) {
	s.models = append(s.models, model.ID)
	if len(s.steps) == 0 {
		return "", models.TokenUsage{}, &models.TransportError{
			Model: model.ID, Provider: model.Provider,
			Err: errors.New("script exhausted"),
		}
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	if st.err != nil {
		return "", st.usage, st.err
	}
	return st.raw, st.usage, nil
}

// stallingInvoker hangs for stallCalls calls until the attempt context
// expires, then delegates to the scripted steps.
type stallingInvoker struct {
	scriptedInvoker
	stallCalls int
}

func (s *stallingInvoker) Invoke(ctx context.Context, model models.ModelDescriptor, prompt prompts.Prompt) (string, models.TokenUsage, error) {
	if s.stallCalls > 0 {
		s.stallCalls--
		s.models = append(s.models, model.ID)
		<-ctx.Done()
		return "", models.TokenUsage{}, ctx.Err()
	}
	return s.scriptedInvoker.Invoke(ctx, model, prompt)
}

type capturingSink struct {
	reports []telemetry.Report
}

func (c *capturingSink) EmitRequest(_ context.Context, r telemetry.Report) {
	c.reports = append(c.reports, r)
}

func twoTierRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]config.ModelEntry{
		{ID: "cheap-mid", Provider: "openai", Tier: "mid",
			InputPerMTok: 0.15, OutputPerMTok: 0.6,
			Tasks: []string{"summarize", "classify_folder"}},
		{ID: "big-high", Provider: "openai", Tier: "high",
			InputPerMTok: 2.5, OutputPerMTok: 10,
			Tasks: []string{"summarize", "classify_folder"}},
	})
	require.NoError(t, err)
	return reg
}

func newTestOrchestrator(t *testing.T, inv transport.Invoker, sink telemetry.Sink) *Orchestrator {
	t.Helper()
	return newTestOrchestratorWithTimeout(t, inv, sink, time.Second)
}

func newTestOrchestratorWithTimeout(t *testing.T, inv transport.Invoker, sink telemetry.Sink, timeout time.Duration) *Orchestrator {
	t.Helper()
	reg := twoTierRegistry(t)
	return New(
		router.New(reg, 3),
		inv,
		folder.NewResolver(0.82, 0.1),
		sink,
		Config{
			MaxAttempts:     3,
			AttemptTimeout:  timeout,
			TitleMaxChars:   200,
			SummaryMaxChars: 2000,
		},
	)
}

func classifyTree(t *testing.T) *folder.Tree {
	t.Helper()
	tree, err := folder.NewTree([]*folder.Folder{
		{ID: "f-work", Name: "Work", Children: []*folder.Folder{
			{ID: "f-projects", Name: "Projects", Children: []*folder.Folder{
				{ID: "f-alpha", Name: "Alpha"},
				{ID: "f-beta", Name: "Beta"},
			}},
		}},
	})
	require.NoError(t, err)
	return tree
}

func summarizeRequest() models.TaskRequest {
	return models.TaskRequest{
		Kind:        models.TaskSummarize,
		URL:         "https://example.com",
		PageContent: "Example Domain. This domain is for use in examples.",
	}
}

func classifyRequest() models.TaskRequest {
	return models.TaskRequest{
		Kind: models.TaskClassifyFolder,
		URL:  "https://example.com",
		Analysis: &models.Summary{
			Title:   "Example",
			Summary: "An example page.",
		},
	}
}

const goodSummary = `{"title": "Example", "summary": "An example page."}`

func TestSummarizeSucceedsFirstAttempt(t *testing.T) {
	inv := &scriptedInvoker{steps: []step{
		{raw: goodSummary, usage: models.TokenUsage{InputTokens: 1000, OutputTokens: 100}},
	}}
	sink := &capturingSink{}
	o := newTestOrchestrator(t, inv, sink)

	result, err := o.Run(context.Background(), summarizeRequest(), nil)
	require.NoError(t, err)

	summary := result.Output.(models.Summary)
	assert.Equal(t, "Example", summary.Title)
	assert.Equal(t, []string{"cheap-mid"}, inv.models)

	require.Len(t, result.Attempts, 1)
	assert.Equal(t, models.OutcomeSucceeded, result.Attempts[0].Outcome)
	// 1000 in + 100 out on cheap-mid list prices.
	assert.InDelta(t, 0.00015+0.00006, result.TotalCostUSD, 1e-9)

	require.Len(t, sink.reports, 1)
	assert.True(t, sink.reports[0].Succeeded)
	assert.InDelta(t, result.TotalCostUSD, sink.reports[0].TotalCostUSD, 1e-9)
}

func TestTruncatedThenMissingFieldEscalatesTier(t *testing.T) {
	// Attempt 0: truncated JSON (noise, retry same model). Attempt 1:
	// parses but missing the summary field (escalate). Attempt 2: the
	// high-tier model answers correctly.
	inv := &scriptedInvoker{steps: []step{
		{raw: `{"title": "Exam`, usage: models.TokenUsage{InputTokens: 100, OutputTokens: 5}},
		{raw: `{"title": "Example"}`, usage: models.TokenUsage{InputTokens: 100, OutputTokens: 10}},
		{raw: goodSummary, usage: models.TokenUsage{InputTokens: 100, OutputTokens: 20}},
	}}
	o := newTestOrchestrator(t, inv, &capturingSink{})

	result, err := o.Run(context.Background(), summarizeRequest(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"cheap-mid", "cheap-mid", "big-high"}, inv.models)
	require.Len(t, result.Attempts, 3)
	assert.Equal(t, models.OutcomeValidationDefect, result.Attempts[0].Outcome)
	assert.Equal(t, models.OutcomeValidationDefect, result.Attempts[1].Outcome)
	assert.Equal(t, models.OutcomeSucceeded, result.Attempts[2].Outcome)
	// Failed attempts are billed too.
	assert.Greater(t, result.TotalCostUSD, result.Attempts[2].CostUSD)
}

func TestValidationExhaustedAfterBudgetSpent(t *testing.T) {
	inv := &scriptedInvoker{steps: []step{
		{raw: "not json"},
		{raw: "still not json"},
		{raw: "never json"},
	}}
	sink := &capturingSink{}
	o := newTestOrchestrator(t, inv, sink)

	_, err := o.Run(context.Background(), summarizeRequest(), nil)
	require.Error(t, err)

	var terminal *models.TerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, models.TerminalValidationExhausted, terminal.Kind)
	assert.Len(t, terminal.Attempts, 3)

	require.Len(t, sink.reports, 1)
	assert.False(t, sink.reports[0].Succeeded)
	assert.Equal(t, models.TerminalValidationExhausted, sink.reports[0].TerminalKind)
}

func TestProviderExhaustedMatchesLastFailureCategory(t *testing.T) {
	transportErr := &models.TransportError{Model: "cheap-mid", Provider: "openai", Err: errors.New("rate limited")}
	inv := &scriptedInvoker{steps: []step{
		{raw: "not json"},     // validation defect
		{err: transportErr},   // transport failure
		{err: transportErr},   // transport failure again, last category wins
	}}
	o := newTestOrchestrator(t, inv, &capturingSink{})

	_, err := o.Run(context.Background(), summarizeRequest(), nil)
	var terminal *models.TerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, models.TerminalProviderExhausted, terminal.Kind)
}

func TestAttemptCountNeverExceedsMaximum(t *testing.T) {
	inv := &scriptedInvoker{steps: []step{
		{raw: "x"}, {raw: "x"}, {raw: "x"}, {raw: "x"}, {raw: "x"},
	}}
	o := newTestOrchestrator(t, inv, &capturingSink{})

	_, err := o.Run(context.Background(), summarizeRequest(), nil)
	var terminal *models.TerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Len(t, terminal.Attempts, 3)
	assert.Len(t, inv.models, 3)
}

func TestAttemptTimeoutConsumesAttemptAndRotates(t *testing.T) {
	// The first call never answers; the per-attempt timeout must abandon
	// it, bill it as a transport failure and move the ladder on.
	inv := &stallingInvoker{
		stallCalls: 1,
		scriptedInvoker: scriptedInvoker{steps: []step{
			{raw: goodSummary, usage: models.TokenUsage{InputTokens: 100, OutputTokens: 20}},
		}},
	}
	o := newTestOrchestratorWithTimeout(t, inv, &capturingSink{}, 20*time.Millisecond)

	result, err := o.Run(context.Background(), summarizeRequest(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"cheap-mid", "big-high"}, inv.models)
	require.Len(t, result.Attempts, 2)
	assert.Equal(t, models.OutcomeTransportError, result.Attempts[0].Outcome)
	assert.GreaterOrEqual(t, result.Attempts[0].Elapsed, 20*time.Millisecond)
	assert.Equal(t, models.OutcomeSucceeded, result.Attempts[1].Outcome)
}

func TestClassifyResolvesFolder(t *testing.T) {
	inv := &scriptedInvoker{steps: []step{
		{raw: `{"recommended_folder": "Work/Projects/Alpha", "reasoning": "fits the project", "confidence": 0.95}`,
			usage: models.TokenUsage{InputTokens: 500, OutputTokens: 50}},
	}}
	o := newTestOrchestrator(t, inv, &capturingSink{})

	result, err := o.Run(context.Background(), classifyRequest(), classifyTree(t))
	require.NoError(t, err)

	assert.Equal(t, "f-alpha", result.FolderID)
	assert.Equal(t, "Work/Projects/Alpha", result.FolderPath)
	decision := result.Output.(models.FolderDecision)
	assert.Equal(t, "fits the project", decision.Reasoning)
}

func TestClassifyResolutionFailureConsumesRetryBudget(t *testing.T) {
	// A folder that exists nowhere in the tree: schema-valid, tree-invalid.
	noSuchFolder := `{"recommended_folder": "Finance", "reasoning": "money stuff"}`
	inv := &scriptedInvoker{steps: []step{
		{raw: noSuchFolder}, {raw: noSuchFolder}, {raw: noSuchFolder},
	}}
	o := newTestOrchestrator(t, inv, &capturingSink{})

	_, err := o.Run(context.Background(), classifyRequest(), classifyTree(t))
	var terminal *models.TerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, models.TerminalValidationExhausted, terminal.Kind)

	var failure *models.ResolutionFailure
	require.ErrorAs(t, terminal.LastErr, &failure)
	assert.Equal(t, models.NoPlausibleNode, failure.Kind)

	// Resolution defects escalate like validation defects: same model
	// once, then the higher tier.
	assert.Equal(t, []string{"cheap-mid", "cheap-mid", "big-high"}, inv.models)
	for _, rec := range terminal.Attempts {
		assert.Equal(t, models.OutcomeResolutionFailure, rec.Outcome)
	}
}

func TestClassifyNewFolderModeAcceptsEmptyReference(t *testing.T) {
	inv := &scriptedInvoker{steps: []step{
		{raw: `{"recommended_folder": "", "new_folder_name": "Rust", "reasoning": "no existing folder fits"}`},
	}}
	o := newTestOrchestrator(t, inv, &capturingSink{})

	req := classifyRequest()
	req.SuggestNewFolder = true
	result, err := o.Run(context.Background(), req, classifyTree(t))
	require.NoError(t, err)

	assert.Empty(t, result.FolderID)
	assert.Equal(t, "Rust", result.NewFolderName)
}

func TestClassifyRequiresTree(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedInvoker{}, &capturingSink{})

	_, err := o.Run(context.Background(), classifyRequest(), nil)
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
}

func TestTransportFailuresExhaustLadderWithSingleProviderPair(t *testing.T) {
	transportErr := &models.TransportError{Model: "m", Provider: "openai", Err: errors.New("down")}
	inv := &scriptedInvoker{steps: []step{
		{err: transportErr}, {err: transportErr}, {err: transportErr},
	}}
	o := newTestOrchestrator(t, inv, &capturingSink{})

	_, err := o.Run(context.Background(), summarizeRequest(), nil)
	var terminal *models.TerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, models.TerminalProviderExhausted, terminal.Kind)
	// Rotation must not hammer the failed model twice in a row.
	require.Len(t, inv.models, 3)
	assert.NotEqual(t, inv.models[0], inv.models[1])
	assert.NotEqual(t, inv.models[1], inv.models[2])
}
