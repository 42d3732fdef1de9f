package app

import (
	"context"
	"fmt"

	"searchmark/internal/content"
	"searchmark/internal/folder"
	"searchmark/internal/models"
)

// The two logical operations the core exposes. CLI commands and HTTP
// handlers are thin wrappers around these.

// Analyze fetches a page and produces its structured summary.
func (a *App) Analyze(ctx context.Context, url string) (*models.Summary, *models.ResolvedResult, error) {
	if err := content.ValidateURL(url); err != nil {
		return nil, nil, err
	}

	pageContent, err := a.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	result, err := a.Orchestrator.Run(ctx, models.TaskRequest{
		Kind:        models.TaskSummarize,
		URL:         url,
		PageContent: pageContent,
	}, nil)
	if err != nil {
		return nil, nil, err
	}

	summary, ok := result.Output.(models.Summary)
	if !ok {
		return nil, nil, fmt.Errorf("summarize run produced unexpected output type %T", result.Output)
	}
	return &summary, result, nil
}

// Recommendation is the terminal answer of the classify pipeline.
type Recommendation struct {
	Summary       *models.Summary
	FolderID      string
	FolderPath    string
	NewFolderName string
	Reasoning     string
	Confidence    *float64
	Result        *models.ResolvedResult
}

// Recommend runs the full analyze-then-classify flow: summarize the page,
// then map it onto the caller's folder tree.
func (a *App) Recommend(ctx context.Context, url string, folders []*folder.Folder, suggestNew bool) (*Recommendation, error) {
	tree, err := folder.NewTree(folders)
	if err != nil {
		return nil, fmt.Errorf("invalid folder structure: %w", err)
	}

	summary, analyzeResult, err := a.Analyze(ctx, url)
	if err != nil {
		return nil, err
	}

	result, err := a.Orchestrator.Run(ctx, models.TaskRequest{
		Kind:             models.TaskClassifyFolder,
		URL:              url,
		Analysis:         summary,
		SuggestNewFolder: suggestNew,
	}, tree)
	if err != nil {
		return nil, err
	}

	decision := result.Output.(models.FolderDecision)
	// Fold the analyze attempts into the reported diagnostics so the cost
	// covers the whole flow.
	result.Attempts = append(analyzeResult.Attempts, result.Attempts...)
	result.TotalCostUSD += analyzeResult.TotalCostUSD

	return &Recommendation{
		Summary:       summary,
		FolderID:      result.FolderID,
		FolderPath:    result.FolderPath,
		NewFolderName: result.NewFolderName,
		Reasoning:     decision.Reasoning,
		Confidence:    decision.Confidence,
		Result:        result,
	}, nil
}
