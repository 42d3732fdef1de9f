// Package schema defines the structured-output contracts for the two
// inference tasks and validates raw model text against them. Validation is
// a pure function over the raw text; it never consults the folder tree and
// never retries.
package schema

import (
	"searchmark/internal/models"
)

// Contract is the typed definition of one expected structured output.
type Contract struct {
	Kind models.TaskKind

	TitleMaxChars   int
	SummaryMaxChars int

	// AllowNewFolder permits an empty recommended_folder when a
	// new_folder_name is supplied, the new-folder recommendation mode.
	AllowNewFolder bool
}

// SummaryContract builds the contract for the Summarize task.
func SummaryContract(titleMax, summaryMax int) Contract {
	return Contract{
		Kind:            models.TaskSummarize,
		TitleMaxChars:   titleMax,
		SummaryMaxChars: summaryMax,
	}
}

// FolderDecisionContract builds the contract for the ClassifyFolder task.
func FolderDecisionContract(allowNewFolder bool) Contract {
	return Contract{
		Kind:           models.TaskClassifyFolder,
		AllowNewFolder: allowNewFolder,
	}
}

// Hint returns the JSON shape sent to the model alongside the prompt so
// the provider can constrain its output.
func (c Contract) Hint() string {
	switch c.Kind {
	case models.TaskSummarize:
		return `{"title": "<page title, plain text>", "summary": "<one-paragraph summary>", "keywords": ["<keyword>", "..."]}`
	case models.TaskClassifyFolder:
		if c.AllowNewFolder {
			return `{"recommended_folder": "<full path of the parent folder, or \"\" if none fits>", "new_folder_name": "<name for a new folder, or null>", "reasoning": "<why this folder>", "confidence": <0.0-1.0>}`
		}
		return `{"recommended_folder": "<full path of an existing folder>", "reasoning": "<why this folder>", "confidence": <0.0-1.0>}`
	}
	return "{}"
}
