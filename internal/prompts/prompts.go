// Package prompts builds the task prompts and schema hints handed to the
// LLM transport. The wording of the recommendation rules matters: it is
// what steers the model toward specific folders over generic ones.
package prompts

import (
	"fmt"
	"strings"

	"searchmark/internal/models"
)

// Prompt is one prepared model invocation: a system instruction and a user
// message.
type Prompt struct {
	System string
	User   string
}

const analyzeSystem = `Analyze this web page and extract the title, a one-paragraph summary, and keywords.`

const existingFolderSystem = `You are a bookmark organization assistant. Based on the webpage analysis and the user's folder structure, recommend the best existing folder for this bookmark.
Rules:
1. Choose folders based on semantic relevance to the page content (title, summary, keywords).
2. Prefer more specific folders over general ones when the content clearly fits.
3. When multiple folders match a keyword (e.g., "Security"), prefer the one whose full path best reflects the page's PRIMARY topic. For example, a Django security tool belongs under a Django folder, not a generic Security folder.
4. Consider all levels of the folder hierarchy. A folder path like "Django/Admin/Security" matching multiple aspects of the content is better than "Articles/Security" matching only one.
5. Return the FULL path of the chosen folder exactly as it appears in the folder structure.`

const newFolderSystem = `You are a bookmark organization assistant. Based on the webpage analysis, create a new category folder for this bookmark.
Rules:
1. Choose a recommended_folder from the existing folder structure as the parent where the new folder will be created.
2. Choose folders based on semantic relevance to the page content (title, summary, keywords).
3. Prefer more specific folders over general ones when the content clearly fits.
4. When multiple folders match a keyword (e.g., "Security"), prefer the one whose full path best reflects the page's PRIMARY topic. For example, a Django security tool belongs under a Django folder, not a generic Security folder.
5. Consider all levels of the folder hierarchy. A folder path like "Django/Admin/Security" matching multiple aspects of the content is better than "Articles/Security" matching only one.
6. Return the FULL path of the chosen folder exactly as it appears in the folder structure.`

// Summarize prepares the page-analysis prompt.
func Summarize(url, content, schemaHint string) Prompt {
	return Prompt{
		System: withSchemaHint(analyzeSystem, schemaHint),
		User:   fmt.Sprintf("URL: %s\n\nContent:\n%s", url, content),
	}
}

// ClassifyFolder prepares the folder-recommendation prompt. folderPaths is
// the full path of every node in the caller's tree; analysis may be nil
// when only raw page content is available.
func ClassifyFolder(url string, analysis *models.Summary, pageContent string, folderPaths []string, suggestNew bool, schemaHint string) Prompt {
	system := existingFolderSystem
	if suggestNew {
		system = newFolderSystem
	}

	var b strings.Builder
	b.WriteString("Webpage Analysis:\n")
	fmt.Fprintf(&b, "- URL: %s\n", url)
	if analysis != nil {
		fmt.Fprintf(&b, "- Title: %s\n", analysis.Title)
		fmt.Fprintf(&b, "- Summary: %s\n", analysis.Summary)
		if len(analysis.Keywords) > 0 {
			fmt.Fprintf(&b, "- Keywords: %s\n", strings.Join(analysis.Keywords, ", "))
		}
	} else if pageContent != "" {
		fmt.Fprintf(&b, "- Content:\n%s\n", pageContent)
	}
	b.WriteString("\nUser's Folder Structure (one full path per line):\n")
	for _, p := range folderPaths {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	b.WriteString("\nPlease recommend the best folder for this bookmark.")

	return Prompt{
		System: withSchemaHint(system, schemaHint),
		User:   b.String(),
	}
}

func withSchemaHint(system, hint string) string {
	if hint == "" {
		return system
	}
	return system + "\n\nRespond with a single JSON object of exactly this shape, and nothing else:\n" + hint
}
