package folder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// Parsers for browser bookmark exports. Three formats are auto-detected:
// Netscape bookmark HTML (Chrome, Firefox, Edge exports), Chrome's JSON
// with a "roots" object, and a plain JSON list of Folder objects.

var netscapeDoctype = regexp.MustCompile(`(?i)<!DOCTYPE\s+NETSCAPE-Bookmark-file`)

// ParseBookmarksFile auto-detects the format of a bookmark file and
// returns its folder structure.
func ParseBookmarksFile(path string) ([]*Folder, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := string(raw)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		folders := ParseNetscapeHTML(content)
		if len(folders) == 0 {
			return nil, fmt.Errorf("no folders found in HTML bookmark file %s", path)
		}
		return folders, nil
	case ".json":
		return parseJSONBookmarks(content, path)
	}

	if netscapeDoctype.MatchString(content) {
		return ParseNetscapeHTML(content), nil
	}
	if folders, err := parseJSONBookmarks(content, path); err == nil {
		return folders, nil
	}
	return nil, fmt.Errorf("cannot detect bookmark format for file %s", path)
}

func parseJSONBookmarks(content, path string) ([]*Folder, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &probe); err == nil {
		if roots, ok := probe["roots"]; ok {
			return parseChromeRoots(roots)
		}
		// A single folder object.
		var f Folder
		if err := json.Unmarshal([]byte(content), &f); err == nil && f.Name != "" {
			fillIDs(&f)
			return []*Folder{&f}, nil
		}
	}

	var list []*Folder
	if err := json.Unmarshal([]byte(content), &list); err != nil {
		return nil, fmt.Errorf("invalid JSON in bookmark file %s: %w", path, err)
	}
	out := list[:0]
	for _, f := range list {
		if f != nil && f.Name != "" {
			fillIDs(f)
			out = append(out, f)
		}
	}
	return out, nil
}

// chromeNode is Chrome's bookmark JSON shape; only folder nodes survive
// the conversion, url nodes are dropped.
type chromeNode struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Children []chromeNode `json:"children"`
}

func parseChromeRoots(raw json.RawMessage) ([]*Folder, error) {
	var roots map[string]chromeNode
	if err := json.Unmarshal(raw, &roots); err != nil {
		return nil, fmt.Errorf("invalid Chrome bookmark roots: %w", err)
	}

	var folders []*Folder
	for _, name := range []string{"bookmark_bar", "other", "synced"} {
		root, ok := roots[name]
		if !ok {
			continue
		}
		f := convertChromeNode(root)
		if f == nil {
			continue
		}
		// Skip the standard empty containers Chrome always exports.
		if len(f.Children) == 0 && (f.Name == "Other Bookmarks" || f.Name == "Mobile Bookmarks") {
			continue
		}
		folders = append(folders, f)
	}
	return folders, nil
}

func convertChromeNode(n chromeNode) *Folder {
	if n.Type != "folder" {
		return nil
	}
	f := &Folder{ID: n.ID, Name: n.Name}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Name == "" {
		f.Name = "Unnamed"
	}
	for _, child := range n.Children {
		if cf := convertChromeNode(child); cf != nil {
			f.Children = append(f.Children, cf)
		}
	}
	return f
}

// ParseNetscapeHTML extracts the folder structure from a Netscape bookmark
// HTML export. Folder names live in <h3> headings and nesting follows the
// <dl> lists; bookmark links themselves are ignored.
func ParseNetscapeHTML(content string) []*Folder {
	var (
		folders []*Folder
		stack   []*Folder
		current *Folder
		inH3    bool
		text    strings.Builder
	)

	tokenizer := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "h3":
				inH3 = true
				text.Reset()
			case "dl":
				if current != nil {
					stack = append(stack, current)
					current = nil
				}
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "h3":
				inH3 = false
				if folderName := strings.TrimSpace(text.String()); folderName != "" {
					current = &Folder{ID: uuid.NewString(), Name: folderName}
					if len(stack) > 0 {
						parent := stack[len(stack)-1]
						parent.Children = append(parent.Children, current)
					} else {
						folders = append(folders, current)
					}
				}
			case "dl":
				if len(stack) > 0 {
					current = stack[len(stack)-1]
					stack = stack[:len(stack)-1]
				}
			}
		case html.TextToken:
			if inH3 {
				text.Write(tokenizer.Text())
			}
		}
	}
	return folders
}

// fillIDs assigns fresh identifiers to folders that arrived without one.
func fillIDs(f *Folder) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	for _, child := range f.Children {
		if child != nil {
			fillIDs(child)
		}
	}
}

// FoldersToJSON renders folders the way they are embedded in prompts and
// request payloads.
func FoldersToJSON(folders []*Folder) (string, error) {
	b, err := json.MarshalIndent(folders, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
