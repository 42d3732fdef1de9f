// Package content is the content-provider boundary: it fetches a page,
// strips it to plain text and bounds its length before the text enters the
// inference pipeline. The pipeline itself never performs network I/O.
package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// blockedHosts are refused outright, SSRF protection for the fetcher.
var blockedHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// Fetcher retrieves a page and reduces it to bounded plain text.
type Fetcher struct {
	client   *http.Client
	maxChars int
}

func NewFetcher(timeout time.Duration, maxChars int) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxChars: maxChars,
	}
}

// ValidateURL rejects non-http(s) schemes and blocked hosts.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("only http/https URLs allowed")
	}
	if blockedHosts[strings.ToLower(parsed.Hostname())] {
		return fmt.Errorf("this host is not allowed")
	}
	return nil
}

// Fetch downloads rawURL and returns its text content, truncated to the
// configured maximum length. Callers validate the URL with ValidateURL
// before fetching; Fetch itself imposes no host policy.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("no content retrieved from %s", rawURL)
	}

	text := truncateRunes(CleanText(ExtractText(string(body))), f.maxChars)
	log.Debugf("content: fetched %s (%d chars after extraction)", rawURL, len(text))
	return text, nil
}

// truncateRunes bounds s to max characters without splitting a multibyte
// rune, which would undo the UTF-8 repair done by CleanText.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// ExtractText strips HTML down to readable text, dropping script, style
// and head content and collapsing whitespace.
func ExtractText(htmlContent string) string {
	var (
		b    strings.Builder
		skip int
	)
	tokenizer := html.NewTokenizer(strings.NewReader(htmlContent))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style", "noscript", "head":
				skip++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style", "noscript", "head":
				if skip > 0 {
					skip--
				}
			}
		case html.TextToken:
			if skip == 0 {
				if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
					b.WriteString(text)
					b.WriteByte('\n')
				}
			}
		}
	}
	return strings.TrimSpace(b.String())
}
