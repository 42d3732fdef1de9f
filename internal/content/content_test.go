package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https allowed", "https://example.com/page", false},
		{"http allowed", "http://example.com", false},
		{"ftp rejected", "ftp://example.com/file", true},
		{"file rejected", "file:///etc/passwd", true},
		{"scheme missing", "example.com/page", true},
		{"localhost blocked", "http://localhost:8080/admin", true},
		{"loopback v4 blocked", "http://127.0.0.1/", true},
		{"loopback v6 blocked", "http://[::1]/", true},
		{"localhost case insensitive", "http://LOCALHOST/", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtractText(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head><title>Ignored Title</title><style>body { color: red; }</style></head>
<body>
<script>var tracked = true;</script>
<h1>Welcome</h1>
<p>First paragraph.</p>
<noscript>Enable JS</noscript>
<p>Second   paragraph.</p>
</body>
</html>`

	text := ExtractText(page)
	assert.Contains(t, text, "Welcome")
	assert.Contains(t, text, "First paragraph.")
	assert.Contains(t, text, "Second   paragraph.")
	assert.NotContains(t, text, "Ignored Title")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "tracked")
	assert.NotContains(t, text, "Enable JS")
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, `"quoted" and 'single' -- dash...`,
		CleanText("“quoted” and ‘single’ — dash…"))
	assert.Equal(t, "no bom", CleanText("\uFEFFno bom"))

	cleaned := CleanText("bad\xffbyte")
	assert.True(t, strings.Contains(cleaned, "bad"))
	assert.True(t, strings.Contains(cleaned, "byte"))
}

func TestFetchTruncatesToMaxChars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body><p>" + strings.Repeat("a", 500) + "</p></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 100)
	text, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, text, 100)
}

func TestFetchTruncatesOnRuneBoundary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body><p>" + strings.Repeat("日本語テキスト", 100) + "</p></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 100)
	text, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(text), "truncation must not split a rune")
	assert.Equal(t, 100, utf8.RuneCountInString(text))
}

func TestFetchRejectsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 1000)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchRejectsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 1000)
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}
