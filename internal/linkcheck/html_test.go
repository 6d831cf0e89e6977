package linkcheck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractHTMLLinks_AnchorsAndAssets(t *testing.T) {
	doc := `<html><body>
<a href="/docs/setup/">Setup</a>
<a href="https://example.com/elsewhere">External</a>
<img src="/images/arch.png" alt="arch">
<script src="/js/search.js"></script>
<link href="/css/book.css" rel="stylesheet">
</body></html>`

	links, err := ExtractHTMLLinks(strings.NewReader(doc), "https://docs.example.com")
	require.NoError(t, err)
	require.Len(t, links, 5)

	byURL := map[string]HTMLLink{}
	for _, l := range links {
		byURL[l.URL] = l
	}
	assert.True(t, byURL["/docs/setup/"].IsInternal)
	assert.False(t, byURL["https://example.com/elsewhere"].IsInternal)
	assert.Equal(t, "img", byURL["/images/arch.png"].Tag)
	assert.Equal(t, "src", byURL["/js/search.js"].Attribute)
	assert.Equal(t, "link", byURL["/css/book.css"].Tag)
}

func TestExtractHTMLLinks_SameHostIsInternal(t *testing.T) {
	doc := `<a href="https://docs.example.com/docs/">abs</a>`
	links, err := ExtractHTMLLinks(strings.NewReader(doc), "https://docs.example.com")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, links[0].IsInternal)
}

func TestVerifyRenderedSite(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "docs", "setup"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"),
		[]byte(`<a href="/docs/setup/">ok</a><a href="/docs/missing/">broken</a>`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(out, "docs", "setup", "index.html"),
		[]byte(`<a href="/">home</a>`), 0o600))

	warnings, err := VerifyRenderedSite(out, "https://docs.example.com")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "index.html", warnings[0].SourcePath)
	assert.Equal(t, "/docs/missing/", warnings[0].Target)
}

func TestVerifyRenderedSite_RelativeLinks(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "docs"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(out, "docs", "index.html"),
		[]byte(`<img src="arch.png">`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(out, "docs", "arch.png"), []byte("png"), 0o600))

	warnings, err := VerifyRenderedSite(out, "https://docs.example.com")
	require.NoError(t, err)
	assert.Empty(t, warnings)
}
