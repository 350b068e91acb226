package web

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdownHTML_FitsTaskCard(t *testing.T) {
	got := string(renderMarkdownHTML("# Plan\r\n\r\n## Steps\r\n\r\nsee [docs](https://example.com) or https://example.org"))

	assert.Contains(t, got, "<h4")
	assert.Contains(t, got, "<h5")
	assert.NotContains(t, got, "<h1")
	assert.NotContains(t, got, "\r")
	assert.Equal(t, 2, strings.Count(got, `target="_blank"`), got)
	assert.Contains(t, got, `rel="noopener noreferrer"`)
}

func TestRenderMarkdownHTML_EscapesRawHTML(t *testing.T) {
	got := string(renderMarkdownHTML("hi <script>alert(1)</script> **bold**"))
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "<strong>bold</strong>")
	assert.Empty(t, string(renderMarkdownHTML("  \n ")))
}

func TestPlainDescriptionHTML(t *testing.T) {
	got := string(plainDescriptionHTML("a <b>\nline two\n\nnext"))
	assert.Equal(t, "<p>a &lt;b&gt;<br>\nline two</p>\n<p>next</p>\n", got)
}
