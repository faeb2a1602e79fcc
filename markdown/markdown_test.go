package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTML(t *testing.T) {
	out := HTML("Hello **world**\n\n---\n\n*bye*")
	assert.Contains(t, out, "<p>Hello <strong>world</strong></p>")
	assert.Contains(t, out, "<hr>")
	assert.Contains(t, out, "<em>bye</em>")
}

func TestXHTML(t *testing.T) {
	out := XHTML("one\n\n---\n\ntwo")
	assert.Contains(t, out, "<hr />")
	assert.Contains(t, out, "<p>two</p>")
}

func TestEscapesRawHTML(t *testing.T) {
	out := HTML("a <script>alert(1)</script> b")
	assert.NotContains(t, out, "<script>")
}

func TestUnsafeLinks(t *testing.T) {
	for _, raw := range []string{
		"[click](javascript:alert(1))",
		"[click](JavaScript:alert(1))",
		"[click](vbscript:msgbox(1))",
		"[click](data:text/html;base64,PHNjcmlwdD4=)",
	} {
		for _, out := range []string{HTML(raw), XHTML(raw)} {
			assert.NotContains(t, out, "<a", raw)
			assert.NotContains(t, strings.ToLower(out), "script:", raw)
			assert.NotContains(t, out, "data:", raw)
		}
	}
}

func TestSafeLinks(t *testing.T) {
	out := HTML("[home](https://example.com/a)")
	assert.Contains(t, out, `<a href="https://example.com/a" rel="nofollow">home</a>`)

	out = HTML("[next](/story/abc234/2)")
	assert.Contains(t, out, `href="/story/abc234/2"`)
}
