package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionWithoutGit(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "1.2.3", Version(context.Background(), dir, "1.2.3"))
}

func TestBundle(t *testing.T) {
	dir := t.TempDir()
	style := filepath.Join(dir, "style.css")
	script := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(style, []byte("body { color: red; }"), 0644))
	require.NoError(t, os.WriteFile(script, []byte("console.log(1);"), 0644))

	output := filepath.Join(dir, "dist", "index.html")
	version, err := Bundle(context.Background(), Options{
		Dir:     dir,
		Package: "0.1.0",
		Style:   style,
		Script:  script,
		Output:  output,
		Debug:   true,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(version, "0.1.0"))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "<style>body { color: red; }</style>")
	assert.Contains(t, html, "<script>console.log(1);</script>")
	assert.Contains(t, html, `"debug":true`)
	assert.Contains(t, html, `"package":"0.1.0"`)
}

func TestBundleMissingStyle(t *testing.T) {
	dir := t.TempDir()
	_, err := Bundle(context.Background(), Options{
		Dir:    dir,
		Style:  filepath.Join(dir, "missing.css"),
		Output: filepath.Join(dir, "index.html"),
	})
	assert.Error(t, err)
}
