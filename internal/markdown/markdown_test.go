package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	html, err := Render([]byte("# Title\n\nSome *emphasis* here."), Options{})
	require.NoError(t, err)
	require.Contains(t, string(html), "<h1>Title</h1>")
	require.Contains(t, string(html), "<em>emphasis</em>")
}

func TestRenderRewritesLinks(t *testing.T) {
	rewrite := func(dest string) string {
		if strings.HasSuffix(dest, ".md") {
			return strings.TrimSuffix(dest, ".md") + ".html"
		}
		return dest
	}

	html, err := Render([]byte("See [usage](usage.md) and [site](https://example.com)."), Options{RewriteLink: rewrite})
	require.NoError(t, err)
	require.Contains(t, string(html), `href="usage.html"`)
	require.Contains(t, string(html), `href="https://example.com"`)
}

func TestRenderDeterministic(t *testing.T) {
	src := []byte("Para one.\n\n- a\n- b\n")
	first, err := Render(src, Options{})
	require.NoError(t, err)
	second, err := Render(src, Options{})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRenderImageRewrite(t *testing.T) {
	rewrite := func(dest string) string {
		if strings.HasSuffix(dest, ".md") {
			return strings.TrimSuffix(dest, ".md") + ".html"
		}
		return dest
	}

	html, err := Render([]byte("![shot](shot.png)\n\n[next](next.md)\n"), Options{RewriteLink: rewrite})
	require.NoError(t, err)
	require.Contains(t, string(html), `src="shot.png"`)
	require.Contains(t, string(html), `href="next.html"`)
}
