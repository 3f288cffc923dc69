package importer

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFrom(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Find("body")
}

func TestExtractContent(t *testing.T) {
	cp := NewContentProcessor()

	t.Run("keeps main content and drops chrome", func(t *testing.T) {
		html := `<html><body>
			<nav><a href="/">Home</a></nav>
			<main>
				<h2>Il ristorante</h2>
				<p>Cucina ligure con vista mare.</p>
			</main>
			<footer>Copyright</footer>
		</body></html>`

		out := cp.ExtractContent(docFrom(t, html))
		assert.Contains(t, out, "<h2>Il ristorante</h2>")
		assert.Contains(t, out, "<p>Cucina ligure con vista mare.</p>")
		assert.NotContains(t, out, "Home")
		assert.NotContains(t, out, "Copyright")
	})

	t.Run("falls back to body when no main element", func(t *testing.T) {
		out := cp.ExtractContent(docFrom(t, `<html><body><p>Solo un paragrafo.</p></body></html>`))
		assert.Contains(t, out, "Solo un paragrafo.")
	})

	t.Run("collapses whitespace", func(t *testing.T) {
		out := cp.ExtractContent(docFrom(t, "<html><body><main><p>a\n\t  b</p></main></body></html>"))
		assert.Contains(t, out, "<p>a b</p>")
	})
}

func TestSlugify(t *testing.T) {
	cp := NewContentProcessor()

	assert.Equal(t, "il-ristorante", cp.Slugify("Il Ristorante"))
	assert.Equal(t, "caffe-e-te", cp.Slugify("Caffè e tè"))
	assert.Equal(t, "spa", cp.Slugify("  SPA!  "))
	assert.Equal(t, "menu/antipasti", cp.Slugify("menu/antipasti"))
	assert.Equal(t, "", cp.Slugify("???"))
}
