package knowledge

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	blockTagPattern  = regexp.MustCompile(`(?i)</(p|div|li|h[1-6]|tr|section|article)>|<br\s*/?>`)
	htmlTagPattern   = regexp.MustCompile(`<[^>]*>`)
	multiBlankLines  = regexp.MustCompile(`\n{3,}`)
	lineSpacePattern = regexp.MustCompile(`[ \t]+`)
)

// StripHTML converts an HTML fragment to plain text, keeping paragraph
// boundaries as blank lines so the chunker can split on them.
func StripHTML(html string) string {
	// Block-level closings become paragraph breaks before the DOM flattens
	// everything into one text run.
	html = blockTagPattern.ReplaceAllString(html, "\n\n")

	var text string
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		text = htmlTagPattern.ReplaceAllString(html, " ")
	} else {
		text = doc.Text()
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(lineSpacePattern.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = multiBlankLines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// Chunk cleans a page's HTML and splits the text into embedding-sized pieces.
// Small pages become a single chunk; larger ones are split on paragraph
// boundaries, and every chunk is re-prefixed with the page title so retrieval
// keeps its context. Returns nil for pages with no visible text.
func Chunk(title, html string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = 4000
	}

	text := StripHTML(html)
	if text == "" {
		return nil
	}

	if len(text) <= chunkSize {
		return []string{withTitle(title, text)}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, withTitle(title, current.String()))
			current.Reset()
		}
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		// A single oversized paragraph gets hard-split so no chunk ever
		// exceeds the embedding input limit.
		for len(paragraph) > chunkSize {
			flush()
			chunks = append(chunks, withTitle(title, paragraph[:chunkSize]))
			paragraph = strings.TrimSpace(paragraph[chunkSize:])
		}
		if paragraph == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(paragraph)+2 > chunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	flush()

	return chunks
}

func withTitle(title, text string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return text
	}
	return title + "\n\n" + text
}
