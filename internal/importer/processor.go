package importer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ContentProcessor normalizes scraped markup into the HTML subset pages store.
type ContentProcessor struct {
	multiWhitespace *regexp.Regexp
	slugInvalid     *regexp.Regexp
	slugDashes      *regexp.Regexp
}

func NewContentProcessor() *ContentProcessor {
	return &ContentProcessor{
		multiWhitespace: regexp.MustCompile(`\s+`),
		slugInvalid:     regexp.MustCompile(`[^a-z0-9/-]+`),
		slugDashes:      regexp.MustCompile(`-{2,}`),
	}
}

// ExtractContent pulls the main textual content out of a scraped page and
// re-emits it as clean paragraph HTML. Navigation, scripts and boilerplate
// are dropped.
func (cp *ContentProcessor) ExtractContent(doc *goquery.Selection) string {
	doc.Find("nav, header, footer, script, style, noscript, iframe, form").Remove()

	root := doc.Find("main, article, [role=main]").First()
	if root.Length() == 0 {
		root = doc
	}

	var sb strings.Builder
	root.Find("h2, h3, p, li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(cp.multiWhitespace.ReplaceAllString(sel.Text(), " "))
		if len(text) < 3 {
			return
		}
		switch goquery.NodeName(sel) {
		case "h2", "h3":
			sb.WriteString("<h2>" + text + "</h2>\n")
		default:
			sb.WriteString("<p>" + text + "</p>\n")
		}
	})

	return strings.TrimSpace(sb.String())
}

// Slugify turns an arbitrary title or URL segment into a page path segment.
func (cp *ContentProcessor) Slugify(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	replacer := strings.NewReplacer(
		"à", "a", "è", "e", "é", "e", "ì", "i", "ò", "o", "ù", "u",
		" ", "-", "_", "-",
	)
	text = replacer.Replace(text)
	text = cp.slugInvalid.ReplaceAllString(text, "")
	text = cp.slugDashes.ReplaceAllString(text, "-")
	return strings.Trim(text, "-")
}
