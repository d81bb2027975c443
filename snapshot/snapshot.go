package snapshot

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/tabgate/models"
)

// Snapshotter converts a captured page's HTML into an operator-facing format.
// It lets the operator grab what the authenticated page currently shows —
// useful for checking they are on the right screen before extracting, or for
// keeping a record next to the CSVs.
//
// The markdown converter is created once and reused (goroutine-safe).
type Snapshotter struct {
	mdConverter *converter.Converter
}

// New initialises the Snapshotter with a pre-configured Markdown converter.
func New() *Snapshotter {
	return &Snapshotter{
		mdConverter: newMarkdownConverter(),
	}
}

// Capture converts rawHTML into the requested format.
//
// Formats:
//
//	"markdown" – full-page Markdown, tables preserved
//	"text"     – visible text only
//	"html"     – pass-through (after selector filtering)
//	"article"  – readability main-content extraction, as Markdown
//
// cssSelector, when non-empty, restricts the capture to the matched
// elements' outer HTML; when nothing matches, the full page is used.
func (s *Snapshotter) Capture(rawHTML, sourceURL, format, cssSelector string) (string, error) {
	if cssSelector != "" {
		filtered, err := applySelector(rawHTML, cssSelector)
		if err != nil {
			return "", models.NewSessionError(
				models.ErrCodeInvalidInput,
				"invalid css_selector",
				err,
			)
		}
		rawHTML = filtered
	}

	switch format {
	case "markdown", "":
		return s.toMarkdown(rawHTML, sourceURL)
	case "text":
		return stripTags(rawHTML), nil
	case "html":
		return rawHTML, nil
	case "article":
		article, _ := extractArticle(rawHTML, sourceURL)
		return s.toMarkdown(article.Content, sourceURL)
	default:
		return "", models.NewSessionError(
			models.ErrCodeInvalidInput,
			"unknown snapshot format: "+format,
			nil,
		)
	}
}

func (s *Snapshotter) toMarkdown(htmlContent, sourceURL string) (string, error) {
	md, err := toMarkdown(s.mdConverter, htmlContent, sourceURL)
	if err != nil {
		return "", models.NewSessionError(
			models.ErrCodeInternal,
			"markdown conversion failed",
			err,
		)
	}
	return md, nil
}

// stripTags extracts visible text from an HTML fragment by parsing it with
// goquery. Returns trimmed plain text.
func stripTags(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}
