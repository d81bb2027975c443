package snapshot

import (
	"errors"
	"strings"
	"testing"

	"github.com/use-agent/tabgate/models"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>Dashboard</title></head>
<body>
	<nav id="menu"><a href="/a">Reports</a></nav>
	<main>
		<h1>Monthly Report</h1>
		<p>Totals for the period.</p>
		<table id="totals"><tr><th>Item</th><th>Qty</th></tr><tr><td>Widgets</td><td>12</td></tr></table>
	</main>
</body></html>`

func TestCapture_Markdown(t *testing.T) {
	s := New()

	md, err := s.Capture(samplePage, "https://portal.example.com/report", "markdown", "")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !strings.Contains(md, "Monthly Report") {
		t.Errorf("markdown missing heading text: %q", md)
	}
	if !strings.Contains(md, "Widgets") {
		t.Errorf("markdown missing table content: %q", md)
	}
}

func TestCapture_DefaultFormatIsMarkdown(t *testing.T) {
	s := New()

	md, err := s.Capture(samplePage, "https://x.example.com", "", "")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if strings.Contains(md, "<h1>") {
		t.Errorf("default format should not return raw HTML: %q", md)
	}
}

func TestCapture_Text(t *testing.T) {
	s := New()

	text, err := s.Capture(samplePage, "https://x.example.com", "text", "")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if strings.Contains(text, "<") {
		t.Errorf("text format should strip tags: %q", text)
	}
	if !strings.Contains(text, "Monthly Report") {
		t.Errorf("text missing content: %q", text)
	}
}

func TestCapture_HTMLPassThrough(t *testing.T) {
	s := New()

	out, err := s.Capture(samplePage, "https://x.example.com", "html", "")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if out != samplePage {
		t.Error("html format should pass the input through unchanged")
	}
}

func TestCapture_SelectorRestrictsOutput(t *testing.T) {
	s := New()

	out, err := s.Capture(samplePage, "https://x.example.com", "html", "#totals")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !strings.Contains(out, "Widgets") {
		t.Errorf("selected table content missing: %q", out)
	}
	if strings.Contains(out, "Reports") {
		t.Errorf("content outside the selector leaked through: %q", out)
	}
}

func TestCapture_SelectorNoMatchFallsBack(t *testing.T) {
	s := New()

	out, err := s.Capture(samplePage, "https://x.example.com", "html", "#does-not-exist")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if out != samplePage {
		t.Error("no-match selector should fall back to the full page")
	}
}

func TestCapture_InvalidSelector(t *testing.T) {
	s := New()

	_, err := s.Capture(samplePage, "https://x.example.com", "html", "div[bad")
	if err == nil {
		t.Fatal("expected error for invalid selector")
	}
	var sessErr *models.SessionError
	if !errors.As(err, &sessErr) || sessErr.Code != models.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT SessionError, got %v", err)
	}
}

func TestCapture_UnknownFormat(t *testing.T) {
	s := New()

	_, err := s.Capture(samplePage, "https://x.example.com", "pdf", "")
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	var sessErr *models.SessionError
	if !errors.As(err, &sessErr) || sessErr.Code != models.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT SessionError, got %v", err)
	}
}

func TestApplySelector_MultipleMatches(t *testing.T) {
	html := `<div><p class="x">one</p><p>skip</p><p class="x">two</p></div>`

	out, err := applySelector(html, "p.x")
	if err != nil {
		t.Fatalf("applySelector failed: %v", err)
	}
	if !strings.Contains(out, "one") || !strings.Contains(out, "two") {
		t.Errorf("all matches should be concatenated: %q", out)
	}
	if strings.Contains(out, "skip") {
		t.Errorf("non-matching element included: %q", out)
	}
}

func TestStripTags(t *testing.T) {
	got := stripTags(`<div>hello <b>bold</b> world</div>`)
	if !strings.Contains(got, "hello") || !strings.Contains(got, "bold") {
		t.Errorf("stripTags lost text: %q", got)
	}
	if strings.Contains(got, "<") {
		t.Errorf("stripTags left markup: %q", got)
	}
}

func TestExtractArticle_ShortContentFallsBack(t *testing.T) {
	_, ok := extractArticle("<html><body><p>tiny</p></body></html>", "https://x.example.com")
	if ok {
		t.Error("near-empty page should fall back, not report successful extraction")
	}
}
