package news

import (
	"strings"
	"testing"
)

func TestStripHTML(t *testing.T) {
	in := `<p>Apple &amp; Microsoft <b>rallied</b> today.</p>`
	got := StripHTML(in)
	want := "Apple & Microsoft rallied today."
	if got != want {
		t.Fatalf("StripHTML = %q, want %q", got, want)
	}
}

func TestStripHTMLWhitespace(t *testing.T) {
	got := StripHTML("  a\n\n  <div>b</div>\tc ")
	if got != "a b c" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractSymbolContentMatchesParagraphs(t *testing.T) {
	raw := `<p>Markets were mixed.</p><p>AAPL shares rose 3% on earnings.</p><p>Oil fell.</p>`
	got := ExtractSymbolContent(raw, "aapl")
	if !strings.Contains(got, "AAPL shares rose") {
		t.Fatalf("missing symbol paragraph: %q", got)
	}
	if strings.Contains(got, "Oil fell") {
		t.Fatalf("unrelated paragraph kept: %q", got)
	}
}

func TestExtractSymbolContentFallback(t *testing.T) {
	raw := `<p>Broad market summary with no ticker.</p>`
	got := ExtractSymbolContent(raw, "TSLA")
	if !strings.Contains(got, "Broad market summary") {
		t.Fatalf("fallback missing: %q", got)
	}
}
