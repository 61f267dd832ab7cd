package symbols

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDirectory(t *testing.T) {
	d := NewDefault()
	if d.Len() == 0 {
		t.Fatal("default directory is empty")
	}
	if got := d.Name("aapl"); got != "Apple Inc." {
		t.Fatalf("Name(aapl) = %q", got)
	}
	if got := d.Name("NOPE"); got != "" {
		t.Fatalf("unknown symbol name = %q", got)
	}
}

func TestSearchRanking(t *testing.T) {
	d := newDirectory([]Entry{
		{"AAPL", "Apple Inc."},
		{"AAP", "Advance Auto Parts"},
		{"APP", "AppLovin Corporation"},
		{"MSFT", "Microsoft Corporation"},
	})

	got := d.Search("aap", 10)
	if len(got) < 2 {
		t.Fatalf("Search(aap) = %v", got)
	}
	if got[0].Symbol != "AAP" {
		t.Fatalf("exact match not first: %v", got)
	}
	if got[1].Symbol != "AAPL" {
		t.Fatalf("prefix match not second: %v", got)
	}

	byName := d.Search("micro", 10)
	if len(byName) != 1 || byName[0].Symbol != "MSFT" {
		t.Fatalf("Search(micro) = %v", byName)
	}

	if res := d.Search("  ", 10); res != nil {
		t.Fatalf("blank query returned %v", res)
	}
}

func TestSearchLimit(t *testing.T) {
	d := NewDefault()
	got := d.Search("a", 3)
	if len(got) > 3 {
		t.Fatalf("limit not applied: %d results", len(got))
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.csv")
	data := "symbol,name\naapl,Apple Inc.\n,missing\nTSLA,Tesla Inc.\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("Len = %d, want 2", d.Len())
	}
	if d.Name("AAPL") != "Apple Inc." {
		t.Fatalf("lowercase symbol not normalized")
	}
	if got := d.All()[0].Display(); got != "AAPL - Apple Inc." {
		t.Fatalf("Display = %q", got)
	}
}

func TestLoadCSVErrors(t *testing.T) {
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("symbol,name\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCSV(path); err == nil {
		t.Fatal("expected error for header-only file")
	}
}
