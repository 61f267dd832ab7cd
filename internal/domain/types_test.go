package domain

import (
	"testing"
	"time"
)

func TestDayTruncation(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 23, 7, 999, time.UTC)
	got := Day(ts)
	want := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day(%v) = %v, want %v", ts, got, want)
	}
	if !Day(got).Equal(got) {
		t.Error("Day should be idempotent")
	}
}

func TestNormalizeSymbol(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"tsla", "TSLA"},
		{"  aapl ", "AAPL"},
		{"MSFT", "MSFT"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := NormalizeSymbol(c.in); got != c.want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeMarketStatus(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"OPEN", "open"},
		{"Closed", "closed"},
		{"extended-hours", "extended-hours"},
		{"", "unknown"},
		{"  REGULAR ", "regular"},
	}
	for _, c := range cases {
		if got := NormalizeMarketStatus(c.in); got != c.want {
			t.Errorf("NormalizeMarketStatus(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLiveSnapshotHasPrice(t *testing.T) {
	var empty LiveSnapshot
	if empty.HasPrice() {
		t.Error("zero-value snapshot should not report a price")
	}

	snap := LiveSnapshot{CurrentPrice: Ptr(185.5)}
	if !snap.HasPrice() {
		t.Error("snapshot with CurrentPrice should report a price")
	}
}

func TestRefreshStatusValues(t *testing.T) {
	// The status strings are part of the API contract with presentation code.
	if StatusCache != "cache" || StatusFetched != "fetched" {
		t.Error("cache/fetched status constants have unexpected values")
	}
	if StatusFetchFailed != "fetch-failed" || StatusEmpty != "empty" {
		t.Error("fetch-failed/empty status constants have unexpected values")
	}
}
