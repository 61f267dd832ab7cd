package dashboard

import (
	"testing"

	"stockboard/internal/domain"
)

func TestFormatCurrency(t *testing.T) {
	if got := FormatCurrency(nil); got != "N/A" {
		t.Fatalf("nil = %q", got)
	}
	if got := FormatCurrency(domain.Ptr(1234.5)); got != "$1234.50" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatVolume(t *testing.T) {
	cases := []struct {
		in   *int64
		want string
	}{
		{nil, "N/A"},
		{domain.Ptr(int64(950)), "950"},
		{domain.Ptr(int64(12_500)), "12.50K"},
		{domain.Ptr(int64(3_400_000)), "3.40M"},
		{domain.Ptr(int64(2_100_000_000)), "2.10B"},
	}
	for _, c := range cases {
		if got := FormatVolume(c.in); got != c.want {
			t.Errorf("FormatVolume(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatInt(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for in, want := range cases {
		if got := FormatInt(in); got != want {
			t.Errorf("FormatInt(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestChange(t *testing.T) {
	amount, percent, ok := Change(domain.Ptr(110.0), domain.Ptr(100.0))
	if !ok || amount != 10 || percent != 10 {
		t.Fatalf("Change = %v %v %v", amount, percent, ok)
	}
	if _, _, ok := Change(nil, domain.Ptr(100.0)); ok {
		t.Fatal("nil current should not be ok")
	}
	if _, _, ok := Change(domain.Ptr(110.0), nil); ok {
		t.Fatal("nil prev should not be ok")
	}
	if _, _, ok := Change(domain.Ptr(110.0), domain.Ptr(0.0)); ok {
		t.Fatal("zero prev should not be ok")
	}
}

func TestFormatChange(t *testing.T) {
	if got := FormatChange(1.25, 2.34); got != "+1.25 (+2.3%)" {
		t.Fatalf("got %q", got)
	}
	if got := FormatChange(-0.5, -1.0); got != "-0.50 (-1.0%)" {
		t.Fatalf("got %q", got)
	}
}

func TestStatusColor(t *testing.T) {
	if StatusColor("open") != "green" || StatusColor("closed") != "red" || StatusColor("unknown") != "gray" {
		t.Fatal("unexpected status colors")
	}
}
