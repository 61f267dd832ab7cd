// Package dashboard holds display formatting helpers shared by the HTTP API
// and the CLI tools.
package dashboard

import (
	"fmt"
	"strings"
)

// FormatCurrency formats a price as "$X.XX", or "N/A" for an absent value.
func FormatCurrency(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", *p)
}

// FormatVolume formats a share volume with B/M/K suffixes, or "N/A" for an
// absent value.
func FormatVolume(v *int64) string {
	if v == nil {
		return "N/A"
	}
	n := float64(*v)
	switch {
	case n >= 1e9:
		return fmt.Sprintf("%.2fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.2fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.2fK", n/1e3)
	default:
		return fmt.Sprintf("%.0f", n)
	}
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if len(s) > 3 {
		var b strings.Builder
		start := len(s) % 3
		if start > 0 {
			b.WriteString(s[:start])
		}
		for i := start; i < len(s); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}

// Change returns the absolute and percentage change from prev to current.
// ok is false when either input is absent or prev is zero.
func Change(current, prev *float64) (amount, percent float64, ok bool) {
	if current == nil || prev == nil || *prev == 0 {
		return 0, 0, false
	}
	amount = *current - *prev
	percent = amount / *prev * 100
	return amount, percent, true
}

// FormatChange renders a signed change pair like "+1.25 (+2.3%)".
func FormatChange(amount, percent float64) string {
	return fmt.Sprintf("%+.2f (%+.1f%%)", amount, percent)
}

// StatusColor maps a market status to a display color name.
func StatusColor(status string) string {
	switch status {
	case "open":
		return "green"
	case "closed":
		return "red"
	default:
		return "gray"
	}
}
