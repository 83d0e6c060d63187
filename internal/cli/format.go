package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// FormatAmount renders d with two decimals and thousands separators,
// e.g. 1234567.5 -> "1,234,567.50".
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

// FormatUtilization renders a utilization percentage, colored green below
// 80%, orange up to 100% and red beyond.
func FormatUtilization(pct int64) string {
	label := fmt.Sprintf("%d%%", pct)
	switch {
	case pct > 100:
		return lipgloss.NewStyle().Foreground(colorRed).Render(label)
	case pct >= 80:
		return lipgloss.NewStyle().Foreground(colorOrange).Render(label)
	default:
		return lipgloss.NewStyle().Foreground(colorGreen).Render(label)
	}
}
