// Package reporting renders a vault read-model as a lender-facing risk
// report in CSV and Markdown form.
package reporting

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// fallbackVaultName is used when stripping the curator brand empties the
// vault name entirely.
const fallbackVaultName = "Prime Credit Vault"

var (
	curatorBrand = regexp.MustCompile(`(?i)\bgauntlet\b`)
	multiSpace   = regexp.MustCompile(`\s{2,}`)
)

// DisplayVaultName strips the curator brand from a raw vault name and
// collapses the leftover whitespace.
func DisplayVaultName(raw string) string {
	cleaned := curatorBrand.ReplaceAllString(raw, "")
	cleaned = strings.TrimSpace(multiSpace.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return fallbackVaultName
	}
	return cleaned
}

// FormatCurrency renders a USD amount with thousands separators and two
// decimals, e.g. "$1,234,567.89".
func FormatCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%s", sign, groupThousands(fmt.Sprintf("%.2f", v)))
}

// FormatPercent renders a ratio as a percentage with the given precision.
func FormatPercent(v float64, digits int) string {
	return fmt.Sprintf("%.*f%%", digits, v*100)
}

// FormatPercentPtr is FormatPercent for nullable ratios; nil renders "N/A".
func FormatPercentPtr(v *float64, digits int) string {
	if v == nil {
		return "N/A"
	}
	return FormatPercent(*v, digits)
}

// FormatCount renders a whole number with thousands separators.
func FormatCount(v int) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + groupThousands(fmt.Sprintf("%d", v))
}

// FormatDate renders a Unix timestamp as a UTC ISO date.
func FormatDate(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

// groupThousands inserts commas into the integer part of a plain decimal
// string.
func groupThousands(s string) string {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var sb strings.Builder
	n := len(intPart)
	for i, r := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	if hasFrac {
		sb.WriteByte('.')
		sb.WriteString(fracPart)
	}
	return sb.String()
}
