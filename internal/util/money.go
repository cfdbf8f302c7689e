package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyPattern = regexp.MustCompile(`[$\s\x{00A0}]`)
	thousandDots    = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	thousandCommas  = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

// ParseAmount extracts a dollar amount from free text: currency symbols
// and grouping separators are stripped before parsing. Returns nil when
// no number survives.
func ParseAmount(input string) *float64 {
	token := currencyPattern.ReplaceAllString(strings.TrimSpace(input), "")
	if token == "" {
		return nil
	}
	token = NormalizeNumericToken(token)
	parsed, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return FloatPtr(parsed)
}

// NormalizeNumericToken resolves separator ambiguity: "10.000" and
// "10,000" are thousands, "10,5" is a decimal comma.
func NormalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if thousandDots.MatchString(compact) {
		return strings.ReplaceAll(compact, ".", "")
	}
	if thousandCommas.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return strings.ReplaceAll(compact, ",", "")
}
