package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"censusfmt/internal"
	"censusfmt/internal/util"
)

// Every formatter in this file is total: malformed input degrades to an
// empty or default value, never an error. The validator decides later
// whether the degraded value is acceptable.

var (
	reNonAlnum = regexp.MustCompile(`[^A-Za-z0-9\s]`)
	reSpaces   = regexp.MustCompile(`\s+`)
	reNonDigit = regexp.MustCompile(`\D`)
	reNumeric  = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
)

// CleanText uppercases, replaces punctuation with spaces and collapses
// whitespace. Idempotent.
func CleanText(c internal.Cell) string {
	if c.IsEmpty() {
		return ""
	}
	s := strings.ToUpper(c.String())
	s = reNonAlnum.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func FormatName(c internal.Cell) string {
	return CleanText(c)
}

func FormatMiddleInitial(c internal.Cell) string {
	if c.IsEmpty() {
		return ""
	}
	runes := []rune(strings.TrimSpace(c.String()))
	if len(runes) == 0 {
		return ""
	}
	return strings.ToUpper(string(runes[0]))
}

// sheetEpoch anchors spreadsheet serial dates at Dec 30 1899, which
// replicates the host format's 1900 leap-year offset. Do not "correct"
// this; exported dates must match what the sheet displays.
var sheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"2006-01-02",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

// Tried only when the four-digit layouts fail; Go maps 69-99 to 19xx.
var shortYearLayouts = []string{"1/2/06", "1-2-06"}

// FormatDate renders a serial number or a parseable date string as
// MM/DD/YYYY, or "" when unparseable.
func FormatDate(c internal.Cell) string {
	switch c.Kind {
	case internal.CellEmpty:
		return ""
	case internal.CellNumber:
		return serialToDate(c.Number)
	}

	raw := strings.TrimSpace(c.Text)
	if raw == "" {
		return ""
	}
	if reNumeric.MatchString(raw) {
		serial, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return ""
		}
		return serialToDate(serial)
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil && parsed.Year() >= 1000 {
			return fmt.Sprintf("%02d/%02d/%04d", parsed.Month(), parsed.Day(), parsed.Year())
		}
	}
	for _, layout := range shortYearLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return fmt.Sprintf("%02d/%02d/%04d", parsed.Month(), parsed.Day(), parsed.Year())
		}
	}
	return ""
}

func serialToDate(serial float64) string {
	if serial <= 0 {
		return ""
	}
	d := sheetEpoch.Add(time.Duration(serial * 24 * float64(time.Hour)))
	return fmt.Sprintf("%02d/%02d/%04d", d.Month(), d.Day(), d.Year())
}

// FormatSSN strips non-digits and left-pads to 9. Values that lost their
// leading zeros to numeric cells come back; longer values are left for
// the validator to report.
func FormatSSN(c internal.Cell) string {
	if c.IsEmpty() {
		return ""
	}
	digits := reNonDigit.ReplaceAllString(c.String(), "")
	if digits == "" {
		return ""
	}
	for len(digits) < 9 {
		digits = "0" + digits
	}
	return digits
}

// addressAbbrev is the full street-token substitution table. The export
// format abbreviates; one direction only.
var addressAbbrev = map[string]string{
	"ROAD":      "RD",
	"STREET":    "ST",
	"AVENUE":    "AVE",
	"BOULEVARD": "BLVD",
	"DRIVE":     "DR",
	"LANE":      "LN",
	"COURT":     "CT",
	"CIRCLE":    "CIR",
	"PLACE":     "PL",
	"TERRACE":   "TER",
	"HIGHWAY":   "HWY",
	"PARKWAY":   "PKWY",
	"SUITE":     "STE",
	"APARTMENT": "APT",
	"NORTH":     "N",
	"SOUTH":     "S",
	"EAST":      "E",
	"WEST":      "W",
	"NORTHEAST": "NE",
	"NORTHWEST": "NW",
	"SOUTHEAST": "SE",
	"SOUTHWEST": "SW",
}

func FormatAddress(c internal.Cell) string {
	if c.IsEmpty() {
		return ""
	}
	s := strings.ToUpper(c.String())
	s = strings.ReplaceAll(s, "#", " UNIT ")
	s = reNonAlnum.ReplaceAllString(s, " ")
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if abbrev, ok := addressAbbrev[tok]; ok {
			tokens[i] = abbrev
		}
	}
	return strings.Join(tokens, " ")
}

func FormatCity(c internal.Cell) string {
	return CleanText(c)
}

func FormatState(c internal.Cell) string {
	if c.IsEmpty() {
		return ""
	}
	s := strings.ToUpper(c.String())
	letters := make([]rune, 0, 2)
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			letters = append(letters, r)
			if len(letters) == 2 {
				break
			}
		}
	}
	return string(letters)
}

func FormatZip(c internal.Cell) string {
	if c.IsEmpty() {
		return ""
	}
	digits := reNonDigit.ReplaceAllString(c.String(), "")
	if len(digits) > 5 {
		digits = digits[:5]
	}
	return digits
}

func FormatPhone(c internal.Cell) string {
	if c.IsEmpty() {
		return ""
	}
	digits := reNonDigit.ReplaceAllString(c.String(), "")
	if len(digits) > 10 {
		digits = digits[:10]
	}
	return digits
}

// FormatSalary annualizes hourly pay: rate * weekly hours * 52. Annual
// amounts pass through after currency cleanup.
func FormatSalary(amount, salaryType, hoursWorked internal.Cell, defaultHours float64) *float64 {
	if amount.IsEmpty() {
		return nil
	}
	parsed := util.ParseAmount(amount.String())
	if parsed == nil {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(salaryType.String()), "hourly") {
		hours := defaultHours
		if h := util.ParseAmount(hoursWorked.String()); h != nil && *h > 0 {
			hours = *h
		}
		return util.FloatPtr(*parsed * hours * 52)
	}
	return parsed
}

// FormatVolumeAmount parses an elected voluntary-life dollar amount,
// defaulting to 0 when blank or unparseable.
func FormatVolumeAmount(c internal.Cell) *float64 {
	if parsed := util.ParseAmount(c.String()); parsed != nil {
		return parsed
	}
	return util.FloatPtr(0)
}

func FormatHoursWorked(c internal.Cell, defaultHours float64) *float64 {
	if parsed := util.ParseAmount(c.String()); parsed != nil && *parsed > 0 {
		return parsed
	}
	return util.FloatPtr(defaultHours)
}

var waiverAliases = map[string]bool{
	"W":        true,
	"WAIVE":    true,
	"WAIVED":   true,
	"WAIVER":   true,
	"DECLINE":  true,
	"DECLINED": true,
	"NONE":     true,
	"NO":       true,
}

// coverageAliases maps cleaned tier text onto the canonical codes.
var coverageAliases = map[string]string{
	"EE":                    "EE",
	"EMPLOYEE":              "EE",
	"EMPLOYEE ONLY":         "EE",
	"EE ONLY":               "EE",
	"SINGLE":                "EE",
	"ES":                    "ES",
	"EMPLOYEE SPOUSE":       "ES",
	"EMPLOYEE AND SPOUSE":   "ES",
	"EC":                    "EC",
	"EMPLOYEE CHILD":        "EC",
	"EMPLOYEE CHILDREN":     "EC",
	"EMPLOYEE AND CHILD":    "EC",
	"EMPLOYEE AND CHILDREN": "EC",
	"EF":                    "EF",
	"EMPLOYEE FAMILY":       "EF",
	"EMPLOYEE AND FAMILY":   "EF",
	"FAMILY":                "EF",
}

// FormatCoverageType normalizes a dental/vision tier to EE/ES/EC/EF/W.
// Unrecognized non-empty text passes through uppercased with known
// false, so callers can flag it without blocking the pipeline.
func FormatCoverageType(c internal.Cell) (code string, known bool) {
	cleaned := CleanText(c)
	if cleaned == "" {
		return "", true
	}
	if waiverAliases[cleaned] {
		return "W", true
	}
	if mapped, ok := coverageAliases[cleaned]; ok {
		return mapped, true
	}
	return cleaned, false
}

// FormatRestrictedCoverageType collapses untiered benefits (basic life,
// STD, LTD) to EE or W: any waiver alias waives, anything else enrolls.
func FormatRestrictedCoverageType(c internal.Cell) string {
	cleaned := CleanText(c)
	if cleaned == "" {
		return ""
	}
	if waiverAliases[cleaned] {
		return "W"
	}
	return "EE"
}

var enrollAliases = map[string]bool{
	"ENROLL":   true,
	"ENROLLED": true,
	"Y":        true,
	"YES":      true,
}

// FormatDependentVolume normalizes a child voluntary-life election to
// one of 5000/10000/0/Enroll/W. The returned DiagCode is non-empty when
// the value was accepted under a lossy default and needs human review.
func FormatDependentVolume(c internal.Cell) (string, internal.DiagCode) {
	cleaned := CleanText(c)
	if cleaned == "" {
		return "", ""
	}
	if amount := util.ParseAmount(c.String()); amount != nil {
		switch *amount {
		case 5000:
			return "5000", ""
		case 10000:
			return "10000", ""
		case 0:
			return "0", ""
		}
	}
	if waiverAliases[cleaned] {
		return "W", ""
	}
	if enrollAliases[cleaned] {
		// Elected with no amount stated; accepted but must be verified.
		return "Enroll", internal.DiagEnrollNoAmount
	}
	return "W", internal.DiagDependentVolDefault
}

// ParseRelationship classifies free text; anything unrecognized is an
// employee line, matching how carriers fill these files.
func ParseRelationship(c internal.Cell) internal.Relationship {
	rel := strings.ToLower(c.String())
	switch {
	case strings.Contains(rel, "spouse"):
		return internal.RelSpouse
	case strings.Contains(rel, "domestic"), strings.Contains(rel, "partner"):
		return internal.RelDomesticPartner
	case strings.Contains(rel, "child"), strings.Contains(rel, "dependent"):
		return internal.RelChild
	default:
		return internal.RelEmployee
	}
}

// ParseGender classifies by first letter; anything that is not F,
// blanks included, comes out M. Callers flag blank cells with a
// diagnostic so the default is visible downstream.
func ParseGender(c internal.Cell) string {
	g := strings.ToLower(strings.TrimSpace(c.String()))
	if strings.HasPrefix(g, "f") {
		return "F"
	}
	return "M"
}

func FormatYesNo(c internal.Cell) string {
	if strings.EqualFold(strings.TrimSpace(c.String()), "yes") {
		return "Yes"
	}
	return "No"
}
