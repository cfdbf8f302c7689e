package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"censusfmt/internal"
)

func TestCleanTextIdempotent(t *testing.T) {
	cases := map[string]string{
		"  O'Brien-Smith ": "O BRIEN SMITH",
		"mary jane":        "MARY JANE",
		"":                 "",
		"A.  B.":           "A B",
	}
	for in, want := range cases {
		got := CleanText(internal.TextCell(in))
		require.Equal(t, want, got, "input %q", in)
		require.Equal(t, got, CleanText(internal.TextCell(got)), "not idempotent for %q", in)
	}
}

func TestFormatDateSerial(t *testing.T) {
	// Serial dates inherit the 1900 leap-year offset of the source
	// format; serial 41 lands on Feb 9 1900.
	require.Equal(t, "02/09/1900", FormatDate(internal.NumberCell(41)))
	require.Equal(t, "01/01/2024", FormatDate(internal.NumberCell(45292)))
	require.Equal(t, "02/09/1900", FormatDate(internal.TextCell("41")))
	require.Equal(t, "", FormatDate(internal.NumberCell(0)))
}

func TestFormatDateText(t *testing.T) {
	cases := map[string]string{
		"3/4/1985":      "03/04/1985",
		"03/04/1985":    "03/04/1985",
		"1985-03-04":    "03/04/1985",
		"Mar 4, 1985":   "03/04/1985",
		"3/4/85":        "03/04/1985",
		"not a date":    "",
		"":              "",
		"March 4, 1985": "03/04/1985",
	}
	for in, want := range cases {
		require.Equal(t, want, FormatDate(internal.TextCell(in)), "input %q", in)
	}
}

func TestFormatSSN(t *testing.T) {
	require.Equal(t, "012345678", FormatSSN(internal.TextCell("12345678")))
	require.Equal(t, "123456789", FormatSSN(internal.TextCell("123-45-6789")))
	// Too-long values are never truncated; the validator reports them.
	require.Equal(t, "1234567890", FormatSSN(internal.TextCell("1234567890")))
	require.Equal(t, "", FormatSSN(internal.TextCell("n/a")))
	require.Equal(t, "000000042", FormatSSN(internal.NumberCell(42)))
}

func TestFormatAddress(t *testing.T) {
	cases := map[string]string{
		"123 Main Street":         "123 MAIN ST",
		"45 Oak Avenue, Apt. 2":   "45 OAK AVE APT 2",
		"9 North Elm Road #5":     "9 N ELM RD UNIT 5",
		"77 Sunset Boulevard West": "77 SUNSET BLVD W",
	}
	for in, want := range cases {
		require.Equal(t, want, FormatAddress(internal.TextCell(in)), "input %q", in)
	}
}

func TestFormatStateZipPhone(t *testing.T) {
	require.Equal(t, "CA", FormatState(internal.TextCell("California")))
	require.Equal(t, "NY", FormatState(internal.TextCell("ny")))
	require.Equal(t, "", FormatState(internal.EmptyCell()))

	require.Equal(t, "90210", FormatZip(internal.TextCell("90210-1234")))
	require.Equal(t, "7652", FormatZip(internal.NumberCell(7652)))

	require.Equal(t, "5551234567", FormatPhone(internal.TextCell("(555) 123-4567")))
	require.Equal(t, "5551234567", FormatPhone(internal.TextCell("+1 555 123 4567 x89")))
}

func TestFormatSalary(t *testing.T) {
	annual := FormatSalary(internal.TextCell("$52,000"), internal.TextCell("Annual"), internal.EmptyCell(), 40)
	require.NotNil(t, annual)
	require.Equal(t, 52000.0, *annual)

	hourly := FormatSalary(internal.TextCell("$20"), internal.TextCell("Hourly"), internal.EmptyCell(), 40)
	require.NotNil(t, hourly)
	require.Equal(t, 20.0*40*52, *hourly)

	hourly35 := FormatSalary(internal.TextCell("20"), internal.TextCell("hourly"), internal.NumberCell(35), 40)
	require.NotNil(t, hourly35)
	require.Equal(t, 20.0*35*52, *hourly35)

	require.Nil(t, FormatSalary(internal.EmptyCell(), internal.TextCell("Annual"), internal.EmptyCell(), 40))
}

func TestFormatCoverageType(t *testing.T) {
	cases := []struct {
		in    string
		code  string
		known bool
	}{
		{"Employee Only", "EE", true},
		{"ee", "EE", true},
		{"Employee + Spouse", "ES", true},
		{"employee and children", "EC", true},
		{"Family", "EF", true},
		{"Waived", "W", true},
		{"decline", "W", true},
		{"Platinum Tier", "PLATINUM TIER", false},
	}
	for _, c := range cases {
		code, known := FormatCoverageType(internal.TextCell(c.in))
		require.Equal(t, c.code, code, "input %q", c.in)
		require.Equal(t, c.known, known, "input %q", c.in)
	}

	code, known := FormatCoverageType(internal.EmptyCell())
	require.Equal(t, "", code)
	require.True(t, known)
}

func TestFormatRestrictedCoverageType(t *testing.T) {
	require.Equal(t, "EE", FormatRestrictedCoverageType(internal.TextCell("Enroll")))
	require.Equal(t, "EE", FormatRestrictedCoverageType(internal.TextCell("yes please")))
	require.Equal(t, "W", FormatRestrictedCoverageType(internal.TextCell("Waive")))
	require.Equal(t, "", FormatRestrictedCoverageType(internal.EmptyCell()))
}

func TestFormatDependentVolume(t *testing.T) {
	cases := []struct {
		in   string
		want string
		code internal.DiagCode
	}{
		{"5000", "5000", ""},
		{"$10,000", "10000", ""},
		{"0", "0", ""},
		{"waive", "W", ""},
		{"Enroll", "Enroll", internal.DiagEnrollNoAmount},
		{"maybe later", "W", internal.DiagDependentVolDefault},
	}
	for _, c := range cases {
		got, code := FormatDependentVolume(internal.TextCell(c.in))
		require.Equal(t, c.want, got, "input %q", c.in)
		require.Equal(t, c.code, code, "input %q", c.in)
	}

	got, code := FormatDependentVolume(internal.EmptyCell())
	require.Equal(t, "", got)
	require.Equal(t, internal.DiagCode(""), code)
}

func TestParseRelationship(t *testing.T) {
	require.Equal(t, internal.RelSpouse, ParseRelationship(internal.TextCell("Spouse")))
	require.Equal(t, internal.RelDomesticPartner, ParseRelationship(internal.TextCell("Domestic Partner")))
	require.Equal(t, internal.RelChild, ParseRelationship(internal.TextCell("Dependent Child")))
	require.Equal(t, internal.RelChild, ParseRelationship(internal.TextCell("child")))
	require.Equal(t, internal.RelEmployee, ParseRelationship(internal.TextCell("EE")))
	require.Equal(t, internal.RelEmployee, ParseRelationship(internal.EmptyCell()))
}

func TestParseGender(t *testing.T) {
	require.Equal(t, "F", ParseGender(internal.TextCell("Female")))
	require.Equal(t, "F", ParseGender(internal.TextCell("f")))
	require.Equal(t, "M", ParseGender(internal.TextCell("Male")))
	require.Equal(t, "M", ParseGender(internal.TextCell("man")))
	// Blank classifies as M; Normalize flags the default separately.
	require.Equal(t, "M", ParseGender(internal.EmptyCell()))
}
