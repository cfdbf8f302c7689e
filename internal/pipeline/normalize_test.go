package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"censusfmt/internal"
	"censusfmt/internal/schema"
)

func censusMapping() internal.FieldMapping {
	return internal.FieldMapping{
		schema.Relationship:          "Relationship",
		schema.MemberLastName:        "Last Name",
		schema.FirstName:             "First Name",
		schema.Gender:                "Gender",
		schema.DateOfBirth:           "DOB",
		schema.SocialSecurityNumber:  "SSN",
		schema.DentalCoverageType:    "Dental Tier",
		schema.BasicLifeCoverageType: "Basic Life Election",
		schema.DependentBasicLife:    "Dependent Basic Life",
		schema.EmployeeVolumeAmount:  "Employee Voluntary Life",
		schema.SpouseVolumeAmount:    "Spouse Voluntary Life",
		schema.DependentVolume:       "Child Voluntary Life",
		schema.SalaryAmount:          "Salary",
		schema.SalaryType:            "Annual or Hourly",
	}
}

func employeeRow(last, first string) internal.RawRow {
	return internal.RawRow{
		"Relationship": internal.TextCell("Employee"),
		"Last Name":    internal.TextCell(last),
		"First Name":   internal.TextCell(first),
		"Gender":       internal.TextCell("F"),
		"DOB":          internal.TextCell("3/4/1985"),
		"SSN":          internal.TextCell("123-45-6789"),
	}
}

func TestNormalizeEmployee(t *testing.T) {
	row := employeeRow("Smith", "Ann")
	row["Dental Tier"] = internal.TextCell("Employee Only")
	row["Basic Life Election"] = internal.TextCell("Enroll")
	row["Salary"] = internal.TextCell("$52,000")
	row["Annual or Hourly"] = internal.TextCell("Annual")

	n := NewNormalizer(censusMapping(), []internal.RawRow{row}, 40)
	rec, diags := n.Normalize(0, row)

	require.Empty(t, diags)
	require.Equal(t, internal.RelEmployee, rec.Relationship)
	require.Equal(t, "Active", rec.EmployeeStatus)
	require.Equal(t, "SMITH", rec.MemberLastName)
	require.Equal(t, "ANN", rec.FirstName)
	require.Equal(t, "123456789", rec.SocialSecurityNumber)
	require.Equal(t, "03/04/1985", rec.DateOfBirth)

	require.NotNil(t, rec.DentalCoverageType)
	require.Equal(t, "EE", *rec.DentalCoverageType)
	require.NotNil(t, rec.BasicLifeCoverageType)
	require.Equal(t, "EE", *rec.BasicLifeCoverageType)
	require.NotNil(t, rec.SalaryAmount)
	require.Equal(t, 52000.0, *rec.SalaryAmount)
	// Volume columns default to 0 for employees when blank.
	require.NotNil(t, rec.EmployeeVolumeAmount)
	require.Equal(t, 0.0, *rec.EmployeeVolumeAmount)
}

func TestNormalizeUnknownCoverageDiagnostic(t *testing.T) {
	row := employeeRow("Smith", "Ann")
	row["Dental Tier"] = internal.TextCell("Platinum Plus")

	n := NewNormalizer(censusMapping(), []internal.RawRow{row}, 40)
	rec, diags := n.Normalize(3, row)

	require.NotNil(t, rec.DentalCoverageType)
	require.Equal(t, "PLATINUM PLUS", *rec.DentalCoverageType)
	require.Len(t, diags, 1)
	require.Equal(t, internal.DiagUnknownCoverageType, diags[0].Code)
	require.Equal(t, 3, diags[0].Row)
}

func TestNormalizeDependentKeepsOnlyDeclarations(t *testing.T) {
	row := internal.RawRow{
		"Relationship":          internal.TextCell("Spouse"),
		"Last Name":             internal.TextCell("Smith"),
		"First Name":            internal.TextCell("Bob"),
		"Gender":                internal.TextCell("M"),
		"DOB":                   internal.TextCell("1/1/1980"),
		"Dental Tier":           internal.TextCell("Employee Only"),
		"Salary":                internal.TextCell("$99,000"),
		"Spouse Voluntary Life": internal.TextCell("$10,000"),
	}

	n := NewNormalizer(censusMapping(), []internal.RawRow{row}, 40)
	rec, diags := n.Normalize(0, row)

	require.Empty(t, diags)
	require.Equal(t, internal.RelSpouse, rec.Relationship)
	// Benefit fields stay unset on dependent rows.
	require.Nil(t, rec.DentalCoverageType)
	require.Nil(t, rec.SalaryAmount)
	// Except the voluntary-life declaration the reconciler consumes.
	require.NotNil(t, rec.SpouseVolumeAmount)
	require.Equal(t, 10000.0, *rec.SpouseVolumeAmount)
}

func TestNormalizeChildVolumeDiagnostic(t *testing.T) {
	row := internal.RawRow{
		"Relationship":         internal.TextCell("Child"),
		"Last Name":            internal.TextCell("Smith"),
		"First Name":           internal.TextCell("Cam"),
		"Gender":               internal.TextCell("M"),
		"Child Voluntary Life": internal.TextCell("Enroll"),
	}

	n := NewNormalizer(censusMapping(), []internal.RawRow{row}, 40)
	rec, diags := n.Normalize(2, row)

	require.NotNil(t, rec.DependentVolume)
	require.Equal(t, "Enroll", *rec.DependentVolume)
	require.Len(t, diags, 1)
	require.Equal(t, internal.DiagEnrollNoAmount, diags[0].Code)
}

func TestNormalizeGenderDefaulted(t *testing.T) {
	row := employeeRow("Smith", "Ann")
	delete(row, "Gender")

	n := NewNormalizer(censusMapping(), []internal.RawRow{row}, 40)
	rec, diags := n.Normalize(4, row)

	// Blank gender becomes M with a diagnostic, never a validation error.
	require.Equal(t, "M", rec.Gender)
	require.Len(t, diags, 1)
	require.Equal(t, internal.DiagGenderDefaulted, diags[0].Code)
	require.Equal(t, 4, diags[0].Row)
}

func TestDependentBasicLifeTriState(t *testing.T) {
	blank := employeeRow("Smith", "Ann")

	// Nobody in the upload answered the column: stays unset.
	n := NewNormalizer(censusMapping(), []internal.RawRow{blank}, 40)
	rec, _ := n.Normalize(0, blank)
	require.Nil(t, rec.DependentBasicLife)

	// Somebody answered: blank now means waived.
	answered := employeeRow("Jones", "Pat")
	answered["Dependent Basic Life"] = internal.TextCell("Enroll")
	n = NewNormalizer(censusMapping(), []internal.RawRow{blank, answered}, 40)

	rec, _ = n.Normalize(0, blank)
	require.NotNil(t, rec.DependentBasicLife)
	require.Equal(t, "W", *rec.DependentBasicLife)

	rec, _ = n.Normalize(1, answered)
	require.NotNil(t, rec.DependentBasicLife)
	require.Equal(t, "Enroll", *rec.DependentBasicLife)
}
