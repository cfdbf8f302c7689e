package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"censusfmt/internal"
	"censusfmt/internal/util"
)

func validEmployee() internal.CanonicalRecord {
	return internal.CanonicalRecord{
		Relationship:         internal.RelEmployee,
		EmployeeStatus:       "Active",
		SocialSecurityNumber: "123456789",
		MemberLastName:       "SMITH",
		FirstName:            "ANN",
		Gender:               "F",
		DateOfBirth:          "03/04/1985",
		MemberStreetAddress:  "123 MAIN ST",
		City:                 "SPRINGFIELD",
		State:                "IL",
		Zip:                  "62704",
		Phone:                "5551234567",
		Email:                "ann@example.com",
		DateOfHire:           util.StringPtr("01/15/2020"),
	}
}

func countField(errs []internal.ValidationError, field string) int {
	n := 0
	for _, e := range errs {
		if e.Field == field {
			n++
		}
	}
	return n
}

func countWarnField(warns []internal.ValidationWarning, field string) int {
	n := 0
	for _, w := range warns {
		if w.Field == field {
			n++
		}
	}
	return n
}

func TestValidateCleanRecord(t *testing.T) {
	result := Validate([]internal.CanonicalRecord{validEmployee()})
	require.True(t, result.IsValid, "errors: %v", result.Errors)
	require.Equal(t, 1, result.Summary.ValidRecords)
}

func TestValidateGenderError(t *testing.T) {
	rec := validEmployee()
	rec.Gender = "X"
	result := Validate([]internal.CanonicalRecord{rec})

	require.False(t, result.IsValid)
	require.Equal(t, 1, countField(result.Errors, "Gender"))
	require.Equal(t, 0, result.Summary.ValidRecords)
}

func TestValidatePhoneWarningOnly(t *testing.T) {
	rec := validEmployee()
	rec.Phone = "5551234"
	result := Validate([]internal.CanonicalRecord{rec})

	require.True(t, result.IsValid, "phone length must not be an error: %v", result.Errors)
	require.Equal(t, 1, countWarnField(result.Warnings, "Phone"))
}

func TestValidateEmployeeSSN(t *testing.T) {
	rec := validEmployee()
	rec.SocialSecurityNumber = "1234567890"
	result := Validate([]internal.CanonicalRecord{rec})
	require.Equal(t, 1, countField(result.Errors, "SSN"))

	// Dependents are not held to the SSN rule.
	spouse := internal.CanonicalRecord{
		Relationship:        internal.RelSpouse,
		MemberLastName:      "SMITH",
		FirstName:           "BOB",
		Gender:              "M",
		DateOfBirth:         "01/01/1980",
		State:               "IL",
		City:                "SPRINGFIELD",
		Zip:                 "62704",
		MemberStreetAddress: "123 MAIN ST",
	}
	result = Validate([]internal.CanonicalRecord{spouse})
	require.Equal(t, 0, countField(result.Errors, "SSN"))
}

func TestValidateChildOver25(t *testing.T) {
	child := internal.CanonicalRecord{
		Relationship:        internal.RelChild,
		MemberLastName:      "SMITH",
		FirstName:           "CAM",
		Gender:              "M",
		DateOfBirth:         "01/01/1990",
		Disabled:            "No",
		State:               "IL",
		City:                "SPRINGFIELD",
		Zip:                 "62704",
		MemberStreetAddress: "123 MAIN ST",
	}
	result := Validate([]internal.CanonicalRecord{child})
	require.Equal(t, 1, countWarnField(result.Warnings, "Child Age"))

	child.Disabled = "Yes"
	result = Validate([]internal.CanonicalRecord{child})
	require.Equal(t, 0, countWarnField(result.Warnings, "Child Age"))
}

func TestValidateSummary(t *testing.T) {
	employee := validEmployee()
	employee.DentalCoverageType = util.StringPtr("EE")
	employee.VisionCoverageType = util.StringPtr("W")
	employee.BasicLifeCoverageType = util.StringPtr("EE")

	spouse := internal.CanonicalRecord{
		Relationship:        internal.RelSpouse,
		MemberLastName:      "SMITH",
		FirstName:           "BOB",
		Gender:              "M",
		DateOfBirth:         "01/01/1980",
		State:               "IL",
		City:                "SPRINGFIELD",
		Zip:                 "62704",
		MemberStreetAddress: "123 MAIN ST",
	}

	result := Validate([]internal.CanonicalRecord{employee, spouse})
	s := result.Summary

	require.Equal(t, 2, s.TotalRecords)
	require.Equal(t, 1, s.Demographics.Employees)
	require.Equal(t, 1, s.Demographics.Spouses)
	require.Equal(t, 1, s.Coverage.DentalEnrolled)
	require.Equal(t, 0, s.Coverage.VisionEnrolled)
	require.Equal(t, 1, s.Coverage.VisionWaived)
	require.Equal(t, 1, s.Coverage.LifeEnrolled)
}
