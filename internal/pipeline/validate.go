package pipeline

import (
	"regexp"
	"time"

	"censusfmt/internal"
)

var (
	dobPattern   = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	ssnPattern   = regexp.MustCompile(`^\d{9}$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	zipPattern   = regexp.MustCompile(`^\d{5}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Validate checks the reconciled sequence against required-field and
// format rules. Errors block isValid; warnings are advisory only.
func Validate(records []internal.CanonicalRecord) internal.ValidationResult {
	errors := []internal.ValidationError{}
	warnings := []internal.ValidationWarning{}

	for i, rec := range records {
		validateRecord(rec, i, &errors, &warnings)
	}

	return internal.ValidationResult{
		IsValid:  len(errors) == 0,
		Errors:   errors,
		Warnings: warnings,
		Summary:  summarize(records, errors, warnings),
	}
}

func validateRecord(rec internal.CanonicalRecord, index int, errors *[]internal.ValidationError, warnings *[]internal.ValidationWarning) {
	addError := func(field, message string) {
		idx := index
		*errors = append(*errors, internal.ValidationError{Field: field, Message: message, RowIndex: &idx})
	}
	addWarning := func(field, message string) {
		idx := index
		*warnings = append(*warnings, internal.ValidationWarning{Field: field, Message: message, RowIndex: &idx})
	}

	if rec.MemberLastName == "" {
		addError("Member Last Name", "Last Name is required")
	}
	if rec.FirstName == "" {
		addError("First Name", "First Name is required")
	}
	if rec.Gender != "M" && rec.Gender != "F" {
		addError("Gender", "Gender must be M or F")
	}
	if rec.DateOfBirth == "" {
		addError("Date of Birth", "Date of Birth is required")
	} else if !dobPattern.MatchString(rec.DateOfBirth) {
		addError("Date of Birth", "Date of Birth must be in MM/DD/YYYY format")
	}

	switch rec.Relationship {
	case internal.RelEmployee, internal.RelSpouse, internal.RelDomesticPartner, internal.RelChild:
	default:
		addError("Relationship", "Invalid relationship type")
	}

	if rec.Relationship == internal.RelEmployee {
		if !ssnPattern.MatchString(rec.SocialSecurityNumber) {
			addError("SSN", "SSN must be 9 digits")
		}
		if rec.DateOfHire == nil {
			addWarning("Date of Hire", "Date of Hire should be provided for employees")
		}
		if rec.SalaryAmount != nil && *rec.SalaryAmount <= 0 {
			addWarning("Salary Amount", "Salary should be a positive number")
		}
	}

	if rec.Relationship == internal.RelChild && dobPattern.MatchString(rec.DateOfBirth) {
		if age := ageFromDOB(rec.DateOfBirth); age > 25 && rec.Disabled != "Yes" {
			addWarning("Child Age", "Child over 25 should be marked as disabled")
		}
	}

	if rec.MemberStreetAddress == "" {
		addWarning("Street Address", "Street Address should be provided")
	}
	if rec.City == "" {
		addWarning("City", "City should be provided")
	}
	if rec.State == "" {
		addWarning("State", "State should be provided")
	} else if len(rec.State) != 2 {
		addError("State", "State must be 2 characters")
	}
	if rec.Zip == "" {
		addWarning("Zip", "Zip code should be provided")
	} else if !zipPattern.MatchString(rec.Zip) {
		addWarning("Zip", "Zip code must be 5 digits")
	}
	if rec.Phone != "" && !phonePattern.MatchString(rec.Phone) {
		addWarning("Phone", "Phone must be 10 digits")
	}
	if rec.Email != "" && !emailPattern.MatchString(rec.Email) {
		addWarning("Email", "Email address is not well formed")
	}
}

func ageFromDOB(dob string) int {
	parsed, err := time.Parse("01/02/2006", dob)
	if err != nil {
		return 0
	}
	return time.Now().Year() - parsed.Year()
}

func summarize(records []internal.CanonicalRecord, errors []internal.ValidationError, warnings []internal.ValidationWarning) internal.ValidationSummary {
	summary := internal.ValidationSummary{
		TotalRecords: len(records),
		ErrorCount:   len(errors),
		WarningCount: len(warnings),
	}

	rowsWithErrors := map[int]bool{}
	for _, e := range errors {
		if e.RowIndex != nil {
			rowsWithErrors[*e.RowIndex] = true
		}
	}
	summary.ValidRecords = len(records) - len(rowsWithErrors)

	for _, rec := range records {
		switch rec.Relationship {
		case internal.RelEmployee:
			summary.Demographics.Employees++
		case internal.RelSpouse:
			summary.Demographics.Spouses++
		case internal.RelDomesticPartner:
			summary.Demographics.DomesticPartners++
		case internal.RelChild:
			summary.Demographics.Children++
		}

		if rec.Relationship != internal.RelEmployee {
			continue
		}
		if enrolled(rec.DentalCoverageType) {
			summary.Coverage.DentalEnrolled++
		} else {
			summary.Coverage.DentalWaived++
		}
		if enrolled(rec.VisionCoverageType) {
			summary.Coverage.VisionEnrolled++
		} else {
			summary.Coverage.VisionWaived++
		}
		if rec.BasicLifeCoverageType != nil && *rec.BasicLifeCoverageType == "EE" {
			summary.Coverage.LifeEnrolled++
		} else {
			summary.Coverage.LifeWaived++
		}
	}

	return summary
}

func enrolled(tier *string) bool {
	return tier != nil && *tier != "" && *tier != "W"
}
