package internal

import (
	"strconv"
	"strings"
)

type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is one raw spreadsheet value. Source files mix text, numbers and
// blanks in the same column, so every canonicalizer switches on Kind
// instead of coercing.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

func EmptyCell() Cell           { return Cell{Kind: CellEmpty} }
func TextCell(v string) Cell    { return Cell{Kind: CellText, Text: v} }
func NumberCell(v float64) Cell { return Cell{Kind: CellNumber, Number: v} }

func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	default:
		return false
	}
}

// String renders the raw value the way it appeared in the sheet.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// RawRow maps a raw column header to the cell value in that row.
type RawRow map[string]Cell

type TableSource string

const (
	SourceXLSX      TableSource = "xlsx"
	SourceHTMLTable TableSource = "email_html_table"
)

// RawTable is one rectangular block of census data as ingested: ordered
// headers plus ordered data rows. Immutable once produced.
type RawTable struct {
	Source  TableSource
	Sheet   string
	Headers []string
	Rows    []RawRow
}

// FieldMapping maps a canonical field key to the raw column header that
// feeds it. Absent key = unmapped field.
type FieldMapping map[string]string

type Relationship string

const (
	RelEmployee        Relationship = "Employee"
	RelSpouse          Relationship = "Spouse"
	RelDomesticPartner Relationship = "Domestic Partner"
	RelChild           Relationship = "Child"
)

// CanonicalRecord is one covered person. Benefit fields are pointers:
// nil means unset, which is the permanent state for dependents once
// reconciliation has run.
type CanonicalRecord struct {
	Relationship         Relationship
	EmployeeStatus       string
	SocialSecurityNumber string
	MemberLastName       string
	FirstName            string
	MiddleInitial        string
	Gender               string
	DateOfBirth          string
	Disabled             string

	MemberStreetAddress string
	City                string
	State               string
	Zip                 string
	Phone               string
	Email               string
	DateOfHire          *string

	DentalPlanElection              *string
	DentalCoverageType              *string
	DHMOProviderName                *string
	DentalPriorCarrierName          *string
	DentalPriorCarrierEffectiveDate *string
	DentalPriorCarrierTermDate      *string
	DentalPriorCarrierOrtho         *string

	VisionPlanElection *string
	VisionCoverageType *string

	BasicLifeCoverageType  *string
	PrimaryLifeBeneficiary *string
	DependentBasicLife     *string
	LifeADDClass           *string

	EmployeeVolumeAmount *float64
	SpouseVolumeAmount   *float64
	DependentVolume      *string

	STD      *string
	LTD      *string
	STDClass *string
	LTDClass *string

	SalaryType      *string
	SalaryAmount    *float64
	Occupation      *string
	HoursWorked     *float64
	WorkingLocation *string
	BillingDivision *string
}

// ClearBenefitFields unsets every employee-only field, leaving identity
// and contact data. Applied to dependents during reconciliation.
func (r *CanonicalRecord) ClearBenefitFields() {
	r.DateOfHire = nil
	r.DentalPlanElection = nil
	r.DentalCoverageType = nil
	r.DHMOProviderName = nil
	r.DentalPriorCarrierName = nil
	r.DentalPriorCarrierEffectiveDate = nil
	r.DentalPriorCarrierTermDate = nil
	r.DentalPriorCarrierOrtho = nil
	r.VisionPlanElection = nil
	r.VisionCoverageType = nil
	r.BasicLifeCoverageType = nil
	r.PrimaryLifeBeneficiary = nil
	r.DependentBasicLife = nil
	r.LifeADDClass = nil
	r.EmployeeVolumeAmount = nil
	r.SpouseVolumeAmount = nil
	r.DependentVolume = nil
	r.STD = nil
	r.LTD = nil
	r.STDClass = nil
	r.LTDClass = nil
	r.SalaryType = nil
	r.SalaryAmount = nil
	r.Occupation = nil
	r.HoursWorked = nil
	r.WorkingLocation = nil
	r.BillingDivision = nil
}

type DiagCode string

const (
	DiagUnknownCoverageType DiagCode = "unknown_coverage_type"
	DiagEnrollNoAmount      DiagCode = "enroll_without_amount"
	DiagDependentVolDefault DiagCode = "dependent_volume_defaulted"
	DiagGenderDefaulted     DiagCode = "gender_defaulted"
	DiagFamilyGrouped       DiagCode = "family_grouped"
	DiagStandaloneDependent DiagCode = "standalone_dependent"
	DiagSpouseVolumeRollup  DiagCode = "spouse_volume_rollup"
	DiagChildVolumeRollup   DiagCode = "child_volume_rollup"
)

// Diagnostic records an ambiguous-normalization or grouping decision.
// These are advisory: the value was accepted under a documented default
// and a human should eyeball it.
type Diagnostic struct {
	Row     int      `json:"row"`
	Field   string   `json:"field,omitempty"`
	Code    DiagCode `json:"code"`
	Value   string   `json:"value,omitempty"`
	Message string   `json:"message"`
}

type ValidationError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	RowIndex *int   `json:"rowIndex,omitempty"`
}

type ValidationWarning struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	RowIndex *int   `json:"rowIndex,omitempty"`
}

type DemographicCounts struct {
	Employees        int `json:"employees"`
	Spouses          int `json:"spouses"`
	DomesticPartners int `json:"domesticPartners"`
	Children         int `json:"children"`
}

// CoverageEnrollment tallies elected vs waived benefits, counted on
// employee records only.
type CoverageEnrollment struct {
	DentalEnrolled int `json:"dentalEnrolled"`
	DentalWaived   int `json:"dentalWaived"`
	VisionEnrolled int `json:"visionEnrolled"`
	VisionWaived   int `json:"visionWaived"`
	LifeEnrolled   int `json:"lifeEnrolled"`
	LifeWaived     int `json:"lifeWaived"`
}

type ValidationSummary struct {
	TotalRecords int                `json:"totalRecords"`
	ValidRecords int                `json:"validRecords"`
	ErrorCount   int                `json:"errorCount"`
	WarningCount int                `json:"warningCount"`
	Demographics DemographicCounts  `json:"demographicCounts"`
	Coverage     CoverageEnrollment `json:"coverageEnrollment"`
}

type ValidationResult struct {
	IsValid  bool                `json:"isValid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
	Summary  ValidationSummary   `json:"summary"`
}

// UploadRow tracks one census submission through fetch/process/export.
type UploadRow struct {
	ID         int
	Source     string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
