package pipeline

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"censusfmt/internal"
	"censusfmt/internal/schema"
)

const (
	sheetMaster = "MASTER CENSUS"
	sheetBlanks = "BLANKS"
	sheetIssues = "ISSUES"
)

type ExportOptions struct {
	OutputPath string
	// SplitBlankColumns moves columns no record answered onto their
	// own sheet instead of leaving empty columns in the master sheet.
	SplitBlankColumns bool
}

// ExportWorkbook writes the cleaned census to an xlsx workbook: the
// canonical records on MASTER CENSUS, optionally the never-answered
// columns on BLANKS, and all diagnostics plus validation findings on
// ISSUES.
func ExportWorkbook(records []internal.CanonicalRecord, diags []internal.Diagnostic, result internal.ValidationResult, opts ExportOptions) error {
	analysis := AnalyzeColumns(records)

	columns := schema.ExportColumns
	var blankCols []schema.ExportColumn
	if opts.SplitBlankColumns {
		columns = columns[:0:0]
		for _, col := range schema.ExportColumns {
			if analysis.IsBlank(col.Key) {
				blankCols = append(blankCols, col)
			} else {
				columns = append(columns, col)
			}
		}
	}

	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), sheetMaster)

	writeRecordSheet(f, sheetMaster, columns, records)

	if opts.SplitBlankColumns && len(blankCols) > 0 {
		if _, err := f.NewSheet(sheetBlanks); err != nil {
			return err
		}
		writeRecordSheet(f, sheetBlanks, blankCols, records)
	}

	if _, err := f.NewSheet(sheetIssues); err != nil {
		return err
	}
	writeIssueSheet(f, diags, result)

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(opts.OutputPath)
}

func writeRecordSheet(f *excelize.File, sheet string, columns []schema.ExportColumn, records []internal.CanonicalRecord) {
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col.Header)
	}
	for i, rec := range records {
		r := i + 2
		for j, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(j+1, r)
			_ = f.SetCellValue(sheet, cell, fieldValue(rec, col.Key))
		}
	}
}

func writeIssueSheet(f *excelize.File, diags []internal.Diagnostic, result internal.ValidationResult) {
	headers := []string{"severity", "row", "field", "code", "value", "message"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetIssues, cell, h)
	}

	r := 2
	set := func(col int, value any) {
		cell, _ := excelize.CoordinatesToCellName(col, r)
		_ = f.SetCellValue(sheetIssues, cell, value)
	}
	for _, e := range result.Errors {
		set(1, "error")
		set(2, derefInt(e.RowIndex))
		set(3, e.Field)
		set(6, e.Message)
		r++
	}
	for _, w := range result.Warnings {
		set(1, "warning")
		set(2, derefInt(w.RowIndex))
		set(3, w.Field)
		set(6, w.Message)
		r++
	}
	for _, d := range diags {
		set(1, "diagnostic")
		set(2, d.Row)
		set(3, d.Field)
		set(4, string(d.Code))
		set(5, d.Value)
		set(6, d.Message)
		r++
	}
}

// fieldValue renders one canonical field as an output cell. Unset
// pointer fields render as the empty string.
func fieldValue(rec internal.CanonicalRecord, key string) string {
	switch key {
	case schema.Relationship:
		return string(rec.Relationship)
	case schema.EmployeeStatus:
		return rec.EmployeeStatus
	case schema.SocialSecurityNumber:
		return rec.SocialSecurityNumber
	case schema.MemberLastName:
		return rec.MemberLastName
	case schema.FirstName:
		return rec.FirstName
	case schema.MiddleInitial:
		return rec.MiddleInitial
	case schema.Gender:
		return rec.Gender
	case schema.DateOfBirth:
		return rec.DateOfBirth
	case schema.Disabled:
		return rec.Disabled
	case schema.MemberStreetAddress:
		return rec.MemberStreetAddress
	case schema.City:
		return rec.City
	case schema.State:
		return rec.State
	case schema.Zip:
		return rec.Zip
	case schema.Phone:
		return rec.Phone
	case schema.Email:
		return rec.Email
	case schema.DateOfHire:
		return derefString(rec.DateOfHire)
	case schema.DentalPlanElection:
		return derefString(rec.DentalPlanElection)
	case schema.DentalCoverageType:
		return derefString(rec.DentalCoverageType)
	case schema.DHMOProviderName:
		return derefString(rec.DHMOProviderName)
	case schema.DentalPriorCarrierName:
		return derefString(rec.DentalPriorCarrierName)
	case schema.DentalPriorCarrierEffectiveDate:
		return derefString(rec.DentalPriorCarrierEffectiveDate)
	case schema.DentalPriorCarrierTermDate:
		return derefString(rec.DentalPriorCarrierTermDate)
	case schema.DentalPriorCarrierOrtho:
		return derefString(rec.DentalPriorCarrierOrtho)
	case schema.VisionPlanElection:
		return derefString(rec.VisionPlanElection)
	case schema.VisionCoverageType:
		return derefString(rec.VisionCoverageType)
	case schema.BasicLifeCoverageType:
		return derefString(rec.BasicLifeCoverageType)
	case schema.PrimaryLifeBeneficiary:
		return derefString(rec.PrimaryLifeBeneficiary)
	case schema.DependentBasicLife:
		return derefString(rec.DependentBasicLife)
	case schema.LifeADDClass:
		return derefString(rec.LifeADDClass)
	case schema.EmployeeVolumeAmount:
		return derefFloat(rec.EmployeeVolumeAmount)
	case schema.SpouseVolumeAmount:
		return derefFloat(rec.SpouseVolumeAmount)
	case schema.DependentVolume:
		return derefString(rec.DependentVolume)
	case schema.STD:
		return derefString(rec.STD)
	case schema.LTD:
		return derefString(rec.LTD)
	case schema.STDClass:
		return derefString(rec.STDClass)
	case schema.LTDClass:
		return derefString(rec.LTDClass)
	case schema.SalaryType:
		return derefString(rec.SalaryType)
	case schema.SalaryAmount:
		return derefFloat(rec.SalaryAmount)
	case schema.Occupation:
		return derefString(rec.Occupation)
	case schema.HoursWorked:
		return derefFloat(rec.HoursWorked)
	case schema.WorkingLocation:
		return derefString(rec.WorkingLocation)
	case schema.BillingDivision:
		return derefString(rec.BillingDivision)
	default:
		return ""
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func derefInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}
