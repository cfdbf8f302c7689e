package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"censusfmt/internal"
	"censusfmt/internal/util"
)

func TestExportWorkbookSheets(t *testing.T) {
	records := []internal.CanonicalRecord{
		{
			Relationship:   internal.RelEmployee,
			EmployeeStatus: "Active",
			MemberLastName: "SMITH",
			FirstName:      "ANN",
			Gender:         "F",
			DateOfBirth:    "03/04/1985",
			SalaryAmount:   util.FloatPtr(52000),
		},
	}
	idx := 0
	result := internal.ValidationResult{
		Warnings: []internal.ValidationWarning{{Field: "Phone", Message: "Phone must be 10 digits", RowIndex: &idx}},
	}
	diags := []internal.Diagnostic{{Row: 0, Field: "Dental Coverage Type", Code: internal.DiagUnknownCoverageType, Value: "PLATINUM", Message: "unrecognized coverage tier"}}

	out := filepath.Join(t.TempDir(), "census_clean.xlsx")
	require.NoError(t, ExportWorkbook(records, diags, result, ExportOptions{OutputPath: out, SplitBlankColumns: true}))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Contains(t, sheets, sheetMaster)
	require.Contains(t, sheets, sheetBlanks)
	require.Contains(t, sheets, sheetIssues)

	// Blank split: the master sheet keeps only answered columns.
	headers, err := f.GetRows(sheetMaster)
	require.NoError(t, err)
	require.NotContains(t, headers[0], "Phone", "blank column left on master sheet")

	rows, err := f.GetRows(sheetIssues)
	require.NoError(t, err)
	// Header plus one warning plus one diagnostic.
	require.Len(t, rows, 3)
}

func TestExportWorkbookNoSplit(t *testing.T) {
	records := []internal.CanonicalRecord{
		{Relationship: internal.RelEmployee, MemberLastName: "SMITH", FirstName: "ANN"},
	}

	out := filepath.Join(t.TempDir(), "census_clean.xlsx")
	require.NoError(t, ExportWorkbook(records, nil, internal.ValidationResult{}, ExportOptions{OutputPath: out}))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	require.NotContains(t, f.GetSheetList(), sheetBlanks, "BLANKS sheet present without split enabled")

	headers, err := f.GetRows(sheetMaster)
	require.NoError(t, err)
	require.Len(t, headers[0], 42)
}
