package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"censusfmt/internal"
	"censusfmt/internal/config"
	"censusfmt/internal/storage"
)

func TestSmokeWorkbookToExport(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "census.db"))
	require.NoError(t, err)
	defer db.Close()

	blob := mkXLSX(t, "MASTER CENSUS", [][]any{
		{"Relationship", "Member Last Name", "First Name", "Gender", "Date of Birth", "SSN", "Dental Coverage Type", "Spousal Voluntary Life", "Salary", "Annual or Hourly"},
		{"Employee", "Smith", "Ann", "F", "3/4/1985", "123-45-6789", "Employee Only", 5000, "$52,000", "Annual"},
		{"Spouse", "Smith", "Bob", "M", "1/1/1980", nil, nil, 10000, nil, nil},
		{"Employee", "Jones", "Pat", "M", "6/1/1990", "987654321", "Family", nil, 20, "Hourly"},
	})
	inputPath := filepath.Join(tmp, "acme_census.xlsx")
	require.NoError(t, os.WriteFile(inputPath, blob, 0o644))

	received := time.Now().UTC().Format(time.RFC3339)
	upload, err := db.UpsertUpload("file", "acme-1", "acme_census.xlsx", "", received, "hash", inputPath, "fetched")
	require.NoError(t, err)

	cfg := config.Config{
		DefaultHoursWorked: 40,
		SplitBlankColumns:  true,
		OutputDir:          tmp,
	}
	proc := NewProcessingService(db, cfg, nil)
	res, err := proc.ProcessUpload(upload)
	require.NoError(t, err)
	require.False(t, res.Skipped)
	require.Equal(t, 3, res.Records)

	records, err := db.ListRecords(upload.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Spouse volume rolled up: $10k from the spouse line beats the $5k
	// keyed on the employee line.
	ann := records[0]
	require.Equal(t, "ANN", ann.FirstName)
	require.NotNil(t, ann.SpouseVolumeAmount)
	require.Equal(t, 10000.0, *ann.SpouseVolumeAmount)
	require.Nil(t, records[1].SpouseVolumeAmount, "spouse line kept its declaration")

	// Hourly salary annualized.
	pat := records[2]
	require.NotNil(t, pat.SalaryAmount)
	require.Equal(t, float64(20*40*52), *pat.SalaryAmount)

	out := filepath.Join(tmp, "result.xlsx")
	require.NoError(t, proc.ExportUpload(upload.ID, out))

	// The export reads diagnostics back from the store, so the roll-up
	// decision made at processing time lands on the ISSUES sheet.
	outBlob, err := os.ReadFile(out)
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(outBlob))
	require.NoError(t, err)
	defer wb.Close()
	issueRows, err := wb.GetRows("ISSUES")
	require.NoError(t, err)
	found := false
	for _, row := range issueRows[1:] {
		if len(row) >= 4 && row[0] == "diagnostic" && row[3] == string(internal.DiagSpouseVolumeRollup) {
			found = true
		}
	}
	require.True(t, found, "stored roll-up diagnostic missing from ISSUES sheet")

	stored, err := db.GetUploadByID(upload.ID)
	require.NoError(t, err)
	require.Equal(t, "exported", stored.Status)
}

func TestSmokeRun(t *testing.T) {
	blob := mkXLSX(t, "Sheet1", [][]any{
		{"Relationship", "Member Last Name", "First Name", "Gender", "Date of Birth", "SSN"},
		{"Employee", "Smith", "Ann", "F", "3/4/1985", "123-45-6789"},
		{"Child", "Smith", "Cam", "M", "1/1/2015", nil},
	})
	table, err := ParseWorkbook(blob)
	require.NoError(t, err)

	out := Run(table, 40)
	require.Len(t, out.Records, 2)
	require.Empty(t, out.MissingRequired)
	require.Equal(t, 6, out.RawAnalysis.TotalColumns)
	require.Contains(t, out.RawAnalysis.PartiallyFilledColumns, "SSN")
	require.Equal(t, internal.RelEmployee, out.Records[0].Relationship)
	require.Equal(t, internal.RelChild, out.Records[1].Relationship)
	// The child has no SSN requirement; this census should pass.
	require.True(t, out.Validation.IsValid, "validation errors: %v", out.Validation.Errors)
}
