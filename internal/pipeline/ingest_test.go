package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"censusfmt/internal"
)

func mkXLSX(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), sheet)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func TestParseWorkbook(t *testing.T) {
	blob := mkXLSX(t, "MASTER CENSUS", [][]any{
		{"Relationship", "Member Last Name", "First Name", "Date of Birth", "Salary"},
		{"Employee", "Smith", "Ann", 31109, 52000},
		{"Spouse", "Smith", "Bob", "1/1/1980", nil},
	})

	table, err := ParseWorkbook(blob)
	require.NoError(t, err)
	require.Equal(t, "MASTER CENSUS", table.Sheet)
	require.Len(t, table.Headers, 5)
	require.Len(t, table.Rows, 2)

	dob := table.Rows[0]["Date of Birth"]
	require.Equal(t, internal.CellNumber, dob.Kind)
	require.Equal(t, 31109.0, dob.Number)
	require.Equal(t, "Bob", table.Rows[1]["First Name"].Text)
	require.True(t, table.Rows[1]["Salary"].IsEmpty(), "missing trailing cell should be empty")
}

func TestParseWorkbookSkipsLeadingBlankRows(t *testing.T) {
	blob := mkXLSX(t, "Sheet1", [][]any{
		{nil, nil},
		{"Relationship", "First Name", "Last Name"},
		{"Employee", "Ann", "Smith"},
	})

	table, err := ParseWorkbook(blob)
	require.NoError(t, err)
	require.Equal(t, "Relationship", table.Headers[0])
	require.Len(t, table.Rows, 1)
}

func TestParseHTMLTables(t *testing.T) {
	html := `<html><body>
<p>Census below.</p>
<table>
  <tr><th>Relationship</th><th>First Name</th><th>Last Name</th></tr>
  <tr><td>Employee</td><td>Ann</td><td>Smith</td></tr>
  <tr><td>Spouse</td><td>Bob</td><td>Smith</td></tr>
</table>
</body></html>`

	tables := ParseHTMLTables(html)
	require.Len(t, tables, 1)
	require.Equal(t, internal.SourceHTMLTable, tables[0].Source)
	require.Len(t, tables[0].Rows, 2)
	require.Equal(t, "Ann", tables[0].Rows[0]["First Name"].Text)
}

func TestExtractTablesFromEmailHTML(t *testing.T) {
	raw := []byte("From: broker@example.com\r\n" +
		"To: intake@example.com\r\n" +
		"Subject: Employee census for enrollment\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><body><table>" +
		"<tr><th>Relationship</th><th>First Name</th><th>Last Name</th></tr>" +
		"<tr><td>Employee</td><td>Ann</td><td>Smith</td></tr>" +
		"</table></body></html>\r\n")

	ex, err := ExtractTablesFromEmailRaw(raw)
	require.NoError(t, err)
	require.Equal(t, "Employee census for enrollment", ex.Subject)
	require.Len(t, ex.Tables, 1)
	require.Len(t, ex.Tables[0].Rows, 1)
}
