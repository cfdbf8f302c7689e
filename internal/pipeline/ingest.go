package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	"github.com/xuri/excelize/v2"

	"censusfmt/internal"
)

// ParseWorkbookFile reads an xlsx census from disk.
func ParseWorkbookFile(path string) (internal.RawTable, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return internal.RawTable{}, err
	}
	return ParseWorkbook(content)
}

// ParseWorkbook reads one census table out of an xlsx workbook. A
// sheet named like "MASTER CENSUS" wins; otherwise the first sheet
// with a recognizable header row is used. Cells keep their raw typed
// value so downstream canonicalizers can tell serial dates from text.
func ParseWorkbook(content []byte) (internal.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return internal.RawTable{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return internal.RawTable{}, fmt.Errorf("workbook has no sheets")
	}

	ordered := make([]string, 0, len(sheets))
	for _, s := range sheets {
		if strings.Contains(strings.ToLower(s), "census") {
			ordered = append(ordered, s)
		}
	}
	for _, s := range sheets {
		if !strings.Contains(strings.ToLower(s), "census") {
			ordered = append(ordered, s)
		}
	}

	var lastErr error
	for _, sheet := range ordered {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			lastErr = err
			continue
		}
		table, ok := rowsToTable(sheet, rows)
		if ok {
			return table, nil
		}
	}
	if lastErr != nil {
		return internal.RawTable{}, lastErr
	}
	return internal.RawTable{}, fmt.Errorf("no census table found in workbook")
}

// rowsToTable treats the first non-empty row as headers and everything
// below it as data. Fully blank data rows are dropped.
func rowsToTable(sheet string, rows [][]string) (internal.RawTable, bool) {
	headerIdx := -1
	for i, row := range rows {
		if countNonEmpty(row) >= 2 {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return internal.RawTable{}, false
	}

	headers := make([]string, 0, len(rows[headerIdx]))
	for _, h := range rows[headerIdx] {
		headers = append(headers, strings.TrimSpace(h))
	}

	table := internal.RawTable{
		Source:  internal.SourceXLSX,
		Sheet:   sheet,
		Headers: headers,
	}
	for _, row := range rows[headerIdx+1:] {
		if countNonEmpty(row) == 0 {
			continue
		}
		raw := make(internal.RawRow, len(headers))
		for j, header := range headers {
			if header == "" {
				continue
			}
			if j < len(row) {
				raw[header] = rawToCell(row[j])
			} else {
				raw[header] = internal.EmptyCell()
			}
		}
		table.Rows = append(table.Rows, raw)
	}
	return table, len(table.Rows) > 0
}

// rawToCell classifies one raw cell string. Numeric strings become
// number cells, which is how xlsx serial dates and amounts arrive when
// reading with raw values.
func rawToCell(raw string) internal.Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return internal.EmptyCell()
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return internal.NumberCell(n)
	}
	return internal.TextCell(trimmed)
}

func countNonEmpty(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

// ParseHTMLTables pulls census-shaped tables out of an HTML body.
// Brokers sometimes paste small censuses straight into the email.
func ParseHTMLTables(html string) []internal.RawTable {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	out := []internal.RawTable{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, normalizeSpaces(cell.Text()))
		})
		if countNonEmpty(headers) < 2 {
			return
		}

		raw := internal.RawTable{
			Source:  internal.SourceHTMLTable,
			Headers: headers,
		}
		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, normalizeSpaces(cell.Text()))
			})
			if countNonEmpty(cells) == 0 {
				return
			}
			r := make(internal.RawRow, len(headers))
			for j, header := range headers {
				if header == "" {
					continue
				}
				if j < len(cells) {
					r[header] = rawToCell(cells[j])
				} else {
					r[header] = internal.EmptyCell()
				}
			}
			raw.Rows = append(raw.Rows, r)
		})
		if len(raw.Rows) > 0 {
			out = append(out, raw)
		}
	})
	return out
}

// EmailExtraction is everything pulled from one raw RFC 5322 message.
type EmailExtraction struct {
	Subject         string
	BodyText        string
	Tables          []internal.RawTable
	AttachmentNames []string
}

// ExtractTablesFromEmailRaw parses a raw message and collects census
// tables from xlsx attachments and inline HTML tables.
func ExtractTablesFromEmailRaw(raw []byte) (EmailExtraction, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return EmailExtraction{}, err
	}

	ex := EmailExtraction{
		Subject:  env.GetHeader("Subject"),
		BodyText: env.Text,
	}

	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			filename = "attachment"
		}
		ex.AttachmentNames = append(ex.AttachmentNames, filename)

		lower := strings.ToLower(filename)
		if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
			table, err := ParseWorkbook(att.Content)
			if err == nil {
				table.Sheet = filename + ": " + table.Sheet
				ex.Tables = append(ex.Tables, table)
			}
		}
	}

	if len(ex.Tables) == 0 && env.HTML != "" {
		ex.Tables = append(ex.Tables, ParseHTMLTables(env.HTML)...)
	}

	return ex, nil
}

func normalizeSpaces(input string) string {
	return strings.TrimSpace(regexp.MustCompile(`\s+`).ReplaceAllString(input, " "))
}
