package pipeline

import (
	"censusfmt/internal"
	"censusfmt/internal/schema"
)

// ColumnAnalysis classifies columns by fill level. The export writer
// uses it to split fully blank columns onto their own sheet so the
// reviewer sees at a glance what the source file never provided.
type ColumnAnalysis struct {
	TotalColumns           int
	BlankColumns           []string
	PopulatedColumns       []string
	PartiallyFilledColumns []string
}

func (a ColumnAnalysis) IsBlank(key string) bool {
	for _, k := range a.BlankColumns {
		if k == key {
			return true
		}
	}
	return false
}

// AnalyzeColumns inspects every canonical export column across all
// records. Keys come back in export-column order.
func AnalyzeColumns(records []internal.CanonicalRecord) ColumnAnalysis {
	analysis := ColumnAnalysis{TotalColumns: len(schema.ExportColumns)}
	if len(records) == 0 {
		return analysis
	}

	for _, col := range schema.ExportColumns {
		filled := 0
		for _, rec := range records {
			if fieldValue(rec, col.Key) != "" {
				filled++
			}
		}
		switch {
		case filled == 0:
			analysis.BlankColumns = append(analysis.BlankColumns, col.Key)
		case filled == len(records):
			analysis.PopulatedColumns = append(analysis.PopulatedColumns, col.Key)
		default:
			analysis.PartiallyFilledColumns = append(analysis.PartiallyFilledColumns, col.Key)
		}
	}
	return analysis
}

// AnalyzeRawColumns is the same classification over the raw table,
// for pre-normalization reporting.
func AnalyzeRawColumns(table internal.RawTable) ColumnAnalysis {
	analysis := ColumnAnalysis{TotalColumns: len(table.Headers)}
	if len(table.Rows) == 0 {
		return analysis
	}

	for _, header := range table.Headers {
		filled := 0
		for _, row := range table.Rows {
			if !row[header].IsEmpty() {
				filled++
			}
		}
		switch {
		case filled == 0:
			analysis.BlankColumns = append(analysis.BlankColumns, header)
		case filled == len(table.Rows):
			analysis.PopulatedColumns = append(analysis.PopulatedColumns, header)
		default:
			analysis.PartiallyFilledColumns = append(analysis.PartiallyFilledColumns, header)
		}
	}
	return analysis
}

// HasExistingEntries reports whether any row answered the given raw
// column.
func HasExistingEntries(rows []internal.RawRow, header string) bool {
	for _, row := range rows {
		if !row[header].IsEmpty() {
			return true
		}
	}
	return false
}
