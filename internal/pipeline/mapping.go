package pipeline

import (
	"strings"

	"censusfmt/internal"
	"censusfmt/internal/schema"
)

// MatchHeaders infers a canonical-field to raw-header mapping. For each
// schema field in order: an exact label match wins, then the field's
// substring probes; the first satisfying header is claimed and never
// reused by a later field. Deterministic, no scoring.
func MatchHeaders(headers []string) internal.FieldMapping {
	mapping := internal.FieldMapping{}
	used := map[string]bool{}

	for _, field := range schema.Fields {
		header, ok := findHeader(headers, used, field)
		if !ok {
			continue
		}
		mapping[field.Key] = header
		used[header] = true
	}
	return mapping
}

func findHeader(headers []string, used map[string]bool, field schema.Field) (string, bool) {
	label := strings.ToLower(field.Label)
	for _, h := range headers {
		if !used[h] && strings.ToLower(strings.TrimSpace(h)) == label {
			return h, true
		}
	}
	for _, h := range headers {
		if used[h] {
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(h))
		for _, probe := range field.Probes {
			if strings.Contains(lower, probe) {
				return h, true
			}
		}
	}
	return "", false
}

// MissingRequired lists required schema fields the mapping leaves
// unbound. The caller decides whether to refuse the upload.
func MissingRequired(mapping internal.FieldMapping) []string {
	var missing []string
	for _, key := range schema.RequiredKeys() {
		if strings.TrimSpace(mapping[key]) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// FieldLabels renders field keys as their human column labels for
// warnings and reports. Unknown keys pass through unchanged.
func FieldLabels(keys []string) []string {
	labels := make([]string, 0, len(keys))
	for _, key := range keys {
		if f, ok := schema.FieldByKey(key); ok {
			labels = append(labels, f.Label)
			continue
		}
		labels = append(labels, key)
	}
	return labels
}

// Project rekeys one raw row from raw headers onto canonical field
// keys. Unmapped fields come back as empty cells.
func Project(row internal.RawRow, mapping internal.FieldMapping) map[string]internal.Cell {
	out := make(map[string]internal.Cell, len(mapping))
	for key, header := range mapping {
		if header == "" {
			continue
		}
		if cell, ok := row[header]; ok {
			out[key] = cell
		}
	}
	return out
}
