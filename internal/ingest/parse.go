// Package ingest parses the two source datasets into typed records:
// the pricing CSV/XLSX into PriceEntry rows deduplicated by
// (description, NDC), and the NDC directory product file into
// ReferenceEntry rows.
package ingest

import (
	"strconv"
	"strings"
)

// placeholders are literal "no value" markers that appear in upstream
// data and must be normalized to absence at ingestion, never compared
// against downstream.
var placeholders = map[string]struct{}{
	"NO DATA": {},
	"N/A":     {},
	"NA":      {},
	"NULL":    {},
}

// cleanField trims a raw field and maps placeholder markers to "".
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if _, ok := placeholders[strings.ToUpper(s)]; ok {
		return ""
	}
	return s
}

// mapColumns builds a lowercased column name → index map from a header row.
func mapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

// getCol returns the cleaned value of a named column, or "" when the
// column is missing or the row is short.
func getCol(record []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return cleanField(record[idx])
}

// parseFloatOr parses a float, returning def for empty or malformed input.
func parseFloatOr(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// parseBoolYN returns true for "Y" (case-insensitive).
func parseBoolYN(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "Y")
}

// splitList splits a semicolon-delimited directory list field.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
