// internal/app/system/normalize/normalize.go
// Package normalize provides helper functions for consistent string normalization
// of capture labels and request parameters. Use these helpers instead of
// scattered strings.ToLower and strings.TrimSpace calls.
package normalize

import "strings"

// moduleAliases maps historical module spellings onto the canonical tag.
var moduleAliases = map[string]string{
	"compaction":        "compactacion",
	"compactación":      "compactacion",
	"compactacion":      "compactacion",
	"rolls":             "rollos",
	"rollos":            "rollos",
	"roll_installation": "rollos",
	"adhesive":          "pegada",
	"pegada":            "pegada",
	"material":          "material",
	"materials":         "material",
	"material_records":  "material",
	"incidence":         "incidence",
	"incidences":        "incidence",
	"incidencia":        "incidence",
	"verification":      "verification",
	"verificacion":      "verification",
	"verificación":      "verification",
	"roll_verification": "verification",
}

// Module lowercases and trims a module tag and maps known historical
// spellings to the canonical tag. Unknown tags pass through lowercased.
func Module(s string) string {
	m := strings.ToLower(strings.TrimSpace(s))
	if canon, ok := moduleAliases[m]; ok {
		return canon
	}
	return m
}

// Label trims a zone or field label and collapses internal runs of
// whitespace to a single space. Case is preserved.
func Label(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Status normalizes a status value by trimming whitespace and converting to lowercase.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam normalizes a query parameter by trimming whitespace.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Format normalizes an export format parameter; empty means the default.
func Format(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
