// internal/app/system/download/download.go
// Package download writes export payloads as file attachments.
package download

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/daterange"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/xlsxutil"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// CSVContentType is the Content-Type for CSV attachments.
const CSVContentType = "text/csv; charset=utf-8"

// Response headers carried by every export.
const (
	HeaderRowCount         = "X-Pulse-Row-Count"
	HeaderRelationWarnings = "X-Pulse-Relation-Warnings"
)

// Filename builds "pulse-<kind>-<project>-<from|all>-<to|all>.<ext>".
func Filename(kind, projectID string, bounds daterange.Bounds, ext string) string {
	return fmt.Sprintf("pulse-%s-%s-%s-%s.%s",
		kind, projectID, daterange.Label(bounds.FromDate), daterange.Label(bounds.ToDate), ext)
}

// Meta describes an attachment.
type Meta struct {
	Filename         string
	ContentType      string
	RowCount         int
	RelationWarnings []string
}

// Write sends body as an attachment with the row count and warning headers.
func Write(w http.ResponseWriter, meta Meta, body []byte) error {
	h := w.Header()
	h.Set("Content-Type", meta.ContentType)
	h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(meta.Filename)))
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set(HeaderRowCount, strconv.Itoa(meta.RowCount))
	h.Set(HeaderRelationWarnings, strings.Join(meta.RelationWarnings, ","))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(body)
	return err
}

// ContentType returns the attachment Content-Type for a format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return xlsxutil.ContentType
	}
	return CSVContentType
}
