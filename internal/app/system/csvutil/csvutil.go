// internal/app/system/csvutil/csvutil.go
// Package csvutil encodes row sets as CSV text through an ordered column
// projection. Both the capture export and the snapshot export go through
// Encode so escaping, column order and null handling stay identical.
package csvutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Column projects one value out of a row. Value may return nil (or a nil
// pointer) for a null cell.
type Column[T any] struct {
	Header string
	Value  func(T) any
}

// Headers returns the column headers in order.
func Headers[T any](cols []Column[T]) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

// Encode renders the header line followed by one line per row, joined by
// "\n" with no trailing newline.
func Encode[T any](cols []Column[T], rows []T) string {
	var b strings.Builder

	for i, c := range cols {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Escape(c.Header))
	}

	for _, row := range rows {
		b.WriteByte('\n')
		for i, c := range cols {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(Escape(Format(c.Value(row))))
		}
	}
	return b.String()
}

// Escape quotes s, doubling inner quotes, iff it contains a comma, a double
// quote or a newline.
func Escape(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Format stringifies a cell value. Null (nil or a nil pointer) is "".
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case *float64:
		if x == nil {
			return ""
		}
		return strconv.FormatFloat(*x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case *int:
		if x == nil {
			return ""
		}
		return strconv.Itoa(*x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case *bool:
		if x == nil {
			return ""
		}
		return strconv.FormatBool(*x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.UTC().Format("2006-01-02T15:04:05.000Z")
	default:
		return fmt.Sprint(x)
	}
}
