// internal/app/system/captureexport/values.go
package captureexport

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/normalize"
)

// toNumber accepts numbers and numeric strings. Non-finite values are null
// and negative values clamp to zero.
//
// A string with exactly one comma and no point is read with the comma as the
// decimal separator, as field crews type it ("12,5"). Thousands separators
// are not supported: "1,234" parses as 1.234 and "1,234.5" is null.
func toNumber(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		s := strings.TrimSpace(x)
		// Decimal comma ("12,5") when there is no decimal point.
		if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if f < 0 {
		f = 0
	}
	return &f
}

// toBool accepts booleans, 0/1 and yes/no words in English and Spanish.
func toBool(v any) *bool {
	yes, no := true, false
	switch x := v.(type) {
	case bool:
		return &x
	case float64, float32, int, int32, int64:
		n := toNumber(x)
		if n == nil {
			return nil
		}
		switch *n {
		case 1:
			return &yes
		case 0:
			return &no
		}
		return nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "si", "sí", "yes":
			return &yes
		case "false", "0", "no":
			return &no
		}
	}
	return nil
}

// toText stringifies scalars. Blank strings, maps and arrays are null.
func toText(v any) *string {
	var s string
	switch x := v.(type) {
	case string:
		s = normalize.Label(x)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		s = strconv.Itoa(x)
	case int32:
		s = strconv.FormatInt(int64(x), 10)
	case int64:
		s = strconv.FormatInt(x, 10)
	case bool:
		s = strconv.FormatBool(x)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}

// toStatus maps the many historical status spellings onto complete or
// incomplete. Anything else is null.
func toStatus(v any) *string {
	complete, incomplete := "complete", "incomplete"
	switch x := v.(type) {
	case bool:
		if x {
			return &complete
		}
		return &incomplete
	case string:
		switch normalize.Status(x) {
		case "complete", "completed", "completo", "completa", "done":
			return &complete
		case "incomplete", "incompleto", "incompleta", "partial", "pending", "draft", "in_progress":
			return &incomplete
		}
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// toTime parses created_at values: time.Time, ISO strings with or without
// zone (no zone means UTC) and unix milliseconds.
func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x.UTC(), true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t.UTC(), true
			}
		}
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(x)).UTC(), true
	case int64:
		if x <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(x).UTC(), true
	}
	return time.Time{}, false
}

// countURLs counts non-empty entries of a photo URL array.
func countURLs(v any) (int, bool) {
	arr, ok := v.([]any)
	if !ok {
		return 0, false
	}
	n := 0
	for _, item := range arr {
		if photoPresent(item) {
			n++
		}
	}
	return n, true
}

// countEvidence counts photos in a keyed evidence map. A slot may hold a
// single URL, a photo object or a list of either.
func countEvidence(v any) (int, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return 0, false
	}
	n := 0
	for _, slot := range m {
		if arr, isArr := slot.([]any); isArr {
			for _, item := range arr {
				if photoPresent(item) {
					n++
				}
			}
			continue
		}
		if photoPresent(slot) {
			n++
		}
	}
	return n, true
}

func photoPresent(v any) bool {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x) != ""
	case map[string]any:
		for _, k := range []string{"url", "publicUrl", "public_url", "path"} {
			if s, ok := x[k].(string); ok && strings.TrimSpace(s) != "" {
				return true
			}
		}
	}
	return false
}
