// internal/app/system/inputval/inputval.go
// Package inputval validates request parameters with waffle/pantry/validate.
//
// Handlers copy query or body values into a small struct with validate and
// label tags, then call Validate:
//
//	type exportQuery struct {
//	    Project string `validate:"required" label:"project"`
//	    Format  string `validate:"captureformat" label:"format"`
//	}
//
//	if res := inputval.Validate(q); res.HasErrors() {
//	    jsonutil.BadRequest(w, res.First())
//	    return
//	}
package inputval

import (
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/waffle/pantry/validate"
)

// Result holds validation failures in field order.
type Result struct {
	Errors []FieldError
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Accepted values for the format rules. An empty format means the
// endpoint's default.
var (
	CaptureFormats  = []string{"csv", "xlsx"}
	SnapshotFormats = []string{"json", "csv", "xlsx"}
)

var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

func oneOfOrEmpty(allowed []string) func(any) bool {
	return func(value any) bool {
		s, ok := value.(string)
		if !ok {
			return false
		}
		if s == "" {
			return true
		}
		for _, a := range allowed {
			if s == a {
				return true
			}
		}
		return false
	}
}

func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		customValidator = validate.New(validate.WithStopOnFirstError())
		customValidator.RegisterRuleFunc("captureformat", oneOfOrEmpty(CaptureFormats), "captureformat")
		customValidator.RegisterRuleFunc("snapshotformat", oneOfOrEmpty(SnapshotFormats), "snapshotformat")
	})
	return customValidator
}

// Validate checks s against its validate tags. Besides the pantry rules
// (required, oneof, min, max, ...) it knows captureformat and
// snapshotformat.
func Validate(s any) *Result {
	result := &Result{}

	err := getValidator().Struct(s)
	if err == nil {
		return result
	}

	labels := fieldLabels(s)
	if errs, ok := err.(validate.Errors); ok {
		for _, e := range errs {
			label := labels[e.Field]
			if label == "" {
				label = e.Field
			}
			result.Errors = append(result.Errors, FieldError{
				Field:   e.Field,
				Label:   label,
				Message: formatMessage(label, e.Rule, e.Param),
			})
		}
	}
	return result
}

// fieldLabels maps both the Go field name and the json name to the label
// tag.
func fieldLabels(s any) map[string]string {
	labels := make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		label := field.Tag.Get("label")
		if label == "" {
			continue
		}
		labels[field.Name] = label
		if name, _, _ := strings.Cut(field.Tag.Get("json"), ","); name != "" && name != "-" {
			labels[name] = label
		}
	}
	return labels
}

func formatMessage(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required"
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ")
	case "captureformat":
		return label + " must be " + orList(CaptureFormats)
	case "snapshotformat":
		return label + " must be " + orList(SnapshotFormats)
	case "max":
		return label + " must be at most " + param + " characters"
	default:
		return label + " is invalid"
	}
}

// orList renders ["a","b","c"] as "a, b or c".
func orList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
}
