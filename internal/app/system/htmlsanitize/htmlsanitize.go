// internal/app/system/htmlsanitize/htmlsanitize.go
// Package htmlsanitize reduces free-text capture notes to plain text.
// It uses bluemonday to strip any markup the capture forms let through.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// policy strips every element and attribute.
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// PlainText removes all markup from s and returns the trimmed text with
// entities decoded. Line breaks in the text are kept.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return strings.TrimSpace(s)
	}
	cleaned := getPolicy().Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// IsPlainText checks if content appears to be plain text (no HTML tags).
func IsPlainText(content string) bool {
	if content == "" {
		return true
	}
	// Valid HTML tags require both characters, so if either is missing, treat as plain text
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}
