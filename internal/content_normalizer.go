package internal

import (
	"encoding/json"
	"regexp"
	"strings"
)

// boilerplatePattern matches the context marker the backend prepends to
// content when a turn has no prior conversation to summarize.
var boilerplatePattern = regexp.MustCompile(`Some Previous Info: No Info\s*`)

var (
	commaQuotePattern   = regexp.MustCompile(`,\s*'`)
	singleQuotedPattern = regexp.MustCompile(`(?s)'text':\s*'((?:[^'\\]|\\.)*)'`)
	doubleQuotedPattern = regexp.MustCompile(`(?s)"text":\s*"((?:[^"\\]|\\.)*)"`)

	valueUnescaper = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\'`, "'", `\"`, `"`)
)

// contentExtractors are tried in order; the first to succeed wins. Adding a
// new encoding format means appending a new extractor.
var contentExtractors = []func(string) (string, bool){
	extractViaJSON,
	extractSingleQuotedText,
	extractDoubleQuotedText,
}

// NormalizeContent extracts the human-readable text from a step's raw
// content. The backend emits content in at least three shapes: well-formed
// JSON, a single-quoted Python-dict-style repr, and plain text. This is a
// best-effort normalizer: if no extractor recognizes the input, the cleaned
// original text comes back unchanged. It never fails.
func NormalizeContent(raw string) string {
	clean := strings.TrimSpace(boilerplatePattern.ReplaceAllString(raw, ""))

	for _, extract := range contentExtractors {
		if text, ok := extract(clean); ok {
			return text
		}
	}

	return clean
}

// extractViaJSON rewrites the common single-quote delimiters to double quotes
// and attempts a real JSON parse. It only succeeds for an array whose first
// element carries a non-empty "text" field.
func extractViaJSON(content string) (string, bool) {
	jsonStr := strings.ReplaceAll(content, `{'`, `{"`)
	jsonStr = strings.ReplaceAll(jsonStr, `':`, `":`)
	jsonStr = commaQuotePattern.ReplaceAllString(jsonStr, `, "`)
	jsonStr = strings.ReplaceAll(jsonStr, `'}`, `"}`)
	jsonStr = strings.ReplaceAll(jsonStr, `['`, `["`)
	jsonStr = strings.ReplaceAll(jsonStr, `']`, `"]`)

	var parsed []map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		LogDebug("JSON extraction failed, falling back to pattern matching: %v", err)
		return "", false
	}
	if len(parsed) == 0 {
		return "", false
	}

	text, ok := parsed[0]["text"].(string)
	if !ok || text == "" {
		return "", false
	}
	return text, true
}

// extractSingleQuotedText pulls the value of a 'text': '...' pair out of a
// Python-repr-style string, unescaping the captured value.
func extractSingleQuotedText(content string) (string, bool) {
	match := singleQuotedPattern.FindStringSubmatch(content)
	if match == nil {
		return "", false
	}
	return valueUnescaper.Replace(match[1]), true
}

// extractDoubleQuotedText is the double-quoted equivalent, for content that
// is JSON-ish but not parseable as a whole.
func extractDoubleQuotedText(content string) (string, bool) {
	match := doubleQuotedPattern.FindStringSubmatch(content)
	if match == nil {
		return "", false
	}
	return valueUnescaper.Replace(match[1]), true
}

// StripBoilerplate removes the no-context marker without attempting any
// structured extraction. History records need only this cleanup.
func StripBoilerplate(content string) string {
	return strings.TrimSpace(boilerplatePattern.ReplaceAllString(content, ""))
}
