package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// codeBlockPattern matches markdown code blocks with optional language tag
// Captures: (1) optional language, (2) content
var codeBlockPattern = regexp.MustCompile(`(?s)` + "```" + `(\w*)\s*\n(.+?)\n` + "```")

// ExtractLastJSON extracts the last well-formed JSON object or array from a
// model response. Responses frequently carry a free-text reasoning preamble
// before the payload, so everything preceding the final valid JSON value is
// ignored. Priority:
// 1. The last valid JSON inside ```json ... ``` or ``` ... ``` code blocks
// 2. The last raw JSON object {...} or array [...] in the text
//
// Returns the extracted JSON string and any error.
func ExtractLastJSON(response string) (string, error) {
	// Step 1: Try to find JSON in markdown code blocks
	if jsonStr, found := extractFromCodeBlocks(response); found {
		return jsonStr, nil
	}

	// Step 2: Try to extract raw JSON
	if jsonStr, found := extractLastRawJSON(response); found {
		return jsonStr, nil
	}

	return "", fmt.Errorf("no valid JSON object found in response")
}

// extractFromCodeBlocks finds the last JSON payload in markdown code blocks.
func extractFromCodeBlocks(response string) (string, bool) {
	matches := codeBlockPattern.FindAllStringSubmatch(response, -1)

	// Scan from the last block backwards; a reasoning preamble may contain
	// earlier fenced examples that are not the payload.
	for i := len(matches) - 1; i >= 0; i-- {
		match := matches[i]
		if len(match) < 3 {
			continue
		}

		lang := strings.ToLower(match[1])
		content := strings.TrimSpace(match[2])

		// Accept json or no language tag; skip blocks tagged as other languages.
		if lang != "" && lang != "json" {
			continue
		}

		if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
			if isValidJSON(content) {
				return content, true
			}
		}
	}

	return "", false
}

// extractLastRawJSON finds the last balanced JSON object or array in the text.
// Candidates are collected left to right by bracket matching and the last one
// that parses wins.
func extractLastRawJSON(response string) (string, bool) {
	var last string

	for i := 0; i < len(response); i++ {
		c := response[i]
		if c != '{' && c != '[' {
			continue
		}

		closeChar := byte('}')
		if c == '[' {
			closeChar = ']'
		}

		candidate := findMatchingBracket(response[i:], closeChar)
		if candidate == "" {
			continue
		}

		if isValidJSON(candidate) {
			last = candidate
			// Skip past this value so nested objects are not re-reported.
			i += len(candidate) - 1
		}
	}

	return last, last != ""
}

// findMatchingBracket finds the complete JSON value by matching brackets.
// String literals and escape sequences are respected.
func findMatchingBracket(s string, closeChar byte) string {
	if len(s) == 0 {
		return ""
	}

	openChar := s[0]
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}

	return "" // Unmatched brackets
}

// isValidJSON checks if a string is valid JSON.
func isValidJSON(s string) bool {
	var js json.RawMessage
	return json.Unmarshal([]byte(s), &js) == nil
}

// ExtractLastJSONAs extracts the last JSON value and unmarshals it into the
// provided type. Convenience wrapper around ExtractLastJSON.
func ExtractLastJSONAs[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractLastJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return result, nil
}
