package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	fence   = "```"
	jsonTag = "json"
)

// ErrParse indicates no JSON object could be recovered from model output.
var ErrParse = errors.New("unparseable model response")

// ParseResponse recovers the first JSON object from raw model output.
//
// Recovery runs in three stages, each only if the previous one failed:
//  1. the first balanced {...} block after wrapper markers are stripped
//  2. progressively shorter prefixes ending at each '}' from the last one back
//  3. a closing pass over the truncated tail (see closeTruncated)
func ParseResponse(raw string) (map[string]any, error) {
	cleaned := stripWrappers(raw)

	start := strings.IndexByte(cleaned, '{')
	if start == -1 {
		return nil, fmt.Errorf("%w: no JSON object found", ErrParse)
	}

	// Prose before the payload may contain its own braces, so a failed
	// recovery moves on to the next '{'.
	for start != -1 {
		body := cleaned[start:]
		if obj, ok := recoverObject(body); ok {
			return obj, nil
		}
		next := strings.IndexByte(body[1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}

	return nil, fmt.Errorf("%w: repair failed", ErrParse)
}

func recoverObject(body string) (map[string]any, bool) {
	if block := balancedBlock(body); block != "" {
		if obj, ok := decodeObject(block); ok {
			return obj, true
		}
	}

	for end := strings.LastIndexByte(body, '}'); end > 0; end = strings.LastIndexByte(body[:end], '}') {
		if obj, ok := decodeObject(body[:end+1]); ok {
			return obj, true
		}
	}

	if repaired, ok := closeTruncated(body); ok {
		return decodeObject(repaired)
	}
	return nil, false
}

// stripWrappers removes a markdown code fence (with an optional "json"
// language tag) from the ends of s, and a bare leading "json" tag.
// Text between the ends is left untouched.
func stripWrappers(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, fence) {
		s = strings.TrimSpace(s[len(fence):])
	}
	if strings.HasSuffix(s, fence) {
		s = strings.TrimSpace(s[:len(s)-len(fence)])
	}
	if len(s) >= len(jsonTag) && strings.EqualFold(s[:len(jsonTag)], jsonTag) {
		s = s[len(jsonTag):]
	}
	return strings.TrimSpace(s)
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, obj != nil
}

// balancedBlock returns the prefix of s (which starts with '{') that closes
// the opening brace, or "" when the braces never balance.
func balancedBlock(s string) string {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

// closeTruncated completes a JSON text that was cut off mid-stream.
//
// It scans with a bracket stack, closing an unterminated string, then trims
// the dangling tail a cut can leave behind (a trailing comma, a key with no
// value, a lone colon) and appends the missing ']' and '}' in stack order.
// It reports false if the text contains a closer with no matching opener.
func closeTruncated(s string) (string, bool) {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != opener(c) {
				return "", false
			}
			stack = stack[:len(stack)-1]
		}
	}

	if escaped {
		// a dangling backslash would escape the closing quote
		s = s[:len(s)-1]
	}
	if inString {
		s += `"`
	}

	var b strings.Builder
	b.WriteString(trimDanglingTail(s, stack))
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(closer(stack[i]))
	}
	return b.String(), true
}

// trimDanglingTail removes syntax that cannot precede a closer: trailing
// commas and colons, a number or literal cut short, and inside an object a
// key whose value never arrived.
func trimDanglingTail(s string, stack []byte) string {
	for {
		trimmed := strings.TrimRight(s, " \t\r\n")
		switch {
		case strings.HasSuffix(trimmed, ","):
			s = trimmed[:len(trimmed)-1]
		case strings.HasSuffix(trimmed, ":"):
			s = dropTrailingKey(trimmed[:len(trimmed)-1])
		case len(stack) > 0 && stack[len(stack)-1] == '{' && endsWithBareKey(trimmed):
			s = dropTrailingKey(trimmed)
		default:
			if cut, ok := dropPartialScalar(trimmed); ok {
				s = cut
				continue
			}
			return trimmed
		}
	}
}

// dropPartialScalar removes a trailing unquoted value such as "0." or "tr"
// that is not valid JSON on its own. Complete values are kept.
func dropPartialScalar(s string) (string, bool) {
	i := len(s)
	for i > 0 && isScalarByte(s[i-1]) {
		i--
	}
	token := s[i:]
	if token == "" || json.Valid([]byte(token)) {
		return s, false
	}
	before := strings.TrimRight(s[:i], " \t\r\n")
	if !strings.HasSuffix(before, ":") && !strings.HasSuffix(before, ",") && !strings.HasSuffix(before, "[") {
		return s, false
	}
	return before, true
}

func isScalarByte(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '.' || c == '-' || c == '+'
}

// endsWithBareKey reports whether s ends with a quoted string that directly
// follows '{' or ',' and so can only be an object key.
func endsWithBareKey(s string) bool {
	if !strings.HasSuffix(s, `"`) {
		return false
	}
	start := quotedStart(s)
	if start < 0 {
		return false
	}
	before := strings.TrimRight(s[:start], " \t\r\n")
	return strings.HasSuffix(before, "{") || strings.HasSuffix(before, ",")
}

// dropTrailingKey removes a trailing quoted key from s.
func dropTrailingKey(s string) string {
	s = strings.TrimRight(s, " \t\r\n")
	if !strings.HasSuffix(s, `"`) {
		return s
	}
	start := quotedStart(s)
	if start < 0 {
		return s
	}
	return s[:start]
}

// quotedStart returns the index of the opening quote of the string literal
// ending s, or -1.
func quotedStart(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		if s[i] != '"' {
			continue
		}
		backslashes := 0
		for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 0 {
			return i
		}
	}
	return -1
}

func opener(c byte) byte {
	if c == '}' {
		return '{'
	}
	return '['
}

func closer(c byte) byte {
	if c == '{' {
		return '}'
	}
	return ']'
}
