package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject locates the first complete JSON object embedded in
// free-form model output and returns it. Models wrap answers in markdown
// fences or prose more often than not, so the scan is best-effort: it walks
// brace pairs with string-literal awareness and validates each candidate.
// ok is false when no parsable object exists anywhere in the text.
func ExtractJSONObject(s string) (json.RawMessage, bool) {
	s = stripFences(s)

	start := strings.IndexByte(s, '{')
	for start >= 0 && start < len(s) {
		end, balanced := matchBrace(s, start)
		if !balanced {
			break
		}
		candidate := s[start : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start = start + 1 + next
	}
	return nil, false
}

// matchBrace finds the index of the brace closing the object opened at
// start, skipping braces inside string literals.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
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
				return i, true
			}
		}
	}
	return 0, false
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
