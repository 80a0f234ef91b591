// internal/llmutil/scan.go

// Package llmutil holds tolerant scanners for structured text produced by
// language models. Nothing here returns an error: malformed input yields
// empty results instead.
package llmutil

import (
	"regexp"
	"strings"
)

// codeFenceRegex matches a markdown fence line, with or without a language
// tag. \x60 is a backtick, which raw strings cannot contain.
var codeFenceRegex = regexp.MustCompile("(?m)^\\s*\x60\x60\x60[a-zA-Z]*\\s*$")

// StripCodeFences removes markdown fence lines, keeping their contents.
func StripCodeFences(s string) string {
	return codeFenceRegex.ReplaceAllString(s, "")
}

// OutermostArray returns the text from the first '[' to the last ']'.
func OutermostArray(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// SplitObjects returns every top level {...} chunk in s, in order. Braces
// inside quoted strings are ignored and an unterminated trailing object is
// dropped. Prose between objects is skipped.
func SplitObjects(s string) []string {
	var objects []string
	depth, start := 0, -1
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
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
			// Quotes only matter inside an object.
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				objects = append(objects, s[start:i+1])
				start = -1
			}
		}
	}
	return objects
}

// Fields scans a loosely formatted object and returns its top level members
// as raw value text keyed by member name. Keys may be quoted or bare; a
// member without a ':' is skipped. Later duplicates overwrite earlier ones.
func Fields(obj string) map[string]string {
	fields := make(map[string]string)
	body := strings.TrimSpace(obj)
	body = strings.TrimPrefix(body, "{")
	body = strings.TrimSuffix(body, "}")

	i := 0
	for i < len(body) {
		i = skipSpaceAndCommas(body, i)
		if i >= len(body) {
			break
		}

		key, next := readKey(body, i)
		if next == i {
			i++
			continue
		}
		i = skipSpace(body, next)
		if i >= len(body) || body[i] != ':' {
			continue
		}
		i = skipSpace(body, i+1)

		value, next := readValue(body, i)
		if key != "" {
			fields[key] = value
		}
		if next == i {
			i++
			continue
		}
		i = next
	}
	return fields
}

// StringValue interprets raw member text as a string. Quoted text is
// unescaped; bare text is trimmed. null and empty values report false.
func StringValue(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return "", false
	}
	if raw[0] == '"' || raw[0] == '\'' {
		s, _ := readString(raw, 0)
		return s, true
	}
	if raw[0] == '[' || raw[0] == '{' {
		return "", false
	}
	return raw, true
}

// StringList collects every quoted string inside a raw [...] member.
// Anything that is not a quoted string is ignored.
func StringList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw[0] != '[' {
		return nil
	}
	var out []string
	for i := 1; i < len(raw); i++ {
		if raw[i] == ']' {
			break
		}
		if raw[i] == '"' {
			s, next := readString(raw, i)
			out = append(out, s)
			i = next - 1
		}
	}
	return out
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func skipSpaceAndCommas(s string, i int) int {
	for i < len(s) && (isSpace(s[i]) || s[i] == ',') {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdent(c byte) bool {
	return c == '_' || c == '-' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func readKey(s string, i int) (string, int) {
	if s[i] == '"' || s[i] == '\'' {
		return readString(s, i)
	}
	j := i
	for j < len(s) && isIdent(s[j]) {
		j++
	}
	return s[i:j], j
}

// readString reads a string opened by the quote at s[i] and returns its
// unescaped contents and the index just past the closing quote. An
// unterminated string runs to the end of s.
func readString(s string, i int) (string, int) {
	quote := s[i]
	var b strings.Builder
	for j := i + 1; j < len(s); j++ {
		c := s[j]
		switch {
		case c == '\\' && j+1 < len(s):
			j++
			switch s[j] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[j])
			}
		case c == quote:
			return b.String(), j + 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), len(s)
}

// readValue returns the raw text of the value starting at s[i].
func readValue(s string, i int) (string, int) {
	if i >= len(s) {
		return "", i
	}
	switch s[i] {
	case '"', '\'':
		_, end := readString(s, i)
		return s[i:end], end
	case '[', '{':
		end := matchBracket(s, i)
		return s[i:end], end
	}
	j := i
	for j < len(s) && s[j] != ',' && s[j] != '}' && s[j] != '\n' {
		j++
	}
	return strings.TrimSpace(s[i:j]), j
}

// matchBracket returns the index just past the bracket closing s[i], or
// len(s) when it never closes.
func matchBracket(s string, i int) int {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '"':
			_, end := readString(s, j)
			j = end - 1
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(s)
}
