package video

import (
	"strings"
	"unicode"
)

// repairJSON makes a best effort at turning loosely formatted model output into
// parseable JSON. It only handles fences, typographic quotes, comments and trailing commas.
func repairJSON(s string) string {
	s = stripFences(s)
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}
	s = normalizeQuotes(s)
	s = stripComments(s)
	return stripTrailingCommas(s)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// closingQuotes maps a typographic opening quote to the quotes that close it.
var closingQuotes = map[rune]string{
	'“': "”“",
	'„': "“”",
	'«': "»",
	'”': "”",
}

// normalizeQuotes turns typographic quotes used as JSON delimiters into '"'.
// Quotes inside a properly delimited string value are left as they are.
func normalizeQuotes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inString, escaped := false, false
	closers := ""
	for _, r := range s {
		if !inString {
			if r == '"' {
				inString, closers = true, ""
			} else if c, ok := closingQuotes[r]; ok {
				inString, closers = true, c
				r = '"'
			}
			sb.WriteRune(r)
			continue
		}
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inString = false
		case closers != "" && strings.ContainsRune(closers, r):
			inString = false
			r = '"'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func stripComments(s string) string {
	var sb strings.Builder
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			sb.WriteByte(c)
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
		if c == '"' {
			inString = true
			sb.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				for i < len(s) && s[i] != '\n' {
					i++
				}
				if i < len(s) {
					sb.WriteByte('\n')
				}
				continue
			case '*':
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					return sb.String()
				}
				i += end + 3
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func stripTrailingCommas(s string) string {
	var sb strings.Builder
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			sb.WriteByte(c)
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
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && unicode.IsSpace(rune(s[j])) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
