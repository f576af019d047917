// Package headers converts between the free-text header editor and the
// name -> value overrides stored on a server connection.
//
// The text form is one "Name: value" pair per line:
//
//	Authorization: Bearer abc
//	X-Forwarded-Proto: https
package headers

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrInvalidFormat is returned for a non-blank line that has no colon or
// yields an empty name or value.
var ErrInvalidFormat = errors.New(`use one "Name: value" header per line`)

// ParseError reports the offending line. It matches ErrInvalidFormat with
// errors.Is.
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, ErrInvalidFormat)
}

func (e *ParseError) Unwrap() error { return ErrInvalidFormat }

// Format renders overrides for display, sorted case-insensitively by name.
// A nil or empty map renders as "".
func Format(h map[string]string) string {
	if len(h) == 0 {
		return ""
	}

	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := strings.ToLower(names[i]), strings.ToLower(names[j])
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})

	lines := make([]string, 0, len(names))
	for _, k := range names {
		lines = append(lines, k+": "+h[k])
	}
	return strings.Join(lines, "\n")
}

// Parse reads header text. Blank lines are skipped and a repeated name keeps
// the last value. Text without any entries returns nil.
func Parse(text string) (map[string]string, error) {
	var out map[string]string

	lineNo := 0
	for _, raw := range splitLines(text) {
		lineNo++
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, &ParseError{Line: lineNo, Text: line}
		}
		name := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if name == "" || value == "" {
			return nil, &ParseError{Line: lineNo, Text: line}
		}

		if out == nil {
			out = make(map[string]string)
		}
		out[name] = value
	}
	return out, nil
}

// Validate is Parse without the result. Whitespace-only text is valid.
func Validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	_, err := Parse(text)
	return err
}

// Equal reports whether a and b hold the same overrides; nil and empty are
// the same.
func Equal(a, b map[string]string) bool {
	return maps.Equal(a, b)
}

// Apply sets every override on h, replacing existing values.
func Apply(h http.Header, overrides map[string]string) {
	for k, v := range overrides {
		h.Set(k, v)
	}
}

// splitLines splits on every newline character, including a lone \r and
// the Unicode line/paragraph separators. "\r\n" counts as one break.
func splitLines(s string) []string {
	lines := []string{}
	start := 0
	for i, r := range s {
		if !isNewline(r) {
			continue
		}
		if r == '\n' && i > 0 && s[i-1] == '\r' {
			start = i + 1
			continue
		}
		lines = append(lines, s[start:i])
		start = i + utf8.RuneLen(r)
	}
	return append(lines, s[start:])
}

func isNewline(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
