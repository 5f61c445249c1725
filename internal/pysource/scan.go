package pysource

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is matched by every error Extract returns for malformed source.
var ErrSyntax = errors.New("python syntax error")

// SyntaxError reports where the scanner gave up.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// logicalLine is one Python logical line with comments removed. Physical
// lines joined by open brackets or triple-quoted strings keep their "\n".
type logicalLine struct {
	line   int
	indent int
	text   string
}

const tabWidth = 8

// normalizeNewlines maps "\r\n" and lone "\r" to "\n", as Python's universal
// newline mode does when reading source.
func normalizeNewlines(src []byte) []byte {
	if bytes.IndexByte(src, '\r') < 0 {
		return src
	}
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(src, []byte("\r"), []byte("\n"))
}

func logicalLines(src []byte) ([]logicalLine, error) {
	src = normalizeNewlines(src)
	var (
		out  []logicalLine
		line = 1
		i    = 0
		n    = len(src)
	)
	for i < n {
		indent, j := measureIndent(src, i)
		if j >= n {
			break
		}
		if c := src[j]; c == '\n' || c == '#' {
			for j < n && src[j] != '\n' {
				j++
			}
			i = j + 1
			line++
			continue
		}

		start := line
		var buf strings.Builder
		depth := 0
		k := j
	scan:
		for k < n {
			c := src[k]
			switch {
			case c == '#':
				for k < n && src[k] != '\n' {
					k++
				}
			case c == '"' || c == '\'':
				end, newlines, ok := scanString(src, k)
				if !ok {
					return nil, &SyntaxError{Line: line, Msg: "unterminated triple-quoted string"}
				}
				buf.Write(src[k:end])
				line += newlines
				k = end
			case c == '\\' && k+1 < n && src[k+1] == '\n':
				buf.WriteByte(' ')
				line++
				k += 2
			case c == '(' || c == '[' || c == '{':
				depth++
				buf.WriteByte(c)
				k++
			case c == ')' || c == ']' || c == '}':
				if depth > 0 {
					depth--
				}
				buf.WriteByte(c)
				k++
			case c == '\n':
				line++
				k++
				if depth == 0 {
					break scan
				}
				buf.WriteByte('\n')
			default:
				buf.WriteByte(c)
				k++
			}
		}
		if depth > 0 {
			return nil, &SyntaxError{Line: start, Msg: "unclosed bracket"}
		}
		out = append(out, logicalLine{
			line:   start,
			indent: indent,
			text:   strings.TrimRight(buf.String(), " \t\n"),
		})
		i = k
	}
	return out, nil
}

func measureIndent(src []byte, i int) (int, int) {
	col := 0
	for i < len(src) {
		switch src[i] {
		case ' ':
			col++
		case '\t':
			col = (col/tabWidth + 1) * tabWidth
		case '\f':
			col = 0
		default:
			return col, i
		}
		i++
	}
	return col, i
}

// scanString returns the end offset of the string literal whose opening
// quote is at src[q], and how many newlines it spans. Single-quoted strings
// end at the newline when unterminated; triple-quoted strings must close.
func scanString(src []byte, q int) (end, newlines int, ok bool) {
	quote := src[q]
	n := len(src)
	if q+2 < n && src[q+1] == quote && src[q+2] == quote {
		k := q + 3
		for k < n {
			switch {
			case src[k] == '\\':
				if k+1 < n && src[k+1] == '\n' {
					newlines++
				}
				k += 2
				continue
			case src[k] == '\n':
				newlines++
			case src[k] == quote && k+2 < n && src[k+1] == quote && src[k+2] == quote:
				return k + 3, newlines, true
			}
			k++
		}
		return n, newlines, false
	}
	k := q + 1
	for k < n {
		switch src[k] {
		case '\\':
			if k+1 < n && src[k+1] == '\n' {
				newlines++
			}
			k += 2
			continue
		case '\n':
			return k, newlines, true
		case quote:
			return k + 1, newlines, true
		}
		k++
	}
	return n, newlines, true
}

// indexTopLevel finds the first sep in s outside brackets and string
// literals, or -1.
func indexTopLevel(s string, sep byte) int {
	depth := 0
	for k := 0; k < len(s); k++ {
		c := s[k]
		switch {
		case c == '"' || c == '\'':
			end, _, _ := scanString([]byte(s), k)
			k = end - 1
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			return k
		}
	}
	return -1
}

// splitTopLevel splits s on sep outside brackets and string literals.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	for {
		idx := indexTopLevel(s, sep)
		if idx < 0 {
			return append(parts, s)
		}
		parts = append(parts, s[:idx])
		s = s[idx+1:]
	}
}

// matchBracket returns the index of the bracket closing the one at s[open].
func matchBracket(s string, open int) int {
	depth := 0
	for k := open; k < len(s); k++ {
		c := s[k]
		switch {
		case c == '"' || c == '\'':
			end, _, _ := scanString([]byte(s), k)
			k = end - 1
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}
