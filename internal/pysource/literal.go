package pysource

import (
	"math"
	"strings"
)

// docstringLiteral reports whether text is a lone string expression usable
// as a docstring and returns its cleaned value. Adjacent literals are
// concatenated. Byte strings and f-strings never count.
func docstringLiteral(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	var value strings.Builder
	for text != "" {
		prefixLen := 0
		for prefixLen < len(text) && prefixLen < 3 && isLetter(text[prefixLen]) {
			prefixLen++
		}
		if prefixLen >= len(text) || (text[prefixLen] != '"' && text[prefixLen] != '\'') {
			return "", false
		}
		raw, ok := docPrefix(text[:prefixLen])
		if !ok {
			return "", false
		}
		q := prefixLen
		end, _, closed := scanString([]byte(text), q)
		if !closed {
			return "", false
		}
		quoteLen := 1
		if end-q >= 6 && strings.HasPrefix(text[q:], strings.Repeat(string(text[q]), 3)) {
			quoteLen = 3
		}
		if end-q < 2*quoteLen || text[end-1] != text[q] {
			return "", false
		}
		body := text[q+quoteLen : end-quoteLen]
		if !raw {
			body = unescape(body)
		}
		value.WriteString(body)
		text = strings.TrimLeft(text[end:], " \t\n")
		text = strings.TrimSuffix(text, ";")
		text = strings.TrimSpace(text)
	}
	return cleandoc(value.String()), true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func docPrefix(prefix string) (raw, ok bool) {
	switch strings.ToLower(prefix) {
	case "":
		return false, true
	case "u":
		return false, true
	case "r":
		return true, true
	default:
		return false, false
	}
}

var simpleEscapes = map[byte]string{
	'\\': `\`,
	'\'': `'`,
	'"':  `"`,
	'a':  "\a",
	'b':  "\b",
	'f':  "\f",
	'n':  "\n",
	'r':  "\r",
	't':  "\t",
	'v':  "\v",
	'\n': "",
}

// unescape handles the single-character escapes. Anything else, including
// numeric escapes, is kept verbatim.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		if rep, ok := simpleEscapes[s[i+1]]; ok {
			b.WriteString(rep)
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// cleandoc normalizes docstring indentation: tabs are expanded, the first
// line loses its leading whitespace, the common indentation of the
// remaining lines is removed, and leading and trailing empty lines are
// dropped.
func cleandoc(doc string) string {
	lines := strings.Split(expandTabs(doc), "\n")
	margin := math.MaxInt
	for _, line := range lines[1:] {
		content := strings.TrimLeft(line, " ")
		if content == "" {
			continue
		}
		if indent := len(line) - len(content); indent < margin {
			margin = indent
		}
	}
	lines[0] = strings.TrimLeft(lines[0], " ")
	if margin != math.MaxInt {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) > margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = strings.TrimLeft(lines[i], " ")
			}
		}
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			spaces := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", spaces))
			col += spaces
		case '\n', '\r':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
