package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Format selects the output encoding of a generated document.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "markdown", "md", and "html".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Extension is the file extension used for documents in this format.
func (f Format) Extension() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

// ContentType is the HTTP media type for documents in this format.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Encode returns md unchanged for Markdown and converts it otherwise.
func (f Format) Encode(md []byte) ([]byte, error) {
	if f == FormatHTML {
		return ToHTML(md)
	}
	return md, nil
}

// ToHTML converts Markdown to an HTML fragment.
func ToHTML(md []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(md, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// Signatures lists the bold signature lines of a rendered document in
// order, as plain text.
func Signatures(md []byte) []string {
	doc := goldmark.New().Parser().Parse(text.NewReader(md))
	var out []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		para, ok := n.(*ast.Paragraph)
		if !ok {
			continue
		}
		strong, ok := para.FirstChild().(*ast.Emphasis)
		if !ok || strong.Level != 2 {
			continue
		}
		var line strings.Builder
		for c := para.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				line.Write(t.Segment.Value(md))
				if t.SoftLineBreak() || t.HardLineBreak() {
					break
				}
				continue
			}
			line.WriteString(inlineText(c, md))
		}
		out = append(out, unescapePunct(line.String()))
	}
	return out
}

func unescapePunct(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte("\\*_`[]()#", s[i+1]) >= 0 {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			continue
		}
		b.WriteString(inlineText(c, src))
	}
	return b.String()
}
