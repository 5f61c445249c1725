package pysource

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	defPattern   = regexp.MustCompile(`^(?:async\s+)?def\s+([\p{L}_][\p{L}\p{N}_]*)\s*`)
	classPattern = regexp.MustCompile(`^class\s+([\p{L}_][\p{L}\p{N}_]*)\s*`)
)

type frame struct {
	indent int
	// decl is set only for recorded declarations; blocks whose members are
	// not extracted (function bodies, if/for/with/try) leave it nil.
	decl        *Declaration
	awaitingDoc bool
}

// Extract scans Python source and returns the module docstring and the
// declarations found at module level and, recursively, directly inside class
// bodies. Definitions inside function bodies or other compound statements are
// skipped.
func Extract(src []byte) (*Module, error) {
	lines, err := logicalLines(src)
	if err != nil {
		return nil, err
	}
	mod := &Module{}
	var stack []*frame
	for idx, ll := range lines {
		for len(stack) > 0 && stack[len(stack)-1].indent >= ll.indent {
			stack = stack[:len(stack)-1]
		}
		var top *frame
		if len(stack) > 0 {
			top = stack[len(stack)-1]
		}

		if idx == 0 && top == nil {
			if doc, ok := docstringLiteral(ll.text); ok {
				mod.Doc = &doc
			}
		}
		if top != nil && top.decl != nil {
			if top.awaitingDoc {
				if doc, ok := docstringLiteral(ll.text); ok {
					top.decl.Docstring = &doc
				}
				top.awaitingDoc = false
			}
		}
		if strings.HasPrefix(ll.text, "@") {
			continue
		}
		if top != nil && top.decl != nil {
			top.decl.BodyLen++
		}

		decl, inline, err := parseHeader(ll)
		if err != nil {
			return nil, err
		}
		if decl == nil {
			if strings.HasSuffix(ll.text, ":") {
				stack = append(stack, &frame{indent: ll.indent})
			}
			continue
		}

		f := &frame{indent: ll.indent}
		switch {
		case top == nil:
			mod.Declarations = append(mod.Declarations, decl)
			f.decl = decl
		case top.decl != nil && top.decl.Kind == Class:
			decl.Parent = top.decl
			top.decl.Members = append(top.decl.Members, decl)
			f.decl = decl
		}
		if f.decl != nil {
			f.awaitingDoc = true
			if inline != "" {
				decl.BodyLen = len(splitTopLevel(inline, ';'))
				if doc, ok := docstringLiteral(firstStatement(inline)); ok {
					decl.Docstring = &doc
				}
				f.awaitingDoc = false
			}
		}
		stack = append(stack, f)
	}
	return mod, nil
}

func firstStatement(inline string) string {
	return strings.TrimSpace(splitTopLevel(inline, ';')[0])
}

// parseHeader recognizes def and class statements. It returns a nil
// declaration for any other line, and the text following the header colon
// when the body is on the same line.
func parseHeader(ll logicalLine) (*Declaration, string, error) {
	if m := defPattern.FindStringSubmatchIndex(ll.text); m != nil {
		return parseDef(ll, ll.text[m[2]:m[3]], m[1])
	}
	if m := classPattern.FindStringSubmatchIndex(ll.text); m != nil {
		return parseClass(ll, ll.text[m[2]:m[3]], m[1])
	}
	return nil, "", nil
}

func parseDef(ll logicalLine, name string, pos int) (*Declaration, string, error) {
	text := ll.text
	pos = skipTypeParams(text, pos)
	if pos >= len(text) || text[pos] != '(' {
		return nil, "", &SyntaxError{Line: ll.line, Msg: fmt.Sprintf("def %s: missing parameter list", name)}
	}
	closeIdx := matchBracket(text, pos)
	if closeIdx < 0 {
		return nil, "", &SyntaxError{Line: ll.line, Msg: fmt.Sprintf("def %s: unterminated parameter list", name)}
	}
	decl := &Declaration{
		Name:   name,
		Kind:   Function,
		Line:   ll.line,
		Params: parseParams(text[pos+1 : closeIdx]),
	}
	rest := text[closeIdx+1:]
	colon := indexTopLevel(rest, ':')
	if colon < 0 {
		return nil, "", &SyntaxError{Line: ll.line, Msg: fmt.Sprintf("def %s: missing ':'", name)}
	}
	if ret := strings.TrimSpace(rest[:colon]); strings.HasPrefix(ret, "->") {
		decl.Returns = collapseSpace(strings.TrimPrefix(ret, "->"))
	}
	return decl, strings.TrimSpace(rest[colon+1:]), nil
}

func parseClass(ll logicalLine, name string, pos int) (*Declaration, string, error) {
	text := ll.text
	pos = skipTypeParams(text, pos)
	if pos < len(text) && text[pos] == '(' {
		closeIdx := matchBracket(text, pos)
		if closeIdx < 0 {
			return nil, "", &SyntaxError{Line: ll.line, Msg: fmt.Sprintf("class %s: unterminated base list", name)}
		}
		pos = closeIdx + 1
	}
	rest := strings.TrimLeft(text[pos:], " \t")
	if !strings.HasPrefix(rest, ":") {
		return nil, "", &SyntaxError{Line: ll.line, Msg: fmt.Sprintf("class %s: missing ':'", name)}
	}
	return &Declaration{Name: name, Kind: Class, Line: ll.line}, strings.TrimSpace(rest[1:]), nil
}

// skipTypeParams steps over a PEP 695 "[T]" list and surrounding blanks.
func skipTypeParams(text string, pos int) int {
	pos = skipBlank(text, pos)
	if pos < len(text) && text[pos] == '[' {
		if closeIdx := matchBracket(text, pos); closeIdx >= 0 {
			pos = skipBlank(text, closeIdx+1)
		}
	}
	return pos
}

func skipBlank(text string, pos int) int {
	for pos < len(text) && (text[pos] == ' ' || text[pos] == '\t' || text[pos] == '\n') {
		pos++
	}
	return pos
}

// parseParams reads a parameter list. Bare "*" and "/" separators are
// dropped and variadic parameters are moved to the end.
func parseParams(list string) []Parameter {
	var (
		params   []Parameter
		variadic []Parameter
	)
	for _, raw := range splitTopLevel(list, ',') {
		p := strings.TrimSpace(raw)
		if p == "" || p == "*" || p == "/" {
			continue
		}
		param := Parameter{}
		switch {
		case strings.HasPrefix(p, "**"):
			param.Variadic = VariadicKeyword
			p = p[2:]
		case strings.HasPrefix(p, "*"):
			param.Variadic = VariadicPositional
			p = p[1:]
		}
		if eq := indexTopLevel(p, '='); eq >= 0 {
			p = p[:eq]
		}
		if colon := indexTopLevel(p, ':'); colon >= 0 {
			param.Annotation = collapseSpace(p[colon+1:])
			param.HasAnnotation = true
			p = p[:colon]
		}
		param.Name = strings.TrimSpace(p)
		if param.Variadic == NotVariadic {
			params = append(params, param)
		} else {
			variadic = append(variadic, param)
		}
	}
	return append(params, variadic...)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
