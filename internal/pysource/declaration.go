// Package pysource locates function and class declarations in Python source
// and exposes them as Declaration records.
package pysource

import "strings"

// Kind distinguishes functions from classes.
type Kind int

const (
	Function Kind = iota
	Class
)

func (k Kind) String() string {
	switch k {
	case Function:
		return "function"
	case Class:
		return "class"
	default:
		return "unknown"
	}
}

// VariadicKind marks *args and **kwargs parameters.
type VariadicKind int

const (
	NotVariadic VariadicKind = iota
	VariadicPositional
	VariadicKeyword
)

// Parameter is one formal parameter of a function.
type Parameter struct {
	Name          string
	Annotation    string
	HasAnnotation bool
	// Default is reserved for the parameter's default value. The extractor
	// does not populate it.
	Default  string
	Variadic VariadicKind
}

// Declaration is a function or class definition site.
type Declaration struct {
	Name string
	Kind Kind
	// Parent is the enclosing class, or nil at module level. It points into
	// the same Module that holds this declaration.
	Parent *Declaration
	// Docstring is nil when the declaration has no docstring.
	Docstring *string
	Params    []Parameter
	Returns   string
	Line      int
	// BodyLen counts the logical statements directly inside the body,
	// including the docstring.
	BodyLen int
	Members []*Declaration
}

// IsPublic reports whether the name does not start with an underscore.
func (d *Declaration) IsPublic() bool {
	return !strings.HasPrefix(d.Name, "_")
}

// HasDocstring reports whether a docstring is present, even if empty.
func (d *Declaration) HasDocstring() bool {
	return d.Docstring != nil
}

// DocText returns the docstring or "" when absent.
func (d *Declaration) DocText() string {
	if d.Docstring == nil {
		return ""
	}
	return *d.Docstring
}

// QualifiedName joins the enclosing class names and the declaration name
// with dots.
func (d *Declaration) QualifiedName() string {
	parts := []string{d.Name}
	for p := d.Parent; p != nil; p = p.Parent {
		parts = append(parts, p.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// Module is the result of extracting one source file.
type Module struct {
	Doc          *string
	Declarations []*Declaration
}

// Flatten lists the module's declarations in lexical order, each class
// followed by its members.
func (m *Module) Flatten() []*Declaration {
	return Flatten(m.Declarations)
}

// Flatten walks decls and their class members depth-first in lexical order
// using an explicit stack.
func Flatten(decls []*Declaration) []*Declaration {
	var out []*Declaration
	stack := make([]*Declaration, 0, len(decls))
	for i := len(decls) - 1; i >= 0; i-- {
		stack = append(stack, decls[i])
	}
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, d)
		for i := len(d.Members) - 1; i >= 0; i-- {
			stack = append(stack, d.Members[i])
		}
	}
	return out
}
