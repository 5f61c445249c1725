// Package render turns extracted declarations and their parsed docstrings
// into Markdown.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentflare-ai/gendoc/internal/docstring"
	"github.com/agentflare-ai/gendoc/internal/pysource"
)

// Options controls which declarations are rendered and how docstrings are
// segmented.
type Options struct {
	IncludePrivate bool
	// Segmenter defaults to docstring.Segment.
	Segmenter docstring.Segmenter
}

// Renderer writes Markdown fragments. It holds no per-declaration state and
// is safe for concurrent use.
type Renderer struct {
	opts Options
}

func New(opts Options) *Renderer {
	if opts.Segmenter == nil {
		opts.Segmenter = docstring.Segment
	}
	return &Renderer{opts: opts}
}

// Parse parses d's docstring with the configured segmenter.
func (r *Renderer) Parse(d *pysource.Declaration) *docstring.Docstring {
	return docstring.ParseWith(r.opts.Segmenter, d.DocText())
}

// Function writes the fragment for one function.
func (r *Renderer) Function(w io.Writer, d *pysource.Declaration, parsed *docstring.Docstring) {
	args := pysource.Reflect(d)
	names := make([]string, 0, len(args))
	for _, a := range args {
		names = append(names, "_"+escape(a.Name)+"_")
	}
	fmt.Fprintf(w, "**%s**(%s)\n", escape(d.Name), strings.Join(names, ", "))
	fmt.Fprintf(w, "%s\n", parsed.Text())
	writeEntries(w, "Parameters:", parsed.Args)
	writeEntries(w, "Return:", parsed.Returns)
	fmt.Fprint(w, "\n---\n\n")
}

// Render returns the fragment for one function as a string.
func (r *Renderer) Render(d *pysource.Declaration, parsed *docstring.Docstring) string {
	var b strings.Builder
	r.Function(&b, d, parsed)
	return b.String()
}

func writeEntries(w io.Writer, heading string, entries []docstring.Entry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", heading)
	for _, e := range entries {
		fmt.Fprintf(w, "\n`%s`: %s\n", e.Name, e.Description)
	}
}

// Class writes a heading and the raw docstring for a public class with a
// body and a docstring. It reports whether anything was written.
func (r *Renderer) Class(w io.Writer, d *pysource.Declaration) bool {
	if !d.IsPublic() || d.BodyLen == 0 || !d.HasDocstring() {
		return false
	}
	fmt.Fprintf(w, "# %s\n\n%s\n\n", escape(d.Name), d.DocText())
	return true
}

// Document writes the fragments for decls and all their class members in
// declaration order and returns how many fragments were written.
func (r *Renderer) Document(w io.Writer, decls []*pysource.Declaration) int {
	count := 0
	for _, d := range pysource.Flatten(decls) {
		switch d.Kind {
		case pysource.Function:
			if !d.IsPublic() && !r.opts.IncludePrivate {
				continue
			}
			r.Function(w, d, r.Parse(d))
			count++
		case pysource.Class:
			if r.Class(w, d) {
				count++
			}
		default:
			panic(fmt.Sprintf("render: unhandled declaration kind %v", d.Kind))
		}
	}
	return count
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
