// Package docstring parses Python docstrings written in the Args/Returns
// convention into a structured record.
//
// A docstring is split into blank-line separated blocks. The first block is
// the summary. A later block whose first non-blank line is exactly "Args:" or
// "Returns:" is a section holding one "name: description" entry per line. Any
// other block is the body; when several exist the last one wins.
package docstring

// Entry is one line of an Args or Returns section.
type Entry struct {
	Name        string
	Description string
}

// Docstring is the parsed form of a single docstring. Values are built fresh
// by Classify and are never shared between declarations.
type Docstring struct {
	Summary string
	Body    string
	Args    []Entry
	Returns []Entry
}

// Segmenter splits raw docstring text into blocks.
type Segmenter func(text string) []string

// Parse segments raw with Segment and classifies the blocks.
func Parse(raw string) *Docstring {
	return Classify(Segment(raw))
}

// ParseWith is Parse with a caller-chosen segmenter. A nil segmenter means
// Segment.
func ParseWith(seg Segmenter, raw string) *Docstring {
	if seg == nil {
		seg = Segment
	}
	return Classify(seg(raw))
}

// Text returns the body when present and the summary otherwise.
func (d *Docstring) Text() string {
	if d.Body != "" {
		return d.Body
	}
	return d.Summary
}
