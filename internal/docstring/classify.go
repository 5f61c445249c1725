package docstring

import "strings"

const (
	argsLabel    = "Args:"
	returnsLabel = "Returns:"
)

// Classify builds a Docstring from blocks produced by a Segmenter.
func Classify(blocks []string) *Docstring {
	doc := &Docstring{}
	for i, block := range blocks {
		if i == 0 {
			doc.Summary = block
			continue
		}
		lines := contentLines(block)
		if len(lines) == 0 {
			continue
		}
		switch lines[0] {
		case argsLabel:
			doc.Args = ParseEntries(lines[1:])
		case returnsLabel:
			doc.Returns = ParseEntries(lines[1:])
		default:
			doc.Body = block
		}
	}
	return doc
}

func contentLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ParseEntries turns section lines into entries, one per line, in order.
//
// The name is the first word before the first colon, so "x (int): the value"
// yields name "x" and description "(int): the value". A line without a colon
// yields an empty description.
func ParseEntries(lines []string) []Entry {
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, parseEntry(strings.TrimSpace(line)))
	}
	return entries
}

func parseEntry(line string) Entry {
	head, _, hasColon := strings.Cut(line, ":")
	name := head
	if fields := strings.Fields(head); len(fields) > 0 {
		name = fields[0]
	}
	if !hasColon {
		return Entry{Name: name}
	}
	rest := strings.TrimSpace(line[len(name):])
	rest = strings.TrimPrefix(rest, ":")
	return Entry{Name: name, Description: strings.TrimSpace(rest)}
}
