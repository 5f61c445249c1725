package docstring

import "strings"

// Segment splits text into blank-line delimited blocks.
//
// The blank line that closes a block is kept as the first line of the next
// block, so joining the result with "\n" reproduces text whenever text does
// not begin with a blank line. The final block is always emitted.
func Segment(text string) []string {
	blocks, current := segment(text)
	if current != nil {
		blocks = append(blocks, strings.Join(current, "\n"))
	}
	return blocks
}

// SegmentLegacy behaves like Segment but never emits the block that follows
// the last blank line. A docstring without a trailing blank line therefore
// loses its final block. Older releases segmented this way.
func SegmentLegacy(text string) []string {
	blocks, _ := segment(text)
	return blocks
}

func segment(text string) ([]string, []string) {
	if text == "" {
		return nil, nil
	}
	var (
		blocks  []string
		current []string
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, line)
	}
	return blocks, current
}
