package camel

import (
	"regexp"
)

var reDivision = regexp.MustCompile(`\\(chapter|section|subsection)(\*?)`)

// divisionLevel is the depth of each division below the book.
var divisionLevel = map[string]int{
	"book":       0,
	"chapter":    1,
	"section":    2,
	"subsection": 3,
}

// A heading is a division command found in the text.
type heading struct {
	name    string
	starred bool
	title   string

	// start is where the command begins and end is just after the title
	start, end int
}

// findHeadings returns the division commands in src.Text[start:end] that are not
// inside an environment, in document order.
// Slicing the span first also checks that its environments are well formed.
func (p *Parser) findHeadings(start, end int) ([]heading, error) {
	slices, err := sliceBlocks(p.src, start, end)
	if err != nil {
		return nil, err
	}

	text := p.src.Text
	var headings []heading
	for _, s := range slices {
		if s.Kind != TexSlice {
			continue
		}
		span := text[:s.End]
		for _, m := range reDivision.FindAllStringSubmatchIndex(text[s.Start:s.End], -1) {
			mStart, mEnd := s.Start+m[0], s.Start+m[1]
			if escapedAt(text, mStart) || mEnd < len(span) && isLetter(span[mEnd]) {
				continue
			}
			h := heading{
				name:    text[s.Start+m[2] : s.Start+m[3]],
				starred: m[5] > m[4],
				start:   mStart,
			}

			// The short title for the table of contents is not used
			i := mEnd
			if _, next, ok := readOptional(span, i); ok {
				i = next
			}
			title, next, ok := readGroup(span, skipBlanks(span, i))
			if !ok {
				p.log.Debugw("division command without title, kept as text", "division", h.name, "offset", mStart)
				continue
			}
			h.title = title
			h.end = next
			headings = append(headings, h)
		}
	}
	return headings, nil
}

// splitDivisions builds the chapter, section and subsection nesting of the body under root.
//
// The text before each heading belongs to the division open at that point.
// A heading closes every open division of the same or deeper level, so a section
// closes the current subsection and section but not the chapter.
func (p *Parser) splitDivisions(root *Node, start, end int) error {
	headings, err := p.findHeadings(start, end)
	if err != nil {
		return err
	}

	stack := []*Node{root}
	top := func() *Node { return stack[len(stack)-1] }

	// closeTop pops the top division and appends it to its parent
	closeTop := func() {
		div := top()
		stack = stack[:len(stack)-1]
		top().AppendChild(div)
	}

	last := start
	for _, h := range headings {

		// Free floating content before the heading
		if err := p.appendBlocks(top(), last, h.start); err != nil {
			return err
		}

		level := divisionLevel[h.name]
		for len(stack) > 1 && divisionLevel[top().Type] >= level {
			closeTop()
		}

		div := p.newNode(h.name, h.start)
		if !h.starred {
			p.number(div)
		}
		title, err := p.transliterate(div, h.start, h.title)
		if err != nil {
			return err
		}
		div.Title = title

		p.log.Debugw("division", "type", div.Type, "number", div.NumberString(), "title", div.Title)

		stack = append(stack, div)
		last = h.end
	}

	// The tail after the last heading
	if err := p.appendBlocks(top(), last, end); err != nil {
		return err
	}
	for len(stack) > 1 {
		closeTop()
	}

	return nil
}

// appendBlocks builds the nodes of src.Text[start:end] and appends them to parent.
func (p *Parser) appendBlocks(parent *Node, start, end int) error {
	if start >= end {
		return nil
	}
	nodes, err := p.buildBlocks(parent, start, end)
	if err != nil {
		return err
	}
	parent.AppendChildren(nodes)
	return nil
}
