package camel

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	reCaption        = regexp.MustCompile(`\\caption\s*(?:\[[^\]]*\])?\s*\{`)
	reIncludeGraphic = regexp.MustCompile(`\\includegraphics\s*(?:\[[^\]]*\])?\s*\{([^}]*)\}`)
	reRef            = regexp.MustCompile(`\\ref\s*\{([^}]*)\}`)
)

// buildBlocks slices src.Text[start:end] and builds the nodes of each slice, in order.
// Labels found in plain text are declared on owner.
func (p *Parser) buildBlocks(owner *Node, start, end int) ([]*Node, error) {
	slices, err := sliceBlocks(p.src, start, end)
	if err != nil {
		return nil, err
	}

	var nodes []*Node
	for _, s := range slices {
		built, err := p.buildSlice(owner, s)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, built...)
	}
	return nodes, nil
}

// buildSlice dispatches a slice by its environment name.
// It may return no nodes, for example for a slice with only blanks.
func (p *Parser) buildSlice(owner *Node, s Slice) ([]*Node, error) {
	text := p.src.Text

	switch {
	case s.Kind == TexSlice:
		return p.textNodes(owner, s.Start, s.Content(text))

	case isMath(s.Kind):
		// Display math goes to the client untouched, delimiters included
		n := p.newNode("math", s.OuterStart)
		n.Content = strings.TrimSpace(s.Outer(text))

		// The labels of equations point to the math node
		if err := p.declareLabels(n, s.OuterStart, s.Outer(text)); err != nil {
			return nil, err
		}
		return []*Node{n}, nil

	case opaqueEnvironments[s.Kind]:
		n, err := p.buildCode(s)
		if err != nil {
			return nil, err
		}
		return []*Node{n}, nil

	case isTabular(s.Kind):
		n, err := p.buildTabular(owner, s)
		if err != nil {
			return nil, err
		}
		return []*Node{n}, nil
	}

	kind, ok := KindOf(s.Kind)
	if !ok || kind.Class == DivisionClass || kind.Class == ItemClass {
		// Unknown environments degrade to text
		p.log.Debugw("unknown environment treated as text", "environment", s.Kind, "offset", s.OuterStart)
		return p.textNodes(owner, s.Start, s.Content(text))
	}

	var n *Node
	var err error
	switch kind.Class {
	case ListClass:
		n, err = p.buildList(s, kind)
	case FloatClass:
		n, err = p.buildFloat(s)
	default:
		// Theorems, exercises and boxes just contain blocks
		n = p.newNode(s.Kind, s.OuterStart)
		p.number(n)
		if n.Title, err = p.transliterate(n, s.OuterStart, s.Title); err != nil {
			return nil, err
		}
		var children []*Node
		children, err = p.buildBlocks(n, s.Start, s.End)
		n.AppendChildren(children)
	}
	if err != nil {
		return nil, err
	}
	return []*Node{n}, nil
}

// buildFloat builds a figure or a table.
// The caption is the title of the float. A figure is a single image, while the
// content of a table, without the caption, is built as blocks.
func (p *Parser) buildFloat(s Slice) (*Node, error) {
	text := p.src.Text
	n := p.newNode(s.Kind, s.OuterStart)
	p.number(n)

	content := s.Content(text)
	captionStart, captionEnd, caption := findCaption(content)
	if captionStart >= 0 {
		title, err := p.transliterate(n, s.Start+captionStart, caption)
		if err != nil {
			return nil, err
		}
		n.Title = title
	}

	if s.Kind == "figure" {
		if m := reIncludeGraphic.FindStringSubmatch(content); m != nil {
			n.Src = strings.TrimSpace(m[1])
		}
		// Only the labels matter in the rest of a figure
		rest := []struct{ start, end int }{{0, len(content)}}
		if captionStart >= 0 {
			rest = []struct{ start, end int }{{0, captionStart}, {captionEnd, len(content)}}
		}
		for _, r := range rest {
			if err := p.declareLabels(n, s.Start+r.start, content[r.start:r.end]); err != nil {
				return nil, err
			}
		}
		return n, nil
	}

	// A table without the caption
	var children []*Node
	var err error
	if captionStart < 0 {
		children, err = p.buildBlocks(n, s.Start, s.End)
	} else {
		var before, after []*Node
		before, err = p.buildBlocks(n, s.Start, s.Start+captionStart)
		if err == nil {
			after, err = p.buildBlocks(n, s.Start+captionEnd, s.End)
		}
		children = append(before, after...)
	}
	if err != nil {
		return nil, err
	}
	n.AppendChildren(children)
	return n, nil
}

// findCaption locates the first \caption in content, returning its span and its argument.
// The start is -1 when there is none.
func findCaption(content string) (start int, end int, caption string) {
	loc := reCaption.FindStringIndex(content)
	if loc == nil {
		return -1, -1, ""
	}
	caption, end, ok := readGroup(content, loc[1]-1)
	if !ok {
		return -1, -1, ""
	}
	return loc[0], end, caption
}

// textNodes transliterates raw text and splits the result around \ref commands,
// so each reference is a node of its own.
// Text with only blanks produces no nodes.
func (p *Parser) textNodes(owner *Node, offset int, raw string) ([]*Node, error) {
	content, err := p.transliterate(owner, offset, raw)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, nil
	}
	return p.splitReferences(offset, content), nil
}

// inlineTags are the elements of the transliterated text that can enclose a reference.
var inlineTags = []string{"b", "i", "u", "code"}

func isInlineTag(name string) bool {
	for _, t := range inlineTags {
		if t == name {
			return true
		}
	}
	return false
}

// splitReferences breaks transliterated text into alternating text and reference nodes.
// Blank fragments at the ends are dropped, the ones between references are kept as spacing.
// Inline elements open across a reference are closed before it and opened again after it,
// so the content of every text node is balanced HTML.
func (p *Parser) splitReferences(offset int, content string) []*Node {
	matches := reRef.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		n := p.newNode("tex", offset)
		n.Content = content
		return []*Node{n}
	}

	var nodes []*Node
	var open []string
	addText := func(fragment string, edge bool) {
		if edge {
			fragment = strings.TrimSpace(fragment)
		}
		reopen := openingTags(open)
		open = trackInlineTags(open, fragment)
		fragment = dropEmptyElements(reopen + fragment + closingTags(open))
		if edge {
			fragment = strings.TrimSpace(fragment)
		}
		if fragment == "" {
			return
		}
		n := p.newNode("tex", offset)
		n.Content = fragment
		nodes = append(nodes, n)
	}

	last := 0
	for i, m := range matches {
		addText(content[last:m[0]], i == 0)
		ref := p.newNode("ref", offset)
		ref.Class = ReferenceClass
		ref.Target = strings.TrimSpace(content[m[2]:m[3]])
		nodes = append(nodes, ref)
		last = m[1]
	}
	addText(content[last:], true)

	return nodes
}

// trackInlineTags returns the stack of inline elements still open after fragment,
// starting from the ones open before it.
func trackInlineTags(open []string, fragment string) []string {
	stack := append([]string(nil), open...)
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return stack
		case html.StartTagToken:
			name, _ := z.TagName()
			if isInlineTag(string(name)) {
				stack = append(stack, string(name))
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if n := len(stack); n > 0 && stack[n-1] == string(name) {
				stack = stack[:n-1]
			}
		}
	}
}

func openingTags(open []string) string {
	var sb strings.Builder
	for _, t := range open {
		sb.WriteString("<" + t + ">")
	}
	return sb.String()
}

func closingTags(open []string) string {
	var sb strings.Builder
	for i := len(open) - 1; i >= 0; i-- {
		sb.WriteString("</" + open[i] + ">")
	}
	return sb.String()
}

// dropEmptyElements removes the inline elements left without content by a split.
func dropEmptyElements(s string) string {
	for {
		before := s
		for _, t := range inlineTags {
			s = strings.ReplaceAll(s, "<"+t+"></"+t+">", "")
		}
		if s == before {
			return s
		}
	}
}
