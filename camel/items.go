package camel

import (
	"regexp"
	"strings"
)

// reItemToken matches the tokens that matter when splitting a list:
// environment delimiters and control words.
var reItemToken = regexp.MustCompile(`\\(begin|end)\s*\{([^}]*)\}|\\([a-zA-Z]+)`)

// An itemSegment is the span of one item in the content of a list.
type itemSegment struct {
	// offset of the item command
	offset int

	// the content of the item, after the command and its optional label
	start, end int

	label   string
	correct bool
}

// isItemCommand reports whether the control word starts an item of a list
// whose items are called name. Choices can also be marked as correct.
func isItemCommand(word, name string) (ok bool, correct bool) {
	if word == name {
		return true, false
	}
	if name == "choice" && word == "correctchoice" {
		return true, true
	}
	return false, false
}

// splitItems finds the item commands in src.Text[start:end] that belong to the list
// itself, skipping the ones inside nested environments.
// The text before the first item is returned as lead, a span that may be empty.
func (p *Parser) splitItems(start, end int, name string) (lead [2]int, items []itemSegment) {
	text := p.src.Text
	lead = [2]int{start, end}

	depth := 0
	var opaque string
	var opaqueDepth int

	var current *itemSegment
	for _, m := range reItemToken.FindAllStringSubmatchIndex(text[start:end], -1) {
		mStart, mEnd := start+m[0], start+m[1]
		if escapedAt(text, mStart) {
			continue
		}

		// Environment delimiters, which are well formed as the list was already sliced
		if m[2] >= 0 {
			isBegin := text[start+m[2]:start+m[3]] == "begin"
			env := strings.TrimSpace(text[start+m[4] : start+m[5]])
			switch {
			case opaque != "":
				if env == opaque {
					if isBegin {
						opaqueDepth++
					} else {
						opaqueDepth--
					}
					if opaqueDepth == 0 {
						opaque = ""
						depth--
					}
				}
			case isBegin:
				depth++
				if opaqueEnvironments[env] {
					opaque, opaqueDepth = env, 1
				}
			default:
				depth--
			}
			continue
		}

		if depth > 0 || opaque != "" {
			continue
		}
		ok, correct := isItemCommand(text[start+m[6]:start+m[7]], name)
		if !ok {
			continue
		}

		// A new item ends the previous one, or the lead text
		if current != nil {
			current.end = mStart
			items = append(items, *current)
		} else {
			lead[1] = mStart
		}

		current = &itemSegment{offset: mStart, start: mEnd, end: end, correct: correct}
		if label, next, ok := readOptional(text[:end], mEnd); ok {
			current.label = label
			current.start = next
		}
	}

	if current != nil {
		items = append(items, *current)
	}
	return lead, items
}

// buildList builds a list and its items.
// Each item is numbered with the number of the list plus its position in the list.
func (p *Parser) buildList(s Slice, kind Kind) (*Node, error) {
	list := p.newNode(s.Kind, s.OuterStart)
	p.number(list)
	title, err := p.transliterate(list, s.OuterStart, s.Title)
	if err != nil {
		return nil, err
	}
	list.Title = title

	itemKind := kinds[kind.Item]

	// Exercise items keep counting across lists, as questions, parts and
	// choices are restarted by their parent item. Other items start again
	// in every list and an enclosing list of the same kind resumes afterwards.
	scoped := isExerciseItem(itemKind.Counter)
	if !scoped {
		restore := p.counters.Enter(itemKind.Counter)
		defer restore()
	}

	lead, segments := p.splitItems(s.Start, s.End, kind.Item)

	// Text before the first item, which is normally just blanks
	leading, err := p.textNodes(list, lead[0], p.src.Text[lead[0]:lead[1]])
	if err != nil {
		return nil, err
	}
	list.AppendChildren(leading)

	for _, seg := range segments {
		item := p.newNode(kind.Item, seg.offset)
		ordinal := p.counters.Step(itemKind.Counter)
		if scoped {
			item.Number = p.counters.numberOf(itemKind.Counter)
		} else {
			item.Number = append(append([]int(nil), list.Number...), ordinal)
		}
		item.IsCorrectChoice = seg.correct
		if seg.label != "" {
			title, err := p.transliterate(item, seg.offset, seg.label)
			if err != nil {
				return nil, err
			}
			item.Title = title
		}

		children, err := p.buildBlocks(item, seg.start, seg.end)
		if err != nil {
			return nil, err
		}
		item.AppendChildren(children)
		list.AppendChild(item)
	}

	p.log.Debugw("list", "type", list.Type, "number", list.NumberString(), "items", len(segments))

	return list, nil
}
