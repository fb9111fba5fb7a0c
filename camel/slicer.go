package camel

import (
	"fmt"
	"regexp"
	"strings"
)

// TexSlice is the kind of the slices holding plain text between environments.
const TexSlice = "tex"

// A Slice is a span of text that is either plain text or a top level environment.
//
// For environments, Content is the text between \begin{name} (and its optional title)
// and \end{name}, while Outer includes both delimiters.
// For text slices Content and Outer are the same span.
// Offsets are absolute in the text that was sliced.
type Slice struct {
	Kind  string
	Title string

	Start, End           int
	OuterStart, OuterEnd int
}

// Content returns the content of the slice in text.
func (s Slice) Content(text string) string {
	return text[s.Start:s.End]
}

// Outer returns the text of the slice including the environment delimiters.
func (s Slice) Outer(text string) string {
	return text[s.OuterStart:s.OuterEnd]
}

var reEnvironment = regexp.MustCompile(`\\(begin|end)\s*\{([^}]*)\}`)

// openEnv is an entry in the stack of open environments.
type openEnv struct {
	name   string
	offset int
}

// sliceBlocks partitions src.Text[start:end] into alternating text and top level
// environment slices. Nested environments are part of the content of their top level one.
//
// Opaque environments, like display math, suspend the slicing until their matching \end,
// so any \begin or \end inside them is not interpreted.
// An \end that does not match the innermost open environment, or an environment
// left open at the end of the span, is an ErrMismatchedEnvironment.
func sliceBlocks(src *Source, start, end int) ([]Slice, error) {
	text := src.Text
	var slices []Slice
	var stack []openEnv

	// The text slice being accumulated
	texStart := start

	// The name and nesting depth of the opaque environment being skipped, if any
	var opaque string
	var opaqueDepth int

	for _, m := range reEnvironment.FindAllStringSubmatchIndex(text[start:end], -1) {
		mStart, mEnd := start+m[0], start+m[1]
		if escapedAt(text, mStart) {
			continue
		}
		isBegin := text[start+m[2]:start+m[3]] == "begin"
		name := strings.TrimSpace(text[start+m[4] : start+m[5]])

		if opaque != "" {
			if name != opaque {
				continue
			}
			if isBegin {
				opaqueDepth++
				continue
			}
			opaqueDepth--
			if opaqueDepth > 0 {
				continue
			}
			opaque = ""
		}

		if isBegin {
			stack = append(stack, openEnv{name: name, offset: mStart})
			if opaqueEnvironments[name] {
				opaque, opaqueDepth = name, 1
			}
			if len(stack) > 1 {
				continue
			}

			// Entering a top level environment closes the current text slice
			if mStart > texStart {
				slices = append(slices, texSlice(texStart, mStart))
			}

			s := Slice{Kind: name, OuterStart: mStart, Start: mEnd}

			// An optional title, like \begin{theorem}[Zorn's lemma].
			// Math keeps its text as is.
			if !isMath(name) {
				if title, next, ok := readOptional(text[:end], mEnd); ok {
					s.Title = title
					s.Start = next
				}
			}
			slices = append(slices, s)
			continue
		}

		// This is an \end
		if len(stack) == 0 {
			return nil, src.errorAt(mStart, ErrMismatchedEnvironment, fmt.Sprintf(`\end{%s} without \begin{%s}`, name, name))
		}
		top := stack[len(stack)-1]
		if top.name != name {
			_, line, _ := src.Position(top.offset)
			return nil, src.errorAt(mStart, ErrMismatchedEnvironment, fmt.Sprintf(`\end{%s} does not match \begin{%s} at line %d`, name, top.name, line))
		}
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			continue
		}

		// Leaving a top level environment
		last := &slices[len(slices)-1]
		last.End = mStart
		last.OuterEnd = mEnd
		texStart = mEnd
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return nil, src.errorAt(top.offset, ErrMismatchedEnvironment, fmt.Sprintf(`\begin{%s} is never closed`, top.name))
	}

	if end > texStart {
		slices = append(slices, texSlice(texStart, end))
	}

	return slices, nil
}

func texSlice(start, end int) Slice {
	return Slice{Kind: TexSlice, Start: start, End: end, OuterStart: start, OuterEnd: end}
}

// SliceBlocks partitions text into alternating text and top level environment slices,
// with offsets relative to text.
func SliceBlocks(text string) ([]Slice, error) {
	return sliceBlocks(&Source{Text: text}, 0, len(text))
}
