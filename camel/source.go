package camel

import (
	"sort"
	"strings"
)

// Source is the text of a document after file inclusion and normalization.
// It remembers which file each piece of text came from, so that offsets in Text
// can be reported as file:line:column.
type Source struct {
	Text  string
	spans []span
}

// A span is a run of Text copied from a single file.
type span struct {
	start int
	file  string
	line  int
	col   int
}

// Position maps an offset in Text to the file, line and column it came from.
func (s *Source) Position(offset int) (file string, line int, col int) {
	if len(s.spans) == 0 {
		return "", 0, 0
	}
	if offset > len(s.Text) {
		offset = len(s.Text)
	}

	// The last span starting at or before the offset
	i := sort.Search(len(s.spans), func(i int) bool { return s.spans[i].start > offset }) - 1
	if i < 0 {
		i = 0
	}
	sp := s.spans[i]

	piece := s.Text[sp.start:offset]
	newlines := strings.Count(piece, "\n")
	if newlines == 0 {
		return sp.file, sp.line, sp.col + len(piece)
	}
	return sp.file, sp.line + newlines, len(piece) - strings.LastIndexByte(piece, '\n')
}

// errorAt builds a positional error for an offset in the source text.
func (s *Source) errorAt(offset int, kind error, msg string) *SyntaxError {
	file, line, col := s.Position(offset)
	return &SyntaxError{Filename: file, Line: line, Column: col, Msg: msg, Err: kind}
}

// sourceBuilder accumulates text and spans while files are being included.
type sourceBuilder struct {
	sb    strings.Builder
	spans []span
}

// write appends text that starts at the given line and column of file.
func (b *sourceBuilder) write(file string, line int, col int, text string) {
	if len(text) == 0 {
		return
	}
	b.spans = append(b.spans, span{start: b.sb.Len(), file: file, line: line, col: col})
	b.sb.WriteString(text)
}

func (b *sourceBuilder) source() *Source {
	return &Source{Text: b.sb.String(), spans: b.spans}
}

// lineCol returns the 1-based line and column of offset in text.
func lineCol(text string, offset int) (int, int) {
	before := text[:offset]
	line := strings.Count(before, "\n") + 1
	return line, offset - strings.LastIndexByte(before, '\n')
}
