package camel

import (
	"regexp"
)

// readGroup reads a brace-delimited group starting at text[i], which must be '{'.
// Nested groups are balanced and escaped braces are ignored.
// It returns the text inside the braces and the offset just after the closing brace.
func readGroup(text string, i int) (string, int, bool) {
	if i >= len(text) || text[i] != '{' {
		return "", i, false
	}
	depth := 0
	for j := i; j < len(text); j++ {
		switch text[j] {
		case '\\':
			// Skip the escaped character, like \{ or \}
			j++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[i+1 : j], j + 1, true
			}
		}
	}
	return "", i, false
}

// escapedAt reports whether the character at i is preceded by an odd number of backslashes.
func escapedAt(text string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// readOptional reads a bracket-delimited optional argument starting at text[i]
// after skipping blanks. When there is none, it returns ok false and i unchanged.
func readOptional(text string, i int) (string, int, bool) {
	j := skipBlanks(text, i)
	if j >= len(text) || text[j] != '[' {
		return "", i, false
	}
	depth := 0
	for k := j; k < len(text); k++ {
		switch text[k] {
		case '{':
			depth++
		case '}':
			depth--
		case ']':
			if depth == 0 {
				return text[j+1 : k], k + 1, true
			}
		}
	}
	return "", i, false
}

// skipBlanks returns the offset of the first character at or after i that is not a space or tab.
// Newlines are also skipped, but not a blank line, which ends a paragraph in LaTeX.
func skipBlanks(text string, i int) int {
	newlines := 0
	for i < len(text) {
		switch text[i] {
		case ' ', '\t', '\r':
		case '\n':
			newlines++
			if newlines > 1 {
				return i
			}
		default:
			return i
		}
		i++
	}
	return i
}

// A command is a LaTeX control word, like \title.
type command struct {
	name string
	re   *regexp.Regexp
}

// newCommand returns a command that does not match longer names,
// so \title does not match \titlepage.
func newCommand(name string) command {
	return command{
		name: name,
		re:   regexp.MustCompile(`\\` + regexp.QuoteMeta(name) + `(?:[^a-zA-Z@]|$)`),
	}
}

// find returns the offset of the first occurrence of the command at or after from,
// and the offset just after its name. It returns -1 when there is none.
func (c command) find(text string, from int) (int, int) {
	loc := c.re.FindStringIndex(text[from:])
	if loc == nil {
		return -1, -1
	}
	start := from + loc[0]
	return start, start + 1 + len(c.name)
}

// arg returns the brace-balanced mandatory argument of the first occurrence of
// the command, plus the offset where the command starts.
func (c command) arg(text string) (arg string, offset int, ok bool) {
	start, end := c.find(text, 0)
	if start < 0 {
		return "", -1, false
	}
	arg, _, ok = readGroup(text, skipBlanks(text, end))
	return arg, start, ok
}
