package camel

import (
	"fmt"
	"regexp"
	"strings"
)

// Meta is the document metadata declared in the preamble.
type Meta struct {
	DocumentClass string
	ClassOptions  string

	ModuleCode   string
	AcademicYear string
	ModuleTitle  string
	BookTitle    string
	BookAuthor   string
	BookNumber   string
	BookVersion  string

	// NewCommands are the \newcommand definitions, verbatim, for the client math renderer
	NewCommands []string
}

var reDocumentClass = regexp.MustCompile(`\\documentclass\s*(?:\[([^\]]*)\])?\s*\{([^}]*)\}`)

var reNewCommand = regexp.MustCompile(`\\(?:re)?newcommand\*?`)

var (
	cmdModuleCode   = newCommand("modulecode")
	cmdAcademicYear = newCommand("academicyear")
	cmdModuleTitle  = newCommand("moduletitle")
	cmdTitle        = newCommand("title")
	cmdAuthor       = newCommand("author")
	cmdBookNumber   = newCommand("booknumber")
	cmdBookVersion  = newCommand("bookversion")
)

const (
	beginDocument = `\begin{document}`
	endDocument   = `\end{document}`
)

// SplitDocument returns the offsets of the preamble end and of the body in text.
// The preamble is text[:preambleEnd] and the body is text[bodyStart:bodyEnd].
// A missing \end{document} means the body runs to the end of the text.
func SplitDocument(text string) (preambleEnd, bodyStart, bodyEnd int, ok bool) {
	preambleEnd = strings.Index(text, beginDocument)
	if preambleEnd < 0 {
		return len(text), len(text), len(text), false
	}
	bodyStart = preambleEnd + len(beginDocument)
	bodyEnd = strings.LastIndex(text, endDocument)
	if bodyEnd < bodyStart {
		bodyEnd = len(text)
	}
	return preambleEnd, bodyStart, bodyEnd, true
}

// ParsePreamble extracts the metadata from src.Text[:preambleEnd], the text
// preceding \begin{document}.
func ParsePreamble(src *Source, preambleEnd int) (*Meta, error) {
	preamble := src.Text[:preambleEnd]
	meta := &Meta{}

	m := reDocumentClass.FindStringSubmatchIndex(preamble)
	if m == nil {
		return nil, src.errorAt(0, ErrInvalidDocumentClass, `no \documentclass declaration`)
	}
	meta.DocumentClass = strings.TrimSpace(preamble[m[4]:m[5]])
	if m[2] >= 0 {
		meta.ClassOptions = preamble[m[2]:m[3]]
	}
	if meta.DocumentClass != "camel" {
		return nil, src.errorAt(m[0], ErrInvalidDocumentClass, fmt.Sprintf("document class is %q, want \"camel\"", meta.DocumentClass))
	}

	// Required fields
	var ok bool
	if meta.ModuleCode, _, ok = cmdModuleCode.arg(preamble); !ok || strings.TrimSpace(meta.ModuleCode) == "" {
		return nil, src.errorAt(preambleEnd, ErrMissingRequiredField, `\modulecode`)
	}
	if meta.AcademicYear, _, ok = cmdAcademicYear.arg(preamble); !ok || strings.TrimSpace(meta.AcademicYear) == "" {
		return nil, src.errorAt(preambleEnd, ErrMissingRequiredField, `\academicyear`)
	}
	meta.ModuleCode = strings.TrimSpace(meta.ModuleCode)
	meta.AcademicYear = strings.TrimSpace(meta.AcademicYear)

	// The module code is the first segment of every materialized path
	if strings.ContainsAny(meta.ModuleCode, ". \t\n") {
		_, offset, _ := cmdModuleCode.arg(preamble)
		return nil, src.errorAt(offset, ErrInvalidField, fmt.Sprintf(`\modulecode{%s} can not contain dots or blanks`, meta.ModuleCode))
	}

	// Optional fields
	optional := []struct {
		cmd command
		dst *string
	}{
		{cmdModuleTitle, &meta.ModuleTitle},
		{cmdTitle, &meta.BookTitle},
		{cmdAuthor, &meta.BookAuthor},
		{cmdBookNumber, &meta.BookNumber},
		{cmdBookVersion, &meta.BookVersion},
	}
	for _, o := range optional {
		if arg, _, ok := o.cmd.arg(preamble); ok {
			*o.dst = strings.TrimSpace(arg)
		}
	}

	meta.NewCommands = newCommands(preamble)

	return meta, nil
}

// newCommands returns the macro definitions in text, like
// \newcommand{\prob}[1]{\mathbb{P}(#1)}, reading the body with balanced braces.
func newCommands(text string) []string {
	var defs []string
	end := 0
	for _, loc := range reNewCommand.FindAllStringIndex(text, -1) {
		// Skip longer names and definitions inside the body of a previous one
		if loc[1] < len(text) && isLetter(text[loc[1]]) || loc[0] < end {
			continue
		}
		if _, next, ok := readDefinition(text, loc[1]); ok {
			defs = append(defs, text[loc[0]:next])
			end = next
		}
	}
	return defs
}

// readDefinition reads the parts of a \newcommand after the command itself:
// the macro name, the optional argument count and default, and the body.
func readDefinition(text string, i int) (string, int, bool) {
	i = skipBlanks(text, i)
	if i >= len(text) {
		return "", i, false
	}

	// The name, either {\name} or \name
	switch {
	case text[i] == '{':
		_, next, ok := readGroup(text, i)
		if !ok {
			return "", i, false
		}
		i = next
	case text[i] == '\\':
		j := i + 1
		for j < len(text) && isLetter(text[j]) {
			j++
		}
		if j == i+1 {
			return "", i, false
		}
		i = j
	default:
		return "", i, false
	}

	// Up to two optional arguments: [nargs][default]
	for k := 0; k < 2; k++ {
		if _, next, ok := readOptional(text, i); ok {
			i = next
		}
	}

	body, next, ok := readGroup(text, skipBlanks(text, i))
	if !ok {
		return "", i, false
	}
	return body, next, true
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
