package camel

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/hesusruiz/cameltex/sliceedit"
	"go.uber.org/zap"
)

// DefaultMaxInputDepth is the deepest \input nesting that is followed.
// The main file is at depth zero.
const DefaultMaxInputDepth = 4

var reInput = regexp.MustCompile(`\\input\{([^}]*)\}`)

// Loader reads a LaTeX file and recursively substitutes its \input commands.
// Every file is stripped of comments and normalized before being spliced in.
type Loader struct {
	MaxDepth int
	log      *zap.SugaredLogger

	// Warnings holds the non-fatal problems found, like truncated inclusions
	Warnings []*SyntaxError
}

// NewLoader returns a loader with the default depth ceiling.
func NewLoader(logger *zap.SugaredLogger) *Loader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Loader{
		MaxDepth: DefaultMaxInputDepth,
		log:      logger,
	}
}

// Load reads fileName and all the files it includes.
func (l *Loader) Load(fileName string) (*Source, error) {
	src, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}
	return l.LoadBytes(fileName, src)
}

// LoadBytes is like Load but the main file contents are given in memory.
// Included files are still resolved relative to the directory of fileName.
func (l *Loader) LoadBytes(fileName string, src []byte) (*Source, error) {
	b := &sourceBuilder{}
	if err := l.splice(b, fileName, src, 0); err != nil {
		return nil, err
	}
	return b.source(), nil
}

// splice writes the processed contents of one file into the builder,
// descending into the files it includes.
func (l *Loader) splice(b *sourceBuilder, fileName string, raw []byte, depth int) error {

	// Comments go first, so a commented out \input is never followed
	text := Normalize(string(StripComments(raw)))

	last := 0
	for _, m := range reInput.FindAllStringSubmatchIndex(text, -1) {

		// The text before the \input command
		line, col := lineCol(text, last)
		b.write(fileName, line, col, text[last:m[0]])
		last = m[1]

		// Names without extension refer to .tex files
		name := text[m[2]:m[3]]
		if filepath.Ext(name) == "" {
			name = name + ".tex"
		}
		includedName := filepath.Join(filepath.Dir(fileName), name)

		if depth+1 > l.MaxDepth {
			line, col := lineCol(text, m[0])
			se := &SyntaxError{
				Filename: fileName,
				Line:     line,
				Column:   col,
				Msg:      fmt.Sprintf("\\input{%s} nested deeper than %d, skipped", text[m[2]:m[3]], l.MaxDepth),
				Err:      ErrRecursionLimitExceeded,
			}
			l.Warnings = append(l.Warnings, se)
			l.log.Warnw("input recursion limit reached", "file", fileName, "line", line, "input", includedName)
			continue
		}

		l.log.Infow("including file", "file", includedName, "depth", depth+1)
		raw, err := os.ReadFile(includedName)
		if err != nil {
			line, col := lineCol(text, m[0])
			return &SyntaxError{
				Filename: fileName,
				Line:     line,
				Column:   col,
				Msg:      fmt.Sprintf("\\input{%s}", text[m[2]:m[3]]),
				Err:      fmt.Errorf("%w: %w", ErrMissingInput, err),
			}
		}
		if err := l.splice(b, includedName, raw, depth+1); err != nil {
			return err
		}
	}

	// The rest of the file after the last \input
	line, col := lineCol(text, last)
	b.write(fileName, line, col, text[last:])

	return nil
}

// StripComments removes %-comments up to the end of each line.
// An escaped \% is text, not a comment. Line breaks are kept, so line numbers do not change.
func StripComments(src []byte) []byte {
	buf := sliceedit.NewBuffer(src)

	for i := 0; i < len(src); i++ {
		if src[i] != '%' || isEscaped(src, i) {
			continue
		}

		// Delete up to, but not including, the end of line
		end := i
		for end < len(src) && src[end] != '\n' {
			end++
		}
		buf.Delete(i, end)
		i = end
	}

	if buf.Edits() == 0 {
		return src
	}
	return buf.Bytes()
}

// isEscaped reports whether the character at i is preceded by an odd number of backslashes.
func isEscaped(src []byte, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && src[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// Legacy shorthand macros and their canonical replacement.
// The whitespace after the macro is kept, so line numbers do not change.
var reShorthand = regexp.MustCompile(`\\(bit|eit|ben|een|it)(\s)`)

var shorthands = map[string]string{
	"bit": `\begin{itemize}`,
	"eit": `\end{itemize}`,
	"ben": `\begin{enumerate}`,
	"een": `\end{enumerate}`,
	"it":  `\item`,
}

// Normalize rewrites legacy shorthand macros into canonical environment syntax.
func Normalize(s string) string {
	buf := sliceedit.NewBuffer([]byte(s))
	buf.ReplaceAllRegexp(reShorthand, func(m []int) string {
		// A line break \\ followed by "it" is not a macro
		if isEscaped(buf.Source(), m[0]) {
			return buf.Group(m, 0)
		}
		return shorthands[buf.Group(m, 1)] + buf.Group(m, 2)
	})
	if buf.Edits() == 0 {
		return s
	}
	return buf.String()
}
