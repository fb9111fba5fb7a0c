package camel

import (
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	hlhtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"
)

var reLanguage = regexp.MustCompile(`language\s*=\s*\{?([^,\]}]+)\}?`)

// buildCode converts a verbatim or lstlisting environment into a text node with
// the code highlighted as HTML.
// The lexer is taken from the language option of lstlisting, or guessed from the code.
func (p *Parser) buildCode(s Slice) (*Node, error) {
	n := p.newNode(s.Kind, s.OuterStart)
	code := strings.Trim(s.Content(p.src.Text), "\n")

	language := ""
	if m := reLanguage.FindStringSubmatch(s.Title); m != nil {
		language = strings.TrimSpace(m[1])
	}

	n.Content = p.highlight(language, code)
	return n, nil
}

// highlight renders code as HTML with the configured chroma style.
// When highlighting fails the code is escaped and returned as plain text.
func (p *Parser) highlight(language string, code string) string {

	// Determine lexer
	var l chroma.Lexer
	if language != "" {
		l = lexers.Get(language)
	}
	if l == nil {
		l = lexers.Analyse(code)
	}
	if l == nil {
		l = lexers.Fallback
	}
	l = chroma.Coalesce(l)

	s := styles.Get(p.cfg.CodeStyle)

	f := hlhtml.New(hlhtml.Standalone(false), hlhtml.PreventSurroundingPre(true))

	plain := `<pre class="code">` + html.EscapeString(code) + `</pre>`

	it, err := l.Tokenise(nil, code)
	if err != nil {
		p.log.Warnw("tokenising code", "language", language, "error", err)
		return plain
	}

	var sb strings.Builder
	sb.WriteString(`<pre class="code chroma">`)
	if err := f.Format(&sb, s, it); err != nil {
		p.log.Warnw("formatting code", "language", language, "error", err)
		return plain
	}
	sb.WriteString(`</pre>`)
	return sb.String()
}
