package camel

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hesusruiz/cameltex/sliceedit"
	"golang.org/x/net/html"
)

var (
	reCite      = regexp.MustCompile(`\\cite\s*(?:\[([^\]]*)\])?\s*\{([^}]*)\}`)
	reFont      = regexp.MustCompile(`\\(emph|textit|textbf|underline|texttt)\s*\{`)
	reVSpace    = regexp.MustCompile(`\\vspace\*?\s*\{[^}]*\}`)
	reHSpace    = regexp.MustCompile(`\\hspace\*?\s*\{[^}]*\}`)
	reLineBreak = regexp.MustCompile(`\\\\(?:\*?\[[^\]]*\])?`)
	reParagraph = regexp.MustCompile(`\\paragraph\*?\s*\{([^}]*)\}`)
	rePar       = regexp.MustCompile(`\\par\b\s*`)
	reLayout    = regexp.MustCompile(`\\(?:maketitle|tableofcontents|clearpage|cleardoublepage|break|newpage|pagebreak|hline|centering|hfill|vfill|noindent|indent|small|normalsize|large|Large|LARGE|huge|Huge|footnotesize|scriptsize|tiny|medskip|bigskip|smallskip|endinput|makefrontmatter)\b\s?`)
)

// fontTags are the HTML elements of the font commands.
var fontTags = map[string]string{
	"emph":      "i",
	"textit":    "i",
	"textbf":    "b",
	"underline": "u",
	"texttt":    "code",
}

// transliterate converts the inline LaTeX of raw into HTML.
// The \label commands are removed and declared on owner, and \ref commands are
// left for the caller to split. Text with only blanks gives the empty string.
//
// The substitutions are applied in a fixed order, as later ones expect the
// output of earlier ones.
func (p *Parser) transliterate(owner *Node, offset int, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}

	s := string(StripComments([]byte(raw)))

	// Labels, deleted from the text
	buf := sliceedit.NewBuffer([]byte(s))
	for _, m := range reLabel.FindAllStringSubmatchIndex(s, -1) {
		if err := p.declareLabel(owner, s[m[2]:m[3]], offset+m[0]); err != nil {
			return "", err
		}
		buf.Delete(m[0], m[1])
	}
	if buf.Edits() > 0 {
		s = buf.String()
	}

	s = Transliterate(s)
	return s, nil
}

// Transliterate converts the inline LaTeX in s into HTML, without handling labels.
func Transliterate(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	// Citations point to the bibliography
	s = reCite.ReplaceAllStringFunc(s, citation)

	// Font styles, which may be nested
	s = rewriteFonts(s)

	// Spacing
	s = reVSpace.ReplaceAllString(s, "<p>")
	s = reHSpace.ReplaceAllString(s, "&nbsp;&nbsp;")

	// Layout
	s = reParagraph.ReplaceAllString(s, "<br>\n<b>$1</b>\n")
	s = rePar.ReplaceAllString(s, "<br>")
	s = reLineBreak.ReplaceAllString(s, "<br>")

	// Custom vocabulary and escaped characters
	s = replaceSymbols(s)

	// Commands without an HTML equivalent
	s = removeLayout(s)

	// Non breaking spaces
	s = replaceTildes(s)

	return strings.TrimSpace(s)
}

// citation renders \cite[note]{key1,key2} as links to the bibliography entries.
func citation(cmd string) string {
	m := reCite.FindStringSubmatch(cmd)
	var links []string
	for _, key := range strings.Split(m[2], ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		links = append(links, fmt.Sprintf(`<a class="cite" href="#bib:%s">%s</a>`, html.EscapeString(key), html.EscapeString(key)))
	}
	note := ""
	if m[1] != "" {
		note = ", " + m[1]
	}
	return "[" + strings.Join(links, ", ") + note + "]"
}

// rewriteFonts replaces font commands with HTML tags, reading their argument with
// balanced braces so \textbf{a \emph{b}} gives <b>a <i>b</i></b>.
func rewriteFonts(s string) string {
	var sb strings.Builder
	last := 0
	for {
		loc := reFont.FindStringSubmatchIndex(s[last:])
		if loc == nil {
			break
		}
		start := last + loc[0]
		name := s[last+loc[2] : last+loc[3]]
		arg, end, ok := readGroup(s, last+loc[1]-1)
		if !ok {
			// Unbalanced braces, leave the rest as it is
			break
		}
		tag := fontTags[name]
		sb.WriteString(s[last:start])
		sb.WriteString("<" + tag + ">")
		sb.WriteString(rewriteFonts(arg))
		sb.WriteString("</" + tag + ">")
		last = end
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// symbols are the fixed commands replaced by their HTML text.
// None of them is a prefix of another, so their matches never overlap.
var symbols = []struct{ cmd, html string }{
	{`\proofomitted`, `<i>[Proof omitted]</i><br/>`},
	{`\percent`, "&#37;"},
	{`\%`, "&#37;"},
	{`\&`, "&amp;"},
}

func replaceSymbols(s string) string {
	buf := sliceedit.NewBuffer([]byte(s))
	for _, sym := range symbols {
		buf.ReplaceAllString(sym.cmd, sym.html)
	}
	if buf.Edits() == 0 {
		return s
	}
	return buf.String()
}

// removeLayout deletes typographic commands.
func removeLayout(s string) string {
	buf := sliceedit.NewBuffer([]byte(s))
	buf.ReplaceAllRegexp(reLayout, func(m []int) string { return "" })
	if buf.Edits() == 0 {
		return s
	}
	return buf.String()
}

// replaceTildes turns the unescaped ~ into spaces.
func replaceTildes(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '~' && !escapedAt(s, i) {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
