package camel

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	reRowSeparator = regexp.MustCompile(`\\\\(?:\*?\[[^\]]*\])?`)
	reRule         = regexp.MustCompile(`\\(?:hline|toprule|midrule|bottomrule)\b|\\cline\s*\{[^}]*\}`)
)

func isTabular(name string) bool {
	return name == "tabular" || name == "tabular*" || name == "tabbing"
}

// buildTabular converts a tabular environment into a text node holding an HTML table.
// Rows are separated by \\ and cells by &. Rules are dropped.
func (p *Parser) buildTabular(owner *Node, s Slice) (*Node, error) {
	text := p.src.Text
	n := p.newNode("tabular", s.OuterStart)

	// Skip the width of tabular* and the column specification
	i := s.Start
	groups := 1
	if s.Kind == "tabular*" {
		groups = 2
	}
	if s.Kind == "tabbing" {
		groups = 0
	}
	for k := 0; k < groups; k++ {
		if _, next, ok := readGroup(text[:s.End], skipBlanks(text[:s.End], i)); ok {
			i = next
		}
	}
	content := text[i:s.End]

	rows, err := p.tabularRows(owner, i, content)
	if err != nil {
		return nil, err
	}
	n.Content = renderTable(rows)
	return n, nil
}

// tabularRows splits the content of a tabular into transliterated cells.
// Empty rows, like the one after the last \\, are dropped.
func (p *Parser) tabularRows(owner *Node, offset int, content string) ([][]string, error) {
	var rows [][]string

	last := 0
	bounds := reRowSeparator.FindAllStringIndex(content, -1)
	bounds = append(bounds, []int{len(content), len(content)})
	for _, b := range bounds {
		rowText := content[last:b[0]]
		rowOffset := offset + last
		last = b[1]

		rowText = reRule.ReplaceAllString(rowText, "")
		if strings.TrimSpace(rowText) == "" {
			continue
		}

		var cells []string
		for _, c := range splitCells(rowText) {
			cell, err := p.transliterate(owner, rowOffset+c[0], rowText[c[0]:c[1]])
			if err != nil {
				return nil, err
			}
			cells = append(cells, cell)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// splitCells returns the spans of the cells of a row, split on the unescaped &.
// For tabbing, \> also separates cells.
func splitCells(row string) [][2]int {
	var cells [][2]int
	start := 0
	for i := 0; i < len(row); i++ {
		switch {
		case row[i] == '&' && !escapedAt(row, i):
			cells = append(cells, [2]int{start, i})
			start = i + 1
		case row[i] == '>' && escapedAt(row, i):
			cells = append(cells, [2]int{start, i - 1})
			start = i + 1
		}
	}
	return append(cells, [2]int{start, len(row)})
}

// renderTable builds the HTML of a table with x/net/html nodes, so cell content is
// parsed as HTML and the output is well formed.
func renderTable(rows [][]string) string {
	table := &html.Node{Type: html.ElementNode, Data: "table", DataAtom: atom.Table}
	tbody := &html.Node{Type: html.ElementNode, Data: "tbody", DataAtom: atom.Tbody}
	table.AppendChild(tbody)

	for _, row := range rows {
		tr := &html.Node{Type: html.ElementNode, Data: "tr", DataAtom: atom.Tr}
		tbody.AppendChild(tr)
		for _, cell := range row {
			td := &html.Node{Type: html.ElementNode, Data: "td", DataAtom: atom.Td}
			tr.AppendChild(td)

			nodes, err := html.ParseFragment(strings.NewReader(cell), td)
			if err != nil {
				// Keep the text when it can not be parsed
				td.AppendChild(&html.Node{Type: html.TextNode, Data: cell})
				continue
			}
			for _, c := range nodes {
				td.AppendChild(c)
			}
		}
	}

	var sb strings.Builder
	if err := html.Render(&sb, table); err != nil {
		return ""
	}
	return sb.String()
}
