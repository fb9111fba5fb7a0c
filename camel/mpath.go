package camel

import (
	"fmt"
	"strings"
)

// BookPath returns the materialized path of a book: the module code followed by
// the book number as two hex digits, like "MA1234.01".
func BookPath(moduleCode string, bookNumber int) string {
	return fmt.Sprintf("%s.%02x", moduleCode, bookNumber)
}

// ChildPath returns the path of the child at the 1-based ordinal position,
// appending the ordinal in hex, padded to width digits.
func ChildPath(parent string, ordinal int, width int) string {
	return fmt.Sprintf("%s.%0*x", parent, width, ordinal)
}

// ParentPath returns the path of the parent of the node at path, or "" for a book.
// The book path has two segments, the module code and the book number.
func ParentPath(path string) string {
	if strings.Count(path, ".") <= 1 {
		return ""
	}
	return path[:strings.LastIndexByte(path, '.')]
}

// assignPaths gives every node its materialized path, from its position among
// its siblings. Sorting the paths as strings gives the document order, as long as
// no node has more children than fit in the segment width.
func (p *Parser) assignPaths(root *Node, bookNumber int) {
	root.MPath = BookPath(p.meta.ModuleCode, bookNumber)

	limit := 1 << (4 * p.cfg.MPathWidth)
	Walk(root, func(n *Node, _ int) error {
		ordinal := 0
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			ordinal++
			c.MPath = ChildPath(n.MPath, ordinal, p.cfg.MPathWidth)
		}
		if ordinal >= limit {
			p.log.Warnw("too many children for the path width, paths will not sort in document order",
				"node", n.MPath, "children", ordinal, "mpathWidth", p.cfg.MPathWidth)
		}
		return nil
	})
}
