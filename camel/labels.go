package camel

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shurcooL/sanitized_anchor_name"
	"golang.org/x/net/html"
)

var reLabel = regexp.MustCompile(`\\label\s*\{([^}]*)\}`)

// LabelTable maps labels to the nodes where they were declared.
type LabelTable struct {
	nodes map[string]*Node
}

func newLabelTable() *LabelTable {
	return &LabelTable{nodes: map[string]*Node{}}
}

// Node returns the node identified by label.
func (t *LabelTable) Node(label string) (*Node, bool) {
	n, ok := t.nodes[label]
	return n, ok
}

// Path returns the materialized path of the node identified by label.
func (t *LabelTable) Path(label string) (string, bool) {
	n, ok := t.nodes[label]
	if !ok {
		return "", false
	}
	return n.MPath, true
}

func (t *LabelTable) Len() int {
	return len(t.nodes)
}

// A LabelEntry is a row of the label table.
type LabelEntry struct {
	Label  string `json:"label"`
	MPath  string `json:"mpath"`
	Number string `json:"number,omitempty"`
	Anchor string `json:"anchor"`
}

// Entries returns the table sorted by materialized path, so labels appear in
// document order. Labels of the same node are sorted alphabetically.
func (t *LabelTable) Entries() []LabelEntry {
	entries := make([]LabelEntry, 0, len(t.nodes))
	for label, n := range t.nodes {
		entries = append(entries, LabelEntry{
			Label:  label,
			MPath:  n.MPath,
			Number: n.NumberString(),
			Anchor: Anchor(label),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].MPath != entries[j].MPath {
			return entries[i].MPath < entries[j].MPath
		}
		return entries[i].Label < entries[j].Label
	})
	return entries
}

// Anchor returns the HTML anchor name for a label, like "ch-intro" for "ch:intro".
func Anchor(label string) string {
	return sanitized_anchor_name.Create(label)
}

// declareLabel records that label identifies owner.
// A node keeps the first label declared on it as its Label.
func (p *Parser) declareLabel(owner *Node, label string, offset int) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil
	}

	if prev, ok := p.labels.nodes[label]; ok {
		_, line, _ := p.src.Position(prev.Offset)
		msg := fmt.Sprintf("label %q already declared on %s at line %d", label, prev.Type, line)
		if p.cfg.DuplicateLabels == DuplicateLabelsError {
			return p.src.errorAt(offset, ErrDuplicateLabel, msg)
		}
		p.warn(offset, ErrDuplicateLabel, msg)
	}

	p.labels.nodes[label] = owner
	if owner.Label == "" {
		owner.Label = label
	}
	return nil
}

// declareLabels declares on owner every \label found in text, which starts at offset.
func (p *Parser) declareLabels(owner *Node, offset int, text string) error {
	for _, m := range reLabel.FindAllStringSubmatchIndex(text, -1) {
		if err := p.declareLabel(owner, text[m[2]:m[3]], offset+m[0]); err != nil {
			return err
		}
	}
	return nil
}

// resolveReferences links every reference node to the node of its label.
// It must run after the paths are assigned.
// An unresolved reference is kept in the tree with a visible marker.
func (p *Parser) resolveReferences(root *Node) {
	Walk(root, func(n *Node, _ int) error {
		if n.Class != ReferenceClass {
			return nil
		}
		target, ok := p.labels.Node(n.Target)
		if !ok {
			n.Resolved = false
			n.Content = brokenReference(n.Target)
			p.warn(n.Offset, ErrUnresolvedReference, fmt.Sprintf(`\ref{%s}`, n.Target))
			return nil
		}
		n.Resolved = true
		n.Content = referenceLink(n.Target, target)
		return nil
	})
}

// referenceLink renders a resolved reference as a link to the anchor of the label.
// The link text is the number of the target, or the label for unnumbered targets.
func referenceLink(label string, target *Node) string {
	text := target.NumberString()
	if text == "" {
		text = label
	}
	return fmt.Sprintf(`<a class="ref" href="#%s" data-mpath="%s">%s</a>`,
		Anchor(label), html.EscapeString(target.MPath), html.EscapeString(text))
}

func brokenReference(label string) string {
	return fmt.Sprintf(`<span class="ref broken" title="%s">??</span>`, html.EscapeString(label))
}
