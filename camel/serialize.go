package camel

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/microcosm-cc/bluemonday"
)

// Format is an output format of a Document.
type Format string

const (
	FormatXML     Format = "xml"
	FormatRecords Format = "records"
	FormatLabels  Format = "labels"
	FormatText    Format = "text"
)

// ParseFormat checks the name of a format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatXML, FormatRecords, FormatLabels, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q, want one of xml, records, labels, text", name)
}

// Serialize writes the document in the given format.
func (d *Document) Serialize(w io.Writer, format Format) error {
	switch format {
	case FormatXML:
		return d.WriteXML(w)
	case FormatRecords:
		return d.WriteRecords(w)
	case FormatLabels:
		return d.WriteLabels(w)
	case FormatText:
		return d.WriteText(w)
	}
	return fmt.Errorf("unknown format %q", format)
}

// The element holding the document metadata, first child of the book element.
const metaTag = "meta"

// WriteXML writes the tree as XML, with one element per node named after its type.
func (d *Document) WriteXML(w io.Writer) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	book := xmlElement(&doc.Element, d.Root)

	// The metadata goes first, before the nodes
	meta := etree.NewElement(metaTag)
	writeXMLMeta(meta, d.Meta, d.Labels)
	book.InsertChildAt(0, meta)

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("writing xml: %w", err)
	}
	return nil
}

// xmlElement creates the element of n and its descendants under parent.
func xmlElement(parent *etree.Element, n *Node) *etree.Element {
	el := parent.CreateElement(n.Type)

	el.CreateAttr("id", strconv.Itoa(n.ID))
	el.CreateAttr("class", n.Class.String())
	attrs := []struct{ key, value string }{
		{"number", n.NumberString()},
		{"title", n.Title},
		{"label", n.Label},
		{"mpath", n.MPath},
		{"src", n.Src},
		{"target", n.Target},
	}
	for _, a := range attrs {
		if a.value != "" {
			el.CreateAttr(a.key, a.value)
		}
	}
	if n.Label != "" {
		el.CreateAttr("anchor", Anchor(n.Label))
	}
	if n.Class == ReferenceClass {
		el.CreateAttr("resolved", strconv.FormatBool(n.Resolved))
	}
	if n.IsCorrectChoice {
		el.CreateAttr("correct", "true")
	}

	if n.IsLeaf() {
		el.SetText(n.Content)
		return el
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		xmlElement(el, c)
	}
	return el
}

func writeXMLMeta(el *etree.Element, meta *Meta, labels *LabelTable) {
	fields := []struct{ key, value string }{
		{"documentclass", meta.DocumentClass},
		{"classoptions", meta.ClassOptions},
		{"modulecode", meta.ModuleCode},
		{"academicyear", meta.AcademicYear},
		{"moduletitle", meta.ModuleTitle},
		{"title", meta.BookTitle},
		{"author", meta.BookAuthor},
		{"booknumber", meta.BookNumber},
		{"bookversion", meta.BookVersion},
	}
	for _, f := range fields {
		if f.value != "" {
			el.CreateAttr(f.key, f.value)
		}
	}
	for _, nc := range meta.NewCommands {
		el.CreateElement("newcommand").SetText(nc)
	}
	if labels == nil {
		return
	}
	for _, e := range labels.Entries() {
		l := el.CreateElement("label")
		l.CreateAttr("name", e.Label)
		l.CreateAttr("mpath", e.MPath)
	}
}

// ReadXML rebuilds a document written by WriteXML.
// Only the attributes of the nodes and the content of the leaves are read,
// so the result can be serialized again.
func ReadXML(r io.Reader) (*Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("reading xml: %w", err)
	}
	book := doc.Root()
	if book == nil || book.Tag != "book" {
		return nil, fmt.Errorf("reading xml: root element is not a book")
	}

	d := &Document{Meta: &Meta{}, Labels: newLabelTable()}
	byPath := map[string]*Node{}

	root, err := readXMLNode(book, byPath)
	if err != nil {
		return nil, err
	}
	d.Root = root

	if meta := book.SelectElement(metaTag); meta != nil {
		readXMLMeta(meta, d, byPath)
	}
	return d, nil
}

func readXMLNode(el *etree.Element, byPath map[string]*Node) (*Node, error) {
	n := &Node{
		Type:            el.Tag,
		Class:           ParseNodeClass(el.SelectAttrValue("class", "")),
		Title:           el.SelectAttrValue("title", ""),
		Label:           el.SelectAttrValue("label", ""),
		MPath:           el.SelectAttrValue("mpath", ""),
		Src:             el.SelectAttrValue("src", ""),
		Target:          el.SelectAttrValue("target", ""),
		Resolved:        el.SelectAttrValue("resolved", "") == "true",
		IsCorrectChoice: el.SelectAttrValue("correct", "") == "true",
	}

	var err error
	if n.ID, err = strconv.Atoi(el.SelectAttrValue("id", "0")); err != nil {
		return nil, fmt.Errorf("reading xml: element %s: invalid id: %w", el.Tag, err)
	}
	if n.Number, err = ParseNumber(el.SelectAttrValue("number", "")); err != nil {
		return nil, fmt.Errorf("reading xml: element %s: invalid number: %w", el.Tag, err)
	}
	if n.MPath != "" {
		byPath[n.MPath] = n
	}

	if n.IsLeaf() {
		n.Content = el.Text()
		return n, nil
	}
	for _, child := range el.ChildElements() {
		if child.Tag == metaTag {
			continue
		}
		c, err := readXMLNode(child, byPath)
		if err != nil {
			return nil, err
		}
		n.AppendChild(c)
	}
	return n, nil
}

func readXMLMeta(el *etree.Element, d *Document, byPath map[string]*Node) {
	m := d.Meta
	m.DocumentClass = el.SelectAttrValue("documentclass", "")
	m.ClassOptions = el.SelectAttrValue("classoptions", "")
	m.ModuleCode = el.SelectAttrValue("modulecode", "")
	m.AcademicYear = el.SelectAttrValue("academicyear", "")
	m.ModuleTitle = el.SelectAttrValue("moduletitle", "")
	m.BookTitle = el.SelectAttrValue("title", "")
	m.BookAuthor = el.SelectAttrValue("author", "")
	m.BookNumber = el.SelectAttrValue("booknumber", "")
	m.BookVersion = el.SelectAttrValue("bookversion", "")

	for _, nc := range el.SelectElements("newcommand") {
		m.NewCommands = append(m.NewCommands, nc.Text())
	}
	for _, l := range el.SelectElements("label") {
		if n, ok := byPath[l.SelectAttrValue("mpath", "")]; ok {
			d.Labels.nodes[l.SelectAttrValue("name", "")] = n
		}
	}
}

// Record is a node flattened for storage in a table addressed by materialized paths.
// Records are produced in pre-order, so a parent is always stored before its children.
type Record struct {
	NodeID          int    `json:"node_id"`
	Path            string `json:"mpath"`
	ParentPath      string `json:"parent_mpath,omitempty"`
	Depth           int    `json:"depth"`
	Class           string `json:"node_class"`
	Type            string `json:"node_type"`
	Number          string `json:"number,omitempty"`
	Title           string `json:"title,omitempty"`
	Label           string `json:"label,omitempty"`
	Content         string `json:"content,omitempty"`
	IsCorrectChoice bool   `json:"is_correct_choice"`
}

// Records flattens the tree in document order.
// With the sanitize setting, the content is cleaned with a user generated content policy.
func (d *Document) Records() []Record {
	var policy *bluemonday.Policy
	if d.Config().Sanitize {
		policy = contentPolicy()
	}

	var records []Record
	Walk(d.Root, func(n *Node, depth int) error {
		r := Record{
			NodeID:          n.ID,
			Path:            n.MPath,
			Depth:           depth,
			Class:           n.Class.String(),
			Type:            n.Type,
			Number:          n.NumberString(),
			Title:           n.Title,
			Label:           n.Label,
			Content:         n.Content,
			IsCorrectChoice: n.IsCorrectChoice,
		}
		if n.Parent != nil {
			r.ParentPath = n.Parent.MPath
		}
		if policy != nil && r.Content != "" {
			r.Content = policy.Sanitize(r.Content)
		}
		records = append(records, r)
		return nil
	})
	return records
}

// contentPolicy allows the HTML produced by the transliterator and the code highlighter.
func contentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("style").OnElements("span", "pre")
	p.AllowDataAttributes()
	p.AllowRelativeURLs(true)
	return p
}

// WriteRecords writes the records as JSON lines.
func (d *Document) WriteRecords(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range d.Records() {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("writing records: %w", err)
		}
	}
	return nil
}

// WriteLabels writes the label table, one label per line, in document order.
func (d *Document) WriteLabels(w io.Writer) error {
	for _, e := range d.Labels.Entries() {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", e.Label, e.MPath, e.Number); err != nil {
			return err
		}
	}
	return nil
}

// WriteText writes an indented dump of the tree, for debugging.
func (d *Document) WriteText(w io.Writer) error {
	return Walk(d.Root, func(n *Node, depth int) error {
		line := strings.Repeat("----", depth) + n.String()
		if n.MPath != "" {
			line += " (" + n.MPath + ")"
		}
		if n.IsLeaf() {
			line += " >>>>> " + n.Content + " <<<<<"
		}
		_, err := fmt.Fprintln(w, line)
		return err
	})
}
