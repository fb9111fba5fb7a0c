// Package camel compiles LaTeX documents written with the camel document class
// into a numbered and labeled document tree.
//
// The tree can be serialized to XML or to a flat list of records addressed by
// materialized paths, ready to be stored by a web front end.
package camel

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// Document is the result of a parse run.
type Document struct {
	Meta *Meta

	// Root is the "book" division node
	Root *Node

	// Labels maps the labels declared in the document to the nodes they identify
	Labels *LabelTable

	// Warnings are the problems that did not stop the parse,
	// like truncated \input or unresolved references
	Warnings []*SyntaxError

	config *Config
}

// Parser holds the state of a parse run: counters, labels and node ids.
// The state is reset at the start of each run, so a Parser can be reused
// but not shared between goroutines.
type Parser struct {
	cfg *Config
	log *zap.SugaredLogger

	src      *Source
	meta     *Meta
	counters *Counters
	labels   *LabelTable
	lastID   int
	warnings []*SyntaxError
}

// NewParser returns a parser configured with the given options.
func NewParser(opts ...Option) (*Parser, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Parser{cfg: cfg, log: cfg.Logger}, nil
}

// ParseFromFile parses the LaTeX document in fileName, including the files it inputs.
func ParseFromFile(fileName string, opts ...Option) (*Document, error) {
	p, err := NewParser(opts...)
	if err != nil {
		return nil, err
	}
	return p.ParseFile(fileName)
}

// ParseFromBytes parses a LaTeX document held in memory.
// The fileName is used in error messages and to resolve \input commands.
func ParseFromBytes(fileName string, src []byte, opts ...Option) (*Document, error) {
	p, err := NewParser(opts...)
	if err != nil {
		return nil, err
	}
	return p.ParseBytes(fileName, src)
}

// ParseFile runs the parser on a file.
func (p *Parser) ParseFile(fileName string) (*Document, error) {
	p.reset()
	loader := p.loader()
	src, err := loader.Load(fileName)
	p.warnings = append(p.warnings, loader.Warnings...)
	if err != nil {
		return nil, err
	}
	return p.parse(src)
}

// ParseBytes runs the parser on a document held in memory.
func (p *Parser) ParseBytes(fileName string, data []byte) (*Document, error) {
	p.reset()
	loader := p.loader()
	src, err := loader.LoadBytes(fileName, data)
	p.warnings = append(p.warnings, loader.Warnings...)
	if err != nil {
		return nil, err
	}
	return p.parse(src)
}

// reset discards everything left by a previous run.
func (p *Parser) reset() {
	p.src = nil
	p.meta = nil
	p.counters = newCounters()
	p.labels = newLabelTable()
	p.lastID = 0
	p.warnings = nil
}

func (p *Parser) loader() *Loader {
	l := NewLoader(p.log)
	l.MaxDepth = p.cfg.MaxInputDepth
	return l
}

func (p *Parser) parse(src *Source) (*Document, error) {
	p.src = src

	preambleEnd, bodyStart, bodyEnd, ok := SplitDocument(src.Text)

	meta, err := ParsePreamble(src, preambleEnd)
	if err != nil {
		return nil, err
	}
	p.meta = meta

	if !ok {
		return nil, src.errorAt(len(src.Text), ErrNoContent, `no \begin{document}`)
	}

	root := p.newNode("book", bodyStart)
	root.Title = meta.BookTitle

	if err := p.splitDivisions(root, bodyStart, bodyEnd); err != nil {
		return nil, err
	}

	p.assignPaths(root, p.bookNumber())
	p.resolveReferences(root)

	p.log.Infow("document parsed", "module", meta.ModuleCode, "nodes", p.lastID, "labels", p.labels.Len(), "warnings", len(p.warnings))

	return &Document{
		Meta:     meta,
		Root:     root,
		Labels:   p.labels,
		Warnings: p.warnings,
		config:   p.cfg,
	}, nil
}

// bookNumber is the number declared with \booknumber, or the configured one.
func (p *Parser) bookNumber() int {
	if p.meta.BookNumber == "" {
		return p.cfg.BookNumber
	}
	n, err := strconv.Atoi(p.meta.BookNumber)
	if err != nil || n < 0 {
		p.log.Warnw("invalid book number, using configured one", "booknumber", p.meta.BookNumber, "default", p.cfg.BookNumber)
		return p.cfg.BookNumber
	}
	return n
}

// newNode creates a node with the next id. Its class comes from the kind table,
// and names not in the table are text.
func (p *Parser) newNode(typ string, offset int) *Node {
	p.lastID++
	n := &Node{
		ID:     p.lastID,
		Type:   typ,
		Class:  TextClass,
		Offset: offset,
	}
	if kind, ok := KindOf(typ); ok {
		n.Class = kind.Class
	}
	return n
}

// number steps the counter of the node kind and assigns the node its number.
// Items are numbered by their list instead.
func (p *Parser) number(n *Node) {
	kind, ok := KindOf(n.Type)
	if !ok || kind.Counter == "" || kind.Class == ItemClass {
		return
	}
	p.counters.Step(kind.Counter)
	n.Number = p.counters.numberOf(kind.Counter)
}

// warn records a non fatal problem found at offset.
func (p *Parser) warn(offset int, kind error, msg string) {
	se := p.src.errorAt(offset, kind, msg)
	p.warnings = append(p.warnings, se)
	p.log.Warnw(msg, "file", se.Filename, "line", se.Line, "kind", kind.Error())
}

// Config returns the settings the document was parsed with.
func (d *Document) Config() Config {
	if d.config == nil {
		return *DefaultConfig()
	}
	return *d.config
}

func (d *Document) String() string {
	return fmt.Sprintf("%s %s: %s", d.Meta.ModuleCode, d.Meta.AcademicYear, d.Meta.ModuleTitle)
}
