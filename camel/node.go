package camel

import (
	"strconv"
	"strings"
)

// A NodeClass is the coarse category of a Node.
type NodeClass uint32

const (
	ErrorClass NodeClass = iota
	DivisionClass
	TheoremClass
	ExerciseClass
	ListClass
	ItemClass
	BoxClass
	FloatClass
	TextClass
	ReferenceClass
)

var classNames = [...]string{
	ErrorClass:     "error",
	DivisionClass:  "division",
	TheoremClass:   "theorem",
	ExerciseClass:  "exercise",
	ListClass:      "list",
	ItemClass:      "item",
	BoxClass:       "box",
	FloatClass:     "float",
	TextClass:      "text",
	ReferenceClass: "reference",
}

// String returns the name used for the class in serialized output.
func (c NodeClass) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "invalid(" + strconv.Itoa(int(c)) + ")"
}

// ParseNodeClass is the inverse of NodeClass.String.
func ParseNodeClass(s string) NodeClass {
	for c, name := range classNames {
		if name == s {
			return NodeClass(c)
		}
	}
	return ErrorClass
}

type TreeNode struct {
	Parent, FirstChild, LastChild, PrevSibling, NextSibling *Node
}

// Node is an element of the document tree.
// Branch nodes own their children; text and reference nodes are leaves.
type Node struct {
	TreeNode

	// ID is unique within a parse run and follows construction order
	ID    int
	Class NodeClass

	// Type is the LaTeX environment or command name, like "chapter" or "lemma"
	Type string

	// Number is the scoped numbering path, nil for nodes that are not counted
	Number []int

	Title string
	Label string
	MPath string

	// Content is the HTML of leaf nodes
	Content string

	// Src is the image of a figure
	Src string

	// Target is the label a reference node points to, and Resolved tells if it was found
	Target   string
	Resolved bool

	IsCorrectChoice bool

	// Offset in the source text where the node starts, for diagnostics
	Offset int
}

// NumberString returns the number in dotted form, like "3.2".
func (n *Node) NumberString() string {
	if len(n.Number) == 0 {
		return ""
	}
	parts := make([]string, len(n.Number))
	for i, k := range n.Number {
		parts[i] = strconv.Itoa(k)
	}
	return strings.Join(parts, ".")
}

// ParseNumber is the inverse of NumberString.
func ParseNumber(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ".")
	number := make([]int, len(fields))
	for i, f := range fields {
		k, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		number[i] = k
	}
	return number, nil
}

// String returns a one line description of the node.
func (n *Node) String() string {
	var sb strings.Builder
	sb.WriteString(n.Class.String())
	sb.WriteByte('/')
	sb.WriteString(n.Type)
	sb.WriteString(" [")
	sb.WriteString(strconv.Itoa(n.ID))
	sb.WriteByte(']')
	if num := n.NumberString(); num != "" {
		sb.WriteString(" ")
		sb.WriteString(num)
	}
	if n.Title != "" {
		sb.WriteString(": ")
		sb.WriteString(n.Title)
	}
	if n.Label != "" {
		sb.WriteString(" <")
		sb.WriteString(n.Label)
		sb.WriteString(">")
	}
	return sb.String()
}

// IsLeaf reports whether the node carries content instead of children.
func (n *Node) IsLeaf() bool {
	return n.Class == TextClass || n.Class == ReferenceClass
}

// Children returns the children of n in order.
func (n *Node) Children() []*Node {
	var children []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	return children
}

// AppendChild adds a node child as the last child of parent.
//
// It will panic if child already has a parent or siblings.
func (parent *Node) AppendChild(child *Node) {
	if child.Parent != nil || child.PrevSibling != nil || child.NextSibling != nil {
		panic("AppendChild called for an already attached child Node")
	}
	last := parent.LastChild
	if last != nil {
		last.NextSibling = child
	} else {
		parent.FirstChild = child
	}
	parent.LastChild = child

	child.Parent = parent
	child.PrevSibling = last
}

// AppendChildren appends all nodes in order.
func (parent *Node) AppendChildren(children []*Node) {
	for _, c := range children {
		parent.AppendChild(c)
	}
}

// Walk visits the tree rooted at n in pre-order, which is document order.
// A parent is always visited before its children, so storage layers can assign
// parent links in a single pass. Returning an error stops the walk.
func Walk(n *Node, fn func(n *Node, depth int) error) error {
	return walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(n *Node, depth int) error) error {
	if err := fn(n, depth); err != nil {
		return err
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := walk(c, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}
