package frontend

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Node is an immutable snapshot of one tree-sitter syntax node. Sessions
// hand out Nodes instead of live tree-sitter nodes so that analysis can run
// concurrently once the session is built.
type Node struct {
	Type     string
	Text     string
	Line     int // 1-based
	Column   int // 1-based, in bytes
	EndLine  int
	HasError bool

	// Children holds the named children in source order.
	Children []*Node

	// Tokens holds the types of the anonymous children (keywords and
	// punctuation) in source order.
	Tokens []string

	Parent *Node

	fields    map[string]*Node
	file      string
	startByte uint32
	endByte   uint32
}

// snapshotFields are the grammar field names carried into snapshots.
var snapshotFields = []string{
	"alias", "arguments", "body", "constraint", "constructor", "declaration",
	"function", "key", "kind", "left", "name", "parameter", "parameters",
	"pattern", "return_type", "right", "source", "type", "type_arguments",
	"type_parameters", "value",
}

// opaqueTypes are not descended into; function bodies carry no surface.
var opaqueTypes = map[string]bool{
	"statement_block":    true,
	"class_static_block": true,
}

// functionScopes stop the search for return statements.
var functionScopes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_expression":            true,
	"function":                       true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true,
	"class":                          true,
	"class_declaration":              true,
}

// Field returns the child stored under a grammar field name, or nil. It is
// safe to call on a nil Node.
func (n *Node) Field(name string) *Node {
	if n == nil {
		return nil
	}
	return n.fields[name]
}

// HasToken reports whether an anonymous child of type tok is present.
func (n *Node) HasToken(tok string) bool {
	if n == nil {
		return false
	}
	for _, t := range n.Tokens {
		if t == tok {
			return true
		}
	}
	return false
}

// FirstChild returns the first named child whose type is one of types.
func (n *Node) FirstChild(types ...string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		for _, t := range types {
			if c.Type == t {
				return c
			}
		}
	}
	return nil
}

// ChildrenOfType returns the named children whose type is one of types.
func (n *Node) ChildrenOfType(types ...string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		for _, t := range types {
			if c.Type == t {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// snapshot copies n and its descendants. text is the whole source as a
// string so node texts share its memory.
func snapshot(n *sitter.Node, text string, file string, parent *Node) *Node {
	start, end := n.StartPoint(), n.EndPoint()
	s := &Node{
		Type:      n.Type(),
		Line:      int(start.Row) + 1,
		Column:    int(start.Column) + 1,
		EndLine:   int(end.Row) + 1,
		HasError:  n.HasError(),
		Parent:    parent,
		file:      file,
		startByte: n.StartByte(),
		endByte:   n.EndByte(),
	}

	if opaqueTypes[s.Type] {
		if returnsValue(n) {
			s.Tokens = []string{"return"}
		}
		return s
	}
	s.Text = text[s.startByte:s.endByte]

	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		if c.IsNamed() {
			s.Children = append(s.Children, snapshot(c, text, file, s))
		} else {
			s.Tokens = append(s.Tokens, c.Type())
		}
	}

	for _, name := range snapshotFields {
		c := n.ChildByFieldName(name)
		if c == nil {
			continue
		}
		if s.fields == nil {
			s.fields = make(map[string]*Node)
		}
		s.fields[name] = s.matchChild(c, text)
	}
	return s
}

// matchChild finds the snapshot of a direct child, creating a leaf for
// anonymous children such as the "const" of a lexical declaration.
func (n *Node) matchChild(c *sitter.Node, text string) *Node {
	for _, child := range n.Children {
		if child.startByte == c.StartByte() && child.endByte == c.EndByte() && child.Type == c.Type() {
			return child
		}
	}
	start := c.StartPoint()
	return &Node{
		Type:      c.Type(),
		Text:      text[c.StartByte():c.EndByte()],
		Line:      int(start.Row) + 1,
		Column:    int(start.Column) + 1,
		EndLine:   int(c.EndPoint().Row) + 1,
		Parent:    n,
		file:      n.file,
		startByte: c.StartByte(),
		endByte:   c.EndByte(),
	}
}

// returnsValue reports whether a function body returns a value, ignoring
// nested functions.
func returnsValue(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || functionScopes[c.Type()] {
			continue
		}
		if c.Type() == "return_statement" && c.NamedChildCount() > 0 {
			return true
		}
		if returnsValue(c) {
			return true
		}
	}
	return false
}

// IsDocComment reports whether text is a /** */ block.
func IsDocComment(text string) bool {
	return strings.HasPrefix(text, "/**") && text != "/**/"
}

// DocComment returns the doc comment attached to siblings[i]: a /** */
// comment immediately before it with no blank line in between.
func DocComment(siblings []*Node, i int) string {
	if i <= 0 || i >= len(siblings) {
		return ""
	}
	prev := siblings[i-1]
	if prev.Type != "comment" || !IsDocComment(prev.Text) {
		return ""
	}
	if siblings[i].Line-prev.EndLine > 1 {
		return ""
	}
	return prev.Text
}
