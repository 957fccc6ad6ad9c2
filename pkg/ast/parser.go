package ast

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// ParseError is returned when the source cannot be turned into an error-free tree.
type ParseError struct {
	Pos     Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Col, e.Message)
}

// Parser wraps a tree-sitter parser for JavaScript. A Parser is not safe for
// concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new JavaScript parser.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses source and returns the program node.
func (p *Parser) Parse(ctx context.Context, src []byte) (*Node, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, src)
	}
	return convert(root, "", nil, src), nil
}

// Parse parses source with a fresh parser.
func Parse(ctx context.Context, src []byte) (*Node, error) {
	return NewParser().Parse(ctx, src)
}

func convert(n *sitter.Node, field string, parent *Node, src []byte) *Node {
	node := &Node{
		Kind:   KindOf(n.Type()),
		Type:   n.Type(),
		Field:  field,
		Span:   spanOf(n),
		Parent: parent,
	}
	switch node.Type {
	case "variable_declaration":
		node.Keyword = "var"
	case "assignment_expression":
		node.Op = "="
	}

	cursor := sitter.NewTreeCursor(n)
	defer cursor.Close()
	if cursor.GoToFirstChild() {
		for {
			child := cursor.CurrentNode()
			name := cursor.CurrentFieldName()
			if child.IsNamed() {
				node.Children = append(node.Children, convert(child, name, node, src))
			} else {
				switch name {
				case "operator":
					node.Op = child.Type()
				case "kind":
					node.Keyword = child.Type()
				}
			}
			if !cursor.GoToNextSibling() {
				break
			}
		}
	}

	if len(node.Children) == 0 || node.Kind == KindString || node.Kind == KindTemplate {
		node.Text = n.Content(src)
	}
	return node
}

func spanOf(n *sitter.Node) Span {
	start, end := n.StartPoint(), n.EndPoint()
	return Span{
		Start:  int(n.StartByte()),
		End:    int(n.EndByte()),
		Pos:    Position{Line: int(start.Row) + 1, Col: int(start.Column) + 1},
		EndPos: Position{Line: int(end.Row) + 1, Col: int(end.Column) + 1},
	}
}

// syntaxError locates the first ERROR or MISSING node in source order.
func syntaxError(root *sitter.Node, src []byte) *ParseError {
	var found *sitter.Node
	var find func(n *sitter.Node)
	find = func(n *sitter.Node) {
		if found != nil {
			return
		}
		if n.IsMissing() || n.Type() == "ERROR" {
			found = n
			return
		}
		if !n.HasError() {
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			find(n.Child(i))
		}
	}
	find(root)

	if found == nil {
		return &ParseError{Pos: Position{Line: 1, Col: 1}, Message: "syntax error"}
	}
	pos := spanOf(found).Pos
	if found.IsMissing() {
		return &ParseError{Pos: pos, Message: fmt.Sprintf("missing %q", found.Type())}
	}
	text := found.Content(src)
	if len(text) > 20 {
		text = text[:20] + "..."
	}
	return &ParseError{Pos: pos, Message: fmt.Sprintf("unexpected %q", text)}
}
