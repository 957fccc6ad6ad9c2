package ast

import (
	"fmt"
	"strings"
)

// Position is a 1-based line and column in the source. Col counts bytes.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Span is the half-open byte range [Start, End) a node covers.
type Span struct {
	Start  int      `json:"start"`
	End    int      `json:"end"`
	Pos    Position `json:"pos"`
	EndPos Position `json:"end_pos"`
}

// Node is a read-only syntax node. Only named grammar nodes are kept as
// children; anonymous tokens that carry meaning are folded into Op and Keyword.
type Node struct {
	Kind Kind
	// Type is the grammar type name, e.g. "lexical_declaration".
	Type string
	// Field is the field label of the node within its parent ("body", "left", ...).
	Field string
	// Op is the operator token of binary, unary, update and assignment
	// expressions and the "in"/"of" token of for-in loops.
	Op string
	// Keyword is the declaration keyword: var, let or const.
	Keyword string
	// Text holds the source text of leaf nodes, strings and templates.
	Text     string
	Span     Span
	Parent   *Node
	Children []*Node
}

func (n *Node) String() string {
	if n.Text != "" {
		return fmt.Sprintf("%s(%q)@%s", n.Kind, n.Text, n.Span.Pos)
	}
	return fmt.Sprintf("%s@%s", n.Kind, n.Span.Pos)
}

// Child returns the first child labelled with the field name, or nil.
func (n *Node) Child(field string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// ChildrenOf returns every child labelled with the field name.
func (n *Node) ChildrenOf(field string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Field == field {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first non-comment child, or nil.
func (n *Node) FirstChild() *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind != KindComment {
			return c
		}
	}
	return nil
}

// Is reports whether n is non-nil and of one of the kinds.
func (n *Node) Is(kinds ...Kind) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Unparen strips enclosing parentheses.
func (n *Node) Unparen() *Node {
	for n != nil && n.Kind == KindParen {
		n = n.FirstChild()
	}
	return n
}

// IsStatement reports whether the node appears in statement position.
func (n *Node) IsStatement() bool {
	switch n.Kind {
	case KindVarDecl, KindExprStmt, KindReturn, KindThrow, KindBreak, KindContinue,
		KindIf, KindFor, KindForIn, KindWhile, KindDoWhile, KindSwitch, KindTry,
		KindLabeled, KindEmpty, KindBlock, KindFunctionDecl, KindClassDecl,
		KindImport, KindExport:
		return true
	case KindOther:
		return strings.HasSuffix(n.Type, "_statement") || strings.HasSuffix(n.Type, "_declaration")
	}
	return false
}

// Name returns the identifier text of the "name" field, or "".
func (n *Node) Name() string {
	if c := n.Child("name"); c != nil {
		return c.Text
	}
	return ""
}

// StringValue returns the value of a string literal or a template without
// substitutions. Escape sequences are kept as written.
func (n *Node) StringValue() (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind {
	case KindString:
		if len(n.Text) >= 2 {
			return n.Text[1 : len(n.Text)-1], true
		}
	case KindTemplate:
		for _, c := range n.Children {
			if c.Kind == KindTemplateSubstitution {
				return "", false
			}
		}
		if len(n.Text) >= 2 {
			return n.Text[1 : len(n.Text)-1], true
		}
	}
	return "", false
}

// EnclosingFunction returns the nearest function ancestor of n, or nil at
// program level.
func (n *Node) EnclosingFunction() *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind.IsFunction() {
			return p
		}
	}
	return nil
}

// Statements returns the statement children of a sequence node: a program, a
// block, or the body of a switch case.
func (n *Node) Statements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == KindComment {
			continue
		}
		if n.Kind == KindCase && c.Field == "value" {
			continue
		}
		if c.IsStatement() {
			out = append(out, c)
		}
	}
	return out
}
