package core

import (
	"regexp"
	"strings"

	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

var sqlStatement = regexp.MustCompile(`(?is)^\s*(select\s.+\sfrom\s|insert\s+into\s|update\s+\S+\s+set\s|delete\s+from\s)`)

type SQLInjectionRule struct {
	BaseRule
}

func NewSQLInjectionRule() *SQLInjectionRule {
	return &SQLInjectionRule{
		BaseRule: BaseRule{
			RuleName: "sql-injection",
			RuleDesc: "Checks for SQL statements built by concatenating runtime values",
			RuleSev:  SeverityWarning,
			RuleCat:  CategorySecurity,
		},
	}
}

func (rule *SQLInjectionRule) VisitNodePre(n *ast.Node) error {
	var skeleton string
	var dynamic bool
	switch {
	case n.Kind == ast.KindTemplate:
		if n.Parent.Is(ast.KindCall) || plusParent(n) != nil {
			// tagged, or checked with the enclosing concatenation
			return nil
		}
		skeleton, dynamic = templateSkeleton(n)
	case n.Kind == ast.KindBinary && n.Op == "+":
		if plusParent(n) != nil {
			return nil
		}
		var b strings.Builder
		dynamic = concatSkeleton(n, &b)
		skeleton = b.String()
	default:
		return nil
	}
	if !dynamic || !sqlStatement.MatchString(skeleton) {
		return nil
	}
	rule.Debug("query skeleton %q", skeleton)
	rule.Reportf(n, "SQL statement is built from runtime values and may allow SQL injection; use parameterized queries")
	return nil
}

// plusParent returns the enclosing + expression n is an operand of, or nil.
func plusParent(n *ast.Node) *ast.Node {
	p := n.Parent
	for p.Is(ast.KindParen) {
		p = p.Parent
	}
	if p.Is(ast.KindBinary) && p.Op == "+" {
		return p
	}
	return nil
}

// concatSkeleton writes the literal parts of a + chain and a ? for every
// other operand. It reports whether there was such an operand.
func concatSkeleton(n *ast.Node, b *strings.Builder) bool {
	n = n.Unparen()
	if n.Is(ast.KindBinary) && n.Op == "+" {
		l := concatSkeleton(n.Child("left"), b)
		r := concatSkeleton(n.Child("right"), b)
		return l || r
	}
	if s, ok := n.StringValue(); ok {
		b.WriteString(s)
		return false
	}
	if n.Is(ast.KindTemplate) {
		s, _ := templateSkeleton(n)
		b.WriteString(s)
		return true
	}
	if n.Is(ast.KindNumber, ast.KindBool) {
		b.WriteString(n.Text)
		return false
	}
	b.WriteString("?")
	return true
}

func templateSkeleton(t *ast.Node) (string, bool) {
	if len(t.Text) < 2 {
		return "", false
	}
	var b strings.Builder
	dynamic := false
	last := 1
	for _, c := range t.Children {
		if c.Kind != ast.KindTemplateSubstitution {
			continue
		}
		start, end := c.Span.Start-t.Span.Start, c.Span.End-t.Span.Start
		if start < last || end > len(t.Text)-1 {
			continue
		}
		b.WriteString(t.Text[last:start])
		b.WriteString("?")
		last = end
		dynamic = true
	}
	b.WriteString(t.Text[last : len(t.Text)-1])
	return b.String(), dynamic
}
