package core

import (
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

type InefficientConcatRule struct {
	BaseRule
}

func NewInefficientConcatRule() *InefficientConcatRule {
	return &InefficientConcatRule{
		BaseRule: BaseRule{
			RuleName: "inefficient-concat",
			RuleDesc: "Checks for arrays copied on every loop iteration with concat or spread instead of push",
			RuleSev:  SeverityWarning,
			RuleCat:  CategoryPerformance,
		},
	}
}

func (rule *InefficientConcatRule) VisitNodePre(n *ast.Node) error {
	if n.Kind != ast.KindAssign {
		return nil
	}
	left := n.Child("left").Unparen()
	if !left.Is(ast.KindIdent) {
		return nil
	}
	right := n.Child("right").Unparen()
	how := ""
	switch {
	case rule.isConcatOf(left, right):
		how = "concat"
	case rule.isSpreadOf(left, right):
		how = "spread"
	default:
		return nil
	}
	if enclosingLoop(n) == nil {
		return nil
	}
	rule.Reportf(n, "%q is copied with %s on every iteration; use %s.push(...) to append in place", left.Text, how, left.Text)
	return nil
}

// isConcatOf matches seq.concat(...) where seq is the assigned binding.
func (rule *InefficientConcatRule) isConcatOf(target, expr *ast.Node) bool {
	if !expr.Is(ast.KindCall) {
		return false
	}
	callee := expr.Child("function").Unparen()
	if !callee.Is(ast.KindMember) || callee.Child("property").Text != "concat" {
		return false
	}
	return rule.sameBinding(target, callee.Child("object").Unparen())
}

// isSpreadOf matches [...seq, ...] where seq is the assigned binding.
func (rule *InefficientConcatRule) isSpreadOf(target, expr *ast.Node) bool {
	if !expr.Is(ast.KindArray) {
		return false
	}
	first := expr.FirstChild()
	if !first.Is(ast.KindSpread) {
		return false
	}
	return rule.sameBinding(target, first.FirstChild().Unparen())
}

func (rule *InefficientConcatRule) sameBinding(a, b *ast.Node) bool {
	if !a.Is(ast.KindIdent) || !b.Is(ast.KindIdent) || a.Text != b.Text {
		return false
	}
	scopes := rule.Pass().Scopes
	if scopes == nil {
		return true
	}
	return scopes.Resolve(a) == scopes.Resolve(b)
}
