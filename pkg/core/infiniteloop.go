package core

import (
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

type InfiniteLoopRule struct {
	BaseRule
}

func NewInfiniteLoopRule() *InfiniteLoopRule {
	return &InfiniteLoopRule{
		BaseRule: BaseRule{
			RuleName: "infinite-loop",
			RuleDesc: "Checks for loops with a constant true condition and no way out",
			RuleSev:  SeverityWarning,
			RuleCat:  CategoryLogic,
		},
	}
}

func (rule *InfiniteLoopRule) VisitNodePre(n *ast.Node) error {
	if !n.Kind.IsLoop() || !alwaysTrue(n) {
		return nil
	}
	if hasLoopExit(n.Child("body"), 0, map[string]bool{}) {
		return nil
	}
	rule.Reportf(n, "%s loop never terminates: its condition is always true and its body has no break, return or throw", n.Kind)
	return nil
}

func alwaysTrue(loop *ast.Node) bool {
	cond := loop.Child("condition")
	switch loop.Kind {
	case ast.KindFor:
		if cond == nil || cond.Kind == ast.KindEmpty {
			return true
		}
		if cond.Kind == ast.KindExprStmt {
			cond = cond.FirstChild()
		}
	case ast.KindWhile, ast.KindDoWhile:
	default:
		return false
	}
	cond = cond.Unparen()
	return cond.Is(ast.KindBool) && cond.Text == "true"
}

// hasLoopExit reports whether n contains a statement leaving the loop. A
// yield or await hands control back to the caller, so a generator or async
// loop suspending on one is not reported.
// depth counts the loops and switches entered below the loop; labels holds
// the labels defined below it.
func hasLoopExit(n *ast.Node, depth int, labels map[string]bool) bool {
	if n == nil {
		return false
	}
	switch {
	case n.Kind.IsFunction(), n.Is(ast.KindClassDecl, ast.KindClassExpr):
		return false
	case n.Is(ast.KindReturn, ast.KindThrow, ast.KindYield, ast.KindAwait):
		return true
	case n.Is(ast.KindBreak):
		if label := n.FirstChild(); label.Is(ast.KindLabel) {
			return !labels[label.Text]
		}
		return depth == 0
	case n.Is(ast.KindLabeled):
		label := n.Child("label")
		if label != nil && !labels[label.Text] {
			labels[label.Text] = true
			defer delete(labels, label.Text)
		}
	case n.Kind.IsLoop(), n.Is(ast.KindSwitch):
		depth++
	}
	for _, c := range n.Children {
		if hasLoopExit(c, depth, labels) {
			return true
		}
	}
	return false
}
