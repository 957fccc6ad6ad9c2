package core

import (
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

type DeepCopyInLoopRule struct {
	BaseRule
}

func NewDeepCopyInLoopRule() *DeepCopyInLoopRule {
	return &DeepCopyInLoopRule{
		BaseRule: BaseRule{
			RuleName: "deep-copy-in-loop",
			RuleDesc: "Checks for JSON.parse(JSON.stringify(x)) clones inside loops",
			RuleSev:  SeverityWarning,
			RuleCat:  CategoryPerformance,
		},
	}
}

func (rule *DeepCopyInLoopRule) VisitNodePre(n *ast.Node) error {
	if !rule.isJSONCall(n, "parse") {
		return nil
	}
	args := callArguments(n)
	if len(args) != 1 {
		return nil
	}
	inner := args[0].Unparen()
	if !rule.isJSONCall(inner, "stringify") || len(callArguments(inner)) != 1 {
		return nil
	}
	if enclosingLoop(n) == nil {
		return nil
	}
	rule.Reportf(n, "JSON.parse(JSON.stringify(...)) serializes and parses a deep copy on every iteration; use structuredClone or copy only what changes")
	return nil
}

func (rule *DeepCopyInLoopRule) isJSONCall(n *ast.Node, method string) bool {
	if !n.Is(ast.KindCall) {
		return false
	}
	callee := n.Child("function").Unparen()
	path := memberPath(callee)
	if len(path) != 2 || path[0] != "JSON" || path[1] != method {
		return false
	}
	return isGlobalRef(rule.Pass().Scopes, rootIdent(callee))
}
