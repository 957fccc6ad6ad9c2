package core

import (
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

type ConsoleLogRule struct {
	BaseRule
}

func NewConsoleLogRule() *ConsoleLogRule {
	return &ConsoleLogRule{
		BaseRule: BaseRule{
			RuleName:     "console-log",
			RuleDesc:     "Checks for leftover console.log calls",
			RuleSev:      SeverityInfo,
			RuleCat:      CategoryStyle,
			OffByDefault: true,
		},
	}
}

func (rule *ConsoleLogRule) VisitNodePre(n *ast.Node) error {
	if n.Kind != ast.KindCall {
		return nil
	}
	callee := n.Child("function")
	path := memberPath(callee)
	if len(path) == 2 && path[0] == "console" && path[1] == "log" && isGlobalRef(rule.Pass().Scopes, rootIdent(callee)) {
		rule.Reportf(n, "console.log call left in the code")
	}
	return nil
}
