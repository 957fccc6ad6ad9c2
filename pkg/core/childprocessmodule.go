package core

import (
	"github.com/ultra-supara/scanalyzer/pkg/analysis"
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

type ChildProcessModuleRule struct {
	BaseRule
}

func NewChildProcessModuleRule() *ChildProcessModuleRule {
	return &ChildProcessModuleRule{
		BaseRule: BaseRule{
			RuleName: "child-process-module",
			RuleDesc: "Reports where the child_process module is loaded",
			RuleSev:  SeverityInfo,
			RuleCat:  CategorySecurity,
		},
	}
}

func (rule *ChildProcessModuleRule) VisitNodePre(n *ast.Node) error {
	var module string
	switch n.Kind {
	case ast.KindImport:
		m, ok := n.Child("source").StringValue()
		if !ok {
			return nil
		}
		module = m
	case ast.KindCall:
		// only the require call itself, not the member accesses around it
		m, path, ok := analysis.RequireOrigin(n)
		if !ok || len(path) != 0 {
			return nil
		}
		if !isGlobalRef(rule.Pass().Scopes, n.Child("function")) {
			return nil
		}
		module = m
	default:
		return nil
	}
	if childProcessModules[module] {
		rule.Reportf(n, "module %q can run arbitrary commands; make sure no user input reaches it", module)
	}
	return nil
}
