package core

import (
	"github.com/ultra-supara/scanalyzer/pkg/analysis"
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

type UnusedBindingRule struct {
	BaseRule
}

func NewUnusedBindingRule() *UnusedBindingRule {
	return &UnusedBindingRule{
		BaseRule: BaseRule{
			RuleName: "unused-binding",
			RuleDesc: "Checks for variables, imports and inner functions that are never read",
			RuleSev:  SeverityInfo,
			RuleCat:  CategoryStyle,
		},
	}
}

// VisitProgramPost runs once every reference of the program is resolved.
func (rule *UnusedBindingRule) VisitProgramPost(n *ast.Node) error {
	scopes := rule.Pass().Scopes
	if scopes == nil {
		return nil
	}
	ignore := rule.ignorePattern("^_")
	for _, b := range scopes.Bindings() {
		if b.Used() || b.Exported || !rule.eligible(b) {
			continue
		}
		if ignore != nil && ignore.MatchString(b.Name) {
			rule.Debug("%q matches the ignore pattern", b.Name)
			continue
		}
		what := "variable"
		switch b.Kind {
		case analysis.BindingImport:
			what = "import"
		case analysis.BindingFunction:
			what = "function"
		}
		if b.Writes > 0 {
			rule.Reportf(b.Decl, "%s %q is assigned but never used", what, b.Name)
		} else {
			rule.Reportf(b.Decl, "%s %q is declared but never used", what, b.Name)
		}
	}
	return nil
}

func (rule *UnusedBindingRule) eligible(b *analysis.Binding) bool {
	switch b.Kind {
	case analysis.BindingVar, analysis.BindingLet, analysis.BindingConst, analysis.BindingImport:
		return true
	case analysis.BindingFunction:
		// program level functions are entry points for other scripts
		return b.Decl.Parent.EnclosingFunction() != nil
	}
	return false
}
