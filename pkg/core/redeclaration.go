package core

import (
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

type RedeclarationRule struct {
	BaseRule
}

func NewRedeclarationRule() *RedeclarationRule {
	return &RedeclarationRule{
		BaseRule: BaseRule{
			RuleName: "redeclaration",
			RuleDesc: "Checks for names declared twice in the same scope",
			RuleSev:  SeverityWarning,
			RuleCat:  CategoryLogic,
		},
	}
}

func (rule *RedeclarationRule) VisitProgramPost(n *ast.Node) error {
	scopes := rule.Pass().Scopes
	if scopes == nil {
		return nil
	}
	for _, b := range scopes.Bindings() {
		for _, id := range b.Redeclarations {
			rule.Reportf(id, "%q is already declared in this scope", b.Name)
		}
	}
	return nil
}
