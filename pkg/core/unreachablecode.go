package core

import (
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

type UnreachableCodeRule struct {
	BaseRule
}

func NewUnreachableCodeRule() *UnreachableCodeRule {
	return &UnreachableCodeRule{
		BaseRule: BaseRule{
			RuleName: "unreachable-code",
			RuleDesc: "Checks for statements after return, throw, break or continue",
			RuleSev:  SeverityWarning,
			RuleCat:  CategoryLogic,
		},
	}
}

func (rule *UnreachableCodeRule) VisitProgramPre(n *ast.Node) error {
	r := rule.Pass().Reachability
	if r == nil {
		return nil
	}
	for _, stmt := range r.Unreachable() {
		exit := r.Terminator(stmt)
		if stmt.Kind == ast.KindFunctionDecl {
			// the binding is hoisted, only its position is dead
			rule.Reportf(stmt, "function %q is declared after %s statement at line %d; move it before the exit", stmt.Name(), exit.Kind, exit.Span.Pos.Line)
			continue
		}
		rule.Reportf(stmt, "unreachable code after %s statement at line %d", exit.Kind, exit.Span.Pos.Line)
	}
	return nil
}
