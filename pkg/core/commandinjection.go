package core

import (
	"github.com/ultra-supara/scanalyzer/pkg/analysis"
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

var childProcessModules = map[string]bool{
	"child_process":      true,
	"node:child_process": true,
}

var processSpawners = map[string]bool{
	"exec":         true,
	"execSync":     true,
	"spawn":        true,
	"spawnSync":    true,
	"execFile":     true,
	"execFileSync": true,
	"fork":         true,
}

type CommandInjectionRule struct {
	BaseRule
}

func NewCommandInjectionRule() *CommandInjectionRule {
	return &CommandInjectionRule{
		BaseRule: BaseRule{
			RuleName: "command-injection",
			RuleDesc: "Checks for child_process calls whose command is built at runtime",
			RuleSev:  SeverityError,
			RuleCat:  CategorySecurity,
		},
	}
}

func (rule *CommandInjectionRule) VisitNodePre(n *ast.Node) error {
	if n.Kind != ast.KindCall {
		return nil
	}
	module, path, ok := calleeOrigin(rule.Pass().Scopes, n.Child("function"))
	if !ok || !childProcessModules[module] || len(path) != 1 || !processSpawners[path[0]] {
		return nil
	}
	args := callArguments(n)
	if len(args) == 0 || args[0].Kind == ast.KindSpread || isConstant(args[0]) {
		return nil
	}
	rule.Reportf(n, "command passed to %s.%s is built at runtime and may allow shell injection; pass a constant command and its arguments separately", module, path[0])
	return nil
}

// calleeOrigin traces a callee back to the module member it was loaded from.
func calleeOrigin(scopes *analysis.ScopeIndex, callee *ast.Node) (string, []string, bool) {
	callee = callee.Unparen()
	if callee == nil || scopes == nil {
		return "", nil, false
	}
	if callee.Kind == ast.KindIdent {
		return analysis.ModuleOrigin(scopes.Resolve(callee))
	}
	if callee.Kind != ast.KindMember {
		return "", nil, false
	}
	if root := rootIdent(callee); root != nil {
		props := memberPath(callee)
		if props == nil {
			return "", nil, false
		}
		module, path, ok := analysis.ModuleOrigin(scopes.Resolve(root))
		if !ok {
			return "", nil, false
		}
		return module, append(append([]string{}, path...), props[1:]...), true
	}
	return analysis.RequireOrigin(callee)
}
