package core

import (
	"strings"

	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

// evalReceivers are the global objects eval can be reached through.
var evalReceivers = map[string]bool{
	"window":     true,
	"globalThis": true,
	"global":     true,
	"self":       true,
}

type UnsafeEvalRule struct {
	BaseRule
}

func NewUnsafeEvalRule() *UnsafeEvalRule {
	return &UnsafeEvalRule{
		BaseRule: BaseRule{
			RuleName: "unsafe-eval",
			RuleDesc: "Checks for eval and the Function constructor called with code that is not a string literal",
			RuleSev:  SeverityError,
			RuleCat:  CategorySecurity,
		},
	}
}

func (rule *UnsafeEvalRule) VisitNodePre(n *ast.Node) error {
	if !n.Is(ast.KindCall, ast.KindNew) {
		return nil
	}
	callee := n.Child("function")
	if n.Kind == ast.KindNew {
		callee = n.Child("constructor")
	}
	name, ok := rule.primitive(callee)
	if !ok {
		return nil
	}

	args := callArguments(n)
	if len(args) == 0 || hasSpread(args) {
		return nil
	}
	code := args[0]
	if strings.HasSuffix(name, "Function") {
		// the body is the last argument, the others name parameters
		code = args[len(args)-1]
	}
	if isConstant(code) {
		return nil
	}
	rule.Reportf(n, "%s called with a dynamic argument executes arbitrary code; avoid evaluating strings built at runtime", name)
	return nil
}

// primitive matches callees that evaluate strings as code and returns the
// name to report.
func (rule *UnsafeEvalRule) primitive(callee *ast.Node) (string, bool) {
	path := memberPath(callee)
	scopes := rule.Pass().Scopes
	switch len(path) {
	case 1:
		if path[0] != "eval" && path[0] != "Function" {
			return "", false
		}
	case 2:
		if !evalReceivers[path[0]] || (path[1] != "eval" && path[1] != "Function") {
			return "", false
		}
	default:
		return "", false
	}
	if root := rootIdent(callee); !isGlobalRef(scopes, root) {
		rule.Debug("%s is shadowed by a local binding at %s", path[0], callee.Span.Pos)
		return "", false
	}
	return strings.Join(path, "."), true
}
