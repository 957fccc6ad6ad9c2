package core

import (
	"github.com/ultra-supara/scanalyzer/pkg/analysis"
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

// isConstant reports whether expr is known at parse time: a literal, a
// template without substitutions, or a + concatenation of those.
func isConstant(expr *ast.Node) bool {
	expr = expr.Unparen()
	if expr == nil {
		return false
	}
	switch expr.Kind {
	case ast.KindString, ast.KindNumber, ast.KindBool, ast.KindNull, ast.KindUndefined, ast.KindRegex:
		return true
	case ast.KindTemplate:
		_, ok := expr.StringValue()
		return ok
	case ast.KindBinary:
		return expr.Op == "+" && isConstant(expr.Child("left")) && isConstant(expr.Child("right"))
	case ast.KindUnary:
		return isConstant(expr.Child("argument"))
	}
	return false
}

// memberPath flattens an identifier or a chain of non-computed member
// accesses into names, e.g. window.document.write. It returns nil for any
// other expression.
func memberPath(expr *ast.Node) []string {
	expr = expr.Unparen()
	var path []string
	for expr.Is(ast.KindMember) {
		prop := expr.Child("property")
		if !prop.Is(ast.KindPropertyName) {
			return nil
		}
		path = append([]string{prop.Text}, path...)
		expr = expr.Child("object").Unparen()
	}
	switch {
	case expr.Is(ast.KindIdent):
		return append([]string{expr.Text}, path...)
	case expr.Is(ast.KindThis):
		return append([]string{"this"}, path...)
	}
	return nil
}

// rootIdent returns the identifier a member chain starts from, or nil.
func rootIdent(expr *ast.Node) *ast.Node {
	expr = expr.Unparen()
	for expr.Is(ast.KindMember, ast.KindSubscript) {
		expr = expr.Child("object").Unparen()
	}
	if expr.Is(ast.KindIdent) {
		return expr
	}
	return nil
}

// isGlobalRef reports whether id is an identifier with no binding in scope.
func isGlobalRef(scopes *analysis.ScopeIndex, id *ast.Node) bool {
	return id.Is(ast.KindIdent) && (scopes == nil || scopes.Resolve(id) == nil)
}

// callArguments returns the argument expressions of a call or new expression.
func callArguments(call *ast.Node) []*ast.Node {
	args := call.Child("arguments")
	if args == nil || args.Kind != ast.KindArguments {
		return nil
	}
	var out []*ast.Node
	for _, c := range args.Children {
		if c.Kind != ast.KindComment {
			out = append(out, c)
		}
	}
	return out
}

func hasSpread(args []*ast.Node) bool {
	for _, a := range args {
		if a.Kind == ast.KindSpread {
			return true
		}
	}
	return false
}

// iterationCallbacks are array methods whose function argument runs once
// per element.
var iterationCallbacks = map[string]bool{
	"forEach": true,
}

// enclosingLoop returns the loop statement, or the iteration method call,
// whose body contains n. Functions end the search unless they are the
// callback of an iteration method.
func enclosingLoop(n *ast.Node) *ast.Node {
	child := n
	for p := n.Parent; p != nil; child, p = p, p.Parent {
		if p.Kind.IsLoop() {
			if child.Field == "body" {
				return p
			}
			continue
		}
		if p.Kind.IsFunction() {
			if !isIterationCallback(p) {
				return nil
			}
			return p.Parent.Parent
		}
	}
	return nil
}

func isIterationCallback(fn *ast.Node) bool {
	args := fn.Parent
	if !args.Is(ast.KindArguments) {
		return false
	}
	call := args.Parent
	if !call.Is(ast.KindCall) {
		return false
	}
	callee := call.Child("function").Unparen()
	if !callee.Is(ast.KindMember) {
		return false
	}
	return iterationCallbacks[callee.Child("property").Text]
}
