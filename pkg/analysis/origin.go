package analysis

import "github.com/ultra-supara/scanalyzer/pkg/ast"

// ModuleOrigin traces a binding back to the module it was loaded from. It
// understands ES imports, require calls and property accesses on a require
// call, optionally destructured:
//
//	import { exec } from "child_process"       // child_process [exec]
//	const cp = require("child_process")        // child_process []
//	const { exec } = require("child_process")  // child_process [exec]
//	const run = require("child_process").exec  // child_process [exec]
//
// Default and namespace imports yield an empty path.
func ModuleOrigin(b *Binding) (module string, path []string, ok bool) {
	if b == nil || b.Init == nil {
		return "", nil, false
	}
	switch b.Kind {
	case BindingImport:
		module, ok = b.Init.Child("source").StringValue()
		if !ok {
			return "", nil, false
		}
		if len(b.Path) == 1 && b.Path[0] == "default" {
			return module, nil, true
		}
		return module, b.Path, true
	case BindingVar, BindingLet, BindingConst:
		var prefix []string
		module, prefix, ok = RequireOrigin(b.Init)
		if !ok {
			return "", nil, false
		}
		return module, append(prefix, b.Path...), true
	}
	return "", nil, false
}

// RequireOrigin matches require("m") followed by any chain of property
// accesses and returns the module name and the accessed property path.
func RequireOrigin(expr *ast.Node) (module string, path []string, ok bool) {
	expr = expr.Unparen()
	var props []string
	for expr.Is(ast.KindMember) {
		props = append([]string{expr.Child("property").Text}, props...)
		expr = expr.Child("object").Unparen()
	}
	if !expr.Is(ast.KindCall) {
		return "", nil, false
	}
	callee := expr.Child("function")
	if !callee.Is(ast.KindIdent) || callee.Text != "require" {
		return "", nil, false
	}
	args := expr.Child("arguments")
	if args == nil {
		return "", nil, false
	}
	module, ok = args.FirstChild().StringValue()
	if !ok {
		return "", nil, false
	}
	return module, props, true
}
