package core

import (
	"strings"

	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

type UnsafeInnerHTMLRule struct {
	BaseRule
}

func NewUnsafeInnerHTMLRule() *UnsafeInnerHTMLRule {
	return &UnsafeInnerHTMLRule{
		BaseRule: BaseRule{
			RuleName: "unsafe-inner-html",
			RuleDesc: "Checks for HTML built at runtime written with innerHTML, outerHTML or document.write",
			RuleSev:  SeverityError,
			RuleCat:  CategorySecurity,
		},
	}
}

func (rule *UnsafeInnerHTMLRule) VisitNodePre(n *ast.Node) error {
	switch n.Kind {
	case ast.KindAssign, ast.KindAugmentedAssign:
		if n.Kind == ast.KindAugmentedAssign && n.Op != "+=" {
			return nil
		}
		left := n.Child("left").Unparen()
		if !left.Is(ast.KindMember) {
			return nil
		}
		prop := left.Child("property").Text
		if prop != "innerHTML" && prop != "outerHTML" {
			return nil
		}
		if isConstant(n.Child("right")) {
			return nil
		}
		rule.Reportf(n, "assigning a dynamic value to %s allows cross-site scripting; use textContent or sanitize the HTML", prop)
	case ast.KindCall:
		callee := n.Child("function")
		path := memberPath(callee)
		if len(path) != 2 || path[0] != "document" || (path[1] != "write" && path[1] != "writeln") {
			return nil
		}
		if !isGlobalRef(rule.Pass().Scopes, rootIdent(callee)) {
			return nil
		}
		args := callArguments(n)
		if len(args) == 0 {
			return nil
		}
		for _, a := range args {
			if !isConstant(a) {
				rule.Reportf(n, "%s with a dynamic argument allows cross-site scripting", strings.Join(path, "."))
				return nil
			}
		}
	}
	return nil
}
