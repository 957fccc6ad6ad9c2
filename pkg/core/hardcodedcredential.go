package core

import (
	"regexp"

	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

var credentialName = regexp.MustCompile(`(?i)(password|passwd|pwd|secret|api_?key|access_?key|auth_?token|token)$`)

type HardcodedCredentialRule struct {
	BaseRule
}

func NewHardcodedCredentialRule() *HardcodedCredentialRule {
	return &HardcodedCredentialRule{
		BaseRule: BaseRule{
			RuleName: "hardcoded-credential",
			RuleDesc: "Checks for passwords, tokens and API keys written as string literals",
			RuleSev:  SeverityWarning,
			RuleCat:  CategorySecurity,
		},
	}
}

func (rule *HardcodedCredentialRule) VisitNodePre(n *ast.Node) error {
	var name, value *ast.Node
	switch n.Kind {
	case ast.KindDeclarator:
		name, value = n.Child("name"), n.Child("value")
	case ast.KindAssign:
		name, value = n.Child("left").Unparen(), n.Child("right")
		if name.Is(ast.KindMember) {
			name = name.Child("property")
		}
	case ast.KindPair:
		name, value = n.Child("key"), n.Child("value")
	case ast.KindField:
		name, value = n.Child("property"), n.Child("value")
	default:
		return nil
	}
	if name == nil || value == nil {
		return nil
	}
	key := name.Text
	if name.Kind == ast.KindString {
		key, _ = name.StringValue()
	} else if !name.Is(ast.KindIdent, ast.KindPropertyName) {
		return nil
	}
	if !credentialName.MatchString(key) {
		return nil
	}
	s, ok := value.Unparen().StringValue()
	if !ok || s == "" {
		return nil
	}
	rule.Reportf(value, "%q is assigned a hardcoded credential; load it from the environment or a secret store", key)
	return nil
}
