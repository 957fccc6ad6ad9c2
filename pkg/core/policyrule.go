package core

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/open-policy-agent/opa/rego"
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

//go:embed policies/scanalyzer.rego
var builtinPolicy string

const policyQuery = "data.scanalyzer.violations"

// PolicySet is a prepared Rego query over the builtin policy and the
// policies listed in the config. It is safe for concurrent use.
type PolicySet struct {
	query rego.PreparedEvalQuery
}

// NewPolicySet compiles the builtin policy together with the policy files.
func NewPolicySet(ctx context.Context, files []string) (*PolicySet, error) {
	opts := []func(*rego.Rego){
		rego.Query(policyQuery),
		rego.Module("scanalyzer.rego", builtinPolicy),
	}
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("could not read policy file %q: %w", f, err)
		}
		opts = append(opts, rego.Module(f, string(b)))
	}
	query, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare Rego query: %w", err)
	}
	return &PolicySet{query: query}, nil
}

type PolicyRule struct {
	BaseRule
	policies *PolicySet
	config   *Config
}

func NewPolicyRule(policies *PolicySet) *PolicyRule {
	return &PolicyRule{
		BaseRule: BaseRule{
			RuleName: "policy",
			RuleDesc: "Evaluates every call expression against Rego policies",
			RuleSev:  SeverityWarning,
			RuleCat:  CategorySecurity,
		},
		policies: policies,
	}
}

// UpdateConfig keeps the whole config, since violations name their own rule
// ids and each of them has its own rules.<id> section.
func (rule *PolicyRule) UpdateConfig(config *Config) error {
	if err := rule.BaseRule.UpdateConfig(config); err != nil {
		return err
	}
	rule.config = config
	return nil
}

func (rule *PolicyRule) VisitNodePre(n *ast.Node) error {
	if n.Kind != ast.KindCall || rule.policies == nil {
		return nil
	}
	ctx := rule.Pass().Context
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := rule.policies.query.Eval(ctx, rego.EvalInput(rule.input(n)))
	if err != nil {
		return fmt.Errorf("failed to evaluate policy at %s: %w", n.Span.Pos, err)
	}
	for _, result := range results {
		for _, expr := range result.Expressions {
			violations, ok := expr.Value.([]interface{})
			if !ok {
				continue
			}
			for _, violation := range violations {
				if v, ok := violation.(map[string]interface{}); ok {
					rule.reportViolation(n, v)
				}
			}
		}
	}
	return nil
}

func (rule *PolicyRule) reportViolation(n *ast.Node, v map[string]interface{}) {
	message, _ := v["message"].(string)
	if message == "" {
		rule.Debug("violation without message at %s: %v", n.Span.Pos, v)
		return
	}
	f := &Finding{
		RuleID:   rule.RuleName,
		Severity: rule.RuleSev,
		Category: rule.RuleCat,
		Span:     n.Span,
		Message:  message,
		FilePath: rule.Pass().FilePath,
	}
	if id, ok := v["id"].(string); ok && id != "" {
		f.RuleID = id
	}
	if s, ok := v["severity"].(string); ok {
		if sev, err := ParseSeverity(s); err == nil {
			f.Severity = sev
		}
	}
	if c, ok := v["category"].(string); ok && c != "" {
		f.Category = Category(c)
	}
	if f.RuleID != rule.RuleName {
		if opts := rule.config.Rule(f.RuleID); opts != nil {
			if opts.Enabled != nil && !*opts.Enabled {
				rule.Debug("%s is disabled by the config", f.RuleID)
				return
			}
			if sev, err := ParseSeverity(opts.Severity); err == nil {
				f.Severity = sev
			}
		}
	}
	rule.findings = append(rule.findings, f)
}

// input describes a call expression to the policies.
func (rule *PolicyRule) input(call *ast.Node) map[string]interface{} {
	callee := call.Child("function")
	in := map[string]interface{}{
		"callee":    strings.Join(memberPath(callee), "."),
		"arguments": policyArguments(callArguments(call)),
		"line":      call.Span.Pos.Line,
		"column":    call.Span.Pos.Col,
		"in_loop":   enclosingLoop(call) != nil,
	}
	if module, member, ok := calleeOrigin(rule.Pass().Scopes, callee); ok {
		in["module"] = module
		m := make([]interface{}, 0, len(member))
		for _, s := range member {
			m = append(m, s)
		}
		in["member"] = m
	}
	return in
}

func policyArguments(args []*ast.Node) []interface{} {
	out := make([]interface{}, 0, len(args))
	for _, a := range args {
		a = a.Unparen()
		arg := map[string]interface{}{
			"kind":       a.Kind.String(),
			"properties": map[string]interface{}{},
		}
		if v, ok := literalValue(a); ok {
			arg["value"] = v
		}
		if a.Kind == ast.KindObject {
			props := map[string]interface{}{}
			for _, p := range a.Children {
				if p.Kind != ast.KindPair {
					continue
				}
				key := p.Child("key")
				name := key.Text
				if s, ok := key.StringValue(); ok {
					name = s
				}
				if v, ok := literalValue(p.Child("value").Unparen()); ok {
					props[name] = v
				} else {
					props[name] = p.Child("value").Kind.String()
				}
			}
			arg["properties"] = props
		}
		out = append(out, arg)
	}
	return out
}

func literalValue(n *ast.Node) (interface{}, bool) {
	if s, ok := n.StringValue(); ok {
		return s, true
	}
	switch {
	case n.Is(ast.KindBool):
		return n.Text == "true", true
	case n.Is(ast.KindNull):
		return nil, true
	case n.Is(ast.KindNumber):
		if f, err := strconv.ParseFloat(n.Text, 64); err == nil {
			return f, true
		}
	}
	return nil, false
}
