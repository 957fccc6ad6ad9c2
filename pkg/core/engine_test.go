package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

type panickingRule struct {
	BaseRule
}

func (rule *panickingRule) VisitNodePre(n *ast.Node) error {
	if n.Kind == ast.KindCall {
		panic("boom")
	}
	return nil
}

type failingRule struct {
	BaseRule
}

func (rule *failingRule) VisitProgramPost(n *ast.Node) error {
	rule.Reportf(n.FirstChild(), "partial result")
	return errors.New("visitor failed")
}

type blockingRule struct {
	BaseRule
	release chan struct{}
}

func (rule *blockingRule) VisitProgramPre(n *ast.Node) error {
	<-rule.release
	return nil
}

func TestEngineRecoversPanickingRule(t *testing.T) {
	pass := newTestPass(t, "let a = 1;\neval(a);\n")
	bad := &panickingRule{BaseRule{RuleName: "panicky", RuleSev: SeverityError}}
	findings := NewEngine(NewConcurrentExecutor(2), 0).Evaluate(pass, []Rule{bad, NewUnsafeEvalRule()})

	var fault, eval *Finding
	for _, f := range findings {
		switch f.RuleID {
		case "panicky":
			fault = f
		case "unsafe-eval":
			eval = f
		}
	}
	if eval == nil {
		t.Fatalf("unsafe-eval finding missing from %v", findings)
	}
	if fault == nil {
		t.Fatalf("rule fault missing from %v", findings)
	}
	if !strings.HasPrefix(fault.Message, RuleFaultPrefix) || !strings.Contains(fault.Message, "boom") {
		t.Errorf("fault message = %q", fault.Message)
	}
	if fault.Severity != SeverityWarning || fault.Category != CategoryInternal {
		t.Errorf("fault = %+v, want an internal warning", fault)
	}
	if fault.Line() != 2 {
		t.Errorf("fault line = %d, want 2 where the rule panicked", fault.Line())
	}
}

func TestEngineKeepsFindingsOfFailingRule(t *testing.T) {
	pass := newTestPass(t, "run();\n")
	rule := &failingRule{BaseRule{RuleName: "failing"}}
	findings := NewEngine(NewConcurrentExecutor(1), 0).Evaluate(pass, []Rule{rule})
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2: %v", len(findings), findings)
	}
	if findings[0].Message != "partial result" {
		t.Errorf("findings[0] = %q, want the partial result", findings[0].Message)
	}
	if !strings.Contains(findings[1].Message, "visitor failed") {
		t.Errorf("findings[1] = %q, want the rule fault", findings[1].Message)
	}
}

func TestEngineTimeout(t *testing.T) {
	pass := newTestPass(t, "x();\n")
	rule := &blockingRule{BaseRule: BaseRule{RuleName: "slow"}, release: make(chan struct{})}
	defer close(rule.release)

	findings := NewEngine(NewConcurrentExecutor(1), 20*time.Millisecond).Evaluate(pass, []Rule{rule})
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0]
	if f.RuleID != "slow" || !strings.HasPrefix(f.Message, RuleFaultPrefix) {
		t.Errorf("finding = %v, want a rule fault of slow", f)
	}
	if !strings.Contains(f.Message, "time budget") {
		t.Errorf("message = %q, want it to mention the time budget", f.Message)
	}
}

func TestEngineFindingsInRuleOrder(t *testing.T) {
	pass := newTestPass(t, "const password = \"x\";\neval(password);\n")
	rules := []Rule{NewUnsafeEvalRule(), NewHardcodedCredentialRule()}
	findings := NewEngine(NewConcurrentExecutor(4), 0).Evaluate(pass, rules)
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(findings))
	}
	if findings[0].RuleID != "unsafe-eval" || findings[1].RuleID != "hardcoded-credential" {
		t.Errorf("rule order = %s, %s", findings[0].RuleID, findings[1].RuleID)
	}
}

func TestEngineDebugOutputCountsSettledFindings(t *testing.T) {
	pass := newTestPass(t, "eval(code);\n")
	slow := &blockingRule{BaseRule: BaseRule{RuleName: "slow"}, release: make(chan struct{})}
	defer close(slow.release)

	var out bytes.Buffer
	engine := NewEngine(NewConcurrentExecutor(2), 100*time.Millisecond)
	engine.EnableDebugOutput(&out)
	findings := engine.Evaluate(pass, []Rule{slow, NewUnsafeEvalRule()})
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2: %v", len(findings), findings)
	}
	for _, want := range []string{"[engine] slow found 1 findings", "[engine] unsafe-eval found 1 findings"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("debug output does not contain %q:\n%s", want, out.String())
		}
	}
}
