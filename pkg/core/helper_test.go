package core

import (
	"context"
	"testing"

	"github.com/ultra-supara/scanalyzer/pkg/analysis"
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

func newTestPass(t *testing.T, src string) *Pass {
	t.Helper()
	root, err := ast.Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("could not parse test source: %v\n%s", err, src)
	}
	return &Pass{
		Context:      context.Background(),
		FilePath:     "test.js",
		Source:       []byte(src),
		Root:         root,
		Scopes:       analysis.BuildScopes(root),
		Reachability: analysis.AnalyzeReachability(root),
	}
}

func runRule(t *testing.T, rule Rule, src string) []*Finding {
	t.Helper()
	return NewEngine(NewConcurrentExecutor(1), 0).Evaluate(newTestPass(t, src), []Rule{rule})
}

func lines(findings []*Finding) []int {
	out := make([]int, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Line())
	}
	return out
}

func equalLines(got, want []int) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func messages(findings []*Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Message)
	}
	return out
}
