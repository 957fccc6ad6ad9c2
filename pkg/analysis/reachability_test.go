package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ultra-supara/scanalyzer/pkg/analysis"
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

func unreachableText(t *testing.T, src string) []string {
	t.Helper()
	r := analysis.AnalyzeReachability(parse(t, src))
	var out []string
	for _, n := range r.Unreachable() {
		out = append(out, src[n.Span.Start:n.Span.End])
	}
	return out
}

func TestReachability(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "statement after return",
			src:  "function f() {\n  return \"Done\";\n  console.log(\"never\");\n}",
			want: []string{`console.log("never");`},
		},
		{
			name: "every later sibling",
			src:  "function f() { throw err; a(); b(); }",
			want: []string{"a();", "b();"},
		},
		{
			name: "break in loop body",
			src:  "while (x) { break; y(); }\nz();",
			want: []string{"y();"},
		},
		{
			name: "continue in for-of",
			src:  "for (const a of b) { continue; c(); }",
			want: []string{"c();"},
		},
		{
			name: "if without else does not terminate",
			src:  "function f() { if (a) { return 1; } b(); }",
			want: nil,
		},
		{
			name: "if with else terminating both ways",
			src:  "function f() { if (a) { return 1; } else { return 2; } b(); }",
			want: []string{"b();"},
		},
		{
			name: "if with only one branch terminating",
			src:  "function f() { if (a) return 1; else g(); b(); }",
			want: nil,
		},
		{
			name: "loop never terminates the enclosing sequence",
			src:  "function f() { while (true) { return; } b(); }",
			want: nil,
		},
		{
			name: "switch case sequences",
			src:  "switch (x) { case 1: f(); break; g(); default: h(); }",
			want: []string{"g();"},
		},
		{
			name: "try with terminating finally",
			src:  "function f() { try { a(); } finally { return; } b(); }",
			want: []string{"b();"},
		},
		{
			name: "try with terminating body and catch",
			src:  "function f() { try { return a(); } catch (e) { throw e; } b(); }",
			want: []string{"b();"},
		},
		{
			name: "try with catch that falls through",
			src:  "function f() { try { return a(); } catch (e) { log(e); } b(); }",
			want: nil,
		},
		{
			name: "nested block terminates",
			src:  "function f() { { return; } b(); }",
			want: []string{"b();"},
		},
		{
			name: "function declaration after return",
			src:  "function f() { return g(); function g() { return 1; } }",
			want: []string{"function g() { return 1; }"},
		},
		{
			name: "empty statement after return",
			src:  "function f() { return 1;; }",
			want: []string{";"},
		},
		{
			name: "arrow callback bodies",
			src:  "items.forEach((i) => { return; use(i); });",
			want: []string{"use(i);"},
		},
		{
			name: "comments are not statements",
			src:  "function f() { return; // done\n}",
			want: nil,
		},
		{
			name: "nested unreachable statements are not listed twice",
			src:  "function f() { return; if (a) { return; b(); } }",
			want: []string{"if (a) { return; b(); }"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unreachableText(t, tt.src))
		})
	}
}

func TestReachabilityTerminator(t *testing.T) {
	root := parse(t, "function f() { return 1; g(); }")
	r := analysis.AnalyzeReachability(root)
	stmts := r.Unreachable()
	if assert.Len(t, stmts, 1) {
		assert.True(t, r.IsUnreachable(stmts[0]))
		assert.Equal(t, ast.KindReturn, r.Terminator(stmts[0]).Kind)
	}
	assert.False(t, r.IsUnreachable(root))
	assert.Nil(t, r.Terminator(root))
}
