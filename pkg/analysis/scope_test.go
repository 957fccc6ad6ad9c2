package analysis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ultra-supara/scanalyzer/pkg/analysis"
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

func parse(t *testing.T, src string) *ast.Node {
	t.Helper()
	root, err := ast.Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return root
}

func binding(t *testing.T, index *analysis.ScopeIndex, name string) *analysis.Binding {
	t.Helper()
	for _, b := range index.Bindings() {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("no binding named %q", name)
	return nil
}

func TestUnusedVariable(t *testing.T) {
	index := analysis.BuildScopes(parse(t, `
function unusedVariable() {
  let x = 10;
  let y = 20;
  return y;
}`))

	x := binding(t, index, "x")
	assert.Equal(t, analysis.BindingLet, x.Kind)
	assert.Equal(t, 0, x.Reads)
	assert.Equal(t, 1, x.Writes)
	assert.False(t, x.Used())

	y := binding(t, index, "y")
	assert.Equal(t, 1, y.Reads)
	assert.True(t, y.Used())
	assert.Equal(t, analysis.ScopeFunction, y.Scope.Kind)
}

func TestAssignmentIsWriteOnly(t *testing.T) {
	index := analysis.BuildScopes(parse(t, `
let a;
a = 1;
let b = 0;
b += 1;
let c = 0;
use(c++);
`))
	a := binding(t, index, "a")
	assert.Equal(t, 0, a.Reads)
	assert.Equal(t, 1, a.Writes)

	b := binding(t, index, "b")
	assert.Equal(t, 0, b.Reads)
	assert.Equal(t, 2, b.Writes)

	c := binding(t, index, "c")
	assert.Equal(t, 1, c.Reads)
	assert.Equal(t, 2, c.Writes)
}

func TestHoisting(t *testing.T) {
	index := analysis.BuildScopes(parse(t, `
function outer() {
  helper();
  use(v);
  if (cond) { var v = 1; }
  function helper() {}
}`))
	helper := binding(t, index, "helper")
	assert.Equal(t, analysis.BindingFunction, helper.Kind)
	assert.Equal(t, 1, helper.Reads)

	v := binding(t, index, "v")
	assert.Equal(t, analysis.BindingVar, v.Kind)
	assert.Equal(t, analysis.ScopeFunction, v.Scope.Kind)
	assert.Equal(t, 1, v.Reads)
}

func TestBlockScopeShadowing(t *testing.T) {
	root := parse(t, `
let n = 1;
{
  let n = 2;
  use(n);
}
`)
	index := analysis.BuildScopes(root)
	var outer, inner *analysis.Binding
	for _, b := range index.Bindings() {
		if b.Name != "n" {
			continue
		}
		if b.Scope.Kind == analysis.ScopeProgram {
			outer = b
		} else {
			inner = b
		}
	}
	if assert.NotNil(t, outer) && assert.NotNil(t, inner) {
		assert.Equal(t, 0, outer.Reads)
		assert.Equal(t, 1, inner.Reads)
		assert.Equal(t, analysis.ScopeBlock, inner.Scope.Kind)
	}
}

func TestMemberPropertiesAreNotReferences(t *testing.T) {
	index := analysis.BuildScopes(parse(t, `
const concat = 1;
const obj = { concat: 2 };
obj.concat([]);
`))
	assert.Equal(t, 0, binding(t, index, "concat").Reads)
	assert.Equal(t, 1, binding(t, index, "obj").Reads)
}

func TestShorthandPropertyIsRead(t *testing.T) {
	index := analysis.BuildScopes(parse(t, "const a = 1;\nuse({ a });\n"))
	assert.Equal(t, 1, binding(t, index, "a").Reads)
}

func TestDestructuringRequire(t *testing.T) {
	index := analysis.BuildScopes(parse(t, `
const { exec, spawn: run } = require("child_process");
exec(cmd);
`))
	exec := binding(t, index, "exec")
	assert.Equal(t, analysis.BindingConst, exec.Kind)
	assert.Equal(t, []string{"exec"}, exec.Path)
	assert.Equal(t, 1, exec.Reads)

	run := binding(t, index, "run")
	assert.Equal(t, []string{"spawn"}, run.Path)
	assert.False(t, run.Used())

	module, path, ok := analysis.ModuleOrigin(exec)
	assert.True(t, ok)
	assert.Equal(t, "child_process", module)
	assert.Equal(t, []string{"exec"}, path)
}

func TestImportBindings(t *testing.T) {
	index := analysis.BuildScopes(parse(t, `
import cp from "child_process";
import { execSync as run } from "node:child_process";
import * as fs from "fs";
run(cp, fs);
`))
	run := binding(t, index, "run")
	assert.Equal(t, analysis.BindingImport, run.Kind)
	module, path, ok := analysis.ModuleOrigin(run)
	assert.True(t, ok)
	assert.Equal(t, "node:child_process", module)
	assert.Equal(t, []string{"execSync"}, path)

	_, path, _ = analysis.ModuleOrigin(binding(t, index, "fs"))
	assert.Empty(t, path)
	assert.Equal(t, 1, binding(t, index, "cp").Reads)
}

func TestUnresolvedReferences(t *testing.T) {
	root := parse(t, "eval(input);")
	index := analysis.BuildScopes(root)
	var names []string
	for _, id := range index.Unresolved {
		names = append(names, id.Text)
	}
	assert.Equal(t, []string{"eval", "input"}, names)
}

func TestCatchParameter(t *testing.T) {
	index := analysis.BuildScopes(parse(t, "try { f(); } catch (err) { log(err); }"))
	err := binding(t, index, "err")
	assert.Equal(t, analysis.BindingCatchParam, err.Kind)
	assert.Equal(t, analysis.ScopeCatch, err.Scope.Kind)
	assert.Equal(t, 1, err.Reads)
}

func TestRedeclaration(t *testing.T) {
	index := analysis.BuildScopes(parse(t, "var a = 1;\nvar a = 2;\nuse(a);\n"))
	a := binding(t, index, "a")
	assert.True(t, a.Redeclared)
	assert.Len(t, a.Redeclarations, 1)
	assert.Equal(t, 2, a.Writes)
	assert.Equal(t, 1, a.Reads)
	assert.Len(t, index.Root.Bindings(), 1)
}

func TestForOfDeclaration(t *testing.T) {
	root := parse(t, "for (const item of items) { total(item); }")
	index := analysis.BuildScopes(root)
	item := binding(t, index, "item")
	assert.Equal(t, analysis.BindingConst, item.Kind)
	assert.Equal(t, 1, item.Reads)
	assert.Equal(t, analysis.ScopeBlock, item.Scope.Kind)
}

func TestParametersAndSelfName(t *testing.T) {
	index := analysis.BuildScopes(parse(t, "const f = function fact(n, { depth = 1 }) { return n ? fact(n - 1) : depth; };"))
	n := binding(t, index, "n")
	assert.Equal(t, analysis.BindingParam, n.Kind)
	assert.Equal(t, 2, n.Reads)

	self := binding(t, index, "fact")
	assert.Equal(t, analysis.BindingSelf, self.Kind)
	assert.Equal(t, 1, self.Reads)

	assert.Equal(t, analysis.BindingParam, binding(t, index, "depth").Kind)
}

func TestResolve(t *testing.T) {
	root := parse(t, "function eval(x) { return x; }\neval(1);\n")
	index := analysis.BuildScopes(root)
	var callee *ast.Node
	root.Walk(func(n *ast.Node) bool {
		if n.Kind == ast.KindCall {
			callee = n.Child("function")
		}
		return true
	})
	if assert.NotNil(t, callee) {
		b := index.Resolve(callee)
		if assert.NotNil(t, b) {
			assert.Equal(t, analysis.BindingFunction, b.Kind)
		}
		assert.Same(t, index.Root, index.Enclosing(callee))
	}
}
