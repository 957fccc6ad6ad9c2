package core

import (
	"testing"
)

func TestUnreachableCodeRule(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []int
	}{
		{
			name: "statement after return",
			src: `function unreachableCode() {
  return "Done";
  console.log("This will never be executed");
}`,
			want: []int{3},
		},
		{
			name: "every statement after throw",
			src: `function f() {
  throw new Error("x");
  a();
  b();
}`,
			want: []int{3, 4},
		},
		{
			name: "return inside if",
			src: `function f(x) {
  if (x) {
    return 1;
  }
  return 2;
}`,
			want: []int{},
		},
		{
			name: "after break in a loop",
			src: `for (;;) {
  break;
  next();
}`,
			want: []int{3},
		},
		{
			name: "function declared after return",
			src: `function f() {
  return g();
  function g() { return 1; }
}`,
			want: []int{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lines(runRule(t, NewUnreachableCodeRule(), tt.src))
			if !equalLines(got, tt.want) {
				t.Errorf("findings at lines %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnreachableCodeRuleFinding(t *testing.T) {
	findings := runRule(t, NewUnreachableCodeRule(), `function f() {
  return "Done";
  console.log("never");
}`)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0]
	if f.Line() != 3 || f.Column() != 3 {
		t.Errorf("position = %d:%d, want 3:3", f.Line(), f.Column())
	}
	if want := "unreachable code after return statement at line 2"; f.Message != want {
		t.Errorf("message = %q, want %q", f.Message, want)
	}
	if f.Severity != SeverityWarning || f.Category != CategoryLogic {
		t.Errorf("finding = %+v, want a logic warning", f)
	}
}

func TestUnreachableCodeRuleFunctionDeclaration(t *testing.T) {
	findings := runRule(t, NewUnreachableCodeRule(), `function f() {
  return 1;
  function g() {}
}`)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0]
	if f.Line() != 3 || f.Column() != 3 {
		t.Errorf("position = %d:%d, want 3:3", f.Line(), f.Column())
	}
	if want := `function "g" is declared after return statement at line 2; move it before the exit`; f.Message != want {
		t.Errorf("message = %q, want %q", f.Message, want)
	}
}
