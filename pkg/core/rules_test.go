package core

import (
	"strings"
	"testing"
)

func TestUnsafeInnerHTMLRule(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []int
	}{
		{name: "dynamic innerHTML", src: `el.innerHTML = "<b>" + name + "</b>";`, want: []int{1}},
		{name: "constant innerHTML", src: `el.innerHTML = "<br>";`, want: []int{}},
		{name: "append to outerHTML", src: `el.outerHTML += html;`, want: []int{1}},
		{name: "other compound operator", src: `el.innerHTML ||= html;`, want: []int{}},
		{name: "textContent", src: `el.textContent = name;`, want: []int{}},
		{name: "document.write", src: `document.write(location.hash);`, want: []int{1}},
		{name: "document.writeln constant", src: `document.writeln("<p>hi</p>");`, want: []int{}},
		{name: "local document", src: "const document = fake();\ndocument.write(x);", want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lines(runRule(t, NewUnsafeInnerHTMLRule(), tt.src))
			if !equalLines(got, tt.want) {
				t.Errorf("findings at lines %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSQLInjectionRule(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []int
	}{
		{name: "concatenated where clause", src: `db.query("SELECT * FROM users WHERE id = " + id);`, want: []int{1}},
		{name: "template", src: "db.query(`DELETE FROM sessions WHERE user = ${user}`);", want: []int{1}},
		{name: "long chain reported once", src: `q = "UPDATE t SET a = " + a + ", b = " + b + " WHERE id = " + id;`, want: []int{1}},
		{name: "constant query", src: `db.query("SELECT * FROM users");`, want: []int{}},
		{name: "placeholders", src: `db.query("SELECT * FROM users WHERE id = ?", [id]);`, want: []int{}},
		{name: "tagged template", src: "sql`SELECT * FROM users WHERE id = ${id}`;", want: []int{}},
		{name: "not a query", src: `msg = "selected " + n + " items from list";`, want: []int{}},
		{name: "insert", src: `run("insert into logs values (" + v + ")");`, want: []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lines(runRule(t, NewSQLInjectionRule(), tt.src))
			if !equalLines(got, tt.want) {
				t.Errorf("findings at lines %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChildProcessModuleRule(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []int
	}{
		{name: "require", src: `const cp = require("child_process");`, want: []int{1}},
		{name: "require with member", src: `const exec = require("child_process").exec;`, want: []int{1}},
		{name: "import", src: `import { spawn } from "node:child_process";`, want: []int{1}},
		{name: "other module", src: `const fs = require("fs");`, want: []int{}},
		{name: "local require", src: "function require(m) {}\nrequire(\"child_process\");", want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lines(runRule(t, NewChildProcessModuleRule(), tt.src))
			if !equalLines(got, tt.want) {
				t.Errorf("findings at lines %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConsoleLogRule(t *testing.T) {
	rule := NewConsoleLogRule()
	if rule.EnabledByDefault() {
		t.Error("console-log is enabled by default")
	}
	got := lines(runRule(t, rule, "console.log(a);\nconsole.error(b);\nlogger.log(c);"))
	if !equalLines(got, []int{1}) {
		t.Errorf("findings at lines %v, want [1]", got)
	}
}

func TestLongLineRule(t *testing.T) {
	long := "const s = \"" + strings.Repeat("x", 130) + "\";"
	src := "let a = 1;\n" + long + "\n"

	got := runRule(t, NewLongLineRule(), src)
	if len(got) != 1 || got[0].Line() != 2 {
		t.Fatalf("findings = %v, want one on line 2", got)
	}

	rule := NewLongLineRule()
	cfg := &Config{Rules: map[string]*RuleConfig{"long-line": {MaxLength: 200}}}
	if err := rule.UpdateConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if got := runRule(t, rule, src); len(got) != 0 {
		t.Errorf("findings = %v, want none with max-length 200", got)
	}

	// runes, not bytes
	wide := "const s = \"" + strings.Repeat("あ", 100) + "\";"
	if got := runRule(t, NewLongLineRule(), wide); len(got) != 0 {
		t.Errorf("findings = %v, want none for a line of 113 runes", got)
	}
}
