package core

import (
	"strings"
	"testing"
)

func TestCommandInjectionRule(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []int
	}{
		{
			name: "destructured exec with a parameter",
			src: `const { exec } = require('child_process');
function runCommand(cmd) {
  exec(cmd, (error, stdout) => {});
}`,
			want: []int{3},
		},
		{
			name: "constant command",
			src: `const { exec } = require("child_process");
exec("ls -la");`,
			want: []int{},
		},
		{
			name: "concatenated command",
			src: `const { exec } = require("child_process");
exec("ls " + dir);`,
			want: []int{2},
		},
		{
			name: "template command",
			src: "const { exec } = require(\"child_process\");\nexec(`ls ${dir}`);",
			want: []int{2},
		},
		{
			name: "module object",
			src: `const cp = require("child_process");
cp.execSync(cmd);`,
			want: []int{2},
		},
		{
			name: "direct require member",
			src:  `require("child_process").spawn(cmd);`,
			want: []int{1},
		},
		{
			name: "named import with node prefix",
			src: `import { execFile } from "node:child_process";
execFile(bin);`,
			want: []int{2},
		},
		{
			name: "default import",
			src: `import cp from "child_process";
cp.fork(script);`,
			want: []int{2},
		},
		{
			name: "aliased member",
			src: `const run = require("child_process").exec;
run(cmd);`,
			want: []int{2},
		},
		{
			name: "local function named exec",
			src: `function exec(c) { return c; }
exec(cmd);`,
			want: []int{},
		},
		{
			name: "unrelated exec method",
			src:  `db.exec(query);`,
			want: []int{},
		},
		{
			name: "other module",
			src: `const { exec } = require("./shell");
exec(cmd);`,
			want: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lines(runRule(t, NewCommandInjectionRule(), tt.src))
			if !equalLines(got, tt.want) {
				t.Errorf("findings at lines %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandInjectionRuleMessage(t *testing.T) {
	findings := runRule(t, NewCommandInjectionRule(), `const cp = require("node:child_process");
cp.spawn(userCommand);`)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	if !strings.Contains(findings[0].Message, "node:child_process.spawn") {
		t.Errorf("message = %q, want it to name node:child_process.spawn", findings[0].Message)
	}
	if findings[0].Severity != SeverityError {
		t.Errorf("severity = %v, want %v", findings[0].Severity, SeverityError)
	}
}
