package core

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func runMain(stdin string, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	cmd := Command{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	}
	status := cmd.Main(append([]string{"scanalyzer", "-color", "never"}, args...))
	return status, stdout.String(), stderr.String()
}

func TestCommandMainExitStatus(t *testing.T) {
	unsafe := writeSource(t, "unsafe.js", "eval(input);\n")
	clean := writeSource(t, "clean.js", "export const ok = 1;\n")
	warning := writeSource(t, "loop.js", "while (true) { tick(); }\n")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"error finding", []string{unsafe}, ExitStatusSuccessProblemFound},
		{"no finding", []string{clean}, ExitStatusSuccessNoProblem},
		{"warning below the default fail level", []string{warning}, ExitStatusSuccessNoProblem},
		{"warning at fail level warning", []string{"-fail-level", "warning", warning}, ExitStatusSuccessProblemFound},
		{"ignored rule", []string{"-ignore", "unsafe-eval", unsafe}, ExitStatusSuccessNoProblem},
		{"several files", []string{clean, unsafe}, ExitStatusSuccessProblemFound},
		{"missing file", []string{filepath.Join(t.TempDir(), "missing.js")}, ExitStatusFailure},
		{"unknown flag", []string{"-no-such-flag"}, ExitStatusInvalidCommandOption},
		{"bad fail level", []string{"-fail-level", "fatal", clean}, ExitStatusInvalidCommandOption},
		{"bad color", []string{"-color", "purple", clean}, ExitStatusInvalidCommandOption},
		{"negative remote depth", []string{"-remote-depth", "-1", clean}, ExitStatusInvalidCommandOption},
		{"bad ignore pattern", []string{"-ignore", "(", clean}, ExitStatusFailure},
		{"bad format", []string{"-format", "no placeholder", clean}, ExitStatusFailure},
		{"unsupported URL scheme", []string{"ftp://example.com/a.js"}, ExitStatusFailure},
		{"category without the finding", []string{"-category", "security", "-fail-level", "warning", warning}, ExitStatusSuccessNoProblem},
		{"category with the finding", []string{"-category", "performance,logic", "-fail-level", "warning", warning}, ExitStatusSuccessProblemFound},
		{"severity floor above the finding", []string{"-min-severity", "error", "-fail-level", "warning", warning}, ExitStatusSuccessNoProblem},
		{"bad category", []string{"-category", "speed", clean}, ExitStatusInvalidCommandOption},
		{"bad min severity", []string{"-min-severity", "fatal", clean}, ExitStatusInvalidCommandOption},
		{"bad output", []string{"-output", "xml", clean}, ExitStatusInvalidCommandOption},
		{"output with format", []string{"-output", "json", "-format", "{{json .}}", clean}, ExitStatusInvalidCommandOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stdout, stderr := runMain("", tt.args...)
			if got != tt.want {
				t.Errorf("Main() = %d, want %d\nstdout: %s\nstderr: %s", got, tt.want, stdout, stderr)
			}
		})
	}
}

func TestCommandMainOutput(t *testing.T) {
	unsafe := writeSource(t, "unsafe.js", "eval(input);\n")
	status, stdout, _ := runMain("", unsafe)
	if status != ExitStatusSuccessProblemFound {
		t.Fatalf("Main() = %d, want %d", status, ExitStatusSuccessProblemFound)
	}
	for _, want := range []string{"unsafe.js:1:1: error:", "[unsafe-eval]", "eval(input);", "^~~~~~~~~~"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout does not contain %q:\n%s", want, stdout)
		}
	}
}

func TestCommandMainStdin(t *testing.T) {
	status, stdout, _ := runMain("document.write(location.hash);\n", "-stdin-filename", "page.js", "-")
	if status != ExitStatusSuccessProblemFound {
		t.Errorf("Main() = %d, want %d", status, ExitStatusSuccessProblemFound)
	}
	if !strings.Contains(stdout, "page.js:1:1") || !strings.Contains(stdout, "[unsafe-inner-html]") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestCommandMainSARIF(t *testing.T) {
	unsafe := writeSource(t, "unsafe.js", "eval(input);\n")
	status, stdout, _ := runMain("", "-format", "{{sarif .}}", unsafe)
	if status != ExitStatusSuccessProblemFound {
		t.Fatalf("Main() = %d, want %d", status, ExitStatusSuccessProblemFound)
	}
	for _, want := range []string{`"version":"2.1.0"`, `"ruleId":"unsafe-eval"`, `"level":"error"`, `"scanalyzer/v1"`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("SARIF output does not contain %s:\n%s", want, stdout)
		}
	}
}

func TestCommandMainVersion(t *testing.T) {
	status, stdout, _ := runMain("", "-version")
	if status != ExitStatusSuccessNoProblem {
		t.Errorf("Main() = %d, want %d", status, ExitStatusSuccessNoProblem)
	}
	if !strings.Contains(stdout, "Tool version:") || !strings.Contains(stdout, "Go version:") {
		t.Errorf("unexpected version output:\n%s", stdout)
	}
}

func TestCommandMainHelp(t *testing.T) {
	status, _, stderr := runMain("", "-help")
	if status != ExitStatusSuccessNoProblem {
		t.Errorf("Main() = %d, want %d", status, ExitStatusSuccessNoProblem)
	}
	if !strings.Contains(stderr, "Usage: scanalyzer") {
		t.Errorf("usage is not printed:\n%s", stderr)
	}
}

func writeSourceDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCommandMainSARIFAcrossDirectories(t *testing.T) {
	dirA := writeSourceDir(t, map[string]string{"a1.js": "eval(x);\n", "a2.js": "eval(y);\n"})
	dirB := writeSourceDir(t, map[string]string{"b1.js": "eval(x);\n", "b2.js": "export const ok = 1;\n"})

	for _, args := range [][]string{
		{"-format", "{{sarif .}}", dirA, dirB},
		{"-output", "sarif", dirA, dirB},
	} {
		status, stdout, stderr := runMain("", args...)
		if status != ExitStatusSuccessProblemFound {
			t.Fatalf("Main(%v) = %d, want %d\nstderr: %s", args, status, ExitStatusSuccessProblemFound, stderr)
		}
		if n := strings.Count(stdout, `"$schema"`); n != 1 {
			t.Errorf("Main(%v) printed %d SARIF documents, want 1:\n%s", args, n, stdout)
		}
		if n := strings.Count(stdout, `"ruleId":"unsafe-eval"`); n != 3 {
			t.Errorf("Main(%v) printed %d unsafe-eval results, want 3", args, n)
		}
	}
}

func TestCommandMainHTMLOutput(t *testing.T) {
	dir := writeSourceDir(t, map[string]string{"a.js": "eval(x);\n", "b.js": "el.innerHTML = input;\n"})
	status, stdout, _ := runMain("", "-output", "html", dir)
	if status != ExitStatusSuccessProblemFound {
		t.Fatalf("Main() = %d, want %d", status, ExitStatusSuccessProblemFound)
	}
	if n := strings.Count(stdout, "<!DOCTYPE html>"); n != 1 {
		t.Errorf("printed %d HTML documents, want 1:\n%s", n, stdout)
	}
	for _, want := range []string{"Total findings: 2", "<code>unsafe-eval</code>", "<code>unsafe-inner-html</code>"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("HTML output does not contain %q:\n%s", want, stdout)
		}
	}
}
