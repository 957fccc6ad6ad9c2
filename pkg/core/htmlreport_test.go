package core

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	fields := []*TemplateFields{
		{Type: "unsafe-eval", Severity: "error", Category: "security", Filepath: "a.js", Line: 2, Column: 1, Message: "eval called with a non-literal", Snippet: "eval(x);\n^~~~~~~"},
		{Type: "unused-binding", Severity: "info", Category: "style", Filepath: "b.js", Line: 1, Column: 5, Message: `variable "<b>" is declared but never used`},
		{Type: "infinite-loop", Severity: "warning", Category: "logic", Filepath: "a.js", Line: 7, Column: 1, Message: "while loop never terminates"},
	}
	out, err := toHTML(fields)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"Total findings: 3 (1 errors, 1 warnings, 1 infos)",
		`<span class="error">[error]</span> Line 2, column 1: eval called with a non-literal`,
		"<pre>eval(x);\n^~~~~~~</pre>",
		"&lt;b&gt;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<b>") {
		t.Error("finding messages are not escaped")
	}
	if a, b := strings.Index(out, "<h2>a.js</h2>"), strings.Index(out, "<h2>b.js</h2>"); a < 0 || b < a {
		t.Errorf("files are not grouped in order of appearance: a.js at %d, b.js at %d", a, b)
	}
	if n := strings.Count(out, "<h2>a.js</h2>"); n != 1 {
		t.Errorf("a.js has %d sections, want 1", n)
	}
}

func TestToHTMLWithoutFindings(t *testing.T) {
	out, err := toHTML(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Total findings: 0") || strings.Contains(out, `class="file"`) {
		t.Errorf("unexpected output:\n%s", out)
	}
}
