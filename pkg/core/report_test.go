package core

import (
	"testing"

	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

func spanAt(start, line, col int) ast.Span {
	return ast.Span{
		Start:  start,
		End:    start + 1,
		Pos:    ast.Position{Line: line, Col: col},
		EndPos: ast.Position{Line: line, Col: col + 1},
	}
}

func TestAggregateDeduplicates(t *testing.T) {
	findings := []*Finding{
		{RuleID: "a", Span: spanAt(10, 2, 1), Message: "m"},
		{RuleID: "a", Span: spanAt(10, 2, 1), Message: "m"},
		{RuleID: "a", Span: spanAt(10, 2, 1), Message: "other"},
		{RuleID: "b", Span: spanAt(10, 2, 1), Message: "m"},
	}
	r := Aggregate("x.js", nil, findings)
	if len(r.Findings) != 3 {
		t.Fatalf("got %d findings, want 3: %v", len(r.Findings), r.Findings)
	}
	for _, f := range r.Findings {
		if f.FilePath != "x.js" {
			t.Errorf("FilePath = %q, want x.js", f.FilePath)
		}
	}
}

func TestAggregateOrder(t *testing.T) {
	findings := []*Finding{
		{RuleID: "z", Severity: SeverityInfo, Span: spanAt(30, 3, 1), Message: "3"},
		{RuleID: "y", Severity: SeverityInfo, Span: spanAt(5, 1, 6), Message: "2"},
		{RuleID: "b", Severity: SeverityError, Span: spanAt(5, 1, 6), Message: "1"},
		{RuleID: "a", Severity: SeverityError, Span: spanAt(5, 1, 6), Message: "0"},
		{RuleID: "c", Severity: SeverityWarning, Span: spanAt(0, 1, 1), Message: "first"},
	}
	r := Aggregate("x.js", nil, findings)
	want := []string{"first", "0", "1", "2", "3"}
	for i, f := range r.Findings {
		if f.Message != want[i] {
			t.Errorf("Findings[%d] = %q, want %q", i, f.Message, want[i])
		}
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	mk := func() []*Finding {
		return []*Finding{
			{RuleID: "r1", Span: spanAt(3, 1, 4), Message: "x"},
			{RuleID: "r2", Span: spanAt(1, 1, 2), Message: "y"},
			{RuleID: "r1", Span: spanAt(3, 1, 4), Message: "x"},
		}
	}
	a := Aggregate("f.js", nil, mk())
	b := Aggregate("f.js", nil, mk())
	if len(a.Findings) != len(b.Findings) {
		t.Fatalf("lengths differ: %d vs %d", len(a.Findings), len(b.Findings))
	}
	for i := range a.Findings {
		if *a.Findings[i] != *b.Findings[i] {
			t.Errorf("Findings[%d] differ: %v vs %v", i, a.Findings[i], b.Findings[i])
		}
	}
}

func TestReportCounts(t *testing.T) {
	r := Aggregate("f.js", nil, []*Finding{
		{RuleID: "a", Severity: SeverityError, Span: spanAt(0, 1, 1)},
		{RuleID: "b", Severity: SeverityWarning, Span: spanAt(1, 1, 2)},
		{RuleID: "b", Severity: SeverityInfo, Span: spanAt(2, 1, 3)},
	})
	if got := r.AtOrAbove(SeverityError); got != 1 {
		t.Errorf("AtOrAbove(error) = %d, want 1", got)
	}
	if got := r.AtOrAbove(SeverityWarning); got != 2 {
		t.Errorf("AtOrAbove(warning) = %d, want 2", got)
	}
	if got := r.AtOrAbove(SeverityInfo); got != 3 {
		t.Errorf("AtOrAbove(info) = %d, want 3", got)
	}
	if !r.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
	if got := len(r.ByRule()["b"]); got != 2 {
		t.Errorf("len(ByRule()[b]) = %d, want 2", got)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"error", SeverityError, false},
		{"Warning", SeverityWarning, false},
		{"INFO", SeverityInfo, false},
		{"fatal", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSeverity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
