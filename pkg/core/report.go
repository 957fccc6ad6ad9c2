package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

// Finding is one issue reported by a rule. It is never modified once the
// report holding it has been built.
type Finding struct {
	RuleID   string
	Severity Severity
	Category Category
	Span     ast.Span
	Message  string
	FilePath string
}

func (f *Finding) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s [%s]", f.FilePath, f.Span.Pos.Line, f.Span.Pos.Col, f.Message, f.RuleID)
}

func (f *Finding) String() string {
	return f.Error()
}

// Line returns the 1-based line the finding starts at.
func (f *Finding) Line() int { return f.Span.Pos.Line }

// Column returns the 1-based column the finding starts at.
func (f *Finding) Column() int { return f.Span.Pos.Col }

type findingKey struct {
	rule    string
	span    ast.Span
	message string
}

// ByFindingOrder sorts by file path, start offset, severity and rule id.
type ByFindingOrder []*Finding

func (a ByFindingOrder) Len() int {
	return len(a)
}

func (a ByFindingOrder) Less(i, j int) bool {
	if c := strings.Compare(a[i].FilePath, a[j].FilePath); c != 0 {
		return c < 0
	}
	if a[i].Span.Start != a[j].Span.Start {
		return a[i].Span.Start < a[j].Span.Start
	}
	if a[i].Severity != a[j].Severity {
		return a[i].Severity < a[j].Severity
	}
	return a[i].RuleID < a[j].RuleID
}

func (a ByFindingOrder) Swap(i, j int) {
	a[i], a[j] = a[j], a[i]
}

// Report is the ordered result of analyzing one file. No two findings share
// the same rule id, span and message.
type Report struct {
	FilePath string
	Source   []byte
	Findings []*Finding
}

// Aggregate drops exact duplicates and orders the findings. The result is
// deterministic for a deterministic input set.
func Aggregate(path string, source []byte, findings []*Finding) *Report {
	seen := make(map[findingKey]struct{}, len(findings))
	unique := make([]*Finding, 0, len(findings))
	for _, f := range findings {
		if f.FilePath == "" {
			f.FilePath = path
		}
		k := findingKey{f.RuleID, f.Span, f.Message}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, f)
	}
	sort.Stable(ByFindingOrder(unique))
	return &Report{FilePath: path, Source: source, Findings: unique}
}

// AtOrAbove counts the findings at least as severe as level.
func (r *Report) AtOrAbove(level Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity.AtLeast(level) {
			n++
		}
	}
	return n
}

// HasErrors reports whether the report holds an error finding.
func (r *Report) HasErrors() bool {
	return r.AtOrAbove(SeverityError) > 0
}

// ByRule groups the findings by rule id.
func (r *Report) ByRule() map[string][]*Finding {
	out := map[string][]*Finding{}
	for _, f := range r.Findings {
		out[f.RuleID] = append(out[f.RuleID], f)
	}
	return out
}
