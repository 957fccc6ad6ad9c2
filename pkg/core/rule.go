package core

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ultra-supara/scanalyzer/pkg/analysis"
	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

// Severity ranks findings. Lower values are more severe.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

var severityNames = [...]string{
	SeverityError:   "error",
	SeverityWarning: "warning",
	SeverityInfo:    "info",
}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// ParseSeverity parses "error", "warning" or "info".
func ParseSeverity(s string) (Severity, error) {
	for i, name := range severityNames {
		if strings.EqualFold(s, name) {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q, must be one of error, warning, info", s)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// AtLeast reports whether s is as severe as level or more.
func (s Severity) AtLeast(level Severity) bool {
	return s <= level
}

// Category groups findings by concern.
type Category string

const (
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
	CategoryStyle       Category = "style"
	CategoryLogic       Category = "logic"
	CategoryInternal    Category = "internal"
)

var selectableCategories = []Category{CategorySecurity, CategoryPerformance, CategoryStyle, CategoryLogic}

// ParseCategory parses a category name that can be selected for reporting.
func ParseCategory(s string) (Category, error) {
	for _, c := range selectableCategories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q, must be one of security, performance, style, logic", s)
}

// Pass is the read-only input shared by every rule of one analysis.
type Pass struct {
	Context      context.Context
	FilePath     string
	Source       []byte
	Root         *ast.Node
	Scopes       *analysis.ScopeIndex
	Reachability *analysis.Reachability
}

// Rule is a detector evaluated over one syntax tree. A rule instance serves
// exactly one analysis and only touches its own findings.
type Rule interface {
	TreeVisitor
	RuleNames() string
	RuleDescription() string
	RuleSeverity() Severity
	RuleCategory() Category
	EnabledByDefault() bool
	Findings() []*Finding
	Prepare(pass *Pass)
	EnableDebugOutput(out io.Writer)
	UpdateConfig(config *Config) error
}

// BaseRule carries the state every rule needs. Embed it and override the
// visitor callbacks the rule is interested in.
type BaseRule struct {
	RuleName string
	RuleDesc string
	RuleSev  Severity
	RuleCat  Category
	// OffByDefault keeps the rule disabled unless the config enables it.
	OffByDefault bool

	pass     *Pass
	options  *RuleConfig
	findings []*Finding
	debugW   io.Writer
}

func (rule *BaseRule) VisitProgramPre(node *ast.Node) error  { return nil }
func (rule *BaseRule) VisitNodePre(node *ast.Node) error     { return nil }
func (rule *BaseRule) VisitNodePost(node *ast.Node) error    { return nil }
func (rule *BaseRule) VisitProgramPost(node *ast.Node) error { return nil }

func (rule *BaseRule) RuleNames() string       { return rule.RuleName }
func (rule *BaseRule) RuleDescription() string { return rule.RuleDesc }
func (rule *BaseRule) RuleSeverity() Severity  { return rule.RuleSev }
func (rule *BaseRule) RuleCategory() Category  { return rule.RuleCat }
func (rule *BaseRule) EnabledByDefault() bool  { return !rule.OffByDefault }

// Findings returns the findings reported so far.
func (rule *BaseRule) Findings() []*Finding {
	return rule.findings
}

// Prepare hands the analysis input to the rule before the tree is visited.
func (rule *BaseRule) Prepare(pass *Pass) {
	rule.pass = pass
}

// Pass returns the input of the current analysis.
func (rule *BaseRule) Pass() *Pass {
	return rule.pass
}

func (rule *BaseRule) EnableDebugOutput(out io.Writer) {
	rule.debugW = out
}

// UpdateConfig applies the rules.<id> section of the config.
func (rule *BaseRule) UpdateConfig(config *Config) error {
	opts := config.Rule(rule.RuleName)
	if opts == nil {
		return nil
	}
	rule.options = opts
	if opts.Severity != "" {
		sev, err := ParseSeverity(opts.Severity)
		if err != nil {
			return fmt.Errorf("rule %q: %w", rule.RuleName, err)
		}
		rule.RuleSev = sev
	}
	return nil
}

// Options returns the rule's config section, or nil.
func (rule *BaseRule) Options() *RuleConfig {
	return rule.options
}

// Debug prints a debug line prefixed with the rule id.
func (rule *BaseRule) Debug(format string, args ...interface{}) {
	if rule.debugW == nil {
		return
	}
	fmt.Fprintf(rule.debugW, "[%s] %s\n", rule.RuleName, fmt.Sprintf(format, args...))
}

// Reportf records a finding spanning node.
func (rule *BaseRule) Reportf(node *ast.Node, format string, args ...interface{}) {
	rule.ReportSpan(node.Span, format, args...)
}

// ReportSpan records a finding spanning an arbitrary source range.
func (rule *BaseRule) ReportSpan(span ast.Span, format string, args ...interface{}) {
	f := &Finding{
		RuleID:   rule.RuleName,
		Severity: rule.RuleSev,
		Category: rule.RuleCat,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
	}
	if rule.pass != nil {
		f.FilePath = rule.pass.FilePath
	}
	rule.findings = append(rule.findings, f)
}

// ignorePattern compiles the rule's ignore-pattern option, falling back to def.
func (rule *BaseRule) ignorePattern(def string) *regexp.Regexp {
	pattern := def
	if rule.options != nil && rule.options.IgnorePattern != "" {
		pattern = rule.options.IgnorePattern
	}
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		// validated when the config was loaded
		return nil
	}
	return re
}
