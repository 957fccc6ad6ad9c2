package core

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// Styles used for terminal output.
var (
	BoldStyle   = color.New(color.Bold)
	GreenStyle  = color.New(color.FgGreen)
	YellowStyle = color.New(color.FgYellow)
	GrayStyle   = color.New(color.FgHiBlack)
	RedStyle    = color.New(color.FgRed, color.Bold)
	CyanStyle   = color.New(color.FgCyan)
)

func severityStyle(s Severity) *color.Color {
	switch s {
	case SeverityError:
		return RedStyle
	case SeverityWarning:
		return YellowStyle
	default:
		return CyanStyle
	}
}

// ExtractTemplateFields converts the finding into the fields exposed to
// -format templates.
func (f *Finding) ExtractTemplateFields(sourceContent []byte) *TemplateFields {
	codeSnippet := ""
	endingColumn := f.Column()

	if len(sourceContent) > 0 && f.Line() > 0 {
		if lineContent, found := f.extractLineContent(sourceContent); found {
			codeSnippet = lineContent
			if indicator := f.determineIndicator(lineContent); indicator != "" {
				codeSnippet += "\n" + indicator
				endingColumn = f.Column() + len(strings.TrimLeft(indicator, " ")) - 1
			}
		}
	}
	return &TemplateFields{
		Message:   f.Message,
		Filepath:  f.FilePath,
		Line:      f.Line(),
		Column:    f.Column(),
		Type:      f.RuleID,
		Severity:  f.Severity.String(),
		Category:  string(f.Category),
		Snippet:   codeSnippet,
		EndColumn: endingColumn,
	}
}

// DisplayError prints the finding with a source snippet and an indicator
// under the reported range. No snippet is printed when source is empty.
func (f *Finding) DisplayError(output io.Writer, sourceContent []byte) {
	printColored(output, YellowStyle, f.FilePath)
	printColored(output, GrayStyle, ":")
	fmt.Fprint(output, f.Line())
	printColored(output, GrayStyle, ":")
	fmt.Fprint(output, f.Column())
	printColored(output, GrayStyle, ": ")
	printColored(output, severityStyle(f.Severity), f.Severity.String())
	printColored(output, GrayStyle, ": ")
	printColored(output, BoldStyle, f.Message)
	printColored(output, GrayStyle, fmt.Sprintf(" [%s]\n", f.RuleID))

	if len(sourceContent) == 0 || f.Line() == 0 {
		return
	}

	lineContent, found := f.extractLineContent(sourceContent)
	if !found || len(lineContent) < f.Column()-1 {
		return
	}

	lineHeader := fmt.Sprintf("%d | ", f.Line())
	padding := strings.Repeat(" ", len(lineHeader)-2)
	printColored(output, GrayStyle, fmt.Sprintf("%s |\n", padding))
	printColored(output, GrayStyle, lineHeader)
	fmt.Fprintln(output, lineContent)
	printColored(output, GrayStyle, fmt.Sprintf("%s | ", padding))
	printColored(output, GreenStyle, f.determineIndicator(lineContent))
	fmt.Fprintln(output)
}

func printColored(output io.Writer, colorizer *color.Color, content string) {
	colorizer.Fprint(output, content)
}

func (f *Finding) extractLineContent(sourceContent []byte) (string, bool) {
	s := bufio.NewScanner(bytes.NewReader(sourceContent))
	s.Buffer(make([]byte, 0, 64*1024), len(sourceContent)+1)
	lineNumber := 0
	for s.Scan() {
		lineNumber++
		if lineNumber == f.Line() {
			return strings.TrimRight(s.Text(), "\r"), true
		}
	}
	return "", false
}

// determineIndicator underlines the reported range on its first line. A
// range continuing on later lines is underlined up to the end of the line.
func (f *Finding) determineIndicator(lineContent string) string {
	if f.Column() <= 0 || f.Column()-1 > len(lineContent) {
		return ""
	}
	startPos := f.Column() - 1
	endPos := len(lineContent)
	if f.Span.EndPos.Line == f.Line() && f.Span.EndPos.Col-1 < endPos {
		endPos = f.Span.EndPos.Col - 1
	}
	if endPos < startPos {
		endPos = startPos
	}

	underlineWidth := runewidth.StringWidth(lineContent[startPos:endPos])
	if underlineWidth == 0 {
		underlineWidth = 1
	}
	spaceWidth := runewidth.StringWidth(lineContent[:startPos])
	return strings.Repeat(" ", spaceWidth) + "^" + strings.Repeat("~", underlineWidth-1)
}

// TemplateFields holds the fields of one finding available to -format.
type TemplateFields struct {
	// Message is the finding message.
	Message string `json:"message"`
	// Filepath is the path relative to the working directory. Empty for stdin.
	Filepath string `json:"filepath,omitempty"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	// Type is the id of the rule that reported the finding.
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Category string `json:"category"`
	// Snippet is the source line followed by the indicator line.
	Snippet string `json:"snippet,omitempty"`
	// EndColumn is the column the indicator ends at. Equal to Column when
	// no indicator is shown.
	EndColumn int `json:"end_column"`
}

// RuleTemplateField describes one rule to templates through allKinds.
type RuleTemplateField struct {
	Name        string
	Description string
}

type ByRuleTemplateField []*RuleTemplateField

func (a ByRuleTemplateField) Len() int {
	return len(a)
}

func (a ByRuleTemplateField) Less(i, j int) bool {
	return strings.Compare(a[i].Name, a[j].Name) < 0
}

func (a ByRuleTemplateField) Swap(i, j int) {
	a[i], a[j] = a[j], a[i]
}

func unescapeBackslash(input string) string {
	replacer := strings.NewReplacer(`\a`, "\a", `\b`, "\b", `\f`, "\f", `\\`, "\\", `\n`, "\n", `\r`, "\r", `\t`, "\t", `\v`, "\v")
	return replacer.Replace(input)
}

func toPascalCase(input string) string {
	words := strings.FieldsFunc(input, func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
	})
	for i, word := range words {
		if c := word[0]; 'a' <= c && c <= 'z' {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, "")
}

// ErrorFormatter renders findings with a Go template given by -format.
type ErrorFormatter struct {
	templateInstance *template.Template
	mu               sync.Mutex
	ruleTemplates    map[string]*RuleTemplateField
}

// NewErrorFormatter creates a formatter. The format must contain at least one
// {{ }} placeholder; escape sequences like \n are unescaped.
func NewErrorFormatter(format string) (*ErrorFormatter, error) {
	if !strings.Contains(format, "{{") {
		return nil, fmt.Errorf("the specified format should contain at least one {{ }} placeholder: %s", format)
	}

	formatter := &ErrorFormatter{
		ruleTemplates: map[string]*RuleTemplateField{
			SyntaxCheckRuleID: {SyntaxCheckRuleID, "Checks that the source can be parsed"},
		},
	}

	funcMap := template.FuncMap(map[string]interface{}{
		"json": func(data interface{}) (string, error) {
			var builder strings.Builder
			encoder := json.NewEncoder(&builder)
			if err := encoder.Encode(data); err != nil {
				return "", fmt.Errorf("failed to encode data to json: %w", err)
			}
			return builder.String(), nil
		},
		"sarif":      toSARIF,
		"htmlReport": toHTML,
		"replace": func(str string, oldnew ...string) string {
			return strings.NewReplacer(oldnew...).Replace(str)
		},
		"toPascalCase": toPascalCase,
		"allKinds":     formatter.allKinds,
	})
	t, err := template.New("error formatter").Funcs(funcMap).Parse(unescapeBackslash(format))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q the specified format: %w", format, err)
	}
	formatter.templateInstance = t
	return formatter, nil
}

func (formatter *ErrorFormatter) allKinds() []*RuleTemplateField {
	formatter.mu.Lock()
	defer formatter.mu.Unlock()
	ret := make([]*RuleTemplateField, 0, len(formatter.ruleTemplates))
	for _, rule := range formatter.ruleTemplates {
		ret = append(ret, rule)
	}
	sort.Sort(ByRuleTemplateField(ret))
	return ret
}

// Print executes the template with the fields of every finding.
func (formatter *ErrorFormatter) Print(writer io.Writer, templateFields []*TemplateFields) error {
	if err := formatter.templateInstance.Execute(writer, templateFields); err != nil {
		return fmt.Errorf("failed to format findings: %w", err)
	}
	return nil
}

// RegisterRule makes a rule visible to allKinds.
func (formatter *ErrorFormatter) RegisterRule(rule Rule) {
	formatter.mu.Lock()
	defer formatter.mu.Unlock()
	ruleName := rule.RuleNames()
	if _, exists := formatter.ruleTemplates[ruleName]; !exists {
		formatter.ruleTemplates[ruleName] = &RuleTemplateField{
			Name:        ruleName,
			Description: rule.RuleDescription(),
		}
	}
}
