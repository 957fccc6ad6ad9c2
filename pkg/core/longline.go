package core

import (
	"bytes"
	"unicode/utf8"

	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

const defaultMaxLineLength = 120

type LongLineRule struct {
	BaseRule
}

func NewLongLineRule() *LongLineRule {
	return &LongLineRule{
		BaseRule: BaseRule{
			RuleName:     "long-line",
			RuleDesc:     "Checks for lines longer than the configured maximum",
			RuleSev:      SeverityInfo,
			RuleCat:      CategoryStyle,
			OffByDefault: true,
		},
	}
}

func (rule *LongLineRule) maxLength() int {
	if o := rule.Options(); o != nil && o.MaxLength > 0 {
		return o.MaxLength
	}
	return defaultMaxLineLength
}

func (rule *LongLineRule) VisitProgramPre(n *ast.Node) error {
	limit := rule.maxLength()
	src := rule.Pass().Source
	offset := 0
	for i, line := range bytes.Split(src, []byte{'\n'}) {
		text := bytes.TrimRight(line, "\r")
		if l := utf8.RuneCount(text); l > limit {
			span := ast.Span{
				Start:  offset,
				End:    offset + len(text),
				Pos:    ast.Position{Line: i + 1, Col: 1},
				EndPos: ast.Position{Line: i + 1, Col: len(text) + 1},
			}
			rule.ReportSpan(span, "line is %d characters long, which exceeds the maximum of %d", l, limit)
		}
		offset += len(line) + 1
	}
	return nil
}
