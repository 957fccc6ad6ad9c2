package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ultra-supara/scanalyzer/pkg/ast"
	"golang.org/x/sync/errgroup"
)

// RuleFaultPrefix starts the message of every finding produced for a rule
// that panicked, failed or ran out of time.
const RuleFaultPrefix = "rule-fault"

// Engine evaluates rules over one analysis. Each rule walks the tree in its
// own goroutine with its own visitor; findings are merged afterwards.
type Engine struct {
	executor *ConcurrentExecutor
	timeout  time.Duration
	debugW   io.Writer
}

// NewEngine creates an engine. A zero timeout disables the per-rule budget.
func NewEngine(executor *ConcurrentExecutor, timeout time.Duration) *Engine {
	return &Engine{executor: executor, timeout: timeout}
}

// EnableDebugOutput enables per-rule timing output. Writes of concurrent
// rules are serialized.
func (e *Engine) EnableDebugOutput(out io.Writer) {
	e.debugW = &lockedWriter{w: out}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func (e *Engine) debug(format string, args ...interface{}) {
	if e.debugW == nil {
		return
	}
	fmt.Fprintf(e.debugW, "[engine] %s\n", fmt.Sprintf(format, args...))
}

// Evaluate runs every rule over the pass and returns their findings in rule
// order. A failing rule never stops the others.
func (e *Engine) Evaluate(pass *Pass, rules []Rule) []*Finding {
	results := make([][]*Finding, len(rules))
	eg := errgroup.Group{}
	for i, rule := range rules {
		e.executor.execute(&eg, func() error {
			results[i] = e.run(pass, rule)
			return nil
		})
	}
	_ = eg.Wait()

	total := 0
	for i, r := range results {
		// a timed out rule may still be appending to its own findings
		e.debug("%s found %d findings", rules[i].RuleNames(), len(r))
		total += len(r)
	}
	all := make([]*Finding, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

func (e *Engine) run(pass *Pass, rule Rule) []*Finding {
	ctx := pass.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	local := *pass
	local.Context = ctx
	rule.Prepare(&local)

	v := NewSyntaxTreeVisitor()
	v.AddVisitor(rule)
	if e.debugW != nil {
		v.EnableDebugOutput(e.debugW)
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- v.VisitTree(ctx, pass.Root)
	}()

	select {
	case err := <-done:
		if err == nil {
			return rule.Findings()
		}
		return append(rule.Findings(), ruleFault(pass, rule, v.Current(), err))
	case <-ctx.Done():
		return []*Finding{ruleFault(pass, rule, nil, ctx.Err())}
	}
}

func ruleFault(pass *Pass, rule Rule, at *ast.Node, cause error) *Finding {
	span := ast.Span{Pos: ast.Position{Line: 1, Col: 1}, EndPos: ast.Position{Line: 1, Col: 1}}
	if at != nil && at.Kind != ast.KindProgram {
		span = at.Span
	}
	reason := cause.Error()
	if errors.Is(cause, context.DeadlineExceeded) {
		reason = "exceeded its time budget"
	}
	return &Finding{
		RuleID:   rule.RuleNames(),
		Severity: SeverityWarning,
		Category: CategoryInternal,
		Span:     span,
		Message:  fmt.Sprintf("%s: rule %q did not complete: %s", RuleFaultPrefix, rule.RuleNames(), reason),
		FilePath: pass.FilePath,
	}
}
