package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

// TreeVisitor is the set of callbacks invoked while walking a syntax tree.
type TreeVisitor interface {
	VisitProgramPre(node *ast.Node) error
	VisitNodePre(node *ast.Node) error
	VisitNodePost(node *ast.Node) error
	VisitProgramPost(node *ast.Node) error
}

// SyntaxTreeVisitor walks a tree depth first and calls every registered pass.
type SyntaxTreeVisitor struct {
	passes []TreeVisitor
	debugW io.Writer
	// current is the node being visited, for fault reports.
	current *ast.Node
}

// NewSyntaxTreeVisitor creates a visitor without passes.
func NewSyntaxTreeVisitor() *SyntaxTreeVisitor {
	return &SyntaxTreeVisitor{}
}

// AddVisitor registers a pass.
func (s *SyntaxTreeVisitor) AddVisitor(visitor TreeVisitor) {
	s.passes = append(s.passes, visitor)
}

// EnableDebugOutput enables timing output.
func (s *SyntaxTreeVisitor) EnableDebugOutput(writer io.Writer) {
	s.debugW = writer
}

// Current returns the node the visitor is at, or nil outside a walk.
func (s *SyntaxTreeVisitor) Current() *ast.Node {
	return s.current
}

func (s *SyntaxTreeVisitor) logreportElapsedTime(task string, startTime time.Time) {
	if s.debugW != nil {
		duration := time.Since(startTime).Milliseconds()
		fmt.Fprintf(s.debugW, "[SyntaxTreeVisitor] %s took %v ms\n", task, duration)
	}
}

// VisitTree visits the program in depth-first order. It stops with the
// context's error once ctx is done.
func (s *SyntaxTreeVisitor) VisitTree(ctx context.Context, root *ast.Node) error {
	var startTime time.Time
	if s.debugW != nil {
		startTime = time.Now()
	}

	s.current = root
	for _, p := range s.passes {
		if err := p.VisitProgramPre(root); err != nil {
			return err
		}
	}

	if s.debugW != nil {
		defer s.logreportElapsedTime("VisitProgramPre", startTime)
		startTime = time.Now()
	}

	count := 0
	for _, child := range root.Children {
		if err := s.visitNode(ctx, child, &count); err != nil {
			return err
		}
	}

	if s.debugW != nil {
		msg := fmt.Sprintf("VisitNode visited %d nodes", count)
		defer s.logreportElapsedTime(msg, startTime)
		startTime = time.Now()
	}

	s.current = root
	for _, p := range s.passes {
		if err := p.VisitProgramPost(root); err != nil {
			return err
		}
	}
	s.current = nil

	if s.debugW != nil {
		defer s.logreportElapsedTime("VisitProgramPost", startTime)
	}
	return nil
}

func (s *SyntaxTreeVisitor) visitNode(ctx context.Context, node *ast.Node, count *int) error {
	*count++
	if *count%512 == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	s.current = node
	for _, p := range s.passes {
		if err := p.VisitNodePre(node); err != nil {
			return err
		}
	}
	for _, child := range node.Children {
		if err := s.visitNode(ctx, child, count); err != nil {
			return err
		}
	}
	s.current = node
	for _, p := range s.passes {
		if err := p.VisitNodePost(node); err != nil {
			return err
		}
	}
	return nil
}
