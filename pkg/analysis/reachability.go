package analysis

import (
	"sort"

	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

// Reachability is the set of statements that can never execute because an
// earlier sibling always exits the sequence. It is immutable once computed.
type Reachability struct {
	terminators map[*ast.Node]*ast.Node
	order       []*ast.Node
}

// IsUnreachable reports whether the statement is unreachable.
func (r *Reachability) IsUnreachable(stmt *ast.Node) bool {
	_, ok := r.terminators[stmt]
	return ok
}

// Terminator returns the exit statement that makes stmt unreachable, or nil.
func (r *Reachability) Terminator(stmt *ast.Node) *ast.Node {
	return r.terminators[stmt]
}

// Unreachable returns the unreachable statements in source order. Statements
// nested in an unreachable statement are not listed.
func (r *Reachability) Unreachable() []*ast.Node {
	return r.order
}

// AnalyzeReachability scans every statement sequence of the program.
//
// A sequence terminates at return, throw, break or continue. An if statement
// terminates when both branches do, a block when its own sequence does, and a
// try statement when its finally clause does or when both its body and its
// catch clause do. Loops, switch and labeled statements never terminate the
// enclosing sequence. Every statement after an exit is marked, function
// declarations included, even though their bindings are hoisted.
func AnalyzeReachability(root *ast.Node) *Reachability {
	r := &Reachability{terminators: map[*ast.Node]*ast.Node{}}
	r.sequence(root.Statements())
	sort.SliceStable(r.order, func(i, j int) bool {
		return r.order[i].Span.Start < r.order[j].Span.Start
	})
	return r
}

// sequence returns the exit statement that terminates stmts, or nil.
func (r *Reachability) sequence(stmts []*ast.Node) *ast.Node {
	var exit *ast.Node
	for _, s := range stmts {
		if exit == nil {
			exit = r.statement(s)
			continue
		}
		r.terminators[s] = exit
		r.order = append(r.order, s)
	}
	return exit
}

func (r *Reachability) statement(s *ast.Node) *ast.Node {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case ast.KindReturn, ast.KindThrow:
		r.functions(s)
		return s
	case ast.KindBreak, ast.KindContinue:
		return s
	case ast.KindBlock:
		return r.sequence(s.Statements())
	case ast.KindIf:
		r.functions(s.Child("condition"))
		then := r.statement(s.Child("consequence"))
		var otherwise *ast.Node
		if alt := s.Child("alternative"); alt != nil {
			otherwise = r.statement(alt.FirstChild())
		}
		if then != nil && otherwise != nil {
			return then
		}
		return nil
	case ast.KindTry:
		body := r.statement(s.Child("body"))
		var handler, finalizer *ast.Node
		catch := s.Child("handler")
		if catch != nil {
			r.functions(catch.Child("parameter"))
			handler = r.statement(catch.Child("body"))
		}
		if fin := s.Child("finalizer"); fin != nil {
			finalizer = r.statement(fin.Child("body"))
		}
		if finalizer != nil {
			return finalizer
		}
		if body != nil && (catch == nil || handler != nil) {
			return body
		}
		return nil
	case ast.KindFor, ast.KindForIn, ast.KindWhile, ast.KindDoWhile:
		for _, c := range s.Children {
			if c.Field == "body" {
				r.statement(c)
			} else {
				r.functions(c)
			}
		}
		return nil
	case ast.KindSwitch:
		r.functions(s.Child("value"))
		if body := s.Child("body"); body != nil {
			for _, c := range body.Children {
				r.functions(c.Child("value"))
				r.sequence(c.Statements())
			}
		}
		return nil
	case ast.KindLabeled:
		r.statement(s.Child("body"))
		return nil
	}
	r.functions(s)
	return nil
}

// functions scans the bodies of the functions nested in an expression or a
// simple statement.
func (r *Reachability) functions(n *ast.Node) {
	n.Walk(func(c *ast.Node) bool {
		if !c.Kind.IsFunction() {
			return true
		}
		body := c.Child("body")
		if body.Is(ast.KindBlock) {
			r.sequence(body.Statements())
		} else {
			r.functions(body)
		}
		for _, p := range c.ChildrenOf("parameters") {
			r.functions(p)
		}
		return false
	})
}
