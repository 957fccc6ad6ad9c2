package analysis

import (
	"strconv"

	"github.com/ultra-supara/scanalyzer/pkg/ast"
)

// ScopeKind is the category of a lexical scope.
type ScopeKind uint8

const (
	ScopeProgram ScopeKind = iota
	ScopeFunction
	ScopeBlock
	ScopeCatch
	ScopeClass
)

var scopeNames = [...]string{
	ScopeProgram:  "program",
	ScopeFunction: "function",
	ScopeBlock:    "block",
	ScopeCatch:    "catch",
	ScopeClass:    "class",
}

func (k ScopeKind) String() string { return scopeNames[k] }

// BindingKind tells how a name was introduced.
type BindingKind uint8

const (
	BindingVar BindingKind = iota
	BindingLet
	BindingConst
	BindingParam
	BindingFunction
	BindingClass
	BindingCatchParam
	BindingImport
	// BindingSelf is the name of a named function or class expression, visible
	// only inside its own body.
	BindingSelf
)

var bindingNames = [...]string{
	BindingVar:        "var",
	BindingLet:        "let",
	BindingConst:      "const",
	BindingParam:      "parameter",
	BindingFunction:   "function",
	BindingClass:      "class",
	BindingCatchParam: "catch parameter",
	BindingImport:     "import",
	BindingSelf:       "self",
}

func (k BindingKind) String() string { return bindingNames[k] }

// Binding ties together the declaration of a name and every reference to it.
type Binding struct {
	Name string
	Kind BindingKind
	// Decl is the declaring identifier.
	Decl *ast.Node
	// Init is the initializer of the declarator, or the import statement of
	// an import binding.
	Init *ast.Node
	// Path is the property path of the name inside a destructuring pattern,
	// or the imported name of an import binding.
	Path  []string
	Scope *Scope

	Reads  int
	Writes int

	Exported bool
	// Redeclared is set when the name was declared again in the same scope.
	// Redeclarations holds the declaring identifiers after the first one.
	Redeclared     bool
	Redeclarations []*ast.Node
}

// Used reports whether the binding is ever read. Writes alone never count.
func (b *Binding) Used() bool {
	return b.Reads > 0
}

// Scope is one level of the lexical scope tree.
type Scope struct {
	Kind     ScopeKind
	Node     *ast.Node
	Parent   *Scope
	Children []*Scope

	names map[string]*Binding
	order []*Binding
}

func newScope(kind ScopeKind, node *ast.Node, parent *Scope) *Scope {
	s := &Scope{Kind: kind, Node: node, Parent: parent, names: map[string]*Binding{}}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Lookup finds the binding of name in s or its ancestors.
func (s *Scope) Lookup(name string) *Binding {
	for cur := s; cur != nil; cur = cur.Parent {
		if b, ok := cur.names[name]; ok {
			return b
		}
	}
	return nil
}

// Local returns the binding of name declared directly in s.
func (s *Scope) Local(name string) *Binding {
	return s.names[name]
}

// Bindings returns the live bindings of s in declaration order.
func (s *Scope) Bindings() []*Binding {
	return s.order
}

// declare inserts a binding. Redeclaring never fails: var-like names share
// one binding, anything else replaces the previous binding.
func (s *Scope) declare(name string, kind BindingKind, decl *ast.Node) *Binding {
	if prev, ok := s.names[name]; ok {
		if varLike(prev.Kind) && varLike(kind) {
			prev.Redeclared = true
			prev.Redeclarations = append(prev.Redeclarations, decl)
			return prev
		}
		b := &Binding{Name: name, Kind: kind, Decl: decl, Scope: s, Redeclared: true}
		b.Redeclarations = append(append([]*ast.Node{}, prev.Redeclarations...), decl)
		s.names[name] = b
		for i, o := range s.order {
			if o == prev {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		s.order = append(s.order, b)
		return b
	}
	b := &Binding{Name: name, Kind: kind, Decl: decl, Scope: s}
	s.names[name] = b
	s.order = append(s.order, b)
	return b
}

func varLike(k BindingKind) bool {
	return k == BindingVar || k == BindingFunction || k == BindingParam
}

// ScopeIndex is the result of scope tracking over one tree.
type ScopeIndex struct {
	Root *Scope
	// Unresolved lists identifier references with no binding in scope.
	Unresolved []*ast.Node

	refs   map[*ast.Node]*Binding
	scopes map[*ast.Node]*Scope
}

// Resolve returns the binding an identifier node refers to or declares,
// or nil when it is unresolved or not an identifier.
func (x *ScopeIndex) Resolve(id *ast.Node) *Binding {
	return x.refs[id]
}

// Enclosing returns the innermost scope containing node.
func (x *ScopeIndex) Enclosing(node *ast.Node) *Scope {
	for n := node; n != nil; n = n.Parent {
		if s, ok := x.scopes[n]; ok && n != node {
			return s
		}
	}
	return x.Root
}

// Bindings returns every binding of the tree, scopes visited depth first and
// bindings in declaration order.
func (x *ScopeIndex) Bindings() []*Binding {
	var out []*Binding
	var visit func(s *Scope)
	visit = func(s *Scope) {
		out = append(out, s.order...)
		for _, c := range s.Children {
			visit(c)
		}
	}
	visit(x.Root)
	return out
}

// BuildScopes builds the scope tree of a program and resolves every
// identifier reference. It is the single writer of binding counters.
func BuildScopes(root *ast.Node) *ScopeIndex {
	b := &scopeBuilder{
		index: &ScopeIndex{
			refs:   map[*ast.Node]*Binding{},
			scopes: map[*ast.Node]*Scope{},
		},
	}
	s := b.push(ScopeProgram, root, nil)
	b.index.Root = s
	b.hoistVars(s, root)
	b.hoistLexical(s, root.Statements())
	b.visitChildren(s, root)
	return b.index
}

type scopeBuilder struct {
	index *ScopeIndex
}

func (b *scopeBuilder) push(kind ScopeKind, node *ast.Node, parent *Scope) *Scope {
	s := newScope(kind, node, parent)
	b.index.scopes[node] = s
	return s
}

func (b *scopeBuilder) declare(s *Scope, id *ast.Node, kind BindingKind, init *ast.Node, path []string) *Binding {
	bind := s.declare(id.Text, kind, id)
	if bind.Decl == id {
		bind.Init = init
		bind.Path = path
	}
	b.index.refs[id] = bind
	return bind
}

// hoistVars declares every var of a function or program body without
// crossing nested functions.
func (b *scopeBuilder) hoistVars(s *Scope, body *ast.Node) {
	body.Walk(func(n *ast.Node) bool {
		if n != body && n.Kind.IsFunction() {
			return false
		}
		switch n.Kind {
		case ast.KindVarDecl:
			if n.Keyword == "var" {
				for _, d := range n.Children {
					if d.Kind == ast.KindDeclarator {
						b.declarePattern(s, d.Child("name"), BindingVar, d.Child("value"), nil)
					}
				}
			}
		case ast.KindForIn:
			if n.Keyword == "var" {
				b.declarePattern(s, n.Child("left"), BindingVar, n.Child("right"), nil)
			}
		}
		return true
	})
}

// hoistLexical declares the block scoped names of a statement sequence.
func (b *scopeBuilder) hoistLexical(s *Scope, stmts []*ast.Node) {
	for _, st := range stmts {
		exported := false
		if st.Kind == ast.KindExport {
			exported = true
			st = st.Child("declaration")
			if st == nil {
				continue
			}
		}
		var declared []*Binding
		switch st.Kind {
		case ast.KindVarDecl:
			if st.Keyword == "var" {
				if exported {
					for _, d := range st.Children {
						if d.Kind == ast.KindDeclarator {
							declared = append(declared, b.patternBindings(d.Child("name"))...)
						}
					}
				}
				break
			}
			kind := BindingLet
			if st.Keyword == "const" {
				kind = BindingConst
			}
			for _, d := range st.Children {
				if d.Kind == ast.KindDeclarator {
					declared = append(declared, b.declarePattern(s, d.Child("name"), kind, d.Child("value"), nil)...)
				}
			}
		case ast.KindFunctionDecl:
			if id := st.Child("name"); id != nil {
				declared = append(declared, b.declare(s, id, BindingFunction, st, nil))
			}
		case ast.KindClassDecl:
			if id := st.Child("name"); id != nil {
				declared = append(declared, b.declare(s, id, BindingClass, st, nil))
			}
		case ast.KindImport:
			b.declareImport(s, st)
		}
		for _, d := range declared {
			d.Exported = d.Exported || exported
		}
	}
}

func (b *scopeBuilder) patternBindings(pattern *ast.Node) []*Binding {
	var out []*Binding
	for _, id := range PatternNames(pattern) {
		if bind := b.index.refs[id]; bind != nil {
			out = append(out, bind)
		}
	}
	return out
}

// PatternNames returns the identifiers a binding pattern declares, skipping
// default values and computed keys.
func PatternNames(pattern *ast.Node) []*ast.Node {
	if pattern == nil {
		return nil
	}
	switch pattern.Kind {
	case ast.KindIdent, ast.KindShorthandPattern:
		return []*ast.Node{pattern}
	case ast.KindAssignPattern, ast.KindObjectAssignPattern:
		return PatternNames(pattern.Child("left"))
	case ast.KindPairPattern:
		return PatternNames(pattern.Child("value"))
	case ast.KindObjectPattern, ast.KindArrayPattern, ast.KindRestPattern:
		var out []*ast.Node
		for _, c := range pattern.Children {
			out = append(out, PatternNames(c)...)
		}
		return out
	}
	return nil
}

func (b *scopeBuilder) declareImport(s *Scope, stmt *ast.Node) {
	for _, clause := range stmt.Children {
		if clause.Kind != ast.KindImportClause {
			continue
		}
		for _, c := range clause.Children {
			switch c.Kind {
			case ast.KindIdent:
				b.declare(s, c, BindingImport, stmt, []string{"default"})
			case ast.KindNamespaceImport:
				if id := c.FirstChild(); id != nil {
					b.declare(s, id, BindingImport, stmt, nil)
				}
			case ast.KindNamedImports:
				for _, specifier := range c.Children {
					if specifier.Kind != ast.KindImportSpecifier {
						continue
					}
					name := specifier.Child("name")
					local := specifier.Child("alias")
					if local == nil {
						local = name
					}
					if name == nil || local == nil {
						continue
					}
					imported := name.Text
					if v, ok := name.StringValue(); ok {
						imported = v
					}
					b.declare(s, local, BindingImport, stmt, []string{imported})
				}
			}
		}
	}
}

// declarePattern declares every name of a binding pattern. Each name keeps
// its property path inside the pattern.
func (b *scopeBuilder) declarePattern(s *Scope, pattern *ast.Node, kind BindingKind, init *ast.Node, path []string) []*Binding {
	if pattern == nil {
		return nil
	}
	switch pattern.Kind {
	case ast.KindIdent, ast.KindShorthandPattern:
		return []*Binding{b.declare(s, pattern, kind, init, path)}
	case ast.KindObjectPattern:
		var out []*Binding
		for _, c := range pattern.Children {
			switch c.Kind {
			case ast.KindShorthandPattern:
				out = append(out, b.declare(s, c, kind, init, extend(path, c.Text)))
			case ast.KindPairPattern:
				out = append(out, b.declarePattern(s, c.Child("value"), kind, init, extend(path, keyName(c.Child("key"))))...)
			case ast.KindObjectAssignPattern:
				left := c.Child("left")
				if left != nil {
					out = append(out, b.declarePattern(s, left, kind, init, extend(path, left.Text))...)
				}
			case ast.KindRestPattern:
				out = append(out, b.declarePattern(s, c.FirstChild(), kind, init, extend(path, "..."))...)
			}
		}
		return out
	case ast.KindArrayPattern:
		var out []*Binding
		i := 0
		for _, c := range pattern.Children {
			if c.Kind == ast.KindComment {
				continue
			}
			out = append(out, b.declarePattern(s, c, kind, init, extend(path, strconv.Itoa(i)))...)
			i++
		}
		return out
	case ast.KindAssignPattern:
		return b.declarePattern(s, pattern.Child("left"), kind, init, path)
	case ast.KindRestPattern:
		return b.declarePattern(s, pattern.FirstChild(), kind, init, path)
	}
	return nil
}

func extend(path []string, elem string) []string {
	out := make([]string, 0, len(path)+1)
	return append(append(out, path...), elem)
}

func keyName(key *ast.Node) string {
	if key == nil {
		return ""
	}
	if v, ok := key.StringValue(); ok {
		return v
	}
	return key.Text
}

func (b *scopeBuilder) visitChildren(s *Scope, n *ast.Node) {
	for _, c := range n.Children {
		b.visit(s, c)
	}
}

func (b *scopeBuilder) visit(s *Scope, n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindIdent:
		b.read(s, n)

	case ast.KindShorthandProperty:
		b.read(s, n)

	case ast.KindFunctionDecl, ast.KindFunctionExpr, ast.KindArrowFunction, ast.KindMethod:
		b.visitFunction(s, n)

	case ast.KindClassDecl, ast.KindClassExpr:
		cs := b.push(ScopeClass, n, s)
		if n.Kind == ast.KindClassExpr {
			if id := n.Child("name"); id != nil {
				b.declare(cs, id, BindingSelf, n, nil)
			}
		}
		for _, c := range n.Children {
			if c.Field == "name" {
				continue
			}
			if c.Kind == ast.KindClassBody {
				b.visitChildren(cs, c)
				continue
			}
			b.visit(s, c)
		}

	case ast.KindBlock:
		bs := b.push(ScopeBlock, n, s)
		b.hoistLexical(bs, n.Statements())
		b.visitChildren(bs, n)

	case ast.KindSwitchBody:
		bs := b.push(ScopeBlock, n, s)
		for _, c := range n.Children {
			b.hoistLexical(bs, c.Statements())
		}
		b.visitChildren(bs, n)

	case ast.KindFor:
		fs := b.push(ScopeBlock, n, s)
		if init := n.Child("initializer"); init != nil {
			b.hoistLexical(fs, []*ast.Node{init})
		}
		b.visitChildren(fs, n)

	case ast.KindForIn:
		fs := b.push(ScopeBlock, n, s)
		left := n.Child("left")
		switch n.Keyword {
		case "let", "const":
			kind := BindingLet
			if n.Keyword == "const" {
				kind = BindingConst
			}
			for _, bind := range b.declarePattern(fs, left, kind, n.Child("right"), nil) {
				bind.Writes++
			}
			b.visitPatternDefaults(fs, left)
		case "var":
			b.assignTarget(fs, left)
		default:
			b.assignTarget(fs, left)
		}
		for _, c := range n.Children {
			if c.Field != "left" {
				b.visit(fs, c)
			}
		}

	case ast.KindCatch:
		cs := b.push(ScopeCatch, n, s)
		param := n.Child("parameter")
		b.declarePattern(cs, param, BindingCatchParam, nil, nil)
		b.visitPatternDefaults(cs, param)
		if body := n.Child("body"); body != nil {
			b.index.scopes[body] = cs
			b.hoistLexical(cs, body.Statements())
			b.visitChildren(cs, body)
		}

	case ast.KindDeclarator:
		name := n.Child("name")
		value := n.Child("value")
		if value != nil {
			for _, bind := range b.patternBindings(name) {
				bind.Writes++
			}
		}
		b.visitPatternDefaults(s, name)
		b.visit(s, value)

	case ast.KindAssign:
		b.assignTarget(s, n.Child("left"))
		b.visit(s, n.Child("right"))

	case ast.KindAugmentedAssign:
		b.updateTarget(s, n, n.Child("left"))
		b.visit(s, n.Child("right"))

	case ast.KindUpdate:
		b.updateTarget(s, n, n.Child("argument"))

	case ast.KindImport:
		// bindings were declared by hoistLexical

	case ast.KindLabel, ast.KindPropertyName:

	default:
		if n.Type == "export_specifier" {
			b.visit(s, n.Child("name"))
			return
		}
		b.visitChildren(s, n)
	}
}

func (b *scopeBuilder) visitFunction(s *Scope, fn *ast.Node) {
	fs := b.push(ScopeFunction, fn, s)
	if fn.Kind == ast.KindFunctionExpr {
		if id := fn.Child("name"); id != nil {
			b.declare(fs, id, BindingSelf, fn, nil)
		}
	}
	if p := fn.Child("parameter"); p != nil {
		b.declarePattern(fs, p, BindingParam, nil, nil)
	}
	if params := fn.Child("parameters"); params != nil {
		for _, p := range params.Children {
			b.declarePattern(fs, p, BindingParam, nil, nil)
		}
		for _, p := range params.Children {
			b.visitPatternDefaults(fs, p)
		}
	}
	if fn.Kind == ast.KindMethod {
		if name := fn.Child("name"); name != nil && name.Type == "computed_property_name" {
			b.visit(s, name)
		}
	}

	body := fn.Child("body")
	if body == nil {
		return
	}
	if body.Kind != ast.KindBlock {
		b.visit(fs, body)
		return
	}
	b.index.scopes[body] = fs
	b.hoistVars(fs, body)
	b.hoistLexical(fs, body.Statements())
	b.visitChildren(fs, body)
}

// visitPatternDefaults visits default values and computed keys of a binding
// pattern without touching the declared names.
func (b *scopeBuilder) visitPatternDefaults(s *Scope, pattern *ast.Node) {
	if pattern == nil {
		return
	}
	switch pattern.Kind {
	case ast.KindAssignPattern, ast.KindObjectAssignPattern:
		b.visitPatternDefaults(s, pattern.Child("left"))
		b.visit(s, pattern.Child("right"))
	case ast.KindPairPattern:
		if key := pattern.Child("key"); key != nil && key.Type == "computed_property_name" {
			b.visit(s, key)
		}
		b.visitPatternDefaults(s, pattern.Child("value"))
	case ast.KindObjectPattern, ast.KindArrayPattern, ast.KindRestPattern:
		for _, c := range pattern.Children {
			b.visitPatternDefaults(s, c)
		}
	}
}

// assignTarget records a plain assignment. Identifiers are written, never read.
func (b *scopeBuilder) assignTarget(s *Scope, target *ast.Node) {
	if target == nil {
		return
	}
	switch target.Kind {
	case ast.KindIdent, ast.KindShorthandPattern:
		if bind := b.resolve(s, target); bind != nil {
			bind.Writes++
		}
	case ast.KindParen:
		b.assignTarget(s, target.FirstChild())
	case ast.KindObjectPattern, ast.KindArrayPattern, ast.KindRestPattern:
		for _, c := range target.Children {
			b.assignTarget(s, c)
		}
	case ast.KindPairPattern:
		if key := target.Child("key"); key != nil && key.Type == "computed_property_name" {
			b.visit(s, key)
		}
		b.assignTarget(s, target.Child("value"))
	case ast.KindAssignPattern, ast.KindObjectAssignPattern:
		b.assignTarget(s, target.Child("left"))
		b.visit(s, target.Child("right"))
	default:
		b.visit(s, target)
	}
}

// updateTarget records a compound assignment or increment. The target is
// also read when the expression value is used.
func (b *scopeBuilder) updateTarget(s *Scope, expr, target *ast.Node) {
	target = target.Unparen()
	if target == nil {
		return
	}
	if target.Kind != ast.KindIdent {
		b.visit(s, target)
		return
	}
	bind := b.resolve(s, target)
	if bind == nil {
		return
	}
	bind.Writes++
	if valueUsed(expr) {
		bind.Reads++
	}
}

func valueUsed(expr *ast.Node) bool {
	p := expr.Parent
	if p == nil {
		return false
	}
	switch p.Kind {
	case ast.KindExprStmt:
		return false
	case ast.KindFor:
		return expr.Field != "increment"
	case ast.KindParen:
		return valueUsed(p)
	case ast.KindSequence:
		if p.Children[len(p.Children)-1] != expr {
			return false
		}
		return valueUsed(p)
	}
	return true
}

func (b *scopeBuilder) read(s *Scope, id *ast.Node) {
	if bind := b.resolve(s, id); bind != nil {
		bind.Reads++
	}
}

func (b *scopeBuilder) resolve(s *Scope, id *ast.Node) *Binding {
	if bind, ok := b.index.refs[id]; ok {
		return bind
	}
	bind := s.Lookup(id.Text)
	if bind == nil {
		b.index.Unresolved = append(b.index.Unresolved, id)
		return nil
	}
	b.index.refs[id] = bind
	return bind
}
