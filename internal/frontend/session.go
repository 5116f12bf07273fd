// Package frontend builds a read-only semantic view over a set of
// TypeScript and JavaScript files: per-module export tables, alias
// resolution through re-export chains, and type rendering.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/fuzdev/fuz-ui-sub000/internal/lang"
	"github.com/fuzdev/fuz-ui-sub000/internal/parse"
	"github.com/fuzdev/fuz-ui-sub000/internal/resolve"
)

// DefaultMemoSize bounds the specifier resolution memo.
const DefaultMemoSize = 4096

var (
	// ErrUnknownModule is returned for file ids the session was not built with.
	ErrUnknownModule = errors.New("module not in session")

	// ErrExternal marks an alias whose target lies outside the session, such
	// as a package import or a file that was not part of the build.
	ErrExternal = errors.New("alias target is outside the session")

	// ErrNotExported marks an alias whose target module does not export the
	// requested name.
	ErrNotExported = errors.New("name is not exported by target module")

	// ErrCycle marks a re-export chain that loops back on itself.
	ErrCycle = errors.New("re-export cycle")

	// ErrSyntax is returned when rendering a node that contains parse errors.
	ErrSyntax = errors.New("syntax error")
)

// SymbolKind is the declaration form behind an exported symbol.
type SymbolKind string

const (
	SymbolFunction  SymbolKind = "function"
	SymbolClass     SymbolKind = "class"
	SymbolInterface SymbolKind = "interface"
	SymbolTypeAlias SymbolKind = "type_alias"
	SymbolEnum      SymbolKind = "enum"
	SymbolVariable  SymbolKind = "variable"
	SymbolNamespace SymbolKind = "namespace"
	SymbolAlias     SymbolKind = "alias"
)

// Symbol is one exported name of a module.
type Symbol struct {
	Name   string
	Module string
	Kind   SymbolKind

	// Decl is the declaring node: a function, class, interface, type alias,
	// enum, variable declarator, or, for aliases, the export specifier.
	Decl *Node

	// Statement is the top-level statement holding Decl.
	Statement *Node

	// Doc is the raw doc comment attached to the statement, if any.
	Doc string

	// Specifier and Imported describe the alias target: the module
	// specifier and the name exported there. Only set for aliases and
	// namespace re-exports.
	Specifier string
	Imported  string
}

// StarExport is an `export * from "x"` statement.
type StarExport struct {
	Specifier string
	Line      int
	Column    int
}

// Location is a 1-based position in a file.
type Location struct {
	File   string
	Line   int
	Column int
}

// Resolved is the terminal declaration an alias chain leads to.
type Resolved struct {
	Symbol *Symbol
	Module string
}

// Input is one file handed to Build.
type Input struct {
	ID     string
	Source []byte
}

// Config configures Build.
type Config struct {
	// Aliases maps specifier prefixes such as "$lib" to absolute directories.
	Aliases map[string]string

	// MemoSize bounds the specifier resolution memo. Zero means
	// DefaultMemoSize.
	MemoSize int
}

type module struct {
	id         string
	statements []*Node
	exports    []*Symbol
	byName     map[string]*Symbol
	stars      []StarExport
}

type specKey struct {
	from      string
	specifier string
}

type resolution struct {
	id string
	ok bool
}

// Session is a semantic view over a fixed file set. After Build returns it
// is safe for concurrent use.
type Session struct {
	modules  map[string]*module
	resolver *resolve.Resolver
	memo     *lru.Cache[specKey, resolution]
}

// Build parses every file and collects its exports. Files in languages the
// registry does not know are left out of the session.
func Build(files []Input, cfg Config) (*Session, error) {
	size := cfg.MemoSize
	if size <= 0 {
		size = DefaultMemoSize
	}
	memo, err := lru.New[specKey, resolution](size)
	if err != nil {
		return nil, fmt.Errorf("creating resolution memo: %w", err)
	}

	sorted := make([]Input, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	s := &Session{
		modules: make(map[string]*module, len(sorted)),
		memo:    memo,
	}
	s.resolver = resolve.New(func(id string) bool {
		_, ok := s.modules[id]
		return ok
	}, cfg.Aliases)

	parsers := map[string]*sitter.Parser{}
	for _, f := range sorted {
		l := lang.ForPath(f.ID)
		if l == nil {
			continue
		}
		parser, ok := parsers[l.Name]
		if !ok {
			parser = l.NewParser()
			parsers[l.Name] = parser
		}
		tree, err := parser.ParseCtx(context.Background(), nil, f.Source)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.ID, err)
		}
		root := snapshot(tree.RootNode(), string(f.Source), f.ID, nil)
		tree.Close()
		s.modules[f.ID] = collect(f.ID, root)
	}
	return s, nil
}

// HasModule reports whether id was part of the build.
func (s *Session) HasModule(id string) bool {
	_, ok := s.modules[id]
	return ok
}

// Statements returns the top-level statements of a module, comments
// included, in source order.
func (s *Session) Statements(id string) []*Node {
	m := s.modules[id]
	if m == nil {
		return nil
	}
	return m.statements
}

// Exports returns the exported symbols of a module in declaration order.
// Each exported name appears once; overloads and merged declarations are
// represented by their first occurrence.
func (s *Session) Exports(id string) ([]*Symbol, error) {
	m := s.modules[id]
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}
	return m.exports, nil
}

// StarExports returns the `export * from` statements of a module.
func (s *Session) StarExports(id string) []StarExport {
	m := s.modules[id]
	if m == nil {
		return nil
	}
	return m.stars
}

// IsAlias reports whether sym re-exports a binding from another module.
func (s *Session) IsAlias(sym *Symbol) bool {
	return sym != nil && sym.Kind == SymbolAlias
}

// Location returns the 1-based position of n.
func (s *Session) Location(n *Node) Location {
	if n == nil {
		return Location{}
	}
	return Location{File: n.file, Line: n.Line, Column: n.Column}
}

// ResolveModuleSpecifier maps a specifier imported from the file from to a
// file id in the session. Results are memoized.
func (s *Session) ResolveModuleSpecifier(from, specifier string) (string, bool) {
	key := specKey{from: from, specifier: specifier}
	if r, ok := s.memo.Get(key); ok {
		return r.id, r.ok
	}
	id, ok := s.resolver.Resolve(from, specifier)
	s.memo.Add(key, resolution{id: id, ok: ok})
	return id, ok
}

// SpecifierTarget returns the path specifier names when imported from the
// file from, whether or not a module exists there. Package specifiers have
// no target.
func (s *Session) SpecifierTarget(from, specifier string) (string, bool) {
	return s.resolver.Target(from, specifier)
}

// ResolveAlias follows sym through any chain of re-exports, including
// barrels that forward names with `export *`, and returns the terminal
// declaration. Non-alias symbols resolve to themselves.
func (s *Session) ResolveAlias(sym *Symbol) (Resolved, error) {
	seen := map[specKey]bool{}
	cur := sym
	for cur.Kind == SymbolAlias {
		key := specKey{from: cur.Module, specifier: cur.Name}
		if seen[key] {
			return Resolved{}, fmt.Errorf("%w: %s in %s", ErrCycle, sym.Name, sym.Module)
		}
		seen[key] = true

		target, ok := s.ResolveModuleSpecifier(cur.Module, cur.Specifier)
		if !ok {
			return Resolved{}, fmt.Errorf("%w: %q", ErrExternal, cur.Specifier)
		}
		next, err := s.lookupExport(target, cur.Imported, map[string]bool{})
		if err != nil {
			return Resolved{}, err
		}
		cur = next
	}
	return Resolved{Symbol: cur, Module: cur.Module}, nil
}

// lookupExport finds name among the exports of id, searching star
// re-exports when it is not declared directly.
func (s *Session) lookupExport(id, name string, visited map[string]bool) (*Symbol, error) {
	m := s.modules[id]
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrExternal, id)
	}
	if sym, ok := m.byName[name]; ok {
		return sym, nil
	}
	if name != "default" && !visited[id] {
		visited[id] = true
		for _, star := range m.stars {
			target, ok := s.ResolveModuleSpecifier(id, star.Specifier)
			if !ok {
				continue
			}
			if sym, err := s.lookupExport(target, name, visited); err == nil {
				return sym, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q from %s", ErrNotExported, name, id)
}

// binding is an imported local name.
type binding struct {
	specifier string
	imported  string // "*" for namespace imports
	node      *Node
}

// local is a top-level declaration that is not exported in place.
type local struct {
	kind      SymbolKind
	decl      *Node
	statement *Node
	doc       string
}

type declared struct {
	name string
	kind SymbolKind
	decl *Node
}

func collect(id string, root *Node) *module {
	m := &module{
		id:         id,
		statements: root.Children,
		byName:     make(map[string]*Symbol),
	}
	imports := map[string]binding{}
	locals := map[string]local{}

	for i, st := range m.statements {
		switch st.Type {
		case "import_statement":
			collectImports(st, imports)
		case "export_statement":
			// `export {x}` may refer back to names declared in an export statement.
			for _, d := range declaredNames(st.Field("declaration")) {
				if _, dup := locals[d.name]; !dup {
					locals[d.name] = local{kind: d.kind, decl: d.decl, statement: st, doc: DocComment(m.statements, i)}
				}
			}
		default:
			for _, d := range declaredNames(st) {
				if _, dup := locals[d.name]; !dup {
					locals[d.name] = local{kind: d.kind, decl: d.decl, statement: st, doc: DocComment(m.statements, i)}
				}
			}
		}
	}

	for i, st := range m.statements {
		if st.Type != "export_statement" {
			continue
		}
		m.collectExport(st, DocComment(m.statements, i), imports, locals)
	}
	return m
}

func (m *module) add(sym *Symbol) {
	if _, dup := m.byName[sym.Name]; dup {
		return
	}
	sym.Module = m.id
	m.byName[sym.Name] = sym
	m.exports = append(m.exports, sym)
}

func (m *module) collectExport(st *Node, doc string, imports map[string]binding, locals map[string]local) {
	// `export = x` has no named surface.
	if st.HasToken("=") {
		return
	}
	source := ""
	if src := st.Field("source"); src != nil {
		source = parse.Unquote(src.Text)
	}

	if decl := st.Field("declaration"); decl != nil {
		names := declaredNames(decl)
		if st.HasToken("default") && len(names) > 0 {
			names = names[:1]
			names[0].name = "default"
		}
		for _, d := range names {
			m.add(&Symbol{Name: d.name, Kind: d.kind, Decl: d.decl, Statement: st, Doc: doc})
		}
		return
	}

	if value := st.Field("value"); value != nil && st.HasToken("default") {
		if value.Type == "identifier" {
			if l, ok := locals[value.Text]; ok {
				m.add(&Symbol{Name: "default", Kind: l.kind, Decl: l.decl, Statement: l.statement, Doc: firstNonEmpty(doc, l.doc)})
				return
			}
			if b, ok := imports[value.Text]; ok {
				m.add(bindingSymbol("default", b, st, doc))
				return
			}
		}
		m.add(&Symbol{Name: "default", Kind: valueKind(value), Decl: value, Statement: st, Doc: doc})
		return
	}

	if ns := st.FirstChild("namespace_export"); ns != nil {
		name := ""
		if len(ns.Children) > 0 {
			name = parse.Unquote(ns.Children[0].Text)
		}
		if name != "" {
			m.add(&Symbol{Name: name, Kind: SymbolNamespace, Decl: ns, Statement: st, Doc: doc, Specifier: source, Imported: "*"})
		}
		return
	}

	clause := st.FirstChild("export_clause")
	if clause == nil {
		if source != "" && st.HasToken("*") {
			m.stars = append(m.stars, StarExport{Specifier: source, Line: st.Line, Column: st.Column})
		}
		return
	}

	for _, spec := range clause.ChildrenOfType("export_specifier") {
		nameNode := spec.Field("name")
		if nameNode == nil {
			continue
		}
		name := parse.Unquote(nameNode.Text)
		exported := name
		if alias := spec.Field("alias"); alias != nil {
			exported = parse.Unquote(alias.Text)
		}

		switch {
		case source != "":
			m.add(&Symbol{Name: exported, Kind: SymbolAlias, Decl: spec, Statement: st, Doc: doc, Specifier: source, Imported: name})
		case imports[name].specifier != "":
			m.add(bindingSymbol(exported, imports[name], spec, doc))
		default:
			l, ok := locals[name]
			if !ok {
				continue
			}
			m.add(&Symbol{Name: exported, Kind: l.kind, Decl: l.decl, Statement: l.statement, Doc: firstNonEmpty(doc, l.doc)})
		}
	}
}

func bindingSymbol(name string, b binding, at *Node, doc string) *Symbol {
	if b.imported == "*" {
		return &Symbol{Name: name, Kind: SymbolNamespace, Decl: b.node, Statement: at, Doc: doc, Specifier: b.specifier, Imported: "*"}
	}
	return &Symbol{Name: name, Kind: SymbolAlias, Decl: at, Statement: at, Doc: doc, Specifier: b.specifier, Imported: b.imported}
}

func collectImports(st *Node, imports map[string]binding) {
	src := st.Field("source")
	if src == nil {
		return
	}
	specifier := parse.Unquote(src.Text)
	clause := st.FirstChild("import_clause")
	if clause == nil {
		return
	}
	for _, c := range clause.Children {
		switch c.Type {
		case "identifier":
			imports[c.Text] = binding{specifier: specifier, imported: "default", node: c}
		case "namespace_import":
			if id := c.FirstChild("identifier"); id != nil {
				imports[id.Text] = binding{specifier: specifier, imported: "*", node: c}
			}
		case "named_imports":
			for _, spec := range c.ChildrenOfType("import_specifier") {
				name := spec.Field("name")
				if name == nil {
					continue
				}
				localName := name.Text
				if alias := spec.Field("alias"); alias != nil {
					localName = alias.Text
				}
				imports[localName] = binding{specifier: specifier, imported: parse.Unquote(name.Text), node: spec}
			}
		}
	}
}

// declaredNames lists the names a declaration statement introduces.
func declaredNames(decl *Node) []declared {
	if decl == nil {
		return nil
	}
	switch decl.Type {
	case "ambient_declaration":
		for _, c := range decl.Children {
			if names := declaredNames(c); len(names) > 0 {
				return names
			}
		}
		return nil
	case "function_declaration", "generator_function_declaration", "function_signature":
		return named(decl, SymbolFunction)
	case "class_declaration", "abstract_class_declaration":
		return named(decl, SymbolClass)
	case "interface_declaration":
		return named(decl, SymbolInterface)
	case "type_alias_declaration":
		return named(decl, SymbolTypeAlias)
	case "enum_declaration":
		return named(decl, SymbolEnum)
	case "internal_module", "module":
		if n := decl.Field("name"); n != nil && n.Type == "identifier" {
			return []declared{{name: n.Text, kind: SymbolNamespace, decl: decl}}
		}
		return nil
	case "lexical_declaration", "variable_declaration":
		var out []declared
		for _, d := range decl.ChildrenOfType("variable_declarator") {
			n := d.Field("name")
			if n == nil || n.Type != "identifier" {
				continue
			}
			out = append(out, declared{name: n.Text, kind: SymbolVariable, decl: d})
		}
		return out
	}
	return nil
}

func named(decl *Node, kind SymbolKind) []declared {
	n := decl.Field("name")
	if n == nil {
		return nil
	}
	return []declared{{name: n.Text, kind: kind, decl: decl}}
}

// valueKind classifies an exported expression.
func valueKind(value *Node) SymbolKind {
	switch Unwrap(value).Type {
	case "arrow_function", "function_expression", "function", "generator_function":
		return SymbolFunction
	case "class":
		return SymbolClass
	}
	return SymbolVariable
}

// Unwrap strips parentheses, type assertions and non-null assertions from an
// expression.
func Unwrap(n *Node) *Node {
	for n != nil {
		switch n.Type {
		case "parenthesized_expression", "satisfies_expression", "as_expression", "non_null_expression":
			if len(n.Children) == 0 {
				return n
			}
			n = n.Children[0]
		default:
			return n
		}
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
