package analyze

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fuzdev/fuz-ui-sub000/internal/diag"
	"github.com/fuzdev/fuz-ui-sub000/internal/frontend"
	"github.com/fuzdev/fuz-ui-sub000/internal/lang"
	"github.com/fuzdev/fuz-ui-sub000/internal/model"
	"github.com/fuzdev/fuz-ui-sub000/internal/tsdoc"
)

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func init() {
	Register(lang.ExtractorTypeScript, extractTypeScript)
}

type extractor struct {
	in    Input
	id    string
	names map[string]bool
	out   *Analysis
}

func extractTypeScript(in Input) *Analysis {
	id := in.File.ID
	if !in.Session.HasModule(id) {
		skip(in, "module not found in frontend session")
		return nil
	}
	exports, err := in.Session.Exports(id)
	if err != nil {
		skip(in, err.Error())
		return nil
	}

	x := &extractor{in: in, id: id, names: map[string]bool{}, out: &Analysis{}}
	x.out.ModuleComment = moduleComment(in.Session.Statements(id), in.ParseDoc)
	for _, sym := range exports {
		if in.Session.IsAlias(sym) {
			x.reexport(sym)
			continue
		}
		x.add(x.declaration(sym))
	}
	x.stars()
	return x.out
}

func skip(in Input, reason string) {
	in.Diag.Add(diag.ModuleSkipped{
		Location: diag.Location{
			File:     in.File.ID,
			Message:  "skipping module: " + reason,
			Severity: diag.SeverityWarning,
		},
		Reason: reason,
	})
}

func (x *extractor) add(a Analyzed) {
	if x.names[a.Declaration.Name] {
		return
	}
	x.names[a.Declaration.Name] = true
	x.out.Declarations = append(x.out.Declarations, a)
}

func (x *extractor) reexport(sym *frontend.Symbol) {
	res, err := x.in.Session.ResolveAlias(sym)
	if err != nil {
		if errors.Is(err, frontend.ErrExternal) {
			if x.missingTarget(sym.Module, sym.Specifier) {
				loc := x.location(sym.Decl, fmt.Sprintf("re-export %q: %q names no module in the library", sym.Name, sym.Specifier))
				x.in.Diag.Add(diag.ReexportUnresolved{Location: loc, Name: sym.Name, Specifier: sym.Specifier})
			}
			return
		}
		loc := x.location(sym.Decl, fmt.Sprintf("cannot resolve re-export %q: %v", sym.Name, err))
		loc.Severity = diag.SeverityError
		x.in.Diag.Add(diag.ReexportUnresolved{Location: loc, Name: sym.Name, Specifier: sym.Specifier})
		return
	}
	origin, ok := x.in.Scope.ModulePath(res.Module)
	if !ok {
		return
	}
	if res.Symbol.Name == sym.Name {
		x.out.ReExports = append(x.out.ReExports, model.ReExportFact{Name: sym.Name, OriginalModule: origin})
		return
	}

	d := model.Declaration{
		Name:       sym.Name,
		Kind:       kindOf(res.Symbol),
		AliasOf:    &model.AliasOf{Module: origin, Name: res.Symbol.Name},
		SourceLine: x.in.Session.Location(sym.Decl).Line,
	}
	suppressed := applyDoc(&d, x.doc(sym.Doc))
	x.add(Analyzed{Declaration: d, Suppressed: suppressed})
}

func (x *extractor) stars() {
	seen := map[string]bool{}
	for _, st := range x.in.Session.StarExports(x.id) {
		target, ok := x.in.Session.ResolveModuleSpecifier(x.id, st.Specifier)
		if !ok {
			if x.missingTarget(x.id, st.Specifier) {
				x.in.Diag.Add(diag.ReexportUnresolved{
					Location: diag.Location{
						File:     x.id,
						Line:     st.Line,
						Column:   st.Column,
						Message:  fmt.Sprintf("export *: %q names no module in the library", st.Specifier),
						Severity: diag.SeverityWarning,
					},
					Name:      "*",
					Specifier: st.Specifier,
				})
			}
			continue
		}
		path, ok := x.in.Scope.ModulePath(target)
		if !ok || seen[path] {
			continue
		}
		seen[path] = true
		x.out.StarExports = append(x.out.StarExports, path)
	}
}

// missingTarget reports whether specifier, imported from the file from,
// points inside the source paths yet matches no module of the session.
// Package imports and paths outside the source paths are not missing.
func (x *extractor) missingTarget(from, specifier string) bool {
	if _, ok := x.in.Session.ResolveModuleSpecifier(from, specifier); ok {
		return false
	}
	target, ok := x.in.Session.SpecifierTarget(from, specifier)
	return ok && x.in.Scope.InSourcePaths(target)
}

func (x *extractor) doc(raw string) *tsdoc.Comment {
	if raw == "" {
		return nil
	}
	return x.in.ParseDoc(raw)
}

// location builds a warning at n, falling back to the module file.
func (x *extractor) location(n *frontend.Node, msg string) diag.Location {
	loc := x.in.Session.Location(n)
	if loc.File == "" {
		loc.File = x.id
	}
	return diag.Location{
		File:     loc.File,
		Line:     loc.Line,
		Column:   loc.Column,
		Message:  msg,
		Severity: diag.SeverityWarning,
	}
}

// protect runs fn, turning a panic into an error.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (x *extractor) declaration(sym *frontend.Symbol) Analyzed {
	decl := sym.Decl
	d := model.Declaration{
		Name:       sym.Name,
		Kind:       kindOf(sym),
		SourceLine: x.in.Session.Location(decl).Line,
	}
	doc := x.doc(sym.Doc)
	a := Analyzed{Suppressed: applyDoc(&d, doc)}

	switch d.Kind {
	case model.Function:
		fn := callableOf(decl)
		x.typeSignature(&d, decl)
		x.signature(&d, fn, doc)
		if decl.Field("type_parameters") != nil {
			x.generics(&d, decl)
		} else {
			x.generics(&d, fn)
		}
		if fn.HasToken("async") {
			d.Modifiers = append(d.Modifiers, "async")
		}
	case model.Class:
		cls := classOf(decl)
		x.generics(&d, cls)
		x.heritage(&d, cls)
		x.members(&d, cls, &a.SuppressedMembers)
		if cls != nil && cls.Type == "abstract_class_declaration" {
			d.Modifiers = append(d.Modifiers, "abstract")
		}
	case model.Type:
		x.generics(&d, decl)
		switch decl.Type {
		case "type_alias_declaration":
			x.typeSignature(&d, decl)
			if v := decl.Field("value"); v != nil && v.Type == "object_type" {
				x.properties(&d, v, &a.SuppressedProperties)
			}
		case "interface_declaration":
			x.interfaceExtends(&d, decl)
			x.properties(&d, decl.Field("body"), &a.SuppressedProperties)
		case "enum_declaration":
			x.enumMembers(&d, decl.Field("body"), &a.SuppressedProperties)
			d.TypeSignature = enumSignature(d.Name, d.Properties)
		}
	default:
		x.typeSignature(&d, decl)
	}
	a.Declaration = d
	return a
}

// enumSignature renders an enum as the union of its members, the way the
// enum type itself reads.
func enumSignature(name string, members []model.Declaration) string {
	if len(members) == 0 {
		return "never"
	}
	parts := make([]string, len(members))
	for i, m := range members {
		if identRe.MatchString(m.Name) {
			parts[i] = name + "." + m.Name
		} else {
			parts[i] = name + "[" + strconv.Quote(m.Name) + "]"
		}
	}
	return strings.Join(parts, " | ")
}

func (x *extractor) typeSignature(d *model.Declaration, n *frontend.Node) {
	var sig string
	err := protect(func() error {
		var err error
		sig, err = x.in.Session.RenderType(n)
		return err
	})
	if err != nil {
		x.in.Diag.Add(diag.TypeExtractionFailed{
			Location: x.location(n, fmt.Sprintf("rendering type of %s: %v", d.Name, err)),
			Symbol:   d.Name,
		})
		return
	}
	d.TypeSignature = sig
}

func (x *extractor) signature(d *model.Declaration, fn *frontend.Node, doc *tsdoc.Comment) {
	if fn == nil {
		return
	}
	err := protect(func() error {
		params, err := x.parameters(fn, doc)
		d.Parameters = params
		if err != nil {
			return err
		}
		ret, err := x.in.Session.ReturnType(fn)
		if err != nil {
			return err
		}
		d.ReturnType = ret
		return nil
	})
	if err != nil {
		x.in.Diag.Add(diag.SignatureAnalysisFailed{
			Location: x.location(fn, fmt.Sprintf("analyzing signature of %s: %v", d.Name, err)),
			Function: d.Name,
		})
	}
}

func (x *extractor) parameters(fn *frontend.Node, doc *tsdoc.Comment) ([]model.Parameter, error) {
	if p := fn.Field("parameter"); p != nil {
		return []model.Parameter{{Name: p.Text, Type: "any", Description: paramDoc(doc, p.Text)}}, nil
	}
	params := fn.Field("parameters")
	if params == nil {
		return nil, nil
	}
	var out []model.Parameter
	for _, p := range params.Children {
		if p.Type == "comment" {
			continue
		}
		name := frontend.ParamName(p)
		if name == "this" {
			continue
		}
		typ, err := x.in.Session.RenderType(p)
		if err != nil {
			return out, err
		}
		out = append(out, model.Parameter{
			Name:         name,
			Type:         typ,
			Optional:     frontend.IsOptionalParam(p),
			DefaultValue: frontend.ParamDefault(p),
			Description:  paramDoc(doc, name),
		})
	}
	return out, nil
}

func paramDoc(doc *tsdoc.Comment, name string) string {
	if doc == nil {
		return ""
	}
	return doc.Params[name]
}

func (x *extractor) generics(d *model.Declaration, holder *frontend.Node) {
	tp := holder.Field("type_parameters")
	if tp == nil {
		return
	}
	var params []model.GenericParam
	err := protect(func() error {
		for _, p := range tp.ChildrenOfType("type_parameter") {
			name := p.Field("name")
			if name == nil {
				continue
			}
			g := model.GenericParam{Name: name.Text}
			var err error
			if g.Constraint, err = x.in.Session.RenderType(p.Field("constraint")); err != nil {
				return err
			}
			if g.DefaultType, err = x.in.Session.RenderType(p.Field("value")); err != nil {
				return err
			}
			params = append(params, g)
		}
		return nil
	})
	d.GenericParams = params
	if err != nil {
		x.in.Diag.Add(diag.TypeExtractionFailed{
			Location: x.location(tp, fmt.Sprintf("rendering type parameters of %s: %v", d.Name, err)),
			Symbol:   d.Name,
		})
	}
}

func (x *extractor) heritage(d *model.Declaration, cls *frontend.Node) {
	h := cls.FirstChild("class_heritage")
	if h == nil {
		return
	}
	clauses := false
	for _, c := range h.Children {
		switch c.Type {
		case "extends_clause":
			clauses = true
			d.Extends = append(d.Extends, lang.CollapseWhitespace(strings.TrimPrefix(c.Text, "extends")))
		case "implements_clause":
			clauses = true
			for _, t := range c.Children {
				d.Implements = append(d.Implements, lang.CollapseWhitespace(t.Text))
			}
		}
	}
	// JavaScript heritage holds the expression directly.
	if !clauses && len(h.Children) > 0 {
		d.Extends = append(d.Extends, lang.CollapseWhitespace(h.Children[0].Text))
	}
}

func (x *extractor) interfaceExtends(d *model.Declaration, decl *frontend.Node) {
	clause := decl.FirstChild("extends_type_clause", "extends_clause")
	if clause == nil {
		return
	}
	for _, t := range clause.Children {
		d.Extends = append(d.Extends, lang.CollapseWhitespace(t.Text))
	}
}

// kindOf classifies a symbol by the nature of its declaration.
func kindOf(sym *frontend.Symbol) model.Kind {
	switch sym.Kind {
	case frontend.SymbolFunction:
		return model.Function
	case frontend.SymbolClass:
		return model.Class
	case frontend.SymbolInterface, frontend.SymbolTypeAlias, frontend.SymbolEnum:
		return model.Type
	}
	if callableOf(sym.Decl) != nil {
		return model.Function
	}
	if classOf(sym.Decl) != nil {
		return model.Class
	}
	return model.Variable
}

// callableOf returns the node carrying the parameter list of a
// function-valued declaration, or nil.
func callableOf(decl *frontend.Node) *frontend.Node {
	if decl == nil {
		return nil
	}
	if frontend.IsCallable(decl) {
		return decl
	}
	switch decl.Type {
	case "variable_declarator", "public_field_definition", "property_signature":
		if v := frontend.Unwrap(decl.Field("value")); frontend.IsCallable(v) {
			return v
		}
		if t := decl.Field("type"); t != nil && len(t.Children) > 0 {
			if ft := t.Children[len(t.Children)-1]; ft.Type == "function_type" {
				return ft
			}
		}
		return nil
	}
	if v := frontend.Unwrap(decl); frontend.IsCallable(v) {
		return v
	}
	return nil
}

func classOf(decl *frontend.Node) *frontend.Node {
	if decl == nil {
		return nil
	}
	switch decl.Type {
	case "class_declaration", "abstract_class_declaration", "class":
		return decl
	case "variable_declarator":
		if v := frontend.Unwrap(decl.Field("value")); v != nil && v.Type == "class" {
			return v
		}
		return nil
	}
	if v := frontend.Unwrap(decl); v != nil && v.Type == "class" {
		return v
	}
	return nil
}

// applyDoc copies doc-comment content onto d and reports whether the
// declaration is suppressed from docs.
func applyDoc(d *model.Declaration, c *tsdoc.Comment) bool {
	if c == nil {
		return false
	}
	d.DocComment = c.Description
	d.ReturnDescription = c.Returns
	for _, t := range c.Throws {
		d.Throws = append(d.Throws, model.Throw{Type: t.Type, Description: t.Description})
	}
	d.Since = c.Since
	d.Examples = c.Examples
	d.SeeAlso = c.See
	if c.Deprecated {
		d.DeprecatedMessage = c.DeprecatedMessage
		if d.DeprecatedMessage == "" {
			d.DeprecatedMessage = "deprecated"
		}
	}
	return c.NoDocs
}

// moduleComment returns the description of the leading module-level doc
// comment: one preceded only by imports and comments that is detached from
// the next statement by a blank line, or carries @module.
func moduleComment(statements []*frontend.Node, parse DocParser) string {
	for i, st := range statements {
		switch st.Type {
		case "comment":
			if !frontend.IsDocComment(st.Text) {
				continue
			}
			c := parse(st.Text)
			if c == nil {
				continue
			}
			var next *frontend.Node
			if i+1 < len(statements) {
				next = statements[i+1]
			}
			detached := next == nil ||
				next.Type == "import_statement" ||
				next.Type == "comment" ||
				next.Line-st.EndLine > 1
			if !detached && !c.Module {
				return ""
			}
			if c.NoDocs {
				return ""
			}
			return c.Description
		case "import_statement", "hash_bang_line":
			continue
		case "expression_statement":
			// Directive prologues such as "use strict".
			if len(st.Children) == 1 && st.Children[0].Type == "string" {
				continue
			}
			return ""
		default:
			return ""
		}
	}
	return ""
}
