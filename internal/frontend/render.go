package frontend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fuzdev/fuz-ui-sub000/internal/lang"
	"github.com/fuzdev/fuz-ui-sub000/internal/parse"
)

// inferMode controls how literal expressions widen.
type inferMode int

const (
	widen  inferMode = iota // let, parameters, nested values
	keep                    // const declarations keep primitive literals
	frozen                  // `as const` keeps everything, readonly
)

var callableTypes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_signature":             true,
	"function_expression":            true,
	"function":                       true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true,
	"method_signature":               true,
	"abstract_method_signature":      true,
	"function_type":                  true,
	"call_signature":                 true,
	"construct_signature":            true,
}

// IsCallable reports whether n has a parameter list and return type.
func IsCallable(n *Node) bool {
	return n != nil && callableTypes[n.Type]
}

// RenderType renders the type of a declaration, parameter, member, or type
// node as TypeScript source text. Nodes containing syntax errors fail.
func (s *Session) RenderType(n *Node) (string, error) {
	if n == nil {
		return "", nil
	}
	if n.HasError {
		return "", syntaxError(n)
	}
	return render(n), nil
}

// ReturnType renders the declared or inferred return type of a callable.
func (s *Session) ReturnType(n *Node) (string, error) {
	if n == nil {
		return "", nil
	}
	if n.HasError {
		return "", syntaxError(n)
	}
	if !IsCallable(n) {
		return "", fmt.Errorf("%s is not callable", n.Type)
	}
	return returnType(n), nil
}

func syntaxError(n *Node) error {
	return fmt.Errorf("%w in %s at %d:%d", ErrSyntax, n.file, n.Line, n.Column)
}

func render(n *Node) string {
	if IsCallable(n) {
		return renderCallable(n)
	}
	switch n.Type {
	case "type_annotation", "constraint", "default_type", "type_predicate_annotation",
		"asserts_annotation", "opting_type_annotation", "omitting_type_annotation":
		return renderAnnotation(n)
	case "class_declaration", "abstract_class_declaration", "class":
		if name := n.Field("name"); name != nil {
			return "typeof " + name.Text
		}
		return "typeof (Anonymous class)"
	case "interface_declaration":
		name := n.Field("name")
		if name == nil {
			return ""
		}
		if tp := n.Field("type_parameters"); tp != nil {
			return name.Text + lang.CollapseWhitespace(tp.Text)
		}
		return name.Text
	case "type_alias_declaration":
		if v := n.Field("value"); v != nil {
			return lang.CollapseWhitespace(v.Text)
		}
		return ""
	case "enum_declaration", "internal_module", "module":
		if name := n.Field("name"); name != nil {
			return "typeof " + name.Text
		}
		return ""
	case "namespace_export", "namespace_import":
		return namespaceType(n)
	case "variable_declarator", "public_field_definition", "property_signature",
		"required_parameter", "optional_parameter", "enum_assignment":
		return valueType(n)
	case "identifier", "shorthand_property_identifier_pattern":
		return "any"
	case "assignment_pattern":
		if r := n.Field("right"); r != nil {
			return infer(r, widen)
		}
		return "any"
	case "rest_pattern":
		return "any[]"
	}
	if isExpression(n) {
		return infer(n, widen)
	}
	return lang.CollapseWhitespace(n.Text)
}

// valueType renders a node that has an optional annotation and an optional
// initializer.
func valueType(n *Node) string {
	if t := n.Field("type"); t != nil {
		return renderAnnotation(t)
	}
	if v := n.Field("value"); v != nil {
		mode := widen
		if isConstContext(n) {
			mode = keep
		}
		return infer(v, mode)
	}
	if n.Type == "enum_assignment" {
		return "number"
	}
	if p := n.Field("pattern"); p != nil && p.Type == "rest_pattern" {
		return "any[]"
	}
	return "any"
}

func isConstContext(n *Node) bool {
	switch n.Type {
	case "variable_declarator":
		kind := n.Parent.Field("kind")
		return kind != nil && kind.Text == "const"
	case "public_field_definition":
		return n.HasToken("readonly")
	case "enum_assignment":
		return true
	}
	return false
}

func renderAnnotation(n *Node) string {
	switch n.Type {
	case "type_annotation", "constraint", "default_type", "opting_type_annotation", "omitting_type_annotation":
		if len(n.Children) > 0 {
			return lang.CollapseWhitespace(n.Children[len(n.Children)-1].Text)
		}
		text := strings.TrimSpace(n.Text)
		for _, prefix := range []string{"?:", "-?:", ":", "extends", "="} {
			text = strings.TrimPrefix(text, prefix)
		}
		return lang.CollapseWhitespace(text)
	case "type_predicate_annotation", "asserts_annotation":
		if len(n.Children) > 0 {
			return lang.CollapseWhitespace(n.Children[0].Text)
		}
	}
	return lang.CollapseWhitespace(n.Text)
}

func renderCallable(n *Node) string {
	var b strings.Builder
	if n.Type == "construct_signature" {
		b.WriteString("new ")
	}
	if tp := n.Field("type_parameters"); tp != nil {
		b.WriteString(lang.CollapseWhitespace(tp.Text))
	}
	b.WriteString(renderParams(n))
	b.WriteString(" => ")
	b.WriteString(returnType(n))
	return b.String()
}

func renderParams(n *Node) string {
	if p := n.Field("parameter"); p != nil {
		return "(" + p.Text + ": any)"
	}
	params := n.Field("parameters")
	if params == nil {
		return "()"
	}
	var parts []string
	for _, p := range params.Children {
		if p.Type == "comment" {
			continue
		}
		parts = append(parts, renderParam(p))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func renderParam(p *Node) string {
	name := ParamName(p)
	if rest := paramPattern(p); rest != nil && rest.Type == "rest_pattern" {
		name = "..." + name
	}
	if name == "this" {
		return "this: " + render(p)
	}
	optional := ""
	if IsOptionalParam(p) {
		optional = "?"
	}
	return name + optional + ": " + render(p)
}

func paramPattern(p *Node) *Node {
	switch p.Type {
	case "required_parameter", "optional_parameter":
		return p.Field("pattern")
	case "assignment_pattern":
		return p.Field("left")
	}
	return p
}

// ParamName returns the bound name of a parameter node. Destructuring
// patterns render as their collapsed source.
func ParamName(p *Node) string {
	pattern := paramPattern(p)
	if pattern == nil {
		return ""
	}
	if pattern.Type == "rest_pattern" {
		if len(pattern.Children) > 0 {
			return lang.CollapseWhitespace(pattern.Children[0].Text)
		}
		return strings.TrimPrefix(pattern.Text, "...")
	}
	return lang.CollapseWhitespace(pattern.Text)
}

// IsOptionalParam reports whether a parameter may be omitted.
func IsOptionalParam(p *Node) bool {
	switch p.Type {
	case "optional_parameter", "assignment_pattern":
		return true
	case "required_parameter":
		return p.Field("value") != nil
	}
	return false
}

// ParamDefault returns the source of a parameter's default value.
func ParamDefault(p *Node) string {
	var v *Node
	switch p.Type {
	case "required_parameter", "optional_parameter":
		v = p.Field("value")
	case "assignment_pattern":
		v = p.Field("right")
	}
	if v == nil {
		return ""
	}
	return lang.CollapseWhitespace(v.Text)
}

func returnType(n *Node) string {
	if rt := n.Field("return_type"); rt != nil {
		return renderAnnotation(rt)
	}
	if n.HasToken("get") && n.Type == "method_definition" {
		// Getters without annotations still return something.
		return "unknown"
	}
	body := n.Field("body")
	if body == nil {
		return "any"
	}
	async := n.HasToken("async")
	generator := n.HasToken("*") || n.Type == "generator_function" || n.Type == "generator_function_declaration"
	var base string
	switch {
	case generator && async:
		return "AsyncGenerator<unknown, unknown, unknown>"
	case generator:
		return "Generator<unknown, unknown, unknown>"
	case body.Type == "statement_block":
		base = "void"
		if body.HasToken("return") {
			base = "unknown"
		}
	default:
		base = infer(body, widen)
	}
	if async {
		return "Promise<" + base + ">"
	}
	return base
}

func namespaceType(n *Node) string {
	for p := n.Parent; p != nil; p = p.Parent {
		if src := p.Field("source"); src != nil {
			return "typeof import(" + strconv.Quote(parse.Unquote(src.Text)) + ")"
		}
	}
	return "unknown"
}

var expressionTypes = map[string]bool{
	"number": true, "string": true, "template_string": true, "true": true,
	"false": true, "null": true, "undefined": true, "regex": true,
	"array": true, "object": true, "as_expression": true,
	"satisfies_expression": true, "parenthesized_expression": true,
	"non_null_expression": true, "new_expression": true,
	"unary_expression": true, "binary_expression": true,
	"call_expression": true, "await_expression": true,
	"member_expression": true, "subscript_expression": true,
	"ternary_expression": true,
}

func isExpression(n *Node) bool {
	return expressionTypes[n.Type]
}

// infer approximates the type TypeScript infers for an initializer.
func infer(v *Node, mode inferMode) string {
	if v == nil {
		return "unknown"
	}
	if IsCallable(v) {
		return renderCallable(v)
	}
	switch v.Type {
	case "number":
		if mode != widen {
			return v.Text
		}
		return "number"
	case "string":
		if mode != widen {
			if strings.HasPrefix(v.Text, `"`) {
				return v.Text
			}
			return `"` + parse.Unquote(v.Text) + `"`
		}
		return "string"
	case "template_string":
		return "string"
	case "true", "false":
		if mode != widen {
			return v.Text
		}
		return "boolean"
	case "null", "undefined":
		return v.Type
	case "regex":
		return "RegExp"
	case "array":
		return inferArray(v, mode)
	case "object":
		return inferObject(v, mode)
	case "as_expression":
		if len(v.Children) >= 2 {
			return lang.CollapseWhitespace(v.Children[1].Text)
		}
		if len(v.Children) == 1 {
			return infer(v.Children[0], frozen)
		}
	case "satisfies_expression", "parenthesized_expression", "non_null_expression":
		if len(v.Children) > 0 {
			return infer(v.Children[0], mode)
		}
	case "new_expression":
		ctor := v.Field("constructor")
		if ctor == nil {
			break
		}
		if args := v.Field("type_arguments"); args != nil {
			return ctor.Text + lang.CollapseWhitespace(args.Text)
		}
		return ctor.Text
	case "class":
		return render(v)
	case "unary_expression":
		return inferUnary(v, mode)
	case "binary_expression":
		for _, op := range []string{"===", "!==", "==", "!=", "<", ">", "<=", ">=", "instanceof", "in"} {
			if v.HasToken(op) {
				return "boolean"
			}
		}
	}
	return "unknown"
}

func inferUnary(v *Node, mode inferMode) string {
	switch {
	case v.HasToken("!"):
		return "boolean"
	case v.HasToken("typeof"):
		return "string"
	case v.HasToken("void"):
		return "undefined"
	case v.HasToken("-") && mode != widen && len(v.Children) == 1 && v.Children[0].Type == "number":
		return "-" + v.Children[0].Text
	case v.HasToken("-"), v.HasToken("+"), v.HasToken("~"):
		return "number"
	}
	return "unknown"
}

func inferArray(v *Node, mode inferMode) string {
	var elems []string
	for _, c := range v.Children {
		if c.Type == "comment" {
			continue
		}
		if c.Type == "spread_element" {
			elems = append(elems, "unknown")
			continue
		}
		inner := widen
		if mode == frozen {
			inner = frozen
		}
		elems = append(elems, infer(c, inner))
	}
	if mode == frozen {
		return "readonly [" + strings.Join(elems, ", ") + "]"
	}
	if len(elems) == 0 {
		return "never[]"
	}
	var unique []string
	seen := map[string]bool{}
	for _, e := range elems {
		if !seen[e] {
			seen[e] = true
			unique = append(unique, e)
		}
	}
	if len(unique) == 1 {
		return unique[0] + "[]"
	}
	return "(" + strings.Join(unique, " | ") + ")[]"
}

func inferObject(v *Node, mode inferMode) string {
	inner := widen
	prefix := ""
	if mode == frozen {
		inner = frozen
		prefix = "readonly "
	}
	var members []string
	for _, c := range v.Children {
		switch c.Type {
		case "pair":
			key, value := c.Field("key"), c.Field("value")
			if key == nil {
				continue
			}
			members = append(members, prefix+key.Text+": "+infer(value, inner))
		case "shorthand_property_identifier":
			members = append(members, prefix+c.Text+": unknown")
		case "method_definition":
			if name := c.Field("name"); name != nil {
				members = append(members, name.Text+": "+renderCallable(c))
			}
		}
	}
	if len(members) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(members, "; ") + "; }"
}
