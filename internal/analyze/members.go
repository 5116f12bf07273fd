package analyze

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fuzdev/fuz-ui-sub000/internal/diag"
	"github.com/fuzdev/fuz-ui-sub000/internal/frontend"
	"github.com/fuzdev/fuz-ui-sub000/internal/model"
)

var memberTypes = map[string]bool{
	"method_definition":         true,
	"method_signature":          true,
	"abstract_method_signature": true,
	"public_field_definition":   true,
	"property_signature":        true,
}

// modifierTokens maps keyword tokens to recorded modifiers.
var modifierTokens = map[string]string{
	"static":   "static",
	"readonly": "readonly",
	"abstract": "abstract",
	"async":    "async",
	"get":      "get",
	"set":      "set",
	"declare":  "declare",
	"override": "override",
	"?":        "optional",
}

// members extracts class members into d.Members, appending the names of
// @nodocs members to hidden.
func (x *extractor) members(d *model.Declaration, cls *frontend.Node, hidden *[]string) {
	body := cls.Field("body")
	if body == nil {
		return
	}
	for i, m := range body.Children {
		if memberTypes[m.Type] {
			x.member(d.Name, &d.Members, hidden, body.Children, i)
		}
	}
}

func (x *extractor) properties(d *model.Declaration, body *frontend.Node, hidden *[]string) {
	if body == nil {
		return
	}
	for i, m := range body.Children {
		if memberTypes[m.Type] {
			x.member(d.Name, &d.Properties, hidden, body.Children, i)
		}
	}
}

func (x *extractor) enumMembers(d *model.Declaration, body *frontend.Node, hidden *[]string) {
	if body == nil {
		return
	}
	for i, m := range body.Children {
		var name *frontend.Node
		switch m.Type {
		case "property_identifier", "string":
			name = m
		case "enum_assignment":
			name = m.Field("name")
		default:
			continue
		}
		if name == nil {
			continue
		}
		p := model.Declaration{
			Name:       strings.Trim(name.Text, `"'`),
			Kind:       model.Variable,
			SourceLine: m.Line,
		}
		if applyDoc(&p, x.doc(frontend.DocComment(body.Children, i))) {
			*hidden = append(*hidden, p.Name)
		}
		if m.Type == "enum_assignment" {
			sig, err := x.in.Session.RenderType(m)
			if err != nil {
				x.memberFailed(d.Name, p.Name, m, err)
			} else {
				p.TypeSignature = sig
			}
		}
		d.Properties = append(d.Properties, p)
	}
}

// member extracts one class member or interface property into target. A
// failure keeps whatever was extracted and records a warning.
func (x *extractor) member(owner string, target *[]model.Declaration, hidden *[]string, siblings []*frontend.Node, i int) {
	m := siblings[i]
	nameNode := m.Field("name")
	if nameNode == nil || isPrivate(m, nameNode) {
		return
	}
	name := nameNode.Text
	modifiers := memberModifiers(m)

	// A setter following its getter, or the reverse, extends the first entry.
	for j := range *target {
		if (*target)[j].Name == name {
			for _, mod := range modifiers {
				if !slices.Contains((*target)[j].Modifiers, mod) {
					(*target)[j].Modifiers = append((*target)[j].Modifiers, mod)
				}
			}
			return
		}
	}

	md := model.Declaration{Name: name, SourceLine: m.Line, Modifiers: modifiers}
	doc := x.doc(frontend.DocComment(siblings, i))
	if applyDoc(&md, doc) {
		*hidden = append(*hidden, name)
	}

	err := protect(func() error {
		switch {
		case m.Type == "method_definition" && name == "constructor":
			md.Kind = model.Constructor
			params, err := x.parameters(m, doc)
			md.Parameters = params
			return err
		case m.HasToken("get"):
			md.Kind = model.Variable
			sig, err := x.in.Session.ReturnType(m)
			md.TypeSignature = sig
			return err
		case m.HasToken("set"):
			md.Kind = model.Variable
			params, err := x.parameters(m, doc)
			if len(params) > 0 {
				md.TypeSignature = params[0].Type
			}
			return err
		}

		if fn := callableOf(m); fn != nil {
			md.Kind = model.Function
			sig, err := x.in.Session.RenderType(fn)
			if err != nil {
				return err
			}
			md.TypeSignature = sig
			params, err := x.parameters(fn, doc)
			md.Parameters = params
			if err != nil {
				return err
			}
			if md.ReturnType, err = x.in.Session.ReturnType(fn); err != nil {
				return err
			}
			x.generics(&md, fn)
			return nil
		}

		md.Kind = model.Variable
		sig, err := x.in.Session.RenderType(m)
		md.TypeSignature = sig
		return err
	})
	*target = append(*target, md)
	if err != nil {
		x.memberFailed(owner, name, m, err)
	}
}

func (x *extractor) memberFailed(owner, member string, at *frontend.Node, err error) {
	x.in.Diag.Add(diag.MemberExtractionFailed{
		Location: x.location(at, fmt.Sprintf("extracting %s.%s: %v", owner, member, err)),
		Owner:    owner,
		Member:   member,
	})
}

func isPrivate(m, name *frontend.Node) bool {
	if name.Type == "private_property_identifier" ||
		strings.HasPrefix(name.Text, "#") ||
		strings.HasPrefix(name.Text, "_") {
		return true
	}
	mod := m.FirstChild("accessibility_modifier")
	return mod != nil && mod.Text == "private"
}

func memberModifiers(m *frontend.Node) []string {
	var mods []string
	if mod := m.FirstChild("accessibility_modifier"); mod != nil {
		mods = append(mods, mod.Text)
	}
	if m.FirstChild("override_modifier") != nil {
		mods = append(mods, "override")
	}
	if m.Type == "abstract_method_signature" {
		mods = append(mods, "abstract")
	}
	for _, tok := range m.Tokens {
		mod, ok := modifierTokens[tok]
		if ok && !slices.Contains(mods, mod) {
			mods = append(mods, mod)
		}
	}
	return mods
}
