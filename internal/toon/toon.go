// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fuzdev/fuz-ui-sub000/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a LibraryDocument into TOON format: a header followed by
// tables of modules, declarations, nested members and module dependencies.
func Encode(doc *model.LibraryDocument) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("name: %s", encodeValue(doc.Name)))
	parts = append(parts, fmt.Sprintf("version: %s", encodeValue(doc.Version)))

	var moduleRows [][]string
	for i := range doc.Modules {
		m := &doc.Modules[i]
		moduleRows = append(moduleRows, []string{
			m.Path,
			fmt.Sprintf("%d", len(m.Declarations)),
			strings.Join(m.StarExports, " "),
			m.ModuleComment,
		})
	}
	parts = append(parts, formatTabular("modules", []string{"path", "declarations", "star_exports", "comment"}, moduleRows))

	var declRows, memberRows [][]string
	for i := range doc.Modules {
		m := &doc.Modules[i]
		for j := range m.Declarations {
			d := &m.Declarations[j]
			alias := ""
			if d.AliasOf != nil {
				alias = d.AliasOf.Module + "#" + d.AliasOf.Name
			}
			declRows = append(declRows, []string{
				m.Path,
				d.Name,
				string(d.Kind),
				fmt.Sprintf("%d", d.SourceLine),
				d.TypeSignature,
				alias,
				strings.Join(d.AlsoExportedFrom, " "),
			})
			for _, nested := range [][]model.Declaration{d.Members, d.Properties} {
				for k := range nested {
					memberRows = append(memberRows, []string{
						m.Path,
						d.Name,
						nested[k].Name,
						string(nested[k].Kind),
						nested[k].TypeSignature,
					})
				}
			}
		}
	}
	parts = append(parts, formatTabular("declarations",
		[]string{"module", "name", "kind", "line", "signature", "alias_of", "also_exported_from"}, declRows))
	if len(memberRows) > 0 {
		parts = append(parts, formatTabular("members", []string{"module", "owner", "name", "kind", "signature"}, memberRows))
	}

	var depRows [][]string
	for i := range doc.Modules {
		m := &doc.Modules[i]
		for _, dep := range m.Dependencies {
			depRows = append(depRows, []string{m.Path, dep})
		}
	}
	parts = append(parts, formatTabular("dependencies", []string{"source", "target"}, depRows))

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
