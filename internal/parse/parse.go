// Package parse extracts module specifiers from source files using tree-sitter.
package parse

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/fuzdev/fuz-ui-sub000/internal/lang"
)

// Import is one static module reference.
type Import struct {
	Specifier string
	Line      int
	ReExport  bool
}

var captureMap = map[string]bool{
	"reference.import":   false,
	"reference.reexport": true,
}

// ExtractImports parses a source file and returns its import and re-export
// specifiers in source order. The parser must be created for the query's
// language.
func ExtractImports(parser *sitter.Parser, query *sitter.Query, source []byte) []Import {
	if len(source) == 0 {
		return nil
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var imports []Import

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		for _, c := range match.Captures {
			reexport, ok := captureMap[query.CaptureNameForId(c.Index)]
			if !ok {
				continue
			}
			spec := Unquote(lang.NodeText(c.Node, source))
			if spec == "" {
				continue
			}
			imports = append(imports, Import{
				Specifier: spec,
				Line:      int(c.Node.StartPoint().Row) + 1,
				ReExport:  reexport,
			})
		}
	}

	return imports
}

// Unquote strips the quotes of a string literal's source text.
func Unquote(s string) string {
	if len(s) >= 2 {
		q := s[0]
		if (q == '"' || q == '\'' || q == '`') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}
