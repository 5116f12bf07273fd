// Package graph builds the module dependency graph of a file set from its
// static imports and re-exports.
package graph

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/fuzdev/fuz-ui-sub000/internal/lang"
	"github.com/fuzdev/fuz-ui-sub000/internal/model"
	"github.com/fuzdev/fuz-ui-sub000/internal/parse"
	"github.com/fuzdev/fuz-ui-sub000/internal/resolve"
)

// Edge means Source imports or re-exports from Target.
type Edge struct {
	Source string
	Target string
}

type parserPair struct {
	parser *sitter.Parser
	query  *sitter.Query
}

// BuildEdges resolves every file's import specifiers against the file set and
// returns the deduplicated edges sorted by source then target. Files whose
// language is unknown, or whose content is nil, contribute no edges.
func BuildEdges(files []model.SourceFile, aliases map[string]string) []Edge {
	known := make(map[string]struct{}, len(files))
	for i := range files {
		known[files[i].ID] = struct{}{}
	}
	r := resolve.New(func(id string) bool {
		_, ok := known[id]
		return ok
	}, aliases)

	seen := make(map[Edge]struct{})
	parsers := make(map[string]*parserPair)

	for i := range files {
		f := &files[i]
		l := lang.ForPath(f.ID)
		if l == nil || f.Content == nil {
			continue
		}
		pp, ok := parsers[l.Name]
		if !ok {
			q, err := l.GetImportQuery()
			if err != nil {
				continue
			}
			pp = &parserPair{parser: l.NewParser(), query: q}
			parsers[l.Name] = pp
		}

		for _, imp := range parse.ExtractImports(pp.parser, pp.query, f.Content) {
			target, ok := r.Resolve(f.ID, imp.Specifier)
			if !ok || target == f.ID {
				continue // no self-edges
			}
			seen[Edge{Source: f.ID, Target: target}] = struct{}{}
		}
	}

	edges := make([]Edge, 0, len(seen))
	for e := range seen {
		edges = append(edges, e)
	}

	// Sort for deterministic output
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})

	return edges
}

// Link returns a copy of files with Dependencies and Dependents filled from
// edges. Both lists are sorted.
func Link(files []model.SourceFile, edges []Edge) []model.SourceFile {
	deps := make(map[string][]string)
	dependents := make(map[string][]string)
	for _, e := range edges {
		deps[e.Source] = append(deps[e.Source], e.Target)
		dependents[e.Target] = append(dependents[e.Target], e.Source)
	}

	out := make([]model.SourceFile, len(files))
	for i, f := range files {
		f.Dependencies = sortedUnique(deps[f.ID])
		f.Dependents = sortedUnique(dependents[f.ID])
		out[i] = f
	}
	return out
}

func sortedUnique(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(s))
	for _, v := range s {
		set[v] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
