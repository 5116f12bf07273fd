package library

import (
	"slices"
	"sort"

	"github.com/fuzdev/fuz-ui-sub000/internal/model"
)

type taggedFact struct {
	fact       model.ReExportFact
	reexporter string
}

type factKey struct {
	module string
	name   string
}

// mergeReExports sets also_exported_from on every declaration that other
// modules re-export under the same name. Facts that point at a missing
// module or declaration are ignored. It returns the number of declarations
// updated.
func mergeReExports(modules []model.Module, facts []taggedFact) int {
	groups := map[factKey][]string{}
	for _, f := range facts {
		key := factKey{module: f.fact.OriginalModule, name: f.fact.Name}
		groups[key] = append(groups[key], f.reexporter)
	}

	updated := 0
	for i := range modules {
		m := &modules[i]
		for j := range m.Declarations {
			d := &m.Declarations[j]
			reexporters, ok := groups[factKey{module: m.Path, name: d.Name}]
			if !ok {
				continue
			}
			merged := append(slices.Clone(d.AlsoExportedFrom), reexporters...)
			sort.Strings(merged)
			d.AlsoExportedFrom = slices.Compact(merged)
			updated++
		}
	}
	return updated
}

// DuplicateEntry is one occurrence of a name shared by several modules.
type DuplicateEntry struct {
	Declaration *model.Declaration
	Module      string
}

// Duplicates maps each colliding name to its occurrences, ordered by module.
type Duplicates map[string][]DuplicateEntry

// Names returns the colliding names, sorted.
func (d Duplicates) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindDuplicates reports declaration names that occur in more than one
// module. modules must be sorted by path.
func FindDuplicates(modules []model.Module) Duplicates {
	byName := map[string][]DuplicateEntry{}
	for i := range modules {
		m := &modules[i]
		for j := range m.Declarations {
			d := &m.Declarations[j]
			byName[d.Name] = append(byName[d.Name], DuplicateEntry{Declaration: d, Module: m.Path})
		}
	}
	dups := Duplicates{}
	for name, entries := range byName {
		if len(entries) > 1 {
			dups[name] = entries
		}
	}
	return dups
}
