// Package analyze turns one source module into a normalized analysis record:
// its documented declarations, module comment, re-export facts and
// in-scope relations.
package analyze

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fuzdev/fuz-ui-sub000/internal/diag"
	"github.com/fuzdev/fuz-ui-sub000/internal/frontend"
	"github.com/fuzdev/fuz-ui-sub000/internal/model"
	"github.com/fuzdev/fuz-ui-sub000/internal/tsdoc"
)

// Frontend is the semantic view over the whole file set that extractors
// consult. *frontend.Session implements it.
type Frontend interface {
	HasModule(id string) bool
	Statements(id string) []*frontend.Node
	Exports(id string) ([]*frontend.Symbol, error)
	StarExports(id string) []frontend.StarExport
	IsAlias(sym *frontend.Symbol) bool
	ResolveAlias(sym *frontend.Symbol) (frontend.Resolved, error)
	RenderType(n *frontend.Node) (string, error)
	ReturnType(n *frontend.Node) (string, error)
	Location(n *frontend.Node) frontend.Location
	ResolveModuleSpecifier(from, specifier string) (string, bool)
	SpecifierTarget(from, specifier string) (string, bool)
}

// DocParser parses a raw doc comment, returning nil when it is not one.
type DocParser func(raw string) *tsdoc.Comment

// Scope maps file ids to module paths. *classify.Classifier implements it.
type Scope interface {
	ModulePath(id string) (string, bool)
	Relations(ids []string) []string
	InSourcePaths(id string) bool
}

// Input is everything an extractor needs for one module.
type Input struct {
	File       model.SourceFile
	ModulePath string
	Kind       string
	Session    Frontend
	ParseDoc   DocParser
	Scope      Scope
	Diag       *diag.Context
}

// Analyzed pairs a declaration with its suppress-from-docs flag, which is
// never persisted.
type Analyzed struct {
	Declaration model.Declaration
	Suppressed  bool

	// SuppressedMembers and SuppressedProperties name the nested entries of
	// Declaration marked @nodocs.
	SuppressedMembers    []string
	SuppressedProperties []string
}

// Analysis is the per-module result consumed by the orchestrator.
type Analysis struct {
	Path          string
	ModuleComment string
	Declarations  []Analyzed
	ReExports     []model.ReExportFact
	StarExports   []string
	Dependencies  []string
	Dependents    []string
}

// Extractor analyzes one module. It returns nil when the module must be
// skipped, after reporting why through in.Diag.
type Extractor func(in Input) *Analysis

var (
	registryMu sync.RWMutex
	registry   = map[string]Extractor{}
)

// Register makes an extractor available for a kind. Registering a kind twice
// replaces the earlier extractor.
func Register(kind string, e Extractor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = e
}

// Kinds returns the registered extractor kinds, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func lookup(kind string) (Extractor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[kind]
	return e, ok
}

// Analyze runs the extractor registered for in.Kind. The second result is
// false when the module was skipped; a module_skipped warning has then been
// recorded.
func Analyze(in Input) (*Analysis, bool) {
	if in.ParseDoc == nil {
		in.ParseDoc = tsdoc.Parse
	}
	e, ok := lookup(in.Kind)
	if !ok {
		in.Diag.Add(diag.ModuleSkipped{
			Location: diag.Location{
				File:     in.File.ID,
				Message:  fmt.Sprintf("no extractor registered for kind %q", in.Kind),
				Severity: diag.SeverityWarning,
			},
			Reason: "unknown_extractor",
		})
		return nil, false
	}

	a := e(in)
	if a == nil {
		return nil, false
	}
	a.Path = in.ModulePath
	a.Dependencies = in.Scope.Relations(in.File.Dependencies)
	a.Dependents = in.Scope.Relations(in.File.Dependents)
	return a, true
}
