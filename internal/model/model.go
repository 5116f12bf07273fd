// Package model defines the documentation data structures produced by docinfo.
package model

// Kind classifies an exported declaration.
type Kind string

const (
	Function    Kind = "function"
	Class       Kind = "class"
	Type        Kind = "type"
	Variable    Kind = "variable"
	Component   Kind = "component"
	Constructor Kind = "constructor"
)

// SourceFile is one caller-supplied input file. Content may be nil, in which
// case the orchestrator loads it on demand, and only for in-scope files.
type SourceFile struct {
	ID           string
	Content      []byte
	Dependencies []string
	Dependents   []string
}

// Parameter describes one parameter of a callable declaration.
type Parameter struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Optional     bool   `json:"optional,omitempty"`
	DefaultValue string `json:"default_value,omitempty"`
	Description  string `json:"description,omitempty"`
}

// GenericParam describes one type parameter.
type GenericParam struct {
	Name        string `json:"name"`
	Constraint  string `json:"constraint,omitempty"`
	DefaultType string `json:"default_type,omitempty"`
}

// Throw is one documented exception.
type Throw struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description"`
}

// AliasOf points a renamed re-export at its original declaration.
type AliasOf struct {
	Module string `json:"module"`
	Name   string `json:"name"`
}

// Declaration is one exported named entity within a module. Members and
// properties reuse the same shape.
type Declaration struct {
	Name              string         `json:"name"`
	Kind              Kind           `json:"kind"`
	TypeSignature     string         `json:"type_signature,omitempty"`
	DocComment        string         `json:"doc_comment,omitempty"`
	Parameters        []Parameter    `json:"parameters,omitempty"`
	ReturnType        string         `json:"return_type,omitempty"`
	ReturnDescription string         `json:"return_description,omitempty"`
	Throws            []Throw        `json:"throws,omitempty"`
	Since             string         `json:"since,omitempty"`
	DeprecatedMessage string         `json:"deprecated_message,omitempty"`
	Examples          []string       `json:"examples,omitempty"`
	SeeAlso           []string       `json:"see_also,omitempty"`
	Members           []Declaration  `json:"members,omitempty"`
	Properties        []Declaration  `json:"properties,omitempty"`
	GenericParams     []GenericParam `json:"generic_params,omitempty"`
	Modifiers         []string       `json:"modifiers,omitempty"`
	AliasOf           *AliasOf       `json:"alias_of,omitempty"`
	AlsoExportedFrom  []string       `json:"also_exported_from,omitempty"`
	SourceLine        int            `json:"source_line,omitempty"`
	Extends           []string       `json:"extends,omitempty"`
	Implements        []string       `json:"implements,omitempty"`
}

// Module is one source file's exported surface.
type Module struct {
	Path          string        `json:"path"`
	Declarations  []Declaration `json:"declarations"`
	ModuleComment string        `json:"module_comment,omitempty"`
	Dependencies  []string      `json:"dependencies,omitempty"`
	Dependents    []string      `json:"dependents,omitempty"`
	StarExports   []string      `json:"star_exports,omitempty"`
}

// Declaration returns the module's declaration with the given name, or nil.
func (m *Module) Declaration(name string) *Declaration {
	for i := range m.Declarations {
		if m.Declarations[i].Name == name {
			return &m.Declarations[i]
		}
	}
	return nil
}

// ReExportFact records that a module re-exports name, unchanged, from
// OriginalModule. Facts only live between analysis and the merge step.
type ReExportFact struct {
	Name           string
	OriginalModule string
}

// LibraryDocument is the complete analyzed library, ready for serialization.
type LibraryDocument struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Modules []Module `json:"modules"`
}

// Module returns the module with the given path, or nil.
func (d *LibraryDocument) Module(path string) *Module {
	for i := range d.Modules {
		if d.Modules[i].Path == path {
			return &d.Modules[i]
		}
	}
	return nil
}
