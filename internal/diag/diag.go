// Package diag collects structured, non-fatal findings produced while a
// library is analyzed.
package diag

import (
	"slices"
	"sync"
)

// Severity is the level of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind identifies a diagnostic variant.
type Kind string

const (
	KindTypeExtraction     Kind = "type_extraction_failed"
	KindSignatureAnalysis  Kind = "signature_analysis_failed"
	KindMemberExtraction   Kind = "member_extraction_failed"
	KindModuleSkipped      Kind = "module_skipped"
	KindReexportUnresolved Kind = "reexport_unresolved"
	KindNoModules          Kind = "no_modules"
)

// Location is the shared part of every diagnostic. Line and Column are
// 1-based; zero means unknown.
type Location struct {
	File     string
	Line     int
	Column   int
	Message  string
	Severity Severity
}

// Diagnostic is implemented only by the variants in this package.
type Diagnostic interface {
	Kind() Kind
	Common() Location
	sealed()
}

// TypeExtractionFailed reports a declaration or variable whose type could
// not be rendered.
type TypeExtractionFailed struct {
	Location
	Symbol string
}

// SignatureAnalysisFailed reports a callable whose parameters or return type
// could not be extracted.
type SignatureAnalysisFailed struct {
	Location
	Function string
}

// MemberExtractionFailed reports a class member or interface property that
// could not be extracted.
type MemberExtractionFailed struct {
	Location
	Owner  string
	Member string
}

// ModuleSkipped reports a module that produced no analysis.
type ModuleSkipped struct {
	Location
	Reason string
}

// ReexportUnresolved reports a re-export whose target could not be found.
type ReexportUnresolved struct {
	Location
	Name      string
	Specifier string
}

// NoModules reports that no file survived filtering.
type NoModules struct {
	Location
}

func (TypeExtractionFailed) Kind() Kind    { return KindTypeExtraction }
func (SignatureAnalysisFailed) Kind() Kind { return KindSignatureAnalysis }
func (MemberExtractionFailed) Kind() Kind  { return KindMemberExtraction }
func (ModuleSkipped) Kind() Kind           { return KindModuleSkipped }
func (ReexportUnresolved) Kind() Kind      { return KindReexportUnresolved }
func (NoModules) Kind() Kind               { return KindNoModules }

func (l Location) Common() Location { return l }
func (Location) sealed()            {}

// Context is an append-only, concurrency-safe collector of diagnostics.
// The zero value is ready to use.
type Context struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Add appends d.
func (c *Context) Add(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Merge appends every diagnostic of other, preserving its order.
func (c *Context) Merge(other *Context) {
	if other == nil || other == c {
		return
	}
	items := other.All()
	c.mu.Lock()
	c.items = append(c.items, items...)
	c.mu.Unlock()
}

// All returns a copy of every diagnostic in insertion order.
func (c *Context) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Len returns the number of collected diagnostics.
func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Errors returns the error-severity diagnostics.
func (c *Context) Errors() []Diagnostic {
	return c.bySeverity(SeverityError)
}

// Warnings returns the warning-severity diagnostics.
func (c *Context) Warnings() []Diagnostic {
	return c.bySeverity(SeverityWarning)
}

// HasErrors reports whether any error-severity diagnostic was added.
func (c *Context) HasErrors() bool {
	return len(c.Errors()) > 0
}

// HasWarnings reports whether any warning-severity diagnostic was added.
func (c *Context) HasWarnings() bool {
	return len(c.Warnings()) > 0
}

func (c *Context) bySeverity(s Severity) []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Diagnostic
	for _, d := range c.items {
		if d.Common().Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// ByKind returns the diagnostics of variant T, in insertion order.
func ByKind[T Diagnostic](c *Context) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []T
	for _, d := range c.items {
		if v, ok := d.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
