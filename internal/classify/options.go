package classify

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultExclude skips test files.
var DefaultExclude = []string{"*.test.*"}

// DefaultExtensions lists the file extensions documented when Options.Extensions is empty.
var DefaultExtensions = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

// Options describes which files form the library and how their module paths
// are derived.
type Options struct {
	// ProjectRoot is absolute, without a trailing separator.
	ProjectRoot string

	// SourcePaths are relative to ProjectRoot, without leading or trailing
	// separators. At least one is required.
	SourcePaths []string

	// SourceRoot is the common ancestor module paths are made relative to.
	// Required when there is more than one source path.
	SourceRoot string

	// Exclude holds gitignore-style patterns matched against the
	// project-relative path. Nil means DefaultExclude.
	Exclude []string

	// Extensions is the allow-list of file extensions. Nil means DefaultExtensions.
	Extensions []string

	// AllowNestedSourceRoots disables the guard against files living inside a
	// second copy of a source path, such as a vendored package.
	AllowNestedSourceRoots bool

	// ExtractorFor returns the extractor kind for a file, or "" when no
	// extractor handles it. Nil means lang.ExtractorKind.
	ExtractorFor func(fileID string) string
}

// OptionsError reports an invalid Options field.
type OptionsError struct {
	Field  string
	Value  string
	Reason string
}

func (e *OptionsError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid source options: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid source options: %s %q: %s", e.Field, e.Value, e.Reason)
}

// Validate checks o without modifying it.
func (o Options) Validate() error {
	if !filepath.IsAbs(o.ProjectRoot) && !strings.HasPrefix(o.ProjectRoot, "/") {
		return &OptionsError{Field: "project_root", Value: o.ProjectRoot, Reason: "must be an absolute path"}
	}
	if o.ProjectRoot == "/" {
		return &OptionsError{Field: "project_root", Value: o.ProjectRoot, Reason: "must not be the filesystem root"}
	}
	if strings.HasSuffix(o.ProjectRoot, "/") {
		return &OptionsError{Field: "project_root", Value: o.ProjectRoot, Reason: "must not end with a separator"}
	}
	if len(o.SourcePaths) == 0 {
		return &OptionsError{Field: "source_paths", Reason: "at least one source path is required"}
	}
	for _, sp := range o.SourcePaths {
		if err := checkRelative("source_paths", sp); err != nil {
			return err
		}
	}
	if o.SourceRoot == "" {
		if len(o.SourcePaths) > 1 {
			return &OptionsError{Field: "source_root", Reason: "required when more than one source path is configured"}
		}
		return nil
	}
	if err := checkRelative("source_root", o.SourceRoot); err != nil {
		return err
	}
	for _, sp := range o.SourcePaths {
		if !isUnder(sp, o.SourceRoot) {
			return &OptionsError{
				Field:  "source_paths",
				Value:  sp,
				Reason: fmt.Sprintf("not rooted under source_root %q", o.SourceRoot),
			}
		}
	}
	return nil
}

func checkRelative(field, p string) error {
	switch {
	case p == "":
		return &OptionsError{Field: field, Reason: "must not be empty"}
	case strings.HasPrefix(p, "/"):
		return &OptionsError{Field: field, Value: p, Reason: "must be relative to project_root"}
	case strings.HasSuffix(p, "/"):
		return &OptionsError{Field: field, Value: p, Reason: "must not end with a separator"}
	}
	return nil
}

// isUnder reports whether p equals dir or lies inside it.
func isUnder(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, dir+"/")
}
