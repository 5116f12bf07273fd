// Package classify maps file identifiers to canonical module paths and
// decides which files belong to the documented library.
package classify

import (
	"path"
	"slices"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/fuzdev/fuz-ui-sub000/internal/lang"
)

// Result is the classification of one file.
type Result struct {
	InScope       bool
	ModulePath    string
	ExtractorKind string
}

// Classifier applies validated Options to file identifiers. It is safe for
// concurrent use.
type Classifier struct {
	opts      Options
	exclude   *ignore.GitIgnore
	exts      map[string]struct{}
	extractor func(string) string
}

// New validates opts and returns a Classifier for them.
func New(opts Options) (*Classifier, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	patterns := opts.Exclude
	if patterns == nil {
		patterns = DefaultExclude
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extSet := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extSet[ext] = struct{}{}
	}
	extractor := opts.ExtractorFor
	if extractor == nil {
		extractor = lang.ExtractorKind
	}

	return &Classifier{
		opts:      opts,
		exclude:   ignore.CompileIgnoreLines(patterns...),
		exts:      extSet,
		extractor: extractor,
	}, nil
}

// Classify decides whether fileID is in scope and, if so, derives its module
// path and extractor kind.
func (c *Classifier) Classify(fileID string) Result {
	modPath, ok := c.ModulePath(fileID)
	if !ok {
		return Result{}
	}
	return Result{
		InScope:       true,
		ModulePath:    modPath,
		ExtractorKind: c.extractor(fileID),
	}
}

// ModulePath returns the canonical module path of fileID and whether the file
// is in scope.
func (c *Classifier) ModulePath(fileID string) (string, bool) {
	rel, ok := strings.CutPrefix(fileID, c.opts.ProjectRoot+"/")
	if !ok || rel == "" {
		return "", false
	}

	sp := c.matchSourcePath(rel)
	if sp == "" {
		return "", false
	}
	if _, ok := c.exts[strings.ToLower(path.Ext(rel))]; !ok {
		return "", false
	}
	if c.exclude.MatchesPath(rel) {
		return "", false
	}
	if !c.opts.AllowNestedSourceRoots && isNested(rel, sp) {
		return "", false
	}

	base := sp
	if c.opts.SourceRoot != "" {
		base = c.opts.SourceRoot
	}
	return strings.TrimPrefix(rel, base+"/"), true
}

// InSourcePaths reports whether fileID lies under one of the source paths,
// whatever its extension and whether or not it is excluded.
func (c *Classifier) InSourcePaths(fileID string) bool {
	rel, ok := strings.CutPrefix(fileID, c.opts.ProjectRoot+"/")
	return ok && c.matchSourcePath(rel+"/") != ""
}

// matchSourcePath returns the longest source path containing rel.
func (c *Classifier) matchSourcePath(rel string) string {
	var best string
	for _, sp := range c.opts.SourcePaths {
		if strings.HasPrefix(rel, sp+"/") && len(sp) > len(best) {
			best = sp
		}
	}
	return best
}

// isNested reports whether the source path segment occurs more than once in
// rel, which means the file sits inside a look-alike copy of the source root.
func isNested(rel, sourcePath string) bool {
	return strings.Count("/"+rel, "/"+sourcePath+"/") > 1
}

// Relations filters ids to in-scope files and returns their module paths
// sorted and deduplicated.
func (c *Classifier) Relations(ids []string) []string {
	var out []string
	for _, id := range ids {
		if p, ok := c.ModulePath(id); ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return slices.Compact(out)
}
