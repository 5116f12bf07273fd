// Package resolve maps module specifiers to file identifiers within a known
// file set.
package resolve

import (
	"path"
	"sort"
	"strings"
)

// probeExtensions are tried, in order, for specifiers without a usable extension.
var probeExtensions = []string{".ts", ".tsx", ".d.ts", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

// sourceFor lists the TypeScript sources a compiled-extension specifier may
// refer to, following the ESM convention of importing "./x.js" from "./x.ts".
var sourceFor = map[string][]string{
	".js":  {".ts", ".tsx", ".d.ts"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

// Resolver resolves specifiers against a fixed file set. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	exists  func(id string) bool
	aliases []alias
}

type alias struct {
	prefix string
	target string
}

// New returns a Resolver. exists reports whether a file id is part of the set.
// aliases maps specifier prefixes such as "$lib" to absolute directories.
func New(exists func(id string) bool, aliases map[string]string) *Resolver {
	r := &Resolver{exists: exists}
	for prefix, target := range aliases {
		r.aliases = append(r.aliases, alias{
			prefix: strings.TrimSuffix(prefix, "/"),
			target: strings.TrimSuffix(target, "/"),
		})
	}
	// Longest prefix first so "$lib/x" wins over "$".
	sort.Slice(r.aliases, func(i, j int) bool {
		if len(r.aliases[i].prefix) != len(r.aliases[j].prefix) {
			return len(r.aliases[i].prefix) > len(r.aliases[j].prefix)
		}
		return r.aliases[i].prefix < r.aliases[j].prefix
	})
	return r
}

// Resolve returns the file id specifier refers to when imported from the file
// from. Bare package specifiers and paths outside the file set do not resolve.
func (r *Resolver) Resolve(from, specifier string) (string, bool) {
	base, ok := r.base(from, specifier)
	if !ok {
		return "", false
	}
	for _, candidate := range candidates(base) {
		if r.exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// Target returns the path specifier names before extension and index
// probing. Bare package specifiers have no target.
func (r *Resolver) Target(from, specifier string) (string, bool) {
	return r.base(from, specifier)
}

func (r *Resolver) base(from, specifier string) (string, bool) {
	for _, a := range r.aliases {
		if specifier == a.prefix {
			return a.target, true
		}
		if rest, ok := strings.CutPrefix(specifier, a.prefix+"/"); ok {
			return path.Join(a.target, rest), true
		}
	}
	switch {
	case IsRelative(specifier):
		return path.Join(path.Dir(from), specifier), true
	case strings.HasPrefix(specifier, "/"):
		return path.Clean(specifier), true
	}
	return "", false
}

// IsRelative reports whether specifier is a relative path.
func IsRelative(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

func candidates(base string) []string {
	out := []string{base}
	ext := path.Ext(base)
	if sources, ok := sourceFor[ext]; ok {
		stem := strings.TrimSuffix(base, ext)
		for _, s := range sources {
			out = append(out, stem+s)
		}
	}
	for _, e := range probeExtensions {
		out = append(out, base+e)
	}
	for _, e := range probeExtensions {
		out = append(out, base+"/index"+e)
	}
	return out
}
