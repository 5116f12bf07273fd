// Package library orchestrates a documentation run: it classifies the input
// files, analyzes every in-scope module against one shared frontend session,
// merges re-export facts onto their original declarations and hands name
// collisions to a caller-chosen policy.
package library

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/fuzdev/fuz-ui-sub000/internal/analyze"
	"github.com/fuzdev/fuz-ui-sub000/internal/classify"
	"github.com/fuzdev/fuz-ui-sub000/internal/diag"
	"github.com/fuzdev/fuz-ui-sub000/internal/frontend"
	"github.com/fuzdev/fuz-ui-sub000/internal/model"
)

// SessionBuilder builds the shared frontend session over the in-scope files.
type SessionBuilder func(files []frontend.Input) (analyze.Frontend, error)

// Options configures Generate.
type Options struct {
	Name    string
	Version string

	// Source selects the documented files. It is validated before anything
	// else happens.
	Source classify.Options

	// KeepSuppressed keeps declarations marked @nodocs in the document.
	KeepSuppressed bool

	// Workers bounds concurrent module analysis. Zero means GOMAXPROCS.
	Workers int

	// Aliases maps specifier prefixes such as "$lib" to absolute directories.
	Aliases map[string]string

	// ReadFile loads in-scope files supplied without content. Defaults to
	// os.ReadFile.
	ReadFile func(id string) ([]byte, error)

	// NewSession overrides how the frontend session is built.
	NewSession SessionBuilder

	// ParseDoc overrides the doc-comment parser.
	ParseDoc analyze.DocParser

	Logger *log.Logger
}

// Result is the outcome of a successful run.
type Result struct {
	Document    *model.LibraryDocument
	Diagnostics *diag.Context
}

type job struct {
	file   model.SourceFile
	result classify.Result
}

// Generate documents files. It fails only on invalid options, an in-scope
// file that cannot be loaded, a session that cannot be built, or a
// duplicate policy that rejects the result. Everything else is reported
// through the returned diagnostics.
func Generate(files []model.SourceFile, opts Options, policy DuplicatePolicy) (*Result, error) {
	classifier, err := classify.New(opts.Source)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx := &diag.Context{}
	doc := &model.LibraryDocument{Name: opts.Name, Version: opts.Version, Modules: []model.Module{}}

	jobs := filter(files, classifier)
	logger.Debug("classified files", "total", len(files), "in_scope", len(jobs))
	if len(jobs) == 0 {
		ctx.Add(diag.NoModules{Location: diag.Location{
			File:     opts.Source.ProjectRoot,
			Message:  "no modules found in source paths",
			Severity: diag.SeverityWarning,
		}})
		return &Result{Document: doc, Diagnostics: ctx}, nil
	}

	if err := load(jobs, opts.ReadFile); err != nil {
		return nil, err
	}

	inputs := make([]frontend.Input, len(jobs))
	for i, j := range jobs {
		inputs[i] = frontend.Input{ID: j.file.ID, Source: j.file.Content}
	}
	newSession := opts.NewSession
	if newSession == nil {
		newSession = func(files []frontend.Input) (analyze.Frontend, error) {
			return frontend.Build(files, frontend.Config{Aliases: opts.Aliases})
		}
	}
	session, err := newSession(inputs)
	if err != nil {
		return nil, fmt.Errorf("building frontend session: %w", err)
	}

	analyses := analyzeAll(jobs, session, classifier, opts, ctx)

	var facts []taggedFact
	for _, a := range analyses {
		if a == nil {
			continue
		}
		doc.Modules = append(doc.Modules, buildModule(a, opts.KeepSuppressed))
		for _, f := range a.ReExports {
			facts = append(facts, taggedFact{fact: f, reexporter: a.Path})
		}
	}
	sort.Slice(doc.Modules, func(i, j int) bool { return doc.Modules[i].Path < doc.Modules[j].Path })
	logger.Debug("analyzed modules", "modules", len(doc.Modules), "facts", len(facts))

	merged := mergeReExports(doc.Modules, facts)
	logger.Debug("merged re-exports", "declarations", merged)

	if dups := FindDuplicates(doc.Modules); len(dups) > 0 && policy != nil {
		if err := policy(dups, logger); err != nil {
			return nil, err
		}
	}
	return &Result{Document: doc, Diagnostics: ctx}, nil
}

// filter keeps in-scope files with a known extractor, sorted by id.
func filter(files []model.SourceFile, classifier *classify.Classifier) []job {
	seen := map[string]bool{}
	var jobs []job
	for _, f := range files {
		r := classifier.Classify(f.ID)
		if !r.InScope || r.ExtractorKind == "" || seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		jobs = append(jobs, job{file: f, result: r})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].file.ID < jobs[j].file.ID })
	return jobs
}

func load(jobs []job, readFile func(string) ([]byte, error)) error {
	if readFile == nil {
		readFile = os.ReadFile
	}
	for i := range jobs {
		if jobs[i].file.Content != nil {
			continue
		}
		content, err := readFile(jobs[i].file.ID)
		if err != nil {
			return fmt.Errorf("loading %s: %w", jobs[i].file.ID, err)
		}
		jobs[i].file.Content = content
	}
	return nil
}

// analyzeAll runs the analyzer over jobs with a bounded worker pool. Each
// job reports into its own context; contexts are merged in job order so the
// diagnostics are deterministic.
func analyzeAll(jobs []job, session analyze.Frontend, classifier *classify.Classifier, opts Options, ctx *diag.Context) []*analyze.Analysis {
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	analyses := make([]*analyze.Analysis, len(jobs))
	contexts := make([]*diag.Context, len(jobs))
	work := make(chan int, len(jobs))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				j := jobs[idx]
				local := &diag.Context{}
				a, ok := analyze.Analyze(analyze.Input{
					File:       j.file,
					ModulePath: j.result.ModulePath,
					Kind:       j.result.ExtractorKind,
					Session:    session,
					ParseDoc:   opts.ParseDoc,
					Scope:      classifier,
					Diag:       local,
				})
				if ok {
					analyses[idx] = a
				}
				contexts[idx] = local
			}
		}()
	}

	for i := range jobs {
		work <- i
	}
	close(work)
	wg.Wait()

	for _, local := range contexts {
		ctx.Merge(local)
	}
	return analyses
}

func buildModule(a *analyze.Analysis, keepSuppressed bool) model.Module {
	m := model.Module{
		Path:          a.Path,
		Declarations:  []model.Declaration{},
		ModuleComment: a.ModuleComment,
		Dependencies:  a.Dependencies,
		Dependents:    a.Dependents,
		StarExports:   a.StarExports,
	}
	for _, ad := range a.Declarations {
		if keepSuppressed {
			m.Declarations = append(m.Declarations, ad.Declaration)
			continue
		}
		if ad.Suppressed {
			continue
		}
		d := ad.Declaration
		d.Members = without(d.Members, ad.SuppressedMembers)
		d.Properties = without(d.Properties, ad.SuppressedProperties)
		m.Declarations = append(m.Declarations, d)
	}
	return m
}

// without returns ds minus the entries named in names.
func without(ds []model.Declaration, names []string) []model.Declaration {
	if len(names) == 0 {
		return ds
	}
	var out []model.Declaration
	for _, d := range ds {
		if !slices.Contains(names, d.Name) {
			out = append(out, d)
		}
	}
	return out
}
