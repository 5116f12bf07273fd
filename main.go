// docinfo extracts the public surface of a TypeScript library into one
// deterministic JSON or TOON document.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fuzdev/fuz-ui-sub000/internal/classify"
	"github.com/fuzdev/fuz-ui-sub000/internal/config"
	"github.com/fuzdev/fuz-ui-sub000/internal/diag"
	"github.com/fuzdev/fuz-ui-sub000/internal/discover"
	"github.com/fuzdev/fuz-ui-sub000/internal/graph"
	"github.com/fuzdev/fuz-ui-sub000/internal/library"
	"github.com/fuzdev/fuz-ui-sub000/internal/model"
	"github.com/fuzdev/fuz-ui-sub000/internal/toon"
)

var version = "dev"

const defaultMaxFileSize = 1_000_000 // 1 MB

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

type generateFlags struct {
	configPath  string
	sourcePaths []string
	sourceRoot  string
	exclude     []string
	name        string
	version     string
	format      string
	duplicates  string
	keepNodocs  bool
	workers     int
	output      string
	maxFileSize int
	verbose     bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "docinfo [root]",
		Short: "Extract a TypeScript library's public API into a JSON or TOON document",
		Long: `Extract a TypeScript library's public API into a JSON or TOON document.

Every in-scope module is analyzed against one shared view of the project, so
re-exports are traced to the module that declares them. Names re-exported
unchanged are merged onto the original declaration as also_exported_from;
renamed re-exports become declarations with alias_of.

Settings are read from docinfo.yaml in root (see "docinfo init"); flags
override them.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return runGenerate(cmd, root, f, stdout, stderr)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "config file (default: <root>/docinfo.yaml)")
	flags.StringSliceVar(&f.sourcePaths, "source-path", nil, "source directory relative to root (repeatable)")
	flags.StringVar(&f.sourceRoot, "source-root", "", "common ancestor of the source paths, required with several")
	flags.StringSliceVar(&f.exclude, "exclude", nil, "gitignore-style pattern to exclude (repeatable)")
	flags.StringVar(&f.name, "name", "", "library name (default: package.json name)")
	flags.StringVar(&f.version, "version-label", "", "library version (default: package.json version)")
	flags.StringVarP(&f.format, "format", "f", "", "output format: json or toon")
	flags.StringVar(&f.duplicates, "duplicates", "", "duplicate name policy: strict, warn or ignore")
	flags.BoolVar(&f.keepNodocs, "keep-nodocs", false, "keep declarations marked @nodocs")
	flags.IntVarP(&f.workers, "workers", "j", 0, "concurrent module analyses (default: number of CPUs)")
	flags.StringVarP(&f.output, "output", "o", "", "write the document to this file instead of stdout")
	flags.IntVar(&f.maxFileSize, "max-file-size", defaultMaxFileSize, "skip files larger than this many bytes")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "log progress")

	cmd.AddCommand(newInitCommand(stdout, stderr))
	return cmd
}

func runGenerate(cmd *cobra.Command, root string, f generateFlags, stdout, stderr io.Writer) error {
	logger := log.NewWithOptions(stderr, log.Options{Prefix: "docinfo"})
	if f.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	cfg, err := config.Load(root, f.configPath, logger)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg, f)

	policy, err := library.PolicyByName(cfg.Duplicates)
	if err != nil {
		return err
	}
	encode, err := encoderFor(cfg.Format)
	if err != nil {
		return err
	}

	opts := cfg.SourceOptions(root)
	classifier, err := classify.New(opts)
	if err != nil {
		return err
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = classify.DefaultExtensions
	}
	entries, err := discover.Files(root, exts)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	entries = inScope(root, entries, classifier)
	diagnostics := &diag.Context{}
	entries = filterBySize(root, entries, f.maxFileSize, logger, diagnostics)
	logger.Debug("discovered files", "count", len(entries))

	aliases := cfg.AbsAliases(root)
	files := discover.Load(root, entries)
	files = graph.Link(files, graph.BuildEdges(files, aliases))

	res, err := library.Generate(files, library.Options{
		Name:           cfg.Name,
		Version:        cfg.Version,
		Source:         opts,
		KeepSuppressed: cfg.KeepNodocs,
		Workers:        cfg.Workers,
		Aliases:        aliases,
		Logger:         logger,
	}, policy)
	if err != nil {
		return err
	}

	diagnostics.Merge(res.Diagnostics)
	for _, d := range diagnostics.All() {
		_, _ = fmt.Fprintln(stderr, diag.Format(d, diag.StripBase(filepath.ToSlash(root))))
	}

	out, err := encode(res.Document)
	if err != nil {
		return err
	}
	if cfg.Output != "" {
		if err := os.WriteFile(cfg.Output, out, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", cfg.Output, err)
		}
		logger.Info("wrote library document", "path", cfg.Output, "modules", len(res.Document.Modules))
	} else if _, err := stdout.Write(out); err != nil {
		return err
	}

	if errs := diagnostics.Errors(); len(errs) > 0 {
		return fmt.Errorf("%d error(s) reported during analysis", len(errs))
	}
	return nil
}

// applyFlags overrides config values with the flags that were set.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f generateFlags) {
	changed := cmd.Flags().Changed
	if changed("source-path") {
		cfg.SourcePaths = f.sourcePaths
	}
	if changed("source-root") {
		cfg.SourceRoot = f.sourceRoot
	}
	if changed("exclude") {
		cfg.Exclude = f.exclude
	}
	if changed("name") {
		cfg.Name = f.name
	}
	if changed("version-label") {
		cfg.Version = f.version
	}
	if changed("format") {
		cfg.Format = f.format
	}
	if changed("duplicates") {
		cfg.Duplicates = f.duplicates
	}
	if changed("keep-nodocs") {
		cfg.KeepNodocs = f.keepNodocs
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("output") {
		cfg.Output = f.output
	}
}

func encoderFor(format string) (func(*model.LibraryDocument) ([]byte, error), error) {
	switch strings.ToLower(format) {
	case "", "json":
		return model.EncodeJSON, nil
	case "toon":
		return func(doc *model.LibraryDocument) ([]byte, error) {
			return []byte(toon.Encode(doc) + "\n"), nil
		}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want json or toon)", format)
}

// inScope keeps the entries the classifier accepts so that only library
// files are read.
func inScope(root string, entries []discover.FileEntry, classifier *classify.Classifier) []discover.FileEntry {
	base := filepath.ToSlash(root)
	var kept []discover.FileEntry
	for _, e := range entries {
		if classifier.Classify(base + "/" + e.Path).InScope {
			kept = append(kept, e)
		}
	}
	return kept
}

// filterBySize drops files larger than maxSize bytes, recording a
// module_skipped warning for each.
func filterBySize(root string, files []discover.FileEntry, maxSize int, logger *log.Logger, skipped *diag.Context) []discover.FileEntry {
	if maxSize <= 0 {
		return files
	}
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil {
			kept = append(kept, f)
			continue
		}
		if fi.Size() > int64(maxSize) {
			logger.Warn("skipping large file", "path", f.Path, "limit", maxSize)
			reason := fmt.Sprintf("file is %d bytes, over the %d byte limit", fi.Size(), maxSize)
			skipped.Add(diag.ModuleSkipped{
				Location: diag.Location{
					File:     filepath.ToSlash(filepath.Join(root, filepath.FromSlash(f.Path))),
					Message:  "skipping module: " + reason,
					Severity: diag.SeverityWarning,
				},
				Reason: reason,
			})
			continue
		}
		kept = append(kept, f)
	}
	return kept
}
