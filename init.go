package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fuzdev/fuz-ui-sub000/internal/config"
)

const configHeader = `# docinfo configuration. Flags given on the command line override these values.
# name and version fall back to package.json when left empty.
`

// newInitCommand implements `docinfo init`, which writes a starter
// docinfo.yaml into a project root.
func newInitCommand(stdout, stderr io.Writer) *cobra.Command {
	var dryRun, force bool

	cmd := &cobra.Command{
		Use:   "init [root]",
		Short: "Write a starter docinfo.yaml",
		Long: `Write a starter docinfo.yaml to the project root.

The source path is guessed from the directory layout: src/lib when present,
otherwise src, otherwise lib. An existing config is left alone unless --force
is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return runInit(root, dryRun, force, stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the config without writing it")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

func runInit(root string, dryRun, force bool, stdout, stderr io.Writer) error {
	content, err := generateConfig(root)
	if err != nil {
		return err
	}

	if dryRun {
		_, _ = fmt.Fprint(stdout, content)
		return nil
	}

	path := filepath.Join(root, config.FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote %s\n", path)
	return nil
}

// generateConfig renders the default config for root with the detected
// source path.
func generateConfig(root string) (string, error) {
	cfg := config.Default()
	if src := detectSourcePath(root); src != "" {
		cfg.SourcePaths = []string{src}
		cfg.Aliases = map[string]string{"$lib": src}
	}
	cfg.Exclude = []string{"*.test.*"}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	return configHeader + string(data), nil
}

func detectSourcePath(root string) string {
	for _, candidate := range []string{"src/lib", "src", "lib"} {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(candidate)))
		if err == nil && info.IsDir() {
			return candidate
		}
	}
	return ""
}
