// Package config loads the docinfo.yaml project configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/fuzdev/fuz-ui-sub000/internal/classify"
)

// FileName is the config file looked up in the project root.
const FileName = "docinfo.yaml"

// Config is the project configuration read from FileName. Zero values fall
// back to the defaults of the component that consumes them.
type Config struct {
	Name                   string            `yaml:"name"`
	Version                string            `yaml:"version"`
	SourcePaths            []string          `yaml:"source_paths"`
	SourceRoot             string            `yaml:"source_root"`
	Exclude                []string          `yaml:"exclude"`
	Extensions             []string          `yaml:"extensions"`
	AllowNestedSourceRoots bool              `yaml:"allow_nested_source_roots"`
	Duplicates             string            `yaml:"duplicates"`
	KeepNodocs             bool              `yaml:"keep_nodocs"`
	Format                 string            `yaml:"format"`
	Output                 string            `yaml:"output"`
	Workers                int               `yaml:"workers"`
	Aliases                map[string]string `yaml:"aliases"`
}

// Default returns the configuration used when no config file exists: a
// SvelteKit-style library under src/lib with the $lib alias.
func Default() *Config {
	return &Config{
		SourcePaths: []string{"src/lib"},
		Duplicates:  "warn",
		Format:      "json",
		Aliases:     map[string]string{"$lib": "src/lib"},
	}
}

// Load reads the config at path, or FileName in root when path is empty. A
// missing default file yields Default. Name and version fall back to the
// project's package.json.
func Load(root, path string, logger *log.Logger) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// A file that sets aliases replaces the default map instead of
		// merging into it.
		cfg.Aliases = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if cfg.Aliases == nil {
			cfg.Aliases = Default().Aliases
		}
		logger.Debug("config file found", "path", path)
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		logger.Debug("no config file found, using default config", "path", path)
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if cfg.Name == "" || cfg.Version == "" {
		name, version, err := readPackageJSON(root)
		if err != nil {
			return nil, err
		}
		if cfg.Name == "" {
			cfg.Name = name
		}
		if cfg.Version == "" {
			cfg.Version = version
		}
	}
	return cfg, nil
}

func readPackageJSON(root string) (name, version string, err error) {
	path := filepath.Join(root, "package.json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	var pkg struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return pkg.Name, pkg.Version, nil
}

// SourceOptions converts the config into classifier options for the project
// at root.
func (c *Config) SourceOptions(root string) classify.Options {
	return classify.Options{
		ProjectRoot:            filepath.ToSlash(root),
		SourcePaths:            c.SourcePaths,
		SourceRoot:             c.SourceRoot,
		Exclude:                c.Exclude,
		Extensions:             c.Extensions,
		AllowNestedSourceRoots: c.AllowNestedSourceRoots,
	}
}

// AbsAliases returns the path aliases with relative targets resolved against
// root.
func (c *Config) AbsAliases(root string) map[string]string {
	out := make(map[string]string, len(c.Aliases))
	for prefix, target := range c.Aliases {
		if !filepath.IsAbs(target) {
			target = filepath.Join(root, target)
		}
		out[prefix] = filepath.ToSlash(target)
	}
	return out
}
