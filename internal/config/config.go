// Package config handles loading compiler configuration from files.
//
// Configuration is specified in a YAML file named nova.yaml, .novarc.yaml
// or .novarc.
// The config file is searched for in the current directory and parent
// directories, the same upward-walk the teacher's minifier config used for
// wgslmin.json/.wgslminrc.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/novalang/novac/internal/importer"
)

// Config represents the configuration file structure. All fields are
// optional and use defaults when unset.
type Config struct {
	// PackageRoot is the directory import paths beginning with "$" resolve
	// against (spec.md §4.6 "$ root").
	PackageRoot string `yaml:"packageRoot,omitempty"`

	// ExternalPackageDir is where named external packages are looked up
	// (spec.md §4.6 "external root").
	ExternalPackageDir string `yaml:"externalPackageDir,omitempty"`

	// StdLibRoot is where "std" imports resolve against (spec.md §4.6 "std
	// root").
	StdLibRoot string `yaml:"stdLibRoot,omitempty"`

	// ErrorBudget overrides diagnostic.DefaultErrorBudget (spec.md §7).
	ErrorBudget *int `yaml:"errorBudget,omitempty"`

	// DisabledCategories names diagnostic categories (spec.md §7
	// "diagnostic filters"). It is loaded with the rest of the file, but
	// the compile pipeline does not read it, so it silences no diagnostic.
	DisabledCategories []string `yaml:"disabledCategories,omitempty"`

	// DebugMap enables source-map emission alongside compiled output.
	DebugMap *bool `yaml:"debugMap,omitempty"`
}

// FileNames are the names searched for config files, in order of
// preference.
var FileNames = []string{
	"nova.yaml",
	".novarc.yaml",
	".novarc",
}

// Load searches for a config file starting from the given directory and
// walking up to parent directories. Returns nil if no config file is found.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MergeOptions carries CLI flag overrides (nil/zero means "not specified
// on the CLI").
type MergeOptions struct {
	PackageRoot        string
	ExternalPackageDir string
	StdLibRoot         string
	ErrorBudget        *int
	DebugMap           *bool
}

// Roots builds the importer root configuration, resolving every path
// relative to workDir and letting CLI flags win over the config file
// (spec.md §4.6).
func (c *Config) Roots(workDir string, cli MergeOptions) importer.Roots {
	roots := importer.Roots{}
	if c != nil {
		roots.Current = resolveRel(workDir, c.PackageRoot)
		roots.External = resolveRel(workDir, c.ExternalPackageDir)
		roots.Std = resolveRel(workDir, c.StdLibRoot)
	}
	if cli.PackageRoot != "" {
		roots.Current = resolveRel(workDir, cli.PackageRoot)
	}
	if cli.ExternalPackageDir != "" {
		roots.External = resolveRel(workDir, cli.ExternalPackageDir)
	}
	if cli.StdLibRoot != "" {
		roots.Std = resolveRel(workDir, cli.StdLibRoot)
	}
	if roots.Current == "" {
		roots.Current = workDir
	}
	return roots
}

// ErrorBudgetOr returns the configured error budget, CLI override taking
// precedence, or fall (diagnostic.DefaultErrorBudget) if neither is set.
func (c *Config) ErrorBudgetOr(cli MergeOptions, fall int) int {
	if cli.ErrorBudget != nil {
		return *cli.ErrorBudget
	}
	if c != nil && c.ErrorBudget != nil {
		return *c.ErrorBudget
	}
	return fall
}

// DebugMapEnabled reports whether source-map emission is on, CLI flag
// taking precedence over the config file.
func (c *Config) DebugMapEnabled(cli MergeOptions) bool {
	if cli.DebugMap != nil {
		return *cli.DebugMap
	}
	return c != nil && c.DebugMap != nil && *c.DebugMap
}

func resolveRel(workDir, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workDir, p)
}
