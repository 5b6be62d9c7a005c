package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Config is the full runtime configuration for a remediation pass.
type Config struct {
	Project   Project
	Remediate Remediate
	Include   []string
	Exclude   []string
	// Knowledge is an optional TOML file providing overrides for the
	// static knowledge tables (known-safe identifiers, type
	// replacements, volatile name patterns).
	Knowledge string
}

type Project struct {
	Root string
	Name string
}

type Remediate struct {
	DryRun     bool
	MaxFiles   int      // batch cap, 0 = unlimited
	Workers    int      // 0 = auto-detect (NumCPU)
	Categories []string // restrict processing to named categories, empty = all
	ReviewFile string   // where the manual-review list is written
}

// Load reads .remedy.kdl from the given project directory, falling
// back to defaults when no config file exists. CLI flag overrides are
// applied by the caller.
func Load(projectRoot string) (*Config, error) {
	cfg, err := LoadKDL(projectRoot)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	return Default(projectRoot), nil
}

// Default returns the built-in configuration rooted at dir.
func Default(dir string) *Config {
	root := dir
	if root == "" {
		if cwd, err := os.Getwd(); err == nil {
			root = cwd
		} else {
			root = "."
		}
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Config{
		Project: Project{Root: root},
		Remediate: Remediate{
			DryRun:     false,
			MaxFiles:   0,
			Workers:    runtime.NumCPU(),
			ReviewFile: "manual-review.md",
		},
		Include: []string{},
		Exclude: defaultExclusions(),
	}
}

// WorkerCount resolves the configured worker count, auto-detecting
// from the CPU count when unset.
func (c *Config) WorkerCount() int {
	if c.Remediate.Workers > 0 {
		return c.Remediate.Workers
	}
	return max(1, runtime.NumCPU()-1)
}

// CategoryAllowed reports whether processing is enabled for the named
// category. An empty filter allows everything.
func (c *Config) CategoryAllowed(category string) bool {
	if len(c.Remediate.Categories) == 0 {
		return true
	}
	for _, want := range c.Remediate.Categories {
		if want == category {
			return true
		}
	}
	return false
}

// defaultExclusions covers dependency trees, build output, and
// generated bundles that a remediation pass must never touch.
func defaultExclusions() []string {
	return []string{
		"**/.*/**",
		"**/node_modules/**",
		"**/vendor/**",
		"**/bower_components/**",
		"**/dist/**",
		"**/build/**",
		"**/out/**",
		"**/coverage/**",
		"**/.next/**",
		"**/.nuxt/**",
		"**/.parcel-cache/**",
		"**/.turbo/**",
		"**/*.min.js",
		"**/*.min.css",
		"**/*.bundle.js",
		"**/*.chunk.js",
		"**/*.map",
		"**/*.snap",
		"**/*.log",
		"**/*.lock",
		"**/*.tmp",
		"**/*.bak",
		"**/*.orig",
	}
}
