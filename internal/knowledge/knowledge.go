// Package knowledge holds the static tables the rewrite rules and the
// safety analyzer consult: identifiers that are known safe to
// reference, naming patterns that signal volatile bindings, and the
// imprecise-to-precise type replacement table. Defaults are compiled
// in; a project may layer overrides on top from a TOML file.
package knowledge

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Table is the merged knowledge consulted by rules. Rules treat it as
// read-only; one Table is shared across all workers.
type Table struct {
	// SafeIdentifiers are names that may be referenced without further
	// analysis (framework globals, ubiquitous utility names).
	SafeIdentifiers []string `toml:"safe_identifiers"`

	// VolatilePrefixes mark binding names that must never be filled in
	// automatically (state setters and friends).
	VolatilePrefixes []string `toml:"volatile_prefixes"`

	// HandlerSuffixes mark callback-valued names that must never be
	// filled in automatically.
	HandlerSuffixes []string `toml:"handler_suffixes"`

	// TypeReplacements maps imprecise type spellings to their precise
	// canonical forms for the narrowing rules.
	TypeReplacements map[string]string `toml:"type_replacements"`
}

// Defaults returns the compiled-in table.
func Defaults() *Table {
	return &Table{
		SafeIdentifiers: []string{
			"React", "useState", "useEffect", "useCallback", "useMemo",
			"useRef", "useContext", "console", "JSON", "Promise",
			"setTimeout", "clearTimeout", "setInterval", "clearInterval",
			"describe", "it", "test", "expect", "beforeEach", "afterEach",
			"vi", "jest",
		},
		VolatilePrefixes: []string{"set"},
		HandlerSuffixes:  []string{"Handler", "Callback", "Listener"},
		TypeReplacements: map[string]string{
			"any":            "unknown",
			"any[]":          "unknown[]",
			"Function":       "(...args: unknown[]) => unknown",
			"Object":         "Record<string, unknown>",
			"NodeJS.Timeout": "ReturnType<typeof setTimeout>",
		},
	}
}

// Load reads a TOML overrides file and merges it over the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (*Table, error) {
	base := Defaults()
	if path == "" {
		return base, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge table %s: %w", path, err)
	}

	var overrides Table
	if err := toml.Unmarshal(content, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge table %s: %w", path, err)
	}

	base.merge(&overrides)
	return base, nil
}

// merge layers non-empty override fields over the receiver. List
// fields append (deduplicated); the replacement map merges per key.
func (t *Table) merge(o *Table) {
	t.SafeIdentifiers = appendUnique(t.SafeIdentifiers, o.SafeIdentifiers)
	t.VolatilePrefixes = appendUnique(t.VolatilePrefixes, o.VolatilePrefixes)
	t.HandlerSuffixes = appendUnique(t.HandlerSuffixes, o.HandlerSuffixes)
	for k, v := range o.TypeReplacements {
		t.TypeReplacements[k] = v
	}
}

func appendUnique(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if !seen[s] {
			dst = append(dst, s)
			seen[s] = true
		}
	}
	return dst
}

// IsSafeIdentifier reports whether the name appears in the known-safe
// list.
func (t *Table) IsSafeIdentifier(name string) bool {
	for _, s := range t.SafeIdentifiers {
		if s == name {
			return true
		}
	}
	return false
}
