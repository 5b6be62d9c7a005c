// Package rewrite applies the library of idempotent pattern rules to
// file contents, tracking every change. Rules are pure functions over
// a file's text and the static knowledge table; each one is written so
// its output can never re-trigger its own pattern.
package rewrite

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/remedy/internal/classify"
	"github.com/standardbeagle/remedy/internal/knowledge"
	"github.com/standardbeagle/remedy/internal/lexical"
)

// Rule is one rewrite in the library. Either Pattern+Replacement or
// Transform is set, never both.
type Rule struct {
	ID       string
	Category string

	// Scope restricts the rule to files matching any of the globs.
	// Empty means every supported file.
	Scope []string

	// Pattern/Replacement rules use regexp expansion syntax (${1}).
	Pattern     *regexp.Regexp
	Replacement string

	// Transform rules rewrite the whole text; used where a single
	// pattern cannot express the rewrite.
	Transform func(string) string

	// TouchesComments permits matches inside comment/string spans.
	// Default false: pattern rules must not reach into literals.
	TouchesComments bool
}

// AppliesTo reports whether the rule's scope covers the path.
func (r Rule) AppliesTo(path string) bool {
	if len(r.Scope) == 0 {
		return true
	}
	for _, glob := range r.Scope {
		if ok, err := doublestar.Match(glob, path); err == nil && ok {
			return true
		}
	}
	return false
}

var tsOnly = []string{"**/*.ts", "**/*.tsx"}

// Builtin returns the default rule library. Replacement spellings come
// from the knowledge table so projects can override them.
func Builtin(table *knowledge.Table) []Rule {
	if table == nil {
		table = knowledge.Defaults()
	}
	anyRepl := table.TypeReplacements["any"]
	if anyRepl == "" {
		anyRepl = "unknown"
	}
	anyArrRepl := table.TypeReplacements["any[]"]
	if anyArrRepl == "" {
		anyArrRepl = "unknown[]"
	}
	timeoutRepl := table.TypeReplacements["NodeJS.Timeout"]
	if timeoutRepl == "" {
		timeoutRepl = "ReturnType<typeof setTimeout>"
	}

	return []Rule{
		{
			ID:       "collapse-todo-arrow-body",
			Category: classify.CategorySyntax,
			Pattern:  regexp.MustCompile(`=>\s*\{\s*/\*\s*TODO:\s*implement\s*\*/\s*\}`),
			// canonical empty body; the TODO marker never reappears,
			// so the rule cannot re-trigger
			Replacement:     "=> {}",
			TouchesComments: true,
		},
		{
			ID:       "untyped-arrow-param",
			Category: classify.CategoryImplicitAny,
			// annotations are a syntax error in plain JavaScript
			Scope:       tsOnly,
			Pattern:     regexp.MustCompile(`\((\w+)\)\s*=>`),
			Replacement: "(${1}: " + anyRepl + ") =>",
		},
		{
			ID:          "any-param-narrowing",
			Category:    classify.CategoryImplicitAny,
			Scope:       tsOnly,
			Pattern:     regexp.MustCompile(`([(,]\s*)(\w+)\s*:\s*any\s*([,)])`),
			Replacement: "${1}${2}: " + anyRepl + "${3}",
		},
		{
			ID:          "any-array-narrowing",
			Category:    classify.CategoryImplicitAny,
			Scope:       tsOnly,
			Pattern:     regexp.MustCompile(`:\s*any\[\]`),
			Replacement: ": " + anyArrRepl,
		},
		{
			ID:          "timeout-type-canonical",
			Category:    classify.CategoryTimeoutTypes,
			Pattern:     regexp.MustCompile(`NodeJS\.Timeout`),
			Replacement: timeoutRepl,
		},
		{
			ID:       "strip-auto-comments",
			Category: classify.CategorySyntax,
			// line comments only; `/* global */` declarations are
			// fixes in their own right and must survive cleanup
			Transform:       lexical.StripAutoLineComments,
			TouchesComments: true,
		},
		{
			ID:              "orphaned-conflict-markers",
			Category:        classify.CategorySyntax,
			Transform:       removeOrphanedMarkers,
			TouchesComments: true,
		},
		{
			ID:        "duplicate-import-collapse",
			Category:  classify.CategoryImportExports,
			Transform: collapseDuplicateImports,
		},
	}
}

// removeOrphanedMarkers drops conflict-marker lines that do not form a
// complete start/separator/end sequence. Complete regions are left for
// the conflict resolver.
func removeOrphanedMarkers(text string) string {
	lines := strings.Split(text, "\n")

	type markerKind int
	const (
		plain markerKind = iota
		start
		sep
		end
	)
	kind := func(line string) markerKind {
		switch {
		case strings.HasPrefix(line, "<<<<<<< "):
			return start
		case line == "=======":
			return sep
		case strings.HasPrefix(line, ">>>>>>> "):
			return end
		}
		return plain
	}

	// First pass: mark lines belonging to complete regions.
	complete := make([]bool, len(lines))
	for i := 0; i < len(lines); i++ {
		if kind(lines[i]) != start {
			continue
		}
		sepAt, endAt := -1, -1
		for j := i + 1; j < len(lines); j++ {
			switch kind(lines[j]) {
			case start:
				j = len(lines) // nested start: abandon this region
			case sep:
				if sepAt == -1 {
					sepAt = j
				}
			case end:
				if sepAt != -1 {
					endAt = j
				}
				j = len(lines)
			}
		}
		if sepAt != -1 && endAt != -1 {
			complete[i], complete[sepAt], complete[endAt] = true, true, true
			i = endAt
		}
	}

	// Second pass: keep plain lines and complete-region markers.
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if kind(line) != plain && !complete[i] {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// collapseDuplicateImports removes byte-identical repeated import
// lines, keeping the first occurrence.
func collapseDuplicateImports(text string) string {
	lines := strings.Split(text, "\n")
	seen := make(map[string]bool)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "import ") {
			if seen[trimmed] {
				continue
			}
			seen[trimmed] = true
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
