// Package classify assigns every diagnostic to exactly one remediation
// category using an ordered first-match rule table. The taxonomy is
// open: new categories are added by inserting predicate entries, never
// by touching consumers, and an explicit "other" bucket guarantees
// classification is total.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/remedy/internal/types"
)

// Predicate decides whether a rule matches a diagnostic.
type Predicate func(d types.Diagnostic) bool

// Rule is one ordered entry in the classification table. Authors must
// order more specific predicates before general ones; evaluation is
// first-match, not best-match.
type Rule struct {
	Category string
	Priority int
	Match    Predicate
}

// Classifier evaluates the ordered rule table.
type Classifier struct {
	rules []Rule
	// order records category insertion order for deterministic
	// tie-breaking when sorting a batch.
	order map[string]int
}

// New returns a classifier holding the built-in rule table.
func New() *Classifier {
	c := &Classifier{order: make(map[string]int)}
	for _, r := range builtinRules() {
		c.Add(r)
	}
	return c
}

// NewEmpty returns a classifier with no rules; everything lands in the
// "other" bucket until rules are added.
func NewEmpty() *Classifier {
	return &Classifier{order: make(map[string]int)}
}

// Add appends a rule to the end of the table.
func (c *Classifier) Add(r Rule) {
	c.rules = append(c.rules, r)
	if _, seen := c.order[r.Category]; !seen {
		c.order[r.Category] = len(c.order)
	}
}

// Classify returns the category and priority for a diagnostic. The
// first matching rule wins; no match falls through to "other" with the
// lowest priority.
func (c *Classifier) Classify(d types.Diagnostic) types.CategorizedDiagnostic {
	for _, r := range c.rules {
		if r.Match(d) {
			return types.CategorizedDiagnostic{Diagnostic: d, Category: r.Category, Priority: r.Priority}
		}
	}
	return types.CategorizedDiagnostic{Diagnostic: d, Category: types.CategoryOther, Priority: types.PriorityLowest}
}

// ClassifyAll classifies a batch and sorts it into deterministic
// processing order: priority, then category insertion order, then file
// path, then line number.
func (c *Classifier) ClassifyAll(diags []types.Diagnostic) []types.CategorizedDiagnostic {
	out := make([]types.CategorizedDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, c.Classify(d))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Category != b.Category {
			return c.categoryOrder(a.Category) < c.categoryOrder(b.Category)
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	return out
}

func (c *Classifier) categoryOrder(name string) int {
	if n, ok := c.order[name]; ok {
		return n
	}
	// "other" and unknown categories sort after every table entry
	return len(c.order)
}

// Predicate combinators

// CodeIn matches when the diagnostic code is in the given set.
func CodeIn(codes ...string) Predicate {
	set := make(map[string]bool, len(codes))
	for _, code := range codes {
		set[code] = true
	}
	return func(d types.Diagnostic) bool { return set[d.Code] }
}

// MessageContains matches a case-sensitive substring of the message.
func MessageContains(sub string) Predicate {
	return func(d types.Diagnostic) bool { return strings.Contains(d.Message, sub) }
}

// MessageMatches matches the message against a regular expression.
func MessageMatches(pattern string) Predicate {
	re := regexp.MustCompile(pattern)
	return func(d types.Diagnostic) bool { return re.MatchString(d.Message) }
}

// FileSuffix matches the diagnostic's file path suffix.
func FileSuffix(suffix string) Predicate {
	return func(d types.Diagnostic) bool { return strings.HasSuffix(d.File, suffix) }
}

// FileGlob matches the file path against a doublestar pattern. Bad
// patterns never match; a broken table entry must not break the run.
func FileGlob(pattern string) Predicate {
	return func(d types.Diagnostic) bool {
		matched, err := doublestar.Match(pattern, d.File)
		return err == nil && matched
	}
}

// Any matches when at least one predicate matches.
func Any(preds ...Predicate) Predicate {
	return func(d types.Diagnostic) bool {
		for _, p := range preds {
			if p(d) {
				return true
			}
		}
		return false
	}
}

// All matches when every predicate matches.
func All(preds ...Predicate) Predicate {
	return func(d types.Diagnostic) bool {
		for _, p := range preds {
			if !p(d) {
				return false
			}
		}
		return true
	}
}
