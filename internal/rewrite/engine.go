package rewrite

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/remedy/internal/debug"
	"github.com/standardbeagle/remedy/internal/errors"
	"github.com/standardbeagle/remedy/internal/lexical"
	"github.com/standardbeagle/remedy/internal/types"
)

// maxRulePasses bounds the per-rule fixpoint loop so a pathological
// pattern cannot spin forever.
const maxRulePasses = 10

// Engine applies rules to file contents. One engine per worker: the
// lexical scanner it owns is not safe for concurrent use.
type Engine struct {
	scanner *lexical.Scanner
	dryRun  bool
}

// New creates an engine. In dry-run mode Apply produces the same
// change records without returning modified text.
func New(scanner *lexical.Scanner, dryRun bool) *Engine {
	if scanner == nil {
		scanner = lexical.NewScanner()
	}
	return &Engine{scanner: scanner, dryRun: dryRun}
}

// DryRun reports whether the engine is in detect-only mode.
func (e *Engine) DryRun() bool { return e.dryRun }

// Apply runs every applicable rule against the text sequentially;
// later rules see the output of earlier rules. A failing rule is
// logged and skipped - one bad rule or file never aborts a batch. In
// dry-run mode the returned text is always the input text.
func (e *Engine) Apply(path, text string, rules []Rule) (string, []types.ChangeRecord, []error) {
	var records []types.ChangeRecord
	var errs []error

	current := text
	facts := e.scanner.ScanFile(path, []byte(current))

	for _, rule := range rules {
		if !rule.AppliesTo(path) {
			continue
		}

		next, rec, err := e.applyRule(path, current, facts, rule)
		if err != nil {
			debug.LogRewrite("rule %s failed on %s: %v\n", rule.ID, path, err)
			errs = append(errs, err)
			continue
		}
		if rec != nil {
			rec.ContentHash = xxhash.Sum64String(next)
			records = append(records, *rec)
		}
		if next != current {
			current = next
			// spans shifted; rescan before the next rule
			facts = e.scanner.ScanFile(path, []byte(current))
		}
	}

	if e.dryRun {
		return text, records, errs
	}
	return current, records, errs
}

// applyRule runs one rule to fixpoint with panic containment.
func (e *Engine) applyRule(path, text string, facts *lexical.FileFacts, rule Rule) (out string, rec *types.ChangeRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, rec = text, nil
			err = errors.NewRuleError(rule.ID, path, fmt.Errorf("panic: %v", p))
		}
	}()

	if rule.Transform != nil {
		next := rule.Transform(text)
		if next == text {
			return text, nil, nil
		}
		before, after := firstDifferingLine(text, next)
		return next, &types.ChangeRecord{
			File:          path,
			RuleID:        rule.ID,
			Category:      rule.Category,
			Occurrences:   1,
			BeforeSnippet: before,
			AfterSnippet:  after,
			Timestamp:     time.Now(),
		}, nil
	}

	occurrences := 0
	var firstBefore, firstAfter string
	current := text
	currentFacts := facts

	for pass := 0; pass < maxRulePasses; pass++ {
		next, n, before, after := e.applyPattern(current, currentFacts, rule)
		if n == 0 {
			break
		}
		occurrences += n
		if firstBefore == "" {
			firstBefore, firstAfter = before, after
		}
		current = next
		currentFacts = e.scanner.ScanFile(path, []byte(current))
	}

	if occurrences == 0 {
		return text, nil, nil
	}
	return current, &types.ChangeRecord{
		File:          path,
		RuleID:        rule.ID,
		Category:      rule.Category,
		Occurrences:   occurrences,
		BeforeSnippet: firstBefore,
		AfterSnippet:  firstAfter,
		Timestamp:     time.Now(),
	}, nil
}

// applyPattern runs one replacement pass, skipping matches that reach
// into protected spans unless the rule opts in.
func (e *Engine) applyPattern(text string, facts *lexical.FileFacts, rule Rule) (string, int, string, string) {
	matches := rule.Pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, 0, "", ""
	}

	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	n := 0
	var firstBefore, firstAfter string

	for _, m := range matches {
		start, end := m[0], m[1]
		if !rule.TouchesComments && facts.InProtectedSpan(start, end) {
			continue
		}
		replacement := rule.Pattern.ExpandString(nil, rule.Replacement, text, m)
		sb.WriteString(text[last:start])
		sb.Write(replacement)
		last = end
		n++
		if n == 1 {
			firstBefore = text[start:end]
			firstAfter = string(replacement)
		}
	}
	sb.WriteString(text[last:])

	return sb.String(), n, firstBefore, firstAfter
}

// firstDifferingLine finds the first line that changed between two
// texts, for change-record snippets.
func firstDifferingLine(before, after string) (string, string) {
	b := strings.Split(before, "\n")
	a := strings.Split(after, "\n")
	for i := 0; i < len(b) && i < len(a); i++ {
		if b[i] != a[i] {
			return b[i], a[i]
		}
	}
	if len(b) > len(a) {
		return b[len(a)], ""
	}
	if len(a) > len(b) {
		return "", a[len(b)]
	}
	return "", ""
}
