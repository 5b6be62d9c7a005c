package rewrite

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/remedy/internal/classify"
	"github.com/standardbeagle/remedy/internal/safety"
	"github.com/standardbeagle/remedy/internal/types"
)

// RuleIDFillReference names the safety-gated missing-reference edit in
// change records and review items.
const RuleIDFillReference = "fill-missing-reference"

var missingName = regexp.MustCompile(`Cannot find name '([^']+)'`)

// FillMissingReferences handles the missing-imports category: for each
// "Cannot find name" diagnostic in this file, a global declaration
// comment is inserted when the safety analyzer approves the name;
// otherwise the offending line is annotated for review and a
// ManualReviewItem is emitted. Every name not affirmatively safe is
// deferred - no edit is ever applied on a safety refusal.
func (e *Engine) FillMissingReferences(path, text string, diags []types.CategorizedDiagnostic, analyzer *safety.Analyzer) (string, []types.ChangeRecord, []types.ManualReviewItem) {
	facts := e.scanner.ScanFile(path, []byte(text))

	var records []types.ChangeRecord
	var reviews []types.ManualReviewItem
	current := text
	inserted := 0

	for _, d := range diags {
		if d.Category != classify.CategoryMissingImports {
			continue
		}
		m := missingName.FindStringSubmatch(d.Message)
		if m == nil {
			continue
		}
		name := m[1]

		verdict := analyzer.CheckIdentifier(name, facts)
		if verdict.Safe {
			decl := fmt.Sprintf("/* global %s */", name)
			if strings.Contains(current, decl) {
				continue // already declared; reapplication changes nothing
			}
			current = decl + "\n" + current
			inserted++
			continue
		}

		reviews = append(reviews, types.ManualReviewItem{
			File:           path,
			Line:           d.Line,
			Kind:           RuleIDFillReference,
			CandidateNames: analyzer.CandidateNames(name, facts, 3),
			Reason:         verdict.Reason,
		})
		// earlier inserted declarations shifted every line down by one
		current = annotateLine(current, d.Line+inserted, name)
	}

	if inserted > 0 {
		records = append(records, types.ChangeRecord{
			File:          path,
			RuleID:        RuleIDFillReference,
			Category:      classify.CategoryMissingImports,
			Occurrences:   inserted,
			BeforeSnippet: "",
			AfterSnippet:  strings.SplitN(current, "\n", 2)[0],
			ContentHash:   xxhash.Sum64String(current),
			Timestamp:     time.Now(),
		})
	}

	if e.dryRun {
		return text, records, reviews
	}
	return current, records, reviews
}

// annotateLine appends a review marker to the diagnostic's line so the
// deferred site is visible in the source itself. The presence check
// covers the whole file: a stale report replayed after declarations
// were inserted names lines that no longer match, and the marker must
// not land a second time.
func annotateLine(text string, line int, name string) string {
	marker := fmt.Sprintf("// remedy:review missing '%s'", name)
	if strings.Contains(text, marker) {
		return text
	}
	lines := strings.Split(text, "\n")
	if line < 1 || line > len(lines) {
		return text
	}
	idx := line - 1
	lines[idx] = lines[idx] + " " + marker
	return strings.Join(lines, "\n")
}
