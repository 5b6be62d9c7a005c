package ledger

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/standardbeagle/remedy/internal/types"
)

// Report is the final aggregation handed to the renderer. Pure data,
// computed once from the ledger at run end.
type Report struct {
	Stats      types.RunStats              `json:"stats"`
	ByCategory []CountEntry                `json:"by_category"`
	TopFiles   []CountEntry                `json:"top_files"`
	Failures   map[types.FailureKind]int   `json:"failures,omitempty"`
	Changes    []types.ChangeRecord        `json:"changes,omitempty"`
	Reviews    []types.ManualReviewItem    `json:"manual_review,omitempty"`
}

// topFileCount bounds the "worst offenders" list in the summary.
const topFileCount = 10

// BuildReport aggregates the ledger into a Report.
func (l *Ledger) BuildReport(stats types.RunStats) *Report {
	return &Report{
		Stats:      stats,
		ByCategory: l.ByCategory(),
		TopFiles:   l.TopFiles(topFileCount),
		Failures:   l.failures,
		Changes:    l.changes,
		Reviews:    l.reviews,
	}
}

// FormatterOptions controls report rendering.
type FormatterOptions struct {
	Format  string // "text" or "json"
	Verbose bool   // include per-change records in text output
}

// Formatter renders a Report for display.
type Formatter struct {
	options FormatterOptions
}

func NewFormatter(options FormatterOptions) *Formatter {
	return &Formatter{options: options}
}

// Format renders the report in the configured format.
func (f *Formatter) Format(r *Report) string {
	if r == nil {
		return "No report data available"
	}
	switch f.options.Format {
	case "json":
		return f.formatJSON(r)
	default:
		return f.formatText(r)
	}
}

func (f *Formatter) formatJSON(r *Report) string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

func (f *Formatter) formatText(r *Report) string {
	var sb strings.Builder

	totalOccurrences := 0
	for _, e := range r.ByCategory {
		totalOccurrences += e.Count
	}

	if r.Stats.DryRun {
		sb.WriteString("Remediation summary (dry run)\n")
	} else {
		sb.WriteString("Remediation summary\n")
	}
	sb.WriteString(fmt.Sprintf("Files scanned: %d, changed: %d, skipped: %d\n",
		r.Stats.FilesScanned, r.Stats.FilesChanged, r.Stats.FilesSkipped))
	if r.Stats.DiagnosticCount > 0 {
		sb.WriteString(fmt.Sprintf("Diagnostics read: %d\n", r.Stats.DiagnosticCount))
	}
	if r.Stats.DryRun {
		sb.WriteString(fmt.Sprintf("Fixes detected (not applied): %d\n", totalOccurrences))
	} else {
		sb.WriteString(fmt.Sprintf("Fixes applied: %d\n", totalOccurrences))
	}

	if len(r.ByCategory) > 0 {
		sb.WriteString("\nBy category:\n")
		for _, e := range r.ByCategory {
			sb.WriteString(fmt.Sprintf("  %-20s %d\n", e.Name, e.Count))
		}
	}

	if len(r.TopFiles) > 0 {
		sb.WriteString("\nTop files:\n")
		for _, e := range r.TopFiles {
			sb.WriteString(fmt.Sprintf("  %5d  %s\n", e.Count, e.Name))
		}
	}

	if r.Stats.ConflictsFound > 0 {
		sb.WriteString(fmt.Sprintf("\nConflicts: %d found, %d resolved, %d left for review\n",
			r.Stats.ConflictsFound, r.Stats.Resolved, r.Stats.Unresolved))
	}

	if len(r.Failures) > 0 {
		sb.WriteString("\nNon-fatal failures:\n")
		for _, kind := range []types.FailureKind{
			types.FailureParseSkip, types.FailureRule,
			types.FailureConflictParse, types.FailureWrite,
		} {
			if n := r.Failures[kind]; n > 0 {
				sb.WriteString(fmt.Sprintf("  %-16s %d\n", string(kind), n))
			}
		}
	}

	if len(r.Reviews) > 0 {
		sb.WriteString(fmt.Sprintf("\nManual review items: %d (see review file)\n", len(r.Reviews)))
	}

	if f.options.Verbose && len(r.Changes) > 0 {
		sb.WriteString("\nChanges:\n")
		for _, c := range r.Changes {
			sb.WriteString(fmt.Sprintf("  %s: %s x%d\n", c.File, c.RuleID, c.Occurrences))
		}
	}

	return sb.String()
}

// FormatReviewList renders the manual-review items as a markdown
// checklist for human follow-up. Returns "" when there is nothing to
// review so callers can skip writing the file.
func FormatReviewList(reviews []types.ManualReviewItem) string {
	if len(reviews) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("# Manual review\n\n")
	sb.WriteString("Edits skipped because they could not be verified safe.\n\n")
	for _, item := range reviews {
		sb.WriteString(fmt.Sprintf("- [ ] `%s:%d` (%s): %s", item.File, item.Line, item.Kind, item.Reason))
		if len(item.CandidateNames) > 0 {
			sb.WriteString(fmt.Sprintf(" (did you mean %s?)", strings.Join(item.CandidateNames, ", ")))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
