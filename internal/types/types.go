package types

import "time"

// Diagnostic is one structured compiler/linter finding. Immutable once
// parsed; consumers never mutate it.
type Diagnostic struct {
	File    string
	Line    int // 1-based
	Column  int // 1-based
	Code    string
	Message string
}

// CategorizedDiagnostic is a Diagnostic plus the remediation bucket
// assigned by the classifier. Lower priority means more urgent.
type CategorizedDiagnostic struct {
	Diagnostic
	Category string
	Priority int
}

// ChangeRecord captures one rule's applied occurrences within one file.
// Created when a rule mutates a file, appended to the ledger, never
// mutated afterwards.
type ChangeRecord struct {
	File          string
	RuleID        string
	Category      string
	Occurrences   int
	BeforeSnippet string
	AfterSnippet  string
	ContentHash   uint64 // xxhash of the file content after the change
	Timestamp     time.Time
}

// ManualReviewItem records an edit deliberately deferred to a human
// because the safety criteria were not met. Never auto-resolved.
type ManualReviewItem struct {
	File           string
	Line           int
	Kind           string // rule ID or "conflict"
	CandidateNames []string
	Reason         string
}

// ConflictRegion is one three-way merge conflict span parsed from
// marker lines. Offsets are byte offsets into the file content and
// cover the whole marked region including the marker lines.
type ConflictRegion struct {
	File        string
	HeadText    string
	MainText    string
	HeadLabel   string
	MainLabel   string
	StartOffset int
	EndOffset   int
}

// Resolution is the outcome of attempting to resolve one region.
type Resolution struct {
	Region   ConflictRegion
	Resolved bool
	Text     string // replacement text when Resolved
	Reason   string // why the region was left alone when not
}

// FailureKind names the non-fatal failure classes surfaced in the final
// report so an operator can distinguish "clean" from "silently skipped".
type FailureKind string

const (
	FailureParseSkip     FailureKind = "parse_skip"
	FailureRule          FailureKind = "rule_application"
	FailureConflictParse FailureKind = "conflict_parse"
	FailureWrite         FailureKind = "write"
)

// RunStats accumulates the per-run failure and progress counters.
type RunStats struct {
	FilesScanned    int
	FilesChanged    int
	FilesSkipped    int
	DiagnosticCount int
	ParseSkips      int
	RuleFailures    int
	ConflictsFound  int
	Resolved        int
	Unresolved      int
	WriteFailures   int
	DryRun          bool
	Started         time.Time
	Finished        time.Time
}

// CategoryOther is the guaranteed fallback bucket; classification is
// total because every diagnostic that matches nothing lands here.
const CategoryOther = "other"

// PriorityLowest is assigned to the fallback bucket.
const PriorityLowest = 9
