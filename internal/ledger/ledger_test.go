package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/remedy/internal/types"
)

func sampleLedger() *Ledger {
	l := New()
	l.Append(types.ChangeRecord{File: "a.ts", RuleID: "any-param-narrowing", Category: "implicit-any", Occurrences: 3, Timestamp: time.Now()})
	l.Append(types.ChangeRecord{File: "b.ts", RuleID: "any-param-narrowing", Category: "implicit-any", Occurrences: 1, Timestamp: time.Now()})
	l.Append(types.ChangeRecord{File: "a.ts", RuleID: "timeout-type-canonical", Category: "timeout-types", Occurrences: 2, Timestamp: time.Now()})
	l.AppendReview(types.ManualReviewItem{File: "c.ts", Line: 7, Kind: "fill-missing-reference", CandidateNames: []string{"setCount"}, Reason: "state-setter naming"})
	l.Fail(types.FailureRule)
	l.Fail(types.FailureRule)
	l.Fail(types.FailureConflictParse)
	return l
}

func TestLedger_Aggregations(t *testing.T) {
	l := sampleLedger()

	byCat := l.ByCategory()
	require.Len(t, byCat, 2)
	assert.Equal(t, CountEntry{Name: "implicit-any", Count: 4}, byCat[0])
	assert.Equal(t, CountEntry{Name: "timeout-types", Count: 2}, byCat[1])

	byFile := l.ByFile()
	require.Len(t, byFile, 2)
	assert.Equal(t, CountEntry{Name: "a.ts", Count: 5}, byFile[0])

	top := l.TopFiles(1)
	require.Len(t, top, 1)
	assert.Equal(t, "a.ts", top[0].Name)
}

func TestLedger_SortIsDeterministicOnTies(t *testing.T) {
	l := New()
	l.Append(types.ChangeRecord{File: "z.ts", Category: "syntax", Occurrences: 1})
	l.Append(types.ChangeRecord{File: "a.ts", Category: "hoisting", Occurrences: 1})

	byCat := l.ByCategory()
	assert.Equal(t, "hoisting", byCat[0].Name, "equal counts order by name")
	byFile := l.ByFile()
	assert.Equal(t, "a.ts", byFile[0].Name)
}

func TestLedger_Merge(t *testing.T) {
	a := sampleLedger()
	b := New()
	b.Append(types.ChangeRecord{File: "d.ts", Category: "syntax", Occurrences: 1})
	b.Fail(types.FailureRule)

	a.Merge(b)
	a.Merge(nil)

	assert.Len(t, a.Changes(), 4)
	assert.Equal(t, 3, a.Failures()[types.FailureRule])
	assert.Equal(t, 1, a.Failures()[types.FailureConflictParse])
}

func TestBuildReport_TextFormat(t *testing.T) {
	l := sampleLedger()
	report := l.BuildReport(types.RunStats{FilesScanned: 10, FilesChanged: 2, ConflictsFound: 3, Resolved: 2, Unresolved: 1})

	out := NewFormatter(FormatterOptions{Format: "text"}).Format(report)

	assert.Contains(t, out, "Files scanned: 10, changed: 2")
	assert.Contains(t, out, "Fixes applied: 6")
	assert.Contains(t, out, "implicit-any")
	assert.Contains(t, out, "a.ts")
	assert.Contains(t, out, "Conflicts: 3 found, 2 resolved, 1 left for review")
	assert.Contains(t, out, "rule_application 2")
	assert.Contains(t, out, "Manual review items: 1")
}

func TestBuildReport_DryRunWording(t *testing.T) {
	l := sampleLedger()
	out := NewFormatter(FormatterOptions{}).Format(l.BuildReport(types.RunStats{DryRun: true}))

	assert.Contains(t, out, "dry run")
	assert.NotContains(t, out, "Fixes applied:")
}

func TestBuildReport_JSONRoundTrip(t *testing.T) {
	l := sampleLedger()
	out := NewFormatter(FormatterOptions{Format: "json"}).Format(l.BuildReport(types.RunStats{FilesScanned: 1}))

	var decoded Report
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 1, decoded.Stats.FilesScanned)
	assert.Len(t, decoded.ByCategory, 2)
	assert.Len(t, decoded.Reviews, 1)
}

func TestFormatReviewList(t *testing.T) {
	assert.Empty(t, FormatReviewList(nil))

	out := FormatReviewList([]types.ManualReviewItem{
		{File: "c.ts", Line: 7, Kind: "fill-missing-reference", CandidateNames: []string{"setCount", "setMount"}, Reason: "unknown reference"},
		{File: "d.ts", Line: 2, Kind: "conflict", Reason: "divergent content"},
	})

	assert.Contains(t, out, "- [ ] `c.ts:7`")
	assert.Contains(t, out, "did you mean setCount, setMount?")
	assert.Contains(t, out, "`d.ts:2` (conflict)")
}
