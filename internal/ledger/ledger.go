// Package ledger accumulates the change and review records produced by
// a run and aggregates them into the final report. The ledger is
// process-scoped and append-only: initialized empty at run start,
// flushed once at run end, no persistence across runs.
package ledger

import (
	"sort"

	"github.com/standardbeagle/remedy/internal/types"
)

// Ledger collects records from a single run. Not safe for concurrent
// use: the pipeline funnels all worker results through one reducer
// goroutine, so the ledger never sees concurrent appends.
type Ledger struct {
	changes  []types.ChangeRecord
	reviews  []types.ManualReviewItem
	failures map[types.FailureKind]int
}

func New() *Ledger {
	return &Ledger{failures: make(map[types.FailureKind]int)}
}

// Append adds one change record.
func (l *Ledger) Append(rec types.ChangeRecord) {
	l.changes = append(l.changes, rec)
}

// AppendReview adds one deferred-to-human item.
func (l *Ledger) AppendReview(item types.ManualReviewItem) {
	l.reviews = append(l.reviews, item)
}

// Fail counts one non-fatal failure of the given kind.
func (l *Ledger) Fail(kind types.FailureKind) {
	l.failures[kind]++
}

// Merge folds another ledger into this one. Used by the reducer to
// absorb per-file partial ledgers coming off the worker channel.
func (l *Ledger) Merge(other *Ledger) {
	if other == nil {
		return
	}
	l.changes = append(l.changes, other.changes...)
	l.reviews = append(l.reviews, other.reviews...)
	for kind, n := range other.failures {
		l.failures[kind] += n
	}
}

// Changes returns the appended change records in arrival order.
func (l *Ledger) Changes() []types.ChangeRecord { return l.changes }

// Reviews returns the manual-review items in arrival order.
func (l *Ledger) Reviews() []types.ManualReviewItem { return l.reviews }

// Failures returns the per-kind failure counts.
func (l *Ledger) Failures() map[types.FailureKind]int { return l.failures }

// CountEntry is one name/count pair in an aggregation.
type CountEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// sortEntries orders count-descending, then name-ascending so equal
// counts render deterministically.
func sortEntries(m map[string]int) []CountEntry {
	out := make([]CountEntry, 0, len(m))
	for name, count := range m {
		out = append(out, CountEntry{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ByCategory sums applied occurrences per rule category.
func (l *Ledger) ByCategory() []CountEntry {
	m := make(map[string]int)
	for _, c := range l.changes {
		m[c.Category] += c.Occurrences
	}
	return sortEntries(m)
}

// ByFile sums applied occurrences per file.
func (l *Ledger) ByFile() []CountEntry {
	m := make(map[string]int)
	for _, c := range l.changes {
		m[c.File] += c.Occurrences
	}
	return sortEntries(m)
}

// TopFiles returns the n files with the most applied occurrences.
func (l *Ledger) TopFiles(n int) []CountEntry {
	entries := l.ByFile()
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
