package classify

import (
	"sort"

	"github.com/standardbeagle/remedy/internal/types"
)

// Group is one aggregation bucket with its member diagnostics.
type Group struct {
	Name  string
	Count int
	Items []types.CategorizedDiagnostic
}

// GroupByCategory buckets a batch by category, sorted by descending
// count with lexicographic name tie-break so output is reproducible
// across runs.
func GroupByCategory(batch []types.CategorizedDiagnostic) []Group {
	return groupBy(batch, func(d types.CategorizedDiagnostic) string { return d.Category })
}

// GroupByFile buckets a batch by file path with the same ordering
// guarantees as GroupByCategory.
func GroupByFile(batch []types.CategorizedDiagnostic) []Group {
	return groupBy(batch, func(d types.CategorizedDiagnostic) string { return d.File })
}

// TopFiles returns the n most-offending files. n <= 0 returns all.
func TopFiles(batch []types.CategorizedDiagnostic, n int) []Group {
	groups := GroupByFile(batch)
	if n > 0 && len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

func groupBy(batch []types.CategorizedDiagnostic, key func(types.CategorizedDiagnostic) string) []Group {
	byKey := make(map[string][]types.CategorizedDiagnostic)
	for _, d := range batch {
		k := key(d)
		byKey[k] = append(byKey[k], d)
	}

	groups := make([]Group, 0, len(byKey))
	for k, items := range byKey {
		groups = append(groups, Group{Name: k, Count: len(items), Items: items})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Name < groups[j].Name
	})
	return groups
}
