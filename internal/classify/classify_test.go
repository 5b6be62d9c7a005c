package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/remedy/internal/types"
)

func diag(file, code, message string) types.Diagnostic {
	return types.Diagnostic{File: file, Line: 1, Column: 1, Code: code, Message: message}
}

func TestClassify_BuiltinTable(t *testing.T) {
	c := New()

	tests := []struct {
		name string
		d    types.Diagnostic
		want string
	}{
		{
			name: "implicit any parameter",
			d:    diag("a.ts", "TS7006", "Parameter 'x' implicitly has an 'any' type."),
			want: CategoryImplicitAny,
		},
		{
			name: "component props mismatch",
			d:    diag("App.tsx", "TS2322", "Type '{ id: string; }' is not assignable to type 'Props'."),
			want: CategoryComponentProps,
		},
		{
			name: "props wins over implicit any on overlap",
			d:    diag("App.tsx", "TS2339", "Property 'any' does not exist on type 'Props'."),
			want: CategoryComponentProps,
		},
		{
			name: "missing import",
			d:    diag("b.ts", "TS2304", "Cannot find name 'useAlarm'."),
			want: CategoryMissingImports,
		},
		{
			name: "export mismatch",
			d:    diag("c.ts", "TS2305", "Module './api' has no exported member 'fetchUser'."),
			want: CategoryImportExports,
		},
		{
			name: "syntax error",
			d:    diag("d.ts", "TS1005", "';' expected."),
			want: CategorySyntax,
		},
		{
			name: "jsx runtime missing",
			d:    diag("e.tsx", "TS2307", "Cannot find module 'react/jsx-runtime'."),
			want: CategoryJSXRuntime,
		},
		{
			name: "hoisting",
			d:    diag("f.ts", "TS2448", "Block-scoped variable 'x' used before its declaration."),
			want: CategoryHoisting,
		},
		{
			name: "timeout type",
			d:    diag("g.ts", "TS2322", "Type 'Timeout' is not assignable to type 'number'."),
			want: CategoryTimeoutTypes,
		},
		{
			name: "runtime environment type",
			d:    diag("h.ts", "TS2304", "Cannot find name 'KVNamespace'."),
			want: CategoryMissingImports, // missing-imports is ordered first on purpose
		},
		{
			name: "runtime environment type without name lookup",
			d:    diag("h.ts", "TS2552", "'D1Database' refers to a type."),
			want: CategoryRuntimeEnv,
		},
		{
			name: "test file glob",
			d:    diag("src/__tests__/mock.ts", "TS2322", "Type 'number' is not assignable to type 'string'."),
			want: CategoryTestMocks,
		},
		{
			name: "fallback",
			d:    diag("z.ts", "TS9999", "Something nobody has a rule for."),
			want: types.CategoryOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.d)
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

func TestClassify_Totality(t *testing.T) {
	c := New()
	batch := []types.Diagnostic{
		diag("a.ts", "TS7006", "Parameter 'x' implicitly has an 'any' type."),
		diag("b.ts", "TS0000", ""),
		diag("c.ts", "", "no code at all"),
	}

	out := c.ClassifyAll(batch)

	require.Len(t, out, len(batch))
	total := 0
	for _, g := range GroupByCategory(out) {
		assert.NotEmpty(t, g.Name)
		total += g.Count
	}
	assert.Equal(t, len(batch), total)
}

func TestClassify_FirstMatchWins(t *testing.T) {
	c := NewEmpty()
	c.Add(Rule{Category: "specific", Priority: 1, Match: MessageContains("widget props")})
	c.Add(Rule{Category: "general", Priority: 2, Match: MessageContains("widget")})

	got := c.Classify(diag("a.ts", "TS1", "widget props broke"))
	assert.Equal(t, "specific", got.Category)

	got = c.Classify(diag("a.ts", "TS1", "widget broke"))
	assert.Equal(t, "general", got.Category)
}

func TestClassifyAll_DeterministicOrder(t *testing.T) {
	c := New()
	batch := []types.Diagnostic{
		diag("z.ts", "TS9999", "unknown"),
		diag("b.ts", "TS7006", "Parameter 'b' implicitly has an 'any' type."),
		{File: "a.ts", Line: 9, Column: 1, Code: "TS7006", Message: "Parameter 'a' implicitly has an 'any' type."},
		{File: "a.ts", Line: 2, Column: 1, Code: "TS7006", Message: "Parameter 'c' implicitly has an 'any' type."},
		diag("a.ts", "TS1005", "';' expected."),
	}

	out := c.ClassifyAll(batch)

	// syntax (priority 1) first, then implicit-any sorted by file/line,
	// the unmatched diagnostic last.
	require.Len(t, out, 5)
	assert.Equal(t, CategorySyntax, out[0].Category)
	assert.Equal(t, "a.ts", out[1].File)
	assert.Equal(t, 2, out[1].Line)
	assert.Equal(t, "a.ts", out[2].File)
	assert.Equal(t, 9, out[2].Line)
	assert.Equal(t, "b.ts", out[3].File)
	assert.Equal(t, types.CategoryOther, out[4].Category)
}

func TestGroupByCategory_SortsByCountThenName(t *testing.T) {
	c := New()
	batch := []types.Diagnostic{
		diag("a.ts", "TS7006", "Parameter 'x' implicitly has an 'any' type."),
		diag("a.ts", "TS7006", "Parameter 'y' implicitly has an 'any' type."),
		diag("b.ts", "TS1005", "';' expected."),
		diag("c.ts", "TS2304", "Cannot find name 'foo'."),
	}

	groups := GroupByCategory(c.ClassifyAll(batch))

	require.Len(t, groups, 3)
	assert.Equal(t, CategoryImplicitAny, groups[0].Name)
	assert.Equal(t, 2, groups[0].Count)
	// remaining two tie on count, break lexicographically
	assert.Equal(t, CategoryMissingImports, groups[1].Name)
	assert.Equal(t, CategorySyntax, groups[2].Name)
}

func TestTopFiles(t *testing.T) {
	c := New()
	batch := []types.Diagnostic{
		diag("hot.ts", "TS7006", "Parameter 'x' implicitly has an 'any' type."),
		diag("hot.ts", "TS7006", "Parameter 'y' implicitly has an 'any' type."),
		diag("hot.ts", "TS1005", "';' expected."),
		diag("warm.ts", "TS1005", "';' expected."),
		diag("cold.ts", "TS9999", "whatever"),
	}

	top := TopFiles(c.ClassifyAll(batch), 2)

	require.Len(t, top, 2)
	assert.Equal(t, "hot.ts", top[0].Name)
	assert.Equal(t, 3, top[0].Count)
}
