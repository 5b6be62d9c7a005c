package rewrite

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/remedy/internal/classify"
	"github.com/standardbeagle/remedy/internal/knowledge"
	"github.com/standardbeagle/remedy/internal/lexical"
)

func newEngine(t *testing.T, dryRun bool) *Engine {
	t.Helper()
	return New(lexical.NewScanner(), dryRun)
}

func TestApply_AnyParamNarrowing(t *testing.T) {
	e := newEngine(t, false)
	text := "function f(a: any, b: any) { return a; }\n"

	out, records, errs := e.Apply("f.ts", text, Builtin(nil))

	assert.Empty(t, errs)
	assert.Equal(t, "function f(a: unknown, b: unknown) { return a; }\n", out)
	require.Len(t, records, 1)
	assert.Equal(t, "any-param-narrowing", records[0].RuleID)
	assert.Equal(t, 2, records[0].Occurrences)
	assert.Equal(t, "f.ts", records[0].File)
	assert.NotZero(t, records[0].ContentHash)
	assert.NotZero(t, records[0].Timestamp)
}

func TestApply_UntypedArrowParam(t *testing.T) {
	e := newEngine(t, false)
	text := "const inc = (x) => x + 1;\n"

	out, records, _ := e.Apply("f.ts", text, Builtin(nil))

	assert.Equal(t, "const inc = (x: unknown) => x + 1;\n", out)
	require.Len(t, records, 1)
	assert.Equal(t, "untyped-arrow-param", records[0].RuleID)
}

func TestApply_TimeoutTypeCanonical(t *testing.T) {
	e := newEngine(t, false)
	text := "let timer: NodeJS.Timeout | null = null;\n"

	out, _, _ := e.Apply("f.ts", text, Builtin(nil))

	assert.Equal(t, "let timer: ReturnType<typeof setTimeout> | null = null;\n", out)
}

func TestApply_CollapseTodoArrowBody(t *testing.T) {
	e := newEngine(t, false)
	text := "const noop = () => { /* TODO: implement */ };\n"

	out, records, _ := e.Apply("f.ts", text, Builtin(nil))

	assert.Equal(t, "const noop = () => {};\n", out)
	require.Len(t, records, 1)
	assert.Equal(t, "collapse-todo-arrow-body", records[0].RuleID)
}

func TestApply_ProtectedSpansNotRewritten(t *testing.T) {
	e := newEngine(t, false)
	text := "const s = \"call (x) => here\";\n// note: (y) => in a comment\n"

	out, records, _ := e.Apply("f.ts", text, Builtin(nil))

	assert.Equal(t, text, out, "matches inside strings and comments must be skipped")
	assert.Empty(t, records)
}

func TestApply_StripAutoComments(t *testing.T) {
	e := newEngine(t, false)
	text := "const x = 1; // auto: restored by scout - verify\nconst y = 2;\n"

	out, records, _ := e.Apply("f.ts", text, Builtin(nil))

	assert.Equal(t, "const x = 1;\nconst y = 2;\n", out)
	require.NotEmpty(t, records)
}

func TestApply_GlobalDeclarationsSurviveCleanup(t *testing.T) {
	e := newEngine(t, false)
	text := "/* global describe */\ndescribe('x', () => {}); // auto: note\n"

	out, records, _ := e.Apply("f.ts", text, Builtin(nil))

	assert.Equal(t, "/* global describe */\ndescribe('x', () => {});\n", out)
	for _, r := range records {
		assert.NotEqual(t, "fill-missing-reference", r.RuleID)
	}
}

func TestApply_AnnotationRulesSkipJavaScript(t *testing.T) {
	e := newEngine(t, false)
	text := "const inc = (x) => x + 1;\nfunction f(a: any) {}\n"

	out, _, _ := e.Apply("src/util.js", text, Builtin(nil))

	assert.Equal(t, text, out, "type annotations are invalid in .js files")
}

func TestApply_DuplicateImportCollapse(t *testing.T) {
	e := newEngine(t, false)
	text := "import { A } from './a';\nimport { A } from './a';\nimport { B } from './b';\n"

	out, _, _ := e.Apply("f.ts", text, Builtin(nil))

	assert.Equal(t, "import { A } from './a';\nimport { B } from './b';\n", out)
}

func TestApply_OrphanedMarkersRemoved(t *testing.T) {
	e := newEngine(t, false)
	text := "const a = 1;\n=======\n>>>>>>> origin/main\nconst b = 2;\n"

	out, _, _ := e.Apply("f.ts", text, Builtin(nil))

	assert.Equal(t, "const a = 1;\nconst b = 2;\n", out)
}

func TestApply_CompleteConflictRegionUntouched(t *testing.T) {
	e := newEngine(t, false)
	text := "<<<<<<< HEAD\nconst a = 1;\n=======\nconst a = 2;\n>>>>>>> origin/main\n"

	out, _, _ := e.Apply("f.ts", text, []Rule{Builtin(nil)[6]}) // orphaned-conflict-markers only

	assert.Equal(t, text, out, "complete regions belong to the conflict resolver")
}

func TestApply_Idempotence(t *testing.T) {
	// Property: apply(apply(t, R), R) == apply(t, R) with zero
	// additional change records on the second pass.
	inputs := []string{
		"function f(a: any, b: any) { return [a, b]; }\n",
		"const inc = (x) => x + 1;\nlet t: NodeJS.Timeout | null = null;\n",
		"const noop = () => { /* TODO: implement */ };\nconst x = 1; // auto: note\n",
		"items: any[] = [];\n",
		"import { A } from './a';\nimport { A } from './a';\n",
		"plain file with nothing to do\n",
	}

	for _, input := range inputs {
		e := newEngine(t, false)
		rules := Builtin(nil)

		once, _, errs := e.Apply("f.ts", input, rules)
		require.Empty(t, errs)

		twice, records, errs := e.Apply("f.ts", once, rules)
		require.Empty(t, errs)
		assert.Equal(t, once, twice, "second pass must be a fixed point for %q", input)
		assert.Empty(t, records, "second pass must record no changes for %q", input)
	}
}

func TestApply_DryRunCountsWithoutMutating(t *testing.T) {
	e := newEngine(t, true)
	text := "function f(a: any) {}\n"

	out, records, _ := e.Apply("f.ts", text, Builtin(nil))

	assert.Equal(t, text, out, "dry-run must not modify text")
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Occurrences)
}

func TestApply_PanickingRuleIsContained(t *testing.T) {
	e := newEngine(t, false)
	bad := Rule{
		ID:        "explodes",
		Category:  classify.CategorySyntax,
		Transform: func(string) string { panic("boom") },
	}
	good := Rule{
		ID:          "fine",
		Category:    classify.CategorySyntax,
		Pattern:     regexp.MustCompile(`AAA`),
		Replacement: "BBB",
	}

	out, records, errs := e.Apply("f.ts", "AAA\n", []Rule{bad, good})

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "explodes")
	assert.Equal(t, "BBB\n", out, "remaining rules still run after a failure")
	require.Len(t, records, 1)
	assert.Equal(t, "fine", records[0].RuleID)
}

func TestApply_ScopeRestrictsRule(t *testing.T) {
	e := newEngine(t, false)
	scoped := Rule{
		ID:          "tests-only",
		Category:    classify.CategoryTestMocks,
		Scope:       []string{"**/*.test.ts"},
		Pattern:     regexp.MustCompile(`AAA`),
		Replacement: "BBB",
	}

	out, _, _ := e.Apply("src/main.ts", "AAA", []Rule{scoped})
	assert.Equal(t, "AAA", out)

	out, _, _ = e.Apply("src/main.test.ts", "AAA", []Rule{scoped})
	assert.Equal(t, "BBB", out)
}

func TestBuiltin_ReplacementsComeFromKnowledgeTable(t *testing.T) {
	table := knowledge.Defaults()
	table.TypeReplacements["any"] = "JSONValue"

	e := newEngine(t, false)
	out, _, _ := e.Apply("f.ts", "function f(a: any) {}\n", Builtin(table))

	assert.Equal(t, "function f(a: JSONValue) {}\n", out)
}
