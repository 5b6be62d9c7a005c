package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/remedy/internal/knowledge"
	"github.com/standardbeagle/remedy/internal/lexical"
)

func factsWith(imports, consts []string) *lexical.FileFacts {
	f := &lexical.FileFacts{
		Imports:        make(map[string]bool),
		TopLevelConsts: make(map[string]bool),
	}
	for _, s := range imports {
		f.Imports[s] = true
	}
	for _, s := range consts {
		f.TopLevelConsts[s] = true
	}
	return f
}

func TestCheckIdentifier(t *testing.T) {
	a := New(knowledge.Defaults())
	facts := factsWith([]string{"Dashboard", "useAlarm"}, []string{"API_URL"})

	tests := []struct {
		name       string
		identifier string
		wantSafe   bool
	}{
		{"import binding is safe", "Dashboard", true},
		{"hook import is safe", "useAlarm", true},
		{"top-level const is safe", "API_URL", true},
		{"known-safe table entry", "useState", true},
		{"state setter is unsafe", "setCount", false},
		{"property access is unsafe", "window.location", false},
		{"handler suffix is unsafe", "onClickHandler", false},
		{"callback suffix is unsafe", "fetchCallback", false},
		{"unknown name defaults unsafe", "mysteryThing", false},
		{"empty name is unsafe", "", false},
		{"lowercase set prefix word is not a setter", "settings", false}, // still unknown, but not for the setter reason
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := a.CheckIdentifier(tt.identifier, facts)
			assert.Equal(t, tt.wantSafe, v.Safe)
			if !tt.wantSafe {
				assert.NotEmpty(t, v.Reason)
			}
		})
	}
}

func TestCheckIdentifier_SetterBeatsBinding(t *testing.T) {
	// Even a name that is imported stays unsafe when it matches the
	// state-setter convention.
	a := New(knowledge.Defaults())
	facts := factsWith([]string{"setCount"}, nil)

	v := a.CheckIdentifier("setCount", facts)

	assert.False(t, v.Safe)
	assert.Contains(t, v.Reason, "state-setter")
}

func TestCheckIdentifier_Conservatism(t *testing.T) {
	a := New(knowledge.Defaults())

	for _, name := range []string{"frobnicate", "AlarmWidget", "x1", "doStuff"} {
		v := a.CheckIdentifier(name, factsWith(nil, nil))
		assert.False(t, v.Safe, "name %q must default to unsafe", name)
	}
}

func TestCandidateNames(t *testing.T) {
	a := New(knowledge.Defaults())
	facts := factsWith([]string{"useAlarmState"}, nil)

	candidates := a.CandidateNames("useAlarmStat", facts, 3)

	require.NotEmpty(t, candidates)
	assert.Equal(t, "useAlarmState", candidates[0])
	assert.LessOrEqual(t, len(candidates), 3)
}

func TestCandidateNames_NoNearMatches(t *testing.T) {
	a := New(knowledge.Defaults())

	candidates := a.CandidateNames("zzqqxx", factsWith(nil, nil), 3)

	assert.Empty(t, candidates)
}

func TestAnnotationCount(t *testing.T) {
	assert.Equal(t, 1, AnnotationCount("const x: number = 1;"))
	assert.Equal(t, 2, AnnotationCount("function f(a: string, b: MyType<int>) {}"))
	assert.Equal(t, 0, AnnotationCount("const x = 1;"))
	assert.Equal(t, 0, AnnotationCount("// auto: was (x: number)"))
}

func TestPreferSide(t *testing.T) {
	a := New(knowledge.Defaults())

	t.Run("typed head wins over untyped main", func(t *testing.T) {
		head := "const x: number = 1;"
		main := "const x = 1; // auto: note"

		text, ok, _ := a.PreferSide(head, main)

		require.True(t, ok)
		assert.Equal(t, "const x: number = 1;", text)
	})

	t.Run("typed main wins over untyped head", func(t *testing.T) {
		head := "const handler = (e) => submit(e);"
		main := "const handler = (e: FormEvent) => submit(e);"

		text, ok, _ := a.PreferSide(head, main)

		require.True(t, ok)
		assert.Equal(t, main, text)
	})

	t.Run("identical after stripping tool comments", func(t *testing.T) {
		head := "const x = 1; // auto: restored by scout - verify"
		main := "const x = 1;"

		text, ok, _ := a.PreferSide(head, main)

		require.True(t, ok)
		assert.Equal(t, "const x = 1;", text)
	})

	t.Run("divergent content is unresolved", func(t *testing.T) {
		head := "const x = 1;"
		main := "const x = 2;"

		_, ok, reason := a.PreferSide(head, main)

		assert.False(t, ok)
		assert.NotEmpty(t, reason)
	})

	t.Run("equal typing with different content is unresolved", func(t *testing.T) {
		head := "const a: number = 1;"
		main := "const b: number = 2;"

		_, ok, _ := a.PreferSide(head, main)

		assert.False(t, ok)
	})
}
