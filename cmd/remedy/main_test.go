package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"remedy"}, args...))
	return out.String(), err
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

const sampleReport = `src/a.ts(1,12): error TS7006: Parameter 'x' implicitly has an 'any' type.
src/a.ts(3,1): error TS2304: Cannot find name 'useState'.
src/b.ts:2:5 - error TS2304: Cannot find name 'setTotal'.
random noise line
`

func TestVersionFlag(t *testing.T) {
	// -v belongs to the built-in version flag; the verbose flag must
	// not shadow it
	out, err := runApp(t, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "0.2.0")
}

func TestClassifyCommand(t *testing.T) {
	root := writeProject(t, map[string]string{"tsc.log": sampleReport})

	out, err := runApp(t, "classify", filepath.Join(root, "tsc.log"))
	require.NoError(t, err)

	assert.Contains(t, out, "Diagnostics: 3")
	assert.Contains(t, out, "implicit-any")
	assert.Contains(t, out, "missing-imports")
	assert.Contains(t, out, "src/a.ts")
}

func TestClassifyCommand_MissingReportFails(t *testing.T) {
	_, err := runApp(t, "classify", filepath.Join(t.TempDir(), "absent.log"))
	assert.Error(t, err)
}

func TestFixCommand_EndToEnd(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/a.ts": "function f(x) { return x; }\nconst t: NodeJS.Timeout = setTimeout(f, 1);\nuseState;\n",
		"tsc.log":  sampleReport,
	})

	out, err := runApp(t, "--root", root, "fix", filepath.Join(root, "tsc.log"))
	require.NoError(t, err)
	assert.Contains(t, out, "Remediation summary")

	fixed, readErr := os.ReadFile(filepath.Join(root, "src", "a.ts"))
	require.NoError(t, readErr)
	assert.Contains(t, string(fixed), "ReturnType<typeof setTimeout>")
	assert.Contains(t, string(fixed), "/* global useState */")
}

func TestFixCommand_DryRunWritesNothing(t *testing.T) {
	original := "function f(a: any) { return a; }\n"
	root := writeProject(t, map[string]string{"src/a.ts": original})

	out, err := runApp(t, "--root", root, "--dry-run", "fix")
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")

	after, readErr := os.ReadFile(filepath.Join(root, "src", "a.ts"))
	require.NoError(t, readErr)
	assert.Equal(t, original, string(after))
}

func TestFixCommand_CleanTreeSucceeds(t *testing.T) {
	root := writeProject(t, map[string]string{"src/a.ts": "const ok = 1;\n"})

	_, err := runApp(t, "--root", root, "fix")
	assert.NoError(t, err, "zero findings is a clean terminal state, not an error")
}

func TestFixCommand_MissingRootFails(t *testing.T) {
	_, err := runApp(t, "--root", filepath.Join(t.TempDir(), "gone"), "fix")
	assert.Error(t, err)
}

func TestFixCommand_WritesReviewFile(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/b.ts": "setTotal(1);\nsetTotal(2);\n",
		"tsc.log":  "src/b.ts(1,1): error TS2304: Cannot find name 'setTotal'.\n",
	})

	_, err := runApp(t, "--root", root, "fix", filepath.Join(root, "tsc.log"))
	require.NoError(t, err)

	review, readErr := os.ReadFile(filepath.Join(root, "manual-review.md"))
	require.NoError(t, readErr)
	assert.Contains(t, string(review), "setTotal")
	assert.Contains(t, string(review), "src/b.ts:1")
}

func TestResolveCommand(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/a.ts": "<<<<<<< HEAD\nconst x: number = 1;\n=======\nconst x = 1;\n>>>>>>> main\n",
	})

	out, err := runApp(t, "--root", root, "resolve")
	require.NoError(t, err)
	assert.Contains(t, out, "Conflicts: 1 found, 1 resolved")

	fixed, readErr := os.ReadFile(filepath.Join(root, "src", "a.ts"))
	require.NoError(t, readErr)
	assert.Equal(t, "const x: number = 1;\n", string(fixed))
}

func TestReportCommand_JSONIsForecastOnly(t *testing.T) {
	original := "function f(a: any) { return a; }\n"
	root := writeProject(t, map[string]string{"src/a.ts": original})

	out, err := runApp(t, "--root", root, "--json", "report")
	require.NoError(t, err)
	assert.Contains(t, out, `"by_category"`)
	assert.Contains(t, out, `"implicit-any"`)

	after, readErr := os.ReadFile(filepath.Join(root, "src", "a.ts"))
	require.NoError(t, readErr)
	assert.Equal(t, original, string(after))
}

func TestWatchCommand_RequiresReport(t *testing.T) {
	root := writeProject(t, map[string]string{"src/a.ts": "const ok = 1;\n"})
	_, err := runApp(t, "--root", root, "watch")
	assert.Error(t, err)
}
