// Package diagparse turns raw compiler/linter output into structured
// diagnostic records. Parsing is best-effort extraction against a small
// line grammar, not a full parse: unrecognizable lines are counted and
// dropped, never treated as errors.
package diagparse

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/standardbeagle/remedy/internal/errors"
	"github.com/standardbeagle/remedy/internal/types"
)

// ansiEscape matches the CSI and two-byte escape sequences emitted by
// compilers writing to a terminal.
var ansiEscape = regexp.MustCompile("\x1b(?:[@-Z\\\\-_]|\\[[0-?]*[ -/]*[@-~])")

// The two accepted diagnostic header grammars:
//
//	src/a.tsx(10,5): error TS7006: message
//	src/a.tsx:10:5 - error TS7006: message
var (
	headerParen = regexp.MustCompile(`^(.+?)\((\d+),(\d+)\):\s*error\s+([A-Za-z]+\d+):\s*(.*)$`)
	headerColon = regexp.MustCompile(`^(.+?):(\d+):(\d+)\s*-\s*error\s+([A-Za-z]+\d+):\s*(.*)$`)
)

// StripANSI removes terminal escape sequences from raw tool output.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// matchHeader attempts both header grammars against a single line.
func matchHeader(line string) (types.Diagnostic, bool) {
	for _, re := range []*regexp.Regexp{headerParen, headerColon} {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNum, err1 := strconv.Atoi(m[2])
		colNum, err2 := strconv.Atoi(m[3])
		if err1 != nil || err2 != nil || lineNum < 1 || colNum < 1 {
			continue
		}
		return types.Diagnostic{
			File:    m[1],
			Line:    lineNum,
			Column:  colNum,
			Code:    m[4],
			Message: strings.TrimSpace(m[5]),
		}, true
	}
	return types.Diagnostic{}, false
}

// Parse extracts every recognizable diagnostic from raw output. A
// diagnostic's message continues on subsequent physical lines until a
// blank line, the next header, or end of input; continuation lines are
// joined with single spaces. The second return value counts lines that
// matched nothing (ParseSkip). Parsing holds no cross-call state, so
// the same input always yields the same sequence.
func Parse(content string) ([]types.Diagnostic, int) {
	content = StripANSI(content)

	var diags []types.Diagnostic
	skipped := 0
	open := false // a diagnostic is accepting continuation lines

	flushTo := func(d types.Diagnostic) {
		diags = append(diags, d)
		open = true
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if d, ok := matchHeader(trimmed); ok {
			flushTo(d)
			continue
		}

		if trimmed == "" {
			open = false
			continue
		}

		if open {
			last := &diags[len(diags)-1]
			last.Message = last.Message + " " + trimmed
			continue
		}

		skipped++
	}

	return diags, skipped
}

// ParseFile reads and parses a diagnostics report. A missing or
// unreadable report is the fatal case that aborts the whole run.
func ParseFile(path string) ([]types.Diagnostic, int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, errors.NewInputNotFound(path, err)
	}
	diags, skipped := Parse(string(content))
	return diags, skipped, nil
}
