// Package conflict finds three-way merge conflict regions in source
// files and resolves the unambiguous ones. The resolution heuristic
// lives in the safety package; this package only does the marker
// parsing and the splicing.
package conflict

import (
	"strings"

	"github.com/standardbeagle/remedy/internal/debug"
	"github.com/standardbeagle/remedy/internal/errors"
	"github.com/standardbeagle/remedy/internal/safety"
	"github.com/standardbeagle/remedy/internal/types"
)

const (
	markerStart = "<<<<<<<"
	markerSep   = "======="
	markerEnd   = ">>>>>>>"
)

// Outcome is the result of one file's resolution pass.
type Outcome struct {
	Path        string
	Text        string // full file text after splicing
	Changed     bool
	Resolutions []types.Resolution
	Reviews     []types.ManualReviewItem
	Malformed   int
}

// Resolved and Unresolved count the regions by outcome.
func (o *Outcome) Resolved() int {
	n := 0
	for _, r := range o.Resolutions {
		if r.Resolved {
			n++
		}
	}
	return n
}

func (o *Outcome) Unresolved() int {
	return len(o.Resolutions) - o.Resolved() + o.Malformed
}

// Resolver parses conflict regions and splices resolved text.
type Resolver struct {
	analyzer *safety.Analyzer
}

func New(analyzer *safety.Analyzer) *Resolver {
	return &Resolver{analyzer: analyzer}
}

// HasMarkers reports whether text contains a conflict start marker at
// the beginning of a line. Cheap pre-filter so the pipeline can skip
// the full scan for clean files.
func HasMarkers(text string) bool {
	if strings.HasPrefix(text, markerStart) {
		return true
	}
	return strings.Contains(text, "\n"+markerStart)
}

// ResolveFile scans one file's text for conflict regions and resolves
// each independently. Malformed marker sequences are left byte-for-byte
// intact and reported as ConflictParseErrors; a file is never partially
// spliced inside a region. Regions are spliced from last to first so
// earlier offsets stay valid.
func (r *Resolver) ResolveFile(path, text string) (*Outcome, []error) {
	regions, malformed, errs := scanRegions(path, text)

	out := &Outcome{Path: path, Text: text, Malformed: malformed}
	if len(regions) == 0 {
		return out, errs
	}

	current := text
	for i := len(regions) - 1; i >= 0; i-- {
		region := regions[i]
		chosen, ok, reason := r.analyzer.PreferSide(region.HeadText, region.MainText)
		if !ok {
			debug.LogConflict("%s@%d unresolved: %s", path, region.StartOffset, reason)
			out.Resolutions = append([]types.Resolution{{Region: region, Reason: reason}}, out.Resolutions...)
			out.Reviews = append([]types.ManualReviewItem{{
				File:   path,
				Line:   lineAt(text, region.StartOffset),
				Kind:   "conflict",
				Reason: reason,
			}}, out.Reviews...)
			continue
		}

		replacement := chosen
		if replacement != "" && !strings.HasSuffix(replacement, "\n") {
			replacement += "\n"
		}
		current = current[:region.StartOffset] + replacement + current[region.EndOffset:]
		debug.LogConflict("%s@%d resolved", path, region.StartOffset)
		out.Resolutions = append([]types.Resolution{{Region: region, Resolved: true, Text: chosen}}, out.Resolutions...)
	}

	out.Text = current
	out.Changed = current != text
	return out, errs
}

// scanRegions walks the text line by line and extracts well-formed
// start/separator/end triples. A start marker with no matching
// separator and end before EOF or before the next start marker is
// malformed: it yields no region and one ConflictParseError.
func scanRegions(path, text string) ([]types.ConflictRegion, int, []error) {
	var (
		regions   []types.ConflictRegion
		errs      []error
		malformed int
	)

	type openRegion struct {
		start     int // byte offset of the start marker line
		headLabel string
		headFrom  int // byte offset just past the start marker line
		sepSeen   bool
		mainFrom  int
	}
	var open *openRegion

	abandon := func(offset int, detail string) {
		malformed++
		errs = append(errs, errors.NewConflictParseError(path, offset, detail))
		open = nil
	}

	offset := 0
	for offset <= len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		var next int
		var line string
		if lineEnd < 0 {
			line = text[offset:]
			next = len(text) + 1 // terminate after the last line
		} else {
			line = text[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		}
		trimmed := strings.TrimRight(line, "\r")

		switch {
		case strings.HasPrefix(trimmed, markerStart+" ") || trimmed == markerStart:
			if open != nil {
				abandon(open.start, "start marker followed by another start marker")
			}
			open = &openRegion{
				start:     offset,
				headLabel: strings.TrimPrefix(strings.TrimPrefix(trimmed, markerStart), " "),
				headFrom:  next,
			}

		case trimmed == markerSep:
			if open == nil || open.sepSeen {
				// A stray separator outside a region belongs to the
				// orphaned-marker rewrite rule, not to us.
				if open != nil {
					abandon(open.start, "duplicate separator inside region")
				}
				break
			}
			open.sepSeen = true
			open.mainFrom = next

		case strings.HasPrefix(trimmed, markerEnd+" ") || trimmed == markerEnd:
			if open == nil {
				break
			}
			if !open.sepSeen {
				abandon(open.start, "end marker before separator")
				break
			}
			end := next
			if end > len(text) {
				end = len(text)
			}
			regions = append(regions, types.ConflictRegion{
				File:        path,
				HeadText:    text[open.headFrom:sepLineStart(text, open.mainFrom)],
				MainText:    text[open.mainFrom:offset],
				HeadLabel:   open.headLabel,
				MainLabel:   strings.TrimPrefix(strings.TrimPrefix(trimmed, markerEnd), " "),
				StartOffset: open.start,
				EndOffset:   end,
			})
			open = nil
		}

		if lineEnd < 0 {
			break
		}
		offset = next
	}

	if open != nil {
		abandon(open.start, "start marker with no matching end before EOF")
	}
	return regions, malformed, errs
}

// sepLineStart returns the byte offset of the separator marker line
// given the offset just past it.
func sepLineStart(text string, afterSep int) int {
	// afterSep sits right after the separator line's newline; back up
	// over that line.
	i := afterSep - 1 // the newline itself
	for i > 0 && text[i-1] != '\n' {
		i--
	}
	return i
}

// lineAt converts a byte offset into a 1-based line number.
func lineAt(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}
