// Package safety decides whether a candidate automatic edit is safe
// to apply. The analyzer is a pure decision function: it never
// mutates anything, and any name it cannot affirmatively classify as
// safe defaults to unsafe - silence means "do not auto-edit".
package safety

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/remedy/internal/knowledge"
	"github.com/standardbeagle/remedy/internal/lexical"
)

// Verdict is the outcome of one safety check.
type Verdict struct {
	Safe   bool
	Reason string
}

func safe() Verdict                { return Verdict{Safe: true} }
func unsafe(reason string) Verdict { return Verdict{Safe: false, Reason: reason} }

// Analyzer holds the read-only knowledge the checks consult. One
// analyzer is shared across workers.
type Analyzer struct {
	table *knowledge.Table
}

// New creates an analyzer over the given knowledge table.
func New(table *knowledge.Table) *Analyzer {
	if table == nil {
		table = knowledge.Defaults()
	}
	return &Analyzer{table: table}
}

// CheckIdentifier decides whether filling in a reference to name is
// safe, given the lexical facts of the surrounding file. Volatile
// naming patterns are rejected before anything else; only then do
// import bindings, module-level consts, and the known-safe list grant
// approval.
func (a *Analyzer) CheckIdentifier(name string, facts *lexical.FileFacts) Verdict {
	if name == "" {
		return unsafe("empty identifier")
	}

	for _, prefix := range a.table.VolatilePrefixes {
		rest := strings.TrimPrefix(name, prefix)
		if rest != name && rest != "" && unicode.IsUpper(rune(rest[0])) {
			return unsafe("matches state-setter naming convention")
		}
	}
	if strings.Contains(name, ".") {
		return unsafe("property access is never auto-filled")
	}
	for _, suffix := range a.table.HandlerSuffixes {
		if strings.HasSuffix(name, suffix) && name != suffix {
			return unsafe("handler/callback naming suffix")
		}
	}

	if facts != nil && facts.Imports[name] {
		return safe()
	}
	if facts != nil && facts.TopLevelConsts[name] {
		return safe()
	}
	if a.table.IsSafeIdentifier(name) {
		return safe()
	}

	return unsafe("not affirmatively known safe")
}

// CandidateNames ranks the closest known-safe names to an unsafe
// identifier, for inclusion on the manual-review item. Pool is the
// knowledge table plus the file's own bindings.
func (a *Analyzer) CandidateNames(name string, facts *lexical.FileFacts, limit int) []string {
	type scored struct {
		name  string
		score float32
	}

	pool := make(map[string]bool)
	for _, s := range a.table.SafeIdentifiers {
		pool[s] = true
	}
	if facts != nil {
		for s := range facts.Imports {
			pool[s] = true
		}
		for s := range facts.TopLevelConsts {
			pool[s] = true
		}
	}

	var ranked []scored
	for candidate := range pool {
		if candidate == name {
			continue
		}
		score, err := edlib.StringsSimilarity(name, candidate, edlib.JaroWinkler)
		if err != nil || score < 0.75 {
			continue
		}
		ranked = append(ranked, scored{candidate, score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})

	if limit <= 0 {
		limit = 3
	}
	out := make([]string, 0, limit)
	for _, r := range ranked {
		if len(out) == limit {
			break
		}
		out = append(out, r.name)
	}
	return out
}

// typeAnnotation matches one explicit type annotation. Deliberately
// shallow: the count only has to order two conflict sides, not parse
// the language.
var typeAnnotation = regexp.MustCompile(`:\s*[A-Za-z][A-Za-z0-9_.]*(?:<[^<>]*>)?(?:\[\])?`)

// AnnotationCount counts explicit type annotations in text after
// removing tool-generated comments.
func AnnotationCount(text string) int {
	return len(typeAnnotation.FindAllString(lexical.StripAutoComments(text), -1))
}

// stripAnnotations removes type annotations so a typed side can be
// compared against its untyped counterpart.
func stripAnnotations(text string) string {
	return typeAnnotation.ReplaceAllString(text, "")
}

// PreferSide applies the conflict-side heuristic: the side carrying
// strictly more explicit type annotations wins, but only when the
// other side reduces - after stripping tool comments and the winner's
// extra annotations - to the same content. Identical sides (after
// stripping tool comments) resolve to the shared text. Anything else
// is unresolved.
func (a *Analyzer) PreferSide(head, main string) (string, bool, string) {
	headNorm := lexical.NormalizeForComparison(head)
	mainNorm := lexical.NormalizeForComparison(main)

	if headNorm == mainNorm {
		return strings.TrimRight(lexical.StripAutoComments(head), " \t"), true, ""
	}

	headCount := AnnotationCount(head)
	mainCount := AnnotationCount(main)

	normalizeStripped := func(s string) string {
		return strings.Join(strings.Fields(stripAnnotations(lexical.StripAutoComments(s))), " ")
	}

	switch {
	case headCount > mainCount && normalizeStripped(head) == normalizeStripped(main):
		return strings.TrimRight(lexical.StripAutoComments(head), " \t"), true, ""
	case mainCount > headCount && normalizeStripped(main) == normalizeStripped(head):
		return strings.TrimRight(lexical.StripAutoComments(main), " \t"), true, ""
	}

	return "", false, "neither side disambiguates: divergent content with equal or unrelated typing"
}
