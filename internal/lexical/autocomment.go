package lexical

import (
	"regexp"
	"strings"
)

// Tool-generated comment markers left behind by earlier automated
// passes. Stripping them is how two conflict sides that differ only by
// tooling noise are recognized as the same content.
var (
	autoLineComment    = regexp.MustCompile(`[ \t]*// auto:[^\n]*`)
	globalBlockComment = regexp.MustCompile(`[ \t]*/\* global [^*]* \*/`)
)

// StripAutoComments removes tool-generated comment markers from text.
// Code content is untouched; only the comments themselves (and their
// leading inline whitespace) disappear.
func StripAutoComments(text string) string {
	text = autoLineComment.ReplaceAllString(text, "")
	text = globalBlockComment.ReplaceAllString(text, "")
	return text
}

// StripAutoLineComments removes only the `// auto:` line comments.
// Global declaration comments stay: the fill pass inserts them as
// repairs, so cleanup must not undo them.
func StripAutoLineComments(text string) string {
	return autoLineComment.ReplaceAllString(text, "")
}

// NormalizeForComparison strips auto comments and collapses
// whitespace so textually-noisy but identical sides compare equal.
func NormalizeForComparison(text string) string {
	text = StripAutoComments(text)
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}
