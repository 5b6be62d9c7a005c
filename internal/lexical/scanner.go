// Package lexical is the minimal lexical scanner backing the safety
// analyzer and the rewrite engine. It does not attempt static
// analysis: it extracts only what the conservative safety contract
// needs from a file - import bindings, module-level const names, and
// the comment/string spans that pattern rewrites must never reach
// into.
package lexical

import (
	"path/filepath"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// SpanKind distinguishes the protected span types.
type SpanKind uint8

const (
	SpanComment SpanKind = iota
	SpanString
)

// Span is a byte range of the file content.
type Span struct {
	Start int
	End   int
	Kind  SpanKind
}

// FileFacts is everything the scanner learned about one file.
type FileFacts struct {
	// Imports holds every identifier bound by an import statement
	// (default, named, aliased, and namespace imports).
	Imports map[string]bool

	// TopLevelConsts holds names bound by module-level const
	// declarations. Nested-scope consts are deliberately excluded.
	TopLevelConsts map[string]bool

	// Protected are the comment and string spans of the file.
	Protected []Span
}

// InProtectedSpan reports whether the byte range [start,end) overlaps
// a comment or string span.
func (f *FileFacts) InProtectedSpan(start, end int) bool {
	for _, s := range f.Protected {
		if start < s.End && end > s.Start {
			return true
		}
	}
	return false
}

// HasBinding reports whether name is an import binding or a top-level
// const in the scanned file.
func (f *FileFacts) HasBinding(name string) bool {
	return f.Imports[name] || f.TopLevelConsts[name]
}

// Scanner owns the per-extension tree-sitter parsers. Parsers are
// created lazily under the mutex; tree-sitter parser instances are not
// safe for concurrent use, so calls are serialized per scanner and
// each worker owns its own Scanner.
type Scanner struct {
	mu      sync.Mutex
	parsers map[string]*tree_sitter.Parser
	queries map[string]*tree_sitter.Query
}

// NewScanner creates an empty scanner; languages initialize on first
// use.
func NewScanner() *Scanner {
	return &Scanner{
		parsers: make(map[string]*tree_sitter.Parser),
		queries: make(map[string]*tree_sitter.Query),
	}
}

// Supported reports whether the scanner understands the file's
// extension.
func Supported(path string) bool {
	switch filepath.Ext(path) {
	case ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs":
		return true
	}
	return false
}

// ScanFile parses one file and extracts its facts. Unsupported
// extensions return empty facts: every lookup then fails closed, which
// keeps the safety analyzer conservative for files it cannot read
// lexically.
func (s *Scanner) ScanFile(path string, content []byte) *FileFacts {
	facts := &FileFacts{
		Imports:        make(map[string]bool),
		TopLevelConsts: make(map[string]bool),
	}

	s.mu.Lock()
	parser, query := s.languageFor(filepath.Ext(path))
	s.mu.Unlock()
	if parser == nil || query == nil {
		return facts
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tree := parser.Parse(content, nil)
	if tree == nil {
		return facts
	}
	defer tree.Close()

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()
	matches := qc.Matches(query, tree.RootNode(), content)

	captureNames := query.CaptureNames()

	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, c := range match.Captures {
			node := c.Node
			switch captureNames[c.Index] {
			case "span.comment":
				facts.Protected = append(facts.Protected, Span{
					Start: int(node.StartByte()), End: int(node.EndByte()), Kind: SpanComment,
				})
			case "span.string":
				facts.Protected = append(facts.Protected, Span{
					Start: int(node.StartByte()), End: int(node.EndByte()), Kind: SpanString,
				})
			case "import.name":
				facts.Imports[nodeText(&node, content)] = true
			case "import.spec":
				name := importSpecifierBinding(&node, content)
				if name != "" {
					facts.Imports[name] = true
				}
			case "decl.toplevel":
				collectConstNames(&node, content, facts.TopLevelConsts)
			}
		}
	}

	return facts
}

// importSpecifierBinding resolves the local binding of a named import:
// the alias when present, otherwise the imported name.
func importSpecifierBinding(node *tree_sitter.Node, content []byte) string {
	if alias := node.ChildByFieldName("alias"); alias != nil {
		return nodeText(alias, content)
	}
	if name := node.ChildByFieldName("name"); name != nil {
		return nodeText(name, content)
	}
	return ""
}

// collectConstNames walks a top-level lexical declaration and records
// declarator names, but only for const declarations.
func collectConstNames(decl *tree_sitter.Node, content []byte, out map[string]bool) {
	kind := decl.Child(0)
	if kind == nil || nodeText(kind, content) != "const" {
		return
	}
	for i := uint(0); i < decl.NamedChildCount(); i++ {
		child := decl.NamedChild(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		if name := child.ChildByFieldName("name"); name != nil && name.Kind() == "identifier" {
			out[nodeText(name, content)] = true
		}
	}
}

func nodeText(node *tree_sitter.Node, content []byte) string {
	start, end := int(node.StartByte()), int(node.EndByte())
	if start < 0 || end > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}
